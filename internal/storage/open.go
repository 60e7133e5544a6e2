package storage

import (
	"context"
	"log/slog"

	"github.com/IshaanNene/shopscrape/internal/config"
)

// Open builds every configured sink. The CSV at cfg.OutputPath is always
// written; extra formats land next to it and MongoDB is added when a URI is
// set. A single sink is returned bare, several are wrapped in MultiStorage.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Storage, error) {
	backends := []Storage{NewCSVStorage(cfg.OutputPath, logger)}

	for _, format := range cfg.ExtraFormats {
		s, err := NewFileStorage(format, SiblingPath(cfg.OutputPath, format), logger)
		if err != nil {
			return nil, err
		}
		backends = append(backends, s)
	}

	if cfg.Mongo.URI != "" {
		mongo, err := NewMongoStorage(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection, logger)
		if err != nil {
			return nil, err
		}
		backends = append(backends, mongo)
	}

	if len(backends) == 1 {
		return backends[0], nil
	}
	return NewMultiStorage(backends, logger), nil
}
