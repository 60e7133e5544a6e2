package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/IshaanNene/shopscrape/internal/types"
)

// Export writes products as CSV to path: the fixed header row followed by
// one row per product. An existing file is replaced only once the new one
// has been written completely.
func Export(products []types.Product, path string) error {
	return writeFile("csv", path, func(f io.Writer) error {
		w := csv.NewWriter(f)
		if err := w.Write(types.CSVHeader); err != nil {
			return fmt.Errorf("write CSV header: %w", err)
		}
		for _, p := range products {
			if err := w.Write(p.Row()); err != nil {
				return fmt.Errorf("write CSV row: %w", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("flush CSV: %w", err)
		}
		return nil
	})
}

// writeFile writes to a temp file next to path and renames it into place,
// so a failed write leaves the previous file intact.
func writeFile(backend, path string, write func(io.Writer) error) error {
	if err := ensureDir(path); err != nil {
		return &types.StorageError{Backend: backend, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &types.StorageError{Backend: backend, Err: fmt.Errorf("create output file: %w", err)}
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return &types.StorageError{Backend: backend, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &types.StorageError{Backend: backend, Err: fmt.Errorf("close output file: %w", err)}
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return &types.StorageError{Backend: backend, Err: fmt.Errorf("chmod output file: %w", err)}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &types.StorageError{Backend: backend, Err: fmt.Errorf("replace output file: %w", err)}
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

// SiblingPath swaps the extension of path for format, e.g.
// amazon_results.csv -> amazon_results.json.
func SiblingPath(path, format string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + format
}

// --- CSV Storage ---

// CSVStorage buffers products and writes the CSV file on Close, so an
// aborted run leaves any previous file untouched.
type CSVStorage struct {
	path     string
	products []types.Product
	logger   *slog.Logger
}

// NewCSVStorage creates a new CSV file storage.
func NewCSVStorage(outputPath string, logger *slog.Logger) *CSVStorage {
	return &CSVStorage{
		path:   outputPath,
		logger: logger.With("component", "csv_storage"),
	}
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(products []types.Product) error {
	s.products = append(s.products, products...)
	s.logger.Debug("products buffered", "count", len(products), "total", len(s.products))
	return nil
}

func (s *CSVStorage) Close() error {
	if err := Export(s.products, s.path); err != nil {
		return err
	}
	s.logger.Info("CSV written", "path", s.path, "products", len(s.products))
	return nil
}

// --- JSON Storage ---

// JSONStorage writes products as a JSON array on Close.
type JSONStorage struct {
	path     string
	products []types.Product
	logger   *slog.Logger
}

// NewJSONStorage creates a new JSON file storage.
func NewJSONStorage(outputPath string, logger *slog.Logger) *JSONStorage {
	return &JSONStorage{
		path:     outputPath,
		products: make([]types.Product, 0),
		logger:   logger.With("component", "json_storage"),
	}
}

func (s *JSONStorage) Name() string { return "json" }

func (s *JSONStorage) Store(products []types.Product) error {
	s.products = append(s.products, products...)
	return nil
}

func (s *JSONStorage) Close() error {
	err := writeFile("json", s.path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s.products); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("JSON written", "path", s.path, "products", len(s.products))
	return nil
}

// --- JSONL Storage ---

// JSONLStorage writes products as newline-delimited JSON on Close.
type JSONLStorage struct {
	path     string
	products []types.Product
	logger   *slog.Logger
}

// NewJSONLStorage creates a new JSONL file storage.
func NewJSONLStorage(outputPath string, logger *slog.Logger) *JSONLStorage {
	return &JSONLStorage{
		path:   outputPath,
		logger: logger.With("component", "jsonl_storage"),
	}
}

func (s *JSONLStorage) Name() string { return "jsonl" }

func (s *JSONLStorage) Store(products []types.Product) error {
	s.products = append(s.products, products...)
	return nil
}

func (s *JSONLStorage) Close() error {
	err := writeFile("jsonl", s.path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		for _, p := range s.products {
			if err := enc.Encode(p); err != nil {
				return fmt.Errorf("encode JSONL: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("JSONL written", "path", s.path, "products", len(s.products))
	return nil
}

// NewFileStorage creates the appropriate file-based storage by type.
func NewFileStorage(storageType, outputPath string, logger *slog.Logger) (Storage, error) {
	switch storageType {
	case "csv":
		return NewCSVStorage(outputPath, logger), nil
	case "json":
		return NewJSONStorage(outputPath, logger), nil
	case "jsonl":
		return NewJSONLStorage(outputPath, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
