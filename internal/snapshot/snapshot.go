// Package snapshot stores rendered result pages so extraction can be
// re-run offline without a browser.
package snapshot

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
)

// Ext is the file extension of compressed snapshots.
const Ext = ".html.br"

// Writer saves pages as brotli-compressed HTML under a directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates dir if needed.
func NewWriter(dir string, logger *slog.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Writer{
		dir:    dir,
		logger: logger.With("component", "snapshot"),
	}, nil
}

// Path returns the snapshot file for a page number.
func (w *Writer) Path(page int) string {
	return filepath.Join(w.dir, fmt.Sprintf("page-%03d%s", page, Ext))
}

// Save writes one page and returns its path.
func (w *Writer) Save(page int, html string) (string, error) {
	path := w.Path(page)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()

	bw := brotli.NewWriterLevel(f, brotli.DefaultCompression)
	if _, err := io.WriteString(bw, html); err != nil {
		bw.Close()
		return "", fmt.Errorf("compress snapshot: %w", err)
	}
	if err := bw.Close(); err != nil {
		return "", fmt.Errorf("compress snapshot: %w", err)
	}

	w.logger.Debug("snapshot saved", "page", page, "path", path, "size", len(html))
	return path, nil
}

// Load reads a snapshot. Files ending in .br are decompressed; anything
// else is read as plain HTML.
func Load(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".br") {
		r = brotli.NewReader(f)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return string(b), nil
}
