package storage

import (
	"github.com/IshaanNene/shopscrape/internal/types"
)

// Storage is the interface for all storage backends.
type Storage interface {
	// Store buffers or persists a batch of products.
	Store(products []types.Product) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}
