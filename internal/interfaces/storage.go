package interfaces

import "context"

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	// KeyValueStorage backs the places lookup cache
	KeyValueStorage() KeyValueStorage

	// Backend names the storage implementation ("badger" or "memory")
	Backend() string

	Close() error
}

// Compactor is implemented by storage backends that reclaim disk space
type Compactor interface {
	// Compact returns the number of value log files rewritten
	Compact(ctx context.Context) (int, error)
}
