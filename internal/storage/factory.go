package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/common"
	"github.com/ternarybob/outing/internal/interfaces"
	"github.com/ternarybob/outing/internal/storage/badger"
	"github.com/ternarybob/outing/internal/storage/memory"
)

// NewStorageManager creates a new storage manager based on config
func NewStorageManager(logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error) {
	switch config.Storage.Type {
	case "", "badger":
		return badger.NewManager(logger, &config.Storage.Badger)
	case "memory":
		return memory.NewManager(logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s (expected 'badger' or 'memory')", config.Storage.Type)
	}
}
