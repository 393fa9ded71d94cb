package memory

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/interfaces"
)

// Manager implements the StorageManager interface in memory
type Manager struct {
	kv *KVStorage
}

// NewManager creates an in-memory storage manager
func NewManager(logger arbor.ILogger) interfaces.StorageManager {
	logger.Info().Msg("Memory storage manager initialized (cache is not persisted)")
	return &Manager{kv: NewKVStorage(logger, 0)}
}

// KeyValueStorage returns the KeyValue storage interface
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// Backend returns the storage backend name
func (m *Manager) Backend() string {
	return "memory"
}

// Close releases the store
func (m *Manager) Close() error {
	return m.kv.Close()
}
