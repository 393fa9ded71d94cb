package badger

import (
	"context"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/common"
	"github.com/ternarybob/outing/internal/interfaces"
)

// valueLogGCDiscardRatio is the fraction of stale data a value log file needs
// before GC rewrites it
const valueLogGCDiscardRatio = 0.5

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db     *BadgerDB
	kv     interfaces.KeyValueStorage
	logger arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:     db,
		kv:     NewKVStorage(db, logger),
		logger: logger,
	}

	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

// KeyValueStorage returns the KeyValue storage interface
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// Backend returns the storage backend name
func (m *Manager) Backend() string {
	return "badger"
}

// Compact runs value log garbage collection until badger reports nothing
// left to rewrite
func (m *Manager) Compact(ctx context.Context) (int, error) {
	db := m.db.Store().Badger()
	rewritten := 0
	for {
		if err := ctx.Err(); err != nil {
			return rewritten, err
		}
		err := db.RunValueLogGC(valueLogGCDiscardRatio)
		if errors.Is(err, badgerdb.ErrNoRewrite) || errors.Is(err, badgerdb.ErrRejected) {
			break
		}
		if err != nil {
			return rewritten, fmt.Errorf("value log GC failed: %w", err)
		}
		rewritten++
	}

	m.logger.Debug().Int("rewritten", rewritten).Msg("Badger value log GC complete")
	return rewritten, nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
