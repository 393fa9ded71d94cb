package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/common"
)

func TestNewStorageManager(t *testing.T) {
	logger := arbor.NewLogger()

	t.Run("memory", func(t *testing.T) {
		config := common.NewDefaultConfig()
		config.Storage.Type = "memory"

		manager, err := NewStorageManager(logger, config)
		require.NoError(t, err)
		defer manager.Close()
		assert.Equal(t, "memory", manager.Backend())
	})

	t.Run("badger", func(t *testing.T) {
		config := common.NewDefaultConfig()
		config.Storage.Badger.Path = filepath.Join(t.TempDir(), "db")

		manager, err := NewStorageManager(logger, config)
		require.NoError(t, err)
		defer manager.Close()
		assert.Equal(t, "badger", manager.Backend())
	})

	t.Run("unsupported", func(t *testing.T) {
		config := common.NewDefaultConfig()
		config.Storage.Type = "sqlite"

		_, err := NewStorageManager(logger, config)
		assert.Error(t, err)
	})
}
