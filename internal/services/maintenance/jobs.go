package maintenance

import (
	"context"
	"fmt"

	"github.com/ternarybob/outing/internal/interfaces"
)

// PurgeCacheJobName names the expired lookup-cache purge job
const PurgeCacheJobName = "purge_expired_cache"

// PurgeExpiredCache returns a job that removes expired entries from kv
func PurgeExpiredCache(kv interfaces.KeyValueStorage) interfaces.JobHandler {
	return func(ctx context.Context) (string, error) {
		removed, err := kv.DeleteExpired(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to purge expired cache entries: %w", err)
		}
		return fmt.Sprintf("removed %d expired entries", removed), nil
	}
}

// CompactStorageJobName names the storage compaction job
const CompactStorageJobName = "compact_storage"

// CompactStorage returns a job that reclaims disk space held by stale values
func CompactStorage(c interfaces.Compactor) interfaces.JobHandler {
	return func(ctx context.Context) (string, error) {
		rewritten, err := c.Compact(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to compact storage: %w", err)
		}
		return fmt.Sprintf("rewrote %d value log files", rewritten), nil
	}
}

// RegisterCompactionJob registers storage compaction when the backend
// supports it. Returns false when nothing was registered.
func RegisterCompactionJob(s interfaces.SchedulerService, storage interfaces.StorageManager, schedule string) (bool, error) {
	compactor, ok := storage.(interfaces.Compactor)
	if !ok || schedule == "" {
		return false, nil
	}
	if err := s.RegisterJob(CompactStorageJobName, schedule, "Run value log garbage collection", CompactStorage(compactor)); err != nil {
		return false, err
	}
	return true, nil
}

// RegisterDefaultJobs registers the housekeeping jobs for the given storage
func RegisterDefaultJobs(s interfaces.SchedulerService, kv interfaces.KeyValueStorage, schedule string) error {
	return s.RegisterJob(PurgeCacheJobName, schedule, "Remove expired place lookup cache entries", PurgeExpiredCache(kv))
}
