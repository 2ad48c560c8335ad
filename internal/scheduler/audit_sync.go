package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/shelf/internal/audit"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	redisstore "github.com/MrSnakeDoc/shelf/internal/store/redis"
)

// AuditSyncer copies the audit history kept in Redis into the memory sink
// on startup, so recent events survive a restart
type AuditSyncer struct {
	store  *redisstore.Store
	memory *audit.MemorySink
	logger logger.Logger
}

// NewAuditSyncer creates a new audit syncer
func NewAuditSyncer(
	store *redisstore.Store,
	memory *audit.MemorySink,
	log logger.Logger,
) *AuditSyncer {
	return &AuditSyncer{
		store:  store,
		memory: memory,
		logger: log,
	}
}

// Sync loads every audited category's events from Redis into memory
func (as *AuditSyncer) Sync(ctx context.Context) error {
	as.logger.Info("syncing audit history from redis to memory")

	categories, err := as.store.AuditedCategories(ctx)
	if err != nil {
		return err
	}

	if len(categories) == 0 {
		as.logger.Info("no audit history found in redis")
		return nil
	}

	total := 0
	for _, cat := range categories {
		events, err := as.store.RecentAudit(ctx, cat, 0)
		if err != nil {
			as.logger.Warn("failed to read audit history",
				logger.String("category", cat),
				logger.Error(err))
			continue
		}
		as.memory.Seed(cat, events)
		total += len(events)
	}

	as.logger.Info("synced audit history from redis",
		logger.Int("categories", len(categories)),
		logger.Int("events", total))

	return nil
}
