package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// DefaultAuditLimit is how many events are kept per category
const DefaultAuditLimit = 500

// Store handles Redis operations for the audit trail
type Store struct {
	client *redis.Client
	limit  int64
}

// NewStore creates a new Redis store. limit <= 0 uses DefaultAuditLimit.
func NewStore(client *redis.Client, limit int) *Store {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	return &Store{
		client: client,
		limit:  int64(limit),
	}
}

// Ping checks connectivity, used by readiness probes
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// PushAudit prepends an event to the category's list and trims it
func (s *Store) PushAudit(ctx context.Context, ev domain.AuditEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	key := AuditKey(ev.Category)

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, s.limit-1)
	pipe.SAdd(ctx, AuditCategoriesKey(), ev.Category)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push audit event: %w", err)
	}
	return nil
}

// RecentAudit returns up to n events for a category, newest first
func (s *Store) RecentAudit(ctx context.Context, category string, n int) ([]domain.AuditEvent, error) {
	if n <= 0 || int64(n) > s.limit {
		n = int(s.limit)
	}

	raw, err := s.client.LRange(ctx, AuditKey(category), 0, int64(n)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read audit events: %w", err)
	}

	events := make([]domain.AuditEvent, 0, len(raw))
	for _, r := range raw {
		var ev domain.AuditEvent
		if err := json.Unmarshal([]byte(r), &ev); err != nil {
			// Skip entries that couldn't be decoded
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// AuditedCategories lists categories that have at least one event
func (s *Store) AuditedCategories(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, AuditCategoriesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list audited categories: %w", err)
	}
	return names, nil
}

// DeleteAudit drops a category's audit list
func (s *Store) DeleteAudit(ctx context.Context, category string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, AuditKey(category))
	pipe.SRem(ctx, AuditCategoriesKey(), category)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete audit events: %w", err)
	}
	return nil
}
