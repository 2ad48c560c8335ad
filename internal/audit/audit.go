// Package audit records category events ("category saved", "invalid
// password", ...) to the log and, when configured, to Redis.
package audit

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	redisstore "github.com/MrSnakeDoc/shelf/internal/store/redis"
)

// Sink receives audit events. Implementations must not fail the caller:
// errors are logged inside the sink.
type Sink interface {
	Record(ctx context.Context, category, kind, action, details string)
}

// Reader is implemented by sinks that keep history.
type Reader interface {
	Recent(ctx context.Context, category string, n int) ([]domain.AuditEvent, error)
}

// ─────────────────────────────────────────────────────────────────
// Log
// ─────────────────────────────────────────────────────────────────

// LogSink writes events as structured log lines.
type LogSink struct {
	log logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Record(_ context.Context, category, kind, action, details string) {
	s.log.Info("audit",
		logger.String("category", category),
		logger.String("kind", kind),
		logger.String("action", action),
		logger.String("details", details))
}

// ─────────────────────────────────────────────────────────────────
// Redis
// ─────────────────────────────────────────────────────────────────

// RedisSink keeps a bounded list of events per category.
type RedisSink struct {
	store *redisstore.Store
	log   logger.Logger
	now   func() time.Time
}

func NewRedisSink(store *redisstore.Store, log logger.Logger) *RedisSink {
	return &RedisSink{store: store, log: log, now: time.Now}
}

func (s *RedisSink) Record(ctx context.Context, category, kind, action, details string) {
	ev := domain.AuditEvent{
		Time:     s.now().UTC(),
		Category: category,
		Kind:     kind,
		Action:   action,
		Details:  details,
	}
	if err := s.store.PushAudit(ctx, ev); err != nil {
		s.log.Warn("failed to store audit event in redis",
			logger.String("category", category),
			logger.String("action", action),
			logger.Error(err))
	}
}

func (s *RedisSink) Recent(ctx context.Context, category string, n int) ([]domain.AuditEvent, error) {
	return s.store.RecentAudit(ctx, category, n)
}

// ─────────────────────────────────────────────────────────────────
// Memory
// ─────────────────────────────────────────────────────────────────

// MemorySink keeps recent events in process when Redis is not configured.
type MemorySink struct {
	mu     sync.RWMutex
	limit  int
	events map[string][]domain.AuditEvent // category -> newest first
	now    func() time.Time
}

func NewMemorySink(limit int) *MemorySink {
	if limit <= 0 {
		limit = redisstore.DefaultAuditLimit
	}
	return &MemorySink{limit: limit, events: make(map[string][]domain.AuditEvent), now: time.Now}
}

func (s *MemorySink) Record(_ context.Context, category, kind, action, details string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := domain.AuditEvent{Time: s.now().UTC(), Category: category, Kind: kind, Action: action, Details: details}
	list := append([]domain.AuditEvent{ev}, s.events[category]...)
	if len(list) > s.limit {
		list = list[:s.limit]
	}
	s.events[category] = list
}

func (s *MemorySink) Recent(_ context.Context, category string, n int) ([]domain.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.events[category]
	if n > 0 && n < len(list) {
		list = list[:n]
	}
	return slices.Clone(list), nil
}

// Seed replaces a category's history with events, newest first. Used to warm
// the memory copy from Redis on startup.
func (s *MemorySink) Seed(category string, events []domain.AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(events) > s.limit {
		events = events[:s.limit]
	}
	s.events[category] = slices.Clone(events)
}

// ─────────────────────────────────────────────────────────────────
// Fan-out
// ─────────────────────────────────────────────────────────────────

// Multi fans an event out to several sinks. Recent is served by the first
// sink that implements Reader.
type Multi []Sink

func (m Multi) Record(ctx context.Context, category, kind, action, details string) {
	for _, s := range m {
		s.Record(ctx, category, kind, action, details)
	}
}

func (m Multi) Recent(ctx context.Context, category string, n int) ([]domain.AuditEvent, error) {
	for _, s := range m {
		if r, ok := s.(Reader); ok {
			return r.Recent(ctx, category, n)
		}
	}
	return nil, nil
}

// ForCategory records a category-scoped event only when the category has
// audit logging enabled.
func ForCategory(ctx context.Context, sink Sink, cat *domain.Category, action, details string) {
	if sink == nil || cat == nil || !cat.IsAuditLoggingEnabled {
		return
	}
	sink.Record(ctx, cat.Name, domain.AuditKindCategory, action, details)
}
