package audit

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

func TestMemorySink_NewestFirstAndBounded(t *testing.T) {
	s := NewMemorySink(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.Record(ctx, "Work", domain.AuditKindCategory, domain.AuditSaved, fmt.Sprint(i))
	}
	s.Record(ctx, "Home", domain.AuditKindCategory, domain.AuditLoaded, "")

	got, err := s.Recent(ctx, "Work", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "4", got[0].Details)
	assert.Equal(t, "2", got[2].Details)

	got, _ = s.Recent(ctx, "Work", 1)
	assert.Len(t, got, 1)

	got, _ = s.Recent(ctx, "Nobody", 10)
	assert.Empty(t, got)
}

func TestMulti(t *testing.T) {
	mem := NewMemorySink(10)
	m := Multi{NewLogSink(logger.Nop()), mem}

	m.Record(context.Background(), "Work", domain.AuditKindSecurity, domain.AuditInvalidPassword, "Work.zip.json")

	got, err := m.Recent(context.Background(), "Work", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.AuditInvalidPassword, got[0].Action)

	got, err = Multi{NewLogSink(logger.Nop())}.Recent(context.Background(), "Work", 5)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestForCategory_HonorsFlag(t *testing.T) {
	mem := NewMemorySink(10)
	ctx := context.Background()

	ForCategory(ctx, mem, &domain.Category{Name: "Quiet"}, domain.AuditSaved, "")
	ForCategory(ctx, mem, &domain.Category{Name: "Loud", IsAuditLoggingEnabled: true}, domain.AuditSaved, "x")
	ForCategory(ctx, nil, &domain.Category{Name: "Loud", IsAuditLoggingEnabled: true}, domain.AuditSaved, "x")

	quiet, _ := mem.Recent(ctx, "Quiet", 0)
	loud, _ := mem.Recent(ctx, "Loud", 0)
	assert.Empty(t, quiet)
	assert.Len(t, loud, 1)
}

func TestMemorySink_Seed(t *testing.T) {
	s := NewMemorySink(2)
	s.Seed("Work", []domain.AuditEvent{
		{Category: "Work", Action: domain.AuditSaved, Details: "c"},
		{Category: "Work", Action: domain.AuditSaved, Details: "b"},
		{Category: "Work", Action: domain.AuditSaved, Details: "a"},
	})

	got, err := s.Recent(context.Background(), "Work", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Details)

	s.Record(context.Background(), "Work", domain.AuditKindCategory, domain.AuditLoaded, "d")
	got, _ = s.Recent(context.Background(), "Work", 0)
	assert.Equal(t, []string{"d", "c"}, []string{got[0].Details, got[1].Details})
}
