package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/shelf/internal/app"
	"github.com/MrSnakeDoc/shelf/internal/config"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// seed creates a data dir holding category Work with a directory link Docs.
func seed(t *testing.T) (dataDir string) {
	t.Helper()
	t.Setenv("SHELF_LOG_LEVEL", "error")
	t.Setenv("SHELF_REDIS_ADDR", "")
	t.Setenv("SHELF_RATINGS_FILE", "")

	dataDir = t.TempDir()
	lib := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(lib, "a.txt"), []byte(strings.Repeat("x", 2048)), 0o644))

	cfg := config.Load()
	cfg.DataDir = dataDir
	a, err := app.New(context.Background(), cfg, logger.New("error", false))
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	_, err = a.Engine().AddCategory(ctx, &domain.Category{Name: "Work"})
	require.NoError(t, err)
	_, err = a.Engine().AddLink(ctx, "Work", &domain.Link{Title: "Docs", URL: lib, IsDirectory: true})
	require.NoError(t, err)
	return dataDir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRefreshThenList(t *testing.T) {
	dir := seed(t)

	out, err := run(t, "refresh", "work", "docs", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Docs: 1 files, 2.0 KiB")

	out, err = run(t, "ls", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Work")
	assert.Contains(t, out, "1 links")
	assert.Contains(t, out, "2.0 KiB")
}

func TestRefreshUnknownLink(t *testing.T) {
	dir := seed(t)

	_, err := run(t, "refresh", "Work", "nope", "--data-dir", dir)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBackupWithoutDestinations(t *testing.T) {
	dir := seed(t)

	out, err := run(t, "backup", "Work", "--data-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "0 copied, 0 failed\n", out)
}

func TestVersionSkipsLoading(t *testing.T) {
	t.Setenv("SHELF_DATA_DIR", filepath.Join(t.TempDir(), "missing"))

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "shelf "))
	_, statErr := os.Stat(filepath.Join(os.Getenv("SHELF_DATA_DIR")))
	assert.True(t, os.IsNotExist(statErr))
}
