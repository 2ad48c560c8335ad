package staleness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/tree"
)

var ref = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func touch(t *testing.T, path string, at time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, at, at))
}

func mkfile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	touch(t, path, ref)
}

func TestIsStale_Tolerance(t *testing.T) {
	tests := []struct {
		name  string
		shift time.Duration
		want  bool
	}{
		{"older", -time.Hour, false},
		{"same instant", 0, false},
		{"bumped 1s", time.Second, false},
		{"exactly at tolerance", Tolerance, false},
		{"bumped 3s", 3 * time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			touch(t, dir, ref.Add(tt.shift))
			got := IsStale(&domain.Link{URL: dir, IsDirectory: true, IsCatalogEntry: true}, ref)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsStale_MissingDirectory(t *testing.T) {
	assert.True(t, IsStale(&domain.Link{URL: filepath.Join(t.TempDir(), "gone")}, ref))
}

func buildTree(t *testing.T, root string) (*tree.Node, *tree.Node, *tree.Node) {
	t.Helper()
	link := tree.NewNode(&domain.Link{
		Title: "root", URL: root, IsDirectory: true,
		LastCatalogUpdate: ref, CatalogFileCount: 2,
	})
	a := tree.NewNode(&domain.Link{Title: "a", URL: filepath.Join(root, "a"), IsDirectory: true, IsCatalogEntry: true, CatalogFileCount: 1})
	b := tree.NewNode(&domain.Link{Title: "b", URL: filepath.Join(a.Link().URL, "b"), IsDirectory: true, IsCatalogEntry: true, CatalogFileCount: 1})
	require.NoError(t, link.Append(a))
	require.NoError(t, a.Append(b))
	return link, a, b
}

func TestAnnotate_MarksOnlyDriftedDirectories(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "a", "b", "f.txt"))
	mkfile(t, filepath.Join(root, "top.txt"))
	touch(t, filepath.Join(root, "a", "b"), ref.Add(10*time.Second))
	touch(t, filepath.Join(root, "a"), ref)
	touch(t, root, ref)

	link, a, b := buildTree(t, root)
	marked := Annotate(link)

	assert.Equal(t, 1, marked)
	assert.False(t, link.Link().CatalogEntryHasChanged)
	assert.False(t, a.Link().CatalogEntryHasChanged)
	assert.True(t, b.Link().CatalogEntryHasChanged)
}

func TestAnnotate_NoCatalogTime(t *testing.T) {
	link := tree.NewNode(&domain.Link{Title: "x", URL: t.TempDir(), IsDirectory: true})
	assert.Equal(t, 0, Annotate(link))
}

func TestHasChanged(t *testing.T) {
	setup := func(t *testing.T) (string, *tree.Node, *tree.Node) {
		root := t.TempDir()
		mkfile(t, filepath.Join(root, "a", "b", "f.txt"))
		mkfile(t, filepath.Join(root, "top.txt"))
		touch(t, filepath.Join(root, "a", "b"), ref)
		touch(t, filepath.Join(root, "a"), ref)
		touch(t, root, ref)
		link, a, _ := buildTree(t, root)
		return root, link, a
	}

	t.Run("unchanged", func(t *testing.T) {
		_, link, a := setup(t)
		assert.False(t, HasChanged(link))
		assert.False(t, HasChanged(a))
	})

	t.Run("deep file touched", func(t *testing.T) {
		root, link, a := setup(t)
		touch(t, filepath.Join(root, "a", "b", "f.txt"), ref.Add(time.Minute))
		assert.True(t, HasChanged(link))
		assert.True(t, HasChanged(a))
	})

	t.Run("count drift without mtime change", func(t *testing.T) {
		_, link, _ := setup(t)
		link.Link().CatalogFileCount = 5
		assert.True(t, HasChanged(link))
	})

	t.Run("skip-listed content ignored", func(t *testing.T) {
		root, link, _ := setup(t)
		mkfile(t, filepath.Join(root, "node_modules", "x.js"))
		touch(t, filepath.Join(root, "node_modules", "x.js"), ref.Add(time.Hour))
		touch(t, filepath.Join(root, "node_modules"), ref.Add(time.Hour))
		touch(t, root, ref)
		assert.False(t, HasChanged(link))
	})

	t.Run("files are never directories", func(t *testing.T) {
		assert.False(t, HasChanged(tree.NewNode(&domain.Link{Title: "f", URL: "/nope"})))
	})
}

func TestArchiveEntriesFollowArchiveMtime(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bundle.zip")
	mkfile(t, archive)

	link := tree.NewNode(&domain.Link{Title: "bundle", URL: archive, LastCatalogUpdate: ref})
	docs := tree.NewNode(&domain.Link{
		Title: "docs", URL: archive + "/docs", IsDirectory: true, IsCatalogEntry: true,
	})
	require.NoError(t, link.Append(docs))
	require.NoError(t, docs.Append(tree.NewNode(&domain.Link{
		Title: "a.txt", URL: archive + "/docs/a.txt", IsCatalogEntry: true,
	})))

	assert.Equal(t, 0, Annotate(link), "untouched archive")
	assert.False(t, docs.Link().CatalogEntryHasChanged)
	assert.False(t, HasChanged(docs))

	touch(t, archive, ref.Add(3*time.Second))
	assert.Equal(t, 1, Annotate(link))
	assert.True(t, docs.Link().CatalogEntryHasChanged)
	assert.True(t, HasChanged(docs))
	assert.True(t, HasChanged(link))
}
