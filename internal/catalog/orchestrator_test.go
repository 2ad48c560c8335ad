package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alexmullins/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/shelf/internal/audit"
	"github.com/MrSnakeDoc/shelf/internal/crawler"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/metadata"
	"github.com/MrSnakeDoc/shelf/internal/tree"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type recordingPersister struct {
	calls int
	last  *tree.Node
	err   error
}

func (p *recordingPersister) SaveCategory(_ context.Context, node *tree.Node) error {
	p.calls++
	p.last = node
	return p.err
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o644))
}

// fixture builds D with a.txt(100), b.txt(200), sub/c.txt(50) and a category
// holding a directory Link to it.
func fixture(t *testing.T) (string, *tree.Node, *tree.Node) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), 100)
	writeFile(t, filepath.Join(dir, "b.txt"), 200)
	writeFile(t, filepath.Join(dir, "sub", "c.txt"), 50)

	cat := tree.NewNode(&domain.Category{Name: "Work", IsAuditLoggingEnabled: true})
	link := tree.NewNode(&domain.Link{Title: "D", URL: dir, IsDirectory: true, FolderType: domain.FolderCatalogueFiles})
	require.NoError(t, cat.Append(link))
	return dir, cat, link
}

func newOrchestrator(p Persister, sink audit.Sink) *Orchestrator {
	log := logger.Nop()
	o := New(crawler.New(nil, log), NewZipCataloger(log), p, sink, log)
	o.now = func() time.Time { return fixedNow }
	return o
}

func entryByTitle(n *tree.Node, title string) *tree.Node {
	for _, c := range n.Children() {
		if c.Title() == title {
			return c
		}
	}
	return nil
}

func keys(link *tree.Node) []string {
	var out []string
	link.Walk(func(n *tree.Node) bool {
		if n.IsCatalogEntry() {
			out = append(out, n.Link().URL)
		}
		return true
	})
	sort.Strings(out)
	return out
}

func TestCreateCatalog_FreshScenario(t *testing.T) {
	_, cat, link := fixture(t)
	p := &recordingPersister{}
	sink := audit.NewMemorySink(10)
	o := newOrchestrator(p, sink)

	fresh, err := o.CreateCatalog(context.Background(), link)
	require.NoError(t, err)

	l := fresh.Link()
	assert.Equal(t, 3, l.CatalogFileCount)
	assert.Equal(t, int64(350), l.CatalogTotalSize)
	assert.Equal(t, fixedNow, l.LastCatalogUpdate)
	assert.Equal(t, fixedNow, l.ModifiedDate)

	sub := entryByTitle(fresh, "sub")
	require.NotNil(t, sub)
	assert.Equal(t, 1, sub.Link().CatalogFileCount)
	assert.Equal(t, int64(50), sub.Link().CatalogTotalSize)

	assert.Equal(t, link.ID, fresh.ID, "replacement keeps the runtime ID")
	assert.Same(t, fresh, cat.Child(0))
	assert.Nil(t, link.Parent())
	for _, c := range fresh.Children() {
		assert.False(t, c.IsPlaceholder())
	}

	assert.Equal(t, 1, p.calls)
	assert.Same(t, fresh, p.last)

	events, _ := sink.Recent(context.Background(), "Work", 0)
	require.Len(t, events, 1)
	assert.Equal(t, domain.AuditCatalogCreated, events[0].Action)
}

func TestCreateCatalog_Preconditions(t *testing.T) {
	_, cat, link := fixture(t)
	o := newOrchestrator(nil, nil)

	fresh, err := o.CreateCatalog(context.Background(), link)
	require.NoError(t, err)

	_, err = o.CreateCatalog(context.Background(), fresh)
	assert.ErrorIs(t, err, domain.ErrCatalogExists)

	_, err = o.CreateCatalog(context.Background(), cat)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = o.CreateCatalog(context.Background(), fresh.Child(0))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRefreshCatalog_IdempotentAndPreservesMetadata(t *testing.T) {
	_, _, link := fixture(t)
	o := newOrchestrator(&recordingPersister{}, nil)
	ctx := context.Background()

	first, err := o.RefreshCatalog(ctx, link, false)
	require.NoError(t, err, "refresh without catalog behaves like create")
	firstKeys := keys(first)

	entryByTitle(first, "a.txt").Link().TagIDs = []int{4, 2}
	c := entryByTitle(entryByTitle(first, "sub"), "c.txt")
	c.Link().Ratings = []domain.RatingValue{{RatingKey: "Doc.Score", Score: 3}}

	second, err := o.RefreshCatalog(ctx, first, false)
	require.NoError(t, err)

	assert.Equal(t, firstKeys, keys(second))
	assert.Equal(t, first.Link().CatalogFileCount, second.Link().CatalogFileCount)
	assert.Equal(t, first.Link().CatalogTotalSize, second.Link().CatalogTotalSize)

	assert.ElementsMatch(t, []int{2, 4}, entryByTitle(second, "a.txt").Link().TagIDs)
	c2 := entryByTitle(entryByTitle(second, "sub"), "c.txt")
	require.Len(t, c2.Link().Ratings, 1)
	assert.Equal(t, 3, c2.Link().Ratings[0].Score)
	assert.Empty(t, entryByTitle(second, "b.txt").Link().TagIDs)
}

func TestRefreshCatalog_ExpansionState(t *testing.T) {
	_, _, link := fixture(t)
	o := newOrchestrator(nil, nil)
	ctx := context.Background()

	fresh, err := o.CreateCatalog(ctx, link)
	require.NoError(t, err)
	entryByTitle(fresh, "sub").Expanded = true

	loud, err := o.RefreshCatalog(ctx, fresh, false)
	require.NoError(t, err)
	assert.True(t, entryByTitle(loud, "sub").Expanded)

	quiet, err := o.RefreshCatalog(ctx, loud, true)
	require.NoError(t, err)
	assert.False(t, entryByTitle(quiet, "sub").Expanded)
}

func TestRefreshCatalog_PicksUpChanges(t *testing.T) {
	dir, _, link := fixture(t)
	o := newOrchestrator(nil, nil)
	ctx := context.Background()

	fresh, err := o.CreateCatalog(ctx, link)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "a.txt")))
	writeFile(t, filepath.Join(dir, "sub", "d.txt"), 25)

	again, err := o.RefreshCatalog(ctx, fresh, true)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Link().CatalogFileCount)
	assert.Equal(t, int64(275), again.Link().CatalogTotalSize)
	assert.Nil(t, entryByTitle(again, "a.txt"))
}

func TestCatalog_ErrorsPropagate(t *testing.T) {
	t.Run("crawl aborted leaves placeholder, refresh recovers", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "later")
		cat := tree.NewNode(&domain.Category{Name: "C"})
		link := tree.NewNode(&domain.Link{Title: "L", URL: dir, IsDirectory: true})
		require.NoError(t, cat.Append(link))
		o := newOrchestrator(nil, nil)

		_, err := o.CreateCatalog(context.Background(), link)
		require.ErrorIs(t, err, domain.ErrCrawlAborted)
		require.Equal(t, 1, link.Len())
		assert.True(t, link.Child(0).IsPlaceholder())

		writeFile(t, filepath.Join(dir, "x.txt"), 1)
		fresh, err := o.RefreshCatalog(context.Background(), link, false)
		require.NoError(t, err)
		require.Equal(t, 1, fresh.Len())
		assert.Equal(t, "x.txt", fresh.Child(0).Title())
	})

	t.Run("persist failure", func(t *testing.T) {
		_, _, link := fixture(t)
		boom := errors.New("disk full")
		o := newOrchestrator(&recordingPersister{err: boom}, nil)

		fresh, err := o.CreateCatalog(context.Background(), link)
		assert.ErrorIs(t, err, boom)
		require.NotNil(t, fresh)
		assert.Equal(t, 3, fresh.Link().CatalogFileCount)
	})
}

func TestHasAndRemoveCatalogEntries(t *testing.T) {
	_, _, link := fixture(t)
	o := newOrchestrator(nil, nil)
	assert.False(t, o.HasCatalogEntries(link))

	fresh, err := o.CreateCatalog(context.Background(), link)
	require.NoError(t, err)
	assert.True(t, o.HasCatalogEntries(fresh))

	assert.Equal(t, 3, o.RemoveCatalogEntries(fresh))
	assert.False(t, o.HasCatalogEntries(fresh))
}

func TestFilteredCatalogue(t *testing.T) {
	dir, _, link := fixture(t)
	writeFile(t, filepath.Join(dir, "pic.jpg"), 10)
	link.Link().FolderType = domain.FolderFilteredCatalogue
	link.Link().FileFilters = "*.jpg"

	fresh, err := newOrchestrator(nil, nil).CreateCatalog(context.Background(), link)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Link().CatalogFileCount)
	assert.NotNil(t, entryByTitle(fresh, "pic.jpg"))
	assert.Nil(t, entryByTitle(fresh, "a.txt"))
}

func TestExpandEntry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "l1", "l2", "l3", "deep.txt"), 8)
	writeFile(t, filepath.Join(dir, "l1", "l2", "l3", "deeper", "x.txt"), 2)

	cat := tree.NewNode(&domain.Category{Name: "C"})
	link := tree.NewNode(&domain.Link{Title: "L", URL: dir, IsDirectory: true})
	require.NoError(t, cat.Append(link))
	o := newOrchestrator(nil, nil)

	fresh, err := o.CreateCatalog(context.Background(), link)
	require.NoError(t, err)
	l2 := fresh.Child(0).Child(0)
	require.Equal(t, "l2", l2.Title())
	require.Equal(t, 0, l2.Len())

	require.NoError(t, o.ExpandEntry(context.Background(), l2))
	require.Equal(t, 1, l2.Len())
	l3 := l2.Child(0)
	assert.Equal(t, "l3", l3.Title())
	assert.Equal(t, 2, l3.Link().CatalogFileCount)
	assert.True(t, l2.Expanded)

	l3.Link().TagIDs = []int{1}
	require.NoError(t, o.ExpandEntry(context.Background(), l2))
	assert.Equal(t, []int{1}, l2.Child(0).Link().TagIDs)

	assert.ErrorIs(t, o.ExpandEntry(context.Background(), fresh), domain.ErrValidation)
}

func writeZip(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, body := range map[string]string{
		"readme.txt":              "hello",
		"docs/guide.md":           "0123456789",
		"docs/img/logo.png":       "png",
		"node_modules/x/index.js": "skip me",
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	w, err := zw.Encrypt("secret/keys.txt", "pw")
	require.NoError(t, err)
	_, err = w.Write([]byte("abcd"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
}

func TestCreateCatalog_ZipArchive(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bundle.zip")
	writeZip(t, archive)

	cat := tree.NewNode(&domain.Category{Name: "C"})
	link := tree.NewNode(&domain.Link{Title: "Bundle", URL: archive})
	require.NoError(t, cat.Append(link))
	o := newOrchestrator(nil, nil)

	fresh, err := o.CreateCatalog(context.Background(), link)
	require.NoError(t, err)

	l := fresh.Link()
	assert.Equal(t, 4, l.CatalogFileCount)
	assert.Equal(t, int64(5+10+3+4), l.CatalogTotalSize)
	assert.True(t, l.ZipPasswordProtected)

	docs := entryByTitle(fresh, "docs")
	require.NotNil(t, docs)
	assert.Equal(t, archive+"/docs", docs.Link().URL)
	assert.Equal(t, 2, docs.Link().CatalogFileCount)
	img := entryByTitle(docs, "img")
	require.NotNil(t, img)
	assert.Equal(t, 0, img.Len(), "third level is lazy")
	assert.Nil(t, entryByTitle(fresh, "node_modules"))

	secret := entryByTitle(fresh, "secret")
	require.NotNil(t, secret)
	assert.True(t, secret.Link().ZipPasswordProtected)

	require.NoError(t, o.ExpandEntry(context.Background(), img))
	require.Equal(t, 1, img.Len())
	assert.Equal(t, "logo.png", img.Child(0).Title())
	assert.Equal(t, archive+"/docs/img/logo.png", img.Child(0).Link().URL)
}

func TestZipCataloger_AttachesNestedEntries(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bundle.zip")
	writeZip(t, archive)

	rep, err := NewZipCataloger(logger.New("error", false)).CatalogArchive(context.Background(), archive, "", 3)
	require.NoError(t, err)
	assert.Empty(t, rep.Skipped)

	var docs *tree.Node
	for _, n := range rep.Entries {
		if n.Title() == "docs" {
			docs = n
		}
	}
	require.NotNil(t, docs)
	img := entryByTitle(docs, "img")
	require.NotNil(t, img)
	require.Equal(t, 1, img.Len())
	assert.Same(t, img, img.Child(0).Parent())
	assert.Equal(t, archive+"/docs/img/logo.png", img.Child(0).Link().URL)
}

func TestMetadataKeysMatchCrawlTitles(t *testing.T) {
	_, _, link := fixture(t)
	fresh, err := newOrchestrator(nil, nil).CreateCatalog(context.Background(), link)
	require.NoError(t, err)

	entryByTitle(entryByTitle(fresh, "sub"), "c.txt").Link().TagIDs = []int{1}
	snap := metadata.Extract(fresh)
	_, ok := snap[metadata.Key("D", "sub", "c.txt")]
	assert.True(t, ok)
}
