package ratings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

const sampleYAML = `
templates:
  - name: Movie
    ratings:
      - name: Story
        label: Story telling
      - name: Score
        min: 0
        max: 10
  - name: Book
    ratings:
      - name: Score
  - name: ""
    ratings:
      - name: Ignored
`

func loadSample(t *testing.T) *Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ratings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	return NewRegistry(cfg)
}

func TestLoader(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		cfg, err := NewLoader("").Load()
		require.NoError(t, err)
		assert.Empty(t, cfg.Templates)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load()
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("templates: [\n"), 0o600))
		_, err := NewLoader(path).Load()
		assert.Error(t, err)
	})
}

func TestResolve(t *testing.T) {
	r := loadSample(t)
	assert.Equal(t, 3, r.Len())

	d, ok := r.Resolve("Movie.Story")
	require.True(t, ok)
	assert.Equal(t, "Story telling", d.Label)

	d, ok = r.Resolve("movie.score")
	require.True(t, ok)
	assert.Equal(t, 0, d.Min)
	assert.Equal(t, 10, d.Max)

	d, ok = r.Resolve("Score")
	require.True(t, ok, "legacy bare key resolves by name")
	assert.Equal(t, "Movie", d.Template)

	_, ok = r.Resolve("Deleted.Template.Score")
	assert.False(t, ok)
	_, ok = r.Resolve("Ignored")
	assert.False(t, ok)
}

func TestDisplayText(t *testing.T) {
	r := loadSample(t)

	tests := []struct {
		value domain.RatingValue
		want  string
	}{
		{domain.RatingValue{RatingKey: "Deleted.Template.Score", Score: 5}, "Deleted.Template.Score: +5"},
		{domain.RatingValue{RatingKey: "Movie.Story", Score: -2}, "Story telling: -2"},
		{domain.RatingValue{RatingKey: "Book.Score", Score: 0, Reason: "meh"}, "Score: 0 (meh)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.DisplayText(tt.value))
	}

	assert.Equal(t, "Deleted.Template.Score: +5",
		NewRegistry(Config{}).DisplayText(domain.RatingValue{RatingKey: "Deleted.Template.Score", Score: 5}))
}

func TestOrphanedAndReplace(t *testing.T) {
	r := loadSample(t)
	values := []domain.RatingValue{{RatingKey: "Movie.Story"}, {RatingKey: "Gone.X"}}
	assert.Equal(t, []string{"Gone.X"}, r.Orphaned(values))

	r.Replace(Config{})
	assert.Equal(t, []string{"Movie.Story", "Gone.X"}, r.Orphaned(values))
}
