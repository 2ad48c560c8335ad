package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

const doc = `{"Name":"Secrets","Description":"top"}`

func newTestStore(t *testing.T) (*Store, *PasswordCache) {
	t.Helper()
	pc := NewPasswordCache()
	return NewStore(t.TempDir(), pc, logger.Nop()), pc
}

func TestSanitizeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Work", "Work"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"trailing...", "trailing"},
		{"tab\there", "tab_here"},
		{"archive.zip", "archive.zip_"},
		{"...", "_"},
		{"Ünïcode ✓", "Ünïcode ✓"},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNameFromPath(t *testing.T) {
	name, enc := NameFromPath("/d/Work.zip.json")
	assert.Equal(t, "Work", name)
	assert.True(t, enc)

	name, enc = NameFromPath("/d/Home.json")
	assert.Equal(t, "Home", name)
	assert.False(t, enc)
}

func TestSaveLoad_Plain(t *testing.T) {
	s, _ := newTestStore(t)

	path, err := s.Save("Home", false, []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "Home.json"), path)

	got, err := s.Load(path)
	require.NoError(t, err)
	assert.Equal(t, doc, string(got))
}

func TestSaveLoad_EncryptedRoundTrip(t *testing.T) {
	s, pc := newTestStore(t)
	pc.CacheCategoryPassword("Secrets", "p1")

	path, err := s.Save("Secrets", true, []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "Secrets.zip.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "top", "document must not be stored in clear")

	got, err := s.Load(path)
	require.NoError(t, err)
	assert.Equal(t, doc, string(got))

	pc.CacheCategoryPassword("Secrets", "p2")
	_, err = s.Load(path)
	assert.ErrorIs(t, err, domain.ErrDecryptionFailed)

	pc.Clear()
	_, err = s.Load(path)
	assert.ErrorIs(t, err, domain.ErrDecryptionFailed)
}

func TestVerify(t *testing.T) {
	s, pc := newTestStore(t)
	pc.CacheGlobalPassword("g")

	enc, err := s.Save("Vault", true, []byte(doc))
	require.NoError(t, err)
	plain, err := s.Save("Open", false, []byte(doc))
	require.NoError(t, err)

	assert.NoError(t, s.Verify(enc, "g"))
	assert.ErrorIs(t, s.Verify(enc, "typo"), domain.ErrDecryptionFailed)
	assert.ErrorIs(t, s.Verify(plain, "g"), domain.ErrValidation)

	got, err := s.Load(enc)
	require.NoError(t, err, "a failed verify leaves the cache alone")
	assert.Equal(t, doc, string(got))
}

func TestSave_EncryptedWithoutPassword(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Save("Secrets", true, []byte(doc))
	assert.ErrorIs(t, err, domain.ErrNoPasswordAvailable)

	_, found := s.Find("Secrets")
	assert.False(t, found)
}

func TestSave_SwitchingModeRemovesStaleFile(t *testing.T) {
	s, pc := newTestStore(t)
	pc.CacheGlobalPassword("global")

	plain, err := s.Save("Mixed", false, []byte(doc))
	require.NoError(t, err)

	enc, err := s.Save("Mixed", true, []byte(doc))
	require.NoError(t, err)
	assert.NoFileExists(t, plain)
	assert.FileExists(t, enc)

	_, err = s.Save("Mixed", false, []byte(doc))
	require.NoError(t, err)
	assert.NoFileExists(t, enc)

	paths, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{plain}, paths)
}

func TestList(t *testing.T) {
	s, pc := newTestStore(t)
	pc.CacheGlobalPassword("g")

	_, err := s.List()
	require.NoError(t, err)

	for _, n := range []string{"b", "a"} {
		_, err := s.Save(n, false, []byte(doc))
		require.NoError(t, err)
	}
	_, err = s.Save("c", true, []byte(doc))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), nil, 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), "dir.json"), 0o700))

	paths, err := s.List()
	require.NoError(t, err)
	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"a.json", "b.json", "c.zip.json"}, names)
}

func TestList_MissingDir(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent"), NewPasswordCache(), logger.Nop())
	paths, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestLoad_MissingFileIsStorageError(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Load(filepath.Join(s.Dir(), "nope.json"))
	assert.ErrorIs(t, err, domain.ErrStorageIO)
}

func TestDelete(t *testing.T) {
	s, _ := newTestStore(t)
	path, err := s.Save("Gone", false, []byte(doc))
	require.NoError(t, err)

	require.NoError(t, s.Delete("Gone"))
	assert.NoFileExists(t, path)
	require.NoError(t, s.Delete("Gone"))
}

func TestPasswordCache_ResolveOrder(t *testing.T) {
	pc := NewPasswordCache()

	_, err := pc.Resolve("A")
	assert.ErrorIs(t, err, domain.ErrNoPasswordAvailable)

	pc.CacheGlobalPassword("global")
	pw, err := pc.Resolve("A")
	require.NoError(t, err)
	assert.Equal(t, "global", pw)

	pc.CacheCategoryPassword("A", "own")
	pw, _ = pc.Resolve("A")
	assert.Equal(t, "own", pw)

	pw, _ = pc.Resolve("B")
	assert.Equal(t, "global", pw)

	pc.ForgetCategory("A")
	pw, _ = pc.Resolve("A")
	assert.Equal(t, "global", pw)
	assert.True(t, pc.HasGlobal())

	pc.Clear()
	assert.False(t, pc.HasGlobal())
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("p1")
	require.NoError(t, err)

	ok, err := VerifyPassword(hash, "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "p2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = VerifyPassword("", "p1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("not-a-hash", "p1")
	assert.Error(t, err)
}
