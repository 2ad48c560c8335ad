// Package storage persists category documents, one file per root category.
//
// Plain documents are written as <name>.json. Protected categories are
// written as <name>.zip.json: a zip archive holding a single AES-256
// encrypted entry <name>.json.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alexmullins/zip"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

const (
	PlainExt     = ".json"
	EncryptedExt = ".zip.json"
)

// Store reads and writes category files in one directory.
type Store struct {
	dir       string
	passwords *PasswordCache
	log       logger.Logger
}

// NewStore returns a Store rooted at dir. The directory is created on first save.
func NewStore(dir string, passwords *PasswordCache, log logger.Logger) *Store {
	return &Store{dir: dir, passwords: passwords, log: log}
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) Passwords() *PasswordCache { return s.passwords }

// SanitizeName maps a category name to a filesystem-safe file stem.
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r < 0x20 || strings.ContainsRune(`<>:"/\|?*`, r) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	out := strings.TrimRight(b.String(), ".")
	// a plain file for "x.zip" would otherwise read back as encrypted "x"
	if strings.HasSuffix(strings.ToLower(out), ".zip") {
		out += "_"
	}
	if out == "" {
		out = "_"
	}
	return out
}

// PathFor returns where the category file lives for the given mode.
func (s *Store) PathFor(name string, encrypted bool) string {
	ext := PlainExt
	if encrypted {
		ext = EncryptedExt
	}
	return filepath.Join(s.dir, SanitizeName(name)+ext)
}

// NameFromPath returns the file stem of a category file and whether it is
// the encrypted form.
func NameFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if stem, ok := strings.CutSuffix(base, EncryptedExt); ok {
		return stem, true
	}
	return strings.TrimSuffix(base, PlainExt), false
}

// Find returns the existing file for a category, preferring the encrypted form.
func (s *Store) Find(name string) (string, bool) {
	for _, enc := range []bool{true, false} {
		p := s.PathFor(name, enc)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// Save writes doc for the named category and removes the file of the other
// mode, so exactly one artifact exists per category. It returns the path
// written.
func (s *Store) Save(name string, encrypted bool, doc []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return "", &domain.StorageError{Op: "mkdir", Path: s.dir, Err: err}
	}

	data := doc
	if encrypted {
		password, err := s.passwords.Resolve(name)
		if err != nil {
			return "", err
		}
		data, err = encrypt(SanitizeName(name)+PlainExt, password, doc)
		if err != nil {
			return "", &domain.StorageError{Op: "encrypt", Path: name, Err: err}
		}
	}

	path := s.PathFor(name, encrypted)
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}

	stale := s.PathFor(name, !encrypted)
	if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("failed to remove stale category file",
			logger.String("path", stale),
			logger.Error(err))
	}

	s.log.Debug("category file written",
		logger.String("path", path),
		logger.Bool("encrypted", encrypted),
		logger.Int("bytes", len(data)))
	return path, nil
}

// Load reads a category file, decrypting it when it is the encrypted form.
// Any failure to open the encrypted entry is ErrDecryptionFailed.
func (s *Store) Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.StorageError{Op: "read", Path: path, Err: err}
	}

	name, encrypted := NameFromPath(path)
	if !encrypted {
		return data, nil
	}

	password, err := s.passwords.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDecryptionFailed, filepath.Base(path), err)
	}
	plain, err := decrypt(data, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDecryptionFailed, filepath.Base(path), err)
	}
	return plain, nil
}

// Verify reports ErrDecryptionFailed unless password opens the encrypted
// file at path. The password cache is not consulted nor changed.
func (s *Store) Verify(path, password string) error {
	if _, encrypted := NameFromPath(path); !encrypted {
		return fmt.Errorf("%w: %s is not encrypted", domain.ErrValidation, filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &domain.StorageError{Op: "read", Path: path, Err: err}
	}
	if _, err := decrypt(data, password); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrDecryptionFailed, filepath.Base(path), err)
	}
	return nil
}

// List returns every category file in the directory, sorted by name.
// A missing directory yields an empty list.
func (s *Store) List() ([]string, error) {
	items, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &domain.StorageError{Op: "list", Path: s.dir, Err: err}
	}

	var paths []string
	for _, it := range items {
		if it.IsDir() || !strings.HasSuffix(it.Name(), PlainExt) {
			continue
		}
		if strings.HasPrefix(it.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, it.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Delete removes both forms of a category file.
func (s *Store) Delete(name string) error {
	for _, enc := range []bool{false, true} {
		p := s.PathFor(name, enc)
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &domain.StorageError{Op: "delete", Path: p, Err: err}
		}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".shelf-*.tmp")
	if err != nil {
		return &domain.StorageError{Op: "create", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &domain.StorageError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &domain.StorageError{Op: "sync", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &domain.StorageError{Op: "close", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &domain.StorageError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

func encrypt(entry, password string, doc []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Encrypt(entry, password)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(doc); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decrypt(data []byte, password string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	if len(zr.File) != 1 {
		return nil, fmt.Errorf("expected one entry, found %d", len(zr.File))
	}
	f := zr.File[0]
	if !f.IsEncrypted() {
		return nil, errors.New("entry is not encrypted")
	}
	f.SetPassword(password)

	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	// the AES authentication code is only checked once the entry is fully read
	return io.ReadAll(rc)
}
