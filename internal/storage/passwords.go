package storage

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// PasswordCache holds passwords for the lifetime of the process. It is never
// written to disk.
type PasswordCache struct {
	mu         sync.RWMutex
	global     string
	categories map[string]string // sanitized category name -> password
}

// NewPasswordCache returns an empty cache.
func NewPasswordCache() *PasswordCache {
	return &PasswordCache{categories: make(map[string]string)}
}

// CacheGlobalPassword sets the password used by GlobalPassword categories and
// as the fallback for every other protected category.
func (pc *PasswordCache) CacheGlobalPassword(password string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.global = password
}

// CacheCategoryPassword sets the password for one category.
func (pc *PasswordCache) CacheCategoryPassword(category, password string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.categories[SanitizeName(category)] = password
}

// ForgetCategory drops one cached category password.
func (pc *PasswordCache) ForgetCategory(category string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	delete(pc.categories, SanitizeName(category))
}

// Clear drops every cached password.
func (pc *PasswordCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.global = ""
	pc.categories = make(map[string]string)
}

// Resolve returns the password for category: its own cached password first,
// then the global one.
func (pc *PasswordCache) Resolve(category string) (string, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	if pw, ok := pc.categories[SanitizeName(category)]; ok && pw != "" {
		return pw, nil
	}
	if pc.global != "" {
		return pc.global, nil
	}
	return "", fmt.Errorf("%w for category %q", domain.ErrNoPasswordAvailable, category)
}

// HasGlobal reports whether a global password is cached.
func (pc *PasswordCache) HasGlobal() bool {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	return pc.global != ""
}

// HashPassword produces the bcrypt hash stored in Category.OwnPasswordHash.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

// VerifyPassword checks password against a bcrypt hash. An empty hash never
// matches.
func VerifyPassword(hash, password string) (bool, error) {
	if hash == "" {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to verify password: %w", err)
	}
	return true, nil
}
