package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCrawlAborted is an unexpected top-level failure while cataloging a Link.
	ErrCrawlAborted = errors.New("catalog crawl aborted")

	// ErrDecryptionFailed means an encrypted category could not be opened with
	// the cached password (wrong or missing).
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrNoPasswordAvailable means a protected category was saved without any
	// cached password to encrypt it with.
	ErrNoPasswordAvailable = errors.New("no password available")

	// ErrStorageIO wraps disk read/write failures.
	ErrStorageIO = errors.New("storage i/o error")

	// ErrValidation marks malformed node content.
	ErrValidation = errors.New("validation error")

	// ErrNotFound is returned by lookups of categories or nodes.
	ErrNotFound = errors.New("not found")

	// ErrCatalogExists is returned by CreateCatalog when the Link already has one.
	ErrCatalogExists = errors.New("link already has a catalog")
)

// CrawlEntryError records one file or directory skipped during a crawl.
// It is collected in the crawl report, never returned as the crawl's error.
type CrawlEntryError struct {
	Path   string
	Reason string
	Err    error
}

func (e *CrawlEntryError) Error() string {
	return fmt.Sprintf("skipped %s (%s): %v", e.Path, e.Reason, e.Err)
}

func (e *CrawlEntryError) Unwrap() error { return e.Err }

// StorageError carries the failing operation and path of a storage failure.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStorageIO) match any StorageError.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageIO
}
