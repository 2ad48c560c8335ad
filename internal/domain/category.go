package domain

import "time"

// Content is the payload of a tree node: a *Category or a *Link
// (catalog entries are Links with IsCatalogEntry set).
type Content interface {
	DisplayTitle() string
	content()
}

// Category is a named grouping of Links and subcategories.
// Each root Category is persisted as one file named after it.
type Category struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// Name is unique among siblings and derives the storage filename.
	Name string

	Description string
	Icon        string
	Keywords    string
	TagIDs      []int
	SortOrder   int

	CreatedDate  time.Time
	ModifiedDate time.Time

	// ─────────────────────────────
	// Protection & persistence
	// ─────────────────────────────

	PasswordProtection PasswordProtection

	// OwnPasswordHash is a bcrypt hash, set when PasswordProtection is PasswordOwn.
	OwnPasswordHash string

	IsAuditLoggingEnabled bool

	// BackupDirectories receive a copy of the category file after every save.
	// Entries prefixed with the manual marker are only written on demand.
	BackupDirectories []string

	// ─────────────────────────────
	// Bookmark import provenance
	// ─────────────────────────────

	IsBookmarkImport       bool
	SourceBrowserType      string
	SourceBrowserName      string
	SourceBrowserPath      string
	LastBookmarkImportDate time.Time
	ImportedBookmarkCount  int
	IsBookmarkCategory     bool
	IsBookmarkLookup       bool
}

func (c *Category) DisplayTitle() string { return c.Name }
func (c *Category) content()             {}

// IsProtected reports whether the category is persisted encrypted.
func (c *Category) IsProtected() bool {
	return c.PasswordProtection == PasswordGlobal || c.PasswordProtection == PasswordOwn
}
