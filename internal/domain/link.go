package domain

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// Link references a file, directory, archive or URL inside a Category.
// A Link with IsCatalogEntry set is one crawled file or subdirectory.
type Link struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	Title string

	// URL is a web address or an absolute filesystem path. In memory, catalog
	// entries always carry absolute paths; only persisted documents are relative.
	URL string

	Description string
	Keywords    string
	TagIDs      []int
	Ratings     []RatingValue

	CreatedDate  time.Time
	ModifiedDate time.Time

	// ─────────────────────────────
	// Filesystem
	// ─────────────────────────────

	IsDirectory          bool
	FolderType           FolderType
	FileFilters          string
	FileSize             *int64
	ZipPasswordProtected bool
	BackupDirectories    []string

	// ─────────────────────────────
	// Catalog
	// ─────────────────────────────

	IsCatalogEntry    bool
	AutoRefresh       bool
	CatalogSortOrder  CatalogSortOrder
	LastCatalogUpdate time.Time

	// CatalogFileCount and CatalogTotalSize aggregate every descendant file.
	// Only meaningful for directories that have a catalog.
	CatalogFileCount int
	CatalogTotalSize int64

	// CatalogEntryHasChanged is set after load when the directory drifted
	// since LastCatalogUpdate. Never persisted.
	CatalogEntryHasChanged bool

	// ─────────────────────────────
	// URL accessibility
	// ─────────────────────────────

	URLStatus        URLStatus
	URLLastChecked   time.Time
	URLStatusMessage string

	// IsPlaceholder marks the transient "cataloging..." child. Never persisted.
	IsPlaceholder bool
}

func (l *Link) DisplayTitle() string { return l.Title }
func (l *Link) content()             {}

// Size returns the file size or 0 when unknown.
func (l *Link) Size() int64 {
	if l.FileSize == nil {
		return 0
	}
	return *l.FileSize
}

// SetSize records a known file size.
func (l *Link) SetSize(n int64) {
	l.FileSize = &n
}

// IsZipArchive reports whether the Link targets a .zip file.
func (l *Link) IsZipArchive() bool {
	return !l.IsDirectory && strings.EqualFold(filepath.Ext(l.URL), ".zip")
}

// IsWebURL reports whether the Link targets an http(s) address.
func (l *Link) IsWebURL() bool {
	u, err := url.Parse(l.URL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// HasMetadata reports whether user-authored tags or ratings are attached.
func (l *Link) HasMetadata() bool {
	return len(l.TagIDs) > 0 || len(l.Ratings) > 0
}

// NewPlaceholder builds the transient child shown while a catalog is built.
func NewPlaceholder() *Link {
	return &Link{Title: "Cataloging…", IsPlaceholder: true}
}
