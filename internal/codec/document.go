package codec

import (
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// CategoryFields are the scalar fields of a persisted Category.
// Zero values are omitted from the document.
type CategoryFields struct {
	Name        string `json:"Name" validate:"notblank"`
	Description string `json:"Description,omitempty"`
	Icon        string `json:"Icon,omitempty"`
	Keywords    string `json:"Keywords,omitempty"`
	TagIDs      []int  `json:"TagIds,omitempty"`

	CreatedDate  time.Time `json:"CreatedDate,omitzero"`
	ModifiedDate time.Time `json:"ModifiedDate,omitzero"`

	PasswordProtection domain.PasswordProtection `json:"PasswordProtection,omitempty"`
	OwnPasswordHash    string                    `json:"OwnPasswordHash,omitempty"`
	SortOrder          int                       `json:"SortOrder,omitempty"`

	IsBookmarkImport       bool      `json:"IsBookmarkImport,omitempty"`
	SourceBrowserType      string    `json:"SourceBrowserType,omitempty"`
	SourceBrowserName      string    `json:"SourceBrowserName,omitempty"`
	SourceBrowserPath      string    `json:"SourceBrowserPath,omitempty"`
	LastBookmarkImportDate time.Time `json:"LastBookmarkImportDate,omitzero"`
	ImportedBookmarkCount  int       `json:"ImportedBookmarkCount,omitempty"`
	IsBookmarkCategory     bool      `json:"IsBookmarkCategory,omitempty"`
	IsBookmarkLookup       bool      `json:"IsBookmarkLookup,omitempty"`

	IsAuditLoggingEnabled bool     `json:"IsAuditLoggingEnabled,omitempty"`
	BackupDirectories     []string `json:"BackupDirectories,omitempty"`
}

// CategoryDocument is one persisted category file.
type CategoryDocument struct {
	CategoryFields
	Links         []LinkDocument     `json:"Links,omitempty"`
	SubCategories []CategoryDocument `json:"SubCategories,omitempty"`
}

// LinkFields are the scalar fields of a persisted Link or catalog entry.
// For catalog entries Url holds only the path segment below the parent.
type LinkFields struct {
	Title       string               `json:"Title" validate:"notblank"`
	URL         string               `json:"Url,omitempty"`
	Description string               `json:"Description,omitempty"`
	Keywords    string               `json:"Keywords,omitempty"`
	TagIDs      []int                `json:"TagIds,omitempty"`
	Ratings     []domain.RatingValue `json:"Ratings,omitempty"`

	CreatedDate  time.Time `json:"CreatedDate,omitzero"`
	ModifiedDate time.Time `json:"ModifiedDate,omitzero"`

	IsDirectory          bool              `json:"IsDirectory,omitempty"`
	FolderType           domain.FolderType `json:"FolderType,omitempty"`
	FileFilters          string            `json:"FileFilters,omitempty"`
	FileSize             *int64            `json:"FileSize,omitempty"`
	ZipPasswordProtected bool              `json:"ZipPasswordProtected,omitempty"`
	BackupDirectories    []string          `json:"BackupDirectories,omitempty"`

	IsCatalogEntry    bool                    `json:"IsCatalogEntry,omitempty"`
	AutoRefresh       bool                    `json:"AutoRefresh,omitempty"`
	CatalogSortOrder  domain.CatalogSortOrder `json:"CatalogSortOrder,omitempty"`
	LastCatalogUpdate time.Time               `json:"LastCatalogUpdate,omitzero"`
	CatalogFileCount  int                     `json:"CatalogFileCount,omitempty"`
	CatalogTotalSize  int64                   `json:"CatalogTotalSize,omitempty"`

	URLStatus        domain.URLStatus `json:"UrlStatus,omitempty"`
	URLLastChecked   time.Time        `json:"UrlLastChecked,omitzero"`
	URLStatusMessage string           `json:"UrlStatusMessage,omitempty"`
}

// LinkDocument is a persisted Link with its catalog or its sub-links.
type LinkDocument struct {
	LinkFields
	CatalogEntries []LinkDocument `json:"CatalogEntries,omitempty"`
	SubLinks       []LinkDocument `json:"SubLinks,omitempty"`
}

func categoryFields(c *domain.Category) CategoryFields {
	return CategoryFields{
		Name:                   c.Name,
		Description:            c.Description,
		Icon:                   c.Icon,
		Keywords:               c.Keywords,
		TagIDs:                 c.TagIDs,
		CreatedDate:            c.CreatedDate,
		ModifiedDate:           c.ModifiedDate,
		PasswordProtection:     c.PasswordProtection,
		OwnPasswordHash:        c.OwnPasswordHash,
		SortOrder:              c.SortOrder,
		IsBookmarkImport:       c.IsBookmarkImport,
		SourceBrowserType:      c.SourceBrowserType,
		SourceBrowserName:      c.SourceBrowserName,
		SourceBrowserPath:      c.SourceBrowserPath,
		LastBookmarkImportDate: c.LastBookmarkImportDate,
		ImportedBookmarkCount:  c.ImportedBookmarkCount,
		IsBookmarkCategory:     c.IsBookmarkCategory,
		IsBookmarkLookup:       c.IsBookmarkLookup,
		IsAuditLoggingEnabled:  c.IsAuditLoggingEnabled,
		BackupDirectories:      c.BackupDirectories,
	}
}

func (f CategoryFields) category() *domain.Category {
	return &domain.Category{
		Name:                   f.Name,
		Description:            f.Description,
		Icon:                   f.Icon,
		Keywords:               f.Keywords,
		TagIDs:                 f.TagIDs,
		CreatedDate:            f.CreatedDate,
		ModifiedDate:           f.ModifiedDate,
		PasswordProtection:     f.PasswordProtection,
		OwnPasswordHash:        f.OwnPasswordHash,
		SortOrder:              f.SortOrder,
		IsBookmarkImport:       f.IsBookmarkImport,
		SourceBrowserType:      f.SourceBrowserType,
		SourceBrowserName:      f.SourceBrowserName,
		SourceBrowserPath:      f.SourceBrowserPath,
		LastBookmarkImportDate: f.LastBookmarkImportDate,
		ImportedBookmarkCount:  f.ImportedBookmarkCount,
		IsBookmarkCategory:     f.IsBookmarkCategory,
		IsBookmarkLookup:       f.IsBookmarkLookup,
		IsAuditLoggingEnabled:  f.IsAuditLoggingEnabled,
		BackupDirectories:      f.BackupDirectories,
	}
}

func linkFields(l *domain.Link, url string, ratings []domain.RatingValue) LinkFields {
	return LinkFields{
		Title:                l.Title,
		URL:                  url,
		Description:          l.Description,
		Keywords:             l.Keywords,
		TagIDs:               l.TagIDs,
		Ratings:              ratings,
		CreatedDate:          l.CreatedDate,
		ModifiedDate:         l.ModifiedDate,
		IsDirectory:          l.IsDirectory,
		FolderType:           l.FolderType,
		FileFilters:          l.FileFilters,
		FileSize:             l.FileSize,
		ZipPasswordProtected: l.ZipPasswordProtected,
		BackupDirectories:    l.BackupDirectories,
		IsCatalogEntry:       l.IsCatalogEntry,
		AutoRefresh:          l.AutoRefresh,
		CatalogSortOrder:     l.CatalogSortOrder,
		LastCatalogUpdate:    l.LastCatalogUpdate,
		CatalogFileCount:     l.CatalogFileCount,
		CatalogTotalSize:     l.CatalogTotalSize,
		URLStatus:            l.URLStatus,
		URLLastChecked:       l.URLLastChecked,
		URLStatusMessage:     l.URLStatusMessage,
	}
}

func (f LinkFields) link(url string, ratings []domain.RatingValue) *domain.Link {
	return &domain.Link{
		Title:                f.Title,
		URL:                  url,
		Description:          f.Description,
		Keywords:             f.Keywords,
		TagIDs:               f.TagIDs,
		Ratings:              ratings,
		CreatedDate:          f.CreatedDate,
		ModifiedDate:         f.ModifiedDate,
		IsDirectory:          f.IsDirectory,
		FolderType:           f.FolderType,
		FileFilters:          f.FileFilters,
		FileSize:             f.FileSize,
		ZipPasswordProtected: f.ZipPasswordProtected,
		BackupDirectories:    f.BackupDirectories,
		IsCatalogEntry:       f.IsCatalogEntry,
		AutoRefresh:          f.AutoRefresh,
		CatalogSortOrder:     f.CatalogSortOrder,
		LastCatalogUpdate:    f.LastCatalogUpdate,
		CatalogFileCount:     f.CatalogFileCount,
		CatalogTotalSize:     f.CatalogTotalSize,
		URLStatus:            f.URLStatus,
		URLLastChecked:       f.URLLastChecked,
		URLStatusMessage:     f.URLStatusMessage,
	}
}
