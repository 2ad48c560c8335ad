package handlers

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MrSnakeDoc/shelf/internal/ratings"
	"github.com/MrSnakeDoc/shelf/internal/tree"
)

type categorySummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Protection string `json:"passwordProtection"`
	Links      int    `json:"links"`
	Audited    bool   `json:"auditLogging"`
}

type categoryView struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Description       string         `json:"description,omitempty"`
	Icon              string         `json:"icon,omitempty"`
	Keywords          string         `json:"keywords,omitempty"`
	TagIDs            []int          `json:"tagIds,omitempty"`
	Protection        string         `json:"passwordProtection"`
	BackupDirectories []string       `json:"backupDirectories,omitempty"`
	Links             []linkView     `json:"links,omitempty"`
	SubCategories     []categoryView `json:"subCategories,omitempty"`
}

type linkView struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	URL               string     `json:"url"`
	Description       string     `json:"description,omitempty"`
	IsDirectory       bool       `json:"isDirectory,omitempty"`
	IsCatalogEntry    bool       `json:"isCatalogEntry,omitempty"`
	FolderType        string     `json:"folderType,omitempty"`
	Size              string     `json:"size,omitempty"`
	CatalogFileCount  int        `json:"catalogFileCount,omitempty"`
	CatalogTotalSize  string     `json:"catalogTotalSize,omitempty"`
	LastCatalogUpdate *time.Time `json:"lastCatalogUpdate,omitempty"`
	HasChanged        bool       `json:"hasChanged,omitempty"`
	Encrypted         bool       `json:"zipPasswordProtected,omitempty"`
	AutoRefresh       bool       `json:"autoRefresh,omitempty"`
	Expanded          bool       `json:"expanded,omitempty"`
	URLStatus         string     `json:"urlStatus,omitempty"`
	URLStatusMessage  string     `json:"urlStatusMessage,omitempty"`
	TagIDs            []int      `json:"tagIds,omitempty"`
	Ratings           []string   `json:"ratings,omitempty"`
	Children          []linkView `json:"children,omitempty"`
}

func summarize(n *tree.Node) categorySummary {
	c := n.Category()
	return categorySummary{
		ID:         n.ID,
		Name:       c.Name,
		Protection: c.PasswordProtection.String(),
		Links:      len(n.Links()),
		Audited:    c.IsAuditLoggingEnabled,
	}
}

func viewCategory(n *tree.Node, reg *ratings.Registry) categoryView {
	c := n.Category()
	v := categoryView{
		ID:                n.ID,
		Name:              c.Name,
		Description:       c.Description,
		Icon:              c.Icon,
		Keywords:          c.Keywords,
		TagIDs:            c.TagIDs,
		Protection:        c.PasswordProtection.String(),
		BackupDirectories: c.BackupDirectories,
	}
	for _, child := range n.Children() {
		switch {
		case child.Category() != nil:
			v.SubCategories = append(v.SubCategories, viewCategory(child, reg))
		case child.Link() != nil:
			v.Links = append(v.Links, viewLink(child, reg))
		}
	}
	return v
}

func viewLink(n *tree.Node, reg *ratings.Registry) linkView {
	l := n.Link()
	v := linkView{
		ID:               n.ID,
		Title:            l.Title,
		URL:              l.URL,
		Description:      l.Description,
		IsDirectory:      l.IsDirectory,
		IsCatalogEntry:   l.IsCatalogEntry,
		CatalogFileCount: l.CatalogFileCount,
		HasChanged:       l.CatalogEntryHasChanged,
		Encrypted:        l.ZipPasswordProtected,
		AutoRefresh:      l.AutoRefresh,
		Expanded:         n.Expanded,
		URLStatusMessage: l.URLStatusMessage,
		TagIDs:           l.TagIDs,
	}
	if l.IsDirectory && !l.IsCatalogEntry {
		v.FolderType = l.FolderType.String()
	}
	if l.FileSize != nil {
		v.Size = humanize.IBytes(uint64(l.Size()))
	}
	if l.CatalogTotalSize > 0 {
		v.CatalogTotalSize = humanize.IBytes(uint64(l.CatalogTotalSize))
	}
	if !l.LastCatalogUpdate.IsZero() {
		t := l.LastCatalogUpdate
		v.LastCatalogUpdate = &t
	}
	if l.IsWebURL() {
		v.URLStatus = l.URLStatus.String()
	}
	for _, r := range l.Ratings {
		v.Ratings = append(v.Ratings, reg.DisplayText(r))
	}
	for _, c := range n.Children() {
		if c.Link() != nil {
			v.Children = append(v.Children, viewLink(c, reg))
		}
	}
	return v
}
