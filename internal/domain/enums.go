package domain

import (
	"encoding"
	"encoding/json"
	"fmt"
	"strings"
)

// PasswordProtection selects how a Category file is persisted.
type PasswordProtection int

const (
	PasswordNone PasswordProtection = iota
	PasswordGlobal
	PasswordOwn
)

var passwordProtectionNames = []string{"None", "GlobalPassword", "OwnPassword"}

func (p PasswordProtection) String() string { return enumName(passwordProtectionNames, int(p)) }

func (p PasswordProtection) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *PasswordProtection) UnmarshalJSON(b []byte) error { return unmarshalEnumJSON(b, p) }

func (p *PasswordProtection) UnmarshalText(b []byte) error {
	v, err := parseEnum("PasswordProtection", passwordProtectionNames, string(b))
	*p = PasswordProtection(v)
	return err
}

// FolderType describes how a directory Link is cataloged.
type FolderType int

const (
	FolderLinkOnly FolderType = iota
	FolderCatalogueFiles
	FolderFilteredCatalogue
)

var folderTypeNames = []string{"LinkOnly", "CatalogueFiles", "FilteredCatalogue"}

func (f FolderType) String() string { return enumName(folderTypeNames, int(f)) }

func (f FolderType) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *FolderType) UnmarshalJSON(b []byte) error { return unmarshalEnumJSON(b, f) }

func (f *FolderType) UnmarshalText(b []byte) error {
	v, err := parseEnum("FolderType", folderTypeNames, string(b))
	*f = FolderType(v)
	return err
}

// CatalogSortOrder is a presentation hint for catalog entries.
type CatalogSortOrder int

const (
	SortAsScanned CatalogSortOrder = iota
	SortByName
	SortBySize
	SortByModified
)

var catalogSortOrderNames = []string{"AsScanned", "Name", "Size", "Modified"}

func (s CatalogSortOrder) String() string { return enumName(catalogSortOrderNames, int(s)) }

func (s CatalogSortOrder) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *CatalogSortOrder) UnmarshalJSON(b []byte) error { return unmarshalEnumJSON(b, s) }

func (s *CatalogSortOrder) UnmarshalText(b []byte) error {
	v, err := parseEnum("CatalogSortOrder", catalogSortOrderNames, string(b))
	*s = CatalogSortOrder(v)
	return err
}

// URLStatus is the outcome of the last accessibility probe of a URL Link.
type URLStatus int

const (
	URLUnknown URLStatus = iota
	URLAccessible
	URLNotAccessible
)

var urlStatusNames = []string{"Unknown", "Accessible", "NotAccessible"}

func (u URLStatus) String() string { return enumName(urlStatusNames, int(u)) }

func (u URLStatus) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *URLStatus) UnmarshalJSON(b []byte) error { return unmarshalEnumJSON(b, u) }

func (u *URLStatus) UnmarshalText(b []byte) error {
	v, err := parseEnum("URLStatus", urlStatusNames, string(b))
	*u = URLStatus(v)
	return err
}

// unmarshalEnumJSON accepts a quoted name or a bare JSON number, which older
// files used.
func unmarshalEnumJSON(b []byte, into encoding.TextUnmarshaler) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return into.UnmarshalText([]byte(s))
	}
	if string(b) == "null" {
		return nil
	}
	return into.UnmarshalText(b)
}

func enumName(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return fmt.Sprintf("%d", v)
	}
	return names[v]
}

// parseEnum accepts the string name (case-insensitive) and, for files written
// by older versions, the bare ordinal.
func parseEnum(kind string, names []string, s string) (int, error) {
	s = strings.TrimSpace(s)
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return i, nil
		}
	}
	var ord int
	if _, err := fmt.Sscanf(s, "%d", &ord); err == nil && ord >= 0 && ord < len(names) {
		return ord, nil
	}
	return 0, fmt.Errorf("%w: unknown %s %q", ErrValidation, kind, s)
}
