package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestEnumJSON(t *testing.T) {
	type doc struct {
		P PasswordProtection
		F FolderType
		S CatalogSortOrder
		U URLStatus
	}

	data, err := json.Marshal(doc{P: PasswordGlobal, F: FolderFilteredCatalogue, S: SortByModified, U: URLNotAccessible})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"P":"GlobalPassword","F":"FilteredCatalogue","S":"Modified","U":"NotAccessible"}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var back doc
	if err := json.Unmarshal([]byte(`{"P":"ownpassword","F":1,"S":"2","U":null}`), &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.P != PasswordOwn || back.F != FolderCatalogueFiles || back.S != SortBySize || back.U != URLUnknown {
		t.Errorf("Unmarshal = %+v", back)
	}

	err = json.Unmarshal([]byte(`{"F":"Sideways"}`), &back)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("unknown name error = %v, want ErrValidation", err)
	}
}

func TestRatingSplitKey(t *testing.T) {
	tests := []struct {
		key, template, name string
	}{
		{"Movie.Story", "Movie", "Story"},
		{"Deleted.Template.Score", "Deleted", "Template.Score"},
		{"Legacy", "", "Legacy"},
		{".Leading", "", ".Leading"},
		{"Trailing.", "", "Trailing."},
	}
	for _, tt := range tests {
		tpl, name := RatingValue{RatingKey: tt.key}.SplitKey()
		if tpl != tt.template || name != tt.name {
			t.Errorf("SplitKey(%q) = (%q, %q), want (%q, %q)", tt.key, tpl, name, tt.template, tt.name)
		}
	}
}

func TestFilterValidRatings(t *testing.T) {
	in := []RatingValue{{RatingKey: "a"}, {RatingKey: ""}, {RatingKey: " \t"}, {RatingKey: "b", Score: -1}}
	out, dropped := FilterValidRatings(in)
	if dropped != 2 || len(out) != 2 || out[1].RatingKey != "b" {
		t.Errorf("FilterValidRatings = %+v, dropped %d", out, dropped)
	}
}

func TestLinkHelpers(t *testing.T) {
	tests := []struct {
		link    Link
		zip     bool
		web     bool
		comment string
	}{
		{Link{URL: "/tmp/a.ZIP"}, true, false, "zip file"},
		{Link{URL: "/tmp/a.zip", IsDirectory: true}, false, false, "directory named .zip"},
		{Link{URL: "https://example.com/x"}, false, true, "https"},
		{Link{URL: "ftp://example.com"}, false, false, "ftp"},
		{Link{URL: "http:///nohost"}, false, false, "no host"},
	}
	for _, tt := range tests {
		if got := tt.link.IsZipArchive(); got != tt.zip {
			t.Errorf("%s: IsZipArchive = %v", tt.comment, got)
		}
		if got := tt.link.IsWebURL(); got != tt.web {
			t.Errorf("%s: IsWebURL = %v", tt.comment, got)
		}
	}

	var l Link
	if l.Size() != 0 {
		t.Error("Size of unknown should be 0")
	}
	l.SetSize(12)
	if l.Size() != 12 {
		t.Errorf("Size = %d", l.Size())
	}
}

func TestStorageErrorIs(t *testing.T) {
	err := fmt.Errorf("save: %w", &StorageError{Op: "write", Path: "/x", Err: errors.New("disk full")})
	if !errors.Is(err, ErrStorageIO) {
		t.Error("StorageError should match ErrStorageIO")
	}
	var se *StorageError
	if !errors.As(err, &se) || se.Op != "write" {
		t.Error("errors.As should find the StorageError")
	}
}

func TestCategoryIsProtected(t *testing.T) {
	for p, want := range map[PasswordProtection]bool{PasswordNone: false, PasswordGlobal: true, PasswordOwn: true} {
		if got := (&Category{PasswordProtection: p}).IsProtected(); got != want {
			t.Errorf("IsProtected(%s) = %v", p, got)
		}
	}
}
