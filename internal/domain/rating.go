package domain

import "strings"

// RatingValue is one score attached to a Link.
// RatingKey is either a bare legacy name or a "Template.Name" qualified name.
type RatingValue struct {
	RatingKey string `json:"RatingKey" validate:"notblank"`
	Score     int    `json:"Score,omitempty"`
	Reason    string `json:"Reason,omitempty"`
}

// Valid reports whether the rating has a usable key.
func (r RatingValue) Valid() bool {
	return strings.TrimSpace(r.RatingKey) != ""
}

// SplitKey splits a qualified key at the first dot. Legacy keys return an
// empty template.
func (r RatingValue) SplitKey() (template, name string) {
	if i := strings.IndexByte(r.RatingKey, '.'); i > 0 && i < len(r.RatingKey)-1 {
		return r.RatingKey[:i], r.RatingKey[i+1:]
	}
	return "", r.RatingKey
}

// FilterValidRatings drops corrupt ratings and reports how many were removed.
func FilterValidRatings(in []RatingValue) ([]RatingValue, int) {
	if len(in) == 0 {
		return in, 0
	}
	out := make([]RatingValue, 0, len(in))
	for _, r := range in {
		if r.Valid() {
			out = append(out, r)
		}
	}
	return out, len(in) - len(out)
}
