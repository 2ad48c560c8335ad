// Package ratings resolves stored rating keys against the user's rating
// templates.
package ratings

import (
	"fmt"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// Definition is one resolved rating definition.
type Definition struct {
	Template string
	Name     string
	Label    string
	Min, Max int
}

// QualifiedKey is the "Template.Name" form stored on links.
func (d Definition) QualifiedKey() string {
	return d.Template + "." + d.Name
}

// Registry maps rating keys to definitions. It is safe for concurrent use
// and can be swapped wholesale with Replace.
type Registry struct {
	mu        sync.RWMutex
	qualified map[string]Definition // lowercase "template.name"
	bare      map[string]Definition // lowercase "name", first template wins
}

// NewRegistry builds a registry from a loaded config.
func NewRegistry(cfg Config) *Registry {
	r := &Registry{}
	r.Replace(cfg)
	return r
}

// Replace swaps in a new set of templates.
func (r *Registry) Replace(cfg Config) {
	qualified := make(map[string]Definition)
	bare := make(map[string]Definition)

	for _, tpl := range cfg.Templates {
		tname := strings.TrimSpace(tpl.Name)
		if tname == "" {
			continue
		}
		for _, dc := range tpl.Ratings {
			name := strings.TrimSpace(dc.Name)
			if name == "" {
				continue
			}
			d := Definition{Template: tname, Name: name, Label: dc.Label, Min: -5, Max: 5}
			if d.Label == "" {
				d.Label = name
			}
			if dc.Min != nil {
				d.Min = *dc.Min
			}
			if dc.Max != nil {
				d.Max = *dc.Max
			}
			qualified[strings.ToLower(d.QualifiedKey())] = d
			if _, ok := bare[strings.ToLower(name)]; !ok {
				bare[strings.ToLower(name)] = d
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.qualified = qualified
	r.bare = bare
}

// Len returns the number of qualified definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.qualified)
}

// Resolve looks a stored key up: qualified keys by template and name, legacy
// bare keys by name.
func (r *Registry) Resolve(key string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k := strings.ToLower(strings.TrimSpace(key))
	if d, ok := r.qualified[k]; ok {
		return d, true
	}
	if !strings.Contains(k, ".") {
		d, ok := r.bare[k]
		return d, ok
	}
	return Definition{}, false
}

// DisplayText renders a rating as "<label>: +N". Ratings whose key has no
// definition keep their raw key as label.
func (r *Registry) DisplayText(v domain.RatingValue) string {
	label := v.RatingKey
	if d, ok := r.Resolve(v.RatingKey); ok {
		label = d.Label
	}
	text := fmt.Sprintf("%s: %s", label, formatScore(v.Score))
	if v.Reason != "" {
		text += " (" + v.Reason + ")"
	}
	return text
}

// Orphaned returns the keys in values that have no definition.
func (r *Registry) Orphaned(values []domain.RatingValue) []string {
	var out []string
	for _, v := range values {
		if _, ok := r.Resolve(v.RatingKey); !ok {
			out = append(out, v.RatingKey)
		}
	}
	return out
}

func formatScore(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}
