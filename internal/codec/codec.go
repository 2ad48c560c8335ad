// Package codec maps a category tree to and from its persisted JSON document.
//
// Decoding is lenient: a null, untitled or malformed child record is logged
// and skipped so the rest of the category still loads.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/tree"
)

// MaxCatalogDepth is the deepest catalog level written to a document.
// Deeper entries stay in memory but are rebuilt lazily after a reload.
const MaxCatalogDepth = 2

// DecodeReport summarizes what a lenient decode had to drop.
type DecodeReport struct {
	SkippedRecords int
	DroppedRatings int
	Problems       []string
}

func (r *DecodeReport) skip(format string, args ...any) {
	r.SkippedRecords++
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// Codec encodes and decodes category documents.
type Codec struct {
	validate *validator.Validate
	log      logger.Logger
}

// New returns a Codec.
func New(log logger.Logger) *Codec {
	v := validator.New(validator.WithRequiredStructEnabled())
	// notblank ships with the validator module but is not registered by default
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("codec: register notblank: %v", err))
	}
	return &Codec{validate: v, log: log}
}

// ─────────────────────────────────────────────────────────────────
// Encode
// ─────────────────────────────────────────────────────────────────

// Encode converts a Category subtree into its document.
func (c *Codec) Encode(node *tree.Node) (*CategoryDocument, error) {
	cat := node.Category()
	if cat == nil {
		return nil, fmt.Errorf("%w: %q is not a category", domain.ErrValidation, node.Title())
	}
	fields := categoryFields(cat)
	if err := c.validate.Struct(fields); err != nil {
		return nil, fmt.Errorf("%w: category %q: %v", domain.ErrValidation, cat.Name, err)
	}

	doc := &CategoryDocument{CategoryFields: fields}
	for _, child := range node.Children() {
		switch {
		case child.Category() != nil:
			sub, err := c.Encode(child)
			if err != nil {
				c.log.Warn("not saving invalid subcategory",
					logger.String("category", cat.Name),
					logger.Error(err))
				continue
			}
			doc.SubCategories = append(doc.SubCategories, *sub)
		case child.Link() != nil && !child.IsPlaceholder():
			if ld, ok := c.encodeLink(child, ""); ok {
				doc.Links = append(doc.Links, ld)
			}
		}
	}
	return doc, nil
}

// Marshal encodes node and renders it as indented JSON.
func (c *Codec) Marshal(node *tree.Node) ([]byte, error) {
	doc, err := c.Encode(node)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

func (c *Codec) encodeLink(node *tree.Node, parentURL string) (LinkDocument, bool) {
	l := node.Link()
	url := l.URL
	if l.IsCatalogEntry {
		url = relativeSegment(parentURL, l.URL)
	}
	ratings, _ := domain.FilterValidRatings(l.Ratings)

	fields := linkFields(l, url, ratings)
	if err := c.validate.Struct(fields); err != nil {
		c.log.Warn("not saving invalid link",
			logger.String("url", l.URL),
			logger.Error(err))
		return LinkDocument{}, false
	}

	doc := LinkDocument{LinkFields: fields}
	depth := node.CatalogDepth()
	for _, child := range node.Children() {
		if child.IsPlaceholder() {
			continue
		}
		if child.IsCatalogEntry() {
			if depth >= MaxCatalogDepth {
				continue
			}
			if cd, ok := c.encodeLink(child, l.URL); ok {
				doc.CatalogEntries = append(doc.CatalogEntries, cd)
			}
			continue
		}
		if sd, ok := c.encodeLink(child, l.URL); ok {
			doc.SubLinks = append(doc.SubLinks, sd)
		}
	}
	return doc, true
}

// relativeSegment strips parent from an entry path, falling back to the last
// path element.
func relativeSegment(parent, abs string) string {
	if parent != "" {
		if rest, ok := strings.CutPrefix(abs, parent); ok {
			rest = strings.TrimLeft(rest, `/\`)
			if rest != "" {
				return rest
			}
		}
	}
	return filepath.Base(abs)
}

// ─────────────────────────────────────────────────────────────────
// Decode
// ─────────────────────────────────────────────────────────────────

type rawCategory struct {
	CategoryFields
	Links         []json.RawMessage `json:"Links"`
	SubCategories []json.RawMessage `json:"SubCategories"`
}

type rawLink struct {
	LinkFields
	CatalogEntries []json.RawMessage `json:"CatalogEntries"`
	SubLinks       []json.RawMessage `json:"SubLinks"`
}

// Decode parses a category document into a tree. Only an unreadable or
// untitled top-level category is an error.
func (c *Codec) Decode(data []byte) (*tree.Node, *DecodeReport, error) {
	rep := &DecodeReport{}
	node, err := c.decodeCategory(data, rep)
	if err != nil {
		return nil, rep, err
	}
	if rep.DroppedRatings > 0 {
		c.log.Warn("dropped corrupt ratings",
			logger.String("category", node.Title()),
			logger.Int("count", rep.DroppedRatings))
	}
	return node, rep, nil
}

func (c *Codec) decodeCategory(data []byte, rep *DecodeReport) (*tree.Node, error) {
	if isNull(data) {
		return nil, fmt.Errorf("%w: null category", domain.ErrValidation)
	}
	var raw rawCategory
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := c.validate.Struct(raw.CategoryFields); err != nil {
		return nil, fmt.Errorf("%w: category: %v", domain.ErrValidation, err)
	}

	node := tree.NewNode(raw.CategoryFields.category())

	for i, sub := range raw.SubCategories {
		child, err := c.decodeCategory(sub, rep)
		if err != nil {
			c.logSkip(rep, raw.Name, fmt.Sprintf("SubCategories[%d]", i), err)
			continue
		}
		if err := node.Append(child); err != nil {
			c.logSkip(rep, raw.Name, fmt.Sprintf("SubCategories[%d]", i), err)
		}
	}
	for i, l := range raw.Links {
		child, err := c.decodeLink(l, "", false, rep)
		if err != nil {
			c.logSkip(rep, raw.Name, fmt.Sprintf("Links[%d]", i), err)
			continue
		}
		if err := node.Append(child); err != nil {
			c.logSkip(rep, raw.Name, fmt.Sprintf("Links[%d]", i), err)
		}
	}
	return node, nil
}

func (c *Codec) decodeLink(data []byte, parentURL string, entry bool, rep *DecodeReport) (*tree.Node, error) {
	if isNull(data) {
		return nil, fmt.Errorf("%w: null record", domain.ErrValidation)
	}
	var raw rawLink
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := c.validate.Struct(raw.LinkFields); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	url := raw.URL
	if entry {
		seg := raw.URL
		if seg == "" {
			seg = raw.Title
		}
		url = filepath.Join(parentURL, seg)
	}
	ratings, dropped := domain.FilterValidRatings(raw.Ratings)
	rep.DroppedRatings += dropped

	l := raw.LinkFields.link(url, ratings)
	l.IsCatalogEntry = entry
	node := tree.NewNode(l)

	for i, ce := range raw.CatalogEntries {
		child, err := c.decodeLink(ce, url, true, rep)
		if err != nil {
			c.logSkip(rep, raw.Title, fmt.Sprintf("CatalogEntries[%d]", i), err)
			continue
		}
		if err := node.Append(child); err != nil {
			c.logSkip(rep, raw.Title, fmt.Sprintf("CatalogEntries[%d]", i), err)
		}
	}
	for i, sl := range raw.SubLinks {
		if entry {
			rep.skip("%s: sub-link under catalog entry", raw.Title)
			break
		}
		child, err := c.decodeLink(sl, url, false, rep)
		if err != nil {
			c.logSkip(rep, raw.Title, fmt.Sprintf("SubLinks[%d]", i), err)
			continue
		}
		if err := node.Append(child); err != nil {
			c.logSkip(rep, raw.Title, fmt.Sprintf("SubLinks[%d]", i), err)
		}
	}
	return node, nil
}

func (c *Codec) logSkip(rep *DecodeReport, owner, field string, err error) {
	rep.skip("%s.%s: %v", owner, field, err)
	c.log.Warn("skipping invalid record",
		logger.String("owner", owner),
		logger.String("field", field),
		logger.Error(err))
}

func isNull(data []byte) bool {
	t := bytes.TrimSpace(data)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
