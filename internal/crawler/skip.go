package crawler

import (
	"strings"

	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// skipDirs are build, dependency and tooling directories that would bloat a
// catalog. They are neither listed nor descended into.
var skipDirs = map[string]struct{}{
	"node_modules":     {},
	".git":             {},
	".vs":              {},
	".idea":            {},
	"bin":              {},
	"obj":              {},
	"packages":         {},
	".nuget":           {},
	"__pycache__":      {},
	".cache":           {},
	"bower_components": {},
	"vendor":           {},
}

// IsSkippedDir reports whether a directory name is on the skip list.
// Comparison is case-insensitive.
func IsSkippedDir(name string) bool {
	_, ok := skipDirs[strings.ToLower(name)]
	return ok
}

// DescriptionGenerator produces a short human description of a file, such as
// image dimensions or a page count.
type DescriptionGenerator interface {
	Describe(path string) (string, error)
}

// DescriptionFunc adapts a function to DescriptionGenerator.
type DescriptionFunc func(path string) (string, error)

func (f DescriptionFunc) Describe(path string) (string, error) { return f(path) }

// describeFile is best-effort: errors and panics both yield "".
func (c *Crawler) describeFile(path string) (desc string) {
	if c.describe == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("file description generator panicked",
				logger.String("path", path))
			desc = ""
		}
	}()

	d, err := c.describe.Describe(path)
	if err != nil {
		c.log.Debug("file description failed",
			logger.String("path", path),
			logger.Error(err))
		return ""
	}
	return d
}
