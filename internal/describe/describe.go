// Package describe produces the short description shown next to cataloged
// files: pixel dimensions for images, page counts for PDFs.
package describe

import (
	"bufio"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// pageObject matches "/Type /Page" but not "/Type /Pages".
var pageObject = regexp.MustCompile(`/Type\s*/Page\b`)

// Generator describes files no larger than MaxBytes.
type Generator struct {
	MaxBytes int64
}

// New returns a Generator. maxBytes <= 0 means no limit.
func New(maxBytes int64) *Generator {
	return &Generator{MaxBytes: maxBytes}
}

// Describe returns "" for file types it does not know.
func (g *Generator) Describe(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !imageExts[ext] && ext != ".pdf" {
		return "", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if g.MaxBytes > 0 {
		info, err := f.Stat()
		if err != nil {
			return "", err
		}
		if info.Size() > g.MaxBytes {
			return "", nil
		}
	}

	if ext == ".pdf" {
		return pdfPages(f)
	}
	return imageSize(f)
}

func imageSize(r io.Reader) (string, error) {
	cfg, _, err := image.DecodeConfig(bufio.NewReader(r))
	if err != nil {
		return "", fmt.Errorf("failed to decode image header: %w", err)
	}
	return fmt.Sprintf("%dx%d", cfg.Width, cfg.Height), nil
}

func pdfPages(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(string(data[:min(len(data), 5)]), "%PDF") {
		return "", fmt.Errorf("not a pdf")
	}
	n := len(pageObject.FindAllIndex(data, -1))
	switch n {
	case 0:
		return "", nil
	case 1:
		return "1 page", nil
	default:
		return fmt.Sprintf("%d pages", n), nil
	}
}
