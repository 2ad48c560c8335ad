package catalog

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/alexmullins/zip"

	"github.com/MrSnakeDoc/shelf/internal/crawler"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/tree"
)

// ArchiveCataloger lists the contents of an archive as catalog entries.
// innerDir selects a directory inside the archive ("" for the root) and depth
// how many levels are materialized.
type ArchiveCataloger interface {
	CatalogArchive(ctx context.Context, archivePath, innerDir string, depth int) (*crawler.Report, error)
}

// ZipCataloger reads .zip central directories. Encrypted entries are listed
// by name and size without being decrypted.
type ZipCataloger struct {
	log logger.Logger
}

func NewZipCataloger(log logger.Logger) *ZipCataloger {
	return &ZipCataloger{log: log}
}

type zipDir struct {
	name    string
	dirs    []*zipDir
	byName  map[string]*zipDir
	files   []zipFile
	mod     time.Time
	count   int
	size    int64
	summed  bool
	encrypt bool
}

type zipFile struct {
	name string
	*zip.File
}

func newZipDir(name string) *zipDir {
	return &zipDir{name: name, byName: map[string]*zipDir{}}
}

func (d *zipDir) sub(name string) *zipDir {
	if c, ok := d.byName[name]; ok {
		return c
	}
	c := newZipDir(name)
	d.byName[name] = c
	d.dirs = append(d.dirs, c)
	return c
}

// sum computes aggregates bottom-up.
func (d *zipDir) sum() (int, int64, bool) {
	if d.summed {
		return d.count, d.size, d.encrypt
	}
	for _, f := range d.files {
		d.count++
		d.size += int64(f.UncompressedSize64)
		d.encrypt = d.encrypt || f.IsEncrypted()
	}
	for _, c := range d.dirs {
		n, s, e := c.sum()
		d.count += n
		d.size += s
		d.encrypt = d.encrypt || e
	}
	d.summed = true
	return d.count, d.size, d.encrypt
}

func (z *ZipCataloger) CatalogArchive(ctx context.Context, archivePath, innerDir string, depth int) (*crawler.Report, error) {
	rc, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open archive %s: %v", domain.ErrCrawlAborted, archivePath, err)
	}
	defer rc.Close()

	root := newZipDir("")
	rep := &crawler.Report{}

	for _, f := range rc.File {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCrawlAborted, err)
		}
		name := strings.TrimLeft(strings.ReplaceAll(f.Name, `\`, "/"), "/")
		clean := path.Clean(name)
		if name == "" || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
			rep.Skipped = append(rep.Skipped, &domain.CrawlEntryError{Path: f.Name, Reason: "unsafe path", Err: domain.ErrValidation})
			continue
		}

		parts := strings.Split(clean, "/")
		isDir := strings.HasSuffix(name, "/")
		last := len(parts)
		if !isDir {
			last--
		}

		d := root
		skipped := false
		for _, p := range parts[:last] {
			if crawler.IsSkippedDir(p) {
				skipped = true
				break
			}
			d = d.sub(p)
		}
		if skipped {
			continue
		}
		if isDir {
			d.mod = f.ModTime()
			continue
		}
		d.files = append(d.files, zipFile{name: parts[len(parts)-1], File: f})
	}

	start := root
	if innerDir != "" {
		for _, p := range strings.Split(strings.Trim(innerDir, "/"), "/") {
			next, ok := start.byName[p]
			if !ok {
				return nil, fmt.Errorf("%w: %s not found in %s", domain.ErrCrawlAborted, innerDir, archivePath)
			}
			start = next
		}
	}

	rep.FileCount, rep.TotalSize, rep.Encrypted = start.sum()
	base := archivePath
	if innerDir != "" {
		base = archivePath + "/" + strings.Trim(innerDir, "/")
	}
	rep.Entries = z.materialize(rep, start, base, depth)

	z.log.Debug("archive cataloged",
		logger.String("archive", archivePath),
		logger.String("inner", innerDir),
		logger.Int("files", rep.FileCount),
		logger.Bool("encrypted", rep.Encrypted))
	return rep, nil
}

// materialize builds depth levels of entries under base. Children that cannot
// be attached are reported in rep.Skipped.
func (z *ZipCataloger) materialize(rep *crawler.Report, d *zipDir, base string, depth int) []*tree.Node {
	if depth <= 0 {
		return nil
	}
	out := make([]*tree.Node, 0, len(d.dirs)+len(d.files))
	for _, c := range d.dirs {
		count, size, enc := c.sum()
		url := base + "/" + c.name
		node := tree.NewNode(&domain.Link{
			Title:                c.name,
			URL:                  url,
			IsCatalogEntry:       true,
			IsDirectory:          true,
			ModifiedDate:         c.mod,
			CatalogFileCount:     count,
			CatalogTotalSize:     size,
			ZipPasswordProtected: enc,
		})
		for _, ch := range z.materialize(rep, c, url, depth-1) {
			if err := node.Append(ch); err != nil {
				rep.Skipped = append(rep.Skipped, &domain.CrawlEntryError{Path: ch.Link().URL, Reason: "attach", Err: err})
			}
		}
		out = append(out, node)
	}
	for _, f := range d.files {
		l := &domain.Link{
			Title:                f.name,
			URL:                  base + "/" + f.name,
			IsCatalogEntry:       true,
			ModifiedDate:         f.ModTime(),
			ZipPasswordProtected: f.IsEncrypted(),
		}
		l.SetSize(int64(f.UncompressedSize64))
		out = append(out, tree.NewNode(l))
	}
	return out
}
