// Package backup mirrors freshly saved files to configured backup directories.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cp "github.com/otiai10/copy"

	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// ManualMarker prefixes destinations that are only written by an explicit
// backup request.
const ManualMarker = "manual:"

// IsManual reports whether dest carries the manual marker.
func IsManual(dest string) bool {
	return strings.HasPrefix(dest, ManualMarker)
}

// Automatic returns the destinations written after every save.
func Automatic(dests []string) []string {
	var out []string
	for _, d := range dests {
		d = strings.TrimSpace(d)
		if d != "" && !IsManual(d) {
			out = append(out, d)
		}
	}
	return out
}

// Manual returns the manual destinations with the marker stripped.
func Manual(dests []string) []string {
	var out []string
	for _, d := range dests {
		if !IsManual(d) {
			continue
		}
		if p := strings.TrimSpace(strings.TrimPrefix(d, ManualMarker)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Failure is one destination that could not be written.
type Failure struct {
	Destination string
	Err         error
}

// Summary is the outcome of one fan-out.
type Summary struct {
	SuccessCount int
	Failures     []Failure
}

// Merge folds o into s.
func (s *Summary) Merge(o Summary) {
	s.SuccessCount += o.SuccessCount
	s.Failures = append(s.Failures, o.Failures...)
}

// FanOut copies files into backup directories.
type FanOut struct {
	log logger.Logger
}

func NewFanOut(log logger.Logger) *FanOut {
	return &FanOut{log: log}
}

// Mirror copies file into every automatic destination among dests.
func (f *FanOut) Mirror(ctx context.Context, file string, dests []string) Summary {
	return f.copyTo(ctx, file, Automatic(dests))
}

// MirrorManual copies file into every manual destination among dests.
func (f *FanOut) MirrorManual(ctx context.Context, file string, dests []string) Summary {
	return f.copyTo(ctx, file, Manual(dests))
}

// copyTo attempts every destination independently.
func (f *FanOut) copyTo(ctx context.Context, file string, dirs []string) Summary {
	var sum Summary
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			sum.Failures = append(sum.Failures, Failure{Destination: dir, Err: err})
			continue
		}
		if err := copyFile(file, dir); err != nil {
			f.log.Warn("backup copy failed",
				logger.String("file", file),
				logger.String("destination", dir),
				logger.Error(err))
			sum.Failures = append(sum.Failures, Failure{Destination: dir, Err: err})
			continue
		}
		sum.SuccessCount++
	}

	if len(dirs) > 0 {
		f.log.Debug("backup fan-out finished",
			logger.String("file", file),
			logger.Int("ok", sum.SuccessCount),
			logger.Int("failed", len(sum.Failures)))
	}
	return sum
}

func copyFile(file, dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	dest := filepath.Join(dir, filepath.Base(file))
	opts := cp.Options{
		Sync:          true,
		PreserveTimes: true,
		OnSymlink:     func(string) cp.SymlinkAction { return cp.Deep },
	}
	if err := cp.Copy(file, dest, opts); err != nil {
		return fmt.Errorf("failed to copy %s: %w", filepath.Base(file), err)
	}
	return nil
}
