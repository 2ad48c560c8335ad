package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MrSnakeDoc/shelf/internal/audit"
	"github.com/MrSnakeDoc/shelf/internal/backup"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/staleness"
	"github.com/MrSnakeDoc/shelf/internal/storage"
	"github.com/MrSnakeDoc/shelf/internal/tree"
)

// LoadFailure is one category file that could not be loaded.
type LoadFailure struct {
	Path string
	Name string
	Err  error
}

// ─────────────────────────────────────────────────────────────────
// Save
// ─────────────────────────────────────────────────────────────────

// SaveCategory writes a root category to disk and mirrors the file to its
// automatic backup destinations.
func (e *Engine) SaveCategory(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	root, ok := e.index.GetCategory(name)
	if !ok {
		return fmt.Errorf("%w: category %q", domain.ErrNotFound, name)
	}
	return e.saveLocked(ctx, root)
}

// persistLocked saves the category owning node. The orchestrator calls it
// with e.mu already held.
func (e *Engine) persistLocked(ctx context.Context, node *tree.Node) error {
	return e.saveLocked(ctx, node.Root())
}

func (e *Engine) saveLocked(ctx context.Context, root *tree.Node) error {
	cat := root.Category()
	if cat == nil {
		return fmt.Errorf("%w: %q is not rooted at a category", domain.ErrValidation, root.Title())
	}

	data, err := e.codec.Marshal(root)
	if err != nil {
		return err
	}
	path, err := e.store.Save(cat.Name, cat.IsProtected(), data)
	if err != nil {
		e.log.Error("failed to save category",
			logger.String("category", cat.Name),
			logger.Error(err))
		return err
	}

	summary := e.backups.Mirror(ctx, path, cat.BackupDirectories)
	for _, n := range root.Links() {
		l := n.Link()
		if !l.IsZipArchive() || len(backup.Automatic(l.BackupDirectories)) == 0 {
			continue
		}
		if _, err := os.Stat(l.URL); err != nil {
			e.log.Warn("archive to back up is missing",
				logger.String("link", l.Title),
				logger.String("path", l.URL))
			continue
		}
		summary.Merge(e.backups.Mirror(ctx, l.URL, l.BackupDirectories))
	}
	if len(summary.Failures) > 0 {
		e.log.Warn("category saved but some backups failed",
			logger.String("category", cat.Name),
			logger.Int("ok", summary.SuccessCount),
			logger.Int("failed", len(summary.Failures)))
	}

	audit.ForCategory(ctx, e.audit, cat, domain.AuditSaved, filepath.Base(path))
	return nil
}

// ManualBackup copies a category's file, and the archives of its .zip Links,
// to the destinations marked manual.
func (e *Engine) ManualBackup(ctx context.Context, name string) (backup.Summary, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	root, ok := e.index.GetCategory(name)
	if !ok {
		return backup.Summary{}, fmt.Errorf("%w: category %q", domain.ErrNotFound, name)
	}
	cat := root.Category()
	path, ok := e.store.Find(cat.Name)
	if !ok {
		return backup.Summary{}, fmt.Errorf("%w: category %q has never been saved", domain.ErrNotFound, name)
	}

	summary := e.backups.MirrorManual(ctx, path, cat.BackupDirectories)
	for _, n := range root.Links() {
		l := n.Link()
		if l.IsZipArchive() && len(backup.Manual(l.BackupDirectories)) > 0 {
			summary.Merge(e.backups.MirrorManual(ctx, l.URL, l.BackupDirectories))
		}
	}

	audit.ForCategory(ctx, e.audit, cat, domain.AuditManualBackup,
		fmt.Sprintf("%d copied, %d failed", summary.SuccessCount, len(summary.Failures)))
	return summary, nil
}

// ─────────────────────────────────────────────────────────────────
// Load
// ─────────────────────────────────────────────────────────────────

// LoadAllCategories reads every category file in the data directory and
// replaces the index with the result. A file that cannot be decrypted or
// decoded is reported in the failure list and does not stop the others.
func (e *Engine) LoadAllCategories(ctx context.Context) ([]*tree.Node, []LoadFailure, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	paths, err := e.store.List()
	if err != nil {
		return nil, nil, err
	}

	var (
		roots    []*tree.Node
		failures []LoadFailure
	)
	for _, p := range paths {
		root, err := e.loadFile(ctx, p)
		if err != nil {
			name, _ := storage.NameFromPath(p)
			failures = append(failures, LoadFailure{Path: p, Name: name, Err: err})
			continue
		}
		roots = append(roots, root)
	}

	e.index.UpdateCategories(roots)
	e.log.Info("categories loaded",
		logger.Int("loaded", len(roots)),
		logger.Int("failed", len(failures)))
	return roots, failures, nil
}

// loadFile loads, decodes and annotates one category file.
func (e *Engine) loadFile(ctx context.Context, path string) (*tree.Node, error) {
	name, _ := storage.NameFromPath(path)

	data, err := e.store.Load(path)
	if err != nil {
		if errors.Is(err, domain.ErrDecryptionFailed) {
			e.audit.Record(ctx, name, domain.AuditKindSecurity, domain.AuditInvalidPassword, filepath.Base(path))
		}
		e.log.Warn("skipping category file",
			logger.String("path", path),
			logger.Error(err))
		return nil, err
	}

	root, rep, err := e.codec.Decode(data)
	if err != nil {
		e.log.Warn("skipping unreadable category file",
			logger.String("path", path),
			logger.Error(err))
		return nil, err
	}

	stale := 0
	for _, n := range root.Links() {
		stale += staleness.Annotate(n)
	}
	if stale > 0 {
		e.log.Info("catalogs out of date",
			logger.String("category", root.Title()),
			logger.Int("directories", stale))
	}

	audit.ForCategory(ctx, e.audit, root.Category(), domain.AuditLoaded,
		fmt.Sprintf("%s, %d records skipped", filepath.Base(path), rep.SkippedRecords))
	return root, nil
}

// ─────────────────────────────────────────────────────────────────
// Passwords
// ─────────────────────────────────────────────────────────────────

// Unlock caches a password once it is proven right. With an empty category
// it becomes the global password, checked against the file of a loaded
// GlobalPassword category when there is one, and every category not yet
// loaded is retried. Otherwise it is checked against the category's own
// password hash or by decrypting its file.
func (e *Engine) Unlock(ctx context.Context, category, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", domain.ErrValidation)
	}
	passwords := e.store.Passwords()

	e.mu.Lock()
	defer e.mu.Unlock()

	if category == "" {
		if err := e.checkGlobalLocked(ctx, password); err != nil {
			return err
		}
		passwords.CacheGlobalPassword(password)
		loaded := e.loadMissingLocked(ctx)
		e.audit.Record(ctx, "", domain.AuditKindSecurity, domain.AuditUnlocked,
			fmt.Sprintf("global password, %d categories loaded", loaded))
		return nil
	}

	if root, ok := e.index.GetCategory(category); ok {
		cat := root.Category()
		if err := e.checkCategoryLocked(ctx, cat, password); err != nil {
			return err
		}
		passwords.CacheCategoryPassword(cat.Name, password)
		e.audit.Record(ctx, cat.Name, domain.AuditKindSecurity, domain.AuditUnlocked, "")
		return nil
	}

	path, ok := e.store.Find(category)
	if !ok {
		return fmt.Errorf("%w: category %q", domain.ErrNotFound, category)
	}
	passwords.CacheCategoryPassword(category, password)
	root, err := e.loadFile(ctx, path)
	if err != nil {
		passwords.ForgetCategory(category)
		return err
	}
	e.index.AddCategory(root)
	e.audit.Record(ctx, root.Title(), domain.AuditKindSecurity, domain.AuditUnlocked, filepath.Base(path))
	return nil
}

// checkCategoryLocked verifies password for a loaded category: by its own
// password hash when it has one, else by opening its encrypted file.
func (e *Engine) checkCategoryLocked(ctx context.Context, cat *domain.Category, password string) error {
	var err error
	if cat.PasswordProtection == domain.PasswordOwn && cat.OwnPasswordHash != "" {
		var match bool
		match, err = storage.VerifyPassword(cat.OwnPasswordHash, password)
		if err != nil {
			return err
		}
		if !match {
			err = fmt.Errorf("%w: category %q", domain.ErrDecryptionFailed, cat.Name)
		}
	} else if path, ok := e.encryptedFileLocked(cat.Name); ok {
		err = e.store.Verify(path, password)
	}
	if errors.Is(err, domain.ErrDecryptionFailed) {
		e.audit.Record(ctx, cat.Name, domain.AuditKindSecurity, domain.AuditInvalidPassword, "unlock rejected")
	}
	return err
}

// checkGlobalLocked verifies a global password against the first loaded
// GlobalPassword category that has an encrypted file. With none loaded
// there is nothing it could re-encrypt, so it is accepted.
func (e *Engine) checkGlobalLocked(ctx context.Context, password string) error {
	for _, root := range e.index.GetAllCategories() {
		cat := root.Category()
		if cat.PasswordProtection != domain.PasswordGlobal {
			continue
		}
		path, ok := e.encryptedFileLocked(cat.Name)
		if !ok {
			continue
		}
		err := e.store.Verify(path, password)
		if errors.Is(err, domain.ErrDecryptionFailed) {
			e.audit.Record(ctx, "", domain.AuditKindSecurity, domain.AuditInvalidPassword,
				"global unlock rejected by "+filepath.Base(path))
		}
		return err
	}
	return nil
}

func (e *Engine) encryptedFileLocked(name string) (string, bool) {
	path, ok := e.store.Find(name)
	if !ok {
		return "", false
	}
	if _, encrypted := storage.NameFromPath(path); !encrypted {
		return "", false
	}
	return path, true
}

// loadMissingLocked loads every category file whose category is not indexed.
func (e *Engine) loadMissingLocked(ctx context.Context) int {
	paths, err := e.store.List()
	if err != nil {
		e.log.Warn("failed to list category files", logger.Error(err))
		return 0
	}
	loaded := 0
	for _, p := range paths {
		name, _ := storage.NameFromPath(p)
		if e.indexedFileLocked(name) {
			continue
		}
		root, err := e.loadFile(ctx, p)
		if err != nil {
			continue
		}
		e.index.AddCategory(root)
		loaded++
	}
	return loaded
}

// indexedFileLocked reports whether a loaded category maps to the file stem.
func (e *Engine) indexedFileLocked(stem string) bool {
	for _, root := range e.index.GetAllCategories() {
		if storage.SanitizeName(root.Title()) == stem {
			return true
		}
	}
	return false
}

// Lock forgets every cached password and unloads protected categories.
func (e *Engine) Lock(ctx context.Context) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.Passwords().Clear()
	dropped := 0
	for _, root := range e.index.GetAllCategories() {
		if root.Category().IsProtected() {
			e.index.DeleteCategory(root.Title())
			dropped++
		}
	}
	e.audit.Record(ctx, "", domain.AuditKindSecurity, domain.AuditLocked,
		fmt.Sprintf("%d protected categories unloaded", dropped))
	return dropped
}

// Protect changes how a category is encrypted and saves it. For
// PasswordOwn the password is hashed into the category and cached; for
// PasswordGlobal a global password must already be cached.
func (e *Engine) Protect(ctx context.Context, name string, mode domain.PasswordProtection, password string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	root, ok := e.index.GetCategory(name)
	if !ok {
		return fmt.Errorf("%w: category %q", domain.ErrNotFound, name)
	}
	cat := root.Category()
	passwords := e.store.Passwords()

	switch mode {
	case domain.PasswordOwn:
		if password == "" {
			return fmt.Errorf("%w: password is required", domain.ErrValidation)
		}
		hash, err := storage.HashPassword(password)
		if err != nil {
			return err
		}
		cat.OwnPasswordHash = hash
		passwords.CacheCategoryPassword(cat.Name, password)
	case domain.PasswordGlobal:
		if !passwords.HasGlobal() {
			return fmt.Errorf("%w: unlock with the global password first", domain.ErrNoPasswordAvailable)
		}
		cat.OwnPasswordHash = ""
		passwords.ForgetCategory(cat.Name)
	default:
		cat.OwnPasswordHash = ""
	}
	cat.PasswordProtection = mode
	cat.ModifiedDate = e.now()
	return e.saveLocked(ctx, root)
}
