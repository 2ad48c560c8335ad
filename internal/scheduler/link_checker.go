package scheduler

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/engine"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

const (
	// DefaultLinkCheckTimeout bounds one probe
	DefaultLinkCheckTimeout = 5 * time.Second
)

// URLStore is the part of the engine the LinkChecker reads and writes.
type URLStore interface {
	URLTargets() []engine.URLTarget
	ApplyURLResults(ctx context.Context, results []engine.URLResult) (int, error)
}

// LinkChecker periodically probes web Links and records whether they answer
type LinkChecker struct {
	engine   URLStore
	client   *http.Client
	logger   logger.Logger
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

// NewLinkChecker creates a new link checker
func NewLinkChecker(
	store URLStore,
	log logger.Logger,
	interval time.Duration,
	timeout time.Duration,
) *LinkChecker {
	if timeout == 0 {
		timeout = DefaultLinkCheckTimeout
	}

	return &LinkChecker{
		engine:   store,
		client:   &http.Client{Timeout: timeout},
		logger:   log,
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic check process. The first pass runs after one
// interval so startup is not slowed by network probes.
func (lc *LinkChecker) Start(ctx context.Context) error {
	if lc.interval <= 0 {
		lc.logger.Info("link checking disabled")
		return nil
	}

	ticker := time.NewTicker(lc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := lc.Check(ctx); err != nil {
					lc.logger.Error("link check failed",
						logger.Error(err))
				}
			case <-lc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the link checker
func (lc *LinkChecker) Stop() {
	close(lc.stopCh)
}

// Check probes every web Link once and saves the results
func (lc *LinkChecker) Check(ctx context.Context) error {
	targets := lc.engine.URLTargets()
	if len(targets) == 0 {
		lc.logger.Debug("no web links to check")
		return nil
	}

	results := make([]engine.URLResult, 0, len(targets))
	down := 0
	for _, t := range targets {
		if ctx.Err() != nil {
			break
		}
		status, msg := lc.probe(ctx, t.URL)
		if status == domain.URLNotAccessible {
			down++
			lc.logger.Debug("link not accessible",
				logger.String("url", t.URL),
				logger.String("reason", msg))
		}
		results = append(results, engine.URLResult{
			ID:      t.ID,
			Status:  status,
			Message: msg,
			Checked: lc.now().UTC(),
		})
	}

	saved, err := lc.engine.ApplyURLResults(ctx, results)
	lc.logger.Info("link check completed",
		logger.Int("checked", len(results)),
		logger.Int("not_accessible", down),
		logger.Int("categories_saved", saved))
	return err
}

// probe tries HEAD, falling back to GET for servers that refuse HEAD
func (lc *LinkChecker) probe(ctx context.Context, url string) (domain.URLStatus, string) {
	code, status, err := lc.do(ctx, http.MethodHead, url)
	if err == nil && (code == http.StatusMethodNotAllowed || code == http.StatusNotImplemented) {
		code, status, err = lc.do(ctx, http.MethodGet, url)
	}
	if err != nil {
		return domain.URLNotAccessible, err.Error()
	}
	if code >= 200 && code < 400 {
		return domain.URLAccessible, status
	}
	return domain.URLNotAccessible, status
}

func (lc *LinkChecker) do(ctx context.Context, method, url string) (int, string, error) {
	ctx, cancel := context.WithTimeout(ctx, lc.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("User-Agent", "shelf-linkcheck")

	resp, err := lc.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	return resp.StatusCode, resp.Status, nil
}
