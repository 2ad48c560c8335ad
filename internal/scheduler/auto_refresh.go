package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/tree"
)

// Refresher is the part of the engine the AutoRefresher drives.
type Refresher interface {
	AutoRefreshTargets() []string
	RefreshCatalog(ctx context.Context, id string, silent bool) (*tree.Node, error)
}

// AutoRefresher silently refreshes every Link flagged AutoRefresh
type AutoRefresher struct {
	engine        Refresher
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewAutoRefresher creates a new auto refresher. An interval of 0 only
// refreshes on start and on manual triggers.
func NewAutoRefresher(
	engine Refresher,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *AutoRefresher {
	return &AutoRefresher{
		engine:        engine,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start refreshes once, then keeps refreshing in the background
func (ar *AutoRefresher) Start(ctx context.Context) error {
	ar.Refresh(ctx)

	var tick <-chan time.Time
	var ticker *time.Ticker
	if ar.interval > 0 {
		ticker = time.NewTicker(ar.interval)
		tick = ticker.C
	}

	go func() {
		if ticker != nil {
			defer ticker.Stop()
		}
		for {
			select {
			case <-tick:
				ar.Refresh(ctx)
			case <-ar.manualTrigger:
				ar.logger.Info("manual catalog refresh triggered")
				ar.Refresh(ctx)
			case <-ar.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the refresher
func (ar *AutoRefresher) Stop() {
	close(ar.stopCh)
}

// Refresh runs one pass and returns how many Links refreshed successfully.
// A failing Link is logged and does not stop the others.
func (ar *AutoRefresher) Refresh(ctx context.Context) int {
	targets := ar.engine.AutoRefreshTargets()
	if len(targets) == 0 {
		ar.logger.Debug("no links flagged for auto refresh")
		return 0
	}

	ar.logger.Info("auto refreshing catalogs",
		logger.Int("links", len(targets)))

	ok := 0
	for _, id := range targets {
		if ctx.Err() != nil {
			break
		}
		node, err := ar.engine.RefreshCatalog(ctx, id, true)
		if err != nil {
			ar.logger.Error("auto refresh failed",
				logger.String("node_id", id),
				logger.Error(err))
			continue
		}
		ar.logger.Debug("auto refreshed catalog",
			logger.String("link", node.Title()))
		ok++
	}

	ar.logger.Info("auto refresh completed",
		logger.Int("refreshed", ok),
		logger.Int("failed", len(targets)-ok))
	return ok
}
