package delist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/delistd/internal/portal"
)

// Totals is always derived from Outcomes, never tracked independently, so
// Succeeded+Failed == Total holds by construction.
type Totals struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Report aggregates one batch run. Outcomes appear in completion order.
type Report struct {
	ParentMsgID          string    `json:"parent_msg_id"`
	ToolID               string    `json:"tool_id"`
	CacheWasFresh        bool      `json:"cache_was_fresh"`
	RequestedConcurrency int       `json:"requested_concurrency"`
	EffectiveConcurrency int       `json:"effective_concurrency"`
	Outcomes             []Outcome `json:"outcomes"`
	Totals               Totals    `json:"totals"`
}

// Run delists the given products for one account. It resolves a handle
// (cached or freshly discovered), then fans the per-item protocol out
// across at most min(maxWorkers, len(productIDs)) workers. Item failures
// are captured in their outcomes and never abort siblings; only handle
// acquisition failure fails the batch as a whole.
func (e *Engine) Run(ctx context.Context, accountKey string, auth portal.Auth, productIDs []int64, maxWorkers int) (*Report, error) {
	if maxWorkers < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidConcurrency, maxWorkers)
	}

	h, wasFresh, err := e.resolveHandle(ctx, accountKey, auth)
	if err != nil {
		return nil, err
	}

	effective := maxWorkers
	if len(productIDs) < effective {
		effective = len(productIDs)
	}
	if effective < 1 {
		effective = 1
	}

	slog.Info("starting delist batch",
		"account", accountKey,
		"products", len(productIDs),
		"workers", effective,
		"cache_fresh", wasFresh)

	var (
		mu       sync.Mutex
		outcomes = make([]Outcome, 0, len(productIDs))
	)

	var g errgroup.Group
	g.SetLimit(effective)
	for _, id := range productIDs {
		id := id
		g.Go(func() error {
			out := e.runItem(ctx, auth, h, id)
			mu.Lock()
			outcomes = append(outcomes, out)
			completed := len(outcomes)
			mu.Unlock()
			if e.onProgress != nil {
				e.onProgress(Event{
					AccountKey: accountKey,
					ProductID:  out.ProductID,
					Succeeded:  out.Succeeded,
					Message:    out.Message,
					Completed:  completed,
					Total:      len(productIDs),
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{
		ParentMsgID:          h.ParentMsgID,
		ToolID:               h.ToolID,
		CacheWasFresh:        wasFresh,
		RequestedConcurrency: maxWorkers,
		EffectiveConcurrency: effective,
		Outcomes:             outcomes,
		Totals:               Totals{Total: len(outcomes)},
	}
	for _, out := range outcomes {
		if out.Succeeded {
			report.Totals.Succeeded++
		} else {
			report.Totals.Failed++
		}
	}

	slog.Info("delist batch finished",
		"account", accountKey,
		"total", report.Totals.Total,
		"succeeded", report.Totals.Succeeded,
		"failed", report.Totals.Failed)
	return report, nil
}

// runItem shields the batch from faults in one item's processing: a panic
// becomes that item's failed outcome instead of taking down siblings.
func (e *Engine) runItem(ctx context.Context, auth portal.Auth, h Handle, productID int64) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("delist worker fault", "product_id", productID, "fault", r)
			out = Outcome{
				ProductID: productID,
				Message:   fmt.Sprintf("worker fault: %v", r),
			}
		}
	}()
	return e.processItem(ctx, auth, h, productID)
}

// resolveHandle returns a usable handle, preferring a fresh cached one.
// Cache read errors degrade to rediscovery; cache write errors keep the
// freshly discovered handle usable for this batch.
func (e *Engine) resolveHandle(ctx context.Context, accountKey string, auth portal.Auth) (Handle, bool, error) {
	cached, err := e.cache.Load(ctx, accountKey)
	if err != nil {
		slog.Warn("handle cache load failed, rediscovering", "account", accountKey, "error", err)
	} else if cached != nil && cached.Fresh(time.Now()) {
		return *cached, true, nil
	}

	h, err := e.discover(ctx, auth)
	if err != nil {
		return Handle{}, false, err
	}
	if err := e.cache.Save(ctx, accountKey, h); err != nil {
		slog.Warn("handle cache save failed", "account", accountKey, "error", err)
	}
	return h, false, nil
}
