// Package delist implements the delisting orchestration engine: handle
// discovery and caching, the per-product delisting protocol against the
// portal's support chat, and batch fan-out under bounded concurrency.
package delist

import (
	"context"
	"fmt"

	"github.com/user/delistd/internal/portal"
	"github.com/user/delistd/internal/profile"
)

// Transport is the slice of the portal client the engine needs. It issues
// single round trips; all retry and polling policy lives in the engine.
type Transport interface {
	SendMessage(ctx context.Context, auth portal.Auth, parentMsgID string, contentType int, content string) (string, error)
	QueryMessages(ctx context.Context, auth portal.Auth, sinceMsgID string, limit int) ([]portal.Message, error)
	SelfServiceTools(ctx context.Context, auth portal.Auth) ([]portal.Tool, error)
	ProductBasicInfo(ctx context.Context, auth portal.Auth, productID int64) (portal.ProductInfo, error)
	PreIntercept(ctx context.Context, auth portal.Auth, toolID string, productID int64) (portal.Intercept, error)
}

// Event reports one completed item of a running batch.
type Event struct {
	AccountKey string `json:"account_key"`
	ProductID  int64  `json:"product_id"`
	Succeeded  bool   `json:"succeeded"`
	Message    string `json:"message"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
}

type Config struct {
	Portal  Transport
	Cache   HandleCache
	Profile *profile.Profile

	// OnProgress, when set, is called once per completed item, in
	// completion order. It must not block for long; it runs on the
	// worker that finished the item.
	OnProgress func(Event)
}

type Engine struct {
	portal     Transport
	cache      HandleCache
	prof       *profile.Profile
	onProgress func(Event)
}

func New(cfg Config) (*Engine, error) {
	if cfg.Portal == nil {
		return nil, fmt.Errorf("portal transport is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("handle cache is required")
	}
	if cfg.Profile == nil {
		return nil, fmt.Errorf("portal profile is required")
	}
	return &Engine{
		portal:     cfg.Portal,
		cache:      cfg.Cache,
		prof:       cfg.Profile,
		onProgress: cfg.OnProgress,
	}, nil
}
