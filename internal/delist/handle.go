package delist

import (
	"context"
	"time"

	"github.com/user/delistd/internal/db"
)

// handleTTL is how long a discovered conversation handle stays usable.
// The portal invalidates the button message after roughly a day.
const handleTTL = 24 * time.Hour

// Handle is the (parent message id, tool id) pair required to invoke the
// portal's delist tool, plus the epoch-millisecond time it was acquired.
// A Handle is an immutable snapshot: it is passed by value into workers
// and only ever replaced in the cache as a whole.
type Handle struct {
	ParentMsgID string `json:"parent_msg_id"`
	ToolID      string `json:"tool_id"`
	AcquiredAt  int64  `json:"acquired_at"`
}

// Fresh reports whether the handle was acquired within the TTL. Staleness
// is evaluated lazily at read time; nothing expires handles in the
// background.
func (h Handle) Fresh(now time.Time) bool {
	return now.UnixMilli()-h.AcquiredAt < handleTTL.Milliseconds()
}

// HandleCache stores one handle per account. Load returns (nil, nil) when
// no handle is stored; Save overwrites unconditionally.
type HandleCache interface {
	Load(ctx context.Context, accountKey string) (*Handle, error)
	Save(ctx context.Context, accountKey string, h Handle) error
}

type repoCache struct {
	repo *db.HandleRepo
}

// NewRepoCache adapts the sqlite handle repo to the HandleCache contract.
func NewRepoCache(repo *db.HandleRepo) HandleCache {
	return &repoCache{repo: repo}
}

func (c *repoCache) Load(ctx context.Context, accountKey string) (*Handle, error) {
	rec, err := c.repo.Get(ctx, accountKey)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return &Handle{
		ParentMsgID: rec.ParentMsgID,
		ToolID:      rec.ToolID,
		AcquiredAt:  rec.AcquiredAtMS,
	}, nil
}

func (c *repoCache) Save(ctx context.Context, accountKey string, h Handle) error {
	return c.repo.Put(ctx, &db.HandleRecord{
		AccountKey:   accountKey,
		ParentMsgID:  h.ParentMsgID,
		ToolID:       h.ToolID,
		AcquiredAtMS: h.AcquiredAt,
	})
}
