package db

import (
	"fmt"
	"time"
)

// Credential holds one account's portal session: the captured cookie and
// the mall (tenant) id the portal expects alongside it.
type Credential struct {
	AccountKey string    `json:"account_key"`
	Cookie     string    `json:"cookie,omitempty"`
	MallID     string    `json:"mall_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HandleRecord is the cached conversation handle for one account.
// AcquiredAtMS is epoch milliseconds, matching the portal's timestamp
// granularity.
type HandleRecord struct {
	AccountKey   string `json:"account_key"`
	ParentMsgID  string `json:"parent_msg_id"`
	ToolID       string `json:"tool_id"`
	AcquiredAtMS int64  `json:"acquired_at_ms"`
}

// ProcessedStatus is the operator-maintained handling state for one
// product in the compliance list.
type ProcessedStatus struct {
	AccountKey string    `json:"account_key"`
	ProductID  int64     `json:"product_id"`
	Status     int       `json:"status"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		ts = nowUTC()
	}
	return ts.UTC().Format(time.RFC3339)
}

func parseTimestamp(v string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", v, err)
	}
	return ts, nil
}
