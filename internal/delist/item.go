package delist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/user/delistd/internal/portal"
)

// Detail carries the reporting metadata gathered while processing one
// item. Name and image are best-effort; the portal does not guarantee
// them.
type Detail struct {
	ProductName    string `json:"product_name"`
	ProductImage   string `json:"product_image"`
	SubmittedMsgID string `json:"submitted_msg_id,omitempty"`
	PollAttempts   int    `json:"poll_attempts"`
}

// Outcome is the terminal result of one delisting attempt. Exactly one is
// produced per requested product, whatever path the attempt takes.
type Outcome struct {
	ProductID int64  `json:"product_id"`
	Succeeded bool   `json:"succeeded"`
	Message   string `json:"message"`
	Detail    Detail `json:"detail"`
}

// submitCard is the structured chat content that invokes the delist tool.
type submitCard struct {
	Name     string `json:"name"`
	Img      string `json:"img"`
	DataType int    `json:"dataType"`
	DataID   string `json:"dataId"`
	ToolID   string `json:"toolId"`
}

var errNoResultYet = errors.New("no result message for product yet")

// processItem drives the four-step delisting sequence for one product:
// metadata fetch, precheck, submit, and confirmation polling. It always
// returns an Outcome; failures populate Message and leave Succeeded
// false. Nothing is shared or memoized across items.
func (e *Engine) processItem(ctx context.Context, auth portal.Auth, h Handle, productID int64) Outcome {
	out := Outcome{ProductID: productID}
	chat := e.prof.Chat

	info, err := e.portal.ProductBasicInfo(ctx, auth, productID)
	if err != nil {
		out.Message = "query failed"
		return out
	}
	out.Detail.ProductName = info.ProductName
	out.Detail.ProductImage = info.ProductPicture

	verdict, err := e.portal.PreIntercept(ctx, auth, h.ToolID, productID)
	if err != nil {
		out.Message = "precheck failed"
		return out
	}
	if !verdict.Allowed() {
		// A block is authoritative, not transient. No retry, no submit.
		reason := verdict.Msg
		if reason == "" {
			reason = "unknown reason"
		}
		out.Message = "delisting blocked: " + reason
		return out
	}

	content, err := json.Marshal(submitCard{
		Name:     info.ProductName,
		Img:      info.ProductPicture,
		DataType: 1,
		DataID:   strconv.FormatInt(productID, 10),
		ToolID:   h.ToolID,
	})
	if err != nil {
		out.Message = fmt.Sprintf("submit failed: %v", err)
		return out
	}

	submitID, err := e.portal.SendMessage(ctx, auth, h.ParentMsgID, chat.SubmitContentType, string(content))
	if err != nil {
		out.Message = "submit failed"
		return out
	}
	out.Detail.SubmittedMsgID = submitID

	// Submission only starts an asynchronous process on the remote side;
	// the verdict arrives later as a chat message mentioning this product.
	text, attempts := e.awaitResult(ctx, auth, submitID, productID)
	out.Detail.PollAttempts = attempts
	if text == "" {
		out.Message = "confirmation timed out"
		return out
	}
	out.Succeeded = e.classify(text)
	out.Message = text
	return out
}

// awaitResult polls the conversation for the result message referencing
// productID, sleeping one interval before each attempt. After the budget
// is spent it makes one final wide scan. Returns the matched message text
// ("" when none arrived) and the number of poll attempts used.
func (e *Engine) awaitResult(ctx context.Context, auth portal.Auth, sinceMsgID string, productID int64) (string, int) {
	variants := idVariants(e.prof.Confirm.IDFormats, productID)

	var text string
	attempts := 0
	scan := func() error {
		attempts++
		msgs, err := e.portal.QueryMessages(ctx, auth, sinceMsgID, e.prof.Chat.QueryLimit)
		if err != nil {
			return err
		}
		if found, ok := e.findResult(msgs, variants); ok {
			text = found
			return nil
		}
		return errNoResultYet
	}

	interval := e.prof.Polling.Interval()
	select {
	case <-ctx.Done():
		return "", attempts
	case <-time.After(interval):
	}

	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(e.prof.Polling.ConfirmAttempts-1))
	if err := backoff.Retry(scan, backoff.WithContext(bo, ctx)); err != nil {
		if ctx.Err() != nil {
			return "", attempts
		}
		// Last-chance wide scan: results for busy accounts can scroll
		// past the regular query window.
		msgs, err := e.portal.QueryMessages(ctx, auth, sinceMsgID, e.prof.Polling.FinalQueryLimit)
		if err == nil {
			if found, ok := e.findResult(msgs, variants); ok {
				text = found
			}
		}
	}
	return text, attempts
}

// findResult scans messages in the order the portal listed them for a
// result announcement referencing this product.
func (e *Engine) findResult(msgs []portal.Message, variants []string) (string, bool) {
	marker := e.prof.Confirm.ResultMarker
	for _, m := range msgs {
		if !strings.Contains(m.Content, marker) {
			continue
		}
		for _, v := range variants {
			if strings.Contains(m.Content, v) {
				return m.Content, true
			}
		}
	}
	return "", false
}

// classify maps the free-text result to success or failure by the
// profile's phrase list, first match wins. Text matching no phrase is an
// unclassified failure; the raw text is surfaced to the operator as-is.
func (e *Engine) classify(text string) bool {
	for _, p := range e.prof.Confirm.Phrases {
		if strings.Contains(text, p.Contains) {
			return p.Succeeded
		}
	}
	return false
}

func idVariants(formats []string, productID int64) []string {
	variants := make([]string, 0, len(formats))
	for _, f := range formats {
		variants = append(variants, fmt.Sprintf(f, productID))
	}
	return variants
}
