package delist

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/user/delistd/internal/portal"
)

// The button card embeds the tool id either as structured JSON or as
// plain text; this pattern extracts it from both.
var toolIDPattern = regexp.MustCompile(`"toolId"\s*:\s*"?(\d+)"?`)

var errNoButtonMessage = errors.New("no button message in conversation yet")

// discover runs the conversational handshake that yields a fresh handle:
// send the trigger message, poll for the support-bot's button card, and
// fall back to the tool directory when the card never shows up. The
// result is written through the cache by the caller.
func (e *Engine) discover(ctx context.Context, auth portal.Auth) (Handle, error) {
	chat := e.prof.Chat

	triggerID, err := e.portal.SendMessage(ctx, auth, "", chat.TextContentType, chat.TriggerText)
	if err != nil {
		return Handle{}, &DiscoveryError{Reason: ReasonInit, Err: err}
	}

	var parentMsgID, toolID string
	scan := func() error {
		msgs, err := e.portal.QueryMessages(ctx, auth, triggerID, chat.QueryLimit)
		if err != nil {
			// Transport failures consume a poll attempt instead of
			// aborting discovery.
			return err
		}
		for _, m := range msgs {
			if m.SenderType != chat.BotSenderType || m.ContentType != chat.CardContentType {
				continue
			}
			if !strings.Contains(m.Content, "toolId") || !strings.Contains(m.Content, "btnText") {
				continue
			}
			parentMsgID = m.MsgID
			if match := toolIDPattern.FindStringSubmatch(m.Content); match != nil {
				toolID = match[1]
			}
			return nil
		}
		return errNoButtonMessage
	}

	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(e.prof.Polling.Interval()), uint64(e.prof.Polling.DiscoveryAttempts-1))
	if err := backoff.Retry(scan, backoff.WithContext(bo, ctx)); err != nil {
		if ctx.Err() != nil {
			return Handle{}, ctx.Err()
		}
		slog.Debug("button message not found, using trigger message as parent", "error", err)
	}

	// The portal accepts submissions keyed to any valid message id in the
	// thread, so an unresolved button message degrades rather than fails.
	if parentMsgID == "" {
		parentMsgID = triggerID
	}

	if toolID == "" {
		tools, err := e.portal.SelfServiceTools(ctx, auth)
		if err != nil {
			slog.Warn("tool directory lookup failed", "error", err)
		}
		for _, t := range tools {
			if t.ToolName == chat.ToolName {
				toolID = t.ToolID
				break
			}
		}
	}

	if toolID == "" {
		return Handle{}, &DiscoveryError{Reason: ReasonNoToolID}
	}

	return Handle{
		ParentMsgID: parentMsgID,
		ToolID:      toolID,
		AcquiredAt:  time.Now().UnixMilli(),
	}, nil
}
