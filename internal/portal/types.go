package portal

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Auth carries the session credential the portal expects on every call.
// The client never creates or refreshes it; callers obtain it from the
// credential store.
type Auth struct {
	Cookie string
	MallID string
}

// Envelope is the one response shape every portal endpoint shares:
// {success: bool, msg: string, result: {...}}. The portal reports
// application failures through success, not HTTP status.
type Envelope struct {
	Success bool            `json:"success"`
	Msg     string          `json:"msg"`
	Result  json.RawMessage `json:"result"`
}

// TransportError covers network, HTTP, and body-decode failures at the
// client boundary. The client never retries; callers decide.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("portal request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError is a well-formed portal response with success != true.
type RemoteError struct {
	Endpoint string
	Msg      string
}

func (e *RemoteError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("portal rejected request to %s", e.Endpoint)
	}
	return fmt.Sprintf("portal rejected request to %s: %s", e.Endpoint, e.Msg)
}

// flexString tolerates id fields that arrive as JSON strings on some
// endpoints and bare numbers on others.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	*s = flexString(data)
	return nil
}

// Message is one entry of a conversation query.
type Message struct {
	MsgID       string `json:"msgId"`
	Content     string `json:"content"`
	ContentType int    `json:"contentType"`
	SenderType  int    `json:"senderType"`
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		MsgID       flexString `json:"msgId"`
		Content     string     `json:"content"`
		ContentType int        `json:"contentType"`
		SenderType  int        `json:"senderType"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Message{
		MsgID:       string(raw.MsgID),
		Content:     raw.Content,
		ContentType: raw.ContentType,
		SenderType:  raw.SenderType,
	}
	return nil
}

// Tool is one entry of the self-service tool directory.
type Tool struct {
	ToolID   string `json:"toolId"`
	ToolName string `json:"toolName"`
}

func (t *Tool) UnmarshalJSON(data []byte) error {
	var raw struct {
		ToolID   flexString `json:"toolId"`
		ToolName string     `json:"toolName"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Tool{ToolID: string(raw.ToolID), ToolName: raw.ToolName}
	return nil
}

// ProductInfo is the subset of product metadata the engine reports on.
// Either field may be empty; the portal does not guarantee them.
type ProductInfo struct {
	ProductName    string `json:"productName"`
	ProductPicture string `json:"productPicture"`
}

// Intercept is the precheck verdict for a tool submission. Code 0 means
// the submission may proceed; any other value, or a missing code, blocks
// it with Msg as the reason.
type Intercept struct {
	Code *int   `json:"interceptCode"`
	Msg  string `json:"interceptMsg"`
}

// Allowed reports whether the precheck permits submission.
func (i Intercept) Allowed() bool {
	return i.Code != nil && *i.Code == 0
}

// CompliancePageResult is one page of the violation appeal entrance list.
type CompliancePageResult struct {
	Entries []map[string]any `json:"punish_appeal_entrance_list"`
	Total   int              `json:"total"`
}

// ProductPageQuery selects a page of the seller's products.
type ProductPageQuery struct {
	ProductIDs  []int64
	ProductName string
	Page        int
	PageSize    int
}
