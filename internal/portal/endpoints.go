package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// SendMessage posts one chat message and returns the id the portal
// assigned to it. parentMsgID may be empty for a thread-opening message.
func (c *Client) SendMessage(ctx context.Context, auth Auth, parentMsgID string, contentType int, content string) (string, error) {
	payload := map[string]any{
		"contentType": contentType,
		"content":     content,
	}
	if parentMsgID != "" {
		payload["parentMsgId"] = parentMsgID
	}
	var result struct {
		MsgID flexString `json:"msgId"`
	}
	if err := c.call(ctx, c.prof.Endpoints.SendMessage, payload, auth, &result); err != nil {
		return "", err
	}
	if result.MsgID == "" {
		return "", &TransportError{Endpoint: c.prof.Endpoints.SendMessage, Err: fmt.Errorf("response carries no msgId")}
	}
	return string(result.MsgID), nil
}

// QueryMessages returns recent incoming messages of the conversation,
// anchored at sinceMsgID, in the order the portal lists them.
func (c *Client) QueryMessages(ctx context.Context, auth Auth, sinceMsgID string, limit int) ([]Message, error) {
	payload := map[string]any{
		"msgId":     sinceMsgID,
		"direction": c.prof.Chat.QueryDirection,
		"limit":     limit,
	}
	var result struct {
		MessageList []Message `json:"messageList"`
	}
	if err := c.call(ctx, c.prof.Endpoints.QueryMessage, payload, auth, &result); err != nil {
		return nil, err
	}
	return result.MessageList, nil
}

// SelfServiceTools lists the tools the support chat currently offers.
func (c *Client) SelfServiceTools(ctx context.Context, auth Auth) ([]Tool, error) {
	var result struct {
		List []Tool `json:"list"`
	}
	if err := c.call(ctx, c.prof.Endpoints.SelfServiceTools, map[string]any{}, auth, &result); err != nil {
		return nil, err
	}
	return result.List, nil
}

// ProductBasicInfo fetches display name and picture for one product.
func (c *Client) ProductBasicInfo(ctx context.Context, auth Auth, productID int64) (ProductInfo, error) {
	payload := map[string]any{"productSkcId": productID}
	var info ProductInfo
	if err := c.call(ctx, c.prof.Endpoints.ProductBasicInfo, payload, auth, &info); err != nil {
		return ProductInfo{}, err
	}
	return info, nil
}

// PreIntercept asks whether a tool submission for the product would be
// accepted.
func (c *Client) PreIntercept(ctx context.Context, auth Auth, toolID string, productID int64) (Intercept, error) {
	payload := map[string]any{
		"toolId": toolID,
		"dataId": strconv.FormatInt(productID, 10),
	}
	var verdict Intercept
	if err := c.call(ctx, c.prof.Endpoints.PreIntercept, payload, auth, &verdict); err != nil {
		return Intercept{}, err
	}
	return verdict, nil
}

// CompliancePage fetches one page of the violation appeal entrance list.
func (c *Client) CompliancePage(ctx context.Context, auth Auth, page, pageSize int) (*CompliancePageResult, error) {
	payload := map[string]any{
		"page_num":    page,
		"page_size":   pageSize,
		"target_type": "goods",
	}
	var result CompliancePageResult
	if err := c.call(ctx, c.prof.Endpoints.ComplianceEntrance, payload, auth, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ProductPage runs a paged product query and returns the raw page items
// for the caller to pass through.
func (c *Client) ProductPage(ctx context.Context, auth Auth, q ProductPageQuery) (json.RawMessage, error) {
	payload := map[string]any{
		"page":     q.Page,
		"pageSize": q.PageSize,
	}
	if len(q.ProductIDs) > 0 {
		payload["productIds"] = q.ProductIDs
	}
	if q.ProductName != "" {
		payload["productName"] = q.ProductName
	}
	var result struct {
		PageItems json.RawMessage `json:"pageItems"`
	}
	if err := c.call(ctx, c.prof.Endpoints.ProductPage, payload, auth, &result); err != nil {
		return nil, err
	}
	return result.PageItems, nil
}
