// Package portal implements the HTTP client for the agentseller portal.
// The portal has no documented API; request and response shapes are
// inferred from observed browser traffic, so the client stays deliberately
// tolerant about what it reads back.
package portal

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/user/delistd/internal/profile"
)

const (
	requestTimeout  = 30 * time.Second
	maxResponseSize = 4 << 20

	userAgent = "Mozilla/5.0 (Linux; Android 6.0; Nexus 5 Build/MRA58N) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Mobile Safari/537.36"
)

type Client struct {
	base       *url.URL
	prof       *profile.Profile
	httpClient *http.Client
}

func NewClient(prof *profile.Profile) (*Client, error) {
	if prof == nil {
		return nil, fmt.Errorf("portal profile is required")
	}
	base, err := url.Parse(prof.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid portal base URL %q: %w", prof.BaseURL, err)
	}
	return &Client{
		base:       base,
		prof:       prof,
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

// post issues one JSON request and returns the decoded envelope. Any
// network, HTTP, or decode problem is a *TransportError; an envelope with
// success != true is returned as-is for the caller to inspect.
func (c *Client) post(ctx context.Context, path string, payload any, auth Auth) (*Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Endpoint: path, Err: fmt.Errorf("encode payload: %w", err)}
	}

	u := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Endpoint: path, Err: err}
	}
	c.setHeaders(req, auth)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{Endpoint: path, Err: fmt.Errorf("read body: %w", err)}
	}
	raw, err = maybeGunzip(raw)
	if err != nil {
		return nil, &TransportError{Endpoint: path, Err: err}
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		slog.Debug("portal returned non-JSON body", "endpoint", path, "status", resp.StatusCode, "bytes", len(raw))
		return nil, &TransportError{Endpoint: path, Err: fmt.Errorf("decode body (HTTP %d): %w", resp.StatusCode, err)}
	}
	return &env, nil
}

// call runs post and decodes env.Result into result when the envelope
// reports success. A nil result skips decoding.
func (c *Client) call(ctx context.Context, path string, payload any, auth Auth, result any) error {
	env, err := c.post(ctx, path, payload, auth)
	if err != nil {
		return err
	}
	if !env.Success {
		return &RemoteError{Endpoint: path, Msg: env.Msg}
	}
	if result == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, result); err != nil {
		return &TransportError{Endpoint: path, Err: fmt.Errorf("decode result: %w", err)}
	}
	return nil
}

// setHeaders mirrors the browser session the cookie was captured from.
// The portal fingerprints requests; dropping these makes it return login
// redirects instead of JSON.
func (c *Client) setHeaders(req *http.Request, auth Auth) {
	origin := c.base.Scheme + "://" + c.base.Host
	req.Header.Set("accept", "*/*")
	req.Header.Set("accept-encoding", "gzip, deflate, br, zstd")
	req.Header.Set("accept-language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("anti-content", "")
	req.Header.Set("cache-control", "max-age=0")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("cookie", auth.Cookie)
	req.Header.Set("mallid", auth.MallID)
	req.Header.Set("origin", origin)
	req.Header.Set("referer", origin)
	req.Header.Set("sec-fetch-dest", "empty")
	req.Header.Set("sec-fetch-mode", "cors")
	req.Header.Set("sec-fetch-site", "same-origin")
	req.Header.Set("user-agent", userAgent)
}

// maybeGunzip decompresses bodies that arrive gzip-compressed. Setting
// Accept-Encoding explicitly disables the transport's transparent
// decompression, and the portal compresses some responses regardless.
func maybeGunzip(raw []byte) ([]byte, error) {
	if len(raw) < 2 || raw[0] != 0x1f || raw[1] != 0x8b {
		return raw, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open gzip body: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("decompress body: %w", err)
	}
	return out, nil
}
