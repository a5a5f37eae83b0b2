package osint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
)

const (
	DefaultURL     = "https://leakosintapi.com/"
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 16 << 20
	errorCodeField   = "Error code"
)

type searchRequest struct {
	Token   string `json:"token"`
	Request string `json:"request"`
	Limit   int    `json:"limit,omitempty"`
	Lang    string `json:"lang,omitempty"`
	Type    string `json:"type"`
}

// Client calls the downstream intelligence-search API. The API token travels in the request body.
type Client struct {
	url        string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

var _ ports.SearchClient = (*Client)(nil)

// NewClient creates a search client. A nil httpClient gets an instrumented default.
func NewClient(url, token string, timeout time.Duration, httpClient *http.Client) (*Client, error) {
	if token == "" {
		return nil, core.ErrNotConfigured
	}
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Client{url: url, token: token, timeout: timeout, httpClient: httpClient}, nil
}

// Search posts the query and returns the downstream JSON body unchanged
func (c *Client) Search(ctx context.Context, query core.SearchQuery) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(searchRequest{
		Token:   c.token,
		Request: query.Request,
		Limit:   query.Limit,
		Lang:    query.Lang,
		Type:    "json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &core.UpstreamError{StatusCode: http.StatusBadGateway, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &core.UpstreamError{StatusCode: resp.StatusCode, Message: "failed to read response body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &core.UpstreamError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	if !json.Valid(body) {
		return nil, &core.UpstreamError{StatusCode: resp.StatusCode, Message: "malformed response body"}
	}
	if code := errorCode(body); code != "" {
		return nil, &core.UpstreamRejectedError{Code: code}
	}

	return json.RawMessage(body), nil
}

func errorMessage(body []byte) string {
	var reply struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return ""
	}
	return reply.Error
}

// errorCode extracts the "Error code" field the API reports in-band on 2xx replies
func errorCode(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	raw, ok := fields[errorCodeField]
	if !ok {
		return ""
	}
	var code string
	if err := json.Unmarshal(raw, &code); err != nil {
		return string(raw)
	}
	return code
}
