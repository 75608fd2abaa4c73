package firmasegura

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Response is a reachable answer from the certification authority. Data is nil
// when the body could not be decoded as a JSON object.
type Response struct {
	StatusCode int
	Body       []byte
	Data       map[string]interface{}
	ParseErr   error
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// HTTPError describes a non-success HTTP answer.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP request returned status code %d: %s", e.StatusCode, e.Body)
}

// Client talks to the collector and status endpoints.
type Client struct {
	config ProviderConfig
	doer   Doer
}

func NewClient(config ProviderConfig, doer Doer) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: config.Timeout()}
	}
	return &Client{config: config, doer: doer}
}

// Submit posts a payload to the collector endpoint. An error means the
// authority could not be reached.
func (c *Client) Submit(ctx context.Context, payload Payload) (*Response, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.config.BaseURL+c.config.Endpoints.Collector, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(ctx, req)
}

// Status queries the issuance status of a reference transaction.
func (c *Client) Status(ctx context.Context, referenceTransaction string) (*Response, error) {
	endpoint := c.config.BaseURL + c.config.Endpoints.Status + "?referenceTransaction=" + url.QueryEscape(referenceTransaction)
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.addAuth(req)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(ctx context.Context, req *http.Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout())
	defer cancel()

	resp, err := c.doer.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	out := &Response{StatusCode: resp.StatusCode, Body: bodyBytes}
	var data map[string]interface{}
	if err := json.Unmarshal(bodyBytes, &data); err != nil {
		out.ParseErr = fmt.Errorf("failed to parse response JSON: %w", err)
	} else if data == nil {
		out.ParseErr = fmt.Errorf("response body is not a JSON object")
	} else {
		out.Data = data
	}
	return out, nil
}

func (c *Client) addAuth(req *http.Request) {
	switch strings.ToLower(c.config.AuthType) {
	case "header":
		header := c.config.AuthHeader
		if header == "" {
			header = "X-API-Key"
		}
		req.Header.Set(header, c.config.Token)
	case "basic":
		auth := base64.StdEncoding.EncodeToString([]byte(c.config.Token))
		req.Header.Set("Authorization", "Basic "+auth)
	default:
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
}
