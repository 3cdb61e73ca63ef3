package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrRateLimited marks upstream 429 responses so callers can pick a backoff
// policy distinct from generic failures.
var ErrRateLimited = errors.New("airtable rate limited")

type Client struct {
	token   string
	baseID  string
	table   string
	baseURL string
	http    *retryablehttp.Client
}

func NewClient(token, baseID, table string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 900 * time.Millisecond
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = nil
	// A 429 must surface to the caller as ErrRateLimited, not burn retries.
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return false, nil
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	return &Client{
		token:   token,
		baseID:  baseID,
		table:   table,
		baseURL: "https://api.airtable.com",
		http:    rc,
	}
}

// SetBaseURL overrides the Airtable endpoint (used for tests).
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

type page struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// ListPage fetches one page of the table. An empty returned offset means the
// final page.
func (c *Client) ListPage(ctx context.Context, offset string) ([]Record, string, error) {
	q := url.Values{}
	if offset != "" {
		q.Set("offset", offset)
	}

	u := fmt.Sprintf("%s/v0/%s/%s", c.baseURL, c.baseID, url.PathEscape(c.table))
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, "", ErrRateLimited
	}
	if resp.StatusCode >= 400 {
		var body map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, "", fmt.Errorf("airtable error %d: %v", resp.StatusCode, body)
	}
	b, err := ioReadAllLimit(resp.Body, 4<<20) // 4MB guard
	if err != nil {
		return nil, "", err
	}
	var p page
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, "", err
	}
	return p.Records, p.Offset, nil
}

// ListAll walks the table page by page, concatenating records until the
// upstream stops returning an offset token.
func (c *Client) ListAll(ctx context.Context) ([]Record, error) {
	var all []Record
	offset := ""
	for {
		records, next, err := c.ListPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
		if next == "" {
			break
		}
		offset = next
	}
	return all, nil
}

func ioReadAllLimit(r io.Reader, limit int64) ([]byte, error) {
	lr := io.LimitReader(r, limit+1)
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, errors.New("payload too large")
	}
	return b, nil
}
