// Package constellation queries the Constellation backlink index.
package constellation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Guyuepp/package-likes/domain"
	"github.com/Guyuepp/package-likes/internal/metrics"
)

const (
	opDistinctDIDs = "distinct_dids"
	opBacklinks    = "backlinks"
	opAllLinks     = "all_links"

	// maxErrorBody bounds how much of a failed response ends up in the error
	maxErrorBody = 512
)

type distinctDIDsResponse struct {
	Total       int64    `json:"total"`
	LinkingDIDs []string `json:"linking_dids"`
	Cursor      *string  `json:"cursor"`
}

type linksResponse struct {
	Total          int64             `json:"total"`
	LinkingRecords []domain.Backlink `json:"linking_records"`
	Cursor         *string           `json:"cursor"`
}

type allLinksResponse struct {
	Links map[string]map[string]domain.LinkCount `json:"links"`
}

// Client is a stateless facade over the index HTTP API
type Client struct {
	host       string
	userAgent  string
	httpClient *http.Client
}

var _ domain.BacklinkIndex = (*Client)(nil)

// NewClient creates a client for host. timeout bounds every request end to end;
// zero leaves requests unbounded except by their context.
func NewClient(host, userAgent string, timeout time.Duration) *Client {
	return &Client{
		host:       strings.TrimRight(host, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) CountDistinctWriters(ctx context.Context, subject, collection, path string) (int64, error) {
	q := url.Values{}
	q.Set("target", subject)
	q.Set("collection", collection)
	q.Set("path", normalizePath(path))
	// only the total is needed
	q.Set("limit", "1")

	var res distinctDIDsResponse
	if err := c.getJSON(ctx, opDistinctDIDs, "/links/distinct-dids", q, &res); err != nil {
		return 0, err
	}
	return res.Total, nil
}

func (c *Client) FindWriterRecords(ctx context.Context, subject, collection, path string, dids []string) ([]domain.Backlink, error) {
	page, err := c.Backlinks(ctx, domain.LinkQuery{
		Subject:    subject,
		Collection: collection,
		Path:       path,
		Limit:      max(len(dids), 1),
		DIDs:       dids,
	})
	if err != nil {
		return nil, err
	}
	return page.Records, nil
}

func (c *Client) Backlinks(ctx context.Context, lq domain.LinkQuery) (domain.BacklinksPage, error) {
	q := url.Values{}
	q.Set("target", lq.Subject)
	q.Set("collection", lq.Collection)
	q.Set("path", normalizePath(lq.Path))
	if lq.Limit > 0 {
		q.Set("limit", strconv.Itoa(lq.Limit))
	}
	if lq.Cursor != "" {
		q.Set("cursor", lq.Cursor)
	}
	for _, did := range lq.DIDs {
		q.Add("did", did)
	}
	if lq.Reverse {
		q.Set("reverse", "true")
	}

	var res linksResponse
	if err := c.getJSON(ctx, opBacklinks, "/links", q, &res); err != nil {
		return domain.BacklinksPage{}, err
	}

	page := domain.BacklinksPage{
		Total:   res.Total,
		Records: res.LinkingRecords,
	}
	if res.Cursor != nil {
		page.Cursor = *res.Cursor
	}
	return page, nil
}

func (c *Client) AllLinks(ctx context.Context, subject string) (map[string]map[string]domain.LinkCount, error) {
	q := url.Values{}
	q.Set("target", subject)

	var res allLinksResponse
	if err := c.getJSON(ctx, opAllLinks, "/links/all", q, &res); err != nil {
		return nil, err
	}
	if res.Links == nil {
		res.Links = map[string]map[string]domain.LinkCount{}
	}
	return res.Links, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, q url.Values, dst any) (err error) {
	start := time.Now()
	defer func() {
		metrics.IndexLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
		result := metrics.ResultOK
		if err != nil {
			result = metrics.ResultError
		}
		metrics.IndexRequests.WithLabelValues(op, result).Inc()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrIndexUnavailable, op, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrIndexUnavailable, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s: status %d: %s", domain.ErrIndexUnavailable, op, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err = json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %s: decode: %w", domain.ErrIndexUnavailable, op, err)
	}
	return nil
}

// normalizePath makes record paths start with "." the way the index expects
func normalizePath(path string) string {
	if path == "" || strings.HasPrefix(path, ".") {
		return path
	}
	return "." + path
}
