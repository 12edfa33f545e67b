package civitai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"civitai-archiver/internal/config"
	"civitai-archiver/internal/core/domain"
	ports "civitai-archiver/internal/core/ports/output"
)

// errNotFound separates a semantic 404 from transient upstream failures,
// which are retried.
var errNotFound = errors.New("upstream returned 404")

// Client talks to the civitai public REST API. One request is in flight
// at a time; the zero wait is only used by tests.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	wait        time.Duration
	maxRetries  int
	maxPages    int
	pageSize    int
	includeNSFW bool
	responseDir string
}

func NewClient(cfg config.CivitaiConfig, scrape config.ScrapeConfig, responseDir string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		wait:        scrape.Wait,
		maxRetries:  scrape.MaxRetries,
		maxPages:    scrape.MaxPages,
		pageSize:    scrape.PageSize,
		includeNSFW: scrape.IncludeNSFW,
		responseDir: responseDir,
	}
}

func (c *Client) apiURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", c.baseURL, path)
}

// CheckConnection probes the site root.
func (c *Client) CheckConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ============================================================================
// Pagination Loop
// ============================================================================

// apiResponse is a raw listing page. Items stay undecoded for the handler.
type apiResponse struct {
	Items    []json.RawMessage   `json:"items"`
	Metadata domain.PageMetadata `json:"metadata"`
	Error    string              `json:"error"`
}

// CollectAssets walks the listing endpoint for the given asset type,
// invoking the handler once per entry and following the next-page cursor
// until it is absent or the configured page bound is reached.
//
// A page that keeps failing past the retry limit aborts the loop and the
// last error is returned; handler errors only skip the entry concerned.
func (c *Client) CollectAssets(ctx context.Context, assetType domain.AssetType, startURL string, handler ports.AssetHandler) (ports.CollectStats, error) {
	stats := ports.CollectStats{}
	if !assetType.Valid() {
		return stats, domain.ErrInvalidAssetType
	}

	next := startURL
	if next == "" {
		next = c.listingStartURL(assetType)
	}

	for next != "" {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if c.maxPages > 0 && stats.Pages >= c.maxPages {
			log.WithField("pages", stats.Pages).Info("page bound reached, stopping")
			break
		}

		page, err := c.fetchPageWithRetry(ctx, next)
		if err != nil {
			return stats, err
		}
		stats.Pages++

		for _, entry := range page.Items {
			if err := handler.HandleEntry(ctx, entry); err != nil {
				log.WithError(err).WithField("asset_type", assetType).Warn("entry skipped")
				stats.Skipped++
				continue
			}
			stats.Entries++
		}

		next = c.normalizeCursor(page.Metadata.NextPage)
		stats.LastCursor = next
	}

	return stats, nil
}

func (c *Client) listingStartURL(assetType domain.AssetType) string {
	return fmt.Sprintf("%s?sort=Newest&nsfw=%t&limit=%d",
		c.apiURL("/"+string(assetType)), c.includeNSFW, c.pageSize)
}

// normalizeCursor re-appends query parameters the upstream drops from its
// next-page URLs.
func (c *Client) normalizeCursor(next string) string {
	if next == "" {
		return ""
	}
	if !strings.Contains(next, "limit=") {
		next += fmt.Sprintf("&limit=%d", c.pageSize)
	}
	if !strings.Contains(next, "nsfw=") {
		next += fmt.Sprintf("&nsfw=%t", c.includeNSFW)
	}
	return next
}

// fetchPageWithRetry fetches the same page up to maxRetries times,
// sleeping the configured wait between attempts.
func (c *Client) fetchPageWithRetry(ctx context.Context, url string) (*apiResponse, error) {
	var lastErr error
	attempts := c.maxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 || c.wait > 0 {
			select {
			case <-time.After(c.wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		page, err := c.fetchPage(ctx, url)
		if err == nil {
			return page, nil
		}
		lastErr = err
		log.WithError(err).WithFields(log.Fields{
			"url":     url,
			"attempt": attempt,
		}).Warn("page fetch failed")
	}

	return nil, fmt.Errorf("fetch %s after %d attempts: %w", url, attempts, lastErr)
}

func (c *Client) fetchPage(ctx context.Context, url string) (*apiResponse, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var page apiResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamResponse, err)
	}
	if page.Error != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrUpstreamStatus, page.Error)
	}

	c.snapshotResponse(url, body)
	return &page, nil
}

// ============================================================================
// Lookup Endpoints
// ============================================================================

func (c *Client) GetModel(ctx context.Context, id int64) (*domain.Model, error) {
	body, err := c.getWithRetry(ctx, c.apiURL(fmt.Sprintf("/models/%d", id)))
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, domain.ErrModelNotFound
		}
		return nil, err
	}

	var model domain.Model
	if err := json.Unmarshal(body, &model); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamResponse, err)
	}
	model.Raw = body
	return &model, nil
}

func (c *Client) GetModelVersion(ctx context.Context, id int64) (*domain.ModelVersion, error) {
	body, err := c.getWithRetry(ctx, c.apiURL(fmt.Sprintf("/model-versions/%d", id)))
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, domain.ErrVersionNotFound
		}
		return nil, err
	}

	var version domain.ModelVersion
	if err := json.Unmarshal(body, &version); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamResponse, err)
	}
	return &version, nil
}

// GetModelVersionByHash resolves a model version by a file content hash.
// A miss maps to domain.ErrHashNotFound so callers can skip the file.
func (c *Client) GetModelVersionByHash(ctx context.Context, hash string) (*domain.ModelVersion, error) {
	url := c.apiURL(fmt.Sprintf("/model-versions/by-hash/%s", hash))
	if c.includeNSFW {
		url += "?nsfw=true"
	}
	body, err := c.getWithRetry(ctx, url)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, domain.ErrHashNotFound
		}
		return nil, err
	}

	var version domain.ModelVersion
	if err := json.Unmarshal(body, &version); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamResponse, err)
	}
	return &version, nil
}

// ============================================================================
// Downloads
// ============================================================================

// DownloadAsset streams a binary asset to outputPath, creating parent
// directories as needed.
func (c *Client) DownloadAsset(ctx context.Context, assetURL, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return fmt.Errorf("create download request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", assetURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d for %s", domain.ErrUpstreamStatus, resp.StatusCode, assetURL)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("write %s: %w", outputPath, err)
	}
	return nil
}

// ============================================================================
// HTTP plumbing
// ============================================================================

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	log.WithField("url", url).Debug("fetching upstream data")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d for %s", domain.ErrUpstreamStatus, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// getWithRetry retries transient failures with the configured wait; a 404
// is passed through immediately.
func (c *Client) getWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	attempts := c.maxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := c.get(ctx, url)
		if err == nil {
			return body, nil
		}
		if errors.Is(err, errNotFound) {
			return nil, err
		}
		lastErr = err
		if attempt < attempts {
			select {
			case <-time.After(c.wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("fetch %s after %d attempts: %w", url, attempts, lastErr)
}

// snapshotResponse backs up a raw listing response for offline replay.
func (c *Client) snapshotResponse(url string, body []byte) {
	if c.responseDir == "" {
		return
	}
	if err := os.MkdirAll(c.responseDir, 0o755); err != nil {
		log.WithError(err).Warn("response dir could not be created")
		return
	}
	path := filepath.Join(c.responseDir, cleanFileName(url)+".json")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		log.WithError(err).WithField("path", path).Warn("response snapshot failed")
	}
}

// cleanFileName flattens a URL into a usable file name.
func cleanFileName(url string) string {
	var b strings.Builder
	for _, ch := range url {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		default:
			b.WriteRune('_')
		}
	}
	name := b.String()
	if len(name) > 150 {
		name = name[len(name)-150:]
	}
	return name
}

// Ensure interface compliance
var (
	_ ports.AssetCollector = (*Client)(nil)
	_ ports.MetadataSource = (*Client)(nil)
)
