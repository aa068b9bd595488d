package freshservice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	migmodel "github.com/maintainly/fssync/internal/syncer/model"
)

const (
	defaultPerPage     = 100
	defaultRetryAfter  = 60 * time.Second
	defaultRetryMargin = 500 * time.Millisecond
	defaultTimeout     = 30 * time.Second
)

// Config is everything the client needs; it never reads the environment.
type Config struct {
	// Domain is the Freshservice account ("acme"), a host ("acme.freshservice.com")
	// or a full base URL, which is used verbatim.
	Domain      string
	APIKey      string
	PerPage     int
	Timeout     time.Duration
	RetryMargin time.Duration
}

// APIError is returned for every non-2xx response other than 429.
type APIError struct {
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("freshservice api error: %s: %d: %s", e.Path, e.Status, e.Body)
}

type Client struct {
	http    *resty.Client
	perPage int
	margin  time.Duration
	logger  *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

var _ migmodel.SourceClient = (*Client)(nil)

func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Domain == "" {
		return nil, fmt.Errorf("freshservice domain not set")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("freshservice api key not set")
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = defaultPerPage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryMargin <= 0 {
		cfg.RetryMargin = defaultRetryMargin
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := resty.New().
		SetBaseURL(baseURL(cfg.Domain)).
		SetTimeout(cfg.Timeout).
		SetBasicAuth(cfg.APIKey, "X").
		SetHeader("Accept", "application/json")
	return &Client{
		http:    httpClient,
		perPage: cfg.PerPage,
		margin:  cfg.RetryMargin,
		logger:  logger,
		sleep:   sleepContext,
	}, nil
}

func baseURL(domain string) string {
	domain = strings.TrimRight(domain, "/")
	switch {
	case strings.HasPrefix(domain, "http://"), strings.HasPrefix(domain, "https://"):
		return domain
	case strings.Contains(domain, "."):
		return "https://" + domain + "/api/v2"
	default:
		return "https://" + domain + ".freshservice.com/api/v2"
	}
}

func (c *Client) ListDepartments(ctx context.Context) ([]migmodel.Department, error) {
	raw, err := fetchAll[rawDepartment](ctx, c, "/departments", "departments", nil)
	if err != nil {
		return nil, err
	}
	out := make([]migmodel.Department, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toDepartment())
	}
	return out, nil
}

func (c *Client) ListAgents(ctx context.Context) ([]migmodel.Agent, error) {
	raw, err := fetchAll[rawAgent](ctx, c, "/agents", "agents", nil)
	if err != nil {
		return nil, err
	}
	out := make([]migmodel.Agent, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toAgent())
	}
	return out, nil
}

func (c *Client) ListRequesters(ctx context.Context) ([]migmodel.Requester, error) {
	raw, err := fetchAll[rawRequester](ctx, c, "/requesters", "requesters", nil)
	if err != nil {
		return nil, err
	}
	out := make([]migmodel.Requester, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toRequester())
	}
	return out, nil
}

func (c *Client) ListAssets(ctx context.Context) ([]migmodel.Asset, error) {
	raw, err := fetchAll[rawAsset](ctx, c, "/assets", "assets", map[string]string{"include": "type_fields"})
	if err != nil {
		return nil, err
	}
	out := make([]migmodel.Asset, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toAsset())
	}
	return out, nil
}

func (c *Client) ListAssetTypes(ctx context.Context) ([]migmodel.AssetType, error) {
	raw, err := fetchAll[rawAssetType](ctx, c, "/asset_types", "asset_types", nil)
	if err != nil {
		return nil, err
	}
	out := make([]migmodel.AssetType, 0, len(raw))
	for _, r := range raw {
		out = append(out, migmodel.AssetType{ID: string(r.ID), Name: r.Name, ParentID: string(r.ParentID)})
	}
	return out, nil
}

func (c *Client) ListApplications(ctx context.Context) ([]migmodel.Application, error) {
	raw, err := fetchAll[rawApplication](ctx, c, "/applications", "applications", nil)
	if err != nil {
		return nil, err
	}
	out := make([]migmodel.Application, 0, len(raw))
	for _, r := range raw {
		out = append(out, migmodel.Application{ID: string(r.ID), Name: r.Name, Status: r.Status})
	}
	return out, nil
}

func (c *Client) ListApplicationInstallations(ctx context.Context, applicationID string) ([]migmodel.Installation, error) {
	path := fmt.Sprintf("/applications/%s/installations", applicationID)
	raw, err := fetchAll[rawInstallation](ctx, c, path, "installations", nil)
	if err != nil {
		return nil, err
	}
	out := make([]migmodel.Installation, 0, len(raw))
	for _, r := range raw {
		out = append(out, migmodel.Installation{ID: string(r.ID), MachineID: string(r.MachineID)})
	}
	return out, nil
}

// fetchAll walks every page of a list endpoint. A 429 sleeps for Retry-After
// plus the configured margin and repeats the same page; any other error status
// aborts the listing.
func fetchAll[T any](ctx context.Context, c *Client, path, key string, query map[string]string) ([]T, error) {
	var out []T
	page := 1
	for {
		req := c.http.R().
			SetContext(ctx).
			SetQueryParam("page", strconv.Itoa(page)).
			SetQueryParam("per_page", strconv.Itoa(c.perPage))
		if len(query) > 0 {
			req.SetQueryParams(query)
		}
		resp, err := req.Get(path)
		if err != nil {
			return nil, fmt.Errorf("freshservice %s page %d: %w", path, page, err)
		}

		if resp.StatusCode() == http.StatusTooManyRequests {
			wait := retryAfter(resp.Header().Get("Retry-After"), time.Now()) + c.margin
			c.logger.Warn("freshservice rate limited",
				zap.String("path", path),
				zap.Int("page", page),
				zap.Duration("wait", wait),
			)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, fmt.Errorf("freshservice %s page %d: %w", path, page, err)
			}
			continue
		}
		if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
			return nil, &APIError{Path: path, Status: resp.StatusCode(), Body: string(resp.Body())}
		}

		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
			return nil, fmt.Errorf("decode %s page %d: %w", path, page, err)
		}
		var items []T
		if rawItems, ok := envelope[key]; ok {
			if err := json.Unmarshal(rawItems, &items); err != nil {
				return nil, fmt.Errorf("decode %s page %d: %w", path, page, err)
			}
		}
		out = append(out, items...)
		c.logger.Debug("freshservice page fetched",
			zap.String("path", path),
			zap.Int("page", page),
			zap.Int("items", len(items)),
		)
		if len(items) < c.perPage {
			return out, nil
		}
		page++
	}
}

// retryAfter parses a Retry-After header given either in seconds or as an
// HTTP date.
func retryAfter(header string, now time.Time) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return defaultRetryAfter
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return defaultRetryAfter
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
