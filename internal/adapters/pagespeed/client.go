package pagespeed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"siteaudit/internal/domain"
	"siteaudit/internal/ports"
)

const (
	DefaultEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"
	source          = "pagespeed"

	errorBodyLimit = 512
	maxBodyBytes   = 32 << 20
)

// Lighthouse audit ids used for the metrics we keep.
const (
	auditLCP = "largest-contentful-paint"
	auditCLS = "cumulative-layout-shift"
	auditFCP = "first-contentful-paint"
	auditTBT = "total-blocking-time"
)

type Options struct {
	Endpoint   string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the PageSpeed Insights runPagespeed API, one request per device profile.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func New(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 90 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{endpoint: opts.Endpoint, apiKey: opts.APIKey, http: hc}
}

// Analyze runs a single lab analysis. Metrics missing from the payload stay nil.
func (c *Client) Analyze(ctx context.Context, target string, profile domain.DeviceProfile) (domain.PerformanceResult, error) {
	if profile != domain.ProfileMobile && profile != domain.ProfileDesktop {
		return domain.PerformanceResult{}, ports.InvalidInput("unknown device profile " + string(profile))
	}

	q := url.Values{}
	q.Set("url", target)
	q.Set("strategy", string(profile))
	q.Set("category", "performance")
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return domain.PerformanceResult{}, ports.Upstream(source, errors.Wrap(err, "build request"))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.PerformanceResult{}, ports.Upstream(source, errors.Wrapf(err, "%s request", profile))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return domain.PerformanceResult{}, ports.Upstream(source, errors.Errorf(
			"%s request failed: %s - %s", profile, resp.Status, strings.TrimSpace(string(excerpt)),
		))
	}

	var payload runPagespeedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return domain.PerformanceResult{}, ports.Upstream(source, errors.Wrapf(err, "%s decode payload", profile))
	}
	result, err := payload.toResult(profile)
	if err != nil {
		return domain.PerformanceResult{}, ports.Upstream(source, errors.Wrapf(err, "%s payload", profile))
	}
	return result, nil
}
