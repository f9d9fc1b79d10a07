package scrape

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-faster/errors"
	"golang.org/x/net/html/charset"

	"siteaudit/internal/domain"
	"siteaudit/internal/ports"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	source           = "scrape"
)

// Options controls how target pages are fetched.
type Options struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
	HTTPClient   *http.Client
}

// Scraper fetches a page and extracts the SEO fields used by scoring.
type Scraper struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	now          func() time.Time
}

func New(opts Options) *Scraper {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 * 1024 * 1024 // 5MB cap
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				MaxIdleConns:          50,
				IdleConnTimeout:       90 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}
	return &Scraper{client: client, userAgent: opts.UserAgent, maxBodyBytes: opts.MaxBodyBytes, now: time.Now}
}

// Scrape fails only when the page cannot be fetched at all. Error pages are
// parsed like any other and their status is recorded.
func (s *Scraper) Scrape(ctx context.Context, target string) (domain.MetadataResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.MetadataResult{}, ports.Upstream(source, errors.Wrap(err, "build request"))
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.MetadataResult{}, ports.Upstream(source, errors.Wrap(err, "fetch page"))
	}
	body, err := readBody(resp, s.maxBodyBytes)
	if err != nil {
		return domain.MetadataResult{}, ports.Upstream(source, err)
	}

	reader, err := charset.NewReader(bytes.NewReader(body), resp.Header.Get("Content-Type"))
	if err != nil {
		return domain.MetadataResult{}, ports.Upstream(source, errors.Wrap(err, "decode charset"))
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return domain.MetadataResult{}, ports.Upstream(source, errors.Wrap(err, "parse html"))
	}

	meta := Extract(doc)
	meta.HTTPStatus = resp.StatusCode
	meta.ScrapedAt = s.now()
	return meta, nil
}

// Extract reads the audited fields from a parsed document. Text is trimmed and
// missing elements yield empty values, never nil slices.
func Extract(doc *goquery.Document) domain.MetadataResult {
	out := domain.MetadataResult{
		Title:          strings.TrimSpace(doc.Find("title").First().Text()),
		FirstHeading:   strings.TrimSpace(doc.Find("h1").First().Text()),
		CanonicalLinks: []string{},
	}

	doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(s.AttrOr("name", "")), "description") {
			return true
		}
		out.MetaDescription = strings.TrimSpace(s.AttrOr("content", ""))
		return false
	})

	doc.Find("link[rel]").Each(func(_ int, s *goquery.Selection) {
		if !hasRel(s.AttrOr("rel", ""), "canonical") {
			return
		}
		if href := strings.TrimSpace(s.AttrOr("href", "")); href != "" {
			out.CanonicalLinks = append(out.CanonicalLinks, href)
		}
	})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		alt, ok := s.Attr("alt")
		if !ok || strings.TrimSpace(alt) == "" {
			out.ImagesMissingAltCount++
		}
	})
	return out
}

func hasRel(rel, want string) bool {
	for _, tok := range strings.Fields(rel) {
		if strings.EqualFold(tok, want) {
			return true
		}
	}
	return false
}
