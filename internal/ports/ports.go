package ports

import (
	"context"

	"siteaudit/internal/domain"
)

// Auditor runs a full audit for a URL and returns the stored report.
type Auditor interface {
	Run(ctx context.Context, url string) (domain.Report, error)
}

// Reports exposes stored reports to the web layer.
type Reports interface {
	Get(ctx context.Context, id string) (domain.Report, error)
	List(ctx context.Context, page, limit int) (domain.ReportPage, error)
}

// PerformanceAnalyzer issues exactly one lab run per call.
type PerformanceAnalyzer interface {
	Analyze(ctx context.Context, url string, profile domain.DeviceProfile) (domain.PerformanceResult, error)
}

// MetadataScraper fetches a page and extracts its SEO fields.
type MetadataScraper interface {
	Scrape(ctx context.Context, url string) (domain.MetadataResult, error)
}

// SuggestionGenerator is best-effort. Callers must treat any error as "no suggestions".
type SuggestionGenerator interface {
	Suggest(ctx context.Context, in domain.AuditSnapshot) ([]string, error)
}
