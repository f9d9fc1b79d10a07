package domain

import "time"

// Core domain models. JSON names follow what the report frontend already
// consumes (pageSpeed/meta/lcp/...), so keep them stable.

type DeviceProfile string

const (
	ProfileMobile  DeviceProfile = "mobile"
	ProfileDesktop DeviceProfile = "desktop"
)

type ReportStatus string

const (
	StatusDone   ReportStatus = "done"
	StatusFailed ReportStatus = "failed" // never written by the audit pipeline
)

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

type AuditRequest struct {
	URL string `json:"url"`
}

// PerformanceResult holds one device profile's lab metrics. A nil metric means
// the analyzer did not report it; it is never the same thing as zero.
type PerformanceResult struct {
	Profile                  DeviceProfile `json:"deviceProfile"`
	PerformanceScore         *int          `json:"performanceScore"`
	LargestContentfulPaintMs *int          `json:"lcp"`
	CumulativeLayoutShift    *float64      `json:"cls"`
	FirstContentfulPaintMs   *int          `json:"fcp"`
	TotalBlockingTimeMs      *int          `json:"tbt"`
}

type PerformanceBundle struct {
	Mobile      PerformanceResult `json:"mobile"`
	Desktop     PerformanceResult `json:"desktop"`
	RetrievedAt time.Time         `json:"retrievedAt"`
}

type MetadataResult struct {
	HTTPStatus            int       `json:"status"`
	Title                 string    `json:"title"`
	MetaDescription       string    `json:"metaDescription"`
	FirstHeading          string    `json:"firstH1"`
	CanonicalLinks        []string  `json:"canonicalLinks"`
	ImagesMissingAltCount int       `json:"imagesMissingAlt"`
	ScrapedAt             time.Time `json:"scrapedAt"`
}

// AuditSnapshot is the combined upstream data handed to the suggestion generator.
type AuditSnapshot struct {
	URL       string            `json:"url"`
	PageSpeed PerformanceBundle `json:"pageSpeed"`
	Meta      MetadataResult    `json:"meta"`
}

// Report is immutable once stored.
type Report struct {
	ID          string            `json:"id"`
	URL         string            `json:"url"`
	Domain      string            `json:"domain"`
	Performance PerformanceBundle `json:"pageSpeed"`
	Metadata    MetadataResult    `json:"meta"`
	Suggestions []string          `json:"suggestions"`
	Score       int               `json:"score"`
	Status      ReportStatus      `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Clone returns a copy that shares no slices with r.
func (r Report) Clone() Report {
	out := r
	out.Suggestions = append(make([]string, 0, len(r.Suggestions)), r.Suggestions...)
	out.Metadata.CanonicalLinks = append(make([]string, 0, len(r.Metadata.CanonicalLinks)), r.Metadata.CanonicalLinks...)
	return out
}

type AuditJob struct {
	ID         string     `json:"id"`
	URL        string     `json:"url"`
	Status     JobStatus  `json:"status"`
	ReportID   *string    `json:"reportId,omitempty"`
	Error      *string    `json:"error,omitempty"`
	Attempts   int        `json:"attempts"`
	QueuedAt   time.Time  `json:"queuedAt"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ReportPage is one page of reports, newest first.
type ReportPage struct {
	Data       []Report   `json:"data"`
	Pagination Pagination `json:"pagination"`
}
