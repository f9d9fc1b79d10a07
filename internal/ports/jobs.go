package ports

import (
	"context"

	"siteaudit/internal/domain"
)

type AuditJob struct {
	ID  string
	URL string
}

// JobRepository supports queueing and claiming asynchronous audit jobs.
type JobRepository interface {
	Enqueue(ctx context.Context, url string) (jobID string, err error)
	Get(ctx context.Context, jobID string) (domain.AuditJob, error)
	ClaimNext(ctx context.Context) (job AuditJob, found bool, err error)
	MarkCompleted(ctx context.Context, jobID string, reportID string) error
	MarkFailed(ctx context.Context, jobID string, reason string) error
}
