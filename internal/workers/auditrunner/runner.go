package auditrunner

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"siteaudit/internal/ports"
)

// DefaultPollInterval is how often idle workers look for queued jobs.
const DefaultPollInterval = 500 * time.Millisecond

// Run claims queued audit jobs and runs them on concurrency workers until ctx
// is cancelled. It returns once every in-flight audit has been recorded.
func Run(ctx context.Context, jobs ports.JobRepository, auditor ports.Auditor, concurrency int, pollInterval time.Duration, log logrus.FieldLogger) {
	if concurrency < 1 {
		return
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	jobsCh := make(chan ports.AuditJob, concurrency)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			wlog := log.WithField("worker", idx)
			for job := range jobsCh {
				process(ctx, jobs, auditor, job, wlog)
			}
		}(i)
	}

	dispatch(ctx, jobs, jobsCh, pollInterval, log)
	close(jobsCh)
	wg.Wait()
}

func dispatch(ctx context.Context, jobs ports.JobRepository, out chan<- ports.AuditJob, pollInterval time.Duration, log logrus.FieldLogger) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		for {
			job, found, err := jobs.ClaimNext(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.WithError(err).Error("job claim failed")
				}
				break
			}
			if !found {
				break
			}
			select {
			case out <- job:
			case <-ctx.Done():
				// Claimed but never started: record it so the job does not sit in running.
				_ = jobs.MarkFailed(context.WithoutCancel(ctx), job.ID, "shutdown before start")
				return
			}
		}
	}
}

func process(ctx context.Context, jobs ports.JobRepository, auditor ports.Auditor, job ports.AuditJob, log logrus.FieldLogger) {
	jlog := log.WithFields(logrus.Fields{"job": job.ID, "url": job.URL})
	start := time.Now()
	report, err := auditor.Run(ctx, job.URL)
	// The outcome is recorded even when shutdown cancelled the audit.
	mctx := context.WithoutCancel(ctx)
	if err != nil {
		jlog.WithError(err).Warn("audit job failed")
		if merr := jobs.MarkFailed(mctx, job.ID, err.Error()); merr != nil {
			jlog.WithError(merr).Error("mark job failed")
		}
		return
	}
	if err := jobs.MarkCompleted(mctx, job.ID, report.ID); err != nil {
		jlog.WithError(err).Error("mark job completed")
		return
	}
	jlog.WithFields(logrus.Fields{"report": report.ID, "score": report.Score, "duration": time.Since(start).String()}).Info("audit job completed")
}
