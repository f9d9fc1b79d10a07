package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"siteaudit/internal/domain"
	"siteaudit/internal/ports"
)

func (db *DB) Enqueue(ctx context.Context, url string) (string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `INSERT INTO audit_jobs (url) VALUES ($1) RETURNING id::text`, url).Scan(&id)
	if err != nil {
		return "", errors.Wrap(err, "insert audit job")
	}
	return id, nil
}

func (db *DB) Get(ctx context.Context, jobID string) (domain.AuditJob, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return domain.AuditJob{}, ports.ErrJobNotFound
	}
	var (
		job    domain.AuditJob
		status string
	)
	err := db.Pool.QueryRow(ctx, `
        SELECT id::text, url, status, report_id::text, error, attempts, queued_at, started_at, finished_at
        FROM audit_jobs WHERE id = $1
    `, jobID).Scan(&job.ID, &job.URL, &status, &job.ReportID, &job.Error, &job.Attempts, &job.QueuedAt, &job.StartedAt, &job.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AuditJob{}, ports.ErrJobNotFound
	}
	if err != nil {
		return domain.AuditJob{}, err
	}
	job.Status = domain.JobStatus(status)
	return job, nil
}

// ClaimNext selects the next queued job using SKIP LOCKED and marks it running.
func (db *DB) ClaimNext(ctx context.Context) (job ports.AuditJob, found bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return job, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
        SELECT id::text, url FROM audit_jobs
        WHERE status = 'queued'
        ORDER BY queued_at
        FOR UPDATE SKIP LOCKED
        LIMIT 1
    `).Scan(&job.ID, &job.URL)
	if errors.Is(err, pgx.ErrNoRows) {
		return job, false, nil
	}
	if err != nil {
		return job, false, err
	}

	if _, err = tx.Exec(ctx, `
        UPDATE audit_jobs SET status='running', started_at=now(), attempts=attempts+1 WHERE id=$1
    `, job.ID); err != nil {
		return job, false, err
	}
	return job, true, nil
}

func (db *DB) MarkCompleted(ctx context.Context, jobID string, reportID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tag, err := db.Pool.Exec(ctx, `
        UPDATE audit_jobs SET status='completed', report_id=$2, finished_at=now() WHERE id=$1
    `, jobID, reportID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrJobNotFound
	}
	return nil
}

func (db *DB) MarkFailed(ctx context.Context, jobID string, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tag, err := db.Pool.Exec(ctx, `
        UPDATE audit_jobs SET status='failed', error=$2, finished_at=now() WHERE id=$1
    `, jobID, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrJobNotFound
	}
	return nil
}
