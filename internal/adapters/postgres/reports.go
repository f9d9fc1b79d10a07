package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"siteaudit/internal/domain"
	"siteaudit/internal/ports"
)

const reportColumns = `id::text, url, domain, page_speed, meta, suggestions, score, status, created_at`

// ReportRepository

func (db *DB) Save(ctx context.Context, report domain.Report) (domain.Report, error) {
	if report.Suggestions == nil {
		report.Suggestions = []string{}
	}
	if report.Metadata.CanonicalLinks == nil {
		report.Metadata.CanonicalLinks = []string{}
	}
	err := db.Pool.QueryRow(ctx, `
        INSERT INTO reports (url, domain, page_speed, meta, suggestions, score, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id::text, created_at
    `, report.URL, report.Domain, report.Performance, report.Metadata, report.Suggestions,
		report.Score, string(report.Status), report.CreatedAt,
	).Scan(&report.ID, &report.CreatedAt)
	if err != nil {
		return domain.Report{}, errors.Wrap(err, "insert report")
	}
	return report, nil
}

func (db *DB) FindByID(ctx context.Context, id string) (domain.Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Report{}, ports.ErrReportNotFound
	}
	row := db.Pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	report, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Report{}, ports.ErrReportNotFound
	}
	return report, err
}

func (db *DB) List(ctx context.Context, offset, limit int) ([]domain.Report, int, error) {
	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT count(*) FROM reports`).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count reports")
	}
	if offset < 0 || offset >= total {
		return []domain.Report{}, total, nil
	}
	rows, err := db.Pool.Query(ctx, `
        SELECT `+reportColumns+`
        FROM reports
        ORDER BY created_at DESC, id
        OFFSET $1 LIMIT $2
    `, offset, limit)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list reports")
	}
	defer rows.Close()

	out := []domain.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func scanReport(row pgx.Row) (domain.Report, error) {
	var (
		r      domain.Report
		status string
	)
	err := row.Scan(&r.ID, &r.URL, &r.Domain, &r.Performance, &r.Metadata, &r.Suggestions, &r.Score, &status, &r.CreatedAt)
	if err != nil {
		return domain.Report{}, err
	}
	r.Status = domain.ReportStatus(status)
	if r.Suggestions == nil {
		r.Suggestions = []string{}
	}
	if r.Metadata.CanonicalLinks == nil {
		r.Metadata.CanonicalLinks = []string{}
	}
	return r, nil
}
