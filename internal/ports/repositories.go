package ports

import (
	"context"

	"siteaudit/internal/domain"
)

// ReportRepository persists finished reports. Save assigns the id.
type ReportRepository interface {
	Save(ctx context.Context, report domain.Report) (domain.Report, error)
	FindByID(ctx context.Context, id string) (domain.Report, error)
	List(ctx context.Context, offset, limit int) (reports []domain.Report, total int, err error)
}
