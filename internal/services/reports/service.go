package reports

import (
	"context"
	"math"

	"siteaudit/internal/domain"
	"siteaudit/internal/ports"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type Service struct {
	reports ports.ReportRepository
}

func New(reports ports.ReportRepository) *Service { return &Service{reports: reports} }

func (s *Service) Get(ctx context.Context, id string) (domain.Report, error) {
	r, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return domain.Report{}, err
	}
	if r.Suggestions == nil {
		r.Suggestions = []string{}
	}
	return r, nil
}

// List returns reports newest first. page starts at 1; limit 0 means the
// default and anything else is clamped to [1, MaxLimit].
func (s *Service) List(ctx context.Context, page, limit int) (domain.ReportPage, error) {
	page, limit = normalizePage(page, limit)
	offset := math.MaxInt
	if page-1 <= math.MaxInt/limit {
		offset = (page - 1) * limit
	}
	items, total, err := s.reports.List(ctx, offset, limit)
	if err != nil {
		return domain.ReportPage{}, err
	}
	if items == nil {
		items = []domain.Report{}
	}
	pages := (total + limit - 1) / limit
	if pages == 0 {
		pages = 1
	}
	return domain.ReportPage{
		Data:       items,
		Pagination: domain.Pagination{Page: page, Limit: limit, Total: total, Pages: pages},
	}, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}
