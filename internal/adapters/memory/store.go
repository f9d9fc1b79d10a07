// Package memory keeps reports and audit jobs in process memory. It backs
// local development runs without DATABASE_URL and the HTTP tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"siteaudit/internal/domain"
	"siteaudit/internal/ports"
)

type Store struct {
	mu      sync.Mutex
	reports map[string]domain.Report
	order   []string // insertion order, oldest first
	jobs    map[string]*domain.AuditJob
	queue   []string
	now     func() time.Time
}

func New() *Store {
	return &Store{
		reports: map[string]domain.Report{},
		jobs:    map[string]*domain.AuditJob{},
		now:     time.Now,
	}
}

// ReportRepository

func (s *Store) Save(_ context.Context, report domain.Report) (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	report = report.Clone()
	report.ID = uuid.NewString()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = s.now().UTC()
	}
	s.reports[report.ID] = report
	s.order = append(s.order, report.ID)
	return report.Clone(), nil
}

func (s *Store) FindByID(_ context.Context, id string) (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return domain.Report{}, ports.ErrReportNotFound
	}
	return r.Clone(), nil
}

func (s *Store) List(_ context.Context, offset, limit int) ([]domain.Report, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.order)
	out := []domain.Report{}
	if offset < 0 || offset >= total {
		return out, total, nil
	}
	for i := total - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.reports[s.order[i]].Clone())
	}
	return out, total, nil
}

// JobRepository

func (s *Store) Enqueue(_ context.Context, url string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := &domain.AuditJob{ID: uuid.NewString(), URL: url, Status: domain.JobQueued, QueuedAt: s.now().UTC()}
	s.jobs[job.ID] = job
	s.queue = append(s.queue, job.ID)
	return job.ID, nil
}

func (s *Store) Get(_ context.Context, jobID string) (domain.AuditJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return domain.AuditJob{}, ports.ErrJobNotFound
	}
	return *job, nil
}

func (s *Store) ClaimNext(_ context.Context) (ports.AuditJob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return ports.AuditJob{}, false, nil
	}
	id := s.queue[0]
	s.queue = s.queue[1:]
	job := s.jobs[id]
	now := s.now().UTC()
	job.Status = domain.JobRunning
	job.StartedAt = &now
	job.Attempts++
	return ports.AuditJob{ID: job.ID, URL: job.URL}, true, nil
}

func (s *Store) MarkCompleted(_ context.Context, jobID string, reportID string) error {
	return s.finish(jobID, func(job *domain.AuditJob) {
		job.Status = domain.JobCompleted
		job.ReportID = &reportID
	})
}

func (s *Store) MarkFailed(_ context.Context, jobID string, reason string) error {
	return s.finish(jobID, func(job *domain.AuditJob) {
		job.Status = domain.JobFailed
		job.Error = &reason
	})
}

func (s *Store) finish(jobID string, apply func(*domain.AuditJob)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return ports.ErrJobNotFound
	}
	now := s.now().UTC()
	apply(job)
	job.FinishedAt = &now
	return nil
}
