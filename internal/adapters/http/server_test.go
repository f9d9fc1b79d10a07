package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"siteaudit/internal/adapters/memory"
	"siteaudit/internal/domain"
	"siteaudit/internal/ports"
	"siteaudit/internal/services/reports"
)

type auditorFunc func(ctx context.Context, url string) (domain.Report, error)

func (f auditorFunc) Run(ctx context.Context, url string) (domain.Report, error) { return f(ctx, url) }

type fixture struct {
	store   *memory.Store
	handler http.Handler
}

func newFixture(t *testing.T, auditor ports.Auditor, opts Options) fixture {
	t.Helper()
	log, _ := test.NewNullLogger()
	store := memory.New()
	srv := New(auditor, reports.New(store), store, log, opts)
	return fixture{store: store, handler: srv.Routes()}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestPostAudit_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid input", ports.InvalidInput("URL is required"), http.StatusBadRequest},
		{"upstream", ports.Upstream("scrape", errors.New("connection refused")), http.StatusBadGateway},
		{"store", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, auditorFunc(func(context.Context, string) (domain.Report, error) {
				return domain.Report{}, tt.err
			}), Options{})
			rec := f.do(t, http.MethodPost, "/api/audit", `{"url":"https://example.com"}`)
			require.Equal(t, tt.status, rec.Code)
			body := decode[errorBody](t, rec)
			require.NotEmpty(t, body.Message)
		})
	}
}

func TestPostAudit_ReturnsReport(t *testing.T) {
	var gotURL string
	f := newFixture(t, auditorFunc(func(_ context.Context, url string) (domain.Report, error) {
		gotURL = url
		return domain.Report{ID: "r1", URL: "https://example.com/", Score: 72, Status: domain.StatusDone, Suggestions: []string{}}, nil
	}), Options{})

	rec := f.do(t, http.MethodPost, "/api/audit", `{"url":"https://example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "https://example.com", gotURL)
	require.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	report := decode[domain.Report](t, rec)
	require.Equal(t, 72, report.Score)
	require.Equal(t, domain.StatusDone, report.Status)
}

func TestPostAudit_BadBody(t *testing.T) {
	f := newFixture(t, auditorFunc(func(context.Context, string) (domain.Report, error) {
		t.Fatal("auditor must not run")
		return domain.Report{}, nil
	}), Options{})
	rec := f.do(t, http.MethodPost, "/api/audit", `{"url":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditJobs_EnqueueAndPoll(t *testing.T) {
	f := newFixture(t, nil, Options{})

	rec := f.do(t, http.MethodPost, "/api/audit/jobs", `{"url":"  https://example.com/page "}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	accepted := decode[jobAccepted](t, rec)
	require.NotEmpty(t, accepted.JobID)
	require.Equal(t, "/api/audit/jobs/"+accepted.JobID, rec.Header().Get("Location"))

	rec = f.do(t, http.MethodGet, "/api/audit/jobs/"+accepted.JobID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	job := decode[domain.AuditJob](t, rec)
	require.Equal(t, domain.JobQueued, job.Status)
	require.Equal(t, "https://example.com/page", job.URL)

	rec = f.do(t, http.MethodPost, "/api/audit/jobs", `{"url":"ftp://example.com"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/audit/jobs/6f1c2a9e-3b1d-4e55-9d0b-2f8f5c1a7e11", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetReport(t *testing.T) {
	f := newFixture(t, nil, Options{})
	saved, err := f.store.Save(context.Background(), domain.Report{
		URL: "https://example.com/", Domain: "example.com", Score: 55, Status: domain.StatusDone, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/report/"+saved.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[domain.Report](t, rec)
	require.Equal(t, 55, report.Score)
	require.NotNil(t, report.Suggestions)

	rec = f.do(t, http.MethodGet, "/api/report/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/report/6f1c2a9e-3b1d-4e55-9d0b-2f8f5c1a7e11", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Report not found.", decode[errorBody](t, rec).Message)
}

func TestListReports_Pagination(t *testing.T) {
	f := newFixture(t, nil, Options{})
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := f.store.Save(context.Background(), domain.Report{
			URL: "https://example.com/", Score: i, Status: domain.StatusDone, CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	rec := f.do(t, http.MethodGet, "/api/admin/reports?page=2&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[domain.ReportPage](t, rec)
	require.Equal(t, domain.Pagination{Page: 2, Limit: 2, Total: 3, Pages: 2}, page.Pagination)
	require.Len(t, page.Data, 1)
	require.Equal(t, 0, page.Data[0].Score)

	rec = f.do(t, http.MethodGet, "/api/admin/reports", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[domain.ReportPage](t, rec)
	require.Equal(t, 10, page.Pagination.Limit)
	require.Equal(t, 2, page.Data[0].Score)

	rec = f.do(t, http.MethodGet, "/api/report/admin/reports?page=1&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[domain.ReportPage](t, rec)
	require.Equal(t, domain.Pagination{Page: 1, Limit: 2, Total: 3, Pages: 2}, page.Pagination)
	require.Equal(t, 2, page.Data[0].Score)

	rec = f.do(t, http.MethodGet, "/api/admin/reports?limit=abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/report/admin/reports?page=9223372036854775807", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[domain.ReportPage](t, rec)
	require.Empty(t, page.Data)
	require.Equal(t, 3, page.Pagination.Total)
}

func TestAuditJobs_DisabledWithoutWorkers(t *testing.T) {
	log, _ := test.NewNullLogger()
	store := memory.New()
	handler := New(nil, reports.New(store), nil, log, Options{}).Routes()
	f := fixture{store: store, handler: handler}

	rec := f.do(t, http.MethodPost, "/api/audit/jobs", `{"url":"https://example.com"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotEmpty(t, decode[errorBody](t, rec).Message)

	rec = f.do(t, http.MethodGet, "/api/audit/jobs/6f1c2a9e-3b1d-4e55-9d0b-2f8f5c1a7e11", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	_, total, err := store.List(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Zero(t, total)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/report/admin/reports", "").Code)
}

func TestRoutes_HealthMetricsAndNotFound(t *testing.T) {
	f := newFixture(t, nil, Options{MetricsPath: "/internal/metrics"})

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "").Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/internal/metrics", "").Code)

	rec := f.do(t, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Not Found", decode[errorBody](t, rec).Message)
}

func TestRateLimit_AppliesToAuditRoutes(t *testing.T) {
	limit, err := RateLimit("2-M", NewMemoryStore())
	require.NoError(t, err)

	f := newFixture(t, auditorFunc(func(context.Context, string) (domain.Report, error) {
		return domain.Report{}, ports.InvalidInput("URL is required")
	}), Options{AuditLimiter: limit})

	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/audit", `{}`).Code)
	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/audit", `{}`).Code)
	require.Equal(t, http.StatusTooManyRequests, f.do(t, http.MethodPost, "/api/audit", `{}`).Code)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/admin/reports", "").Code)
}

func TestRateLimit_RejectsBadRate(t *testing.T) {
	_, err := RateLimit("twenty", NewMemoryStore())
	require.Error(t, err)
}
