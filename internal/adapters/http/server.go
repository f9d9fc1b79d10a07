package httpadapter

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"siteaudit/internal/domain"
	"siteaudit/internal/ports"
	"siteaudit/internal/services/audit"
)

const maxRequestBody = 64 << 10

type Options struct {
	AllowedOrigins []string
	MetricsPath    string
	// AuditLimiter wraps the routes that start audits. Nil disables limiting.
	AuditLimiter func(http.Handler) http.Handler
}

// Server exposes audits, audit jobs and stored reports over JSON. A nil jobs
// repository means no workers run, and the job routes answer 503.
type Server struct {
	auditor ports.Auditor
	reports ports.Reports
	jobs    ports.JobRepository
	log     logrus.FieldLogger
	opts    Options
}

func New(auditor ports.Auditor, reports ports.Reports, jobs ports.JobRepository, log logrus.FieldLogger, opts Options) *Server {
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	return &Server{auditor: auditor, reports: reports, jobs: jobs, log: log, opts: opts}
}

// Routes returns a chi.Router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.log))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", RequestIDHeader},
		AllowCredentials: true,
	}).Handler)

	r.Get("/healthz", s.getHealthz)
	r.Method(http.MethodGet, s.opts.MetricsPath, promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.opts.AuditLimiter != nil {
				r.Use(s.opts.AuditLimiter)
			}
			r.Post("/audit", s.postAudit)
			r.Post("/audit/jobs", s.postAuditJob)
		})
		r.Get("/audit/jobs/{id}", s.getAuditJob)
		r.Get("/report/admin/reports", s.listReports)
		r.Get("/report/{id}", s.getReport)
		r.Get("/admin/reports", s.listReports)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Message: "Not Found"})
	})
	return r
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type jobAccepted struct {
	JobID string `json:"jobId"`
}

func (s *Server) getHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) postAudit(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAuditRequest(w, r)
	if !ok {
		return
	}
	report, err := s.auditor.Run(r.Context(), req.URL)
	if err != nil {
		s.writeAuditError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) postAuditJob(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		writeJobsDisabled(w)
		return
	}
	req, ok := decodeAuditRequest(w, r)
	if !ok {
		return
	}
	target, err := audit.ParseTarget(req.URL)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: err.Error()})
		return
	}
	id, err := s.jobs.Enqueue(r.Context(), target.URL)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/audit/jobs/"+id)
	writeJSON(w, http.StatusAccepted, jobAccepted{JobID: id})
}

func (s *Server) getAuditJob(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		writeJobsDisabled(w)
		return
	}
	id, ok := bindID(w, r, "Invalid job ID.")
	if !ok {
		return
	}
	job, err := s.jobs.Get(r.Context(), id)
	if errors.Is(err, ports.ErrJobNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Message: "Job not found."})
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	id, ok := bindID(w, r, "Invalid report ID.")
	if !ok {
		return
	}
	report, err := s.reports.Get(r.Context(), id)
	if errors.Is(err, ports.ErrReportNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Message: "Report not found."})
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	var page, limit *int
	if err := runtime.BindQueryParameter("form", true, false, "page", r.URL.Query(), &page); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Invalid page parameter.", Error: err.Error()})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Invalid limit parameter.", Error: err.Error()})
		return
	}
	result, err := s.reports.List(r.Context(), deref(page), deref(limit))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeAuditError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ports.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: err.Error()})
	case errors.Is(err, ports.ErrUpstreamFailure):
		writeJSON(w, http.StatusBadGateway, errorBody{Message: "Audit failed", Error: err.Error()})
	default:
		s.log.WithError(err).WithField("path", r.URL.Path).Error("audit failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Audit failed", Error: err.Error()})
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Internal Server Error"})
}

func writeJobsDisabled(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, errorBody{Message: "Audit jobs are disabled, use POST /api/audit."})
}

func decodeAuditRequest(w http.ResponseWriter, r *http.Request) (domain.AuditRequest, bool) {
	var req domain.AuditRequest
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Invalid request body.", Error: err.Error()})
		return req, false
	}
	return req, true
}

// bindID binds the {id} path parameter the same way generated strict handlers do.
func bindID(w http.ResponseWriter, r *http.Request, msg string) (string, bool) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: msg})
		return "", false
	}
	return id.String(), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
