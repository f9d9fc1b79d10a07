package audit

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"siteaudit/internal/domain"
	"siteaudit/internal/ports"
	"siteaudit/internal/services/scoring"
)

// Source names reported on upstream failures. Both device profiles belong to
// the single "pagespeed" dependency.
const (
	SourcePerformance = "pagespeed"
	SourceMetadata    = "scrape"

	DefaultSuggestionTimeout = 30 * time.Second
	// MaxSuggestions caps what any generator can put into a report.
	MaxSuggestions = 5
)

// Service orchestrates one audit: performance and metadata fan-out, best-effort
// suggestions, scoring and persistence.
type Service struct {
	perf      ports.PerformanceAnalyzer
	scraper   ports.MetadataScraper
	suggester ports.SuggestionGenerator
	reports   ports.ReportRepository

	log               logrus.FieldLogger
	now               func() time.Time
	suggestionTimeout time.Duration
}

type Option func(*Service)

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithSuggestionTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.suggestionTimeout = d
		}
	}
}

// New wires the orchestrator. suggester may be nil, in which case reports carry no suggestions.
func New(perf ports.PerformanceAnalyzer, scraper ports.MetadataScraper, suggester ports.SuggestionGenerator, reports ports.ReportRepository, opts ...Option) *Service {
	s := &Service{
		perf:              perf,
		scraper:           scraper,
		suggester:         suggester,
		reports:           reports,
		log:               logrus.StandardLogger(),
		now:               time.Now,
		suggestionTimeout: DefaultSuggestionTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run audits rawurl and returns the stored report. Nothing is stored when
// validation or a mandatory source fails.
func (s *Service) Run(ctx context.Context, rawurl string) (domain.Report, error) {
	target, err := ParseTarget(rawurl)
	if err != nil {
		recordRun(resultInvalidInput)
		return domain.Report{}, err
	}
	log := s.log.WithFields(logrus.Fields{"url": target.URL, "domain": target.Registrable})

	bundle, meta, err := s.collect(ctx, target.URL)
	if err != nil {
		recordRun(resultUpstreamFailure)
		log.WithError(err).Warn("audit aborted: upstream failure")
		return domain.Report{}, err
	}

	snapshot := domain.AuditSnapshot{URL: target.URL, PageSpeed: bundle, Meta: meta}
	suggestions := s.suggest(ctx, snapshot, log)

	breakdown := scoring.Compute(bundle, meta)
	report := domain.Report{
		URL:         target.URL,
		Domain:      target.Registrable,
		Performance: bundle,
		Metadata:    meta,
		Suggestions: suggestions,
		Score:       breakdown.Composite,
		Status:      domain.StatusDone,
		CreatedAt:   s.now().UTC(),
	}

	saved, err := s.reports.Save(ctx, report)
	if err != nil {
		recordRun(resultStoreFailure)
		return domain.Report{}, errors.Wrap(err, "save report")
	}
	recordRun(resultDone)
	reportScores.Observe(float64(saved.Score))
	log.WithFields(logrus.Fields{
		"report_id":         saved.ID,
		"score":             saved.Score,
		"performance_score": breakdown.Performance,
		"metadata_score":    breakdown.Metadata,
		"suggestions":       len(saved.Suggestions),
	}).Info("audit completed")
	return saved, nil
}

// collect runs mobile, desktop and scrape concurrently and waits for all of
// them. The first mandatory failure wins; the others see a cancelled context
// and their results are discarded.
func (s *Service) collect(ctx context.Context, target string) (domain.PerformanceBundle, domain.MetadataResult, error) {
	var (
		mobile, desktop domain.PerformanceResult
		meta            domain.MetadataResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		mobile, err = s.analyze(gctx, target, domain.ProfileMobile)
		return err
	})
	g.Go(func() (err error) {
		desktop, err = s.analyze(gctx, target, domain.ProfileDesktop)
		return err
	})
	g.Go(func() error {
		started := time.Now()
		res, err := s.scraper.Scrape(gctx, target)
		observeUpstream(SourceMetadata, started, err)
		if err != nil {
			return ports.Upstream(SourceMetadata, err)
		}
		meta = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.PerformanceBundle{}, domain.MetadataResult{}, err
	}

	if meta.CanonicalLinks == nil {
		meta.CanonicalLinks = []string{}
	}
	mobile.Profile = domain.ProfileMobile
	desktop.Profile = domain.ProfileDesktop
	bundle := domain.PerformanceBundle{Mobile: mobile, Desktop: desktop, RetrievedAt: s.now().UTC()}
	return bundle, meta, nil
}

func (s *Service) analyze(ctx context.Context, target string, profile domain.DeviceProfile) (domain.PerformanceResult, error) {
	started := time.Now()
	res, err := s.perf.Analyze(ctx, target, profile)
	observeUpstream(SourcePerformance, started, err)
	if err != nil {
		return domain.PerformanceResult{}, ports.Upstream(SourcePerformance, err)
	}
	return res, nil
}

// suggest runs the suggestion generator as an isolated task bounded by its
// own timeout. Its only outputs are a list of suggestions or an empty list.
func (s *Service) suggest(ctx context.Context, in domain.AuditSnapshot, log logrus.FieldLogger) []string {
	out := []string{}
	if s.suggester == nil {
		return out
	}

	sctx, cancel := context.WithTimeout(ctx, s.suggestionTimeout)
	defer cancel()

	type result struct {
		lines []string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: errors.Errorf("suggestion generator panicked: %v", r)}
			}
		}()
		lines, err := s.suggester.Suggest(sctx, in)
		done <- result{lines: lines, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-sctx.Done():
		res.err = errors.Wrap(sctx.Err(), "suggestions")
	}

	switch {
	case errors.Is(res.err, ports.ErrSuggestionsDisabled):
		log.Debug("suggestions disabled")
		return out
	case res.err != nil:
		suggestionFailures.Inc()
		log.WithError(res.err).WithField("failure", "SuggestionFailure").Warn("suggestions unavailable, continuing without them")
		return out
	}
	for _, line := range res.lines {
		if len(out) == MaxSuggestions {
			break
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
