package pagespeed

import (
	"math"

	"github.com/go-faster/errors"

	"siteaudit/internal/domain"
)

// Only the slice of the runPagespeed response we read. Pointers mark optional
// values so an absent metric is never confused with zero.
type runPagespeedResponse struct {
	ID               string            `json:"id"`
	LighthouseResult *lighthouseResult `json:"lighthouseResult"`
}

type lighthouseResult struct {
	RequestedURL string               `json:"requestedUrl"`
	Categories   lighthouseCategories `json:"categories"`
	Audits       map[string]audit     `json:"audits"`
}

type lighthouseCategories struct {
	Performance *category `json:"performance"`
}

type category struct {
	Score *float64 `json:"score"`
}

type audit struct {
	NumericValue *float64 `json:"numericValue"`
}

func (r runPagespeedResponse) toResult(profile domain.DeviceProfile) (domain.PerformanceResult, error) {
	if r.LighthouseResult == nil {
		return domain.PerformanceResult{}, errors.New("missing lighthouseResult")
	}
	lh := r.LighthouseResult
	out := domain.PerformanceResult{Profile: profile}

	if perf := lh.Categories.Performance; perf != nil && perf.Score != nil {
		s := *perf.Score
		if !finite(s) || s < 0 || s > 1 {
			return domain.PerformanceResult{}, errors.Errorf("performance score %v outside [0,1]", s)
		}
		v := int(math.Round(s * 100))
		out.PerformanceScore = &v
	}

	var err error
	if out.LargestContentfulPaintMs, err = lh.milliseconds(auditLCP); err != nil {
		return domain.PerformanceResult{}, err
	}
	if out.FirstContentfulPaintMs, err = lh.milliseconds(auditFCP); err != nil {
		return domain.PerformanceResult{}, err
	}
	if out.TotalBlockingTimeMs, err = lh.milliseconds(auditTBT); err != nil {
		return domain.PerformanceResult{}, err
	}
	if v, ok, err := lh.numeric(auditCLS); err != nil {
		return domain.PerformanceResult{}, err
	} else if ok {
		out.CumulativeLayoutShift = &v
	}
	return out, nil
}

func (lh *lighthouseResult) numeric(id string) (float64, bool, error) {
	a, ok := lh.Audits[id]
	if !ok || a.NumericValue == nil {
		return 0, false, nil
	}
	v := *a.NumericValue
	if !finite(v) || v < 0 {
		return 0, false, errors.Errorf("audit %s has invalid value %v", id, v)
	}
	return v, true, nil
}

func (lh *lighthouseResult) milliseconds(id string) (*int, error) {
	v, ok, err := lh.numeric(id)
	if err != nil || !ok {
		return nil, err
	}
	ms := int(math.Round(v))
	return &ms, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
