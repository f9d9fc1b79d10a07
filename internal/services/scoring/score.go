// Package scoring reduces an audit's performance and metadata results to a
// single 0-100 score.
//
// The composite is 60% performance and 40% metadata completeness. Each stage
// (device mean, metadata ratio, composite) is rounded half-up before it feeds
// the next one, so the result can differ by one from rounding only at the end.
package scoring

import "siteaudit/internal/domain"

// Weights are expressed in tenths so the composite stays in integer arithmetic.
const (
	PerformanceWeight = 6
	MetadataWeight    = 4

	metadataChecks = 5
	maxScore       = 100
)

// Breakdown exposes the intermediate sub-scores alongside the composite.
type Breakdown struct {
	Performance int `json:"performance"`
	Metadata    int `json:"metadata"`
	Composite   int `json:"composite"`
}

// Score returns the composite score for a finished audit. It never fails.
func Score(bundle domain.PerformanceBundle, meta domain.MetadataResult) int {
	return Compute(bundle, meta).Composite
}

func Compute(bundle domain.PerformanceBundle, meta domain.MetadataResult) Breakdown {
	perf := PerformanceSubScore(bundle)
	md := MetadataSubScore(meta)
	composite := roundRatio(PerformanceWeight*perf+MetadataWeight*md, PerformanceWeight+MetadataWeight)
	return Breakdown{Performance: perf, Metadata: md, Composite: clamp(composite)}
}

// PerformanceSubScore is the rounded mean of the device scores that are present,
// or 0 when neither device reported one.
func PerformanceSubScore(bundle domain.PerformanceBundle) int {
	sum, n := 0, 0
	for _, v := range []*int{bundle.Mobile.PerformanceScore, bundle.Desktop.PerformanceScore} {
		if v == nil {
			continue
		}
		sum += clamp(*v)
		n++
	}
	if n == 0 {
		return 0
	}
	return roundRatio(sum, n)
}

// MetadataSubScore gives each of the five on-page checks an equal share.
// A page without images passes the alt-text check.
func MetadataSubScore(meta domain.MetadataResult) int {
	return roundRatio(maxScore*MetadataChecksPassed(meta), metadataChecks)
}

func MetadataChecksPassed(meta domain.MetadataResult) int {
	checks := [metadataChecks]bool{
		meta.Title != "",
		meta.MetaDescription != "",
		meta.FirstHeading != "",
		len(meta.CanonicalLinks) > 0,
		meta.ImagesMissingAltCount == 0,
	}
	passed := 0
	for _, ok := range checks {
		if ok {
			passed++
		}
	}
	return passed
}

// roundRatio rounds num/den half-up. Both operands are non-negative here.
func roundRatio(num, den int) int {
	return (2*num + den) / (2 * den)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > maxScore {
		return maxScore
	}
	return v
}
