package rerank

import (
	"math"
	"sort"
	"time"

	"github.com/tunogya/stride/pkg/store/milvus"
	"github.com/tunogya/stride/pkg/window"
)

// TimeDecayConfig holds configuration for time decay reranking
type TimeDecayConfig struct {
	Lambda float64 `toml:"lambda"` // per-day exponential decay rate

	UseSegments  bool    `toml:"use_segments"`
	RecentDays   float64 `toml:"recent_days"`
	MediumDays   float64 `toml:"medium_days"`
	RecentWeight float64 `toml:"recent_weight"` // age <= RecentDays
	MediumWeight float64 `toml:"medium_weight"` // RecentDays < age <= MediumDays
	OldWeight    float64 `toml:"old_weight"`    // age > MediumDays
}

// DefaultTimeDecayConfig halves a race's weight roughly once a year
func DefaultTimeDecayConfig() TimeDecayConfig {
	return TimeDecayConfig{
		Lambda:       math.Ln2 / 365,
		UseSegments:  false,
		RecentDays:   180,
		MediumDays:   365,
		RecentWeight: 1.0,
		MediumWeight: 0.7,
		OldWeight:    0.4,
	}
}

// SegmentConfig returns a configuration using season-based weights
func SegmentConfig() TimeDecayConfig {
	cfg := DefaultTimeDecayConfig()
	cfg.UseSegments = true
	return cfg
}

// RankedResult extends SearchResult with reranked score
type RankedResult struct {
	milvus.SearchResult
	AgeDays    float64
	TimeWeight float64
	FinalScore float64
}

// Reranker performs time-based reranking of similar races
type Reranker struct {
	config TimeDecayConfig
}

// NewReranker creates a new reranker with the given configuration
func NewReranker(config TimeDecayConfig) *Reranker {
	return &Reranker{config: config}
}

// Rerank weights hits by race age relative to ref and sorts them by
// final score, highest first. Races on or after ref are dropped.
func (r *Reranker) Rerank(results []milvus.SearchResult, ref time.Time) []RankedResult {
	ranked := make([]RankedResult, 0, len(results))

	for _, result := range results {
		if !result.Date.Before(ref) {
			continue
		}
		ageDays := float64(ref.Sub(result.Date)) / float64(window.Day)

		var weight float64
		if r.config.UseSegments {
			weight = r.segmentWeight(ageDays)
		} else {
			weight = r.exponentialDecay(ageDays)
		}

		ranked = append(ranked, RankedResult{
			SearchResult: result,
			AgeDays:      ageDays,
			TimeWeight:   weight,
			FinalScore:   float64(result.Score) * weight,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})

	return ranked
}

func (r *Reranker) exponentialDecay(ageDays float64) float64 {
	return math.Exp(-r.config.Lambda * ageDays)
}

func (r *Reranker) segmentWeight(ageDays float64) float64 {
	switch {
	case ageDays <= r.config.RecentDays:
		return r.config.RecentWeight
	case ageDays <= r.config.MediumDays:
		return r.config.MediumWeight
	default:
		return r.config.OldWeight
	}
}

// TopN returns the top N results after reranking
func (r *Reranker) TopN(results []milvus.SearchResult, ref time.Time, n int) []RankedResult {
	ranked := r.Rerank(results, ref)
	if len(ranked) <= n {
		return ranked
	}
	return ranked[:n]
}

// FilterByMinScore filters results by minimum final score
func FilterByMinScore(results []RankedResult, minScore float64) []RankedResult {
	var filtered []RankedResult
	for _, r := range results {
		if r.FinalScore >= minScore {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
