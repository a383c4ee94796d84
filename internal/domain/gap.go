package domain

import "sort"

// TagStats summarizes a learner's historical performance for one content
// tag. Scores are normalized to a 0-100 scale before aggregation.
type TagStats struct {
	Mean     float64
	Variance float64
	Samples  int
}

// Gap thresholds. A tag is a knowledge gap when the learner is consistently
// weak at it: low mean and low variance, not merely inconsistent.
const (
	GapMeanThreshold     = 50.0
	GapVarianceThreshold = 10.0
)

// IsGap reports whether the stats mark the tag as a knowledge gap.
func (s TagStats) IsGap() bool {
	return s.Samples > 0 && s.Mean < GapMeanThreshold && s.Variance < GapVarianceThreshold
}

// ComputeTagStats aggregates normalized scores grouped by tag into mean and
// population variance. Pure function of its input: the same samples always
// produce the same stats.
func ComputeTagStats(samples map[string][]float64) map[string]TagStats {
	stats := make(map[string]TagStats, len(samples))
	for tag, scores := range samples {
		if len(scores) == 0 {
			continue
		}
		var sum float64
		for _, s := range scores {
			sum += s
		}
		mean := sum / float64(len(scores))

		var sqDiff float64
		for _, s := range scores {
			d := s - mean
			sqDiff += d * d
		}
		stats[tag] = TagStats{
			Mean:     mean,
			Variance: sqDiff / float64(len(scores)),
			Samples:  len(scores),
		}
	}
	return stats
}

// KnowledgeGaps returns the gap tags in sorted order for deterministic
// downstream ranking.
func KnowledgeGaps(stats map[string]TagStats) []string {
	var gaps []string
	for tag, s := range stats {
		if s.IsGap() {
			gaps = append(gaps, tag)
		}
	}
	sort.Strings(gaps)
	return gaps
}

// NormalizeScore converts a raw score against its max to the 0-100 scale
// used for tag aggregation. Returns false when the attempt cannot be
// normalized (no score, or a max of zero).
func NormalizeScore(score *int, maxScore int) (float64, bool) {
	if score == nil || maxScore <= 0 {
		return 0, false
	}
	return float64(*score) / float64(maxScore) * 100, true
}
