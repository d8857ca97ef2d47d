// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only - no
// framework code, no I/O of their own.
package usecases

import (
	"sort"

	"askbase/internal/domain/entities"
)

// ConfidenceThreshold binds a minimum score to a confidence level.
type ConfidenceThreshold struct {
	Min   float64
	Level entities.ConfidenceLevel
}

// DefaultConfidenceThresholds mirror the tuned values of the curated KB:
// cosine similarity of a normalized all-MiniLM-style embedding.
func DefaultConfidenceThresholds() []ConfidenceThreshold {
	return []ConfidenceThreshold{
		{Min: 0.70, Level: entities.ConfidenceHigh},
		{Min: 0.60, Level: entities.ConfidenceMedium},
		{Min: 0.50, Level: entities.ConfidenceLow},
	}
}

// ConfidenceClassifier maps a top similarity score to a discrete label.
// Pure and total: every float has a level, None being the fallback.
type ConfidenceClassifier struct {
	thresholds []ConfidenceThreshold
}

// NewConfidenceClassifier builds a classifier from (threshold, level) pairs.
// Pairs are sorted by descending threshold so classification is a first-match
// scan; an empty slice falls back to the defaults.
func NewConfidenceClassifier(thresholds []ConfidenceThreshold) *ConfidenceClassifier {
	if len(thresholds) == 0 {
		thresholds = DefaultConfidenceThresholds()
	}
	sorted := make([]ConfidenceThreshold, len(thresholds))
	copy(sorted, thresholds)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Min > sorted[j].Min
	})
	return &ConfidenceClassifier{thresholds: sorted}
}

// Classify returns the level of the first threshold the score meets or
// exceeds, or ConfidenceNone when none match. Monotonic by construction:
// thresholds are scanned from highest to lowest.
func (c *ConfidenceClassifier) Classify(score float64) entities.ConfidenceLevel {
	for _, t := range c.thresholds {
		if score >= t.Min {
			return t.Level
		}
	}
	return entities.ConfidenceNone
}
