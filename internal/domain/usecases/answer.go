package usecases

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"askbase/internal/domain/entities"
	"askbase/internal/domain/ports"
)

// Config enumerates every tunable of the answer engine. Thresholds live here,
// once, instead of being redefined per call site.
type Config struct {
	TopK              int
	MinRelevanceScore float64
	MinCommonTags     int
	DominanceMargin   float64
	MinQueryLength    int // runes, after trimming
	Thresholds        []ConfidenceThreshold
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		TopK:              5,
		MinRelevanceScore: 0.55,
		MinCommonTags:     2,
		DominanceMargin:   0.12,
		MinQueryLength:    4,
		Thresholds:        DefaultConfidenceThresholds(),
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.MinRelevanceScore < 0 || c.MinRelevanceScore > 1 {
		return fmt.Errorf("min_relevance_score must be in [0,1], got %v", c.MinRelevanceScore)
	}
	if c.DominanceMargin < 0 {
		return fmt.Errorf("dominance_margin must be non-negative, got %v", c.DominanceMargin)
	}
	if c.MinQueryLength < 1 {
		return fmt.Errorf("min_query_length must be at least 1, got %d", c.MinQueryLength)
	}
	// Classification must be monotonic: a higher threshold has to map to a
	// higher level. Check in descending threshold order regardless of how
	// the slice was supplied.
	sorted := make([]ConfidenceThreshold, len(c.Thresholds))
	copy(sorted, c.Thresholds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min > sorted[j].Min })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Min == sorted[i-1].Min {
			return fmt.Errorf("duplicate confidence threshold %v", sorted[i].Min)
		}
		if sorted[i].Level >= sorted[i-1].Level {
			return fmt.Errorf("confidence levels must increase with thresholds: %v maps to %s but %v maps to %s",
				sorted[i-1].Min, sorted[i-1].Level, sorted[i].Min, sorted[i].Level)
		}
	}
	return nil
}

// AnswerUseCase is the retrieval confidence and composition engine. It is a
// pure function of (query, snapshot, config): it holds no mutable state
// between calls, so any number of queries may run concurrently against the
// same snapshot.
type AnswerUseCase struct {
	embedder   ports.Embedder
	classifier *ConfidenceClassifier
	cfg        Config
	logger     *zap.Logger
}

// NewAnswerUseCase creates the engine with injected dependencies.
func NewAnswerUseCase(embedder ports.Embedder, cfg Config, logger *zap.Logger) (*AnswerUseCase, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnswerUseCase{
		embedder:   embedder,
		classifier: NewConfidenceClassifier(cfg.Thresholds),
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Answer turns a free-text query into exactly one terminal ResponsePlan.
//
// Policy outcomes (too short, no relevant match, incoherent results) are
// plans, not errors. Errors are reserved for infrastructure faults: an
// unavailable embedder or index is surfaced unretried, and a stale entry
// reference surfaces as a wrapped ports.ErrNotFound the caller may retry
// against the current snapshot.
func (uc *AnswerUseCase) Answer(ctx context.Context, query string, snap ports.Snapshot) (entities.ResponsePlan, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < uc.cfg.MinQueryLength {
		return entities.ResponsePlan{
			Kind:       entities.PlanTooShort,
			Confidence: entities.ConfidenceNone,
			Text:       TooShortText,
		}, nil
	}

	vector, err := uc.embedder.Embed(ctx, query)
	if err != nil {
		return entities.ResponsePlan{}, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := snap.Index.Search(ctx, vector, uc.cfg.TopK)
	if err != nil {
		return entities.ResponsePlan{}, fmt.Errorf("searching index: %w", err)
	}

	relevant, err := uc.resolveRelevant(hits, snap.Store)
	if err != nil {
		return entities.ResponsePlan{}, err
	}
	if len(relevant) == 0 {
		uc.logger.Debug("no candidate met the relevance threshold",
			zap.Int("hits", len(hits)),
			zap.Float64("min_score", uc.cfg.MinRelevanceScore))
		return refusePlan(), nil
	}

	best := relevant[0]
	confidence := uc.classifier.Classify(best.Score)

	coherent := FilterCoherent(best.Entry.TagSet(), relevant, uc.cfg.MinCommonTags)
	if len(coherent) == 0 {
		// The best match can fail its own filter when it carries too few
		// tags. That is a normal refuse outcome, never an index fault.
		uc.logger.Debug("coherence filter emptied the candidate set",
			zap.String("best_entry", best.Entry.ID),
			zap.Int("best_tags", len(best.Entry.Tags)))
		return refusePlan(), nil
	}

	if len(coherent) == 1 || IsDominant(coherent[0].Score, coherent[1].Score, uc.cfg.DominanceMargin) {
		winner := coherent[0]
		intent := InferIntent(query)
		return entities.ResponsePlan{
			Kind:       entities.PlanSingle,
			Confidence: confidence,
			Text:       ComposeSingle(winner.Entry, intent, confidence),
			EntryIDs:   []string{winner.Entry.ID},
		}, nil
	}

	ids := make([]string, len(coherent))
	for i, cand := range coherent {
		ids[i] = cand.Entry.ID
	}
	return entities.ResponsePlan{
		Kind:       entities.PlanMerged,
		Confidence: confidence,
		Text:       ComposeMerged(coherent, confidence),
		EntryIDs:   ids,
	}, nil
}

// resolveRelevant drops hits below the relevance threshold and resolves the
// survivors against the snapshot's store. Hits arrive sorted by descending
// score and stay that way.
func (uc *AnswerUseCase) resolveRelevant(hits []ports.Hit, store ports.KBStore) ([]entities.Candidate, error) {
	var relevant []entities.Candidate
	for _, hit := range hits {
		if hit.Score < uc.cfg.MinRelevanceScore {
			continue
		}
		entry, err := store.Get(hit.EntryID)
		if err != nil {
			return nil, fmt.Errorf("resolving entry %q: %w", hit.EntryID, err)
		}
		relevant = append(relevant, entities.Candidate{Entry: entry, Score: hit.Score})
	}
	return relevant, nil
}

func refusePlan() entities.ResponsePlan {
	return entities.ResponsePlan{
		Kind:       entities.PlanRefuse,
		Confidence: entities.ConfidenceNone,
		Text:       NoMatchText,
	}
}
