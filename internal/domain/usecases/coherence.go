package usecases

import "askbase/internal/domain/entities"

// FilterCoherent restricts candidates to those topically consistent with the
// best match: only candidates sharing at least minCommonTags tags with
// topTags survive, in their original order.
//
// The best candidate is not exempt from its own filter. When its tag set has
// fewer than minCommonTags elements it is dropped too, and the result may be
// empty; callers must treat an empty result as "no coherent answer" and fall
// through to a refuse plan. This function never panics, including on empty
// input or an untagged best candidate.
func FilterCoherent(topTags map[string]struct{}, candidates []entities.Candidate, minCommonTags int) []entities.Candidate {
	if minCommonTags <= 0 {
		out := make([]entities.Candidate, len(candidates))
		copy(out, candidates)
		return out
	}

	var coherent []entities.Candidate
	for _, cand := range candidates {
		if countCommonTags(topTags, cand.Entry.TagSet()) >= minCommonTags {
			coherent = append(coherent, cand)
		}
	}
	return coherent
}

func countCommonTags(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	common := 0
	for tag := range a {
		if _, ok := b[tag]; ok {
			common++
		}
	}
	return common
}

// IsDominant reports whether the best candidate outranks the runner-up by at
// least margin, selecting the single-answer path over merging. A coherent set
// of exactly one element has no runner-up and is dominant by definition;
// callers short-circuit or pass 0.0 as secondScore.
func IsDominant(bestScore, secondScore, margin float64) bool {
	return bestScore-secondScore >= margin
}
