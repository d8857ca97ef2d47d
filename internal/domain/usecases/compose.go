package usecases

import (
	"fmt"
	"strings"

	"askbase/internal/domain/entities"
)

// MergeSeparator joins entry answers in a merged response. Retrieved text is
// only ever concatenated, never rewritten.
const MergeSeparator = "\n\n---\n\n"

// Fixed framing tables. Composition adds framing sentences in front of the
// stored answer text; the answer itself passes through byte-for-byte.
var (
	confidencePrefixes = map[entities.ConfidenceLevel]string{
		entities.ConfidenceHigh:   "I'm confident this addresses what you're asking.\n\n",
		entities.ConfidenceMedium: "This should help, though it may not cover every detail.\n\n",
		entities.ConfidenceLow:    "This may be partially relevant.\n\n",
	}

	intentOpenings = map[entities.Intent]string{
		entities.IntentHow:     "Here's how you can do it:\n\n",
		entities.IntentWhy:     "Here's the reasoning behind it:\n\n",
		entities.IntentCheck:   "To check or verify this:\n\n",
		entities.IntentGeneral: "Here's the relevant information:\n\n",
	}

	mergePrefixes = map[entities.ConfidenceLevel]string{
		entities.ConfidenceHigh:   "I'm confident the following points together address your question:\n\n",
		entities.ConfidenceMedium: "Here are a few related notes that together should help:\n\n",
	}

	// mergePrefixFallback covers low and anything without a table entry.
	mergePrefixFallback = "I found several partially related notes. They may help when read together:\n\n"
)

// NoMatchText is the refuse message: honest about not knowing rather than
// guessing.
const NoMatchText = "I couldn't find anything relevant to that yet.\n\n" +
	"I'm still learning - you could try rephrasing your question or using more specific terms."

// TooShortText is returned for queries rejected before retrieval.
const TooShortText = "That doesn't look like a meaningful question yet."

// ComposeSingle frames one entry's answer by intent and confidence.
// A level without a prefix entry contributes an empty string rather than an
// error, so composition stays total.
func ComposeSingle(entry entities.KBEntry, intent entities.Intent, confidence entities.ConfidenceLevel) string {
	opening, ok := intentOpenings[intent]
	if !ok {
		opening = intentOpenings[entities.IntentGeneral]
	}
	return confidencePrefixes[confidence] + opening + entry.Answer
}

// ComposeMerged concatenates two or more coherent, comparably-scored answers
// under a confidence-dependent preamble. Merged answers are not individually
// intent-framed; the trailing note names how many notes were combined.
func ComposeMerged(candidates []entities.Candidate, confidence entities.ConfidenceLevel) string {
	prefix, ok := mergePrefixes[confidence]
	if !ok {
		prefix = mergePrefixFallback
	}

	answers := make([]string, len(candidates))
	for i, cand := range candidates {
		answers[i] = strings.TrimSpace(cand.Entry.Answer)
	}

	return prefix +
		strings.Join(answers, MergeSeparator) +
		fmt.Sprintf("\n\n(combined from %d notes)", len(candidates))
}
