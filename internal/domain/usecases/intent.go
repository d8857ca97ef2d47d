package usecases

import (
	"strings"

	"askbase/internal/domain/entities"
)

// intentKeywords is scanned in fixed priority order: how > why > check.
// First match wins; no match means general.
var intentKeywords = []struct {
	intent   entities.Intent
	keywords []string
}{
	{entities.IntentHow, []string{"how", "steps", "do i", "procedure"}},
	{entities.IntentWhy, []string{"why", "reason", "cause"}},
	{entities.IntentCheck, []string{"check", "status", "verify"}},
}

// InferIntent tags a query with a coarse intent via substring matching.
// Deliberately lexical and approximate: it is a framing aid for the composer
// and must never influence which entry is retrieved or chosen.
func InferIntent(query string) entities.Intent {
	q := strings.ToLower(query)
	for _, group := range intentKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(q, kw) {
				return group.intent
			}
		}
	}
	return entities.IntentGeneral
}
