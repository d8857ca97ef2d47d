// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import "time"

// Source points at the files a knowledge entry was distilled from.
// Path maps a file extension (e.g. "pdf") to a path relative to the notes directory.
type Source struct {
	Type string            `json:"type,omitempty"`
	Path map[string]string `json:"path,omitempty"`
	URL  string            `json:"url,omitempty"`
}

// KBEntry is a single curated knowledge-base fact.
// Entries are immutable during a query; only the admin editing workflow
// mutates them, and every mutation triggers an index rebuild.
type KBEntry struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Tags      []string  `json:"tags,omitempty"`
	Source    Source    `json:"source,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	Modified  time.Time `json:"modified,omitempty"`
}

// TagSet returns the entry's tags as a set. Order and duplicates in the
// underlying slice are irrelevant; an absent tag list is an empty set.
func (e KBEntry) TagSet() map[string]struct{} {
	set := make(map[string]struct{}, len(e.Tags))
	for _, t := range e.Tags {
		set[t] = struct{}{}
	}
	return set
}

// EmbeddingText is the text the entry is indexed under.
func (e KBEntry) EmbeddingText() string {
	return e.Question + " " + e.Answer
}

// Candidate is one retrieval hit: an entry plus its similarity score.
// Produced fresh per query, never persisted.
type Candidate struct {
	Entry KBEntry
	Score float64 // cosine similarity, post-normalization, conventionally [0,1]
}

// ConfidenceLevel is a discrete confidence label derived from a similarity
// score. Levels are totally ordered; None is the bottom and default.
type ConfidenceLevel int

const (
	ConfidenceNone ConfidenceLevel = iota
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
)

// String returns the wire/display name of the level.
func (c ConfidenceLevel) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// MarshalJSON renders the level by name, matching the transport contract.
func (c ConfidenceLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// Intent is a coarse, purely lexical query intent tag. It only affects how an
// answer is framed, never which entry is chosen.
type Intent string

const (
	IntentHow     Intent = "how"
	IntentWhy     Intent = "why"
	IntentCheck   Intent = "check"
	IntentGeneral Intent = "general"
)

// PlanKind is the terminal outcome of one query.
type PlanKind string

const (
	// PlanTooShort means the query was rejected before any retrieval call.
	// Kept distinct from PlanRefuse for telemetry, though both render as
	// a plain message to the user.
	PlanTooShort PlanKind = "too_short"
	PlanRefuse   PlanKind = "refuse"
	PlanSingle   PlanKind = "single"
	PlanMerged   PlanKind = "merged"
)

// ResponsePlan is the engine's final decision, consumed by the transport
// layer. A single or merged plan always references at least one entry id;
// refuse and too_short plans reference none.
type ResponsePlan struct {
	Kind       PlanKind        `json:"kind"`
	Confidence ConfidenceLevel `json:"confidence"`
	Text       string          `json:"text"`
	EntryIDs   []string        `json:"entry_ids,omitempty"`
}
