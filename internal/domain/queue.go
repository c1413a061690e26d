package domain

import (
	"fmt"
	"time"
)

// Kind discriminates the three change-request record kinds that share
// the approval queue. Everything downstream of normalization is
// kind-agnostic; kind-specific behaviour lives behind this tag in the
// normalizers and the decision dispatcher.
type Kind string

const (
	KindConsumption        Kind = "consumption"
	KindScoringRuleset     Kind = "scoring-ruleset"
	KindCustomerActivation Kind = "customer-activation"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindConsumption, KindScoringRuleset, KindCustomerActivation:
		return true
	}
	return false
}

// Label is the human-readable kind name shown in the portal and
// matched by the history search.
func (k Kind) Label() string {
	switch k {
	case KindConsumption:
		return "Consumption"
	case KindScoringRuleset:
		return "Scoring Ruleset"
	case KindCustomerActivation:
		return "Customer Activation"
	}
	return string(k)
}

// QueueStatus is one of the two queue-eligible states across kinds.
// Consumption and scoring rulesets queue while "pending"; customer
// activations queue while "inactive".
type QueueStatus string

const (
	StatusPending  QueueStatus = "pending"
	StatusInactive QueueStatus = "inactive"
)

// Decision is a reviewer's terminal action on a queue item.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// QueueItem is the common currency of the approval engine: one pending
// change-request normalized out of its native collection schema.
//
// Items are derived, never stored. Every aggregation pass recomputes
// them from the current collection snapshots, so an item has no
// identity beyond the pass that produced it.
type QueueItem struct {
	// ID is globally unique within the queue: "{kind}-{sourceID}".
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	// SourceID is the record's native identifier: a numeric id for
	// consumption and rulesets, an opaque account string for customer
	// activations.
	SourceID string `json:"source_id"`

	// RecordID is the numeric id used by id-keyed mutations. For
	// activations keyed by account string it is 0 — a sentinel meaning
	// "mutate by Account, not by RecordID".
	RecordID int64 `json:"record_id"`

	// Account is the customer account identifier; set for activation
	// items and required by their mutations.
	Account string `json:"account,omitempty"`

	Status      QueueStatus `json:"status"`
	SubmittedBy string      `json:"submitted_by"`
	SubmittedAt *time.Time  `json:"submitted_at,omitempty"`

	Summary       string `json:"summary"`
	SecondaryInfo string `json:"secondary_info"`

	// OldSnapshot is nil for record creation; present for modification.
	OldSnapshot Record `json:"old_snapshot,omitempty"`
	// NewSnapshot may be partial until the detail fetcher enriches it.
	NewSnapshot Record `json:"new_snapshot"`
}

// ItemID builds the queue-wide unique identifier.
func ItemID(kind Kind, sourceID string) string {
	return fmt.Sprintf("%s-%s", kind, sourceID)
}

// SubmittedAtLabel renders the submission time, or "N/A" when the
// source collection carries no timestamp (a known upstream limitation,
// not an error).
func (q QueueItem) SubmittedAtLabel() string {
	if q.SubmittedAt == nil {
		return "N/A"
	}
	return q.SubmittedAt.UTC().Format("2006-01-02 15:04")
}

// QueueCounts is the per-kind breakdown of a single aggregation pass.
// It is always derived from the item slice actually returned, so the
// numbers cannot drift from what the portal renders.
type QueueCounts struct {
	Total               int `json:"total"`
	Consumption         int `json:"consumption"`
	ScoringRulesets     int `json:"scoring_rulesets"`
	CustomerActivations int `json:"customer_activations"`
}

// CountQueue tallies items by kind.
func CountQueue(items []QueueItem) QueueCounts {
	c := QueueCounts{Total: len(items)}
	for _, item := range items {
		switch item.Kind {
		case KindConsumption:
			c.Consumption++
		case KindScoringRuleset:
			c.ScoringRulesets++
		case KindCustomerActivation:
			c.CustomerActivations++
		}
	}
	return c
}

// DecisionEntry is one row of the approval history: a decision that was
// accepted by the upstream backend, recorded locally for review.
type DecisionEntry struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	SourceID  string    `json:"source_id"`
	Summary   string    `json:"summary"`
	Decision  Decision  `json:"decision"`
	Reviewer  string    `json:"reviewer"`
	Comments  string    `json:"comments,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

// HistoryFilter narrows the approval history view. All populated
// criteria apply as a conjunction.
type HistoryFilter struct {
	Kind     *Kind
	Decision *Decision
	Search   string
	Page     int
	Limit    int
}
