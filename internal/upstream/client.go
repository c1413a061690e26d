// Package upstream is the REST client for the billing backend that owns
// the seven record collections. The wire format belongs to the backend;
// everything decodes into loosely-typed domain.Record values and the
// normalizers sort out the schema inconsistencies.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aquagrid/approval-engine/internal/domain"
)

// Cache partition names. Each collection is cached and invalidated
// under exactly one of these keys; the decision dispatcher refetches
// only the partition owned by the mutated kind.
const (
	PartitionConsumption = "consumption"
	PartitionZoneScoring = "zone-scoring"
	PartitionUsers       = "users"
	PartitionAdmins      = "admins"
	PartitionAreas       = "areas"
	PartitionZones       = "zones"
	PartitionMeters      = "meters"
)

// Partitions lists every collection partition, in fetch order.
func Partitions() []string {
	return []string{
		PartitionConsumption,
		PartitionZoneScoring,
		PartitionUsers,
		PartitionAdmins,
		PartitionAreas,
		PartitionZones,
		PartitionMeters,
	}
}

// Client is the full upstream surface the engine consumes.
// The REST implementation is in rest.go; tests use the hand-written
// mock in mock.go.
type Client interface {
	// FetchCollection lists every record in the named partition.
	FetchCollection(ctx context.Context, partition string) ([]domain.Record, error)

	// Consumption submissions.
	GetConsumption(ctx context.Context, id int64) (domain.Record, error)
	ApproveConsumption(ctx context.Context, id int64, approvedBy, comments string) error
	RejectConsumption(ctx context.Context, id int64, approvedBy, comments string) error

	// Zone-scoring rulesets.
	GetRuleset(ctx context.Context, id int64) (domain.Record, error)
	PublishRuleset(ctx context.Context, id int64) error
	UpdateRulesetStatus(ctx context.Context, id int64, status string) error

	// Customer accounts.
	GetUserByAccount(ctx context.Context, account string) (domain.Record, error)
	UpdateUserStatus(ctx context.Context, account, status string) error
}

// Error is a non-2xx backend response. Message carries the backend's
// error body so callers can pattern-match conflict signals.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream: %d %s", e.StatusCode, e.Message)
}

// IsAlreadyReviewed reports whether the error is the backend's
// "already reviewed" conflict — another reviewer decided the same item
// first. Callers treat that as a successful terminal state, not a
// failure, so racing reviewers never see a spurious error.
func IsAlreadyReviewed(err error) bool {
	var ue *Error
	if !errors.As(err, &ue) {
		return false
	}
	return strings.Contains(strings.ToLower(ue.Message), "already reviewed")
}
