// Package storage defines the audit-log persistence interface and its
// implementations.
package storage

import (
	"context"

	"modbot/internal/model"
)

// Storage is the interface for the triage outcome audit log. The log is
// advisory: triage never reads it back, and append failures must not
// affect a cycle.
type Storage interface {
	RecordOutcome(ctx context.Context, o *model.Outcome) error
	ListRecentOutcomes(ctx context.Context, limit int) ([]model.Outcome, error)

	Close() error
}
