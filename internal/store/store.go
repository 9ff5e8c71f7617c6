// Package store persists quota state and run history. Durability is
// best-effort: losing the store only resets usage accounting, it never
// affects correctness within a run.
package store

import (
	"context"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Store defines the persistence interface for quota state and run records.
type Store interface {
	// Quota state, keyed by provider name. SaveQuota writes the full set.
	LoadQuota(ctx context.Context) ([]model.QuotaState, error)
	SaveQuota(ctx context.Context, states []model.QuotaState) error

	// Run history.
	CreateRun(ctx context.Context, vertical, region string, maxResults int) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) error
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Lifecycle.
	Migrate(ctx context.Context) error
	Close() error
}
