package storage

import (
	"context"

	"unbiasedmc/internal/model"
)

// Store defines persistence operations for runs and their replicate
// outcomes.
type Store interface {
	Init(ctx context.Context) error
	Reset(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveReplicates(ctx context.Context, runID string, replicates []model.ReplicateRecord) error
	GetReplicates(ctx context.Context, runID string) ([]model.ReplicateRecord, bool, error)
}
