package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/edu-content/internal/model"
)

// All repository interfaces in one file
type (
	// SnapshotRepository stores exported catalog snapshots.
	SnapshotRepository interface {
		Save(ctx context.Context, snapshot *model.CatalogSnapshot) error
		Get(ctx context.Context, id uuid.UUID) (*model.CatalogSnapshot, error)
		Latest(ctx context.Context) (*model.CatalogSnapshot, error)
		List(ctx context.Context, page model.Pagination) ([]*model.SnapshotRecord, error)
		Count(ctx context.Context) (int, error)
		// DeleteBefore removes snapshots older than cutoff and returns how many went.
		DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
		Ping(ctx context.Context) error
	}
)
