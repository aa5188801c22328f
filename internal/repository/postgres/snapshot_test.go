package postgres

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/edu-content/internal/config"
	"github.com/jwalitptl/edu-content/internal/model"
	"github.com/jwalitptl/edu-content/internal/model/modeltest"
	apperrors "github.com/jwalitptl/edu-content/pkg/errors"
)

func setupRepository(t *testing.T) *snapshotRepository {
	t.Helper()
	dsn := os.Getenv("EDU_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("EDU_TEST_DATABASE_DSN not set")
	}

	ctx := context.Background()
	db, err := NewDB(ctx, config.DatabaseConfig{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(ctx, db))

	return NewSnapshotRepository(NewBaseRepository(db), nil).(*snapshotRepository)
}

func TestSnapshotRepository_SaveAndGet(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	acne := modeltest.Linked("dermatology-acne", "nonexistent-id")
	snapshot := &model.CatalogSnapshot{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		Strict:    false,
		Summary:   model.SnapshotSummary{Registered: 2, Exported: 2, Warnings: 1},
		Entries: []model.ExportedContent{
			{Content: acne, Issues: []model.ValidationIssue{{
				ContentID: acne.ID,
				Field:     "crossReferences[0].targetId",
				Message:   `unresolved cross-reference to "nonexistent-id"`,
				Severity:  model.SeverityWarning,
				Rule:      "cross-references",
			}}},
			{Content: modeltest.ValidContent("dermatology-psoriasis")},
		},
	}
	require.NoError(t, repo.Save(ctx, snapshot))

	got, err := repo.Get(ctx, snapshot.ID)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Summary, got.Summary)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "dermatology-acne", got.Entries[0].Content.ID)
	assert.Len(t, got.Entries[0].Content.Levels, model.MaxLevel)
	assert.Equal(t, snapshot.Entries[0].Issues, got.Entries[0].Issues)
	assert.Empty(t, got.Entries[1].Issues)

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, snapshot.ID, latest.ID)

	records, err := repo.List(ctx, model.Pagination{Page: 1, PageSize: 5})
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, snapshot.ID, records[0].ID)
	assert.Equal(t, 2, records[0].Exported)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1)
	assert.NoError(t, repo.Ping(ctx))

	past, err := repo.List(ctx, model.Pagination{Page: math.MaxInt})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestSnapshotRepository_DeleteBefore(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	old := &model.CatalogSnapshot{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC().AddDate(-1, 0, 0),
		Entries:   []model.ExportedContent{{Content: modeltest.ValidContent("dermatology-acne")}},
	}
	require.NoError(t, repo.Save(ctx, old))

	deleted, err := repo.DeleteBefore(ctx, time.Now().UTC().AddDate(0, -6, 0))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))

	_, err = repo.Get(ctx, old.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSnapshotRepository_GetNotFound(t *testing.T) {
	repo := setupRepository(t)

	_, err := repo.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSnapshotRepository_SaveNil(t *testing.T) {
	repo := &snapshotRepository{}
	err := repo.Save(context.Background(), nil)
	assert.True(t, apperrors.IsInvalidArgument(err))
}
