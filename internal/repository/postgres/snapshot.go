package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/edu-content/internal/model"
	"github.com/jwalitptl/edu-content/internal/repository"
	apperrors "github.com/jwalitptl/edu-content/pkg/errors"
	"github.com/jwalitptl/edu-content/pkg/metrics"
)

type snapshotRepository struct {
	BaseRepository
	metrics *metrics.Metrics
}

type entryRow struct {
	SnapshotID uuid.UUID `db:"snapshot_id"`
	Position   int       `db:"position"`
	ContentID  string    `db:"content_id"`
	Content    []byte    `db:"content"`
	Issues     []byte    `db:"issues"`
}

func NewSnapshotRepository(base BaseRepository, m *metrics.Metrics) repository.SnapshotRepository {
	return &snapshotRepository{BaseRepository: base, metrics: m}
}

func (r *snapshotRepository) Save(ctx context.Context, snapshot *model.CatalogSnapshot) (err error) {
	if snapshot == nil {
		return apperrors.NewInvalidArgument("snapshot cannot be nil")
	}
	defer func(start time.Time) { r.metrics.ObserveDatabase("save_snapshot", start, err) }(time.Now())

	rows := make([]entryRow, 0, len(snapshot.Entries))
	for i, e := range snapshot.Entries {
		content, err := json.Marshal(e.Content)
		if err != nil {
			return fmt.Errorf("failed to encode entry %s: %w", e.Content.ID, err)
		}
		issues := e.Issues
		if issues == nil {
			issues = []model.ValidationIssue{}
		}
		issuesJSON, err := json.Marshal(issues)
		if err != nil {
			return fmt.Errorf("failed to encode issues for %s: %w", e.Content.ID, err)
		}
		rows = append(rows, entryRow{
			SnapshotID: snapshot.ID,
			Position:   i,
			ContentID:  e.Content.ID,
			Content:    content,
			Issues:     issuesJSON,
		})
	}

	record := model.SnapshotRecord{
		ID:              snapshot.ID,
		CreatedAt:       snapshot.CreatedAt,
		Strict:          snapshot.Strict,
		SnapshotSummary: snapshot.Summary,
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO content_snapshots (
				id, created_at, strict, registered, exported, excluded, errors, warnings
			) VALUES (
				:id, :created_at, :strict, :registered, :exported, :excluded, :errors, :warnings
			)
		`
		if _, err := tx.NamedExecContext(ctx, query, record); err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}

		if len(rows) == 0 {
			return nil
		}
		query = `
			INSERT INTO content_snapshot_entries (
				snapshot_id, position, content_id, content, issues
			) VALUES (
				:snapshot_id, :position, :content_id, :content, :issues
			)
		`
		if _, err := tx.NamedExecContext(ctx, query, rows); err != nil {
			return fmt.Errorf("failed to insert snapshot entries: %w", err)
		}
		return nil
	})
}

func (r *snapshotRepository) Get(ctx context.Context, id uuid.UUID) (snapshot *model.CatalogSnapshot, err error) {
	defer func(start time.Time) { r.metrics.ObserveDatabase("get_snapshot", start, err) }(time.Now())

	var record model.SnapshotRecord
	query := `
		SELECT id, created_at, strict, registered, exported, excluded, errors, warnings
		FROM content_snapshots
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("snapshot "+id.String(), nil)
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var rows []entryRow
	query = `
		SELECT snapshot_id, position, content_id, content, issues
		FROM content_snapshot_entries
		WHERE snapshot_id = $1
		ORDER BY position ASC
	`
	if err := r.db.SelectContext(ctx, &rows, query, id); err != nil {
		return nil, fmt.Errorf("failed to list snapshot entries: %w", err)
	}

	snapshot = &model.CatalogSnapshot{
		ID:        record.ID,
		CreatedAt: record.CreatedAt,
		Strict:    record.Strict,
		Summary:   record.SnapshotSummary,
		Entries:   make([]model.ExportedContent, 0, len(rows)),
	}
	for _, row := range rows {
		var entry model.ExportedContent
		entry.Content = &model.EducationalContent{}
		if err := json.Unmarshal(row.Content, entry.Content); err != nil {
			return nil, fmt.Errorf("failed to decode entry %s: %w", row.ContentID, err)
		}
		if err := json.Unmarshal(row.Issues, &entry.Issues); err != nil {
			return nil, fmt.Errorf("failed to decode issues for %s: %w", row.ContentID, err)
		}
		snapshot.Entries = append(snapshot.Entries, entry)
	}
	return snapshot, nil
}

func (r *snapshotRepository) Latest(ctx context.Context) (*model.CatalogSnapshot, error) {
	var id uuid.UUID
	query := `SELECT id FROM content_snapshots ORDER BY created_at DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &id, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("snapshot", nil)
		}
		return nil, fmt.Errorf("failed to find latest snapshot: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *snapshotRepository) List(ctx context.Context, page model.Pagination) (records []*model.SnapshotRecord, err error) {
	defer func(start time.Time) { r.metrics.ObserveDatabase("list_snapshots", start, err) }(time.Now())

	page = page.Normalize()
	query := `
		SELECT id, created_at, strict, registered, exported, excluded, errors, warnings
		FROM content_snapshots
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	if err := r.db.SelectContext(ctx, &records, query, page.PageSize, page.Offset()); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return records, nil
}

func (r *snapshotRepository) Count(ctx context.Context) (count int, err error) {
	defer func(start time.Time) { r.metrics.ObserveDatabase("count_snapshots", start, err) }(time.Now())

	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM content_snapshots`); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

// DeleteBefore removes every snapshot created before cutoff, with its entries.
func (r *snapshotRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (deleted int64, err error) {
	defer func(start time.Time) { r.metrics.ObserveDatabase("delete_snapshots", start, err) }(time.Now())

	res, err := r.db.ExecContext(ctx, `DELETE FROM content_snapshots WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete snapshots: %w", err)
	}
	return res.RowsAffected()
}
