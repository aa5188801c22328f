package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/edu-content/internal/model"
	"github.com/jwalitptl/edu-content/internal/model/modeltest"
	apperrors "github.com/jwalitptl/edu-content/pkg/errors"
	"github.com/jwalitptl/edu-content/pkg/httputil"
)

// memoryReader keeps snapshots newest first.
type memoryReader struct {
	snapshots []*model.CatalogSnapshot
	err       error
}

func (m *memoryReader) Get(_ context.Context, id uuid.UUID) (*model.CatalogSnapshot, error) {
	for _, s := range m.snapshots {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, apperrors.NewNotFound("snapshot "+id.String(), nil)
}

func (m *memoryReader) Latest(context.Context) (*model.CatalogSnapshot, error) {
	if len(m.snapshots) == 0 {
		return nil, apperrors.NewNotFound("snapshot", nil)
	}
	return m.snapshots[0], nil
}

func (m *memoryReader) List(_ context.Context, page model.Pagination) ([]*model.SnapshotRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	start, end := page.Window(len(m.snapshots))
	var out []*model.SnapshotRecord
	for _, s := range m.snapshots[start:end] {
		out = append(out, &model.SnapshotRecord{ID: s.ID, CreatedAt: s.CreatedAt, Strict: s.Strict, SnapshotSummary: s.Summary})
	}
	return out, nil
}

func (m *memoryReader) Count(context.Context) (int, error) {
	return len(m.snapshots), m.err
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, reader Reader, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewHandler(reader).RegisterRoutes(engine.Group("/api/v1"))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func newReader() *memoryReader {
	now := time.Now().UTC()
	return &memoryReader{snapshots: []*model.CatalogSnapshot{
		{
			ID:        uuid.New(),
			CreatedAt: now,
			Strict:    true,
			Summary:   model.SnapshotSummary{Registered: 1, Exported: 1},
			Entries:   []model.ExportedContent{{Content: modeltest.ValidContent("dermatology-acne")}},
		},
		{ID: uuid.New(), CreatedAt: now.Add(-time.Hour)},
	}}
}

func TestListSnapshots(t *testing.T) {
	reader := newReader()

	w, resp := serve(t, reader, "/api/v1/snapshots?page_size=1")
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Data       []model.SnapshotRecord `json:"data"`
		Pagination httputil.Pagination    `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Equal(t, httputil.Pagination{Page: 1, PageSize: 1, Total: 2, TotalPage: 2}, page.Pagination)
	require.Len(t, page.Data, 1)
	assert.Equal(t, reader.snapshots[0].ID, page.Data[0].ID)
	assert.Equal(t, 1, page.Data[0].Exported)

	w, resp = serve(t, reader, "/api/v1/snapshots?page=9223372036854775807")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Empty(t, page.Data)

	w, _ = serve(t, reader, "/api/v1/snapshots?page=last")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSnapshots_RepositoryError(t *testing.T) {
	reader := &memoryReader{err: errors.New("connection reset")}

	w, resp := serve(t, reader, "/api/v1/snapshots")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", resp.Message)
}

func TestGetSnapshot(t *testing.T) {
	reader := newReader()
	id := reader.snapshots[1].ID

	w, resp := serve(t, reader, "/api/v1/snapshots/"+id.String())
	require.Equal(t, http.StatusOK, w.Code)
	var got model.CatalogSnapshot
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, id, got.ID)

	w, resp = serve(t, reader, "/api/v1/snapshots/latest")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, reader.snapshots[0].ID, got.ID)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "dermatology-acne", got.Entries[0].Content.ID)

	w, _ = serve(t, reader, "/api/v1/snapshots/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = serve(t, reader, "/api/v1/snapshots/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = serve(t, &memoryReader{}, "/api/v1/snapshots/latest")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "snapshot not found", resp.Message)
}
