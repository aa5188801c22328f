package snapshot

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/edu-content/internal/handler"
	"github.com/jwalitptl/edu-content/internal/model"
	apperrors "github.com/jwalitptl/edu-content/pkg/errors"
	"github.com/jwalitptl/edu-content/pkg/httputil"
)

// Reader is the read side of the snapshot repository.
type Reader interface {
	Get(ctx context.Context, id uuid.UUID) (*model.CatalogSnapshot, error)
	Latest(ctx context.Context) (*model.CatalogSnapshot, error)
	List(ctx context.Context, page model.Pagination) ([]*model.SnapshotRecord, error)
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	snapshots Reader
}

func NewHandler(snapshots Reader) *Handler {
	return &Handler{snapshots: snapshots}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	snapshots := r.Group("/snapshots")
	{
		snapshots.GET("", h.ListSnapshots)
		snapshots.GET("/latest", h.GetLatest)
		snapshots.GET("/:id", h.GetSnapshot)
	}
}

// ListSnapshots handles GET /snapshots. Records are newest first and carry
// summaries only.
func (h *Handler) ListSnapshots(c *gin.Context) {
	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		handler.RespondWithError(c, apperrors.NewBadRequest("invalid query parameters", err))
		return
	}
	page = page.Normalize()

	ctx := c.Request.Context()
	total, err := h.snapshots.Count(ctx)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	records, err := h.snapshots.List(ctx, page)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	if records == nil {
		records = []*model.SnapshotRecord{}
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(
		httputil.NewPaginatedResponse(records, page.Page, page.PageSize, total),
	))
}

func (h *Handler) GetLatest(c *gin.Context) {
	snapshot, err := h.snapshots.Latest(c.Request.Context())
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(snapshot))
}

func (h *Handler) GetSnapshot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondWithError(c, apperrors.NewBadRequest("invalid snapshot id", err))
		return
	}

	snapshot, err := h.snapshots.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(snapshot))
}
