package content

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/edu-content/internal/handler"
	"github.com/jwalitptl/edu-content/internal/model"
	contentService "github.com/jwalitptl/edu-content/internal/service/content"
	apperrors "github.com/jwalitptl/edu-content/pkg/errors"
	"github.com/jwalitptl/edu-content/pkg/httputil"
)

type Handler struct {
	service contentService.ContentServicer
}

func NewHandler(service contentService.ContentServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	content := r.Group("/content")
	{
		content.GET("", h.ListContent)
		content.GET("/:id", h.GetContent)
		content.GET("/:id/issues", h.GetIssues)
	}
	r.GET("/validation", h.GetValidationReport)
}

// ListContent handles GET /content. Query parameters: strict, type, status,
// system, topic, search, page, page_size.
func (h *Handler) ListContent(c *gin.Context) {
	var filter model.ContentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handler.RespondWithError(c, apperrors.NewBadRequest("invalid query parameters", err))
		return
	}
	if filter.Type != "" && !model.ContentType(filter.Type).IsValid() {
		handler.RespondWithError(c, apperrors.NewBadRequest("unknown content type "+filter.Type, nil))
		return
	}
	if filter.Status != "" && !model.Status(filter.Status).IsValid() {
		handler.RespondWithError(c, apperrors.NewBadRequest("unknown status "+filter.Status, nil))
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(
		httputil.NewPaginatedResponse(result.Items, result.Page, result.PageSize, result.Total),
	))
}

func (h *Handler) GetContent(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(item))
}

func (h *Handler) GetIssues(c *gin.Context) {
	issues, err := h.service.Issues(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(issues))
}

func (h *Handler) GetValidationReport(c *gin.Context) {
	report, err := h.service.Report(c.Request.Context())
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(report))
}
