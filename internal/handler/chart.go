package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opencatalog/metadata-service/internal/service"
	"github.com/opencatalog/metadata-service/pkg/response"
)

type ChartHandler struct {
	svc service.ChartService
}

func NewChartHandler(svc service.ChartService) *ChartHandler { return &ChartHandler{svc: svc} }

func (h *ChartHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/charts")
	{
		g.POST("", h.create)
		g.PUT("", h.createOrUpdate)
		g.GET("", h.list)
		// Stable wildcard name (chart_id) so nested routes (followers) can reuse it.
		g.GET("/:chart_id", h.getByID)
		g.PATCH("/:chart_id", h.patch)
		g.DELETE("/:chart_id", h.delete)
		g.GET("/name/:fqn", h.getByName)
		g.PUT("/:chart_id/followers/:user_id", h.addFollower)
		g.DELETE("/:chart_id/followers/:user_id", h.removeFollower)
	}
}

func (h *ChartHandler) create(c *gin.Context) {
	var req service.CreateChartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput) // don't leak parser internals
		return
	}
	req.UpdatedBy = updatedBy(c)
	chart, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, chart)
}

func (h *ChartHandler) createOrUpdate(c *gin.Context) {
	var req service.CreateChartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	req.UpdatedBy = updatedBy(c)
	chart, created, err := h.svc.CreateOrUpdate(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.WriteData(c, status, chart)
}

func (h *ChartHandler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	res, err := h.svc.List(c.Request.Context(), service.ListChartsRequest{
		Service: c.Query("service"),
		Limit:   limit,
		Before:  c.Query("before"),
		After:   c.Query("after"),
	})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *ChartHandler) getByID(c *gin.Context) {
	id, ok := chartID(c)
	if !ok {
		return
	}
	chart, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, chart)
}

func (h *ChartHandler) getByName(c *gin.Context) {
	chart, err := h.svc.GetByName(c.Request.Context(), c.Param("fqn"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, chart)
}

func (h *ChartHandler) patch(c *gin.Context) {
	id, ok := chartID(c)
	if !ok {
		return
	}
	patch, err := c.GetRawData()
	if err != nil || len(patch) == 0 {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	chart, err := h.svc.Patch(c.Request.Context(), id, updatedBy(c), patch)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, chart)
}

func (h *ChartHandler) delete(c *gin.Context) {
	id, ok := chartID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ChartHandler) addFollower(c *gin.Context) {
	chID, ok := chartID(c)
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	created, err := h.svc.AddFollower(c.Request.Context(), chID, userID)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.Status(status)
}

func (h *ChartHandler) removeFollower(c *gin.Context) {
	chID, ok := chartID(c)
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	if err := h.svc.RemoveFollower(c.Request.Context(), chID, userID); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func chartID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("chart_id"))
	if err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return uuid.UUID{}, false
	}
	return id, true
}

// updatedBy resolves the acting principal. Auth is out of scope, so the
// caller-supplied header is trusted as-is.
func updatedBy(c *gin.Context) string {
	if u := c.GetHeader("X-Updated-By"); u != "" {
		return u
	}
	return "anonymous"
}
