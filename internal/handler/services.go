package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencatalog/metadata-service/internal/service"
	"github.com/opencatalog/metadata-service/pkg/response"
)

type ServiceHandler struct {
	svc service.ServiceRegistry
}

func NewServiceHandler(svc service.ServiceRegistry) *ServiceHandler {
	return &ServiceHandler{svc: svc}
}

func (h *ServiceHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/services")
	{
		g.POST("", h.create)
		g.GET("", h.list)
		g.GET("/:name", h.getByName)
	}
}

func (h *ServiceHandler) create(c *gin.Context) {
	var req service.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, service.ErrInvalidInput)
		return
	}
	svc, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, svc)
}

func (h *ServiceHandler) list(c *gin.Context) {
	services, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"items": services})
}

func (h *ServiceHandler) getByName(c *gin.Context) {
	svc, err := h.svc.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, svc)
}
