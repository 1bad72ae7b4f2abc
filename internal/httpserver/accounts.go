package httpserver

import (
	"fmt"
	"net/http"

	"biomarket/internal/domain"
	clientsvc "biomarket/internal/service/client"
	"biomarket/internal/viewmodel"
	"github.com/gin-gonic/gin"
)

type registerFarmRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *handlers) registerFarm(c *gin.Context) {
	var req registerFarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, fmt.Errorf("invalid farm payload: %v: %w", err, domain.ErrInvalidInput))
		return
	}
	f, err := h.farms.Register(c.Request.Context(), principal(c), req.Name)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewmodel.FromFarm(*f))
}

func (h *handlers) myFarm(c *gin.Context) {
	f, err := h.farms.Mine(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewmodel.FromFarm(*f))
}

func (h *handlers) registerClient(c *gin.Context) {
	var in clientsvc.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, h.logger, fmt.Errorf("invalid client payload: %v: %w", err, domain.ErrInvalidInput))
		return
	}
	cl, err := h.clients.Register(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewmodel.FromClient(*cl))
}

func (h *handlers) me(c *gin.Context) {
	cl, err := h.clients.Me(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewmodel.FromClient(*cl))
}
