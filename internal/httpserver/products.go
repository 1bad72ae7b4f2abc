package httpserver

import (
	"fmt"
	"net/http"

	"biomarket/internal/domain"
	productsvc "biomarket/internal/service/product"
	"biomarket/internal/viewmodel"
	"github.com/gin-gonic/gin"
)

func (h *handlers) listMyProducts(c *gin.Context) {
	products, err := h.products.ListMine(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewmodel.FromProducts(products))
}

func (h *handlers) productByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.products.ByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewmodel.FromProduct(*p))
}

func (h *handlers) productsByName(c *gin.Context) {
	products, err := h.products.ByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewmodel.FromProducts(products))
}

func (h *handlers) createProduct(c *gin.Context) {
	in, ok := h.bindProduct(c)
	if !ok {
		return
	}
	id, err := h.products.Create(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, id)
}

func (h *handlers) updateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	in, ok := h.bindProduct(c)
	if !ok {
		return
	}
	p, err := h.products.Update(c.Request.Context(), principal(c), id, in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewmodel.FromProduct(*p))
}

func (h *handlers) deleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.products.Delete(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewmodel.FromDeletedProduct(*p))
}

// bindProduct decodes the payload. A caller that may not mutate products
// gets the authorization error even when the payload is malformed.
func (h *handlers) bindProduct(c *gin.Context) (productsvc.Input, bool) {
	var in productsvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		if authErr := productsvc.RequireFarmer(principal(c)); authErr != nil {
			writeError(c, h.logger, authErr)
			return in, false
		}
		writeError(c, h.logger, fmt.Errorf("invalid product payload: %v: %w", err, domain.ErrInvalidInput))
		return in, false
	}
	return in, true
}
