package httpserver

import (
	"fmt"
	"net/http"

	"biomarket/internal/domain"
	offersvc "biomarket/internal/service/offer"
	"biomarket/internal/viewmodel"
	"github.com/gin-gonic/gin"
)

func (h *handlers) availableOffers(c *gin.Context) {
	offers, err := h.offers.ListAvailable(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewmodel.FromOffers(offers, viewmodel.FromOffer))
}

func (h *handlers) offersByProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	offers, err := h.offers.ListByProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewmodel.FromOffers(offers, viewmodel.FromOffer))
}

func (h *handlers) offerByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	o, err := h.offers.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewmodel.FromOfferWithBuyer(*o))
}

func (h *handlers) createOffer(c *gin.Context) {
	var in offersvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, h.logger, fmt.Errorf("invalid offer payload: %v: %w", err, domain.ErrInvalidInput))
		return
	}
	o, err := h.offers.Create(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewmodel.FromOfferWithBuyer(*o))
}

func (h *handlers) buyOffer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	o, err := h.offers.Buy(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewmodel.FromOfferWithBuyer(*o))
}

func (h *handlers) deleteOffer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	o, err := h.offers.Delete(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewmodel.FromOfferWithBuyer(*o))
}

func (h *handlers) purchasedOffers(c *gin.Context) {
	offers, err := h.offers.ListPurchases(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, viewmodel.FromOffers(offers, viewmodel.FromOfferWithBuyer))
}
