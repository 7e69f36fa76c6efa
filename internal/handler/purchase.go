package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sahanw/storefront-api/internal/dto"
	"github.com/sahanw/storefront-api/internal/middleware"
	"github.com/sahanw/storefront-api/internal/model"
	"github.com/sahanw/storefront-api/internal/service"
)

type PurchaseHandler struct {
	svc *service.PurchaseService
}

func NewPurchaseHandler(svc *service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{svc: svc}
}

func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.svc.Create(c.Request.Context(), middleware.GetUsername(c), req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "purchase created successfully",
		"purchase": toPurchaseResponse(booking),
	})
}

func (h *PurchaseHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purchase ID"})
		return
	}

	booking, err := h.svc.GetByID(c.Request.Context(), id, middleware.GetUsername(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPurchaseResponse(booking))
}

func (h *PurchaseHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purchase ID"})
		return
	}

	var req dto.UpdatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.svc.Update(c.Request.Context(), id, middleware.GetUsername(c), req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "purchase updated successfully",
		"purchase": toPurchaseResponse(booking),
	})
}

func (h *PurchaseHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purchase ID"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, middleware.GetUsername(c)); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "purchase deleted successfully"})
}

func (h *PurchaseHandler) ListByUser(c *gin.Context) {
	h.listForUser(c, h.svc.ListByUsername)
}

func (h *PurchaseHandler) ListUpcoming(c *gin.Context) {
	h.listForUser(c, h.svc.ListUpcoming)
}

func (h *PurchaseHandler) ListPast(c *gin.Context) {
	h.listForUser(c, h.svc.ListPast)
}

// A user may only list their own bookings; the path username must match
// the authenticated identity.
func (h *PurchaseHandler) listForUser(c *gin.Context, list func(ctx context.Context, username string) ([]model.PurchaseBooking, error)) {
	username := c.Param("username")
	if username != middleware.GetUsername(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	bookings, err := list(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	items := make([]dto.PurchaseResponse, 0, len(bookings))
	for i := range bookings {
		items = append(items, toPurchaseResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, dto.PurchaseListResponse{Purchases: items, Count: len(items)})
}

func (h *PurchaseHandler) renderError(c *gin.Context, err error) {
	switch {
	case service.IsBookingValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPurchaseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "purchase not found"})
	case errors.Is(err, service.ErrPurchaseAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (h *PurchaseHandler) Districts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"districts": h.svc.Districts()})
}

func (h *PurchaseHandler) ProductNames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": h.svc.ProductNames()})
}

func toPurchaseResponse(b *model.PurchaseBooking) dto.PurchaseResponse {
	return dto.PurchaseResponse{
		ID:               b.ID,
		Username:         b.Username,
		PurchaseDate:     dto.NewDate(b.PurchaseDate),
		DeliveryTime:     b.DeliveryTime,
		DeliveryLocation: b.DeliveryLocation,
		ProductName:      b.ProductName,
		Quantity:         b.Quantity,
		Message:          b.Message,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}
