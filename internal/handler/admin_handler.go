package handler

import (
	"errors"
	"net/http"
	"strconv"

	"bottega/internal/repository"
	"bottega/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminHandler struct {
	orders   *repository.OrderRepository
	dispatch *service.DispatchService
}

func NewAdminHandler(orders *repository.OrderRepository, dispatch *service.DispatchService) *AdminHandler {
	return &AdminHandler{orders: orders, dispatch: dispatch}
}

// ListOrders filters by status, defaulting to the queue an operator most
// often works: orders parked in manual_review.
func (h *AdminHandler) ListOrders(c *gin.Context) {
	status := c.DefaultQuery("status", "manual_review")
	limit, offset := pagination(c)
	list, err := h.orders.ListByStatus(status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

type dispatchRequest struct {
	Courier string `json:"courier"`
}

// DispatchOrder hands the order to the carrier. A failed submission is a
// handled outcome (the order lands in manual_review), so it still answers 200
// with the resulting state.
func (h *AdminHandler) DispatchOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var req dispatchRequest
	_ = c.ShouldBindJSON(&req)

	o, err := h.dispatch.Dispatch(c.Request.Context(), uint(id), req.Courier)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, service.ErrDigitalOrder),
			errors.Is(err, service.ErrOrderNotDispatchable):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "dispatch failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=confirmed processing shipped delivered manual_review"`
}

// UpdateOrderStatus lets an operator resolve a manual_review order by hand.
func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.orders.UpdateStatus(uint(id), req.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
		return
	}
	o, err := h.orders.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}
