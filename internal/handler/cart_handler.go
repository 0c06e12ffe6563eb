package handler

import (
	"net/http"
	"strconv"

	"bottega/internal/middleware"
	"bottega/internal/models"
	"bottega/internal/repository"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	cartRepo *repository.CartRepository
}

func NewCartHandler(cartRepo *repository.CartRepository) *CartHandler {
	return &CartHandler{cartRepo: cartRepo}
}

func (h *CartHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	items, err := h.cartRepo.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cart"})
		return
	}
	var total int64
	for _, it := range items {
		total += it.UnitPriceCents * int64(it.Quantity)
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "subtotal_cents": total})
}

type addCartItemRequest struct {
	ProductID      uint   `json:"product_id" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,min=1"`
	UnitPriceCents int64  `json:"unit_price_cents" binding:"required,min=0"`
}

func (h *CartHandler) Add(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item := &models.CartItem{
		UserID:         middleware.GetUserID(c),
		ProductID:      req.ProductID,
		Name:           req.Name,
		Quantity:       req.Quantity,
		UnitPriceCents: req.UnitPriceCents,
	}
	if err := h.cartRepo.Add(item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add item"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

func (h *CartHandler) Remove(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}
	if err := h.cartRepo.Remove(middleware.GetUserID(c), uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.cartRepo.Clear(middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
