package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	cartapp "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CartHandler handles session cart API endpoints
type CartHandler struct {
	BaseHandler
	service *cartapp.Service
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(service *cartapp.Service) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	cart := rg.Group("/cart", middleware.RequireSession())
	{
		cart.GET("", h.GetCart)
		cart.POST("/items", h.AddItem)
		cart.PATCH("/items/:id", h.UpdateQuantity)
		cart.POST("/checkout", h.Checkout)
	}
}

// GetCart returns the session's cart contents
func (h *CartHandler) GetCart(c *gin.Context) {
	h.Success(c, h.service.GetCart(middleware.GetSessionID(c)))
}

// AddItem adds one unit of a product in a given size to the cart
func (h *CartHandler) AddItem(c *gin.Context) {
	var req cartapp.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.AddItem(c.Request.Context(), middleware.GetSessionID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateQuantity adjusts a cart line by one step
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid item id")
		return
	}

	var req cartapp.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	h.Success(c, h.service.UpdateQuantity(middleware.GetSessionID(c), itemID, req.Delta))
}

// Checkout turns the cart into a persisted order and clears it
func (h *CartHandler) Checkout(c *gin.Context) {
	resp, err := h.service.Checkout(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}
