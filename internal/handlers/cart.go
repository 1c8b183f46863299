package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chazpawar/ecommerce-follow-along/internal/cart"
)

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	value, ok := c.Get("userId")
	if !ok {
		return primitive.NilObjectID, false
	}
	userID, ok := value.(primitive.ObjectID)
	return userID, ok
}

func respondCart(c *gin.Context, items []cart.Item) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

func respondCartError(c *gin.Context, route string, err error) {
	switch {
	case errors.Is(err, cart.ErrProductNotFound):
		respondError(c, http.StatusNotFound, route, "product not found")
	case errors.Is(err, cart.ErrNotInCart):
		respondError(c, http.StatusNotFound, route, "product not found in cart")
	case errors.Is(err, cart.ErrAccountNotFound):
		respondError(c, http.StatusNotFound, route, "user not found")
	case errors.Is(err, cart.ErrInsufficientStock):
		respondError(c, http.StatusBadRequest, route, "product is out of stock or insufficient quantity")
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(c, http.StatusBadRequest, route, "quantity must be at least 1")
	default:
		log.Printf("[%s] cart operation failed: %v", route, err)
		respondError(c, http.StatusInternalServerError, route, "internal server error")
	}
}

// AddToCart handles POST /api/cart/add. Quantity defaults to 1.
func AddToCart(manager *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/cart/add"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req addToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ProductID))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		quantity := 1
		if req.Quantity != nil {
			quantity = *req.Quantity
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		items, err := manager.AddItem(ctx, userID, productID, quantity)
		if err != nil {
			respondCartError(c, route, err)
			return
		}

		log.Printf("[%s] user=%s product=%s qty=%d", route, userID.Hex(), productID.Hex(), quantity)
		respondCart(c, items)
	}
}

// GetCart handles GET /api/cart.
func GetCart(manager *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/cart"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		items, err := manager.GetCart(ctx, userID)
		if err != nil {
			respondCartError(c, route, err)
			return
		}

		respondCart(c, items)
	}
}

// UpdateCartItem handles PUT /api/cart/:productId. The quantity is an
// absolute set, not a delta.
func UpdateCartItem(manager *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/cart/:productId"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("productId")))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		var req updateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		items, err := manager.UpdateItemQuantity(ctx, userID, productID, req.Quantity)
		if err != nil {
			respondCartError(c, route, err)
			return
		}

		log.Printf("[%s] user=%s product=%s qty=%d", route, userID.Hex(), productID.Hex(), req.Quantity)
		respondCart(c, items)
	}
}

// RemoveFromCart handles DELETE /api/cart/:productId. Removing a product
// that is not in the cart succeeds and returns the unchanged cart.
func RemoveFromCart(manager *cart.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/cart/:productId"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("productId")))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		items, err := manager.RemoveItem(ctx, userID, productID)
		if err != nil {
			respondCartError(c, route, err)
			return
		}

		log.Printf("[%s] user=%s product=%s", route, userID.Hex(), productID.Hex())
		respondCart(c, items)
	}
}
