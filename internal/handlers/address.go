package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chazpawar/ecommerce-follow-along/internal/models"
)

type addressRequest struct {
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
	IsDefault  bool   `json:"isDefault"`
}

// clearDefaults unsets isDefault on every address.
func clearDefaults(addresses []models.Address) {
	for i := range addresses {
		addresses[i].IsDefault = false
	}
}

// promoteDefault makes the first address the default when none is flagged.
// Called after the default address was removed so the account keeps exactly
// one default while any addresses remain.
func promoteDefault(addresses []models.Address) {
	for _, address := range addresses {
		if address.IsDefault {
			return
		}
	}
	if len(addresses) > 0 {
		addresses[0].IsDefault = true
	}
}

func saveAddresses(ctx context.Context, db *mongo.Database, user *models.User) error {
	user.UpdatedAt = time.Now()
	_, err := db.Collection("users").UpdateByID(ctx, user.ID, bson.M{
		"$set": bson.M{
			"addresses": user.Addresses,
			"updatedAt": user.UpdatedAt,
		},
	})
	return err
}

func loadUser(ctx context.Context, db *mongo.Database, c *gin.Context, route string) (*models.User, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, route, "unauthorized")
		return nil, false
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		log.Printf("[%s] user not found: %v", route, err)
		respondError(c, http.StatusNotFound, route, "user not found")
		return nil, false
	}
	return &user, true
}

// GetAddresses handles GET /api/users/addresses.
func GetAddresses(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/users/addresses"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, ok := loadUser(ctx, db, c, route)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": user.Addresses})
	}
}

// CreateAddress handles POST /api/users/addresses.
func CreateAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/users/addresses"
		defer handlePanic(c, route)

		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, ok := loadUser(ctx, db, c, route)
		if !ok {
			return
		}

		if req.IsDefault {
			clearDefaults(user.Addresses)
		}

		address := models.Address{
			ID:         uuid.NewString(),
			Street:     strings.TrimSpace(req.Street),
			City:       strings.TrimSpace(req.City),
			State:      strings.TrimSpace(req.State),
			PostalCode: strings.TrimSpace(req.PostalCode),
			Country:    strings.TrimSpace(req.Country),
			IsDefault:  req.IsDefault || len(user.Addresses) == 0,
		}

		user.Addresses = append(user.Addresses, address)

		if err := saveAddresses(ctx, db, user); err != nil {
			log.Printf("[%s] save failed: %v", route, err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] address created id=%s", route, address.ID)
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": address})
	}
}

// UpdateAddress handles PUT /api/users/addresses/:id.
func UpdateAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/users/addresses/:id"
		defer handlePanic(c, route)

		addressID := strings.TrimSpace(c.Param("id"))
		if addressID == "" {
			respondError(c, http.StatusBadRequest, route, "invalid address id")
			return
		}

		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, ok := loadUser(ctx, db, c, route)
		if !ok {
			return
		}

		index := -1
		for i, address := range user.Addresses {
			if address.ID == addressID {
				index = i
				break
			}
		}
		if index == -1 {
			respondError(c, http.StatusNotFound, route, "address not found")
			return
		}

		if req.IsDefault {
			clearDefaults(user.Addresses)
		}

		user.Addresses[index].Street = strings.TrimSpace(req.Street)
		user.Addresses[index].City = strings.TrimSpace(req.City)
		user.Addresses[index].State = strings.TrimSpace(req.State)
		user.Addresses[index].PostalCode = strings.TrimSpace(req.PostalCode)
		user.Addresses[index].Country = strings.TrimSpace(req.Country)
		user.Addresses[index].IsDefault = req.IsDefault

		promoteDefault(user.Addresses)

		if err := saveAddresses(ctx, db, user); err != nil {
			log.Printf("[%s] save failed: %v", route, err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] address updated id=%s", route, addressID)
		c.JSON(http.StatusOK, gin.H{"success": true, "data": user.Addresses[index]})
	}
}

// DeleteAddress handles DELETE /api/users/addresses/:id. Deleting the
// default address promotes the first remaining one.
func DeleteAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/users/addresses/:id"
		defer handlePanic(c, route)

		addressID := strings.TrimSpace(c.Param("id"))
		if addressID == "" {
			respondError(c, http.StatusBadRequest, route, "invalid address id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		user, ok := loadUser(ctx, db, c, route)
		if !ok {
			return
		}

		kept := make([]models.Address, 0, len(user.Addresses))
		found := false
		for _, address := range user.Addresses {
			if address.ID == addressID {
				found = true
				continue
			}
			kept = append(kept, address)
		}
		if !found {
			respondError(c, http.StatusNotFound, route, "address not found")
			return
		}

		promoteDefault(kept)
		user.Addresses = kept

		if err := saveAddresses(ctx, db, user); err != nil {
			log.Printf("[%s] save failed: %v", route, err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] address deleted id=%s", route, addressID)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "address deleted"})
	}
}
