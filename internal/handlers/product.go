package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chazpawar/ecommerce-follow-along/internal/models"
)

func currentUserEmail(c *gin.Context) (string, bool) {
	value, ok := c.Get("userEmail")
	if !ok {
		return "", false
	}
	email, ok := value.(string)
	return email, ok && email != ""
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Normalize()
	}
	return products, nil
}

/*
GET /api/products
- category filter optional
- pagination applied only when page + limit are both present
*/
func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		filter := bson.M{}
		if category := strings.TrimSpace(c.Query("category")); category != "" {
			filter["category"] = category
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["name"] = bson.M{"$regex": search, "$options": "i"}
		}

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}})

		pageStr := c.Query("page")
		limitStr := c.Query("limit")

		if pageStr != "" && limitStr != "" {
			page, limit, err := parsePaginationParams(pageStr, limitStr)
			if err != nil {
				respondError(c, http.StatusBadRequest, route, "invalid pagination params")
				return
			}
			findOptions.
				SetSkip((page - 1) * limit).
				SetLimit(limit)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, filter, findOptions)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products, err := decodeProducts(ctx, cursor)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		log.Printf("[%s] returning %d products", route, len(products))
		c.JSON(http.StatusOK, gin.H{"success": true, "data": products})
	}
}

// GetProduct handles GET /api/products/:id.
func GetProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
			if err == mongo.ErrNoDocuments {
				respondError(c, http.StatusNotFound, route, "product not found")
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		product.Normalize()
		c.JSON(http.StatusOK, gin.H{"success": true, "data": product})
	}
}

// CreateProduct handles POST /api/products/create. The body is a multipart
// form with up to 5 image files; the owner is the authenticated account.
func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products/create"
		defer handlePanic(c, route)

		email, ok := currentUserEmail(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		input, err := parseProductForm(c)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		if !input.NameSet || !input.DescriptionSet || !input.PriceSet || !input.CategorySet {
			respondError(c, http.StatusBadRequest, route, "name, description, price and category are required")
			return
		}

		stock := 1
		if input.StockSet {
			stock = input.Stock
		}

		now := time.Now()
		product := models.Product{
			Name:        input.Name,
			Description: input.Description,
			Price:       input.Price,
			Category:    input.Category,
			Images:      input.ImagePaths,
			Stock:       stock,
			UserEmail:   email,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if input.OriginalPriceSet {
			product.OriginalPrice = input.OriginalPrice
		}

		if err := validateProductFields(product, input.OriginalPriceSet); err != nil {
			respondError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			log.Printf("[%s] insert failed: %v", route, err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		product.ID, _ = res.InsertedID.(primitive.ObjectID)
		product.Normalize()

		log.Printf("[%s] product created id=%s owner=%s", route, product.ID.Hex(), email)
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": product})
	}
}

// UpdateProduct handles PUT /api/products/:id. Only the owning account may
// mutate a product; fields absent from the form are left untouched.
func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/products/:id"
		defer handlePanic(c, route)

		email, ok := currentUserEmail(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		input, err := parseProductForm(c)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var existing models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&existing); err != nil {
			if err == mongo.ErrNoDocuments {
				respondError(c, http.StatusNotFound, route, "product not found")
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if existing.UserEmail != email {
			respondError(c, http.StatusForbidden, route, "only the owner can modify this product")
			return
		}

		replacedImages := []string(nil)

		updated := existing
		if input.NameSet {
			updated.Name = input.Name
		}
		if input.DescriptionSet {
			updated.Description = input.Description
		}
		if input.PriceSet {
			updated.Price = input.Price
		}
		if input.OriginalPriceSet {
			updated.OriginalPrice = input.OriginalPrice
		}
		if input.CategorySet {
			updated.Category = input.Category
		}
		if input.StockSet {
			updated.Stock = input.Stock
		}
		if input.ImagesSet {
			replacedImages = existing.Images
			updated.Images = input.ImagePaths
		}
		updated.UpdatedAt = time.Now()

		originalPriceSet := input.OriginalPriceSet || existing.OriginalPrice > 0
		if err := validateProductFields(updated, originalPriceSet); err != nil {
			respondError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		_, err = db.Collection("products").UpdateByID(ctx, productID, bson.M{
			"$set": bson.M{
				"name":          updated.Name,
				"description":   updated.Description,
				"price":         updated.Price,
				"originalPrice": updated.OriginalPrice,
				"category":      updated.Category,
				"images":        updated.Images,
				"stock":         updated.Stock,
				"updatedAt":     updated.UpdatedAt,
			},
		})
		if err != nil {
			log.Printf("[%s] update failed: %v", route, err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		for _, image := range replacedImages {
			if err := safeDeleteUpload(image); err != nil {
				log.Printf("[%s] image cleanup failed for %s: %v", route, image, err)
			}
		}

		updated.Normalize()
		log.Printf("[%s] product updated id=%s", route, productID.Hex())
		c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
	}
}

// DeleteProduct handles DELETE /api/products/:id and cascades to the
// product's stored image files.
func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/products/:id"
		defer handlePanic(c, route)

		email, ok := currentUserEmail(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(c.Param("id")))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var existing models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&existing); err != nil {
			if err == mongo.ErrNoDocuments {
				respondError(c, http.StatusNotFound, route, "product not found")
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if existing.UserEmail != email {
			respondError(c, http.StatusForbidden, route, "only the owner can delete this product")
			return
		}

		if _, err := db.Collection("products").DeleteOne(ctx, bson.M{"_id": productID}); err != nil {
			log.Printf("[%s] delete failed: %v", route, err)
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		for _, image := range existing.Images {
			if err := safeDeleteUpload(image); err != nil {
				log.Printf("[%s] image cleanup failed for %s: %v", route, image, err)
			}
		}

		log.Printf("[%s] product deleted id=%s", route, productID.Hex())
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "product deleted"})
	}
}
