package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Categories is the fixed set of product categories accepted on create.
var Categories = []string{"bedroom", "livingroom", "kitchen", "bathroom"}

// IsValidCategory reports whether value is one of the known categories.
func IsValidCategory(value string) bool {
	for _, category := range Categories {
		if category == value {
			return true
		}
	}
	return false
}

type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description" json:"description"`
	Price         float64            `bson:"price" json:"price"`
	OriginalPrice float64            `bson:"originalPrice,omitempty" json:"originalPrice,omitempty"`
	Category      string             `bson:"category" json:"category"`
	Images        []string           `bson:"images" json:"images"`
	Stock         int                `bson:"stock" json:"stock"`
	UserEmail     string             `bson:"userEmail" json:"userEmail"`
	Rating        float64            `bson:"rating" json:"rating"`
	IsAvailable   bool               `bson:"-" json:"isAvailable"`
	DiscountPct   int                `bson:"-" json:"discountPercentage"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasStock reports whether quantity units can be served from current stock.
func (p *Product) HasStock(quantity int) bool {
	return quantity > 0 && p.Stock >= quantity
}

// Normalize recomputes the derived fields. IsAvailable is never stored;
// it always reflects the current stock counter.
func (p *Product) Normalize() {
	p.IsAvailable = p.Stock > 0
	p.DiscountPct = discountPercentage(p.OriginalPrice, p.Price)
}

func discountPercentage(originalPrice, price float64) int {
	if originalPrice <= 0 || price <= 0 || originalPrice <= price {
		return 0
	}
	return int(math.Round((originalPrice - price) / originalPrice * 100))
}
