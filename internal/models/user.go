package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Address represents a single address book entry for a user.
type Address struct {
	ID         string `bson:"id" json:"id"`
	Street     string `bson:"street" json:"street"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state,omitempty" json:"state,omitempty"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
	IsDefault  bool   `bson:"isDefault" json:"isDefault"`
}

// CartEntry is one line item in a user's cart. At most one entry exists
// per product; adding the same product again merges quantities.
type CartEntry struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	AddedAt   time.Time          `bson:"addedAt" json:"addedAt"`
}

// User represents the application user account. Cart entries and addresses
// are embedded sub-documents owned exclusively by the account.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	PasswordHash   string             `bson:"passwordHash" json:"-"`
	ProfilePicture string             `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	Cart           []CartEntry        `bson:"cart" json:"cart"`
	Addresses      []Address          `bson:"addresses" json:"addresses"`
	LastLoginAt    *time.Time         `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FindCartEntry returns the index of the entry for productID, or -1.
func (u *User) FindCartEntry(productID primitive.ObjectID) int {
	for i, entry := range u.Cart {
		if entry.ProductID == productID {
			return i
		}
	}
	return -1
}
