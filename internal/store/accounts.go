package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chazpawar/ecommerce-follow-along/internal/models"
)

// Accounts is the Mongo-backed account store. The cart list is an embedded
// sub-document persisted as a whole with $set; no field-level atomicity is
// assumed beyond the single-document write.
type Accounts struct {
	db *mongo.Database
}

func NewAccounts(db *mongo.Database) *Accounts {
	return &Accounts{db: db}
}

func (s *Accounts) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.db.Collection("users").FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Accounts) SaveCart(ctx context.Context, id primitive.ObjectID, entries []models.CartEntry) error {
	if entries == nil {
		entries = []models.CartEntry{}
	}
	_, err := s.db.Collection("users").UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"cart":      entries,
			"updatedAt": time.Now(),
		},
	})
	return err
}
