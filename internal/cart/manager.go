package cart

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chazpawar/ecommerce-follow-along/internal/models"
)

// ErrInvalidQuantity means the caller asked for a non-positive quantity.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// AccountStore loads account documents and persists their cart list.
// Implementations return (nil, nil) when the account does not exist.
type AccountStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	SaveCart(ctx context.Context, id primitive.ObjectID, entries []models.CartEntry) error
}

// ProductCatalog is the read-only view of the product collection consumed
// by the cart. FindByID returns (nil, nil) when the product does not exist.
type ProductCatalog interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
}

// Item is one resolved cart line: the product inlined, never a bare id.
type Item struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"quantity"`
	AddedAt  time.Time      `json:"addedAt"`
}

// Manager owns the mapping from an account to its cart entries and keeps
// them consistent with current product stock. Mutating operations for the
// same account are serialized with a per-account lock; reads are not.
type Manager struct {
	accounts AccountStore
	catalog  ProductCatalog
	locks    accountLocks
}

func NewManager(accounts AccountStore, catalog ProductCatalog) *Manager {
	return &Manager{accounts: accounts, catalog: catalog}
}

// availableFor is the single stock rule: the product's stock must cover the
// account's prospective total for it, i.e. the quantity already in the cart
// plus the quantity being requested.
func availableFor(product *models.Product, inCart, requested int) bool {
	return product.HasStock(inCart + requested)
}

// AddItem puts quantity units of productID into the account's cart. If an
// entry for the product already exists its quantity is incremented,
// otherwise a new entry is appended.
func (m *Manager) AddItem(ctx context.Context, accountID, productID primitive.ObjectID, quantity int) ([]Item, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	mu := m.locks.lock(accountID.Hex())
	defer mu.Unlock()

	product, err := m.catalog.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	user, err := m.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrAccountNotFound
	}

	index := user.FindCartEntry(productID)
	inCart := 0
	if index >= 0 {
		inCart = user.Cart[index].Quantity
	}

	if !availableFor(product, inCart, quantity) {
		return nil, ErrInsufficientStock
	}

	if index >= 0 {
		user.Cart[index].Quantity += quantity
	} else {
		user.Cart = append(user.Cart, models.CartEntry{
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   time.Now(),
		})
	}

	if err := m.accounts.SaveCart(ctx, accountID, user.Cart); err != nil {
		return nil, err
	}

	return m.resolve(ctx, user.Cart)
}

// GetCart returns the account's cart with product details inlined.
func (m *Manager) GetCart(ctx context.Context, accountID primitive.ObjectID) ([]Item, error) {
	user, err := m.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrAccountNotFound
	}

	return m.resolve(ctx, user.Cart)
}

// UpdateItemQuantity sets the entry for productID to exactly quantity.
// The entry must already be in the cart; this is an absolute set, not a
// delta.
func (m *Manager) UpdateItemQuantity(ctx context.Context, accountID, productID primitive.ObjectID, quantity int) ([]Item, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	mu := m.locks.lock(accountID.Hex())
	defer mu.Unlock()

	product, err := m.catalog.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if !product.HasStock(quantity) {
		return nil, ErrInsufficientStock
	}

	user, err := m.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrAccountNotFound
	}

	index := user.FindCartEntry(productID)
	if index < 0 {
		return nil, ErrNotInCart
	}

	user.Cart[index].Quantity = quantity

	if err := m.accounts.SaveCart(ctx, accountID, user.Cart); err != nil {
		return nil, err
	}

	return m.resolve(ctx, user.Cart)
}

// RemoveItem drops the entry for productID if present. Removing a product
// that is not in the cart is not an error.
func (m *Manager) RemoveItem(ctx context.Context, accountID, productID primitive.ObjectID) ([]Item, error) {
	mu := m.locks.lock(accountID.Hex())
	defer mu.Unlock()

	user, err := m.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrAccountNotFound
	}

	kept := make([]models.CartEntry, 0, len(user.Cart))
	removed := false
	for _, entry := range user.Cart {
		if entry.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}

	if removed {
		if err := m.accounts.SaveCart(ctx, accountID, kept); err != nil {
			return nil, err
		}
	}

	return m.resolve(ctx, kept)
}

// resolve inlines product details into each entry, preserving cart order.
// Entries whose product has since been deleted are omitted.
func (m *Manager) resolve(ctx context.Context, entries []models.CartEntry) ([]Item, error) {
	items := make([]Item, 0, len(entries))
	if len(entries) == 0 {
		return items, nil
	}

	ids := make([]primitive.ObjectID, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ProductID)
	}

	products, err := m.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	productByID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, product := range products {
		product.Normalize()
		productByID[product.ID] = product
	}

	for _, entry := range entries {
		product, exists := productByID[entry.ProductID]
		if !exists {
			continue
		}
		items = append(items, Item{
			Product:  product,
			Quantity: entry.Quantity,
			AddedAt:  entry.AddedAt,
		})
	}

	return items, nil
}
