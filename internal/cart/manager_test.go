package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chazpawar/ecommerce-follow-along/internal/models"
)

type fakeAccounts struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func newFakeAccounts(users ...models.User) *fakeAccounts {
	f := &fakeAccounts{users: make(map[primitive.ObjectID]models.User)}
	for _, user := range users {
		f.users[user.ID] = user
	}
	return f
}

func (f *fakeAccounts) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := user
	copied.Cart = append([]models.CartEntry(nil), user.Cart...)
	return &copied, nil
}

func (f *fakeAccounts) SaveCart(_ context.Context, id primitive.ObjectID, entries []models.CartEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user := f.users[id]
	user.Cart = append([]models.CartEntry(nil), entries...)
	f.users[id] = user
	return nil
}

func (f *fakeAccounts) cartOf(id primitive.ObjectID) []models.CartEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CartEntry(nil), f.users[id].Cart...)
}

type fakeCatalog struct {
	products map[primitive.ObjectID]models.Product
}

func newFakeCatalog(products ...models.Product) *fakeCatalog {
	f := &fakeCatalog{products: make(map[primitive.ObjectID]models.Product)}
	for _, product := range products {
		f.products[product.ID] = product
	}
	return f
}

func (f *fakeCatalog) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	return &product, nil
}

func (f *fakeCatalog) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	found := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if product, ok := f.products[id]; ok {
			found = append(found, product)
		}
	}
	return found, nil
}

func testAccount() models.User {
	return models.User{
		ID:    primitive.NewObjectID(),
		Name:  "Test Buyer",
		Email: "buyer@example.com",
		Cart:  []models.CartEntry{},
	}
}

func testProduct(stock int) models.Product {
	return models.Product{
		ID:        primitive.NewObjectID(),
		Name:      "Oak Nightstand",
		Category:  "bedroom",
		Price:     120,
		Stock:     stock,
		UserEmail: "seller@example.com",
	}
}

func TestAddItemCreatesSingleEntry(t *testing.T) {
	account := testAccount()
	product := testProduct(5)
	accounts := newFakeAccounts(account)
	manager := NewManager(accounts, newFakeCatalog(product))

	items, err := manager.AddItem(context.Background(), account.ID, product.ID, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, product.ID, items[0].Product.ID)
	require.Equal(t, 2, items[0].Quantity)
	require.False(t, items[0].AddedAt.IsZero())

	saved := accounts.cartOf(account.ID)
	require.Len(t, saved, 1)
	require.Equal(t, 2, saved[0].Quantity)
}

func TestAddItemMergesDuplicate(t *testing.T) {
	account := testAccount()
	product := testProduct(5)
	accounts := newFakeAccounts(account)
	manager := NewManager(accounts, newFakeCatalog(product))

	_, err := manager.AddItem(context.Background(), account.ID, product.ID, 2)
	require.NoError(t, err)

	items, err := manager.AddItem(context.Background(), account.ID, product.ID, 1)
	require.NoError(t, err)
	require.Len(t, items, 1, "duplicate add must merge, not append")
	require.Equal(t, 3, items[0].Quantity)
}

func TestAddItemRejectsCumulativeOverStock(t *testing.T) {
	// The stock rule checks the prospective total: quantity already in the
	// cart plus the quantity being requested.
	account := testAccount()
	product := testProduct(3)
	accounts := newFakeAccounts(account)
	manager := NewManager(accounts, newFakeCatalog(product))

	_, err := manager.AddItem(context.Background(), account.ID, product.ID, 2)
	require.NoError(t, err)

	_, err = manager.AddItem(context.Background(), account.ID, product.ID, 2)
	require.ErrorIs(t, err, ErrInsufficientStock)

	saved := accounts.cartOf(account.ID)
	require.Len(t, saved, 1)
	require.Equal(t, 2, saved[0].Quantity, "failed add must leave the cart unchanged")
}

func TestAddItemUnknownProduct(t *testing.T) {
	account := testAccount()
	accounts := newFakeAccounts(account)
	manager := NewManager(accounts, newFakeCatalog())

	_, err := manager.AddItem(context.Background(), account.ID, primitive.NewObjectID(), 1)
	require.ErrorIs(t, err, ErrProductNotFound)
	require.Empty(t, accounts.cartOf(account.ID))
}

func TestAddItemZeroStock(t *testing.T) {
	account := testAccount()
	product := testProduct(0)
	accounts := newFakeAccounts(account)
	manager := NewManager(accounts, newFakeCatalog(product))

	_, err := manager.AddItem(context.Background(), account.ID, product.ID, 1)
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Empty(t, accounts.cartOf(account.ID))
}

func TestAddItemInvalidQuantity(t *testing.T) {
	account := testAccount()
	product := testProduct(5)
	manager := NewManager(newFakeAccounts(account), newFakeCatalog(product))

	_, err := manager.AddItem(context.Background(), account.ID, product.ID, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAddItemUnknownAccount(t *testing.T) {
	product := testProduct(5)
	manager := NewManager(newFakeAccounts(), newFakeCatalog(product))

	_, err := manager.AddItem(context.Background(), primitive.NewObjectID(), product.ID, 1)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestUpdateItemQuantitySetsAbsolute(t *testing.T) {
	account := testAccount()
	product := testProduct(10)
	accounts := newFakeAccounts(account)
	manager := NewManager(accounts, newFakeCatalog(product))

	_, err := manager.AddItem(context.Background(), account.ID, product.ID, 2)
	require.NoError(t, err)

	items, err := manager.UpdateItemQuantity(context.Background(), account.ID, product.ID, 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 5, items[0].Quantity, "update must set absolutely, not add")
}

func TestUpdateItemQuantityNotInCart(t *testing.T) {
	account := testAccount()
	product := testProduct(10)
	manager := NewManager(newFakeAccounts(account), newFakeCatalog(product))

	_, err := manager.UpdateItemQuantity(context.Background(), account.ID, product.ID, 1)
	require.ErrorIs(t, err, ErrNotInCart)
}

func TestUpdateItemQuantityOverStock(t *testing.T) {
	account := testAccount()
	product := testProduct(3)
	accounts := newFakeAccounts(account)
	manager := NewManager(accounts, newFakeCatalog(product))

	_, err := manager.AddItem(context.Background(), account.ID, product.ID, 1)
	require.NoError(t, err)

	_, err = manager.UpdateItemQuantity(context.Background(), account.ID, product.ID, 4)
	require.ErrorIs(t, err, ErrInsufficientStock)

	saved := accounts.cartOf(account.ID)
	require.Equal(t, 1, saved[0].Quantity)
}

func TestUpdateItemQuantityUnknownProduct(t *testing.T) {
	account := testAccount()
	manager := NewManager(newFakeAccounts(account), newFakeCatalog())

	_, err := manager.UpdateItemQuantity(context.Background(), account.ID, primitive.NewObjectID(), 1)
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	account := testAccount()
	product := testProduct(5)
	accounts := newFakeAccounts(account)
	manager := NewManager(accounts, newFakeCatalog(product))

	_, err := manager.AddItem(context.Background(), account.ID, product.ID, 1)
	require.NoError(t, err)

	items, err := manager.RemoveItem(context.Background(), account.ID, primitive.NewObjectID())
	require.NoError(t, err, "removing an absent product must not error")
	require.Len(t, items, 1, "cart must be unchanged")

	items, err = manager.RemoveItem(context.Background(), account.ID, product.ID)
	require.NoError(t, err)
	require.Empty(t, items)

	items, err = manager.RemoveItem(context.Background(), account.ID, product.ID)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestGetCartOmitsDeletedProducts(t *testing.T) {
	account := testAccount()
	product := testProduct(5)
	catalog := newFakeCatalog(product)
	accounts := newFakeAccounts(account)
	manager := NewManager(accounts, catalog)

	_, err := manager.AddItem(context.Background(), account.ID, product.ID, 1)
	require.NoError(t, err)

	delete(catalog.products, product.ID)

	items, err := manager.GetCart(context.Background(), account.ID)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestGetCartResolvesProductDetail(t *testing.T) {
	account := testAccount()
	product := testProduct(5)
	accounts := newFakeAccounts(account)
	manager := NewManager(accounts, newFakeCatalog(product))

	_, err := manager.AddItem(context.Background(), account.ID, product.ID, 2)
	require.NoError(t, err)

	items, err := manager.GetCart(context.Background(), account.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Oak Nightstand", items[0].Product.Name)
	require.True(t, items[0].Product.IsAvailable)
}

func TestCartScenario(t *testing.T) {
	account := testAccount()
	product := testProduct(3)
	accounts := newFakeAccounts(account)
	manager := NewManager(accounts, newFakeCatalog(product))
	ctx := context.Background()

	items, err := manager.AddItem(ctx, account.ID, product.ID, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 2, items[0].Quantity)

	items, err = manager.AddItem(ctx, account.ID, product.ID, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 3, items[0].Quantity)

	items, err = manager.UpdateItemQuantity(ctx, account.ID, product.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 1, items[0].Quantity)

	items, err = manager.RemoveItem(ctx, account.ID, product.ID)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestConcurrentAddsMergeIntoOneEntry(t *testing.T) {
	account := testAccount()
	product := testProduct(50)
	accounts := newFakeAccounts(account)
	manager := NewManager(accounts, newFakeCatalog(product))

	const adds = 20
	errs := make(chan error, adds)
	var wg sync.WaitGroup
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.AddItem(context.Background(), account.ID, product.ID, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	saved := accounts.cartOf(account.ID)
	require.Len(t, saved, 1)
	require.Equal(t, 20, saved[0].Quantity)
}
