package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chazpawar/ecommerce-follow-along/internal/cart"
	"github.com/chazpawar/ecommerce-follow-along/internal/models"
)

type memAccounts struct {
	users map[primitive.ObjectID]models.User
}

func (m *memAccounts) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	copied := user
	copied.Cart = append([]models.CartEntry(nil), user.Cart...)
	return &copied, nil
}

func (m *memAccounts) SaveCart(_ context.Context, id primitive.ObjectID, entries []models.CartEntry) error {
	user := m.users[id]
	user.Cart = entries
	m.users[id] = user
	return nil
}

type memCatalog struct {
	products map[primitive.ObjectID]models.Product
}

func (m *memCatalog) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &product, nil
}

func (m *memCatalog) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	found := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if product, ok := m.products[id]; ok {
			found = append(found, product)
		}
	}
	return found, nil
}

func newCartTestRouter(userID primitive.ObjectID, manager *cart.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", userID)
	})
	r.POST("/api/cart/add", AddToCart(manager))
	r.GET("/api/cart", GetCart(manager))
	r.PUT("/api/cart/:productId", UpdateCartItem(manager))
	r.DELETE("/api/cart/:productId", RemoveFromCart(manager))
	return r
}

type cartEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) cartEnvelope {
	t.Helper()
	var envelope cartEnvelope
	if err := json.Unmarshal(body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid response json: %v (%s)", err, body.String())
	}
	return envelope
}

func TestAddToCartUnknownProductReturns404(t *testing.T) {
	userID := primitive.NewObjectID()
	accounts := &memAccounts{users: map[primitive.ObjectID]models.User{userID: {ID: userID}}}
	manager := cart.NewManager(accounts, &memCatalog{products: map[primitive.ObjectID]models.Product{}})
	router := newCartTestRouter(userID, manager)

	body := fmt.Sprintf(`{"productId":%q}`, primitive.NewObjectID().Hex())
	req := httptest.NewRequest("POST", "/api/cart/add", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 404 {
		t.Fatalf("expected 404, got %d (%s)", rec.Code, rec.Body.String())
	}
	envelope := decodeEnvelope(t, rec.Body)
	if envelope.Success {
		t.Fatal("expected success=false in error envelope")
	}
	if envelope.Message == "" {
		t.Fatal("expected message in error envelope")
	}
}

func TestAddToCartOutOfStockReturns400(t *testing.T) {
	userID := primitive.NewObjectID()
	productID := primitive.NewObjectID()
	accounts := &memAccounts{users: map[primitive.ObjectID]models.User{userID: {ID: userID}}}
	catalog := &memCatalog{products: map[primitive.ObjectID]models.Product{
		productID: {ID: productID, Name: "Lamp", Stock: 0},
	}}
	router := newCartTestRouter(userID, cart.NewManager(accounts, catalog))

	body := fmt.Sprintf(`{"productId":%q,"quantity":1}`, productID.Hex())
	req := httptest.NewRequest("POST", "/api/cart/add", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(accounts.users[userID].Cart) != 0 {
		t.Fatal("expected cart to stay empty after failed add")
	}
}

func TestAddToCartDefaultsQuantityToOne(t *testing.T) {
	userID := primitive.NewObjectID()
	productID := primitive.NewObjectID()
	accounts := &memAccounts{users: map[primitive.ObjectID]models.User{userID: {ID: userID}}}
	catalog := &memCatalog{products: map[primitive.ObjectID]models.Product{
		productID: {ID: productID, Name: "Lamp", Stock: 5},
	}}
	router := newCartTestRouter(userID, cart.NewManager(accounts, catalog))

	body := fmt.Sprintf(`{"productId":%q}`, productID.Hex())
	req := httptest.NewRequest("POST", "/api/cart/add", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	envelope := decodeEnvelope(t, rec.Body)
	if !envelope.Success {
		t.Fatal("expected success=true")
	}

	var items []cart.Item
	if err := json.Unmarshal(envelope.Data, &items); err != nil {
		t.Fatalf("invalid data json: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Fatalf("expected one entry with quantity 1, got %+v", items)
	}
	if items[0].Product.Name != "Lamp" {
		t.Fatal("expected resolved product detail in response")
	}
}

func TestUpdateCartItemInvalidProductIDReturns400(t *testing.T) {
	userID := primitive.NewObjectID()
	accounts := &memAccounts{users: map[primitive.ObjectID]models.User{userID: {ID: userID}}}
	router := newCartTestRouter(userID, cart.NewManager(accounts, &memCatalog{products: map[primitive.ObjectID]models.Product{}}))

	req := httptest.NewRequest("PUT", "/api/cart/not-a-hex-id", bytes.NewBufferString(`{"quantity":2}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRemoveFromCartAbsentProductReturns200(t *testing.T) {
	userID := primitive.NewObjectID()
	accounts := &memAccounts{users: map[primitive.ObjectID]models.User{userID: {ID: userID}}}
	router := newCartTestRouter(userID, cart.NewManager(accounts, &memCatalog{products: map[primitive.ObjectID]models.Product{}}))

	req := httptest.NewRequest("DELETE", "/api/cart/"+primitive.NewObjectID().Hex(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}
