package handlers

import (
	"strings"
	"testing"

	"github.com/chazpawar/ecommerce-follow-along/internal/models"
)

func validTestProduct() models.Product {
	return models.Product{
		Name:        "Oak Nightstand",
		Description: "A solid oak nightstand with two drawers.",
		Price:       120,
		Category:    "bedroom",
		Images:      []string{"uploads/products/a.jpg"},
		Stock:       3,
	}
}

func TestValidateProductFieldsAcceptsValidProduct(t *testing.T) {
	if err := validateProductFields(validTestProduct(), false); err != nil {
		t.Fatalf("expected valid product, got: %v", err)
	}
}

func TestValidateProductFieldsNameLength(t *testing.T) {
	p := validTestProduct()
	p.Name = "ab"
	if err := validateProductFields(p, false); err == nil {
		t.Fatal("expected error for short name")
	}

	p.Name = strings.Repeat("x", 101)
	if err := validateProductFields(p, false); err == nil {
		t.Fatal("expected error for long name")
	}
}

func TestValidateProductFieldsDescriptionLength(t *testing.T) {
	p := validTestProduct()
	p.Description = "too short"
	if err := validateProductFields(p, false); err == nil {
		t.Fatal("expected error for short description")
	}
}

func TestValidateProductFieldsRejectsUnknownCategory(t *testing.T) {
	p := validTestProduct()
	p.Category = "garage"
	if err := validateProductFields(p, false); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestValidateProductFieldsRejectsNegativeValues(t *testing.T) {
	p := validTestProduct()
	p.Price = -1
	if err := validateProductFields(p, false); err == nil {
		t.Fatal("expected error for negative price")
	}

	p = validTestProduct()
	p.Stock = -1
	if err := validateProductFields(p, false); err == nil {
		t.Fatal("expected error for negative stock")
	}
}

func TestValidateProductFieldsRequiresImage(t *testing.T) {
	p := validTestProduct()
	p.Images = nil
	if err := validateProductFields(p, false); err == nil {
		t.Fatal("expected error for product without images")
	}
}

func TestValidateProductFieldsOriginalPriceBelowPrice(t *testing.T) {
	p := validTestProduct()
	p.OriginalPrice = 100
	if err := validateProductFields(p, true); err == nil {
		t.Fatal("expected error for originalPrice below price")
	}

	p.OriginalPrice = 150
	if err := validateProductFields(p, true); err != nil {
		t.Fatalf("expected originalPrice above price to pass, got: %v", err)
	}
}

func TestValidateProductFieldsZeroOriginalPriceClearsSale(t *testing.T) {
	p := validTestProduct()
	p.OriginalPrice = 0
	if err := validateProductFields(p, true); err != nil {
		t.Fatalf("expected explicit zero originalPrice to clear the sale, got: %v", err)
	}
}
