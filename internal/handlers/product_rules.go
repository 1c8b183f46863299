package handlers

import (
	"fmt"

	"github.com/chazpawar/ecommerce-follow-along/internal/models"
)

const (
	minProductNameLen        = 3
	maxProductNameLen        = 100
	minProductDescriptionLen = 10
	maxProductDescriptionLen = 1000
)

func validateProductName(name string) error {
	if len(name) < minProductNameLen {
		return fmt.Errorf("product name must be at least %d characters long", minProductNameLen)
	}
	if len(name) > maxProductNameLen {
		return fmt.Errorf("product name cannot exceed %d characters", maxProductNameLen)
	}
	return nil
}

func validateProductDescription(description string) error {
	if len(description) < minProductDescriptionLen {
		return fmt.Errorf("description must be at least %d characters long", minProductDescriptionLen)
	}
	if len(description) > maxProductDescriptionLen {
		return fmt.Errorf("description cannot exceed %d characters", maxProductDescriptionLen)
	}
	return nil
}

// validateProductFields checks the merged state of a product document
// before it is written, for both create and partial update.
func validateProductFields(p models.Product, originalPriceSet bool) error {
	if err := validateProductName(p.Name); err != nil {
		return err
	}
	if err := validateProductDescription(p.Description); err != nil {
		return err
	}
	if p.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	if !models.IsValidCategory(p.Category) {
		return fmt.Errorf("%s is not a valid category", p.Category)
	}
	if p.Stock < 0 {
		return fmt.Errorf("stock cannot be negative")
	}
	if len(p.Images) == 0 {
		return fmt.Errorf("product must have at least one image")
	}
	// An explicit zero clears the sale price, so the comparison only
	// applies to a non-zero value.
	if originalPriceSet && p.OriginalPrice != 0 && p.OriginalPrice < p.Price {
		return fmt.Errorf("original price must be greater than or equal to current price")
	}
	return nil
}
