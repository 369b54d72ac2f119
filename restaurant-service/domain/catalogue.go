package domain

import "github.com/gaetanBloch/meal-order/shared/models"

// CatalogueEntry is the restaurant's own record of one product: the canonical
// price and current availability.
type CatalogueEntry struct {
	ProductID    models.ID
	Label        string
	Price        models.Money
	Availability Availability
}

// Catalogue is the menu of one restaurant.
type Catalogue struct {
	RestaurantID models.ID
	Active       bool
	Entries      []*CatalogueEntry
}

// Find returns the entry for the given product, or nil when the product is
// not on the menu.
func (c *Catalogue) Find(productID models.ID) *CatalogueEntry {
	for _, entry := range c.Entries {
		if entry.ProductID == productID {
			return entry
		}
	}
	return nil
}
