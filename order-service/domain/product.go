package domain

import "github.com/gaetanBloch/meal-order/shared/models"

// Product is the read-mostly reference data an order item points at. The
// restaurant catalogue is the source of truth for label and price.
type Product struct {
	ID    models.ID    `json:"id"`
	Label string       `json:"label"`
	Price models.Money `json:"price"`
}

// UpdateInfo copies the catalogue's canonical label and price onto the
// order's product reference.
func (p *Product) UpdateInfo(label string, price models.Money) {
	p.Label = label
	p.Price = price
}

// Restaurant is the order service's view of a restaurant: the catalogue used
// to validate order items and the active flag.
type Restaurant struct {
	ID       models.ID  `json:"id"`
	Products []*Product `json:"products"`
	Active   bool       `json:"active"`
}

// FindProduct returns the catalogue product with the given id, or nil.
func (r *Restaurant) FindProduct(productID models.ID) *Product {
	for _, product := range r.Products {
		if product.ID == productID {
			return product
		}
	}
	return nil
}
