package domain

import "github.com/gaetanBloch/meal-order/shared/models"

// Customer is the order service's projection of a customer, maintained from
// customer.created events. Order creation only needs to know the customer
// exists.
type Customer struct {
	ID        models.ID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}
