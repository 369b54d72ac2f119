package domain

import "github.com/gaetanBloch/meal-order/shared/models"

// Event payload structures emitted by the approval aggregate.

type OrderApprovedData struct {
	OrderApprovalID models.ID `json:"order_approval_id"`
	RestaurantID    models.ID `json:"restaurant_id"`
	OrderID         models.ID `json:"order_id"`
}

type OrderRejectedData struct {
	OrderApprovalID models.ID `json:"order_approval_id"`
	RestaurantID    models.ID `json:"restaurant_id"`
	OrderID         models.ID `json:"order_id"`
	FailureMessages []string  `json:"failure_messages"`
}
