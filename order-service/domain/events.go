package domain

import "github.com/gaetanBloch/meal-order/shared/models"

// Event payload structures emitted by the Order aggregate.

type OrderItemData struct {
	ProductID models.ID    `json:"product_id"`
	Label     string       `json:"label"`
	Price     models.Money `json:"price"`
	Quantity  int          `json:"quantity"`
	SubTotal  models.Money `json:"sub_total"`
}

type OrderCreatedData struct {
	OrderID      models.ID       `json:"order_id"`
	CustomerID   models.ID       `json:"customer_id"`
	RestaurantID models.ID       `json:"restaurant_id"`
	TrackingID   models.ID       `json:"tracking_id"`
	Price        models.Money    `json:"price"`
	Items        []OrderItemData `json:"items"`
}

type OrderPaidData struct {
	OrderID      models.ID       `json:"order_id"`
	CustomerID   models.ID       `json:"customer_id"`
	RestaurantID models.ID       `json:"restaurant_id"`
	Status       OrderStatus     `json:"status"`
	Price        models.Money    `json:"price"`
	Items        []OrderItemData `json:"items"`
}

type OrderCancellingData struct {
	OrderID         models.ID    `json:"order_id"`
	CustomerID      models.ID    `json:"customer_id"`
	Price           models.Money `json:"price"`
	FailureMessages []string     `json:"failure_messages"`
}

type OrderCancelledData struct {
	OrderID         models.ID `json:"order_id"`
	CustomerID      models.ID `json:"customer_id"`
	FailureMessages []string  `json:"failure_messages"`
}
