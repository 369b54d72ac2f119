package domain

import (
	"time"

	"github.com/gaetanBloch/meal-order/shared/models"
)

// Event payload structures emitted by the Payment aggregate.

type PaymentCompletedData struct {
	PaymentID  models.ID    `json:"payment_id"`
	OrderID    models.ID    `json:"order_id"`
	CustomerID models.ID    `json:"customer_id"`
	Price      models.Money `json:"price"`
	CreatedAt  time.Time    `json:"created_at"`
}

type PaymentFailedData struct {
	PaymentID       models.ID    `json:"payment_id"`
	OrderID         models.ID    `json:"order_id"`
	CustomerID      models.ID    `json:"customer_id"`
	Price           models.Money `json:"price"`
	FailureMessages []string     `json:"failure_messages"`
}

type PaymentCancelledData struct {
	PaymentID  models.ID    `json:"payment_id"`
	OrderID    models.ID    `json:"order_id"`
	CustomerID models.ID    `json:"customer_id"`
	Price      models.Money `json:"price"`
}
