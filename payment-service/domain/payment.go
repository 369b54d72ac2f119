package domain

import (
	"time"

	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// TransactionType represents the direction of a credit history entry
type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "DEBIT"
	TransactionTypeCredit TransactionType = "CREDIT"
)

// Payment aggregate root. Built unvalidated from an order event; initialize
// assigns identity and creation time exactly once, even when validation
// already failed, so a payment row exists for audit either way.
type Payment struct {
	ID         models.ID     `json:"id"`
	OrderID    models.ID     `json:"order_id"`
	CustomerID models.ID     `json:"customer_id"`
	Price      models.Money  `json:"price"`
	Status     PaymentStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`

	events []*events.Event
}

// validatePayment appends a soft failure when the price is not positive.
func (p *Payment) validatePayment(failureMessages []string) []string {
	if !p.Price.IsGreaterThanZero() {
		failureMessages = append(failureMessages, "Price must be greater than zero")
	}
	return failureMessages
}

func (p *Payment) initialize() {
	p.ID = models.GenerateID()
	p.CreatedAt = time.Now()
}

func (p *Payment) updateStatus(status PaymentStatus) {
	p.Status = status
}

// Events returns domain events
func (p *Payment) Events() []*events.Event {
	return p.events
}

// ClearEvents clears domain events
func (p *Payment) ClearEvents() {
	p.events = make([]*events.Event, 0)
}

func (p *Payment) recordEvent(event *events.Event) {
	p.events = append(p.events, event)
}

// CreditEntry is the single mutable ledger balance of one customer. All
// handling for one customer id must be serialized; concurrent debits race on
// the running total.
type CreditEntry struct {
	ID                models.ID    `json:"id"`
	CustomerID        models.ID    `json:"customer_id"`
	TotalCreditAmount models.Money `json:"total_credit_amount"`
}

// AddCreditAmount credits the running balance.
func (c *CreditEntry) AddCreditAmount(amount models.Money) {
	c.TotalCreditAmount = c.TotalCreditAmount.Add(amount)
}

// SubtractCreditAmount debits the running balance.
func (c *CreditEntry) SubtractCreditAmount(amount models.Money) {
	c.TotalCreditAmount = c.TotalCreditAmount.Subtract(amount)
}

// CreditHistory is one append-only audit entry of the customer ledger.
// Never mutated after creation.
type CreditHistory struct {
	ID              models.ID       `json:"id"`
	CustomerID      models.ID       `json:"customer_id"`
	Amount          models.Money    `json:"amount"`
	TransactionType TransactionType `json:"transaction_type"`
}
