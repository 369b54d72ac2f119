package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
)

func newLedger(balance string) (*CreditEntry, []*CreditHistory) {
	customerID := models.GenerateID()
	entry := &CreditEntry{
		ID:                models.GenerateID(),
		CustomerID:        customerID,
		TotalCreditAmount: models.MustMoney(balance),
	}
	histories := []*CreditHistory{
		{
			ID:              models.GenerateID(),
			CustomerID:      customerID,
			Amount:          models.MustMoney(balance),
			TransactionType: TransactionTypeCredit,
		},
	}
	return entry, histories
}

func newPayment(customerID models.ID, price string) *Payment {
	return &Payment{
		OrderID:    models.GenerateID(),
		CustomerID: customerID,
		Price:      models.MustMoney(price),
	}
}

func TestPaymentDomainService_ValidateAndInitiatePayment(t *testing.T) {
	service := NewPaymentDomainService()

	t.Run("sufficient credit completes the payment", func(t *testing.T) {
		entry, histories := newLedger("50.00")
		payment := newPayment(entry.CustomerID, "30.00")

		history, failureMessages := service.ValidateAndInitiatePayment(payment, entry, histories, nil)

		assert.Empty(t, failureMessages)
		assert.Equal(t, PaymentStatusCompleted, payment.Status)
		assert.False(t, payment.ID.IsZero())
		assert.Equal(t, "20.00", entry.TotalCreditAmount.String())
		assert.Equal(t, TransactionTypeDebit, history.TransactionType)
		assert.Equal(t, "30.00", history.Amount.String())

		require.Len(t, payment.Events(), 1)
		assert.Equal(t, events.PaymentCompletedEvent, payment.Events()[0].EventType)
	})

	t.Run("insufficient credit fails the payment", func(t *testing.T) {
		entry, histories := newLedger("10.00")
		payment := newPayment(entry.CustomerID, "30.00")

		_, failureMessages := service.ValidateAndInitiatePayment(payment, entry, histories, nil)

		require.NotEmpty(t, failureMessages)
		assert.Contains(t, failureMessages[0], "doesn't have enough credit for payment")
		assert.Equal(t, PaymentStatusFailed, payment.Status)

		require.Len(t, payment.Events(), 1)
		assert.Equal(t, events.PaymentFailedEvent, payment.Events()[0].EventType)
	})

	t.Run("ledger mismatch is reported", func(t *testing.T) {
		entry, histories := newLedger("50.00")
		// The stored balance disagrees with the history
		entry.TotalCreditAmount = models.MustMoney("60.00")
		payment := newPayment(entry.CustomerID, "30.00")

		_, failureMessages := service.ValidateAndInitiatePayment(payment, entry, histories, nil)

		require.NotEmpty(t, failureMessages)
		assert.Contains(t, failureMessages[0], "Credit history total is not equal to current credit")
		assert.Equal(t, PaymentStatusFailed, payment.Status)
	})

	t.Run("non positive price is a soft failure", func(t *testing.T) {
		entry, histories := newLedger("50.00")
		payment := newPayment(entry.CustomerID, "0.00")

		_, failureMessages := service.ValidateAndInitiatePayment(payment, entry, histories, nil)

		require.NotEmpty(t, failureMessages)
		assert.Equal(t, "Price must be greater than zero", failureMessages[0])
		assert.Equal(t, PaymentStatusFailed, payment.Status)
	})
}

func TestPaymentDomainService_ValidateAndCancelPayment(t *testing.T) {
	service := NewPaymentDomainService()

	t.Run("compensation restores the balance", func(t *testing.T) {
		entry, histories := newLedger("50.00")
		payment := newPayment(entry.CustomerID, "30.00")

		debit, failureMessages := service.ValidateAndInitiatePayment(payment, entry, histories, nil)
		require.Empty(t, failureMessages)
		histories = append(histories, debit)
		payment.ClearEvents()

		credit, failureMessages := service.ValidateAndCancelPayment(payment, entry, histories, nil)

		assert.Empty(t, failureMessages)
		assert.Equal(t, PaymentStatusCancelled, payment.Status)
		assert.Equal(t, "50.00", entry.TotalCreditAmount.String())
		assert.Equal(t, TransactionTypeCredit, credit.TransactionType)

		require.Len(t, payment.Events(), 1)
		assert.Equal(t, events.PaymentCancelledEvent, payment.Events()[0].EventType)
	})

	t.Run("ledger invariant holds across debit and credit", func(t *testing.T) {
		entry, histories := newLedger("50.00")
		payment := newPayment(entry.CustomerID, "30.00")

		debit, _ := service.ValidateAndInitiatePayment(payment, entry, histories, nil)
		histories = append(histories, debit)
		credit, _ := service.ValidateAndCancelPayment(payment, entry, histories, nil)
		histories = append(histories, credit)

		totalCredit := models.ZeroMoney
		totalDebit := models.ZeroMoney
		for _, h := range histories {
			if h.TransactionType == TransactionTypeCredit {
				totalCredit = totalCredit.Add(h.Amount)
			} else {
				totalDebit = totalDebit.Add(h.Amount)
			}
		}
		assert.True(t, entry.TotalCreditAmount.Equals(totalCredit.Subtract(totalDebit)))
	})
}
