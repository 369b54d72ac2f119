package domain

import (
	"context"
	"log"

	"github.com/gaetanBloch/meal-order/shared/events"
	"github.com/gaetanBloch/meal-order/shared/models"
)

// PaymentDomainService sequences the payment and credit ledger operations.
// Business-rule violations accumulate as failure messages and drive the
// payment to FAILED; they never abort the sequence.
type PaymentDomainService struct{}

// NewPaymentDomainService creates a new PaymentDomainService
func NewPaymentDomainService() *PaymentDomainService {
	return &PaymentDomainService{}
}

// ValidateAndInitiatePayment runs the debit side of the saga: validate the
// payment, initialize it, check and debit the customer's credit, append a
// DEBIT history entry, and reconcile the ledger. The debit is applied
// unconditionally; failures surface as messages on the payment.failed event,
// and the caller persists the ledger only when the payment completed.
// Returns the appended history entry and the accumulated failure messages.
func (s *PaymentDomainService) ValidateAndInitiatePayment(
	payment *Payment,
	creditEntry *CreditEntry,
	creditHistories []*CreditHistory,
	failureMessages []string,
) (*CreditHistory, []string) {
	failureMessages = payment.validatePayment(failureMessages)
	payment.initialize()
	failureMessages = s.validateCreditEntry(payment, creditEntry, failureMessages)
	creditEntry.SubtractCreditAmount(payment.Price)
	history := s.newCreditHistory(payment, TransactionTypeDebit)
	creditHistories = append(creditHistories, history)
	failureMessages = s.validateCreditHistory(creditEntry, creditHistories, failureMessages)

	if len(failureMessages) == 0 {
		log.Printf("Payment is initiated for order id: %s", payment.OrderID.String())
		payment.updateStatus(PaymentStatusCompleted)
		payment.recordEvent(events.NewEvent(payment.ID, events.AggregateTypePayment,
			events.PaymentCompletedEvent, events.SourcePaymentService, PaymentCompletedData{
				PaymentID:  payment.ID,
				OrderID:    payment.OrderID,
				CustomerID: payment.CustomerID,
				Price:      payment.Price,
				CreatedAt:  payment.CreatedAt,
			}))
	} else {
		log.Printf("Payment initiation failed for order id: %s", payment.OrderID.String())
		payment.updateStatus(PaymentStatusFailed)
		payment.recordEvent(events.NewEvent(payment.ID, events.AggregateTypePayment,
			events.PaymentFailedEvent, events.SourcePaymentService, PaymentFailedData{
				PaymentID:       payment.ID,
				OrderID:         payment.OrderID,
				CustomerID:      payment.CustomerID,
				Price:           payment.Price,
				FailureMessages: failureMessages,
			}))
	}
	return history, failureMessages
}

// ValidateAndCancelPayment runs the compensating side: credit the amount
// back, append a CREDIT history entry and reconcile the ledger again.
func (s *PaymentDomainService) ValidateAndCancelPayment(
	payment *Payment,
	creditEntry *CreditEntry,
	creditHistories []*CreditHistory,
	failureMessages []string,
) (*CreditHistory, []string) {
	failureMessages = payment.validatePayment(failureMessages)
	creditEntry.AddCreditAmount(payment.Price)
	history := s.newCreditHistory(payment, TransactionTypeCredit)
	creditHistories = append(creditHistories, history)
	failureMessages = s.validateCreditHistory(creditEntry, creditHistories, failureMessages)

	if len(failureMessages) == 0 {
		log.Printf("Payment is cancelled for order id: %s", payment.OrderID.String())
		payment.updateStatus(PaymentStatusCancelled)
		payment.recordEvent(events.NewEvent(payment.ID, events.AggregateTypePayment,
			events.PaymentCancelledEvent, events.SourcePaymentService, PaymentCancelledData{
				PaymentID:  payment.ID,
				OrderID:    payment.OrderID,
				CustomerID: payment.CustomerID,
				Price:      payment.Price,
			}))
	} else {
		log.Printf("Payment cancellation failed for order id: %s", payment.OrderID.String())
		payment.updateStatus(PaymentStatusFailed)
		payment.recordEvent(events.NewEvent(payment.ID, events.AggregateTypePayment,
			events.PaymentFailedEvent, events.SourcePaymentService, PaymentFailedData{
				PaymentID:       payment.ID,
				OrderID:         payment.OrderID,
				CustomerID:      payment.CustomerID,
				Price:           payment.Price,
				FailureMessages: failureMessages,
			}))
	}
	return history, failureMessages
}

func (s *PaymentDomainService) validateCreditEntry(payment *Payment, creditEntry *CreditEntry, failureMessages []string) []string {
	if payment.Price.IsGreaterThan(creditEntry.TotalCreditAmount) {
		log.Printf("Customer with id: %s doesn't have enough credit for payment", payment.CustomerID.String())
		failureMessages = append(failureMessages,
			"Customer with id="+payment.CustomerID.String()+" doesn't have enough credit for payment!")
	}
	return failureMessages
}

func (s *PaymentDomainService) newCreditHistory(payment *Payment, transactionType TransactionType) *CreditHistory {
	return &CreditHistory{
		ID:              models.GenerateID(),
		CustomerID:      payment.CustomerID,
		Amount:          payment.Price,
		TransactionType: transactionType,
	}
}

// validateCreditHistory checks the ledger identity: the running balance must
// equal total credits minus total debits, and debits must never exceed
// credits. Violations are reported but the in-memory mutation stands; the
// selective-persist rule keeps the stored ledger clean.
func (s *PaymentDomainService) validateCreditHistory(creditEntry *CreditEntry, creditHistories []*CreditHistory, failureMessages []string) []string {
	totalCreditHistory := s.totalHistoryAmount(creditHistories, TransactionTypeCredit)
	totalDebitHistory := s.totalHistoryAmount(creditHistories, TransactionTypeDebit)

	if totalDebitHistory.IsGreaterThan(totalCreditHistory) {
		log.Printf("Customer with id: %s doesn't have enough credit according to credit history", creditEntry.CustomerID.String())
		failureMessages = append(failureMessages,
			"Customer with id="+creditEntry.CustomerID.String()+" doesn't have enough credit according to credit history!")
	}

	if !creditEntry.TotalCreditAmount.Equals(totalCreditHistory.Subtract(totalDebitHistory)) {
		log.Printf("Credit history total is not equal to current credit for customer id: %s", creditEntry.CustomerID.String())
		failureMessages = append(failureMessages,
			"Credit history total is not equal to current credit for customer id: "+creditEntry.CustomerID.String()+"!")
	}
	return failureMessages
}

func (s *PaymentDomainService) totalHistoryAmount(creditHistories []*CreditHistory, transactionType TransactionType) models.Money {
	total := models.ZeroMoney
	for _, history := range creditHistories {
		if history.TransactionType == transactionType {
			total = total.Add(history.Amount)
		}
	}
	return total
}

// Repository interfaces
type PaymentRepository interface {
	// Save persists the payment row and its recorded events only; used when
	// the payment failed and the ledger mutation must not be committed.
	Save(ctx context.Context, payment *Payment) error
	// SaveWithLedger persists the payment, the updated credit entry and the
	// appended history entry in one transaction.
	SaveWithLedger(ctx context.Context, payment *Payment, creditEntry *CreditEntry, history *CreditHistory) error
	FindByOrderID(ctx context.Context, orderID models.ID) (*Payment, error)
}

type CreditEntryRepository interface {
	FindByCustomerID(ctx context.Context, customerID models.ID) (*CreditEntry, error)
}

type CreditHistoryRepository interface {
	FindByCustomerID(ctx context.Context, customerID models.ID) ([]*CreditHistory, error)
}
