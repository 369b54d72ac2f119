package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gaetanBloch/meal-order/customer-service/domain"
	"github.com/gaetanBloch/meal-order/customer-service/mocks"
	"github.com/gaetanBloch/meal-order/shared/events"
)

func TestCreateCustomer_Execute(t *testing.T) {
	tests := []struct {
		name          string
		command       *CreateCustomerCommand
		setupMocks    func(*mocks.MockCustomerRepository)
		expectedError string
	}{
		{
			name:    "successful customer creation",
			command: &CreateCustomerCommand{Username: "gbloch", FirstName: "Gaetan", LastName: "Bloch"},
			setupMocks: func(repo *mocks.MockCustomerRepository) {
				repo.On("Save", mock.Anything, mock.MatchedBy(func(customer *domain.Customer) bool {
					return !customer.ID.IsZero() &&
						len(customer.Events()) == 1 &&
						customer.Events()[0].EventType == events.CustomerCreatedEvent
				})).Return(nil).Once()
			},
		},
		{
			name:          "missing username",
			command:       &CreateCustomerCommand{FirstName: "Gaetan", LastName: "Bloch"},
			setupMocks:    func(*mocks.MockCustomerRepository) {},
			expectedError: "username is required",
		},
		{
			name:          "missing name",
			command:       &CreateCustomerCommand{Username: "gbloch"},
			setupMocks:    func(*mocks.MockCustomerRepository) {},
			expectedError: "first name and last name are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockCustomerRepository(t)
			tt.setupMocks(repo)

			useCase := NewCreateCustomer(repo, domain.NewCustomerDomainService())
			result, err := useCase.Execute(context.Background(), tt.command)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, result.CustomerID)
				assert.Equal(t, "gbloch", result.Username)
			}
		})
	}
}
