package driven

import (
	"context"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

// EmployeeStore handles employee persistence
type EmployeeStore interface {
	// Create inserts an employee and sets its ID and CreatedAt
	Create(ctx context.Context, employee *domain.Employee) error

	// Get retrieves an employee by ID
	Get(ctx context.Context, id int64) (*domain.Employee, error)

	// GetByEmail retrieves an employee by email
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)

	// List returns one page of employees and the total number of matches
	List(ctx context.Context, query domain.EmployeeListQuery) ([]*domain.Employee, int, error)

	// Update saves name, email, role and password hash
	Update(ctx context.Context, employee *domain.Employee) error

	// Delete removes an employee and their addresses
	Delete(ctx context.Context, id int64) error
}

// AddressStore handles employee address persistence
type AddressStore interface {
	// Create inserts an address. A default address clears the previous default.
	Create(ctx context.Context, address *domain.EmployeeAddress) error

	// Get retrieves an address by ID
	Get(ctx context.Context, id int64) (*domain.EmployeeAddress, error)

	// ListByEmployee lists an employee's addresses, default first
	ListByEmployee(ctx context.Context, employeeID int64) ([]*domain.EmployeeAddress, error)

	// Delete removes an address
	Delete(ctx context.Context, id int64) error
}
