package driving

import (
	"context"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

// AddressRequest represents a new employee address
type AddressRequest struct {
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	IsDefault bool   `json:"is_default"`
}

// EmployeeService manages employee accounts and addresses.
// Every mutating call takes the caller's auth context explicitly.
type EmployeeService interface {
	// Signup registers a new employee
	Signup(ctx context.Context, req domain.SignupRequest) (*domain.EmployeeSummary, error)

	// Get retrieves an employee with their addresses
	Get(ctx context.Context, id int64) (*domain.EmployeeSummary, error)

	// List retrieves one page of employees
	List(ctx context.Context, query domain.EmployeeListQuery) (*domain.EmployeePage, error)

	// Update applies a partial update. Only admins may grant the admin role.
	Update(ctx context.Context, caller *domain.AuthContext, id int64, update domain.EmployeeUpdate) (*domain.EmployeeSummary, error)

	// Delete removes an employee (self or admin)
	Delete(ctx context.Context, caller *domain.AuthContext, id int64) error

	// AddAddress adds an address to an employee (self or admin)
	AddAddress(ctx context.Context, caller *domain.AuthContext, employeeID int64, req AddressRequest) (*domain.EmployeeAddress, error)

	// ListAddresses lists an employee's addresses
	ListAddresses(ctx context.Context, employeeID int64) ([]*domain.EmployeeAddress, error)

	// DeleteAddress removes an address (owner or admin)
	DeleteAddress(ctx context.Context, caller *domain.AuthContext, id int64) error
}
