package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driving"
)

// Ensure employeeService implements EmployeeService
var _ driving.EmployeeService = (*employeeService)(nil)

// employeeService implements the EmployeeService interface
type employeeService struct {
	employees    driven.EmployeeStore
	addresses    driven.AddressStore
	sessionStore driven.SessionStore
	authAdapter  driven.AuthAdapter
}

// NewEmployeeService creates a new EmployeeService
func NewEmployeeService(
	employees driven.EmployeeStore,
	addresses driven.AddressStore,
	sessionStore driven.SessionStore,
	authAdapter driven.AuthAdapter,
) driving.EmployeeService {
	return &employeeService{
		employees:    employees,
		addresses:    addresses,
		sessionStore: sessionStore,
		authAdapter:  authAdapter,
	}
}

// Signup registers an employee. Only the very first account may ask for
// the admin role; after that admins are promoted through Update.
func (s *employeeService) Signup(ctx context.Context, req domain.SignupRequest) (*domain.EmployeeSummary, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := req.Validate(); err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}

	if role == domain.RoleAdmin {
		_, total, err := s.employees.List(ctx, domain.EmployeeListQuery{Limit: 1, Page: 1})
		if err != nil {
			return nil, err
		}
		if total > 0 {
			return nil, fmt.Errorf("%w: only an admin can grant the admin role", domain.ErrAccessDenied)
		}
	}

	if _, err := s.employees.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", domain.ErrAlreadyExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := s.authAdapter.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	employee := &domain.Employee{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, err
	}
	return employee.ToSummary(), nil
}

// Get retrieves an employee with their addresses
func (s *employeeService) Get(ctx context.Context, id int64) (*domain.EmployeeSummary, error) {
	employee, err := s.employees.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	addresses, err := s.addresses.ListByEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	employee.Addresses = addresses
	return employee.ToSummary(), nil
}

// List retrieves one page of employees
func (s *employeeService) List(ctx context.Context, query domain.EmployeeListQuery) (*domain.EmployeePage, error) {
	query.Normalize()
	employees, total, err := s.employees.List(ctx, query)
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.EmployeeSummary, 0, len(employees))
	for _, e := range employees {
		summaries = append(summaries, e.ToSummary())
	}
	return &domain.EmployeePage{
		Meta: domain.PageMeta{
			CurrentItem: len(summaries),
			TotalItems:  total,
			Limit:       query.Limit,
			Page:        query.Page,
		},
		Employees: summaries,
	}, nil
}

// Update applies the fields set in update. Employees may edit themselves;
// only admins may edit others or change a role.
func (s *employeeService) Update(ctx context.Context, caller *domain.AuthContext, id int64, update domain.EmployeeUpdate) (*domain.EmployeeSummary, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	if !caller.CanManage(id) {
		return nil, domain.ErrAccessDenied
	}
	if update.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrInvalidInput)
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidInput)
		}
		update.Name = &name
	}
	if update.Role != nil {
		if !caller.IsAdmin() {
			return nil, fmt.Errorf("%w: only an admin can change employee_type", domain.ErrAccessDenied)
		}
		role, err := domain.ParseRole(string(*update.Role))
		if err != nil {
			return nil, err
		}
		update.Role = &role
	}

	employee, err := s.employees.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		if err := domain.ValidateEmail(email); err != nil {
			return nil, err
		}
		if email != employee.Email {
			if _, err := s.employees.GetByEmail(ctx, email); err == nil {
				return nil, fmt.Errorf("%w: email already registered", domain.ErrAlreadyExists)
			} else if !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
		}
		update.Email = &email
	}

	update.Apply(employee)
	now := time.Now()
	employee.UpdatedAt = &now
	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, err
	}

	// A role change invalidates the role baked into live tokens
	if update.Role != nil {
		_ = s.sessionStore.DeleteByEmployee(ctx, id)
	}
	return employee.ToSummary(), nil
}

// Delete removes an employee (self or admin)
func (s *employeeService) Delete(ctx context.Context, caller *domain.AuthContext, id int64) error {
	if caller == nil {
		return domain.ErrUnauthorized
	}
	if !caller.CanManage(id) {
		return domain.ErrAccessDenied
	}
	if _, err := s.employees.Get(ctx, id); err != nil {
		return err
	}

	// Invalidate all sessions first
	_ = s.sessionStore.DeleteByEmployee(ctx, id)

	return s.employees.Delete(ctx, id)
}

// AddAddress adds an address to an employee (self or admin)
func (s *employeeService) AddAddress(ctx context.Context, caller *domain.AuthContext, employeeID int64, req driving.AddressRequest) (*domain.EmployeeAddress, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	if !caller.CanManage(employeeID) {
		return nil, domain.ErrAccessDenied
	}
	if strings.TrimSpace(req.Address) == "" || strings.TrimSpace(req.City) == "" {
		return nil, fmt.Errorf("%w: address and city are required", domain.ErrInvalidInput)
	}
	if _, err := s.employees.Get(ctx, employeeID); err != nil {
		return nil, err
	}

	address := &domain.EmployeeAddress{
		EmployeeID: employeeID,
		Address:    strings.TrimSpace(req.Address),
		City:       strings.TrimSpace(req.City),
		State:      strings.TrimSpace(req.State),
		ZipCode:    strings.TrimSpace(req.ZipCode),
		IsDefault:  req.IsDefault,
	}
	if err := s.addresses.Create(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

// ListAddresses lists an employee's addresses
func (s *employeeService) ListAddresses(ctx context.Context, employeeID int64) ([]*domain.EmployeeAddress, error) {
	if _, err := s.employees.Get(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.addresses.ListByEmployee(ctx, employeeID)
}

// DeleteAddress removes an address (owner or admin)
func (s *employeeService) DeleteAddress(ctx context.Context, caller *domain.AuthContext, id int64) error {
	if caller == nil {
		return domain.ErrUnauthorized
	}
	address, err := s.addresses.Get(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanManage(address.EmployeeID) {
		return domain.ErrAccessDenied
	}
	return s.addresses.Delete(ctx, id)
}
