package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Role defines employee permission level
type Role string

const (
	RoleAdmin    Role = "admin"    // Manage employees and documents
	RoleEmployee Role = "employee" // Chat with private scope, manage own data
)

// ParseRole converts user input into a Role. An empty value means employee.
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case "", RoleEmployee:
		return RoleEmployee, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: employee_type must be admin or employee", ErrInvalidInput)
	}
}

// Employee is an account that can sign in and chat against private documents
type Employee struct {
	ID           int64              `json:"id"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	PasswordHash string             `json:"-"` // Never serialize
	Role         Role               `json:"employee_type"`
	Addresses    []*EmployeeAddress `json:"addresses"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    *time.Time         `json:"updated_at,omitempty"`
}

// IsAdmin checks if the employee has admin privileges
func (e *Employee) IsAdmin() bool {
	return e.Role == RoleAdmin
}

// EmployeeSummary provides a safe view of employee data (no password hash)
type EmployeeSummary struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Role      Role               `json:"employee_type"`
	Addresses []*EmployeeAddress `json:"addresses"`
}

// ToSummary converts an Employee to EmployeeSummary
func (e *Employee) ToSummary() *EmployeeSummary {
	addresses := e.Addresses
	if addresses == nil {
		addresses = []*EmployeeAddress{}
	}
	return &EmployeeSummary{
		ID:        e.ID,
		Name:      e.Name,
		Email:     e.Email,
		Role:      e.Role,
		Addresses: addresses,
	}
}

// SignupRequest registers a new employee
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"employee_type"`
}

// Validate checks the signup payload
func (r SignupRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if len(r.Password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}
	return nil
}

// EmployeeUpdate is a partial update. Nil fields are left untouched, so an
// omitted field and an explicitly empty one are never confused.
type EmployeeUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Role  *Role   `json:"employee_type,omitempty"`
}

// IsEmpty reports whether the update sets no field
func (u EmployeeUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Role == nil
}

// Apply copies every set field onto e
func (u EmployeeUpdate) Apply(e *Employee) {
	if u.Name != nil {
		e.Name = *u.Name
	}
	if u.Email != nil {
		e.Email = *u.Email
	}
	if u.Role != nil {
		e.Role = *u.Role
	}
}

// EmployeeListQuery filters and pages the employee list
type EmployeeListQuery struct {
	Filter string
	Limit  int
	Page   int
}

// Normalize applies paging defaults
func (q *EmployeeListQuery) Normalize() {
	q.Limit, q.Page = normalizePaging(q.Limit, q.Page)
}

// EmployeePage is one page of employees
type EmployeePage struct {
	Meta      PageMeta           `json:"meta"`
	Employees []*EmployeeSummary `json:"employees"`
}

// EmployeeAddress is a postal address owned by an employee
type EmployeeAddress struct {
	ID         int64      `json:"id"`
	EmployeeID int64      `json:"employee_id"`
	Address    string     `json:"address"`
	City       string     `json:"city"`
	State      string     `json:"state"`
	ZipCode    string     `json:"zip_code"`
	IsDefault  bool       `json:"is_default"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// ValidateEmail checks the address is syntactically valid
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	return nil
}
