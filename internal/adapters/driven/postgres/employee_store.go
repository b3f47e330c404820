package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.EmployeeStore = (*EmployeeStore)(nil)
	_ driven.AddressStore  = (*AddressStore)(nil)
)

// EmployeeStore implements driven.EmployeeStore using PostgreSQL
type EmployeeStore struct {
	db *DB
}

// NewEmployeeStore creates a new EmployeeStore
func NewEmployeeStore(db *DB) *EmployeeStore {
	return &EmployeeStore{db: db}
}

const employeeColumns = `id, name, email, password, employee_type, created_at, updated_at`

// Create inserts an employee
func (s *EmployeeStore) Create(ctx context.Context, e *domain.Employee) error {
	query := `
		INSERT INTO employees (name, email, password, employee_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		e.Name,
		e.Email,
		e.PasswordHash,
		string(e.Role),
	).Scan(&e.ID, &e.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: email %s", domain.ErrAlreadyExists, e.Email)
	}
	return err
}

// Get retrieves an employee by ID
func (s *EmployeeStore) Get(ctx context.Context, id int64) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	e, err := scanEmployee(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// GetByEmail retrieves an employee by email, ignoring case
func (s *EmployeeStore) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE LOWER(email) = LOWER($1)`
	e, err := scanEmployee(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// List returns one page of employees and the total number of matches
func (s *EmployeeStore) List(ctx context.Context, q domain.EmployeeListQuery) ([]*domain.Employee, int, error) {
	q.Normalize()

	where := ""
	var args []any
	if filter := strings.TrimSpace(q.Filter); filter != "" {
		args = append(args, "%"+escapeLike(filter)+"%")
		where = ` WHERE (name ILIKE $1 OR email ILIKE $1)`
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM employees%s ORDER BY id ASC LIMIT $%d OFFSET $%d`,
		employeeColumns, where, len(args)+1, len(args)+2)
	args = append(args, q.Limit, (q.Page-1)*q.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	employees := make([]*domain.Employee, 0, q.Limit)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return employees, total, nil
}

// Update saves name, email, role and password hash
func (s *EmployeeStore) Update(ctx context.Context, e *domain.Employee) error {
	query := `
		UPDATE employees
		SET name = $2, email = $3, employee_type = $4, password = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	var updatedAt sql.Null[time.Time]
	err := s.db.QueryRowContext(ctx, query,
		e.ID,
		e.Name,
		e.Email,
		string(e.Role),
		e.PasswordHash,
	).Scan(&updatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: email %s", domain.ErrAlreadyExists, e.Email)
	}
	if err != nil {
		return notFound(err)
	}
	e.UpdatedAt = fromNull(updatedAt)
	return nil
}

// Delete deletes an employee; addresses and sessions cascade
func (s *EmployeeStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return rowsAffected(result)
}

func scanEmployee(row rowScanner) (*domain.Employee, error) {
	var e domain.Employee
	var role string
	var updatedAt sql.Null[time.Time]
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &e.PasswordHash, &role, &e.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	e.Role = domain.Role(role)
	e.UpdatedAt = fromNull(updatedAt)
	return &e, nil
}

// AddressStore implements driven.AddressStore using PostgreSQL
type AddressStore struct {
	db *DB
}

// NewAddressStore creates a new AddressStore
func NewAddressStore(db *DB) *AddressStore {
	return &AddressStore{db: db}
}

const addressColumns = `id, employee_id, address, city, state, zip_code, is_default, created_at, updated_at`

// Create inserts an address. A new default clears the previous one in the
// same transaction.
func (s *AddressStore) Create(ctx context.Context, a *domain.EmployeeAddress) error {
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if a.IsDefault {
			_, err := tx.ExecContext(ctx, `
				UPDATE employee_addresses SET is_default = FALSE, updated_at = NOW()
				WHERE employee_id = $1 AND is_default
			`, a.EmployeeID)
			if err != nil {
				return err
			}
		}

		return tx.QueryRowContext(ctx, `
			INSERT INTO employee_addresses (employee_id, address, city, state, zip_code, is_default)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`, a.EmployeeID, a.Address, a.City, a.State, a.ZipCode, a.IsDefault,
		).Scan(&a.ID, &a.CreatedAt)
	})
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: employee %d", domain.ErrNotFound, a.EmployeeID)
	}
	return err
}

// Get retrieves an address by ID
func (s *AddressStore) Get(ctx context.Context, id int64) (*domain.EmployeeAddress, error) {
	query := `SELECT ` + addressColumns + ` FROM employee_addresses WHERE id = $1`
	a, err := scanAddress(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// ListByEmployee lists an employee's addresses, default first
func (s *AddressStore) ListByEmployee(ctx context.Context, employeeID int64) ([]*domain.EmployeeAddress, error) {
	query := `SELECT ` + addressColumns + ` FROM employee_addresses
		WHERE employee_id = $1
		ORDER BY is_default DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	addresses := []*domain.EmployeeAddress{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

// Delete deletes an address
func (s *AddressStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM employee_addresses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return rowsAffected(result)
}

func scanAddress(row rowScanner) (*domain.EmployeeAddress, error) {
	var a domain.EmployeeAddress
	var address, city, state, zip sql.NullString
	var updatedAt sql.Null[time.Time]
	err := row.Scan(&a.ID, &a.EmployeeID, &address, &city, &state, &zip, &a.IsDefault, &a.CreatedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	a.Address = address.String
	a.City = city.String
	a.State = state.String
	a.ZipCode = zip.String
	a.UpdatedAt = fromNull(updatedAt)
	return &a, nil
}
