package postgres

import (
	"context"

	"github.com/iho/opsledger/internal/domain"
	"github.com/iho/opsledger/internal/usecase"
)

// EmployeeRepository implements usecase.EmployeeRepository.
type EmployeeRepository struct {
	pool DB
}

// NewEmployeeRepository creates a new EmployeeRepository.
func NewEmployeeRepository(pool DB) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// DepartmentExists reports whether the department exists.
func (r *EmployeeRepository) DepartmentExists(ctx context.Context, departmentID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM departments WHERE id = $1)`, departmentID).Scan(&exists)
	return exists, err
}

// CompanyEmailTaken reports whether an employee already holds email.
func (r *EmployeeRepository) CompanyEmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM employees WHERE company_email = $1)`, email).Scan(&taken)
	return taken, err
}

// Create inserts an employee. A taken company email fails with
// domain.ErrDuplicateCompanyEmail.
func (r *EmployeeRepository) Create(ctx context.Context, tx usecase.Transaction, employee *domain.Employee) error {
	pgxTx, err := mustTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO employees (
			id, first_name, last_name, personal_email, company_email, department_id,
			position, status, hired_at, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = pgxTx.Exec(ctx, query,
		employee.ID,
		employee.FirstName,
		employee.LastName,
		employee.PersonalEmail,
		employee.CompanyEmail,
		employee.DepartmentID,
		employee.Position,
		string(employee.Status),
		employee.HiredAt,
		employee.CreatedBy,
		employee.CreatedAt,
	)

	return mapError(err)
}

// Delete removes an employee.
func (r *EmployeeRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	pgxTx, err := mustTx(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	return err
}

// AddToDepartment links an employee to a department.
func (r *EmployeeRepository) AddToDepartment(ctx context.Context, tx usecase.Transaction, member *domain.DepartmentMember) error {
	pgxTx, err := mustTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO department_members (id, department_id, employee_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err = pgxTx.Exec(ctx, query, member.ID, member.DepartmentID, member.EmployeeID, member.CreatedAt)
	return mapError(err)
}

// RemoveFromDepartment deletes a department link.
func (r *EmployeeRepository) RemoveFromDepartment(ctx context.Context, tx usecase.Transaction, memberID string) error {
	pgxTx, err := mustTx(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `DELETE FROM department_members WHERE id = $1`, memberID)
	return err
}

// UserRepository implements usecase.UserRepository.
type UserRepository struct {
	pool DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(pool DB) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, tx usecase.Transaction, user *domain.User) error {
	pgxTx, err := mustTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (id, employee_id, email, password_hash, role, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = pgxTx.Exec(ctx, query,
		user.ID,
		user.EmployeeID,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.Active,
		user.CreatedAt,
	)

	return mapError(err)
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	pgxTx, err := mustTx(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}
