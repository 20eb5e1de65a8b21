package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iho/opsledger/internal/domain"
)

// Saga step names for onboarding.
const (
	StepCreateEmployee = "employee"
	StepCreateUser     = "user"
	StepJoinDepartment = "department"
	StepMailRouting    = "mail-routing"
)

var errMailRoutingDisabled = errors.New("mail routing is not configured")

// EmployeeUseCase provisions employees across local storage and the
// external mail-routing service.
type EmployeeUseCase struct {
	txManager     TransactionManager
	employeeRepo  EmployeeRepository
	userRepo      UserRepository
	changeLogRepo ChangeLogRepository
	mailRouter    MailRouter
	saga          *Saga
	idGen         IDGenerator
	clock         Clock
	emailDomain   string
}

// NewEmployeeUseCase creates a new EmployeeUseCase. mailRouter may be nil,
// in which case routing is reported as not created.
func NewEmployeeUseCase(
	txManager TransactionManager,
	employeeRepo EmployeeRepository,
	userRepo UserRepository,
	changeLogRepo ChangeLogRepository,
	mailRouter MailRouter,
	saga *Saga,
	idGen IDGenerator,
	clock Clock,
	emailDomain string,
) *EmployeeUseCase {
	return &EmployeeUseCase{
		txManager:     txManager,
		employeeRepo:  employeeRepo,
		userRepo:      userRepo,
		changeLogRepo: changeLogRepo,
		mailRouter:    mailRouter,
		saga:          saga,
		idGen:         idGen,
		clock:         clock,
		emailDomain:   emailDomain,
	}
}

// CreateEmployeeInput represents input for onboarding an employee.
type CreateEmployeeInput struct {
	FirstName       string
	LastName        string
	PersonalEmail   string
	DepartmentID    string
	Position        string
	InitialPassword string
	Role            domain.Role
	Actor           string
}

// CreateEmployeeOutput is the result of onboarding.
type CreateEmployeeOutput struct {
	EmployeeID     string
	UserID         string
	CompanyEmail   string
	RoutingCreated bool
}

// CreateEmployee creates the employee, its login user and department
// membership, then asks the mail router to forward the company address to
// the personal one. A failed local step undoes the earlier ones; a failed
// routing call only sets RoutingCreated to false.
func (uc *EmployeeUseCase) CreateEmployee(ctx context.Context, input CreateEmployeeInput) (*CreateEmployeeOutput, error) {
	// 0. Validate inputs
	if err := uc.validate(&input); err != nil {
		return nil, err
	}

	// 1. Preconditions
	exists, err := uc.employeeRepo.DepartmentExists(ctx, input.DepartmentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrDepartmentNotFound.Withf("department %s not found", input.DepartmentID)
	}

	companyEmail, err := uc.allocateCompanyEmail(ctx, input.FirstName, input.LastName)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := hashPassword(input.InitialPassword)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now().UTC().Truncate(time.Microsecond)

	employee := &domain.Employee{
		ID:            uc.idGen.Generate(),
		FirstName:     strings.TrimSpace(input.FirstName),
		LastName:      strings.TrimSpace(input.LastName),
		PersonalEmail: strings.ToLower(strings.TrimSpace(input.PersonalEmail)),
		CompanyEmail:  companyEmail,
		DepartmentID:  input.DepartmentID,
		Position:      input.Position,
		Status:        domain.EmployeeActive,
		HiredAt:       domain.DateOf(now),
		CreatedBy:     input.Actor,
		CreatedAt:     now,
	}

	user := &domain.User{
		ID:           uc.idGen.Generate(),
		EmployeeID:   employee.ID,
		Email:        companyEmail,
		PasswordHash: hashedPassword,
		Role:         input.Role,
		Active:       true,
		CreatedAt:    now,
	}

	member := &domain.DepartmentMember{
		ID:           uc.idGen.Generate(),
		DepartmentID: input.DepartmentID,
		EmployeeID:   employee.ID,
		CreatedAt:    now,
	}

	// 2. Provision
	result, err := uc.saga.Run(ctx,
		LocalStep(StepCreateEmployee, func(ctx context.Context) (Compensation, error) {
			err := withTx(ctx, uc.txManager, func(tx Transaction) error {
				return uc.employeeRepo.Create(ctx, tx, employee)
			})
			if err != nil {
				return nil, err
			}

			return func(ctx context.Context) error {
				return withTx(ctx, uc.txManager, func(tx Transaction) error {
					return uc.employeeRepo.Delete(ctx, tx, employee.ID)
				})
			}, nil
		}),
		LocalStep(StepCreateUser, func(ctx context.Context) (Compensation, error) {
			err := withTx(ctx, uc.txManager, func(tx Transaction) error {
				return uc.userRepo.Create(ctx, tx, user)
			})
			if err != nil {
				return nil, err
			}

			return func(ctx context.Context) error {
				return withTx(ctx, uc.txManager, func(tx Transaction) error {
					return uc.userRepo.Delete(ctx, tx, user.ID)
				})
			}, nil
		}),
		LocalStep(StepJoinDepartment, func(ctx context.Context) (Compensation, error) {
			err := withTx(ctx, uc.txManager, func(tx Transaction) error {
				if err := uc.employeeRepo.AddToDepartment(ctx, tx, member); err != nil {
					return err
				}

				_, err := RecordChange(ctx, tx, uc.changeLogRepo, uc.idGen, now, ChangeInput{
					EntityType: domain.EntityEmployee,
					EntityID:   employee.ID,
					ChangeType: domain.ChangeTypeOnboard,
					After:      employee,
					Actor:      input.Actor,
				})
				return err
			})
			if err != nil {
				return nil, err
			}

			return func(ctx context.Context) error {
				return withTx(ctx, uc.txManager, func(tx Transaction) error {
					return uc.employeeRepo.RemoveFromDepartment(ctx, tx, member.ID)
				})
			}, nil
		}),
		ExternalStep(StepMailRouting, func(ctx context.Context) error {
			if uc.mailRouter == nil {
				return errMailRoutingDisabled
			}

			if err := uc.mailRouter.EnsureDestination(ctx, employee.PersonalEmail); err != nil {
				return fmt.Errorf("ensure destination: %w", err)
			}

			if _, err := uc.mailRouter.CreateRoutingRule(ctx, companyEmail, employee.PersonalEmail); err != nil {
				return fmt.Errorf("create routing rule: %w", err)
			}

			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return &CreateEmployeeOutput{
		EmployeeID:     employee.ID,
		UserID:         user.ID,
		CompanyEmail:   companyEmail,
		RoutingCreated: result.ExternalSucceeded(StepMailRouting),
	}, nil
}

func (uc *EmployeeUseCase) validate(input *CreateEmployeeInput) error {
	if err := domain.ValidateName("first name", input.FirstName); err != nil {
		return err
	}

	if err := domain.ValidateName("last name", input.LastName); err != nil {
		return err
	}

	if err := domain.ValidateEmail(input.PersonalEmail); err != nil {
		return err
	}

	if input.DepartmentID == "" {
		return domain.ErrMissingReference.Withf("department is required")
	}

	if err := domain.ValidatePassword(input.InitialPassword); err != nil {
		return err
	}

	if input.Role == "" {
		input.Role = domain.RoleViewer
	}
	if !input.Role.IsValid() {
		return domain.ErrInvalidInput.Withf("invalid role %q", input.Role)
	}

	return nil
}

// allocateCompanyEmail returns the first free first.last address, adding a
// numeric suffix while candidates are taken. The unique index on company
// email backs this check.
func (uc *EmployeeUseCase) allocateCompanyEmail(ctx context.Context, firstName, lastName string) (string, error) {
	local, err := domain.CompanyEmailLocalPart(firstName, lastName)
	if err != nil {
		return "", err
	}

	for n := 0; n < MaxCompanyEmailCandidates; n++ {
		candidate := domain.CompanyEmail(local, uc.emailDomain, n)

		taken, err := uc.employeeRepo.CompanyEmailTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", domain.ErrDuplicateCompanyEmail.Withf("no free company email for %s", local)
}

// hashPassword hashes a password using bcrypt
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
