package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// EmployeeStatus is the employment state.
type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
)

// EntityEmployee is the entity type recorded on onboarding change logs.
const EntityEmployee = "employee"

// Employee is a staff member provisioned by onboarding.
type Employee struct {
	ID            string
	FirstName     string
	LastName      string
	PersonalEmail string
	CompanyEmail  string
	DepartmentID  string
	Position      string
	Status        EmployeeStatus
	HiredAt       time.Time
	CreatedBy     string
	CreatedAt     time.Time
}

// TrackedState implements Trackable. The department is audited as location.
func (e *Employee) TrackedState() TrackedState {
	if e == nil {
		return TrackedState{}
	}
	return TrackedState{Status: string(e.Status), Location: e.DepartmentID}
}

// DepartmentMember links an employee to a department.
type DepartmentMember struct {
	ID           string
	DepartmentID string
	EmployeeID   string
	CreatedAt    time.Time
}

// CompanyEmailLocalPart derives "first.last" from a name, keeping ASCII
// letters and digits only.
func CompanyEmailLocalPart(firstName, lastName string) (string, error) {
	first := emailToken(firstName)
	last := emailToken(lastName)

	switch {
	case first != "" && last != "":
		return first + "." + last, nil
	case first != "":
		return first, nil
	case last != "":
		return last, nil
	}

	return "", ErrCannotDeriveEmail.Withf("cannot derive company email from %q %q", firstName, lastName)
}

// CompanyEmail renders the n-th candidate address for local at domain.
// The first candidate has no suffix; later ones append n+1.
func CompanyEmail(local, domain string, n int) string {
	if n == 0 {
		return fmt.Sprintf("%s@%s", local, domain)
	}
	return fmt.Sprintf("%s%d@%s", local, n+1, domain)
}

func emailToken(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
