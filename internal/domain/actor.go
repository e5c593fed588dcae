package domain

import "fmt"

type Role string

const (
	RoleCustomer     Role = "customer"
	RoleAdmin        Role = "admin"
	RoleProfessional Role = "professional"
	RoleSupplier     Role = "supplier"
)

// ParseRole rejects anything outside the closed role set.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleCustomer, RoleAdmin, RoleProfessional, RoleSupplier:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Actor is the authenticated caller handed over by the identity collaborator.
// SupplierID is set only for supplier-role users.
type Actor struct {
	ID         uint64
	Role       Role
	SupplierID uint64
}

func (a *Actor) IsAdmin() bool { return a != nil && a.Role == RoleAdmin }

// Provenance records where a request came from.
type Provenance struct {
	IPAddress string
	UserAgent string
	RequestID string
}
