package domain

import "github.com/google/uuid"

type Role string

const (
	RoleManager  Role = "manager"
	RoleCustomer Role = "customer"
)

// User is the identity supplied by the caller. Credentials and sessions live
// outside this module.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email" validate:"omitempty,email"`
	FirstName string    `json:"first_name" validate:"required,max=100"`
	LastName  string    `json:"last_name" validate:"required,max=100"`
	Role      Role      `json:"role" validate:"required,oneof=manager customer"`
}

func (u *User) IsManager() bool {
	return u != nil && u.Role == RoleManager
}
