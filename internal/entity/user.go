package domain

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID           string
	FirstName    string
	MiddleName   string
	LastName     string
	Role         Role
	Email        string
	PasswordHash string
}

// Identity is the authenticated caller, decoded from the bearer token.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// CartLine is one product in a user's cart. (UserID, ProductID) is unique.
type CartLine struct {
	UserID    string
	ProductID string
	Quantity  int
	AddedAt   time.Time
}
