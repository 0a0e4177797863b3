package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/aq2208/growcery-api/internal/entity"
	"github.com/aq2208/growcery-api/internal/logging"
)

type SignupInput struct {
	FirstName  string
	MiddleName string
	LastName   string
	Email      string
	Password   string
}

type Accounts struct {
	users     UserRepo
	carts     CartRepo
	passwords PasswordHasher
	tokens    TokenIssuer
}

func NewAccounts(users UserRepo, carts CartRepo, passwords PasswordHasher, tokens TokenIssuer) *Accounts {
	return &Accounts{users: users, carts: carts, passwords: passwords, tokens: tokens}
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Signup registers a customer and returns an access token for it.
func (a *Accounts) Signup(ctx context.Context, in SignupInput) (string, error) {
	in.Email = normalizeEmail(in.Email)
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" {
		return "", domain.Errorf(domain.ErrInvalidArgument, "All fields are required")
	}

	if _, err := a.users.GetByEmail(ctx, in.Email); err == nil {
		return "", domain.Errorf(domain.ErrConflict, "User already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	u, err := a.create(ctx, in, domain.RoleCustomer)
	if err != nil {
		return "", err
	}
	return a.tokens.Issue(identityOf(u))
}

func (a *Accounts) create(ctx context.Context, in SignupInput, role domain.Role) (*domain.User, error) {
	hash, err := a.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		FirstName:    in.FirstName,
		MiddleName:   in.MiddleName,
		LastName:     in.LastName,
		Role:         role,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := a.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Errorf(domain.ErrConflict, "User already exists")
		}
		return nil, err
	}
	return u, nil
}

func (a *Accounts) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", domain.Errorf(domain.ErrInvalidArgument, "Email and password are required")
	}
	u, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		return "", notFoundAs(err, "User not found")
	}
	ok, err := a.passwords.Check(u.PasswordHash, password)
	if err != nil {
		return "", fmt.Errorf("check password: %w", err)
	}
	if !ok {
		return "", domain.Errorf(domain.ErrUnauthenticated, "Invalid credentials")
	}
	return a.tokens.Issue(identityOf(u))
}

func (a *Accounts) List(ctx context.Context) ([]domain.User, error) {
	return a.users.List(ctx)
}

// Delete removes a customer account and its cart. Admin accounts cannot be deleted.
func (a *Accounts) Delete(ctx context.Context, userID string) error {
	u, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return notFoundAs(err, "User not found")
	}
	if u.Role == domain.RoleAdmin {
		return domain.Errorf(domain.ErrForbidden, "Cannot delete admin accounts")
	}
	if err := a.users.Delete(ctx, u.ID); err != nil {
		return notFoundAs(err, "User not found")
	}
	if err := a.carts.Clear(ctx, u.ID); err != nil {
		logging.FromCtx(ctx).Warn("clear cart of deleted user failed", "user_id", u.ID, "err", err)
	}
	return nil
}

// EnsureAdmin creates the admin account if no user holds the email yet.
// An existing account is left untouched.
func (a *Accounts) EnsureAdmin(ctx context.Context, in SignupInput) (created bool, err error) {
	in.Email = normalizeEmail(in.Email)
	if in.Email == "" || in.Password == "" {
		return false, domain.Errorf(domain.ErrInvalidArgument, "admin email and password are required")
	}
	if _, err := a.users.GetByEmail(ctx, in.Email); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	if in.FirstName == "" {
		in.FirstName = "Store"
	}
	if in.LastName == "" {
		in.LastName = "Admin"
	}
	if _, err := a.create(ctx, in, domain.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}

func identityOf(u *domain.User) domain.Identity {
	return domain.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}
