package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 10

func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), passwordCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword returns (false, nil) on a mismatch and an error only for a corrupt hash.
func CheckPassword(hash, plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Bcrypt adapts the helpers above to usecase.PasswordHasher.
type Bcrypt struct{}

func (Bcrypt) Hash(plain string) (string, error)      { return HashPassword(plain) }
func (Bcrypt) Check(hash, plain string) (bool, error) { return CheckPassword(hash, plain) }
