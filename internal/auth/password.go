package auth

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password with bcrypt's default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. A mismatch is not an error.
func CheckPassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// dummyHash never matches a real password. Comparing against it makes an
// unknown account cost the same bcrypt work as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("no account matches this password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
})

// RejectPassword runs a full bcrypt comparison whose result is discarded.
func RejectPassword(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
}
