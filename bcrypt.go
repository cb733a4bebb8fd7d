package jobboard

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// OTPHashCost is lower than the password cost: codes live ten minutes
// and the verify path compares against every outstanding record.
const OTPHashCost = 10

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// RandomPasswordHash is a placeholder credential for OAuth-provisioned
// accounts that never log in with a password
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}

// GenerateOTP returns a 6-digit numeric code drawn from crypto/rand
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}

	code := n.Int64() + 100000
	return fmtOTP(code), nil
}

func fmtOTP(n int64) string {
	buf := [6]byte{}
	for i := 5; i >= 0; i-- {
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[:])
}

// HashOTP stores codes one-way; the plaintext only leaves the process
// inside the delivery email
func HashOTP(code string) (string, error) {
	if code == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(code), OTPHashCost)
	return string(h), err
}

// CompareOTP checks a candidate code against a stored hash
func CompareOTP(code, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
