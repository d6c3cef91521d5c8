package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword derives a salted bcrypt hash safe to store in a text
// column. The plaintext never leaves this function in any other form.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("unable to hash password, cause %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks password against a stored hash. Wrong passwords
// and corrupt hashes both come back as plain false; bcrypt itself provides
// the timing discipline.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
