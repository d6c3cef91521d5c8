package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// CSRFTokenField is the form field every state-changing form must carry.
const CSRFTokenField = "csrf_token"

const csrfTokenBytes = 32

func newCSRFToken() (string, error) {
	buf := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("unable to generate csrf token, cause %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// VerifyCSRFToken compares the session token against the submitted one in
// constant time. An empty session token never verifies.
func VerifyCSRFToken(sessionToken, supplied string) bool {
	if sessionToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sessionToken), []byte(supplied)) == 1
}
