package crypto

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum accepted password length at registration.
const MinPasswordLength = 8

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ValidatePassword checks the registration password policy: minimum length,
// at least one digit and at least one uppercase letter. Non-alphanumeric
// characters are not required. The returned reasons are human-readable and
// empty when the password is acceptable.
func ValidatePassword(password string) []string {
	var reasons []string
	if len(password) < MinPasswordLength {
		reasons = append(reasons, "password must be at least 8 characters long")
	}
	var hasDigit, hasUpper bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}
	if !hasDigit {
		reasons = append(reasons, "password must contain at least one digit")
	}
	if !hasUpper {
		reasons = append(reasons, "password must contain at least one uppercase letter")
	}
	return reasons
}
