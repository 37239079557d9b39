package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a one-way salted hash. The cost is injected from
// config so tests can use the bcrypt minimum.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a candidate against a stored hash. bcrypt does
// the constant-time comparison.
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
