package auth

import "golang.org/x/crypto/bcrypt"

// PasswordVerifier checks a login attempt's plaintext password against the
// stored hash. It is an interface so handler tests can skip real hashing.
type PasswordVerifier interface {
	// Compare returns nil when password matches hashedPassword and an
	// error otherwise.
	Compare(hashedPassword, password string) error
}

// BcryptVerifier is the production PasswordVerifier. It verifies against
// the bcrypt hashes produced when users register.
type BcryptVerifier struct{}

// NewBcryptVerifier creates a new BcryptVerifier.
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{}
}

// Compare implements PasswordVerifier. bcrypt's comparison is constant-time
// over the password input.
func (v *BcryptVerifier) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
