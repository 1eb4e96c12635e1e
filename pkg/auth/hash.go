package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt cost used outside tests.
const DefaultHashCost = 12

// Hasher hashes and checks passwords with bcrypt.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher; a cost outside bcrypt's range falls back to
// DefaultHashCost.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultHashCost
	}
	return Hasher{Cost: cost}
}

// Hash returns the bcrypt hash of password.
func (h Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Check reports whether password matches hash.
func (h Hasher) Check(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NeedsRehash reports whether hash was made with a lower cost than h.
func (h Hasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return false
	}
	return cost < h.Cost
}
