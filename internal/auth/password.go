package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher is a bcrypt based one-way password hasher. The salt and cost are
// embedded in every digest it produces.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(password string) (string, error) {
	const op = "auth.Hasher.Hash"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// Verify never fails loudly: a mismatch and a malformed digest both yield false.
func (h *Hasher) Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
