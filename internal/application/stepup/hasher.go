package stepup

import (
	"crypto/subtle"
	"fmt"

	"github.com/alexedwards/argon2id"
)

// Hasher turns a PIN into its stored form and checks a candidate against it.
type Hasher interface {
	Hash(pin string) (string, error)
	Compare(stored, pin string) (bool, error)
}

// NewHasher returns the hasher registered under name.
func NewHasher(name string) (Hasher, error) {
	switch name {
	case "", "argon2id":
		return Argon2idHasher{}, nil
	case "plain":
		return PlainHasher{}, nil
	}
	return nil, fmt.Errorf("unknown pin hasher %q", name)
}

type Argon2idHasher struct{}

func (Argon2idHasher) Hash(pin string) (string, error) {
	return argon2id.CreateHash(pin, argon2id.DefaultParams)
}

func (Argon2idHasher) Compare(stored, pin string) (bool, error) {
	return argon2id.ComparePasswordAndHash(pin, stored)
}

// PlainHasher stores the PIN as-is. Only for compatibility with records
// written by older clients.
type PlainHasher struct{}

func (PlainHasher) Hash(pin string) (string, error) { return pin, nil }

func (PlainHasher) Compare(stored, pin string) (bool, error) {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(pin)) == 1, nil
}
