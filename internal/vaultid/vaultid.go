// Package vaultid mints the short human-readable codes shown to users:
// an 8-character vault ID (VID) per user and a 12-character vault
// transaction ID (VTID) per transaction. Codes are opaque and unordered.
package vaultid

import (
	"context"
	"crypto/rand"
	"fmt"
)

const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	UserLength        = 8
	TransactionLength = 12
)

// ExistsFunc reports whether a code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

type Generator struct {
	length int
	exists ExistsFunc
}

func New(length int, exists ExistsFunc) *Generator {
	return &Generator{length: length, exists: exists}
}

// Generate retries until it finds a code not present in the store.
// Collisions are rare at these lengths but the loop is unbounded on purpose.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for {
		code, err := randomCode(g.length)
		if err != nil {
			return "", err
		}
		taken, err := g.exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code uniqueness: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := make([]byte, length)
	for i, b := range buf {
		code[i] = Alphabet[int(b)%len(Alphabet)]
	}
	return string(code), nil
}
