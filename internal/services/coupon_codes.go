package services

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet excludes nothing: all upper-case letters and digits. 36^10
// codes keeps the collision probability low but not zero, which is why
// issuance runs the bounded retry protocol.
const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 10

	// maxCodeAttempts bounds the collision-retry loop in Issue.
	maxCodeAttempts = 10
)

// CodeGenerator produces candidate coupon codes. Uniqueness is the caller's
// responsibility; tests swap in colliding generators.
type CodeGenerator interface {
	Generate() (string, error)
}

type cryptoCodeGenerator struct{}

// NewCodeGenerator returns the default crypto/rand-backed generator.
func NewCodeGenerator() CodeGenerator {
	return &cryptoCodeGenerator{}
}

func (g *cryptoCodeGenerator) Generate() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate coupon code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
