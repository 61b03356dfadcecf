package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCodeShape(t *testing.T) {
	gen := NewCodeGenerator()
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		code, err := gen.Generate()
		assert.NoError(t, err)
		assert.Len(t, code, codeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected rune %q in code %s", r, code)
		}
		seen[code] = struct{}{}
	}
	// 36^10 codes: 100 draws colliding would point at a broken generator.
	assert.Len(t, seen, 100)
}
