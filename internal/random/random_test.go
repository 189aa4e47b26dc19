package random

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPassword(t *testing.T) {
	seen := map[string]bool{}

	for range 100 {
		p := Password(PasswordLen)
		assert.Len(t, p, PasswordLen)

		for _, c := range []byte(p) {
			assert.True(t, bytes.IndexByte(Unambiguous, c) >= 0, "unexpected character %q", c)
		}

		seen[p] = true
	}

	assert.Greater(t, len(seen), 95)
}

func TestString(t *testing.T) {
	assert.Empty(t, String(0, Alphanumeric))
	assert.Len(t, String(1000, []byte("ab")), 1000)

	assert.Panics(t, func() { String(4, []byte("a")) })
}

func TestStringDistribution(t *testing.T) {
	chars := []byte("abc")
	counts := map[byte]int{}

	for _, c := range []byte(String(30000, chars)) {
		counts[c]++
	}

	for _, c := range chars {
		assert.InDelta(t, 10000, counts[c], 1000)
	}
}
