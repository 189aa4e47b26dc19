// Package random generates cryptographically secure random strings for
// temporary credentials and identifiers.
package random

import (
	"crypto/rand"
)

const (
	// PasswordLen is the length of generated onboarding passwords.
	PasswordLen = 8

	byteRange = 256
)

var (
	// Alphanumeric is the default character set.
	Alphanumeric = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

	// Unambiguous leaves out characters that are easily confused when read from a mail.
	Unambiguous = []byte("ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789")
)

// Password returns a random password of length n using unambiguous characters.
func Password(n int) string {
	return String(n, Unambiguous)
}

// String returns a random string of length n drawn from chars (2 to 256 characters).
// Bytes that would bias the distribution are rejected.
func String(n int, chars []byte) string {
	if n <= 0 {
		return ""
	}

	clen := len(chars)
	if clen < 2 || clen > byteRange {
		panic("random: wrong charset length")
	}

	// largest multiple of clen that fits in a byte
	limit := byteRange - (byteRange % clen)

	out := make([]byte, 0, n)
	buf := make([]byte, n+n/2+1)

	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			panic("random: error reading random bytes: " + err.Error())
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}

			out = append(out, chars[int(b)%clen])
			if len(out) == n {
				break
			}
		}
	}

	return string(out)
}
