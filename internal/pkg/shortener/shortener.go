package shortener

import (
	"crypto/rand"
	"fmt"
)

// Slugs are lower case, so the suffix alphabet is too
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateSecureSlug creates a cryptographically secure random base36 string.
func GenerateSecureSlug(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid slug length: %d", length)
	}

	// rejection sampling avoids modulo bias; 252 is the largest multiple of 36 below 256
	const maxRandomByte = 252

	slug := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}

		for _, b := range buf {
			if b >= maxRandomByte {
				continue
			}
			slug[written] = alphabet[int(b)%len(alphabet)]
			written++
			if written == length {
				break
			}
		}
	}

	return string(slug), nil
}

// UniqueSlug returns base when it is free, otherwise base plus a random
// suffix. exists reports whether a candidate is taken.
func UniqueSlug(base string, exists func(string) (bool, error)) (string, error) {
	taken, err := exists(base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}

	for i := 0; i < 5; i++ {
		suffix, err := GenerateSecureSlug(4)
		if err != nil {
			return "", err
		}
		candidate := base + "-" + suffix
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free slug for %q", base)
}
