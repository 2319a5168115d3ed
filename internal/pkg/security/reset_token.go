package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ResetTokenTTL is how long a password reset link stays valid
const ResetTokenTTL = 1800 * time.Second

const resetPurpose = "password-reset"

var (
	ErrMissingSecret = errors.New("secret is required for reset tokens")
	ErrInvalidToken  = errors.New("invalid or expired reset token")
)

// ResetClaims carries the user id in the subject. The password hash
// fingerprint ties the token to the current password so a used link stops
// working once the password changes.
type ResetClaims struct {
	Purpose     string `json:"purpose"`
	Fingerprint string `json:"fp,omitempty"`
	jwt.RegisteredClaims
}

// GenerateResetToken signs an HS256 token for the user.
func GenerateResetToken(userID uint, passwordHash, secret string, now time.Time) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	claims := ResetClaims{
		Purpose:     resetPurpose,
		Fingerprint: fingerprint(passwordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ResetTokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	return token, nil
}

// ParseResetToken returns the user id of a valid token. Call
// MatchesPassword with the user's current hash before accepting it.
func ParseResetToken(token, secret string, now time.Time) (uint, *ResetClaims, error) {
	if secret == "" {
		return 0, nil, ErrMissingSecret
	}
	claims := &ResetClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil || claims.Purpose != resetPurpose {
		return 0, nil, ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, nil, ErrInvalidToken
	}
	return uint(id), claims, nil
}

// MatchesPassword reports whether the token was issued for this password hash.
func (c *ResetClaims) MatchesPassword(passwordHash string) bool {
	return c.Fingerprint == fingerprint(passwordHash)
}

func fingerprint(hash string) string {
	if len(hash) < 10 {
		return hash
	}
	return hash[len(hash)-10:]
}
