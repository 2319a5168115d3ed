package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestResetTokenRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	token, err := GenerateResetToken(42, "$2a$10$abcdefghijklmnopqrstuv", testSecret, now)
	require.NoError(t, err)

	id, claims, err := ParseResetToken(token, testSecret, now.Add(29*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.True(t, claims.MatchesPassword("$2a$10$abcdefghijklmnopqrstuv"))
	assert.False(t, claims.MatchesPassword("$2a$10$somethingelse00000000"))
}

func TestResetTokenExpiresAfter1800Seconds(t *testing.T) {
	now := time.Now()
	token, err := GenerateResetToken(1, "", testSecret, now)
	require.NoError(t, err)

	_, _, err = ParseResetToken(token, testSecret, now.Add(ResetTokenTTL+time.Second))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateResetToken(1, "", testSecret, time.Now())
	require.NoError(t, err)

	_, _, err = ParseResetToken(token, "other", time.Now())
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = ParseResetToken("garbage", testSecret, time.Now())
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetTokenNeedsSecret(t *testing.T) {
	_, err := GenerateResetToken(1, "", "", time.Now())
	assert.ErrorIs(t, err, ErrMissingSecret)
}
