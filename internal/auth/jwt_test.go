package auth

import (
	"testing"
	"time"

	"github.com/fjod/storefront/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	v := NewVerifier("secret")

	token, err := v.Issue(session.Principal{ID: "u1", Role: "admin"}, time.Hour)
	require.NoError(t, err)

	p, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, &session.Principal{ID: "u1", Role: "admin"}, p)
}

func TestVerify_Rejects(t *testing.T) {
	v := NewVerifier("secret")
	expired, err := v.Issue(session.Principal{ID: "u1"}, -time.Minute)
	require.NoError(t, err)
	otherKey, err := NewVerifier("other").Issue(session.Principal{ID: "u1"}, time.Hour)
	require.NoError(t, err)
	noUser, err := v.Issue(session.Principal{}, time.Hour)
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "u1"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		UserID:           "u1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"expired":   expired,
		"other key": otherKey,
		"no user":   noUser,
		"no expiry": noExpiry,
		"wrong alg": wrongAlg,
		"garbage":   "not.a.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerify_NoSecret(t *testing.T) {
	_, err := NewVerifier("").Verify("x")
	assert.ErrorIs(t, err, ErrNoSecret)
}
