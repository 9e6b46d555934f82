package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)
	sess := New(3, "Mehmet Demir", "manager")

	token, err := signer.Sign(sess)
	require.NoError(t, err)

	claims, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, claims.SessionID())
	assert.Equal(t, uint(3), claims.StaffID)
	assert.Equal(t, "manager", claims.Role)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	token, err := NewSigner("one", time.Hour).Sign(New(1, "A", "waiter"))
	require.NoError(t, err)

	_, err = NewSigner("two", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	signer := NewSigner("secret", time.Minute)
	sess := New(1, "A", "waiter")
	sess.CreatedAt = time.Now().Add(-time.Hour)

	token, err := signer.Sign(sess)
	require.NoError(t, err)
	_, err = signer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{StaffID: 1, Role: "manager", RegisteredClaims: jwt.RegisteredClaims{ID: "x", Issuer: issuer}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewSigner("secret", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseGarbage(t *testing.T) {
	_, err := NewSigner("secret", time.Hour).Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
