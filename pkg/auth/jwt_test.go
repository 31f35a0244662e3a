package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	m := NewTokenManager("secret", "docbook", time.Hour)
	userID := uuid.New()

	token, issued, err := m.Issue(userID, "doctor")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "doctor", claims.Role)
	assert.Equal(t, issued.ID, claims.ID)

	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", "docbook", time.Hour).Issue(uuid.New(), "patient")
	require.NoError(t, err)

	_, err = NewTokenManager("two", "docbook", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	m := NewTokenManager("secret", "docbook", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := m.Issue(uuid.New(), "patient")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsOtherIssuer(t *testing.T) {
	token, _, err := NewTokenManager("secret", "someone-else", time.Hour).Issue(uuid.New(), "admin")
	require.NoError(t, err)

	_, err = NewTokenManager("secret", "docbook", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewTokenManager("secret", "docbook", time.Hour).Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
