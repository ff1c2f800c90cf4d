package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rosterline/rosterauth/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-32-characters-long!"

func testIdentity() *models.Identity {
	return &models.Identity{
		AccountID: "6f1c2b9e-3f0a-4c55-9a43-0d3c1b7e8a21",
		Email:     "sam@roster.example",
		FirstName: "Sam",
		LastName:  "Rivera",
		Role:      models.RoleWorker,
	}
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, 15*time.Minute)

	token, expiresAt, err := tm.GenerateAccessToken(testIdentity())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 2*time.Second)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	want := testIdentity()
	assert.Equal(t, want.AccountID, claims.AccountID)
	assert.Equal(t, want.Email, claims.Email)
	assert.Equal(t, want.Role, claims.Role)
	assert.Equal(t, want.FirstName, claims.FirstName)
	assert.Equal(t, want.LastName, claims.LastName)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, claims.AccountID, claims.Subject)
}

func TestTokenManager_UniqueJTI(t *testing.T) {
	tm := NewTokenManager(testSecret, 15*time.Minute)

	first, _, err := tm.GenerateAccessToken(testIdentity())
	require.NoError(t, err)
	second, _, err := tm.GenerateAccessToken(testIdentity())
	require.NoError(t, err)

	c1, err := tm.ValidateToken(first)
	require.NoError(t, err)
	c2, err := tm.ValidateToken(second)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager(testSecret, 15*time.Minute)
	issued := time.Now().Add(-time.Hour)
	tm.now = func() time.Time { return issued }

	token, _, err := tm.GenerateAccessToken(testIdentity())
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.ValidateToken(token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, _, err := NewTokenManager(testSecret, time.Minute).GenerateAccessToken(testIdentity())
	require.NoError(t, err)

	_, err = NewTokenManager("another-secret-32-characters-xx", time.Minute).ValidateToken(token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	claims := &models.TokenClaims{
		AccountID: "6f1c2b9e-3f0a-4c55-9a43-0d3c1b7e8a21",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, time.Minute).ValidateToken(token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestTokenManager_Garbage(t *testing.T) {
	_, err := NewTokenManager(testSecret, time.Minute).ValidateToken("not.a.token")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
