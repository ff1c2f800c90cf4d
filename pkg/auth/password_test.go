package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// cheap parameters keep the suite fast
var testParams = Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1}

func TestHashPassword_Format(t *testing.T) {
	hash, err := HashPassword("Shift$tart9", testParams)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.Len(t, strings.Split(hash, "$"), 6)
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	first, err := HashPassword("Shift$tart9", testParams)
	require.NoError(t, err)
	second, err := HashPassword("Shift$tart9", testParams)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("", testParams)
	assert.Error(t, err)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Shift$tart9", testParams)
	require.NoError(t, err)

	bcryptHash, err := bcrypt.GenerateFromPassword([]byte("Legacy#Pass1"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
		wantErr  error
	}{
		{name: "argon2 match", password: "Shift$tart9", hash: hash, want: true},
		{name: "argon2 mismatch", password: "shift$tart9", hash: hash, want: false},
		{name: "empty password never matches", password: "", hash: hash, want: false},
		{name: "bcrypt match", password: "Legacy#Pass1", hash: string(bcryptHash), want: true},
		{name: "bcrypt mismatch", password: "Legacy#Pass2", hash: string(bcryptHash), want: false},
		{name: "garbage hash", password: "Shift$tart9", hash: "not-a-hash", wantErr: ErrInvalidHash},
		{name: "wrong algorithm", password: "Shift$tart9", hash: "$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$a2V5", wantErr: ErrInvalidHash},
		{name: "wrong version", password: "Shift$tart9", hash: "$argon2id$v=16$m=1024,t=1,p=1$c2FsdA$a2V5", wantErr: ErrIncompatibleVersion},
		{name: "zero iterations", password: "Shift$tart9", hash: "$argon2id$v=19$m=19456,t=0,p=1$c2FsdA$a2V5", wantErr: ErrInvalidHash},
		{name: "zero parallelism", password: "Shift$tart9", hash: "$argon2id$v=19$m=19456,t=2,p=0$c2FsdA$a2V5", wantErr: ErrInvalidHash},
		{name: "zero memory", password: "Shift$tart9", hash: "$argon2id$v=19$m=0,t=2,p=1$c2FsdA$a2V5", wantErr: ErrInvalidHash},
		{name: "over-long password never matches", password: strings.Repeat("a", MaxPasswordBytes+1), hash: hash, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VerifyPassword(tt.password, tt.hash)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		shouldFail bool
	}{
		{name: "valid strong password", password: "SecureP@ss123"},
		{name: "too short", password: "Pass@1", shouldFail: true},
		{name: "missing uppercase", password: "securepass@123", shouldFail: true},
		{name: "missing digit", password: "SecurePass@xyz", shouldFail: true},
		{name: "missing special character", password: "SecurePass123", shouldFail: true},
		{name: "common password rejected", password: "Password123!", shouldFail: true},
		{name: "too long", password: strings.Repeat("Aa1!", 40), shouldFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.shouldFail {
				require.Error(t, err)
				assert.Equal(t, "invalid password", err.Error())
				return
			}
			assert.NoError(t, err)
		})
	}
}
