package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammar1510/chatflow/internal/models"
)

func TestGenerateToken(t *testing.T) {
	testKey := []byte("test-secret-key-for-jwt-tests")
	InitJWTKey(testKey)

	tests := []struct {
		name    string
		id      *models.Identity
		wantErr bool
	}{
		{
			name:    "uuid identity",
			id:      &models.Identity{ID: uuid.NewString(), Username: "testuser"},
			wantErr: false,
		},
		{
			name:    "legacy timestamp identity",
			id:      &models.Identity{ID: "1714560000000", Username: "olduser"},
			wantErr: false,
		},
		{
			name:    "missing ID",
			id:      &models.Identity{Username: "testuser"},
			wantErr: true,
		},
		{
			name:    "nil identity",
			id:      nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, expiry, err := GenerateToken(tt.id)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, token)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.True(t, expiry.After(time.Now()))

			claims, err := ValidateToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.id.ID, claims.UserID)
			assert.Equal(t, tt.id.Username, claims.Username)
		})
	}
}

func TestValidateToken(t *testing.T) {
	testKey := []byte("test-secret-key-for-jwt-tests")
	InitJWTKey(testKey)

	validToken, _, err := GenerateToken(&models.Identity{ID: "u1", Username: "testuser"})
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		UserID:   "u1",
		Username: "testuser",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	expiredToken, err := expired.SignedString(testKey)
	require.NoError(t, err)

	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{UserID: "u1"}).
		SignedString([]byte("some-other-key"))
	require.NoError(t, err)

	tests := []struct {
		name        string
		tokenString string
		wantErr     bool
	}{
		{"valid token", validToken, false},
		{"empty token", "", true},
		{"invalid token format", "not.a.valid.jwt.token", true},
		{"tampered token", validToken + "tampered", true},
		{"expired token", expiredToken, true},
		{"wrong key", otherKey, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.tokenString)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, claims)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "u1", claims.UserID)
				assert.Equal(t, "testuser", claims.Username)
			}
		})
	}
}

func TestIdentityFromClaims(t *testing.T) {
	id, err := IdentityFromClaims(&JWTClaims{UserID: "u1", Username: "alice"})
	assert.NoError(t, err)
	assert.Equal(t, models.Identity{ID: "u1", Username: "alice"}, id)

	_, err = IdentityFromClaims(nil)
	assert.Error(t, err)
}
