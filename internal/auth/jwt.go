package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/ammar1510/chatflow/internal/logger"
	"github.com/ammar1510/chatflow/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	// This variable will be initialized either from environment
	// variables or explicitly via InitJWTKey function
	jwtKey = []byte(os.Getenv("JWT_SECRET"))
	log    = logger.New("auth")
)

// TokenTTL is how long a realtime handshake token stays valid
const TokenTTL = 24 * time.Hour

// InitJWTKey initializes the JWT key with the provided secret
// This allows for explicit initialization after environment variables are loaded
// or for setting a custom key during testing
func InitJWTKey(key []byte) {
	jwtKey = key
}

// JWTClaims represents the claims in the JWT
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken signs the handshake token an identity presents to the realtime relay
func GenerateToken(id *models.Identity) (string, time.Time, error) {
	if id == nil {
		return "", time.Time{}, errors.New("identity cannot be nil")
	}
	if id.ID == "" {
		return "", time.Time{}, errors.New("identity ID cannot be empty")
	}

	expirationTime := time.Now().Add(TokenTTL)

	claims := &JWTClaims{
		UserID:   id.ID,
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtKey)

	return tokenString, expirationTime, err
}

// ValidateToken validates a JWT token and returns the claims
func ValidateToken(tokenString string) (*JWTClaims, error) {
	if tokenString == "" {
		log.Warn("Validating empty token")
	}

	claims := &JWTClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			log.Error("Unexpected signing method: %v", token.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtKey, nil
	})

	if err != nil {
		log.Debug("Token validation error: %v", err)
		return nil, err
	}

	if !token.Valid || claims.UserID == "" {
		log.Warn("Token is invalid")
		return nil, ErrInvalidToken
	}

	log.Debug("Token validated successfully for user: %s", claims.Username)
	return claims, nil
}

// IdentityFromClaims extracts the identity carried by validated claims
func IdentityFromClaims(claims *JWTClaims) (models.Identity, error) {
	if claims == nil {
		return models.Identity{}, errors.New("claims cannot be nil")
	}
	return models.Identity{ID: claims.UserID, Username: claims.Username}, nil
}
