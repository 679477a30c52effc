package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService issues and validates per-session bearer tokens. A token is
// bound to exactly one session name; the middleware rejects its use
// against any other session.
type AuthService struct {
	secret string
}

type SessionClaims struct {
	Session string `json:"session"`
	jwt.RegisteredClaims
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{secret: secret}
}

// CheckSecret accepts either the configured secret itself or a bcrypt
// hash of it, so callers never have to put the plaintext secret in a URL.
func (as *AuthService) CheckSecret(candidate string) bool {
	if candidate == as.secret {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(candidate), []byte(as.secret)) == nil
}

// GenerateToken creates a session-scoped JWT valid for 30 days.
func (as *AuthService) GenerateToken(session string) (string, error) {
	claims := SessionClaims{
		Session: session,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(30 * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.secret))
}

// ValidateToken parses a bearer token and checks it was issued for the
// given session.
func (as *AuthService) ValidateToken(tokenString, session string) error {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.secret), nil
	})
	if err != nil {
		return err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return errors.New("invalid token")
	}
	if claims.Session != session {
		return errors.New("token issued for a different session")
	}
	return nil
}
