package security

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
}

func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	return &TokenService{
		auth: jwtauth.New("HS256", secret, nil),
		ttl:  ttl,
	}
}

// JWTAuth exposes the underlying verifier for the chi middleware.
func (s *TokenService) JWTAuth() *jwtauth.JWTAuth {
	return s.auth
}

func (s *TokenService) IssueToken(userID, username string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"exp":      time.Now().Add(s.ttl).Unix(),
		"iat":      time.Now().Unix(),
	}
	_, tokenString, err := s.auth.Encode(claims)
	return tokenString, err
}

// VerifyToken decodes and validates a raw token, returning the user id.
func (s *TokenService) VerifyToken(tokenString string) (string, error) {
	token, err := jwtauth.VerifyToken(s.auth, tokenString)
	if err != nil {
		return "", err
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		return "", err
	}
	return GetUserIDFromClaims(claims)
}

func GetUserIDFromClaims(claims map[string]interface{}) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok || id == "" {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}
