package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"voice_motto/internal/common"
	"voice_motto/internal/common/security"
	"voice_motto/internal/domain/model"
	"voice_motto/internal/domain/repository"

	"github.com/google/uuid"
)

// TokenIssuer is the slice of the token service the auth flow needs.
type TokenIssuer interface {
	IssueToken(userID, username string) (string, error)
}

type AuthService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
}

func NewAuthService(userRepo repository.UserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type RegisterResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    UserSummary `json:"user"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

var (
	errCredentialsRequired = fmt.Errorf("Username and password are required: %w", common.ErrBadRequest)
	errUserExists          = fmt.Errorf("User already exists: %w", common.ErrBadRequest)
	errUserDoesNotExist    = fmt.Errorf("User does not exist: %w", common.ErrUnauthorized)
	errInvalidCredentials  = fmt.Errorf("Invalid credentials: %w", common.ErrUnauthorized)
)

func (s *AuthService) Register(ctx context.Context, req CredentialsRequest) (*RegisterResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, errCredentialsRequired
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       username,
		HashedPassword: hashedPassword,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, errUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.IssueToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &RegisterResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    UserSummary{ID: user.ID, Username: user.Username},
	}, nil
}

func (s *AuthService) Login(ctx context.Context, req CredentialsRequest) (*LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, errCredentialsRequired
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, errUserDoesNotExist
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, errInvalidCredentials
	}

	token, err := s.tokens.IssueToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &LoginResponse{Token: token}, nil
}
