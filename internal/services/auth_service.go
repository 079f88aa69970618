package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shreyasprabhudev/Tranquil/internal/models"
	pgrepo "github.com/shreyasprabhudev/Tranquil/internal/repositories/postgres"
	"github.com/shreyasprabhudev/Tranquil/internal/utils"
)

const (
	accessTokenTTL  = 60 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type AuthService interface {
	Register(ctx context.Context, username, email, password, password2 string) (*models.User, error)
	// Login accepts an email or a username in the same field.
	Login(ctx context.Context, identifier, password string) (*TokenPair, *models.User, error)
	// Refresh exchanges a valid refresh token for a new access token.
	Refresh(ctx context.Context, refreshToken string) (string, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

type authService struct {
	users  pgrepo.UserRepo
	secret []byte
}

func NewAuthService(users pgrepo.UserRepo, secret string) AuthService {
	return &authService{users: users, secret: []byte(secret)}
}

func (s *authService) Register(ctx context.Context, username, email, password, password2 string) (*models.User, error) {
	const op = "AuthService.Register"

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" || password2 == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "username, email, password, and password2 are required", nil)
	}
	if !strings.Contains(email, "@") {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid email address", nil)
	}
	if password != password2 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Passwords do not match.", nil)
	}

	if taken, err := s.users.ExistsEmail(ctx, email); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to check email", err)
	} else if taken {
		return nil, utils.E(utils.CodeConflict, op, "A user with this email already exists.", nil)
	}
	if taken, err := s.users.ExistsUsername(ctx, username); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to check username", err)
	} else if taken {
		return nil, utils.E(utils.CodeConflict, op, "A user with this username already exists.", nil)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to hash password", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		DateJoined:   time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create user", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, identifier, password string) (*TokenPair, *models.User, error) {
	const op = "AuthService.Login"

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "Please provide both username/email and password", nil)
	}

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, nil, utils.E(utils.CodeUnauthorized, op, "Invalid username/email or password", nil)
		}
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to look up user", err)
	}

	if err := utils.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, nil, utils.E(utils.CodeUnauthorized, op, "Invalid username/email or password", nil)
	}
	if !user.IsActive {
		return nil, nil, utils.E(utils.CodeUnauthorized, op, "This account is inactive", nil)
	}

	access, err := utils.SignToken(s.secret, user.ID, utils.TokenTypeAccess, accessTokenTTL)
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to sign token", err)
	}
	refresh, err := utils.SignToken(s.secret, user.ID, utils.TokenTypeRefresh, refreshTokenTTL)
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to sign token", err)
	}

	return &TokenPair{Access: access, Refresh: refresh}, user, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	const op = "AuthService.Refresh"

	claims, err := utils.ParseToken(s.secret, refreshToken, utils.TokenTypeRefresh)
	if err != nil {
		return "", utils.E(utils.CodeUnauthorized, op, "invalid refresh token", err)
	}

	// User must still exist and be active.
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil || !user.IsActive {
		return "", utils.E(utils.CodeUnauthorized, op, "invalid refresh token", err)
	}

	access, err := utils.SignToken(s.secret, user.ID, utils.TokenTypeAccess, accessTokenTTL)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to sign token", err)
	}
	return access, nil
}

func (s *authService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	const op = "AuthService.GetUser"

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "user not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get user", err)
	}
	return user, nil
}
