package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"giftlist-api/internal/model"
	"giftlist-api/internal/repository"
	"giftlist-api/pkg/uid"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// AuthService manages owner accounts and sessions.
type AuthService struct {
	users      repository.UserRepository
	tokens     *TokenService
	bcryptCost int
	log        logrus.FieldLogger
}

// NewAuthService creates an auth service.
func NewAuthService(users repository.UserRepository, tokens *TokenService, bcryptCost int, log logrus.FieldLogger) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		log:        log.WithField("component", "auth"),
	}
}

// RegisterInput holds the fields of a new account.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expiresIn"` // seconds
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// Register creates an owner account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)

	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, invalidInput("email is not valid")
	}
	if len(in.Password) < minPasswordLength {
		return nil, invalidInput("password must have at least %d characters", minPasswordLength)
	}
	if name == "" {
		return nil, invalidInput("name is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{ID: uid.New(), Email: email, Name: name, PasswordHash: string(hash)}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Info("User registered")
	return user, nil
}

// Login checks the credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, session, err := s.tokens.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     token,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		ExpiresAt: session.ExpiresAt,
		User:      user,
	}, nil
}

// Logout revokes the session token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if _, err := s.tokens.ValidateToken(ctx, token); err != nil {
		return err
	}
	return s.tokens.RevokeToken(ctx, token)
}

// Authenticate returns the user id of a live session token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	session, err := s.tokens.ValidateToken(ctx, token)
	if err != nil {
		return "", err
	}
	return session.UserID, nil
}
