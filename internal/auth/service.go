// Package auth implements account registration, login, and the JWT identity
// provider consumed by the HTTP layer. The order workflow itself never sees
// tokens, only already-authenticated user ids.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/minishop/internal/domain/user"
)

// ErrInvalidCredentials is returned on login with an unknown email, wrong
// password, or deactivated account.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service handles registration and login.
type Service struct {
	users  user.Repository
	tokens *TokenProvider
	now    func() time.Time
}

// NewService creates an auth Service.
func NewService(users user.Repository, tokens *TokenProvider) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		now:    time.Now,
	}
}

// RegisterParams holds the input for creating an account.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a customer account and returns it with a signed token.
func (s *Service) Register(ctx context.Context, in RegisterParams) (*user.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", user.ErrEmailTaken
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, "", errors.Wrap(err, "check email")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	u := &user.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         user.RoleCustomer,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", errors.Wrap(err, "create user")
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies credentials and returns the account with a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", errors.Wrap(err, "load user")
	}

	if !u.IsActive || !CheckPassword(u.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}
