package services

import (
	"context"
	"errors"
	"time"

	"expenseapi/internal/auth"
	"expenseapi/internal/core"
)

var (
	// ErrInvalidCredentials maps to 401.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountInactive maps to 403; the password was right but the
	// account is deactivated.
	ErrAccountInactive = errors.New("account is inactive")
)

// AuthService exchanges credentials for bearer tokens and handles logout.
type AuthService struct {
	users     UserRepository
	tokens    *auth.TokenManager
	blacklist *auth.Blacklist
}

func NewAuthService(users UserRepository, tokens *auth.TokenManager, blacklist *auth.Blacklist) *AuthService {
	return &AuthService{users: users, tokens: tokens, blacklist: blacklist}
}

// Login verifies the password, refuses deactivated accounts and issues a
// tracked token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	if u.Status != core.UserActive {
		return "", ErrAccountInactive
	}

	token, expiresAt, err := s.tokens.Issue(u.Email)
	if err != nil {
		return "", err
	}
	s.blacklist.Track(token, u.Email, expiresAt)
	return token, nil
}

// Logout blacklists the presented token until its natural expiry. Unknown or
// malformed tokens are ignored; logout always succeeds.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	_, expiresAt, err := s.tokens.Verify(token)
	if err != nil {
		return
	}
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(time.Hour)
	}
	s.blacklist.Revoke(token, expiresAt)
}
