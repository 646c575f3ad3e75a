package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expenseapi/internal/auth"
	"expenseapi/internal/core"
)

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *core.User) error
	Update(ctx context.Context, u core.User) error
	FindByID(ctx context.Context, id int64) (core.User, error)
	FindByEmail(ctx context.Context, email string) (core.User, error)
	FindAll(ctx context.Context) ([]core.User, error)
}

// SettingsRepository persists per-user display settings.
type SettingsRepository interface {
	FindByUser(ctx context.Context, userID int64) (core.UserSettings, error)
	Save(ctx context.Context, us *core.UserSettings) error
}

// TokenRevoker revokes every live token of one user. Satisfied by
// *auth.Blacklist.
type TokenRevoker interface {
	RevokeUser(email string, expiry time.Time)
}

// UserService manages accounts and settings. Deactivating an account revokes
// all of its live tokens so in-flight sessions end immediately.
type UserService struct {
	users       UserRepository
	settings    SettingsRepository
	revoker     TokenRevoker
	tokenExpiry time.Duration
}

func NewUserService(users UserRepository, settings SettingsRepository, revoker TokenRevoker, tokenExpiry time.Duration) *UserService {
	return &UserService{users: users, settings: settings, revoker: revoker, tokenExpiry: tokenExpiry}
}

// CreateUserInput carries a signup request.
type CreateUserInput struct {
	Firstname string
	Lastname  string
	Email     string
	Password  string
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (core.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return core.User{}, fmt.Errorf("%w: a valid email is required", core.ErrInvalidInput)
	}
	if len(in.Password) < 8 {
		return core.User{}, fmt.Errorf("%w: password must be at least 8 characters", core.ErrInvalidInput)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return core.User{}, err
	}

	u := core.User{
		Firstname:    strings.TrimSpace(in.Firstname),
		Lastname:     strings.TrimSpace(in.Lastname),
		Email:        email,
		PasswordHash: hash,
		Status:       core.UserActive,
		Audit:        stampAudit(ctx),
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return core.User{}, err
	}
	return u, nil
}

// UpdateUserInput is a partial update; nil fields keep current values.
type UpdateUserInput struct {
	Firstname *string
	Lastname  *string
	Email     *string
	Password  *string
}

func (s *UserService) Update(ctx context.Context, id int64, in UpdateUserInput) (core.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return core.User{}, err
	}
	if in.Firstname != nil {
		u.Firstname = strings.TrimSpace(*in.Firstname)
	}
	if in.Lastname != nil {
		u.Lastname = strings.TrimSpace(*in.Lastname)
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" || !strings.Contains(email, "@") {
			return core.User{}, fmt.Errorf("%w: a valid email is required", core.ErrInvalidInput)
		}
		u.Email = email
	}
	if in.Password != nil {
		if len(*in.Password) < 8 {
			return core.User{}, fmt.Errorf("%w: password must be at least 8 characters", core.ErrInvalidInput)
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return core.User{}, err
		}
		u.PasswordHash = hash
	}
	touchAudit(ctx, &u.Audit)
	if err := s.users.Update(ctx, u); err != nil {
		return core.User{}, err
	}
	return u, nil
}

// ToggleStatus flips a user between ACTIVE and INACTIVE. Deactivation
// revokes every tracked token of the account.
func (s *UserService) ToggleStatus(ctx context.Context, id int64) (core.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return core.User{}, err
	}

	if u.Status == core.UserActive {
		u.Status = core.UserInactive
	} else {
		u.Status = core.UserActive
	}
	touchAudit(ctx, &u.Audit)
	if err := s.users.Update(ctx, u); err != nil {
		return core.User{}, err
	}

	if u.Status == core.UserInactive {
		// blacklist entries expire no later than the longest-lived token
		s.revoker.RevokeUser(u.Email, time.Now().Add(s.tokenExpiry))
	}
	return u, nil
}

// Deactivate marks a user INACTIVE regardless of current status. The row
// stays; expenses audit history keeps pointing at a real account.
func (s *UserService) Deactivate(ctx context.Context, id int64) (core.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return core.User{}, err
	}
	if u.Status == core.UserInactive {
		return u, nil
	}
	return s.ToggleStatus(ctx, id)
}

func (s *UserService) Get(ctx context.Context, id int64) (core.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (core.User, error) {
	return s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *UserService) List(ctx context.Context) ([]core.User, error) {
	return s.users.FindAll(ctx)
}

// GetSettings returns a user's settings, falling back to defaults when the
// row does not exist yet.
func (s *UserService) GetSettings(ctx context.Context, userID int64) (core.UserSettings, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return core.UserSettings{}, err
	}
	settings, err := s.settings.FindByUser(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.UserSettings{}, err
	}
	return core.UserSettings{
		UserID:        userID,
		Currency:      "USD",
		DecimalDigits: 2,
		WeekStart:     "MONDAY",
	}, nil
}

// SaveSettings validates and upserts a user's settings.
func (s *UserService) SaveSettings(ctx context.Context, userID int64, settings core.UserSettings) (core.UserSettings, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return core.UserSettings{}, err
	}
	settings.UserID = userID
	if err := settings.Validate(); err != nil {
		return core.UserSettings{}, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	settings.Audit = stampAudit(ctx)
	if err := s.settings.Save(ctx, &settings); err != nil {
		return core.UserSettings{}, err
	}
	return settings, nil
}
