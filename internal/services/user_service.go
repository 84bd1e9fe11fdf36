// Package services – UserService
//
// This file implements the UserService, which manages accounts: creation
// with bcrypt-hashed passwords, partial updates, first-login registration
// completion, code/password authentication, and the idempotent startup
// reconciliation of the bootstrap administrator.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/JoaoPizoli/SatMaza/internal/config"
	"github.com/JoaoPizoli/SatMaza/internal/domain"
)

// UserRepo defines the repository contract required by UserService.
type UserRepo interface {
	CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error
	GetUser(ctx context.Context, db *gorm.DB, id int64) (*domain.User, error)
	GetUserByCode(ctx context.Context, db *gorm.DB, code string) (*domain.User, error)
	ListUsersByRole(ctx context.Context, db *gorm.DB, role domain.UserRole) ([]domain.User, error)
	UpdateUserFields(ctx context.Context, db *gorm.DB, id int64, fields map[string]any) error
	DeleteUser(ctx context.Context, db *gorm.DB, id int64) error
}

// UserService provides the account use-cases.
type UserService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo UserRepo

	// BcryptCost is the hashing cost; zero means bcrypt.DefaultCost.
	BcryptCost int
}

// NewUserService constructs a UserService with the default bcrypt cost.
func NewUserService(db *gorm.DB, r UserRepo) *UserService {
	return &UserService{DB: db, Repo: r, BcryptCost: bcrypt.DefaultCost}
}

// CreateUserInput carries a new account. Email is optional; accounts without
// one simply receive no redirect notices.
type CreateUserInput struct {
	Code     string          `json:"code"`
	Email    *string         `json:"email"`
	Password string          `json:"password"`
	Role     domain.UserRole `json:"role"`
	Name     string          `json:"name"`
}

// Create registers a new account with a hashed password. A code or email
// collision yields ErrDuplicateUser.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	if strings.TrimSpace(in.Code) == "" {
		return nil, fmt.Errorf("%w: code is required", ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Code:         strings.TrimSpace(in.Code),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         in.Role,
		Name:         strings.TrimSpace(in.Name),
	}
	if err := s.Repo.CreateUser(ctx, s.DB, u); err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}
	return u, nil
}

// UpdateUserInput carries a partial account update; nil fields are left
// unchanged. A non-nil Password is re-hashed.
type UpdateUserInput struct {
	Email    *string          `json:"email"`
	Password *string          `json:"password"`
	Role     *domain.UserRole `json:"role"`
	Name     *string          `json:"name"`
}

// Update applies a partial merge to an account and returns the refreshed
// record.
func (s *UserService) Update(ctx context.Context, id int64, in UpdateUserInput) (*domain.User, error) {
	fields := map[string]any{}
	if in.Email != nil {
		fields["email"] = normalizeEmail(in.Email)
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, fmt.Errorf("%w: password cannot be empty", ErrInvalidInput)
		}
		hash, err := s.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *in.Role)
		}
		fields["role"] = *in.Role
	}
	if in.Name != nil {
		fields["name"] = *in.Name
	}

	if len(fields) > 0 {
		if err := s.Repo.UpdateUserFields(ctx, s.DB, id, fields); err != nil {
			if isNotFound(err) {
				return nil, ErrUserNotFound
			}
			if isDuplicate(err) {
				return nil, ErrDuplicateUser
			}
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

// CompleteRegistration finalizes a provisioned account on first login:
// the user supplies their name, email, and optionally a new password, and
// the account is marked as having changed its password.
func (s *UserService) CompleteRegistration(ctx context.Context, id int64, name, email string, password *string) (*domain.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	fields := map[string]any{
		"name":             strings.TrimSpace(name),
		"email":            strings.ToLower(strings.TrimSpace(email)),
		"password_changed": true,
	}
	if password != nil && *password != "" {
		hash, err := s.hash(*password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}

	if err := s.Repo.UpdateUserFields(ctx, s.DB, id, fields); err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		if isDuplicate(err) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Authenticate verifies a code/password pair and returns the account.
// Unknown codes and wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, code, password string) (*domain.User, error) {
	u, err := s.Repo.GetUserByCode(ctx, s.DB, strings.TrimSpace(code))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Get returns an account by id, or ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.Repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetByCode returns an account by its short code, or ErrUserNotFound.
func (s *UserService) GetByCode(ctx context.Context, code string) (*domain.User, error) {
	u, err := s.Repo.GetUserByCode(ctx, s.DB, code)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// ListRepresentatives returns all REPRESENTATIVE accounts ordered by code.
func (s *UserService) ListRepresentatives(ctx context.Context) ([]domain.User, error) {
	return s.Repo.ListUsersByRole(ctx, s.DB, domain.RoleRepresentative)
}

// Delete removes an account, or ErrUserNotFound.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.Repo.DeleteUser(ctx, s.DB, id); err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// EnsureAdmin reconciles the bootstrap ADMIN account at startup: when no
// user holds the configured admin code, one is created from the explicit
// configuration. The operation is idempotent. Outside development a missing
// admin password is a hard error; in development it is logged upstream and
// the bootstrap is skipped.
func (s *UserService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig, production bool) error {
	if _, err := s.Repo.GetUserByCode(ctx, s.DB, cfg.Code); err == nil {
		return nil
	} else if !isNotFound(err) {
		return err
	}

	if cfg.Password == "" {
		if production {
			return errors.New("admin bootstrap: ADMIN_PASSWORD is required in production")
		}
		return nil
	}

	hash, err := s.hash(cfg.Password)
	if err != nil {
		return err
	}
	u := &domain.User{
		Code:         cfg.Code,
		Email:        normalizeEmail(&cfg.Email),
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Name:         "Administrator",
	}
	if err := s.Repo.CreateUser(ctx, s.DB, u); err != nil {
		// A concurrent boot may have won the race; treat duplicates as done.
		if isDuplicate(err) {
			return nil
		}
		return err
	}
	return nil
}

func (s *UserService) hash(password string) (string, error) {
	cost := s.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// normalizeEmail lowercases and trims an optional email, mapping empty
// strings to nil so the unique index never sees "".
func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.ToLower(strings.TrimSpace(*email))
	if e == "" {
		return nil
	}
	return &e
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
