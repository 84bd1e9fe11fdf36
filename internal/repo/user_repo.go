// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/JoaoPizoli/SatMaza/internal/domain"
)

// CreateUser inserts a new user row. The password must already be hashed by
// the caller (see services.UserService).
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	u.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(u).Error
}

// GetUser fetches a user by numeric id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id int64) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByCode fetches a user by its short unique code, or ErrNotFound.
func GetUserByCode(ctx context.Context, db *gorm.DB, code string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user by email, or ErrNotFound.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsersByRole returns all users holding the given role, ordered by code.
func ListUsersByRole(ctx context.Context, db *gorm.DB, role domain.UserRole) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Where("role = ?", role).
		Order("code asc").
		Find(&out).Error
	return out, err
}

// CountUsersByRole returns the number of users holding the given role.
func CountUsersByRole(ctx context.Context, db *gorm.DB, role domain.UserRole) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("role = ?", role).
		Count(&total).Error
	return total, err
}

// UpdateUserFields applies a partial column update to a user. Returns
// ErrNotFound when the id does not exist.
func UpdateUserFields(ctx context.Context, db *gorm.DB, id int64, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteUser hard-deletes a user. Returns ErrNotFound when the id does not
// exist.
func DeleteUser(ctx context.Context, db *gorm.DB, id int64) error {
	res := db.WithContext(ctx).Delete(&domain.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
