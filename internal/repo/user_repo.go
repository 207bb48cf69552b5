// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. Lookups return ErrNotFound when no row
// matches.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hoshibaby/spbox-back/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateUser inserts u as-is. The caller assigns the ID.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return db.WithContext(ctx).Create(u).Error
}

// GetUserByID fetches a user by primary key.
func GetUserByID(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	return getUserBy(ctx, db, "id", id)
}

// GetUserByLoginID fetches a user by login id.
func GetUserByLoginID(ctx context.Context, db *gorm.DB, loginID string) (*domain.User, error) {
	return getUserBy(ctx, db, "login_id", loginID)
}

// GetUserByEmail fetches a user by email.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return getUserBy(ctx, db, "email", email)
}

// GetUserByAddressID fetches a user by public address id.
func GetUserByAddressID(ctx context.Context, db *gorm.DB, addressID string) (*domain.User, error) {
	return getUserBy(ctx, db, "address_id", addressID)
}

func getUserBy(ctx context.Context, db *gorm.DB, column, value string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Where(column+" = ?", value).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// LoginIDExists reports whether a user already uses loginID.
func LoginIDExists(ctx context.Context, db *gorm.DB, loginID string) (bool, error) {
	return userExists(ctx, db, "login_id", loginID)
}

// EmailExists reports whether a user already uses email.
func EmailExists(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	return userExists(ctx, db, "email", email)
}

// AddressIDExists reports whether a user already uses addressID.
func AddressIDExists(ctx context.Context, db *gorm.DB, addressID string) (bool, error) {
	return userExists(ctx, db, "address_id", addressID)
}

func userExists(ctx context.Context, db *gorm.DB, column, value string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).Where(column+" = ?", value).Count(&n).Error
	return n > 0, err
}

// UpdateUserFields writes the given columns of user id. It returns
// ErrNotFound when the user does not exist.
func UpdateUserFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	res := db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser hard-deletes a user row.
func DeleteUser(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{}).Error
}
