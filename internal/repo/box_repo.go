// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Box model.
// Box lookups preload the owning user so callers can render headers without
// a second query.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hoshibaby/spbox-back/internal/domain"
)

// CreateBox inserts b as-is. The caller assigns ID and URLKey.
func CreateBox(ctx context.Context, db *gorm.DB, b *domain.Box) error {
	return db.WithContext(ctx).Omit("Owner").Create(b).Error
}

// GetBoxByID fetches a box with its owner.
func GetBoxByID(ctx context.Context, db *gorm.DB, id string) (*domain.Box, error) {
	return getBoxBy(ctx, db, "id", id)
}

// GetBoxByOwner fetches the single box owned by ownerID.
func GetBoxByOwner(ctx context.Context, db *gorm.DB, ownerID string) (*domain.Box, error) {
	return getBoxBy(ctx, db, "owner_id", ownerID)
}

// GetBoxByURLKey fetches a box by its public URL key.
func GetBoxByURLKey(ctx context.Context, db *gorm.DB, urlKey string) (*domain.Box, error) {
	return getBoxBy(ctx, db, "url_key", urlKey)
}

func getBoxBy(ctx context.Context, db *gorm.DB, column, value string) (*domain.Box, error) {
	var b domain.Box
	err := db.WithContext(ctx).Preload("Owner").Where("boxes."+column+" = ?", value).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// URLKeyExists reports whether urlKey is already taken.
func URLKeyExists(ctx context.Context, db *gorm.DB, urlKey string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Box{}).Where("url_key = ?", urlKey).Count(&n).Error
	return n > 0, err
}

// UpdateBoxFlags writes policy columns of box id. It returns ErrNotFound
// when the box does not exist.
func UpdateBoxFlags(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	res := db.WithContext(ctx).Model(&domain.Box{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBox hard-deletes a box row.
func DeleteBox(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Box{}).Error
}
