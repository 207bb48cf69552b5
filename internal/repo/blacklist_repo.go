// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the blacklist ledger: per-box records of
// users who may no longer write into that box.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoshibaby/spbox-back/internal/domain"
)

// BlacklistExists reports whether userID is blocked in boxID.
func BlacklistExists(ctx context.Context, db *gorm.DB, boxID, userID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.BlacklistEntry{}).
		Where("box_id = ? AND blocked_user_id = ?", boxID, userID).
		Count(&n).Error
	return n > 0, err
}

// InsertBlacklist adds (boxID, userID) unless it is already present. It
// reports whether a new row was written; a concurrent duplicate insert is
// treated as already present.
func InsertBlacklist(ctx context.Context, db *gorm.DB, boxID, userID string) (bool, error) {
	exists, err := BlacklistExists(ctx, db, boxID, userID)
	if err != nil || exists {
		return false, err
	}
	e := &domain.BlacklistEntry{
		ID:            uuid.NewString(),
		BoxID:         boxID,
		BlockedUserID: userID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Omit("Box", "BlockedUser").Create(e).Error; err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteBlacklist removes (boxID, userID) and returns the number of rows removed.
func DeleteBlacklist(ctx context.Context, db *gorm.DB, boxID, userID string) (int64, error) {
	res := db.WithContext(ctx).
		Where("box_id = ? AND blocked_user_id = ?", boxID, userID).
		Delete(&domain.BlacklistEntry{})
	return res.RowsAffected, res.Error
}

// ListBlacklist returns the entries of boxID, newest first, with the blocked
// users preloaded.
func ListBlacklist(ctx context.Context, db *gorm.DB, boxID string) ([]domain.BlacklistEntry, error) {
	var out []domain.BlacklistEntry
	err := db.WithContext(ctx).
		Preload("BlockedUser").
		Where("box_id = ?", boxID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// DeleteBlacklistByBox removes every entry recorded by boxID.
func DeleteBlacklistByBox(ctx context.Context, db *gorm.DB, boxID string) error {
	return db.WithContext(ctx).Where("box_id = ?", boxID).Delete(&domain.BlacklistEntry{}).Error
}

// DeleteBlacklistByBlockedUser removes every entry that blocks userID.
func DeleteBlacklistByBlockedUser(ctx context.Context, db *gorm.DB, userID string) error {
	return db.WithContext(ctx).Where("blocked_user_id = ?", userID).Delete(&domain.BlacklistEntry{}).Error
}
