// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for notifications.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hoshibaby/spbox-back/internal/domain"
)

// CreateNotification inserts n as-is. The caller assigns the ID.
func CreateNotification(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	return db.WithContext(ctx).Omit("TargetUser", "Message").Create(n).Error
}

// GetNotification fetches a notification by ID.
func GetNotification(ctx context.Context, db *gorm.DB, id string) (*domain.Notification, error) {
	var n domain.Notification
	err := db.WithContext(ctx).Where("id = ?", id).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListNotifications returns every notification of userID, newest first.
func ListNotifications(ctx context.Context, db *gorm.DB, userID string) ([]domain.Notification, error) {
	var out []domain.Notification
	err := db.WithContext(ctx).
		Where("target_user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// SaveNotificationReadState writes back the read columns of n.
func SaveNotificationReadState(ctx context.Context, db *gorm.DB, n domain.Notification) error {
	return db.WithContext(ctx).Model(&domain.Notification{}).Where("id = ?", n.ID).Updates(map[string]any{
		"is_read": n.Read,
		"read_at": n.ReadAt,
	}).Error
}

// MarkAllNotificationsRead flags every unread notification of userID as
// read at the given time and returns how many rows changed.
func MarkAllNotificationsRead(ctx context.Context, db *gorm.DB, userID string, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Model(&domain.Notification{}).
		Where("target_user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

// CountUnreadNotifications counts unread notifications of userID.
func CountUnreadNotifications(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Notification{}).
		Where("target_user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

// DeleteNotificationsByMessageIDs removes notifications that reference any of
// the given messages. An empty id list is a no-op.
func DeleteNotificationsByMessageIDs(ctx context.Context, db *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).Where("message_id IN ?", ids).Delete(&domain.Notification{}).Error
}

// DeleteNotificationsByTarget removes every notification addressed to userID.
func DeleteNotificationsByTarget(ctx context.Context, db *gorm.DB, userID string) error {
	return db.WithContext(ctx).Where("target_user_id = ?", userID).Delete(&domain.Notification{}).Error
}
