// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries: box header
// counters and the metadata used for ETag generation in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/hoshibaby/spbox-back/internal/domain"
)

// BoxCounts holds the counters shown in a box header.
type BoxCounts struct {
	Total   int64 // every message in the box
	Visible int64 // messages not hidden by the owner
	Replied int64 // messages carrying a reply
}

// CountBoxMessages computes the header counters for boxID.
func CountBoxMessages(ctx context.Context, db *gorm.DB, boxID string) (BoxCounts, error) {
	var c BoxCounts
	base := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.Message{}).Where("box_id = ?", boxID)
	}
	if err := base().Count(&c.Total).Error; err != nil {
		return BoxCounts{}, err
	}
	if c.Total == 0 {
		return c, nil
	}
	if err := base().Where("hidden = ?", false).Count(&c.Visible).Error; err != nil {
		return BoxCounts{}, err
	}
	if err := base().Where("reply_content IS NOT NULL").Count(&c.Replied).Error; err != nil {
		return BoxCounts{}, err
	}
	return c, nil
}

// MessagesStats returns aggregate metadata for messages within a given box:
// the total number of rows and the maximum UpdatedAt timestamp among those
// rows. When the box has no messages, count is 0 and maxUpdatedAt is nil.
func MessagesStats(ctx context.Context, db *gorm.DB, boxID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.Message{}).Where("box_id = ?", boxID)
	}

	if err = q().Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q().Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
