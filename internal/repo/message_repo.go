// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message model.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hoshibaby/spbox-back/internal/domain"
)

// MessageFilter selects the messages of one box for listing.
//
//   - AnsweredOnly keeps rows whose reply_content is set.
//   - PublicOnly keeps rows that are neither hidden, system nor private.
type MessageFilter struct {
	BoxID        string
	AnsweredOnly bool
	PublicOnly   bool
}

func (f MessageFilter) apply(q *gorm.DB) *gorm.DB {
	q = q.Where("box_id = ?", f.BoxID)
	if f.AnsweredOnly {
		q = q.Where("reply_content IS NOT NULL")
	}
	if f.PublicOnly {
		q = q.Where("hidden = ? AND system_message = ? AND private_message = ?", false, false, false)
	}
	return q
}

// CreateMessage inserts m as-is. The caller assigns the ID.
func CreateMessage(ctx context.Context, db *gorm.DB, m *domain.Message) error {
	return db.WithContext(ctx).Omit("Box", "AuthorUser").Create(m).Error
}

// GetMessage fetches a message by ID together with its box (and the box
// owner) and, when present, its author.
func GetMessage(ctx context.Context, db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	err := db.WithContext(ctx).
		Preload("Box").
		Preload("Box.Owner").
		Preload("AuthorUser").
		Where("messages.id = ?", id).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveMessageState writes back the mutable columns of m (content, hidden
// flag and the reply fields). Nil reply fields are stored as NULL.
func SaveMessageState(ctx context.Context, db *gorm.DB, m domain.Message) error {
	res := db.WithContext(ctx).Model(&domain.Message{}).Where("id = ?", m.ID).Updates(map[string]any{
		"content":           m.Content,
		"hidden":            m.Hidden,
		"has_any_answer":    m.HasAnyAnswer,
		"reply_content":     m.ReplyContent,
		"reply_author_type": m.ReplyAuthorType,
		"reply_created_at":  m.ReplyCreatedAt,
		"updated_at":        time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountMessages returns the number of rows matching f.
func CountMessages(ctx context.Context, db *gorm.DB, f MessageFilter) (int64, error) {
	var total int64
	err := f.apply(db.WithContext(ctx).Model(&domain.Message{})).Count(&total).Error
	return total, err
}

// ListMessagesPage returns a page of rows matching f, newest first, with
// author users preloaded.
func ListMessagesPage(ctx context.Context, db *gorm.DB, f MessageFilter, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := f.apply(db.WithContext(ctx).Preload("AuthorUser")).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListBoxMessages returns every message of a box, newest first.
func ListBoxMessages(ctx context.Context, db *gorm.DB, boxID string) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Preload("AuthorUser").
		Where("box_id = ?", boxID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// MessageIDsForAccount collects the ids of messages stored in boxID (when
// non-empty) and of messages authored by userID anywhere. The result has no
// duplicates.
func MessageIDsForAccount(ctx context.Context, db *gorm.DB, boxID, userID string) ([]string, error) {
	q := db.WithContext(ctx).Model(&domain.Message{})
	if boxID != "" {
		q = q.Where("box_id = ? OR author_user_id = ?", boxID, userID)
	} else {
		q = q.Where("author_user_id = ?", userID)
	}
	var ids []string
	err := q.Distinct().Pluck("id", &ids).Error
	return ids, err
}

// DeleteMessage hard-deletes one message.
func DeleteMessage(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Message{}).Error
}

// DeleteMessages hard-deletes the given messages. An empty id list is a no-op.
func DeleteMessages(ctx context.Context, db *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).Where("id IN ?", ids).Delete(&domain.Message{}).Error
}
