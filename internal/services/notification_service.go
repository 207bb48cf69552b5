// Package services – NotificationService
//
// NotificationService owns the per-user alert feed. Notifications are
// append-only; the only mutation is moving one (or all) into read state.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoshibaby/spbox-back/internal/domain"
	"github.com/hoshibaby/spbox-back/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// NotificationService manages notification feeds.
type NotificationService struct {
	DB *gorm.DB
}

// Create appends a notification for target. messageID may be nil.
func (s *NotificationService) Create(ctx context.Context, target string, typ domain.NotificationType, text, link string, messageID *string) (*domain.Notification, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("user.id", target),
			attribute.String("notification.type", string(typ)),
		),
	)
	defer span.End()

	n, err := createNotification(ctx, s.DB, target, typ, text, link, messageID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return n, nil
}

func createNotification(ctx context.Context, db *gorm.DB, target string, typ domain.NotificationType, text, link string, messageID *string) (*domain.Notification, error) {
	n := &domain.Notification{
		ID:           uuid.NewString(),
		TargetUserID: target,
		Type:         typ,
		AlertMessage: text,
		MessageID:    messageID,
		LinkURL:      link,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateNotification(ctx, db, n); err != nil {
		return nil, err
	}
	notificationsSent.WithLabelValues(string(typ)).Inc()
	return n, nil
}

// SendSystemNotice appends a SYSTEM_NOTICE for target.
func (s *NotificationService) SendSystemNotice(ctx context.Context, target, text, link string) (*domain.Notification, error) {
	return s.Create(ctx, target, domain.NotificationSystemNotice, text, link, nil)
}

// List returns every notification of userID, newest first.
func (s *NotificationService) List(ctx context.Context, userID string) ([]domain.Notification, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "List", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	return repo.ListNotifications(ctx, s.DB, userID)
}

// MarkAsRead moves one notification into read state. Marking an already-read
// notification again succeeds without changing ReadAt.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id string) (*domain.Notification, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "MarkAsRead",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("notification.id", id),
		),
	)
	defer span.End()

	n, err := repo.GetNotification(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}
	if n.TargetUserID != userID {
		return nil, ErrNotTarget
	}
	if n.Read {
		return n, nil
	}

	read := n.MarkedRead(time.Now().UTC())
	if err := repo.SaveNotificationReadState(ctx, s.DB, read); err != nil {
		return nil, err
	}
	return &read, nil
}

// MarkAllAsRead marks every unread notification of userID and returns how
// many changed.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "MarkAllAsRead", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	return repo.MarkAllNotificationsRead(ctx, s.DB, userID, time.Now().UTC())
}

// UnreadCount returns the number of unread notifications of userID.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "UnreadCount", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	return repo.CountUnreadNotifications(ctx, s.DB, userID)
}
