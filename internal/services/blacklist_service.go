// Package services – BlacklistService
//
// BlacklistService exposes the per-box ledger of blocked writers to the box
// owner. Entries are added by MessageService.Blacklist (which also hides the
// offending message); this service lists and removes them.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/hoshibaby/spbox-back/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// BlacklistService manages blacklist entries.
type BlacklistService struct {
	DB *gorm.DB
}

// IsBlocked reports whether userID is blacklisted in boxID.
func (s *BlacklistService) IsBlocked(ctx context.Context, boxID, userID string) (bool, error) {
	tr := otel.Tracer("services/BlacklistService")
	ctx, span := tr.Start(ctx, "IsBlocked",
		trace.WithAttributes(
			attribute.String("box.id", boxID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	return repo.BlacklistExists(ctx, s.DB, boxID, userID)
}

// List returns the blacklist of the caller's box, newest first.
func (s *BlacklistService) List(ctx context.Context, ownerLoginID string) ([]BlockedUser, error) {
	tr := otel.Tracer("services/BlacklistService")
	ctx, span := tr.Start(ctx, "List", trace.WithAttributes(attribute.String("user.login_id", ownerLoginID)))
	defer span.End()

	owner, err := actingUser(ctx, s.DB, ownerLoginID)
	if err != nil {
		return nil, err
	}
	box, err := boxByOwner(ctx, s.DB, owner.ID)
	if err != nil {
		return nil, err
	}
	entries, err := repo.ListBlacklist(ctx, s.DB, box.ID)
	if err != nil {
		return nil, err
	}
	out := make([]BlockedUser, 0, len(entries))
	for _, e := range entries {
		out = append(out, BlockedUser{
			EntryID:   e.ID,
			UserID:    e.BlockedUserID,
			LoginID:   e.BlockedUser.LoginID,
			Nickname:  e.BlockedUser.Nickname,
			Email:     e.BlockedUser.Email,
			CreatedAt: e.CreatedAt,
		})
	}
	return out, nil
}

// Unblock removes blockedUserID from the caller's box blacklist. Messages
// hidden when the user was blocked stay hidden. Removing a user who is not
// on the list is a no-op.
func (s *BlacklistService) Unblock(ctx context.Context, ownerLoginID, blockedUserID string) error {
	tr := otel.Tracer("services/BlacklistService")
	ctx, span := tr.Start(ctx, "Unblock",
		trace.WithAttributes(
			attribute.String("user.login_id", ownerLoginID),
			attribute.String("blocked.user_id", blockedUserID),
		),
	)
	defer span.End()

	owner, err := actingUser(ctx, s.DB, ownerLoginID)
	if err != nil {
		return err
	}
	if _, err := repo.GetUserByID(ctx, s.DB, blockedUserID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	box, err := boxByOwner(ctx, s.DB, owner.ID)
	if err != nil {
		return err
	}
	_, err = repo.DeleteBlacklist(ctx, s.DB, box.ID, blockedUserID)
	return err
}
