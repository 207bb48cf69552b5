// Package services – BoxService
//
// BoxService is the registry of postboxes. A box is created exactly once per
// user, inside the signup transaction, and is addressed publicly by a random
// URL key that never changes. The only mutable state is the pair of policy
// flags (allowAnonymous, aiMode).
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoshibaby/spbox-back/internal/domain"
	"github.com/hoshibaby/spbox-back/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	urlKeyLen      = 10
	urlKeyAttempts = 5
)

// BoxService manages boxes and their headers.
type BoxService struct {
	DB *gorm.DB
}

// newURLKey returns the first 10 hex characters of a random dash-less UUID.
func newURLKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:urlKeyLen]
}

// CreateForUser creates the box of user using tx, so it commits together
// with the account row. The URL key is regenerated on collision.
func (s *BoxService) CreateForUser(ctx context.Context, tx *gorm.DB, user *domain.User) (*domain.Box, error) {
	tr := otel.Tracer("services/BoxService")
	ctx, span := tr.Start(ctx, "CreateForUser", trace.WithAttributes(attribute.String("user.id", user.ID)))
	defer span.End()

	var key string
	for i := 0; i < urlKeyAttempts; i++ {
		candidate := newURLKey()
		taken, err := repo.URLKeyExists(ctx, tx, candidate)
		if err != nil {
			return nil, err
		}
		if !taken {
			key = candidate
			break
		}
	}
	if key == "" {
		return nil, fmt.Errorf("could not allocate a unique box url key after %d attempts", urlKeyAttempts)
	}

	now := time.Now().UTC()
	b := &domain.Box{
		ID:             uuid.NewString(),
		OwnerID:        user.ID,
		URLKey:         key,
		Title:          user.Nickname + "'s SecretBox",
		AllowAnonymous: true,
		AIMode:         false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := repo.CreateBox(ctx, tx, b); err != nil {
		return nil, err
	}
	b.Owner = *user
	return b, nil
}

// FindByOwner returns the box of ownerID.
func (s *BoxService) FindByOwner(ctx context.Context, ownerID string) (*domain.Box, error) {
	tr := otel.Tracer("services/BoxService")
	ctx, span := tr.Start(ctx, "FindByOwner", trace.WithAttributes(attribute.String("user.id", ownerID)))
	defer span.End()

	return boxByOwner(ctx, s.DB, ownerID)
}

// FindByURLKey returns the box addressed by urlKey.
func (s *BoxService) FindByURLKey(ctx context.Context, urlKey string) (*domain.Box, error) {
	tr := otel.Tracer("services/BoxService")
	ctx, span := tr.Start(ctx, "FindByURLKey", trace.WithAttributes(attribute.String("box.url_key", urlKey)))
	defer span.End()

	if strings.TrimSpace(urlKey) == "" {
		return nil, ErrMissingBoxKey
	}
	b, err := repo.GetBoxByURLKey(ctx, s.DB, urlKey)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrBoxNotFound
	}
	return b, err
}

func boxByOwner(ctx context.Context, db *gorm.DB, ownerID string) (*domain.Box, error) {
	b, err := repo.GetBoxByOwner(ctx, db, ownerID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrBoxNotFound
	}
	return b, err
}

// Header builds the public header of b. b.Owner must be loaded.
func (s *BoxService) Header(ctx context.Context, b *domain.Box) (*BoxHeader, error) {
	tr := otel.Tracer("services/BoxService")
	ctx, span := tr.Start(ctx, "Header", trace.WithAttributes(attribute.String("box.id", b.ID)))
	defer span.End()

	return boxHeader(ctx, s.DB, b)
}

func boxHeader(ctx context.Context, db *gorm.DB, b *domain.Box) (*BoxHeader, error) {
	counts, err := repo.CountBoxMessages(ctx, db, b.ID)
	if err != nil {
		return nil, err
	}
	return &BoxHeader{
		BoxID:           b.ID,
		Title:           b.Title,
		URLKey:          b.URLKey,
		OwnerID:         b.OwnerID,
		OwnerNickname:   b.Owner.Nickname,
		AddressID:       b.Owner.AddressID,
		ProfileImageURL: b.Owner.ProfileImageURL,
		HeaderImageURL:  b.Owner.HeaderImageURL,
		TodayMessage:    b.Owner.TodayMessage,
		TotalCount:      counts.Total,
		VisibleCount:    counts.Visible,
		ReplyCount:      counts.Replied,
		AllowAnonymous:  b.AllowAnonymous,
		AIMode:          b.AIMode,
	}, nil
}

// HeaderByURLKey resolves urlKey and returns its header.
func (s *BoxService) HeaderByURLKey(ctx context.Context, urlKey string) (*BoxHeader, error) {
	b, err := s.FindByURLKey(ctx, urlKey)
	if err != nil {
		return nil, err
	}
	return s.Header(ctx, b)
}

// HeaderByAddressID resolves a user's public address id (a leading "@" is
// accepted) and returns the header of their box.
func (s *BoxService) HeaderByAddressID(ctx context.Context, addressID string) (*BoxHeader, error) {
	tr := otel.Tracer("services/BoxService")
	ctx, span := tr.Start(ctx, "HeaderByAddressID", trace.WithAttributes(attribute.String("user.address_id", addressID)))
	defer span.End()

	u, err := repo.GetUserByAddressID(ctx, s.DB, normalizeAddressID(addressID))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	b, err := boxByOwner(ctx, s.DB, u.ID)
	if err != nil {
		return nil, err
	}
	return boxHeader(ctx, s.DB, b)
}

// UpdateAllowAnonymous sets the allowAnonymous flag of the caller's box.
func (s *BoxService) UpdateAllowAnonymous(ctx context.Context, ownerLoginID string, v bool) (*domain.Box, error) {
	return s.updateFlag(ctx, "UpdateAllowAnonymous", ownerLoginID, "allow_anonymous", v)
}

// UpdateAIMode sets the aiMode flag of the caller's box.
func (s *BoxService) UpdateAIMode(ctx context.Context, ownerLoginID string, v bool) (*domain.Box, error) {
	return s.updateFlag(ctx, "UpdateAIMode", ownerLoginID, "ai_mode", v)
}

func (s *BoxService) updateFlag(ctx context.Context, op, ownerLoginID, column string, v bool) (*domain.Box, error) {
	tr := otel.Tracer("services/BoxService")
	ctx, span := tr.Start(ctx, op,
		trace.WithAttributes(
			attribute.String("user.login_id", ownerLoginID),
			attribute.Bool(column, v),
		),
	)
	defer span.End()

	owner, err := actingUser(ctx, s.DB, ownerLoginID)
	if err != nil {
		return nil, err
	}
	b, err := boxByOwner(ctx, s.DB, owner.ID)
	if err != nil {
		return nil, err
	}
	if err := repo.UpdateBoxFlags(ctx, s.DB, b.ID, map[string]any{
		column:       v,
		"updated_at": time.Now().UTC(),
	}); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrBoxNotFound
		}
		return nil, err
	}
	switch column {
	case "allow_anonymous":
		b.AllowAnonymous = v
	case "ai_mode":
		b.AIMode = v
	}
	return b, nil
}

// Stats returns the message count and latest update of the box, used for
// listing ETags.
func (s *BoxService) Stats(ctx context.Context, boxID string) (int64, *time.Time, error) {
	tr := otel.Tracer("services/BoxService")
	ctx, span := tr.Start(ctx, "Stats", trace.WithAttributes(attribute.String("box.id", boxID)))
	defer span.End()

	return repo.MessagesStats(ctx, s.DB, boxID)
}

func userByLoginID(ctx context.Context, db *gorm.DB, loginID string) (*domain.User, error) {
	u, err := repo.GetUserByLoginID(ctx, db, loginID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// actingUser resolves the caller of an operation. Banned accounts are
// rejected even when they still hold a valid token.
func actingUser(ctx context.Context, db *gorm.DB, loginID string) (*domain.User, error) {
	u, err := userByLoginID(ctx, db, loginID)
	if err != nil {
		return nil, err
	}
	if u.Status == domain.StatusBanned {
		return nil, ErrBanned
	}
	return u, nil
}
