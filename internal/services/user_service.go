// Package services – UserService
//
// UserService is the user directory: signup (which also creates the user's
// box), login, lookups, password recovery, profile edits, and the cascading
// account deletion. Passwords are stored as bcrypt hashes.
package services

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hoshibaby/spbox-back/internal/auth"
	"github.com/hoshibaby/spbox-back/internal/domain"
	"github.com/hoshibaby/spbox-back/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	minPasswordLen   = 8
	tempPasswordLen  = 10
	addressIDMinLen  = 4
	addressIDMaxLen  = 20
	addressSlugLimit = 16
)

var (
	reAddressStrip = regexp.MustCompile(`[^a-z0-9_.]`)
	reSlugStrip    = regexp.MustCompile(`[^a-z0-9]`)

	reservedAddressIDs = map[string]struct{}{"admin": {}, "me": {}, "q": {}}
)

// UserService manages accounts.
type UserService struct {
	DB    *gorm.DB
	Boxes *BoxService
}

// SignupInput carries the signup form. AddressID is optional; when blank one
// is derived from Nickname.
type SignupInput struct {
	LoginID         string
	Email           string
	Password        string
	PasswordConfirm string
	Nickname        string
	AddressID       string
}

// ProfileUpdate lists the editable profile fields. Nil fields are left as-is;
// a blank Nickname is ignored.
type ProfileUpdate struct {
	Nickname            *string
	ProfileImageURL     *string
	HeaderImageURL      *string
	TodayMessage        *string
	AIConsultingEnabled *bool
}

func (s *UserService) boxes() *BoxService {
	if s.Boxes != nil {
		return s.Boxes
	}
	return &BoxService{DB: s.DB}
}

// Signup registers an account and its box in one transaction.
//
// Checks run in order: required fields, password confirmation, password
// length, email uniqueness, login id uniqueness, then the address id.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*domain.User, *domain.Box, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "Signup", trace.WithAttributes(attribute.String("user.login_id", in.LoginID)))
	defer span.End()

	in.LoginID = strings.TrimSpace(in.LoginID)
	in.Email = strings.TrimSpace(in.Email)
	in.Nickname = strings.TrimSpace(in.Nickname)
	if in.LoginID == "" || in.Email == "" || in.Password == "" || in.Nickname == "" {
		return nil, nil, ErrMissingField
	}
	if in.Password != in.PasswordConfirm {
		return nil, nil, ErrPasswordMismatch
	}
	if len(in.Password) < minPasswordLen {
		return nil, nil, ErrWeakPassword
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}

	var (
		user *domain.User
		box  *domain.Box
	)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := repo.EmailExists(ctx, tx, in.Email); err != nil {
			return err
		} else if taken {
			return ErrDuplicateEmail
		}
		if taken, err := repo.LoginIDExists(ctx, tx, in.LoginID); err != nil {
			return err
		} else if taken {
			return ErrDuplicateLogin
		}

		addressID, err := resolveAddressID(ctx, tx, in.AddressID, in.Nickname)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		u := &domain.User{
			ID:           uuid.NewString(),
			LoginID:      in.LoginID,
			Email:        in.Email,
			AddressID:    addressID,
			PasswordHash: hash,
			Nickname:     in.Nickname,
			Role:         domain.RoleUser,
			Status:       domain.StatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := repo.CreateUser(ctx, tx, u); err != nil {
			return err
		}
		b, err := s.boxes().CreateForUser(ctx, tx, u)
		if err != nil {
			return err
		}
		user, box = u, b
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return user, box, nil
}

// resolveAddressID validates an explicit address id or derives a free one
// from the nickname ("nick", "nick1", "nick2", ...).
func resolveAddressID(ctx context.Context, db *gorm.DB, raw, nickname string) (string, error) {
	if strings.TrimSpace(raw) != "" {
		id := normalizeAddressID(raw)
		if err := validateAddressID(id); err != nil {
			return "", err
		}
		taken, err := repo.AddressIDExists(ctx, db, id)
		if err != nil {
			return "", err
		}
		if taken {
			return "", ErrDuplicateAddrID
		}
		return id, nil
	}

	base := slugFromNickname(nickname)
	candidate := base
	for suffix := 1; ; suffix++ {
		taken, err := repo.AddressIDExists(ctx, db, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(suffix)
	}
}

// normalizeAddressID lowercases raw, drops a leading "@" and removes every
// character outside [a-z0-9_.].
func normalizeAddressID(raw string) string {
	id := strings.ToLower(strings.TrimSpace(raw))
	id = strings.TrimPrefix(id, "@")
	return reAddressStrip.ReplaceAllString(id, "")
}

func validateAddressID(id string) error {
	if len(id) < addressIDMinLen || len(id) > addressIDMaxLen {
		return ErrInvalidAddressID
	}
	if _, reserved := reservedAddressIDs[id]; reserved {
		return ErrReservedAddressID
	}
	return nil
}

func slugFromNickname(nickname string) string {
	slug := reSlugStrip.ReplaceAllString(strings.ToLower(nickname), "")
	if slug == "" {
		return "user"
	}
	if len(slug) > addressSlugLimit {
		slug = slug[:addressSlugLimit]
	}
	return slug
}

// Login verifies credentials and returns the account with its box.
func (s *UserService) Login(ctx context.Context, loginID, password string) (*domain.User, *domain.Box, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "Login", trace.WithAttributes(attribute.String("user.login_id", loginID)))
	defer span.End()

	u, err := userByLoginID(ctx, s.DB, strings.TrimSpace(loginID))
	if err != nil {
		return nil, nil, err
	}
	if u.Status == domain.StatusBanned {
		return nil, nil, ErrBanned
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, nil, ErrBadCredentials
	}
	b, err := boxByOwner(ctx, s.DB, u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, b, nil
}

// FindByLoginID looks a user up by login id.
func (s *UserService) FindByLoginID(ctx context.Context, loginID string) (*domain.User, error) {
	return s.find(ctx, "FindByLoginID", loginID, repo.GetUserByLoginID)
}

// FindByID looks a user up by primary key.
func (s *UserService) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.find(ctx, "FindByID", id, repo.GetUserByID)
}

// FindByEmail looks a user up by email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.find(ctx, "FindByEmail", strings.TrimSpace(email), repo.GetUserByEmail)
}

// FindByAddressID looks a user up by public address id; "@name" is accepted.
func (s *UserService) FindByAddressID(ctx context.Context, addressID string) (*domain.User, error) {
	return s.find(ctx, "FindByAddressID", normalizeAddressID(addressID), repo.GetUserByAddressID)
}

type userLookup func(ctx context.Context, db *gorm.DB, key string) (*domain.User, error)

func (s *UserService) find(ctx context.Context, op, key string, get userLookup) (*domain.User, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, op, trace.WithAttributes(attribute.String("lookup.key", key)))
	defer span.End()

	u, err := get(ctx, s.DB, key)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// FindLoginIDByEmail returns the login id registered with email.
func (s *UserService) FindLoginIDByEmail(ctx context.Context, email string) (string, error) {
	u, err := s.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return u.LoginID, nil
}

// ResetPassword replaces the password of loginID with a random temporary one
// and returns it. email must match the account.
func (s *UserService) ResetPassword(ctx context.Context, loginID, email string) (string, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "ResetPassword", trace.WithAttributes(attribute.String("user.login_id", loginID)))
	defer span.End()

	u, err := userByLoginID(ctx, s.DB, strings.TrimSpace(loginID))
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(u.Email, strings.TrimSpace(email)) {
		return "", ErrEmailMismatch
	}

	temp, err := auth.TempPassword(tempPasswordLen)
	if err != nil {
		return "", err
	}
	if err := s.setPassword(ctx, u.ID, temp); err != nil {
		return "", err
	}
	return temp, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, loginID, current, next string) error {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "ChangePassword", trace.WithAttributes(attribute.String("user.login_id", loginID)))
	defer span.End()

	u, err := actingUser(ctx, s.DB, loginID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, current) {
		return ErrBadCredentials
	}
	if len(next) < minPasswordLen {
		return ErrWeakPassword
	}
	return s.setPassword(ctx, u.ID, next)
}

func (s *UserService) setPassword(ctx context.Context, userID, plain string) error {
	hash, err := auth.HashPassword(plain)
	if err != nil {
		return err
	}
	return repo.UpdateUserFields(ctx, s.DB, userID, map[string]any{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	})
}

// UpdateProfile applies p to the account of loginID and returns the result.
func (s *UserService) UpdateProfile(ctx context.Context, loginID string, p ProfileUpdate) (*domain.User, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "UpdateProfile", trace.WithAttributes(attribute.String("user.login_id", loginID)))
	defer span.End()

	u, err := actingUser(ctx, s.DB, loginID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if p.Nickname != nil {
		if nick := strings.TrimSpace(*p.Nickname); nick != "" {
			fields["nickname"] = nick
			u.Nickname = nick
		}
	}
	if p.ProfileImageURL != nil {
		fields["profile_image_url"] = *p.ProfileImageURL
		u.ProfileImageURL = *p.ProfileImageURL
	}
	if p.HeaderImageURL != nil {
		fields["header_image_url"] = *p.HeaderImageURL
		u.HeaderImageURL = *p.HeaderImageURL
	}
	if p.TodayMessage != nil {
		msg := clipRunes(strings.TrimSpace(*p.TodayMessage), MaxTodayMessageRunes)
		fields["today_message"] = msg
		u.TodayMessage = msg
	}
	if p.AIConsultingEnabled != nil {
		fields["ai_consulting_enabled"] = *p.AIConsultingEnabled
		u.AIConsultingEnabled = *p.AIConsultingEnabled
	}
	if len(fields) == 0 {
		return u, nil
	}

	now := time.Now().UTC()
	fields["updated_at"] = now
	if err := repo.UpdateUserFields(ctx, s.DB, u.ID, fields); err != nil {
		return nil, err
	}
	u.UpdatedAt = now
	return u, nil
}

// DeleteAccount removes the account of loginID and everything hanging off
// it, in one transaction and in this order:
//
//  1. collect ids of messages in the user's box and messages the user wrote
//  2. delete notifications referencing those messages, and the user's own feed
//  3. delete the messages
//  4. delete blacklist entries recorded by the box and entries blocking the user
//  5. delete the box
//  6. delete the user
func (s *UserService) DeleteAccount(ctx context.Context, loginID string) error {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "DeleteAccount", trace.WithAttributes(attribute.String("user.login_id", loginID)))
	defer span.End()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := actingUser(ctx, tx, loginID)
		if err != nil {
			return err
		}

		var boxID string
		box, err := repo.GetBoxByOwner(ctx, tx, u.ID)
		switch {
		case err == nil:
			boxID = box.ID
		case !errors.Is(err, repo.ErrNotFound):
			return err
		}

		ids, err := repo.MessageIDsForAccount(ctx, tx, boxID, u.ID)
		if err != nil {
			return err
		}
		if err := repo.DeleteNotificationsByMessageIDs(ctx, tx, ids); err != nil {
			return err
		}
		if err := repo.DeleteNotificationsByTarget(ctx, tx, u.ID); err != nil {
			return err
		}
		if err := repo.DeleteMessages(ctx, tx, ids); err != nil {
			return err
		}
		if boxID != "" {
			if err := repo.DeleteBlacklistByBox(ctx, tx, boxID); err != nil {
				return err
			}
		}
		if err := repo.DeleteBlacklistByBlockedUser(ctx, tx, u.ID); err != nil {
			return err
		}
		if boxID != "" {
			if err := repo.DeleteBox(ctx, tx, boxID); err != nil {
				return err
			}
		}
		return repo.DeleteUser(ctx, tx, u.ID)
	})
}
