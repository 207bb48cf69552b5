// Package handlers exposes the postbox HTTP API.
//
// Handlers are transport-thin: they bind and sanity-check input, resolve the
// caller from the auth middleware, call the services and translate results
// (and service errors) into JSON responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hoshibaby/spbox-back/internal/domain"
	"github.com/hoshibaby/spbox-back/internal/http/middleware"
	"github.com/hoshibaby/spbox-back/internal/services"
	"github.com/hoshibaby/spbox-back/internal/utils"
)

//
// Service contracts
//

// MessageService is the message lifecycle consumed by the handlers.
type MessageService interface {
	Create(ctx context.Context, in services.CreateInput) (string, error)
	ListOwnerMessages(ctx context.Context, ownerLoginID string, page, size int) (*services.MessagePage, error)
	ListAnsweredMessages(ctx context.Context, ownerLoginID string, page, size int) (*services.MessagePage, error)
	ListPublicMessages(ctx context.Context, urlKey string, page, size int) (*services.MessagePage, error)
	GetMyBox(ctx context.Context, ownerLoginID string) (*services.MyBox, error)
	GetMessageDetail(ctx context.Context, id, viewerLoginID string) (*services.MessageDetail, error)
	Reply(ctx context.Context, id, text, ownerLoginID string) (*domain.Message, error)
	ClearReply(ctx context.Context, id, ownerLoginID string) (*domain.Message, error)
	GenerateAIReply(ctx context.Context, id, ownerLoginID string) (*domain.Message, error)
	Hide(ctx context.Context, id, ownerLoginID string) error
	Blacklist(ctx context.Context, id, ownerLoginID string) error
	Update(ctx context.Context, id, text, loginID string) (*domain.Message, error)
	Delete(ctx context.Context, id, loginID string) error
}

// BoxService covers box headers, flags and listing stats.
type BoxService interface {
	FindByOwner(ctx context.Context, ownerID string) (*domain.Box, error)
	HeaderByURLKey(ctx context.Context, urlKey string) (*services.BoxHeader, error)
	HeaderByAddressID(ctx context.Context, addressID string) (*services.BoxHeader, error)
	UpdateAllowAnonymous(ctx context.Context, ownerLoginID string, v bool) (*domain.Box, error)
	UpdateAIMode(ctx context.Context, ownerLoginID string, v bool) (*domain.Box, error)
	Stats(ctx context.Context, boxID string) (int64, *time.Time, error)
}

// UserService covers accounts and credentials.
type UserService interface {
	Signup(ctx context.Context, in services.SignupInput) (*domain.User, *domain.Box, error)
	Login(ctx context.Context, loginID, password string) (*domain.User, *domain.Box, error)
	FindByLoginID(ctx context.Context, loginID string) (*domain.User, error)
	FindLoginIDByEmail(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, loginID, email string) (string, error)
	ChangePassword(ctx context.Context, loginID, current, next string) error
	UpdateProfile(ctx context.Context, loginID string, p services.ProfileUpdate) (*domain.User, error)
	DeleteAccount(ctx context.Context, loginID string) error
}

// BlacklistService lists and lifts blocks.
type BlacklistService interface {
	List(ctx context.Context, ownerLoginID string) ([]services.BlockedUser, error)
	Unblock(ctx context.Context, ownerLoginID, blockedUserID string) error
}

// NotificationService is the caller's notification feed.
type NotificationService interface {
	List(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, userID, id string) (*domain.Notification, error)
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

// TokenIssuer mints access tokens after a successful login.
type TokenIssuer interface {
	Issue(userID, loginID string) (string, error)
	TTL() time.Duration
}

// IdempotencyStore records message submissions keyed by
// (actor, box url key, Idempotency-Key).
type IdempotencyStore interface {
	Lookup(ctx context.Context, actorID, boxKey, key string, now time.Time) (messageID string, found bool, err error)
	Remember(ctx context.Context, actorID, boxKey, key, messageID string, status int, ttl time.Duration) error
}

//
// Handler wiring
//

// Deps bundles the collaborators of Handlers. Idempotency may be nil, in
// which case Idempotency-Key headers are validated but not honored.
type Deps struct {
	Messages       MessageService
	Boxes          BoxService
	Users          UserService
	Blacklist      BlacklistService
	Notifications  NotificationService
	Tokens         TokenIssuer
	Idempotency    IdempotencyStore
	IdempotencyTTL time.Duration
}

// Handlers groups every API endpoint.
type Handlers struct {
	msgSvc   MessageService
	boxSvc   BoxService
	userSvc  UserService
	blSvc    BlacklistService
	notifSvc NotificationService
	tokens   TokenIssuer
	idem     IdempotencyStore
	idemTTL  time.Duration
}

// New constructs Handlers from d.
func New(d Deps) *Handlers {
	ttl := d.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Handlers{
		msgSvc:   d.Messages,
		boxSvc:   d.Boxes,
		userSvc:  d.Users,
		blSvc:    d.Blacklist,
		notifSvc: d.Notifications,
		tokens:   d.Tokens,
		idem:     d.Idempotency,
		idemTTL:  ttl,
	}
}

//
// Shared DTOs and helpers
//

// ToggleRequest flips a boolean box setting.
type ToggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required" example:"true"`
}

// CountResponse carries a single counter.
type CountResponse struct {
	Count int64 `json:"count" example:"3"`
}

// pageQuery reads the 0-based page and size query parameters. Clamping is
// left to the services.
func pageQuery(c *gin.Context) (page, size int) {
	return utils.PageQuery(c.Query("page"), c.Query("size"), 0, 10)
}

// failErr maps a service error onto the HTTP error envelope. Unknown errors
// become 500 with fallbackCode and are logged; their text is not echoed.
func failErr(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, publicMessage(err))
	case errors.Is(err, services.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, publicMessage(err))
	case errors.Is(err, services.ErrLoginRequired):
		fail(c, http.StatusForbidden, ErrCodeLoginRequired, publicMessage(err))
	case errors.Is(err, services.ErrBanned):
		fail(c, http.StatusForbidden, ErrCodeBanned, publicMessage(err))
	case errors.Is(err, services.ErrBlocked):
		fail(c, http.StatusForbidden, ErrCodeBlocked, publicMessage(err))
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, publicMessage(err))
	case errors.Is(err, services.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, publicMessage(err))
	case errors.Is(err, services.ErrConflict):
		fail(c, http.StatusConflict, ErrCodeConflict, publicMessage(err))
	case errors.Is(err, services.ErrAIUnavailable):
		fail(c, http.StatusBadGateway, ErrCodeAIUnavailable, err.Error())
	default:
		middleware.LoggerFrom(c).Error().Err(err).Str("code", fallbackCode).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, fallbackCode, "internal server error")
	}
}

// publicMessage drops the trailing category root ("...: not found") from a
// wrapped service error.
func publicMessage(err error) string {
	s := err.Error()
	if i := strings.LastIndex(s, ": "); i > 0 {
		return s[:i]
	}
	return s
}

// currentLogin returns the authenticated login id. Routes behind RequireAuth
// always have one.
func currentLogin(c *gin.Context) string { return middleware.LoginID(c) }

// currentUID returns the authenticated account UUID.
func currentUID(c *gin.Context) string { return middleware.UserUID(c) }
