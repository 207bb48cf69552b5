// Package services – MessageService
//
// This file implements MessageService, the message lifecycle engine. It
// decides who may write into a box, how the writer is classified relative to
// the box owner, which messages each viewer may list, and how replies
// (manual or AI-generated), hiding, blacklisting, edits and deletions
// interact with notifications.
//
// Message state changes go through the transition methods on domain.Message;
// the resulting value is written back with repo.SaveMessageState.
//
// Side effects that are not part of the caller's request (the automatic AI
// reply and owner/author notifications) are best-effort: failures are
// logged and counted but never returned.
//
// Observability: all public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/hoshibaby/spbox-back/internal/domain"
	"github.com/hoshibaby/spbox-back/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/language"
)

// Replier produces reply text for a message body.
type Replier interface {
	Reply(ctx context.Context, content string) (string, error)
}

// MessageService coordinates message creation, listing and transitions.
type MessageService struct {
	DB *gorm.DB

	// AI drafts replies; nil disables both AI paths.
	AI Replier

	// Locale selects the label set used for author labels and alerts.
	Locale language.Tag

	// MaxContentRunes bounds bodies and replies; <= 0 uses MaxContentRunes.
	MaxContentRunes int
}

// CreateInput is a request to leave a message in a box. LoginID is empty for
// anonymous visitors.
type CreateInput struct {
	BoxURLKey string
	Content   string
	AskAI     bool
	Private   bool
	LoginID   string
}

func (s *MessageService) labels() Labels { return LabelsFor(s.Locale) }

func (s *MessageService) maxRunes() int {
	if s.MaxContentRunes > 0 {
		return s.MaxContentRunes
	}
	return MaxContentRunes
}

func logFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}

// Create validates and stores a message and returns its id.
//
// Checks, in order: box key present and resolvable, content non-blank and
// within limits, anonymous writing allowed (or a logged-in writer), writer
// not blacklisted. When the box is in AI mode and the owner writes with
// AskAI set, an AI reply is attached best-effort. The box owner always gets
// a COMMENT notification.
func (s *MessageService) Create(ctx context.Context, in CreateInput) (string, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("box.url_key", in.BoxURLKey),
			attribute.Bool("ask_ai", in.AskAI),
			attribute.Bool("private", in.Private),
			attribute.Bool("authenticated", in.LoginID != ""),
		),
	)
	defer span.End()

	key := strings.TrimSpace(in.BoxURLKey)
	if key == "" {
		return "", ErrMissingBoxKey
	}
	box, err := repo.GetBoxByURLKey(ctx, s.DB, key)
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrBoxNotFound
	}
	if err != nil {
		return "", err
	}

	content, err := normalizeText(in.Content, s.maxRunes(), ErrEmptyContent, ErrContentTooLong)
	if err != nil {
		return "", err
	}

	if !box.AllowAnonymous && in.LoginID == "" {
		return "", ErrLoginRequired
	}

	var writer *domain.User
	if in.LoginID != "" {
		writer, err = actingUser(ctx, s.DB, in.LoginID)
		if err != nil {
			return "", err
		}
		blocked, err := repo.BlacklistExists(ctx, s.DB, box.ID, writer.ID)
		if err != nil {
			return "", err
		}
		if blocked {
			return "", ErrUserBlocked
		}
	}

	now := time.Now().UTC()
	m := domain.Message{
		ID:             uuid.NewString(),
		BoxID:          box.ID,
		Content:        content,
		AuthorType:     domain.AuthorAnonymous,
		PrivateMessage: in.Private,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if writer != nil {
		id := writer.ID
		m.AuthorUserID = &id
		if writer.ID == box.OwnerID {
			m.AuthorType = domain.AuthorOwner
		}
	}

	if err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repo.CreateMessage(ctx, tx, &m)
	}); err != nil {
		span.RecordError(err)
		return "", err
	}
	messagesCreated.WithLabelValues(string(m.AuthorType)).Inc()
	span.SetAttributes(attribute.String("message.id", m.ID))

	if box.AIMode && m.FromOwner() && in.AskAI {
		s.autoReply(ctx, m)
	}

	l := s.labels()
	alert := l.NewMessage
	if m.FromOwner() {
		alert = l.OwnerPosted
	}
	s.notify(ctx, box.OwnerID, domain.NotificationComment, alert, m.ID)

	return m.ID, nil
}

// autoReply attaches an AI reply to m. Every failure is logged and dropped.
func (s *MessageService) autoReply(ctx context.Context, m domain.Message) {
	if s.AI == nil {
		return
	}
	text, err := s.AI.Reply(ctx, m.Content)
	if err == nil {
		text = clipRunes(text, s.maxRunes())
		err = repo.SaveMessageState(ctx, s.DB, m.WithReply(text, domain.ReplyByAI, time.Now().UTC()))
	}
	aiReplies.WithLabelValues("auto", aiOutcome(err)).Inc()
	if err != nil {
		logFrom(ctx).Warn().Err(err).Str("message_id", m.ID).Msg("auto ai reply failed")
	}
}

// notify appends a notification. Failures are logged and dropped.
func (s *MessageService) notify(ctx context.Context, target string, typ domain.NotificationType, text, messageID string) {
	id := messageID
	if _, err := createNotification(ctx, s.DB, target, typ, text, messageLink(messageID), &id); err != nil {
		logFrom(ctx).Warn().Err(err).
			Str("message_id", messageID).
			Str("notification_type", string(typ)).
			Msg("notification failed")
	}
}

// ListOwnerMessages returns a page of every message in the owner's box.
func (s *MessageService) ListOwnerMessages(ctx context.Context, ownerLoginID string, page, size int) (*MessagePage, error) {
	return s.listOwned(ctx, "ListOwnerMessages", ownerLoginID, false, page, size)
}

// ListAnsweredMessages returns a page of the owner's messages that carry a reply.
func (s *MessageService) ListAnsweredMessages(ctx context.Context, ownerLoginID string, page, size int) (*MessagePage, error) {
	return s.listOwned(ctx, "ListAnsweredMessages", ownerLoginID, true, page, size)
}

func (s *MessageService) listOwned(ctx context.Context, op, ownerLoginID string, answered bool, page, size int) (*MessagePage, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, op,
		trace.WithAttributes(
			attribute.String("user.login_id", ownerLoginID),
			attribute.Int("page", page),
			attribute.Int("page_size", size),
		),
	)
	defer span.End()

	owner, err := actingUser(ctx, s.DB, ownerLoginID)
	if err != nil {
		return nil, err
	}
	box, err := boxByOwner(ctx, s.DB, owner.ID)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, box, repo.MessageFilter{BoxID: box.ID, AnsweredOnly: answered}, page, size)
}

// ListPublicMessages returns a page of the messages of urlKey that are
// visible to visitors: not hidden, not system and not private.
func (s *MessageService) ListPublicMessages(ctx context.Context, urlKey string, page, size int) (*MessagePage, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "ListPublicMessages",
		trace.WithAttributes(
			attribute.String("box.url_key", urlKey),
			attribute.Int("page", page),
			attribute.Int("page_size", size),
		),
	)
	defer span.End()

	if strings.TrimSpace(urlKey) == "" {
		return nil, ErrMissingBoxKey
	}
	box, err := repo.GetBoxByURLKey(ctx, s.DB, urlKey)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrBoxNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.page(ctx, box, repo.MessageFilter{BoxID: box.ID, PublicOnly: true}, page, size)
}

func (s *MessageService) page(ctx context.Context, box *domain.Box, f repo.MessageFilter, page, size int) (*MessagePage, error) {
	page, size = normalizePaging(page, size)

	total, err := repo.CountMessages(ctx, s.DB, f)
	if err != nil {
		return nil, err
	}
	items, err := repo.ListMessagesPage(ctx, s.DB, f, page*size, size)
	if err != nil {
		return nil, err
	}
	header, err := boxHeader(ctx, s.DB, box)
	if err != nil {
		return nil, err
	}
	return &MessagePage{
		Page:           page,
		Size:           size,
		TotalPages:     totalPages(total, size),
		TotalElements:  total,
		AllowAnonymous: box.AllowAnonymous,
		Box:            header,
		Content:        summarizeAll(items, s.labels()),
	}, nil
}

// GetMyBox returns the owner's box header with every message summary.
func (s *MessageService) GetMyBox(ctx context.Context, ownerLoginID string) (*MyBox, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "GetMyBox", trace.WithAttributes(attribute.String("user.login_id", ownerLoginID)))
	defer span.End()

	owner, err := actingUser(ctx, s.DB, ownerLoginID)
	if err != nil {
		return nil, err
	}
	box, err := boxByOwner(ctx, s.DB, owner.ID)
	if err != nil {
		return nil, err
	}
	header, err := boxHeader(ctx, s.DB, box)
	if err != nil {
		return nil, err
	}
	items, err := repo.ListBoxMessages(ctx, s.DB, box.ID)
	if err != nil {
		return nil, err
	}
	return &MyBox{Box: *header, Messages: summarizeAll(items, s.labels())}, nil
}

// GetMessageDetail returns the full message to its box owner or its author.
func (s *MessageService) GetMessageDetail(ctx context.Context, id, viewerLoginID string) (*MessageDetail, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "GetMessageDetail",
		trace.WithAttributes(
			attribute.String("message.id", id),
			attribute.String("user.login_id", viewerLoginID),
		),
	)
	defer span.End()

	m, viewer, err := s.load(ctx, id, viewerLoginID)
	if err != nil {
		return nil, err
	}
	if m.Box.OwnerID != viewer.ID && !m.AuthoredBy(viewer.ID) {
		return nil, ErrForbidden
	}
	d := detailOf(*m)
	return &d, nil
}

// load fetches the message and the acting user.
func (s *MessageService) load(ctx context.Context, id, loginID string) (*domain.Message, *domain.User, error) {
	m, err := repo.GetMessage(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	u, err := actingUser(ctx, s.DB, loginID)
	if err != nil {
		return nil, nil, err
	}
	return m, u, nil
}

// loadOwned is load plus a box-ownership check.
func (s *MessageService) loadOwned(ctx context.Context, id, ownerLoginID string) (*domain.Message, *domain.User, error) {
	m, u, err := s.load(ctx, id, ownerLoginID)
	if err != nil {
		return nil, nil, err
	}
	if m.Box.OwnerID != u.ID {
		return nil, nil, ErrNotBoxOwner
	}
	return m, u, nil
}

func (s *MessageService) save(ctx context.Context, db *gorm.DB, m domain.Message) error {
	err := repo.SaveMessageState(ctx, db, m)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrMessageNotFound
	}
	return err
}

// Reply sets (or replaces) the owner's reply. When the message has an author
// other than the owner, the author gets an OWNER_REPLY notification.
func (s *MessageService) Reply(ctx context.Context, id, text, ownerLoginID string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Reply",
		trace.WithAttributes(
			attribute.String("message.id", id),
			attribute.String("user.login_id", ownerLoginID),
		),
	)
	defer span.End()

	m, owner, err := s.loadOwned(ctx, id, ownerLoginID)
	if err != nil {
		return nil, err
	}
	text, err = normalizeText(text, s.maxRunes(), ErrEmptyReply, ErrReplyTooLong)
	if err != nil {
		return nil, err
	}

	replied := m.WithReply(text, domain.ReplyByOwner, time.Now().UTC())
	if err := s.save(ctx, s.DB, replied); err != nil {
		return nil, err
	}

	if replied.AuthorUserID != nil && *replied.AuthorUserID != owner.ID {
		s.notify(ctx, *replied.AuthorUserID, domain.NotificationOwnerReply, s.labels().OwnerReplied, replied.ID)
	}
	return &replied, nil
}

// ClearReply removes any reply from the message. No notification is sent.
func (s *MessageService) ClearReply(ctx context.Context, id, ownerLoginID string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "ClearReply",
		trace.WithAttributes(
			attribute.String("message.id", id),
			attribute.String("user.login_id", ownerLoginID),
		),
	)
	defer span.End()

	m, _, err := s.loadOwned(ctx, id, ownerLoginID)
	if err != nil {
		return nil, err
	}
	cleared := m.WithoutReply()
	if err := s.save(ctx, s.DB, cleared); err != nil {
		return nil, err
	}
	return &cleared, nil
}

// GenerateAIReply asks the AI for a reply on the owner's behalf. It refuses
// when the box is not in AI mode or a reply already exists. Unlike the
// automatic path, a generator failure is returned as ErrAIUnavailable.
func (s *MessageService) GenerateAIReply(ctx context.Context, id, ownerLoginID string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "GenerateAIReply",
		trace.WithAttributes(
			attribute.String("message.id", id),
			attribute.String("user.login_id", ownerLoginID),
		),
	)
	defer span.End()

	m, owner, err := s.loadOwned(ctx, id, ownerLoginID)
	if err != nil {
		return nil, err
	}
	if !m.Box.AIMode {
		return nil, ErrAIModeDisabled
	}
	if m.ReplyContent != nil && strings.TrimSpace(*m.ReplyContent) != "" {
		return nil, ErrReplyExists
	}
	if s.AI == nil {
		return nil, ErrAIUnavailable
	}

	text, err := s.AI.Reply(ctx, m.Content)
	if err != nil {
		aiReplies.WithLabelValues("explicit", "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "ai reply failed")
		logFrom(ctx).Warn().Err(err).Str("message_id", m.ID).Msg("explicit ai reply failed")
		return nil, ErrAIUnavailable
	}

	replied := m.WithReply(clipRunes(text, s.maxRunes()), domain.ReplyByAI, time.Now().UTC())
	err = s.save(ctx, s.DB, replied)
	aiReplies.WithLabelValues("explicit", aiOutcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	if replied.AuthorUserID != nil && *replied.AuthorUserID != owner.ID {
		s.notify(ctx, *replied.AuthorUserID, domain.NotificationAIReply, s.labels().AIReplied, replied.ID)
	}
	return &replied, nil
}

// Hide marks the message hidden. Hiding twice is not an error.
func (s *MessageService) Hide(ctx context.Context, id, ownerLoginID string) error {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Hide",
		trace.WithAttributes(
			attribute.String("message.id", id),
			attribute.String("user.login_id", ownerLoginID),
		),
	)
	defer span.End()

	m, _, err := s.loadOwned(ctx, id, ownerLoginID)
	if err != nil {
		return err
	}
	if m.Hidden {
		return nil
	}
	return s.save(ctx, s.DB, m.AsHidden())
}

// Blacklist blocks the author of the message from the owner's box and hides
// the message, in one transaction. Messages without an author reference are
// only hidden.
func (s *MessageService) Blacklist(ctx context.Context, id, ownerLoginID string) error {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Blacklist",
		trace.WithAttributes(
			attribute.String("message.id", id),
			attribute.String("user.login_id", ownerLoginID),
		),
	)
	defer span.End()

	m, _, err := s.loadOwned(ctx, id, ownerLoginID)
	if err != nil {
		return err
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.AuthorUserID != nil {
			if _, err := repo.InsertBlacklist(ctx, tx, m.BoxID, *m.AuthorUserID); err != nil {
				return err
			}
		}
		return s.save(ctx, tx, m.AsHidden())
	})
}

// Update edits the body of a message. Only an owner editing a message they
// wrote in their own box may do so.
func (s *MessageService) Update(ctx context.Context, id, text, loginID string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(
			attribute.String("message.id", id),
			attribute.String("user.login_id", loginID),
		),
	)
	defer span.End()

	m, u, err := s.load(ctx, id, loginID)
	if err != nil {
		return nil, err
	}
	if !m.AuthoredBy(u.ID) {
		return nil, ErrNotAuthor
	}
	if m.Box.OwnerID != u.ID {
		return nil, ErrNotBoxOwner
	}
	text, err = normalizeText(text, s.maxRunes(), ErrEmptyContent, ErrContentTooLong)
	if err != nil {
		return nil, err
	}

	edited := m.WithContent(text)
	if err := s.save(ctx, s.DB, edited); err != nil {
		return nil, err
	}
	return &edited, nil
}

// Delete removes a message and every notification that references it. Only
// the box owner may delete.
func (s *MessageService) Delete(ctx context.Context, id, loginID string) error {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("message.id", id),
			attribute.String("user.login_id", loginID),
		),
	)
	defer span.End()

	m, _, err := s.loadOwned(ctx, id, loginID)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.DeleteNotificationsByMessageIDs(ctx, tx, []string{m.ID}); err != nil {
			return err
		}
		return repo.DeleteMessage(ctx, tx, m.ID)
	})
}
