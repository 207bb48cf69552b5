// Message HTTP handlers.
//
//   - POST /messages, POST /boxes/{urlKey}/messages   (leave a message)
//   - GET  /boxes/{urlKey}/messages                    (public listing)
//   - /me/messages/**                                  (owner inbox and moderation)
//
// Idempotency: when the client sends an Idempotency-Key and a submission with
// the same (actor, box, key) already succeeded, the recorded message id is
// returned with `Idempotency-Replayed: true` and nothing new is written.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hoshibaby/spbox-back/internal/domain"
	"github.com/hoshibaby/spbox-back/internal/http/middleware"
	"github.com/hoshibaby/spbox-back/internal/services"
)

//
// DTOs
//

// CreateMessageRequest is the payload for leaving a message. BoxURLKey may be
// omitted on /boxes/{urlKey}/messages.
type CreateMessageRequest struct {
	BoxURLKey string `json:"box_url_key" example:"a1b2c3d4e5"`
	Content   string `json:"content"     binding:"required" example:"I've been feeling stuck at work lately."`
	AskAI     bool   `json:"ask_ai"      example:"false"`
	Private   bool   `json:"private"     example:"false"`
}

// CreateMessageResponse returns the id of the stored message.
type CreateMessageResponse struct {
	MessageID string `json:"message_id" example:"0b7e6f2a-5d1c-4f9e-8a3b-2c4d5e6f7a8b"`
}

// ContentRequest carries replacement text for a message or a reply.
type ContentRequest struct {
	Content string `json:"content" binding:"required" example:"Thanks for writing in!"`
}

// MessageResponse wraps a single message after a state change.
type MessageResponse struct {
	Message *domain.Message `json:"message"`
}

//
// Helpers
//

var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent converts CRLF/CR to LF and collapses runs of blank lines
// to one. Trimming and length checks happen in the service.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return nlCollapseRE.ReplaceAllString(s, "\n\n")
}

// inboxETag derives a weak validator for the owner's listing from the
// message count, the latest message update, the box and profile timestamps
// and the requested page. ok is false when any input is unavailable.
func (h *Handlers) inboxETag(ctx context.Context, kind string, c *gin.Context, page, size int) (string, bool) {
	uid := currentUID(c)
	if uid == "" {
		return "", false
	}
	box, err := h.boxSvc.FindByOwner(ctx, uid)
	if err != nil {
		return "", false
	}
	count, latest, err := h.boxSvc.Stats(ctx, box.ID)
	if err != nil {
		return "", false
	}
	user, err := h.userSvc.FindByLoginID(ctx, currentLogin(c))
	if err != nil {
		return "", false
	}
	var ts int64
	if latest != nil {
		ts = latest.UnixNano()
	}
	return fmt.Sprintf(`W/"%s:%s:%d:%d:%d:%d:%d:%d"`,
		kind, box.ID, count, ts, box.UpdatedAt.UnixNano(), user.UpdatedAt.UnixNano(), page, size), true
}

// conditional sets ETag and reports whether a 304 was written.
func conditional(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

//
// Handlers
//

// CreateMessage godoc
// @ID          createMessage
// @Summary     Leave a message in a box
// @Description Anonymous visitors may write when the box allows it. Supports
// @Description idempotent retries via the Idempotency-Key header.
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string                          false  "Idempotency key for safe retries"
// @Param       body             body    handlers.CreateMessageRequest  true   "Message"
// @Success     201  {object}  handlers.CreateMessageResponse
// @Success     200  {object}  handlers.CreateMessageResponse  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Empty or too long"
// @Failure     403  {object}  handlers.ErrorResponse  "Login required or blocked"
// @Failure     404  {object}  handlers.ErrorResponse  "Box not found"
// @Router      /messages [post]
// @Router      /boxes/{urlKey}/messages [post]
func (h *Handlers) CreateMessage(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	boxKey := strings.TrimSpace(c.Param("urlKey"))
	if boxKey == "" {
		boxKey = strings.TrimSpace(req.BoxURLKey)
	}
	if boxKey == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "box_url_key required")
		return
	}

	actor := middleware.ActorID(c)
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.idem != nil {
		if id, found, err := h.idem.Lookup(ctx, actor, boxKey, idemKey, time.Now().UTC()); err == nil && found {
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusOK, CreateMessageResponse{MessageID: id})
			return
		}
	}

	id, err := h.msgSvc.Create(ctx, services.CreateInput{
		BoxURLKey: boxKey,
		Content:   sanitizeContent(req.Content),
		AskAI:     req.AskAI,
		Private:   req.Private,
		LoginID:   currentLogin(c),
	})
	if err != nil {
		failErr(c, err, ErrCodeCreateFailed)
		return
	}

	if idemKey != "" && h.idem != nil {
		if err := h.idem.Remember(ctx, actor, boxKey, idemKey, id, http.StatusCreated, h.idemTTL); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not stored")
		}
	}
	ok(c, http.StatusCreated, CreateMessageResponse{MessageID: id})
}

// ListPublicMessages godoc
// @ID          listPublicMessages
// @Summary     List the public messages of a box
// @Description Only non-hidden, non-private, non-system messages; newest first.
// @Tags        Boxes
// @Produce     json
// @Param       urlKey  path   string  true   "Box URL key"
// @Param       page    query  int     false  "0-based page"  default(0)
// @Param       size    query  int     false  "Page size"     default(10) maximum(100)
// @Success     200  {object}  services.MessagePage
// @Failure     404  {object}  handlers.ErrorResponse  "Box not found"
// @Router      /boxes/{urlKey}/messages [get]
func (h *Handlers) ListPublicMessages(c *gin.Context) {
	page, size := pageQuery(c)
	res, err := h.msgSvc.ListPublicMessages(c.Request.Context(), c.Param("urlKey"), page, size)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, res)
}

// ListMyMessages godoc
// @ID          listMyMessages
// @Summary     List the owner's inbox
// @Description Every message in the caller's box, hidden ones included, newest first. Supports If-None-Match.
// @Tags        Me
// @Produce     json
// @Security    BearerAuth
// @Param       page  query  int  false  "0-based page"  default(0)
// @Param       size  query  int  false  "Page size"     default(10) maximum(100)
// @Success     200  {object}  services.MessagePage
// @Success     304  "Not modified"
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /me/messages [get]
func (h *Handlers) ListMyMessages(c *gin.Context) {
	h.listOwned(c, "inbox", h.msgSvc.ListOwnerMessages)
}

// ListAnsweredMessages godoc
// @ID          listAnsweredMessages
// @Summary     List the owner's answered messages
// @Tags        Me
// @Produce     json
// @Security    BearerAuth
// @Param       page  query  int  false  "0-based page"  default(0)
// @Param       size  query  int  false  "Page size"     default(10) maximum(100)
// @Success     200  {object}  services.MessagePage
// @Success     304  "Not modified"
// @Router      /me/messages/answered [get]
func (h *Handlers) ListAnsweredMessages(c *gin.Context) {
	h.listOwned(c, "answered", h.msgSvc.ListAnsweredMessages)
}

func (h *Handlers) listOwned(c *gin.Context, kind string, list func(context.Context, string, int, int) (*services.MessagePage, error)) {
	ctx := c.Request.Context()
	page, size := pageQuery(c)

	if etag, has := h.inboxETag(ctx, kind, c, page, size); has && conditional(c, etag) {
		return
	}
	res, err := list(ctx, currentLogin(c), page, size)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, res)
}

// GetMessage godoc
// @ID          getMessage
// @Summary     Message detail
// @Description Visible to the box owner and to the author.
// @Tags        Me
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Message id"
// @Success     200  {object}  services.MessageDetail
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /me/messages/{id} [get]
func (h *Handlers) GetMessage(c *gin.Context) {
	d, err := h.msgSvc.GetMessageDetail(c.Request.Context(), c.Param("id"), currentLogin(c))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, d)
}

// UpdateMessage godoc
// @ID          updateMessage
// @Summary     Edit a message
// @Description Only the author may edit, and only inside their own box.
// @Tags        Me
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string                   true  "Message id"
// @Param       body  body  handlers.ContentRequest  true  "New content"
// @Success     200  {object}  handlers.MessageResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Router      /me/messages/{id} [put]
func (h *Handlers) UpdateMessage(c *gin.Context) {
	var req ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	m, err := h.msgSvc.Update(c.Request.Context(), c.Param("id"), sanitizeContent(req.Content), currentLogin(c))
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: m})
}

// DeleteMessage godoc
// @ID          deleteMessage
// @Summary     Delete a message
// @Tags        Me
// @Security    BearerAuth
// @Param       id  path  string  true  "Message id"
// @Success     204
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /me/messages/{id} [delete]
func (h *Handlers) DeleteMessage(c *gin.Context) {
	if err := h.msgSvc.Delete(c.Request.Context(), c.Param("id"), currentLogin(c)); err != nil {
		failErr(c, err, ErrCodeDeleteFailed)
		return
	}
	noContent(c)
}

// ReplyMessage godoc
// @ID          replyMessage
// @Summary     Reply to a message as the box owner
// @Tags        Me
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string                   true  "Message id"
// @Param       body  body  handlers.ContentRequest  true  "Reply"
// @Success     200  {object}  handlers.MessageResponse
// @Router      /me/messages/{id}/reply [put]
func (h *Handlers) ReplyMessage(c *gin.Context) {
	var req ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	m, err := h.msgSvc.Reply(c.Request.Context(), c.Param("id"), sanitizeContent(req.Content), currentLogin(c))
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: m})
}

// ClearReply godoc
// @ID          clearReply
// @Summary     Remove the reply of a message
// @Tags        Me
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Message id"
// @Success     200  {object}  handlers.MessageResponse
// @Router      /me/messages/{id}/reply [delete]
func (h *Handlers) ClearReply(c *gin.Context) {
	m, err := h.msgSvc.ClearReply(c.Request.Context(), c.Param("id"), currentLogin(c))
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: m})
}

// GenerateAIReply godoc
// @ID          generateAiReply
// @Summary     Ask the AI to answer a message
// @Tags        Me
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Message id"
// @Success     200  {object}  handlers.MessageResponse
// @Failure     409  {object}  handlers.ErrorResponse  "AI mode off or reply exists"
// @Failure     502  {object}  handlers.ErrorResponse  "Generator unavailable"
// @Router      /me/messages/{id}/ai-reply [post]
func (h *Handlers) GenerateAIReply(c *gin.Context) {
	m, err := h.msgSvc.GenerateAIReply(c.Request.Context(), c.Param("id"), currentLogin(c))
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: m})
}

// HideMessage godoc
// @ID          hideMessage
// @Summary     Hide a message from every listing
// @Tags        Me
// @Security    BearerAuth
// @Param       id  path  string  true  "Message id"
// @Success     204
// @Router      /me/messages/{id}/hide [patch]
func (h *Handlers) HideMessage(c *gin.Context) {
	if err := h.msgSvc.Hide(c.Request.Context(), c.Param("id"), currentLogin(c)); err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	noContent(c)
}

// BlacklistAuthor godoc
// @ID          blacklistAuthor
// @Summary     Block the author of a message
// @Description Adds the logged-in author to the box blacklist and hides the message.
// @Tags        Me
// @Security    BearerAuth
// @Param       id  path  string  true  "Message id"
// @Success     204
// @Router      /me/messages/{id}/blacklist [post]
func (h *Handlers) BlacklistAuthor(c *gin.Context) {
	if err := h.msgSvc.Blacklist(c.Request.Context(), c.Param("id"), currentLogin(c)); err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	noContent(c)
}
