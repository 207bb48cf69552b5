package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hoshibaby/spbox-back/internal/domain"
)

// NotificationsResponse is the caller's feed, newest first.
type NotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
}

// NotificationResponse wraps one notification.
type NotificationResponse struct {
	Notification *domain.Notification `json:"notification"`
}

// ListNotifications godoc
// @ID          listNotifications
// @Summary     The caller's notifications
// @Tags        Notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.NotificationsResponse
// @Router      /me/notifications [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	items, err := h.notifSvc.List(c.Request.Context(), currentUID(c))
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	if items == nil {
		items = []domain.Notification{}
	}
	ok(c, http.StatusOK, NotificationsResponse{Notifications: items})
}

// UnreadCount godoc
// @ID          unreadNotificationCount
// @Summary     Number of unread notifications
// @Tags        Notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.CountResponse
// @Router      /me/notifications/unread-count [get]
func (h *Handlers) UnreadCount(c *gin.Context) {
	n, err := h.notifSvc.UnreadCount(c.Request.Context(), currentUID(c))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, CountResponse{Count: n})
}

// MarkNotificationRead godoc
// @ID          markNotificationRead
// @Summary     Mark one notification as read
// @Tags        Notifications
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Notification id"
// @Success     200  {object}  handlers.NotificationResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Not the recipient"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /me/notifications/{id}/read [patch]
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	n, err := h.notifSvc.MarkAsRead(c.Request.Context(), currentUID(c), c.Param("id"))
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, NotificationResponse{Notification: n})
}

// MarkAllNotificationsRead godoc
// @ID          markAllNotificationsRead
// @Summary     Mark every notification as read
// @Tags        Notifications
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.CountResponse  "Number of notifications changed"
// @Router      /me/notifications/read-all [patch]
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.notifSvc.MarkAllAsRead(c.Request.Context(), currentUID(c))
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, CountResponse{Count: n})
}
