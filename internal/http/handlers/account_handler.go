// Profile and account management for the authenticated user.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hoshibaby/spbox-back/internal/domain"
	"github.com/hoshibaby/spbox-back/internal/services"
)

// ProfileUpdateRequest lists the editable profile fields; omitted fields are
// left unchanged.
type ProfileUpdateRequest struct {
	Nickname            *string `json:"nickname"              example:"Yulsi"`
	ProfileImageURL     *string `json:"profile_image_url"     example:"https://cdn.example.com/p.png"`
	HeaderImageURL      *string `json:"header_image_url"      example:"https://cdn.example.com/h.png"`
	TodayMessage        *string `json:"today_message"         example:"Ask me anything"`
	AIConsultingEnabled *bool   `json:"ai_consulting_enabled" example:"true"`
}

// ChangePasswordRequest replaces the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password"     binding:"required"`
}

// UserResponse wraps a user profile.
type UserResponse struct {
	User *domain.User `json:"user"`
}

// GetMe godoc
// @ID          getMe
// @Summary     The caller's profile
// @Tags        Me
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.UserResponse
// @Router      /me [get]
func (h *Handlers) GetMe(c *gin.Context) {
	u, err := h.userSvc.FindByLoginID(c.Request.Context(), currentLogin(c))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, UserResponse{User: u})
}

// UpdateMe godoc
// @ID          updateMe
// @Summary     Update the caller's profile
// @Tags        Me
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.ProfileUpdateRequest  true  "Changed fields"
// @Success     200  {object}  handlers.UserResponse
// @Router      /me [patch]
func (h *Handlers) UpdateMe(c *gin.Context) {
	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid profile payload")
		return
	}
	u, err := h.userSvc.UpdateProfile(c.Request.Context(), currentLogin(c), services.ProfileUpdate{
		Nickname:            req.Nickname,
		ProfileImageURL:     req.ProfileImageURL,
		HeaderImageURL:      req.HeaderImageURL,
		TodayMessage:        req.TodayMessage,
		AIConsultingEnabled: req.AIConsultingEnabled,
	})
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, UserResponse{User: u})
}

// ChangePassword godoc
// @ID          changePassword
// @Summary     Change the caller's password
// @Tags        Me
// @Accept      json
// @Security    BearerAuth
// @Param       body  body  handlers.ChangePasswordRequest  true  "Passwords"
// @Success     204
// @Failure     401  {object}  handlers.ErrorResponse  "Current password wrong"
// @Router      /me/password [put]
func (h *Handlers) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "current_password and new_password are required")
		return
	}
	if err := h.userSvc.ChangePassword(c.Request.Context(), currentLogin(c), req.CurrentPassword, req.NewPassword); err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	noContent(c)
}

// DeleteMe godoc
// @ID          deleteMe
// @Summary     Delete the caller's account
// @Description Removes the account, its box, every message it wrote or received, related notifications and blacklist rows.
// @Tags        Me
// @Security    BearerAuth
// @Success     204
// @Router      /me [delete]
func (h *Handlers) DeleteMe(c *gin.Context) {
	if err := h.userSvc.DeleteAccount(c.Request.Context(), currentLogin(c)); err != nil {
		failErr(c, err, ErrCodeDeleteFailed)
		return
	}
	noContent(c)
}
