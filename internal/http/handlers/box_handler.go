// Box HTTP handlers: public headers and the owner's box settings.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hoshibaby/spbox-back/internal/domain"
)

// BoxResponse wraps the box after a settings change.
type BoxResponse struct {
	Box *domain.Box `json:"box"`
}

// GetBox godoc
// @ID          getBox
// @Summary     Public header of a box
// @Tags        Boxes
// @Produce     json
// @Param       urlKey  path  string  true  "Box URL key"
// @Success     200  {object}  services.BoxHeader
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /boxes/{urlKey} [get]
func (h *Handlers) GetBox(c *gin.Context) {
	hdr, err := h.boxSvc.HeaderByURLKey(c.Request.Context(), c.Param("urlKey"))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, hdr)
}

// GetBoxByAddress godoc
// @ID          getBoxByAddress
// @Summary     Public header of a box by the owner's address id
// @Tags        Boxes
// @Produce     json
// @Param       addressId  path  string  true  "Owner address id"
// @Success     200  {object}  services.BoxHeader
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /addresses/{addressId} [get]
func (h *Handlers) GetBoxByAddress(c *gin.Context) {
	hdr, err := h.boxSvc.HeaderByAddressID(c.Request.Context(), c.Param("addressId"))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, hdr)
}

// GetMyBox godoc
// @ID          getMyBox
// @Summary     The caller's box with its first page of messages
// @Tags        Me
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  services.MyBox
// @Router      /me/box [get]
func (h *Handlers) GetMyBox(c *gin.Context) {
	mb, err := h.msgSvc.GetMyBox(c.Request.Context(), currentLogin(c))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, mb)
}

// SetAllowAnonymous godoc
// @ID          setAllowAnonymous
// @Summary     Allow or forbid anonymous messages
// @Tags        Me
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.ToggleRequest  true  "New value"
// @Success     200  {object}  handlers.BoxResponse
// @Router      /me/box/anonymous [put]
func (h *Handlers) SetAllowAnonymous(c *gin.Context) {
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "enabled must be a boolean")
		return
	}
	b, err := h.boxSvc.UpdateAllowAnonymous(c.Request.Context(), currentLogin(c), *req.Enabled)
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, BoxResponse{Box: b})
}

// SetAIMode godoc
// @ID          setAiMode
// @Summary     Turn AI replies on or off for the caller's box
// @Tags        Me
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.ToggleRequest  true  "New value"
// @Success     200  {object}  handlers.BoxResponse
// @Router      /me/box/ai-mode [put]
func (h *Handlers) SetAIMode(c *gin.Context) {
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "enabled must be a boolean")
		return
	}
	b, err := h.boxSvc.UpdateAIMode(c.Request.Context(), currentLogin(c), *req.Enabled)
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, BoxResponse{Box: b})
}
