package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hoshibaby/spbox-back/internal/services"
)

// BlacklistResponse lists the users blocked from the caller's box.
type BlacklistResponse struct {
	Users []services.BlockedUser `json:"users"`
}

// ListBlacklist godoc
// @ID          listBlacklist
// @Summary     Users blocked from the caller's box
// @Tags        Me
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.BlacklistResponse
// @Router      /me/blacklist [get]
func (h *Handlers) ListBlacklist(c *gin.Context) {
	users, err := h.blSvc.List(c.Request.Context(), currentLogin(c))
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	if users == nil {
		users = []services.BlockedUser{}
	}
	ok(c, http.StatusOK, BlacklistResponse{Users: users})
}

// Unblock godoc
// @ID          unblockUser
// @Summary     Lift a block
// @Tags        Me
// @Security    BearerAuth
// @Param       userId  path  string  true  "Blocked user id"
// @Success     204
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown user"
// @Router      /me/blacklist/{userId} [delete]
func (h *Handlers) Unblock(c *gin.Context) {
	if err := h.blSvc.Unblock(c.Request.Context(), currentLogin(c), c.Param("userId")); err != nil {
		failErr(c, err, ErrCodeDeleteFailed)
		return
	}
	noContent(c)
}
