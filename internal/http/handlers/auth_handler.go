// Account entry points: signup, login and credential recovery.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hoshibaby/spbox-back/internal/domain"
	"github.com/hoshibaby/spbox-back/internal/services"
)

// SignupRequest is the JSON payload for POST /auth/signup. AddressID is
// optional; one is derived from the nickname when omitted.
type SignupRequest struct {
	LoginID         string `json:"login_id"         binding:"required,max=64" example:"yulsi"`
	Email           string `json:"email"            binding:"required,email"  example:"yulsi@example.com"`
	Password        string `json:"password"         binding:"required"        example:"password1"`
	PasswordConfirm string `json:"password_confirm" binding:"required"        example:"password1"`
	Nickname        string `json:"nickname"         binding:"required,max=64" example:"Yulsi"`
	AddressID       string `json:"address_id"       binding:"max=32"          example:"yulsi"`
}

// SignupResponse identifies the new account and its box.
type SignupResponse struct {
	User      *domain.User `json:"user"`
	BoxURLKey string       `json:"box_url_key" example:"a1b2c3d4e5"`
}

// LoginRequest is the JSON payload for POST /auth/login.
type LoginRequest struct {
	LoginID  string `json:"login_id" binding:"required" example:"yulsi"`
	Password string `json:"password" binding:"required" example:"password1"`
}

// LoginResponse carries the bearer token and the caller's box coordinates.
type LoginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type" example:"Bearer"`
	ExpiresIn int64        `json:"expires_in" example:"86400"`
	User      *domain.User `json:"user"`
	BoxURLKey string       `json:"box_url_key" example:"a1b2c3d4e5"`
	AddressID string       `json:"address_id" example:"yulsi"`
}

// FindIDRequest looks up a login id by e-mail.
type FindIDRequest struct {
	Email string `json:"email" binding:"required,email" example:"yulsi@example.com"`
}

// FindIDResponse returns the login id registered for an e-mail.
type FindIDResponse struct {
	LoginID string `json:"login_id" example:"yulsi"`
}

// ResetPasswordRequest identifies the account to reset.
type ResetPasswordRequest struct {
	LoginID string `json:"login_id" binding:"required"       example:"yulsi"`
	Email   string `json:"email"    binding:"required,email" example:"yulsi@example.com"`
}

// ResetPasswordResponse returns the temporary password.
type ResetPasswordResponse struct {
	TemporaryPassword string `json:"temporary_password" example:"Xk7pQ2mN9a"`
}

// Signup godoc
// @ID          signup
// @Summary     Create an account
// @Description Creates the user and their box in one transaction.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.SignupRequest  true  "Account data"
// @Success     201   {object}  handlers.SignupResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     409   {object}  handlers.ErrorResponse  "Login id, e-mail or address id taken"
// @Router      /auth/signup [post]
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid signup payload")
		return
	}
	u, b, err := h.userSvc.Signup(c.Request.Context(), services.SignupInput{
		LoginID:         req.LoginID,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Nickname:        req.Nickname,
		AddressID:       req.AddressID,
	})
	if err != nil {
		failErr(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, SignupResponse{User: u, BoxURLKey: b.URLKey})
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  handlers.LoginResponse
// @Failure     401   {object}  handlers.ErrorResponse  "Bad credentials"
// @Failure     403   {object}  handlers.ErrorResponse  "Account banned"
// @Failure     404   {object}  handlers.ErrorResponse  "Unknown login id"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "login_id and password are required")
		return
	}
	u, b, err := h.userSvc.Login(c.Request.Context(), req.LoginID, req.Password)
	if err != nil {
		failErr(c, err, ErrCodeAuthFailed)
		return
	}
	tok, err := h.tokens.Issue(u.ID, u.LoginID)
	if err != nil {
		failErr(c, err, ErrCodeAuthFailed)
		return
	}
	resp := LoginResponse{
		Token:     tok,
		TokenType: "Bearer",
		ExpiresIn: int64(h.tokens.TTL().Seconds()),
		User:      u,
		AddressID: u.AddressID,
	}
	if b != nil {
		resp.BoxURLKey = b.URLKey
	}
	ok(c, http.StatusOK, resp)
}

// FindID godoc
// @ID          findLoginId
// @Summary     Recover a login id by e-mail
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.FindIDRequest  true  "E-mail"
// @Success     200   {object}  handlers.FindIDResponse
// @Failure     404   {object}  handlers.ErrorResponse  "No account for this e-mail"
// @Router      /auth/find-id [post]
func (h *Handlers) FindID(c *gin.Context) {
	var req FindIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "a valid email is required")
		return
	}
	id, err := h.userSvc.FindLoginIDByEmail(c.Request.Context(), req.Email)
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, FindIDResponse{LoginID: id})
}

// ResetPassword godoc
// @ID          resetPassword
// @Summary     Reset a password
// @Description Replaces the password with a random temporary one when login id and e-mail match.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.ResetPasswordRequest  true  "Account identity"
// @Success     200   {object}  handlers.ResetPasswordResponse
// @Failure     400   {object}  handlers.ErrorResponse  "E-mail does not match"
// @Failure     404   {object}  handlers.ErrorResponse  "Unknown login id"
// @Router      /auth/reset-password [post]
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "login_id and email are required")
		return
	}
	tmp, err := h.userSvc.ResetPassword(c.Request.Context(), req.LoginID, req.Email)
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, ResetPasswordResponse{TemporaryPassword: tmp})
}
