// Error codes returned in ErrorResponse.Code. Clients branch on these; the
// message text is for humans only.

package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Postbox specific:
	ErrCodeLoginRequired = "login_required" // box rejects anonymous writers
	ErrCodeBlocked       = "blocked"        // caller is on the box blacklist
	ErrCodeBanned        = "banned"         // account is BANNED
	ErrCodeAIUnavailable = "ai_unavailable" // explicit AI reply failed

	// 500 fallbacks per operation family:
	ErrCodeCreateFailed = "create_failed"
	ErrCodeListFailed   = "list_failed"
	ErrCodeUpdateFailed = "update_failed"
	ErrCodeDeleteFailed = "delete_failed"
	ErrCodeAuthFailed   = "auth_failed"
)
