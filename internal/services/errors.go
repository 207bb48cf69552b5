// Package services defines the business logic for boxes, messages, blacklists,
// notifications and user accounts.
//
// This file centralizes service-level error values. Each specific error wraps
// one of the category roots so handlers can map whole families to an HTTP
// status with errors.Is while still logging the precise cause.
package services

import (
	"errors"
	"fmt"
)

// Category roots.
var (
	// ErrNotFound indicates the addressed entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a malformed or out-of-range argument.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden indicates the caller is not allowed to perform the action.
	ErrForbidden = errors.New("forbidden")

	// ErrBlocked indicates the caller is blacklisted in the target box.
	ErrBlocked = errors.New("blocked")

	// ErrConflict indicates the action clashes with the current state.
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized indicates failed authentication.
	ErrUnauthorized = errors.New("unauthorized")
)

// Lookups.
var (
	ErrBoxNotFound          = fmt.Errorf("box not found: %w", ErrNotFound)
	ErrMessageNotFound      = fmt.Errorf("message not found: %w", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user not found: %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification not found: %w", ErrNotFound)
)

// Input validation.
var (
	ErrMissingBoxKey     = fmt.Errorf("box url key is required: %w", ErrInvalidInput)
	ErrEmptyContent      = fmt.Errorf("content is empty: %w", ErrInvalidInput)
	ErrContentTooLong    = fmt.Errorf("content too long: %w", ErrInvalidInput)
	ErrEmptyReply        = fmt.Errorf("reply is empty: %w", ErrInvalidInput)
	ErrReplyTooLong      = fmt.Errorf("reply too long: %w", ErrInvalidInput)
	ErrPasswordMismatch  = fmt.Errorf("password confirmation does not match: %w", ErrInvalidInput)
	ErrWeakPassword      = fmt.Errorf("password is too short: %w", ErrInvalidInput)
	ErrInvalidAddressID  = fmt.Errorf("address id must be 4-20 chars of [a-z0-9_.]: %w", ErrInvalidInput)
	ErrReservedAddressID = fmt.Errorf("address id is reserved: %w", ErrInvalidInput)
	ErrMissingField      = fmt.Errorf("required field missing: %w", ErrInvalidInput)
	ErrEmailMismatch     = fmt.Errorf("login id and email do not match: %w", ErrInvalidInput)
)

// Authorization.
var (
	// ErrLoginRequired is returned when a box rejects anonymous writers.
	ErrLoginRequired = fmt.Errorf("login required: %w", ErrForbidden)

	// ErrNotBoxOwner is returned when the caller does not own the message's box.
	ErrNotBoxOwner = fmt.Errorf("not the box owner: %w", ErrForbidden)

	// ErrNotAuthor is returned when the caller did not write the message.
	ErrNotAuthor = fmt.Errorf("not the message author: %w", ErrForbidden)

	// ErrNotTarget is returned when a notification belongs to someone else.
	ErrNotTarget = fmt.Errorf("notification belongs to another user: %w", ErrForbidden)

	// ErrUserBlocked is returned when a blacklisted user tries to write.
	ErrUserBlocked = fmt.Errorf("user is blacklisted in this box: %w", ErrBlocked)
)

// State conflicts.
var (
	ErrReplyExists     = fmt.Errorf("message already has a reply: %w", ErrConflict)
	ErrAIModeDisabled  = fmt.Errorf("ai mode is disabled for this box: %w", ErrConflict)
	ErrDuplicateEmail  = fmt.Errorf("email already in use: %w", ErrConflict)
	ErrDuplicateLogin  = fmt.Errorf("login id already in use: %w", ErrConflict)
	ErrDuplicateAddrID = fmt.Errorf("address id already in use: %w", ErrConflict)
)

// Authentication.
var (
	ErrBadCredentials = fmt.Errorf("bad credentials: %w", ErrUnauthorized)
	ErrBanned         = fmt.Errorf("account is banned: %w", ErrForbidden)
)

// ErrAIUnavailable is returned by explicit AI reply requests when the
// generator fails, times out, or produces nothing.
var ErrAIUnavailable = errors.New("ai reply unavailable")
