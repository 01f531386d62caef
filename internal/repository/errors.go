// Package repository implements data access over MySQL. This file
// defines sentinel errors shared across repositories so that handlers
// can map failure modes to HTTP statuses without inspecting SQL errors
// themselves.
package repository

import (
	"errors"
	"strings"
)

// ErrEventNotFound is returned when an event id does not resolve to a
// row. Handlers translate this into an HTTP 404 response.
var ErrEventNotFound = errors.New("event not found")

// ErrRegistrationNotFound is returned when no confirmed registration
// exists for a (user, event) pair. Handlers translate this into an
// HTTP 404 response.
var ErrRegistrationNotFound = errors.New("registration not found")

// ErrAlreadyRegistered is returned when inserting a confirmed
// registration collides with the unique (user_id, event_id,
// confirmed_flag) key. This is the only atomically enforced invariant
// of the registration workflow; the capacity check is advisory.
// Handlers translate this into an HTTP 400 conflict response.
var ErrAlreadyRegistered = errors.New("already registered")

// ErrEmailExists is returned when creating a user with an email that
// is already taken. Handlers translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// isDuplicateKey reports whether err is a MySQL duplicate-key error
// (error code 1062). The driver surfaces the code in the error text.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "1062")
}
