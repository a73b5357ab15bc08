package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/crosslink/internal/linkage"
)

// ConfigError represents a misuse of the engine's configuration surface:
// bad membership, unknown sync kinds, mismatched payload shapes. These
// indicate a programming error in the caller, are surfaced immediately
// from the call that triggered them, and are never retried.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeInvalidMembership indicates a member count outside [2, 5].
	ErrCodeInvalidMembership ConfigErrorCode = "INVALID_MEMBERSHIP"

	// ErrCodeDuplicateMember indicates a repeated chart in a member list.
	ErrCodeDuplicateMember ConfigErrorCode = "DUPLICATE_MEMBER"

	// ErrCodeUnsupportedKind indicates a sync kind outside the closed enumeration.
	ErrCodeUnsupportedKind ConfigErrorCode = "UNSUPPORTED_SYNC_KIND"

	// ErrCodePayloadMismatch indicates a payload variant that does not
	// belong to the event's sync kind.
	ErrCodePayloadMismatch ConfigErrorCode = "PAYLOAD_MISMATCH"
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidMembership reports whether err is an invalid-membership error.
// Uses errors.As to handle wrapped errors.
func IsInvalidMembership(err error) bool {
	return hasConfigCode(err, ErrCodeInvalidMembership)
}

// IsDuplicateMember reports whether err is a duplicate-member error.
func IsDuplicateMember(err error) bool {
	return hasConfigCode(err, ErrCodeDuplicateMember)
}

// IsUnsupportedKind reports whether err is an unsupported-kind error.
func IsUnsupportedKind(err error) bool {
	return hasConfigCode(err, ErrCodeUnsupportedKind)
}

// IsPayloadMismatch reports whether err is a payload-mismatch error.
func IsPayloadMismatch(err error) bool {
	return hasConfigCode(err, ErrCodePayloadMismatch)
}

func hasConfigCode(err error, code ConfigErrorCode) bool {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// NewInvalidMembershipError creates a ConfigError for a bad member count.
func NewInvalidMembershipError(count int) *ConfigError {
	return &ConfigError{
		Code: ErrCodeInvalidMembership,
		Message: fmt.Sprintf("group must have between %d and %d members, got %d",
			linkage.MinMembers, linkage.MaxMembers, count),
		Details: map[string]string{
			"count": fmt.Sprintf("%d", count),
		},
	}
}

// NewDuplicateMemberError creates a ConfigError for a repeated member.
func NewDuplicateMemberError(member linkage.ChartID) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeDuplicateMember,
		Message: fmt.Sprintf("member %q appears more than once", member),
		Details: map[string]string{
			"member": string(member),
		},
	}
}

// NewUnsupportedKindError creates a ConfigError for an unknown sync kind.
func NewUnsupportedKindError(kind linkage.SyncKind) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeUnsupportedKind,
		Message: fmt.Sprintf("unsupported sync kind %s", kind),
		Details: map[string]string{
			"kind": kind.String(),
		},
	}
}

// NewPayloadMismatchError creates a ConfigError for a payload variant that
// does not match the sync kind it was sent under.
func NewPayloadMismatchError(kind linkage.SyncKind, payload linkage.Payload) *ConfigError {
	got := "nil"
	if payload != nil {
		got = payload.Kind().String()
	}
	return &ConfigError{
		Code:    ErrCodePayloadMismatch,
		Message: fmt.Sprintf("payload shape %s does not match sync kind %s", got, kind),
		Details: map[string]string{
			"kind":    kind.String(),
			"payload": got,
		},
	}
}

// PropagationError describes one failed target during a Propagate call.
// Failures are collected and returned alongside successful updates; a
// failure for one target never aborts processing of its siblings.
type PropagationError struct {
	GroupID     linkage.GroupID
	TargetChart linkage.ChartID
	Cause       error
}

// Error implements the error interface.
func (e *PropagationError) Error() string {
	return fmt.Sprintf("propagation to %s failed (group=%s): %v",
		e.TargetChart, e.GroupID, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/errors.As chains.
func (e *PropagationError) Unwrap() error {
	return e.Cause
}
