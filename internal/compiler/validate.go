package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/crosslink/internal/linkage"
)

// Validation error codes (E100-E199)
const (
	ErrLinkageNameEmpty  = "E101" // linkage name is required
	ErrInvalidKind       = "E102" // kind outside the closed enumeration
	ErrMemberCount       = "E103" // member count outside [2, 5]
	ErrDuplicateMember   = "E104" // chart appears twice in one linkage
	ErrEmptyMemberID     = "E105" // blank chart ID
)

// ValidationError represents a linkage declaration validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates a compiled linkage definition against the registry's
// admission rules. Returns all errors found (does not fail-fast), so a
// declaration file's problems surface in one pass.
//
// Validation here mirrors what Registry.CreateGroup enforces at runtime;
// running it at load time turns a bad declaration into a file-level error
// instead of a session-startup failure.
func Validate(def *linkage.Definition) []ValidationError {
	var errs []ValidationError

	// E101: name is required
	if strings.TrimSpace(def.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "linkage name is required and must be non-empty",
			Code:    ErrLinkageNameEmpty,
		})
	}

	// E102: kind must be in the closed enumeration
	if !def.Kind.Valid() {
		errs = append(errs, ValidationError{
			Field:   "kind",
			Message: fmt.Sprintf("invalid kind %d, must be \"filter\", \"zoom\", \"time_range\", or \"highlight\"", def.Kind),
			Code:    ErrInvalidKind,
		})
	}

	// E103: member count must be within [MinMembers, MaxMembers]
	if len(def.Members) < linkage.MinMembers || len(def.Members) > linkage.MaxMembers {
		errs = append(errs, ValidationError{
			Field:   "members",
			Message: fmt.Sprintf("linkage has %d members, must have between %d and %d", len(def.Members), linkage.MinMembers, linkage.MaxMembers),
			Code:    ErrMemberCount,
		})
	}

	seen := make(map[linkage.ChartID]bool, len(def.Members))
	for i, m := range def.Members {
		// E105: blank chart IDs are never valid
		if strings.TrimSpace(string(m)) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("members[%d]", i),
				Message: "chart ID must be non-empty",
				Code:    ErrEmptyMemberID,
			})
			continue
		}

		// E104: duplicate member
		if seen[m] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("members[%d]", i),
				Message: fmt.Sprintf("duplicate member %q", m),
				Code:    ErrDuplicateMember,
			})
		}
		seen[m] = true
	}

	return errs
}
