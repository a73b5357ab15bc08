package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/crosslink/internal/linkage"
)

// CompileLinkage parses a CUE value into a linkage Definition.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the linkage struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`linkage: overview: { ... }`)
//	def, err := CompileLinkage(v.LookupPath(cue.ParsePath("linkage.overview")))
func CompileLinkage(v cue.Value) (*linkage.Definition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := &linkage.Definition{}

	// Parse linkage name from struct label (the path selector)
	// e.g., `linkage: "sales-overview": { ... }` → name is "sales-overview"
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		def.Name = strings.Trim(labels[len(labels)-1].String(), `"`)
	}

	// Parse kind (required)
	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return nil, &CompileError{
			Field:   "kind",
			Message: "kind is required",
			Pos:     v.Pos(),
		}
	}
	kindStr, err := kindVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	kind, err := linkage.ParseSyncKind(kindStr)
	if err != nil {
		return nil, &CompileError{
			Field:   "kind",
			Message: fmt.Sprintf("invalid kind %q, must be \"filter\", \"zoom\", \"time_range\", or \"highlight\"", kindStr),
			Pos:     kindVal.Pos(),
		}
	}
	def.Kind = kind

	// Parse members (required)
	membersVal := v.LookupPath(cue.ParsePath("members"))
	if !membersVal.Exists() {
		return nil, &CompileError{
			Field:   "members",
			Message: "members is required",
			Pos:     v.Pos(),
		}
	}
	memberIter, err := membersVal.List()
	if err != nil {
		return nil, &CompileError{
			Field:   "members",
			Message: "members must be a list of chart IDs",
			Pos:     membersVal.Pos(),
		}
	}
	for memberIter.Next() {
		member, err := memberIter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   "members",
				Message: "member must be a string chart ID",
				Pos:     memberIter.Value().Pos(),
			}
		}
		def.Members = append(def.Members, linkage.ChartID(member))
	}

	// Parse metadata (optional, string values only)
	metaVal := v.LookupPath(cue.ParsePath("metadata"))
	if metaVal.Exists() {
		iter, err := metaVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		def.Metadata = make(map[string]string)
		for iter.Next() {
			key := iter.Label()
			value, err := iter.Value().String()
			if err != nil {
				return nil, &CompileError{
					Field:   fmt.Sprintf("metadata.%s", key),
					Message: "metadata value must be a string",
					Pos:     iter.Value().Pos(),
				}
			}
			def.Metadata[key] = value
		}
	}

	return def, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
