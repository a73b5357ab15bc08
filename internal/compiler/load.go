package compiler

import (
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/crosslink/internal/linkage"
)

// LoadFile reads a CUE file of linkage declarations and compiles every
// entry under the top-level "linkage" field.
//
// Definitions are returned sorted by name so callers create groups in a
// stable order regardless of CUE's field iteration order. Each definition
// is validated; the first invalid declaration fails the whole file.
func LoadFile(path string) ([]linkage.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read linkage file: %w", err)
	}
	return Compile(data, path)
}

// Compile compiles CUE source holding linkage declarations.
// filename is used for error positions only.
func Compile(src []byte, filename string) ([]linkage.Definition, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	linkagesVal := value.LookupPath(cue.ParsePath("linkage"))
	if !linkagesVal.Exists() {
		return nil, &CompileError{
			Field:   "linkage",
			Message: "no linkage declarations found",
			Pos:     value.Pos(),
		}
	}

	iter, err := linkagesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var defs []linkage.Definition
	for iter.Next() {
		def, err := CompileLinkage(iter.Value())
		if err != nil {
			return nil, err
		}
		if errs := Validate(def); len(errs) > 0 {
			return nil, fmt.Errorf("linkage %q: %w", def.Name, errs[0])
		}
		defs = append(defs, *def)
	}

	if len(defs) == 0 {
		return nil, &CompileError{
			Field:   "linkage",
			Message: "no linkage declarations found",
			Pos:     linkagesVal.Pos(),
		}
	}

	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Name < defs[j].Name
	})
	return defs, nil
}
