package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/cobra"

	"github.com/roach88/crosslink/internal/compiler"
)

// ValidationResult holds validation results for one or more linkage files.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Linkages int                        `json:"linkages"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <linkage-file>...",
		Short: "Validate linkage declaration files",
		Long: `Validate CUE linkage declaration files without running anything.

Performs syntax checking and declaration validation (kind enumeration,
membership bounds, duplicate members) and reports every problem found.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	total := 0
	var allErrors []compiler.ValidationError

	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)

		count, errs, err := validateFile(path)
		if err != nil {
			_ = formatter.Error("E001", err.Error(), nil)
			return WrapExitError(ExitCommandError, "validation aborted", err)
		}
		total += count
		allErrors = append(allErrors, errs...)
	}

	if len(allErrors) > 0 {
		return outputValidationErrors(formatter, total, allErrors)
	}

	return outputValidateSuccess(formatter, total)
}

// validateFile compiles every linkage declaration in one file, collecting
// all validation errors instead of stopping at the first.
func validateFile(path string) (int, []compiler.ValidationError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read linkage file: %w", err)
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return 0, []compiler.ValidationError{{
			Field:   "cue",
			Message: err.Error(),
			Code:    "E001",
		}}, nil
	}

	linkagesVal := value.LookupPath(cue.ParsePath("linkage"))
	if !linkagesVal.Exists() {
		return 0, []compiler.ValidationError{{
			Field:   "linkage",
			Message: fmt.Sprintf("no linkage declarations found in %s", path),
			Code:    "E001",
		}}, nil
	}

	iter, err := linkagesVal.Fields()
	if err != nil {
		return 0, []compiler.ValidationError{{
			Field:   "linkage",
			Message: err.Error(),
			Code:    "E001",
		}}, nil
	}

	count := 0
	var errs []compiler.ValidationError
	for iter.Next() {
		count++
		def, compileErr := compiler.CompileLinkage(iter.Value())
		if compileErr != nil {
			if cErr, ok := compileErr.(*compiler.CompileError); ok {
				errs = append(errs, compiler.ValidationError{
					Field:   cErr.Field,
					Message: cErr.Message,
					Code:    "E001",
				})
			} else {
				errs = append(errs, compiler.ValidationError{
					Field:   "linkage." + iter.Label(),
					Message: compileErr.Error(),
					Code:    "E001",
				})
			}
			continue
		}

		errs = append(errs, compiler.Validate(def)...)
	}

	return count, errs, nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, count int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Linkages: count})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d linkage declaration(s) valid\n", count)
	return nil
}

// outputValidationErrors outputs validation errors.
func outputValidationErrors(formatter *OutputFormatter, count int, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:    false,
				Linkages: count,
				Errors:   errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
