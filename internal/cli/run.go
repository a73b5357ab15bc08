package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/crosslink/internal/engine"
	"github.com/roach88/crosslink/internal/harness"
	"github.com/roach88/crosslink/internal/linkage"
	"github.com/roach88/crosslink/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Journal string // optional journal database path
}

// RunResult holds the scenario outcome for output.
type RunResult struct {
	Name   string               `json:"name"`
	Pass   bool                 `json:"pass"`
	Groups []string             `json:"groups"`
	Trace  []harness.TraceEvent `json:"trace"`
	Errors []string             `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a propagation scenario",
		Long: `Run a scenario file against a fresh engine and report the outcome.

Exit codes:
  0 - Scenario passed
  1 - One or more assertions failed
  2 - Command error (unreadable scenario, bad linkage file, etc.)

Examples:
  crosslink run scenarios/echo-suppression.yaml
  crosslink run scenarios/echo-suppression.yaml --journal trace.db
  crosslink run scenarios/echo-suppression.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record the run into a SQLite journal at this path")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		_ = formatter.Error("E005", fmt.Sprintf("scenario file not found: %s", path), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("scenario file not found: %s", path))
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error("E001", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	formatter.VerboseLog("Running scenario %q (%d events)", scenario.Name, len(scenario.Events))

	var rec harness.Recorder
	if opts.Journal != "" {
		journal, err := store.Open(opts.Journal)
		if err != nil {
			_ = formatter.Error("E004", err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer journal.Close()
		rec = &journalRecorder{journal: journal, ctx: cmd.Context()}
		formatter.VerboseLog("Journaling to %s", opts.Journal)
	}

	result, err := harness.RunWithRecorder(scenario, rec)
	if err != nil {
		_ = formatter.Error("E001", err.Error(), nil)
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}

	return outputRunResult(formatter, scenario.Name, result)
}

// journalRecorder adapts a store.Journal to the harness Recorder interface.
type journalRecorder struct {
	journal *store.Journal
	ctx     context.Context
}

func (r *journalRecorder) Record(seq int64, event linkage.InteractionEvent, suppressed bool, updates []linkage.ChartUpdate, errs []*engine.PropagationError) error {
	ctx := r.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	if err := r.journal.RecordInteraction(ctx, seq, event, suppressed); err != nil {
		return err
	}
	if err := r.journal.RecordUpdates(ctx, seq, updates); err != nil {
		return err
	}
	return r.journal.RecordErrors(ctx, seq, errs)
}

func outputRunResult(formatter *OutputFormatter, name string, result *harness.Result) error {
	runResult := RunResult{
		Name:   name,
		Pass:   result.Pass,
		Groups: result.Groups,
		Trace:  result.Trace,
		Errors: result.Errors,
	}

	if formatter.Format == "json" {
		if err := formatter.Success(runResult); err != nil {
			return err
		}
		if !result.Pass {
			return NewExitError(ExitFailure, fmt.Sprintf("scenario failed with %d assertion error(s)", len(result.Errors)))
		}
		return nil
	}

	if result.Pass {
		fmt.Fprintf(formatter.Writer, "✓ %s passed (%d events, %d groups)\n", name, len(result.Trace), len(result.Groups))
		return nil
	}

	fmt.Fprintf(formatter.Writer, "✗ %s failed\n\n", name)
	for _, msg := range result.Errors {
		fmt.Fprintln(formatter.Writer, msg)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("scenario failed with %d assertion error(s)", len(result.Errors)))
}
