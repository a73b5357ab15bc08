package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/crosslink/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Correlation string // filter by correlation ID
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <journal.db>",
		Short: "Inspect a propagation journal",
		Long: `Read a journal recorded by "crosslink run --journal" and print its
interactions with the updates and errors each one produced.

Examples:
  crosslink trace trace.db
  crosslink trace trace.db --correlation r1
  crosslink trace trace.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Correlation, "correlation", "", "only show interactions with this correlation ID")

	return cmd
}

func runTrace(opts *TraceOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		_ = formatter.Error("E005", fmt.Sprintf("journal not found: %s", path), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("journal not found: %s", path))
	}

	journal, err := store.Open(path)
	if err != nil {
		_ = formatter.Error("E004", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer journal.Close()

	ctx := cmd.Context()
	var entries []store.TraceEntry
	if opts.Correlation != "" {
		entries, err = journal.ReadByCorrelation(ctx, opts.Correlation)
	} else {
		entries, err = journal.ReadTrace(ctx)
	}
	if err != nil {
		_ = formatter.Error("E004", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No interactions recorded.")
		return nil
	}

	for _, e := range entries {
		suppressed := ""
		if e.Suppressed {
			suppressed = " [suppressed]"
		}
		fmt.Fprintf(formatter.Writer, "[%d] %s %s corr=%s%s\n", e.Seq, e.SourceChart, e.Kind, e.CorrelationID, suppressed)
		for _, u := range e.Updates {
			fmt.Fprintf(formatter.Writer, "    -> %s %s %s\n", u.TargetChart, u.UpdateKind, u.Payload)
		}
		for _, pe := range e.Errors {
			fmt.Fprintf(formatter.Writer, "    !! %s (group=%s): %s\n", pe.TargetChart, pe.GroupID, pe.Message)
		}
	}

	return nil
}
