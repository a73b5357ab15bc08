package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crosslink/internal/linkage"
	"github.com/roach88/crosslink/internal/store"
)

// seedJournal creates a journal with two recorded interactions.
func seedJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.db")

	journal, err := store.Open(path)
	require.NoError(t, err)
	defer journal.Close()

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	event := linkage.InteractionEvent{
		SourceChart:   "price",
		Kind:          linkage.KindHighlight,
		Payload:       linkage.HighlightPayload{Key: "AAPL"},
		Timestamp:     now,
		CorrelationID: "h1",
	}
	require.NoError(t, journal.RecordInteraction(ctx, 1, event, false))
	require.NoError(t, journal.RecordUpdates(ctx, 1, []linkage.ChartUpdate{
		{
			TargetChart: "volume",
			UpdateKind:  linkage.ApplyHighlight,
			Payload:     linkage.HighlightPayload{Key: "AAPL"},
			SourceChart: "price",
			Timestamp:   now,
		},
	}))

	echo := linkage.InteractionEvent{
		SourceChart:   "volume",
		Kind:          linkage.KindHighlight,
		Payload:       linkage.HighlightPayload{Key: "AAPL"},
		Timestamp:     now.Add(50 * time.Millisecond),
		CorrelationID: "h1",
	}
	require.NoError(t, journal.RecordInteraction(ctx, 2, echo, true))

	return path
}

func TestTraceTextOutput(t *testing.T) {
	path := seedJournal(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "[1] price highlight corr=h1")
	assert.Contains(t, output, "-> volume ApplyHighlight")
	assert.Contains(t, output, "[2] volume highlight corr=h1 [suppressed]")
}

func TestTraceJSONOutput(t *testing.T) {
	path := seedJournal(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var entries []store.TraceEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "price", entries[0].SourceChart)
	assert.True(t, entries[1].Suppressed)
}

func TestTraceCorrelationFilter(t *testing.T) {
	path := seedJournal(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "--correlation", "h1"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[1] price highlight")
	assert.Contains(t, buf.String(), "[2] volume highlight")
}

func TestTraceCorrelationNoMatch(t *testing.T) {
	path := seedJournal(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "--correlation", "missing"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No interactions recorded.")
}

func TestTraceNonExistentJournal(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/trace.db"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "journal not found")
}

func TestTraceEmptyJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	journal, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, journal.Close())

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err = cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No interactions recorded.")
}
