package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/crosslink/internal/engine"
	"github.com/roach88/crosslink/internal/linkage"
)

// RecordInteraction inserts one interaction record.
//
// seq is the caller's monotonic interaction counter; it becomes the primary
// key, so replaying the same seq is silently ignored (ON CONFLICT DO NOTHING)
// and duplicate journal rows cannot occur.
//
// The payload is serialized to canonical JSON so two journals of the same
// session are byte-comparable.
func (j *Journal) RecordInteraction(ctx context.Context, seq int64, event linkage.InteractionEvent, suppressed bool) error {
	payload, err := linkage.MarshalCanonical(event.Payload)
	if err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}

	suppressedInt := 0
	if suppressed {
		suppressedInt = 1
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO interactions
		(seq, source_chart, kind, payload, correlation_id, suppressed, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		seq,
		string(event.SourceChart),
		event.Kind.String(),
		string(payload),
		event.CorrelationID,
		suppressedInt,
		formatTime(event.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}

	return nil
}

// RecordUpdates inserts the updates produced by one interaction.
// All rows are written in a single transaction so a trace never shows a
// partial fan-out.
func (j *Journal) RecordUpdates(ctx context.Context, seq int64, updates []linkage.ChartUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record updates: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, u := range updates {
		payload, err := linkage.MarshalCanonical(u.Payload)
		if err != nil {
			return fmt.Errorf("record updates: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO updates
			(interaction_seq, target_chart, update_kind, payload, source_chart, emitted_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			seq,
			string(u.TargetChart),
			u.UpdateKind.String(),
			string(payload),
			string(u.SourceChart),
			formatTime(u.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("record updates: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record updates: commit: %w", err)
	}

	return nil
}

// RecordErrors inserts the propagation errors produced by one interaction.
// Only the error message is persisted; the wrapped cause chain is a runtime
// concern.
func (j *Journal) RecordErrors(ctx context.Context, seq int64, errs []*engine.PropagationError) error {
	if len(errs) == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record errors: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, e := range errs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO propagation_errors
			(interaction_seq, group_id, target_chart, message)
			VALUES (?, ?, ?, ?)
		`,
			seq,
			string(e.GroupID),
			string(e.TargetChart),
			e.Error(),
		)
		if err != nil {
			return fmt.Errorf("record errors: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record errors: commit: %w", err)
	}

	return nil
}

// formatTime renders timestamps as RFC 3339 in UTC so journal rows are
// byte-comparable across hosts with different local zones.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
