package store

import (
	"context"
	"fmt"
)

// TraceEntry is one journaled interaction plus everything it produced.
type TraceEntry struct {
	Seq           int64
	SourceChart   string
	Kind          string
	Payload       string
	CorrelationID string
	Suppressed    bool
	OccurredAt    string
	Updates       []UpdateEntry
	Errors        []ErrorEntry
}

// UpdateEntry is one journaled chart update.
type UpdateEntry struct {
	TargetChart string
	UpdateKind  string
	Payload     string
	SourceChart string
	EmittedAt   string
}

// ErrorEntry is one journaled propagation error.
type ErrorEntry struct {
	GroupID     string
	TargetChart string
	Message     string
}

// ReadTrace returns all journaled interactions in seq order, each with its
// updates and errors attached. Returns an empty slice (not nil) for an
// empty journal.
func (j *Journal) ReadTrace(ctx context.Context) ([]TraceEntry, error) {
	return j.readEntries(ctx, `
		SELECT seq, source_chart, kind, payload, correlation_id, suppressed, occurred_at
		FROM interactions
		ORDER BY seq ASC
	`)
}

// ReadByCorrelation returns the journaled interactions carrying the given
// correlation ID, in seq order. Suppressed echoes are included; the caller
// distinguishes them through the Suppressed flag.
func (j *Journal) ReadByCorrelation(ctx context.Context, correlationID string) ([]TraceEntry, error) {
	return j.readEntries(ctx, `
		SELECT seq, source_chart, kind, payload, correlation_id, suppressed, occurred_at
		FROM interactions
		WHERE correlation_id = ?
		ORDER BY seq ASC
	`, correlationID)
}

func (j *Journal) readEntries(ctx context.Context, query string, args ...any) ([]TraceEntry, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	entries := []TraceEntry{}
	for rows.Next() {
		var e TraceEntry
		var suppressed int
		if err := rows.Scan(&e.Seq, &e.SourceChart, &e.Kind, &e.Payload, &e.CorrelationID, &suppressed, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		e.Suppressed = suppressed != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}

	for i := range entries {
		entries[i].Updates, err = j.readUpdates(ctx, entries[i].Seq)
		if err != nil {
			return nil, err
		}
		entries[i].Errors, err = j.readErrors(ctx, entries[i].Seq)
		if err != nil {
			return nil, err
		}
	}

	return entries, nil
}

// readUpdates returns the updates for one interaction in emission order.
// Insertion order is emission order, so the rowid sort preserves it.
func (j *Journal) readUpdates(ctx context.Context, seq int64) ([]UpdateEntry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT target_chart, update_kind, payload, source_chart, emitted_at
		FROM updates
		WHERE interaction_seq = ?
		ORDER BY id ASC
	`, seq)
	if err != nil {
		return nil, fmt.Errorf("query updates: %w", err)
	}
	defer rows.Close()

	var updates []UpdateEntry
	for rows.Next() {
		var u UpdateEntry
		if err := rows.Scan(&u.TargetChart, &u.UpdateKind, &u.Payload, &u.SourceChart, &u.EmittedAt); err != nil {
			return nil, fmt.Errorf("scan update: %w", err)
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate updates: %w", err)
	}

	return updates, nil
}

func (j *Journal) readErrors(ctx context.Context, seq int64) ([]ErrorEntry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT group_id, target_chart, message
		FROM propagation_errors
		WHERE interaction_seq = ?
		ORDER BY id ASC
	`, seq)
	if err != nil {
		return nil, fmt.Errorf("query errors: %w", err)
	}
	defer rows.Close()

	var errs []ErrorEntry
	for rows.Next() {
		var e ErrorEntry
		if err := rows.Scan(&e.GroupID, &e.TargetChart, &e.Message); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		errs = append(errs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate errors: %w", err)
	}

	return errs, nil
}
