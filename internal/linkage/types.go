package linkage

import (
	"fmt"
	"time"
)

// ChartID identifies one chart in a session.
type ChartID string

// GroupID identifies one linkage group. Assigned at creation, immutable.
type GroupID string

// Membership bounds for a linkage group. A group links a small, fixed set
// of charts; membership is immutable after creation (remove and recreate
// if membership must change).
const (
	MinMembers = 2
	MaxMembers = 5
)

// SyncKind is the closed enumeration of interaction categories that can be
// mirrored across linked charts. It determines which translator runs and
// what payload shape updates carry.
type SyncKind int

const (
	// KindFilter mirrors filter predicates.
	KindFilter SyncKind = iota + 1
	// KindZoom mirrors zoom bounds.
	KindZoom
	// KindTimeRange mirrors visible time ranges.
	KindTimeRange
	// KindHighlight mirrors highlighted data keys.
	KindHighlight
)

// kindNames maps kinds to their wire/config form. These strings appear in
// CUE linkage declarations, scenario YAML, and journal rows.
var kindNames = map[SyncKind]string{
	KindFilter:    "filter",
	KindZoom:      "zoom",
	KindTimeRange: "time_range",
	KindHighlight: "highlight",
}

// String returns the wire form of the kind, or "unknown(N)" for invalid values.
func (k SyncKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Valid reports whether k is one of the four defined kinds.
func (k SyncKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseSyncKind converts the wire form back to a SyncKind.
func ParseSyncKind(s string) (SyncKind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown sync kind %q", s)
}

// Status is the closed enumeration of linkage group states. Only Active
// groups participate in propagation; Paused and Errored groups are retained
// but skipped; Removed groups are purged from the registry.
type Status int

const (
	// StatusActive groups participate in propagation.
	StatusActive Status = iota + 1
	// StatusPaused groups are retained but skipped.
	StatusPaused
	// StatusErrored groups are retained but skipped.
	StatusErrored
	// StatusRemoved groups are purged from both registry indices.
	StatusRemoved
)

var statusNames = map[Status]string{
	StatusActive:  "active",
	StatusPaused:  "paused",
	StatusErrored: "errored",
	StatusRemoved: "removed",
}

// String returns the wire form of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// Valid reports whether s is one of the four defined statuses.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// ParseStatus converts the wire form back to a Status.
func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if name == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

// UpdateKind mirrors SyncKind on the apply side: it names the verb a target
// chart should perform when it receives a ChartUpdate.
type UpdateKind int

const (
	// ApplyFilter applies a filter predicate to the target chart.
	ApplyFilter UpdateKind = iota + 1
	// ApplyZoom applies zoom bounds to the target chart.
	ApplyZoom
	// ApplyTimeRange applies a visible time range to the target chart.
	ApplyTimeRange
	// ApplyHighlight applies a highlight key to the target chart.
	ApplyHighlight
)

var updateKindNames = map[UpdateKind]string{
	ApplyFilter:    "ApplyFilter",
	ApplyZoom:      "ApplyZoom",
	ApplyTimeRange: "ApplyTimeRange",
	ApplyHighlight: "ApplyHighlight",
}

// String returns the apply-side verb name.
func (u UpdateKind) String() string {
	if name, ok := updateKindNames[u]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(u))
}

// UpdateKindFor maps a sync kind to its apply-side verb.
// Returns false for invalid kinds.
func UpdateKindFor(k SyncKind) (UpdateKind, bool) {
	switch k {
	case KindFilter:
		return ApplyFilter, true
	case KindZoom:
		return ApplyZoom, true
	case KindTimeRange:
		return ApplyTimeRange, true
	case KindHighlight:
		return ApplyHighlight, true
	default:
		return 0, false
	}
}

// Group is the durable-for-session unit of linkage configuration: a named
// set of 2-5 charts that stay synchronized for one kind of interaction.
//
// ID, Members, and Kind are immutable after creation; only Status (and the
// accompanying UpdatedAt) ever changes. Seq is the creation-order position
// from the registry's logical clock and fixes cross-group emission order
// deterministically (never time-of-call dependent).
type Group struct {
	ID        GroupID           `json:"id"`
	Members   []ChartID         `json:"members"`
	Kind      SyncKind          `json:"kind"`
	Status    Status            `json:"status"`
	Seq       int64             `json:"seq"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// HasMember reports whether the chart is one of the group's members.
func (g *Group) HasMember(c ChartID) bool {
	for _, m := range g.Members {
		if m == c {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. The registry hands out clones so callers can
// never mutate indexed state behind the lock.
func (g *Group) Clone() *Group {
	members := make([]ChartID, len(g.Members))
	copy(members, g.Members)

	var metadata map[string]string
	if g.Metadata != nil {
		metadata = make(map[string]string, len(g.Metadata))
		for k, v := range g.Metadata {
			metadata[k] = v
		}
	}

	return &Group{
		ID:        g.ID,
		Members:   members,
		Kind:      g.Kind,
		Status:    g.Status,
		Seq:       g.Seq,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
		Metadata:  metadata,
	}
}

// Definition is an uncreated linkage group: the declaration form produced
// by the CUE compiler and consumed by CreateGroup. Name is the declaration
// label, carried into the group's metadata by callers that want it.
type Definition struct {
	Name     string            `json:"name"`
	Members  []ChartID         `json:"members"`
	Kind     SyncKind          `json:"kind"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// InteractionEvent is the input to propagation: "chart X produced
// interaction E". Transient, single-use, never persisted by the engine.
//
// CorrelationID is caller-supplied and keys idempotent loop suppression:
// a re-emitted echo of the same logical action carries the same correlation
// ID and is debounced.
type InteractionEvent struct {
	SourceChart   ChartID   `json:"source_chart"`
	Kind          SyncKind  `json:"kind"`
	Payload       Payload   `json:"payload"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id"`
}

// ChartUpdate is the output of propagation: one derived update for one
// target chart. SourceChart is provenance - the chart whose interaction
// produced this update.
type ChartUpdate struct {
	TargetChart ChartID    `json:"target_chart"`
	UpdateKind  UpdateKind `json:"update_kind"`
	Payload     Payload    `json:"payload"`
	SourceChart ChartID    `json:"source_chart"`
	Timestamp   time.Time  `json:"timestamp"`
}
