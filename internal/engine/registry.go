package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/roach88/crosslink/internal/linkage"
)

// Registry owns the linkage configuration for one session: a forward index
// from group ID to group, and a reverse index from chart ID to the groups
// it participates in.
//
// INVARIANT: the two indices always agree - every member of every indexed
// group appears in the reverse index pointing back at that group, and no
// reverse entry points at a removed group. Each mutating call updates both
// indices inside one critical section, so the invariant holds atomically
// from every reader's perspective.
//
// Thread-safety: all operations are safe under concurrent invocation from
// multiple Propagate calls (RWMutex; reads take the read lock).
type Registry struct {
	mu      sync.RWMutex
	idGen   GroupIDGenerator
	clock   *Clock
	nowFn   func() time.Time
	groups  map[linkage.GroupID]*linkage.Group
	byChart map[linkage.ChartID]map[linkage.GroupID]struct{}
}

// NewRegistry creates an empty registry. The ID generator supplies group
// IDs; nowFn supplies creation/update timestamps (injectable for tests).
func NewRegistry(idGen GroupIDGenerator, nowFn func() time.Time) *Registry {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Registry{
		idGen:   idGen,
		clock:   NewClock(),
		nowFn:   nowFn,
		groups:  make(map[linkage.GroupID]*linkage.Group),
		byChart: make(map[linkage.ChartID]map[linkage.GroupID]struct{}),
	}
}

// CreateGroup registers a new linkage group over the given members.
//
// Fails with ErrCodeInvalidMembership if the member count is outside
// [MinMembers, MaxMembers], with ErrCodeDuplicateMember if a chart
// repeats, and with ErrCodeUnsupportedKind for a kind outside the closed
// enumeration. On success the group starts Active and every member's
// reverse-index entry is updated in the same critical section.
//
// The returned group is a clone; mutating it does not affect the registry.
func (r *Registry) CreateGroup(members []linkage.ChartID, kind linkage.SyncKind, metadata map[string]string) (*linkage.Group, error) {
	if !kind.Valid() {
		return nil, NewUnsupportedKindError(kind)
	}
	if len(members) < linkage.MinMembers || len(members) > linkage.MaxMembers {
		return nil, NewInvalidMembershipError(len(members))
	}

	seen := make(map[linkage.ChartID]bool, len(members))
	for _, m := range members {
		if seen[m] {
			return nil, NewDuplicateMemberError(m)
		}
		seen[m] = true
	}

	now := r.nowFn()
	group := &linkage.Group{
		ID:        r.idGen.Generate(),
		Members:   append([]linkage.ChartID(nil), members...),
		Kind:      kind,
		Status:    linkage.StatusActive,
		Seq:       r.clock.Next(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if metadata != nil {
		group.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			group.Metadata[k] = v
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.groups[group.ID] = group
	for _, m := range group.Members {
		if r.byChart[m] == nil {
			r.byChart[m] = make(map[linkage.GroupID]struct{})
		}
		r.byChart[m][group.ID] = struct{}{}
	}

	return group.Clone(), nil
}

// RemoveGroup purges a group from both indices. Idempotent: returns false
// if the group does not exist. No member's reverse-index entry is left
// pointing at the removed group.
func (r *Registry) RemoveGroup(id linkage.GroupID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeLocked(id)
}

// removeLocked deletes a group from both indices. Callers must hold mu.
func (r *Registry) removeLocked(id linkage.GroupID) bool {
	group, ok := r.groups[id]
	if !ok {
		return false
	}

	delete(r.groups, id)
	for _, m := range group.Members {
		if set := r.byChart[m]; set != nil {
			delete(set, id)
			if len(set) == 0 {
				delete(r.byChart, m)
			}
		}
	}
	return true
}

// GroupsForChart returns the groups the chart participates in, sorted by
// creation order. Returns an empty slice for an unknown chart - never an
// error. Groups are clones; callers cannot mutate indexed state.
func (r *Registry) GroupsForChart(chart linkage.ChartID) []*linkage.Group {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byChart[chart]
	if len(ids) == 0 {
		return nil
	}

	groups := make([]*linkage.Group, 0, len(ids))
	for id := range ids {
		groups = append(groups, r.groups[id].Clone())
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Seq < groups[j].Seq
	})
	return groups
}

// SetStatus updates a group's status. Returns false if the group does not
// exist. Setting StatusRemoved purges the group from both indices, same
// as RemoveGroup.
func (r *Registry) SetStatus(id linkage.GroupID, status linkage.Status) bool {
	if !status.Valid() {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if status == linkage.StatusRemoved {
		return r.removeLocked(id)
	}

	group, ok := r.groups[id]
	if !ok {
		return false
	}
	group.Status = status
	group.UpdatedAt = r.nowFn()
	return true
}

// Group returns a clone of the group with the given ID.
// Used for testing and introspection.
func (r *Registry) Group(id linkage.GroupID) (*linkage.Group, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	group, ok := r.groups[id]
	if !ok {
		return nil, false
	}
	return group.Clone(), true
}

// Len returns the number of registered groups.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups)
}

// CheckIndexAgreement verifies the forward/reverse index invariant and
// returns false on the first disagreement found. Used by tests that
// hammer the registry concurrently.
func (r *Registry) CheckIndexAgreement() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Every member of every group has a reverse entry for that group.
	for id, group := range r.groups {
		for _, m := range group.Members {
			set := r.byChart[m]
			if set == nil {
				return false
			}
			if _, ok := set[id]; !ok {
				return false
			}
		}
	}

	// Every reverse entry points at a live group that contains the chart.
	for chart, set := range r.byChart {
		if len(set) == 0 {
			return false
		}
		for id := range set {
			group, ok := r.groups[id]
			if !ok {
				return false
			}
			if !group.HasMember(chart) {
				return false
			}
		}
	}
	return true
}
