package split

import (
	"sort"

	pkgerrors "github.com/tabsplit/tabsplit-backend/pkg/errors"
)

// Assignments maps every known item key to the set of participants sharing
// that item. Participant ids are stored case-folded so that membership checks
// never depend on the letter casing an id arrived with. Not safe for
// concurrent use; the owning session serializes access.
type Assignments struct {
	sets map[string]map[string]struct{}
	keys []string
}

// NewAssignments creates an empty store covering exactly the given item keys.
func NewAssignments(itemKeys []string) *Assignments {
	a := &Assignments{
		sets: make(map[string]map[string]struct{}, len(itemKeys)),
		keys: make([]string, 0, len(itemKeys)),
	}
	for _, key := range itemKeys {
		if _, ok := a.sets[key]; ok {
			continue
		}
		a.sets[key] = make(map[string]struct{})
		a.keys = append(a.keys, key)
	}
	return a
}

// Toggle flips the participant's membership on the item. An unknown item key
// means the caller resolved identity outside the session's key map, which is
// a bug worth surfacing rather than absorbing.
func (a *Assignments) Toggle(itemKey, participantID string) error {
	set, ok := a.sets[itemKey]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeInvariant, "assignment references unknown item key").
			WithDetails(map[string]any{"item_key": itemKey})
	}
	folded := foldID(participantID)
	if _, assigned := set[folded]; assigned {
		delete(set, folded)
	} else {
		set[folded] = struct{}{}
	}
	return nil
}

// Assign adds the participant to the item without toggling. Unknown item keys
// are rejected the same way Toggle rejects them.
func (a *Assignments) Assign(itemKey, participantID string) error {
	set, ok := a.sets[itemKey]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeInvariant, "assignment references unknown item key").
			WithDetails(map[string]any{"item_key": itemKey})
	}
	set[foldID(participantID)] = struct{}{}
	return nil
}

// AssignAll puts every given participant on every item.
func (a *Assignments) AssignAll(participantIDs []string) {
	for _, set := range a.sets {
		for _, id := range participantIDs {
			set[foldID(id)] = struct{}{}
		}
	}
}

// RemoveParticipant purges the participant from every item set.
func (a *Assignments) RemoveParticipant(participantID string) {
	folded := foldID(participantID)
	for _, set := range a.sets {
		delete(set, folded)
	}
}

// Contains reports whether the participant shares the item.
func (a *Assignments) Contains(itemKey, participantID string) bool {
	set, ok := a.sets[itemKey]
	if !ok {
		return false
	}
	_, assigned := set[foldID(participantID)]
	return assigned
}

// AssigneeCount returns how many participants share the item.
func (a *Assignments) AssigneeCount(itemKey string) int {
	return len(a.sets[itemKey])
}

// Assignees returns the folded participant ids on the item, sorted for
// deterministic output.
func (a *Assignments) Assignees(itemKey string) []string {
	set, ok := a.sets[itemKey]
	if !ok || len(set) == 0 {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FullyAssigned reports whether every item has at least one assignee. A
// receipt with zero items is trivially fully assigned.
func (a *Assignments) FullyAssigned() bool {
	for _, set := range a.sets {
		if len(set) == 0 {
			return false
		}
	}
	return true
}

// Snapshot returns the item key to sorted assignee ids mapping. Items with no
// assignees are included with a nil slice so callers see the full key space.
func (a *Assignments) Snapshot() map[string][]string {
	out := make(map[string][]string, len(a.keys))
	for _, key := range a.keys {
		out[key] = a.Assignees(key)
	}
	return out
}

// ItemKeys returns the covered item keys in decode order.
func (a *Assignments) ItemKeys() []string {
	keys := make([]string, len(a.keys))
	copy(keys, a.keys)
	return keys
}

// Clone returns a deep copy, used to restore state when a save is rejected.
func (a *Assignments) Clone() *Assignments {
	clone := NewAssignments(a.keys)
	for key, set := range a.sets {
		for id := range set {
			clone.sets[key][id] = struct{}{}
		}
	}
	return clone
}
