package split

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// colorPalette is the fixed set of participant color tokens. A new
// participant's token is chosen by the registry size at the moment it is
// added, so the same add sequence always yields the same colors.
var colorPalette = []string{
	"teal",
	"coral",
	"violet",
	"amber",
	"mint",
	"rose",
	"indigo",
	"slate",
}

// Participant is a person who may owe a share of the receipt.
type Participant struct {
	ID           string
	Name         string
	ColorToken   string
	DisplayOrder int
	IsSelf       bool
}

// Registry holds the ordered participant list for one split session. Exactly
// one participant is the self participant; it sits at display order 0 and can
// never be removed. The registry is not safe for concurrent use; the owning
// session serializes access.
type Registry struct {
	participants []Participant
}

// NewRegistry creates a registry seeded with the mandatory self participant.
func NewRegistry(selfName string) *Registry {
	name := strings.TrimSpace(selfName)
	if name == "" {
		name = "You"
	}
	return &Registry{
		participants: []Participant{{
			ID:           uuid.NewString(),
			Name:         name,
			ColorToken:   colorPalette[0],
			DisplayOrder: 0,
			IsSelf:       true,
		}},
	}
}

// Self returns the self participant.
func (r *Registry) Self() Participant {
	for _, p := range r.participants {
		if p.IsSelf {
			return p
		}
	}
	// Unreachable for registries built through NewRegistry or Replace.
	return Participant{}
}

// Add appends a participant with the next display order and a palette color
// keyed by the current count. The new participant starts with no item
// assignments; silently giving them a share of everything would change what
// existing participants owe.
func (r *Registry) Add(name string) (Participant, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Participant{}, fmt.Errorf("participant name is required")
	}
	p := Participant{
		ID:           uuid.NewString(),
		Name:         trimmed,
		ColorToken:   colorPalette[len(r.participants)%len(colorPalette)],
		DisplayOrder: len(r.participants),
	}
	r.participants = append(r.participants, p)
	return p, nil
}

// Remove deletes the participant and compacts display orders to 0..n-1.
// Removing the self participant or an unknown id is a no-op and returns
// false.
func (r *Registry) Remove(id string) bool {
	folded := foldID(id)
	for i, p := range r.participants {
		if foldID(p.ID) != folded {
			continue
		}
		if p.IsSelf {
			return false
		}
		r.participants = append(r.participants[:i], r.participants[i+1:]...)
		for j := range r.participants {
			r.participants[j].DisplayOrder = j
		}
		return true
	}
	return false
}

// Participants returns a copy of the registry in display order.
func (r *Registry) Participants() []Participant {
	out := make([]Participant, len(r.participants))
	copy(out, r.participants)
	return out
}

// Contains reports whether the id belongs to a registered participant,
// comparing case-insensitively.
func (r *Registry) Contains(id string) bool {
	_, ok := r.IndexOf(id)
	return ok
}

// IndexOf returns the zero-based registry position for the id, comparing
// case-insensitively.
func (r *Registry) IndexOf(id string) (int, bool) {
	folded := foldID(id)
	for i, p := range r.participants {
		if foldID(p.ID) == folded {
			return i, true
		}
	}
	return 0, false
}

// IDs returns all participant ids in display order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.participants))
	for i, p := range r.participants {
		ids[i] = p.ID
	}
	return ids
}

// Len reports the participant count.
func (r *Registry) Len() int {
	return len(r.participants)
}

// Replace swaps the registry contents for the given participants, which must
// contain exactly one self entry. Used when adopting the server's
// authoritative version of a split.
func (r *Registry) Replace(participants []Participant) error {
	selfCount := 0
	for _, p := range participants {
		if p.IsSelf {
			selfCount++
		}
	}
	if selfCount != 1 {
		return fmt.Errorf("expected exactly one self participant, got %d", selfCount)
	}
	replacement := make([]Participant, len(participants))
	copy(replacement, participants)
	for i := range replacement {
		replacement[i].DisplayOrder = i
	}
	r.participants = replacement
	return nil
}

// foldID normalizes a participant identifier for comparison. Backend-issued
// uuids can differ in letter case from locally generated ones; comparing
// without folding would silently attribute money to the wrong person.
func foldID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
