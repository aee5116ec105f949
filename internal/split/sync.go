package split

import (
	"context"
	"sort"
	"time"

	pkgerrors "github.com/tabsplit/tabsplit-backend/pkg/errors"
)

// WireParticipant is the positional participant shape sent to the backend.
// Participants carry no id on the way up; the server mints ids and the array
// position is the only cross-reference assignments may use.
type WireParticipant struct {
	Name       string `json:"name"`
	ColorToken string `json:"color_token"`
	IsSelf     bool   `json:"is_self"`
}

// WireAssignment links an item key to participants by their position in the
// request's participant array.
type WireAssignment struct {
	ItemKey            string `json:"item_key"`
	ParticipantIndices []int  `json:"participant_indices"`
}

// SaveSplitRequest is the full replacement payload for one receipt's split.
type SaveSplitRequest struct {
	ReceiptID    string            `json:"receipt_id"`
	Participants []WireParticipant `json:"participants"`
	Assignments  []WireAssignment  `json:"assignments"`
}

// RecordParticipant is a participant as the backend stores it, id included.
type RecordParticipant struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ColorToken   string `json:"color_token"`
	IsSelf       bool   `json:"is_self"`
	DisplayOrder int    `json:"display_order"`
}

// SplitRecord is the backend's authoritative version of a split. Assignments
// map item keys to backend-issued participant ids.
type SplitRecord struct {
	SplitID      string              `json:"split_id"`
	ReceiptID    string              `json:"receipt_id"`
	Participants []RecordParticipant `json:"participants"`
	Assignments  map[string][]string `json:"assignments"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// SplitBackend persists splits. FetchExisting returns (nil, nil) when no
// split has been saved for the receipt; absence is an expected state, not an
// error. Implementations classify failures through the pkg/errors taxonomy:
// transport trouble maps to CodeDependency, a rejected payload to
// CodeValidation or CodeConflict.
type SplitBackend interface {
	FetchExisting(ctx context.Context, receiptID string) (*SplitRecord, error)
	Save(ctx context.Context, req SaveSplitRequest) (*SplitRecord, error)
}

// BuildSaveRequest flattens the registry and assignment store into the wire
// shape. Items with no assignees are omitted; indices are ascending. An
// assignment pointing at a participant the registry no longer holds is an
// internal inconsistency and fails the build rather than shipping a payload
// the server would misattribute.
func BuildSaveRequest(receiptID string, reg *Registry, assignments *Assignments) (SaveSplitRequest, error) {
	participants := reg.Participants()
	wireParticipants := make([]WireParticipant, len(participants))
	indexByID := make(map[string]int, len(participants))
	for i, p := range participants {
		wireParticipants[i] = WireParticipant{
			Name:       p.Name,
			ColorToken: p.ColorToken,
			IsSelf:     p.IsSelf,
		}
		indexByID[foldID(p.ID)] = i
	}

	var wireAssignments []WireAssignment
	for _, key := range assignments.ItemKeys() {
		assignees := assignments.Assignees(key)
		if len(assignees) == 0 {
			continue
		}
		indices := make([]int, 0, len(assignees))
		for _, id := range assignees {
			idx, ok := indexByID[id]
			if !ok {
				return SaveSplitRequest{}, pkgerrors.New(pkgerrors.CodeInvariant,
					"assignment references participant missing from registry").
					WithDetails(map[string]any{"item_key": key, "participant_id": id})
			}
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		wireAssignments = append(wireAssignments, WireAssignment{
			ItemKey:            key,
			ParticipantIndices: indices,
		})
	}

	return SaveSplitRequest{
		ReceiptID:    receiptID,
		Participants: wireParticipants,
		Assignments:  wireAssignments,
	}, nil
}

// registryFromRecord rebuilds a registry from the backend's participant list,
// honoring its display order.
func registryFromRecord(rec *SplitRecord) (*Registry, error) {
	participants := make([]Participant, len(rec.Participants))
	for i, p := range rec.Participants {
		participants[i] = Participant{
			ID:           p.ID,
			Name:         p.Name,
			ColorToken:   p.ColorToken,
			DisplayOrder: p.DisplayOrder,
			IsSelf:       p.IsSelf,
		}
	}
	sort.SliceStable(participants, func(i, j int) bool {
		return participants[i].DisplayOrder < participants[j].DisplayOrder
	})
	reg := &Registry{}
	if err := reg.Replace(participants); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvariant, err, "server split record is inconsistent")
	}
	return reg, nil
}

// assignmentsFromRecord rebuilds the assignment store over the session's item
// keys from the backend record. Record entries for keys the session does not
// know are dropped; the receipt may have been re-decoded with fewer items and
// stale keys must not resurrect them.
func assignmentsFromRecord(itemKeys []string, rec *SplitRecord) *Assignments {
	assignments := NewAssignments(itemKeys)
	for key, ids := range rec.Assignments {
		if _, ok := assignments.sets[key]; !ok {
			continue
		}
		for _, id := range ids {
			assignments.sets[key][foldID(id)] = struct{}{}
		}
	}
	return assignments
}
