package split

import (
	"context"
	"fmt"
	"sync"

	pkgerrors "github.com/tabsplit/tabsplit-backend/pkg/errors"
	"github.com/tabsplit/tabsplit-backend/pkg/logger"
)

// State names the synchronization phase a session is in.
type State string

const (
	StateUnsynced        State = "unsynced"
	StateLoading         State = "loading"
	StateLoaded          State = "loaded"
	StateNoExistingSplit State = "no_existing_split"
	StateSaving          State = "saving"
	StateSaved           State = "saved"
)

// SessionParams collects the dependencies for BeginSession.
type SessionParams struct {
	Receipt  ReceiptSource
	Backend  SplitBackend
	Cache    Cache
	Bus      *Bus
	SelfName string
	Logger   *logger.Logger
}

// Session is the editable split state for one receipt. All exported methods
// are safe for concurrent use; the sync.Mutex inside serializes every state
// transition. Only one network operation runs at a time: a second Load or
// Save while one is in flight is rejected with CodeConflict instead of
// queueing, so stale responses can never interleave with fresh edits.
type Session struct {
	mu sync.Mutex

	receiptID string
	items     []LineItem
	keys      KeyMap

	registry    *Registry
	assignments *Assignments

	backend SplitBackend
	cache   Cache
	bus     *Bus
	logg    *logger.Logger

	state  State
	busy   bool
	closed bool
}

// BeginSession builds a session for the receipt, defaults every item to the
// self participant, and attempts the initial fetch of any server-side split.
// A fetch failure still returns a usable session alongside the error; the
// caller keeps the local default split and may retry with Load.
func BeginSession(ctx context.Context, params SessionParams) (*Session, error) {
	if params.Receipt == nil {
		return nil, fmt.Errorf("receipt source is required")
	}
	if params.Backend == nil {
		return nil, fmt.Errorf("split backend is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	items := params.Receipt.LineItems()
	keys := BuildKeys(items)
	registry := NewRegistry(params.SelfName)
	assignments := NewAssignments(keys.Keys())
	assignments.AssignAll([]string{registry.Self().ID})

	s := &Session{
		receiptID:   params.Receipt.ReceiptID(),
		items:       items,
		keys:        keys,
		registry:    registry,
		assignments: assignments,
		backend:     params.Backend,
		cache:       params.Cache,
		bus:         params.Bus,
		logg:        params.Logger,
		state:       StateUnsynced,
	}
	if err := s.Load(ctx); err != nil {
		return s, err
	}
	return s, nil
}

// ReceiptID returns the receipt this session splits.
func (s *Session) ReceiptID() string {
	return s.receiptID
}

// Items returns the receipt's line items in decode order.
func (s *Session) Items() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// KeyFor resolves the stable key for an item.
func (s *Session) KeyFor(item LineItem) string {
	return s.keys.ForItem(item)
}

// State reports the current synchronization state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Busy reports whether a load or save is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Participants returns the roster in display order.
func (s *Session) Participants() []Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Participants()
}

// AddParticipant appends a person to the roster. The newcomer starts with no
// assignments.
func (s *Session) AddParticipant(name string) (Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.registry.Add(name)
	if err != nil {
		return Participant{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cannot add participant")
	}
	return p, nil
}

// RemoveParticipant drops a person from the roster and purges their
// assignments. The self participant cannot be removed.
func (s *Session) RemoveParticipant(participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.registry.IndexOf(participantID)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "participant not found")
	}
	if s.registry.Participants()[idx].IsSelf {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "the self participant cannot be removed")
	}
	s.registry.Remove(participantID)
	s.assignments.RemoveParticipant(participantID)
	return nil
}

// ToggleAssignment flips the participant's membership on the item.
func (s *Session) ToggleAssignment(itemKey, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.registry.Contains(participantID) {
		return pkgerrors.New(pkgerrors.CodeInvariant, "assignment references unknown participant").
			WithDetails(map[string]any{"participant_id": participantID})
	}
	return s.assignments.Toggle(itemKey, participantID)
}

// IsAssigned reports whether the participant shares the item.
func (s *Session) IsAssigned(itemKey, participantID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assignments.Contains(itemKey, participantID)
}

// AssignEveryoneToEverything puts every current participant on every item.
func (s *Session) AssignEveryoneToEverything() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments.AssignAll(s.registry.IDs())
}

// FullyAssigned reports whether every item has at least one assignee.
func (s *Session) FullyAssigned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assignments.FullyAssigned()
}

// ComputeSplits derives the current per-participant breakdown.
func (s *Session) ComputeSplits() []PersonShare {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Compute(s.items, s.keys, s.assignments, s.registry.Participants())
}

// Load fetches the server's split for this receipt and, if one exists,
// replaces the local participants and assignments wholesale. No split on the
// server leaves the local state untouched and ends in StateNoExistingSplit.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeStateConflict, "session is closed")
	}
	if s.busy {
		s.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeConflict, "another operation is in flight")
	}
	prev := s.state
	s.state = StateLoading
	s.busy = true
	s.mu.Unlock()

	ctx = s.logg.WithReceiptID(ctx, s.receiptID)

	rec, err := s.fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if s.closed {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "session is closed")
	}
	if err != nil {
		s.state = prev
		s.logg.Error(ctx, "split fetch failed", err)
		return err
	}
	if rec == nil {
		s.state = StateNoExistingSplit
		return nil
	}
	if err := s.apply(rec); err != nil {
		s.state = prev
		return err
	}
	s.state = StateLoaded
	s.logg.Info(ctx, "loaded existing split")
	return nil
}

// Save ships the full local split to the backend and adopts the returned
// authoritative record. On rejection or transport failure the local edits
// survive untouched for a retry.
func (s *Session) Save(ctx context.Context) (*SplitRecord, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session is closed")
	}
	if s.busy {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "another operation is in flight")
	}
	req, err := BuildSaveRequest(s.receiptID, s.registry, s.assignments)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	prev := s.state
	s.state = StateSaving
	s.busy = true
	s.mu.Unlock()

	ctx = s.logg.WithReceiptID(ctx, s.receiptID)

	rec, err := s.backend.Save(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if s.closed {
		// The session ended while the request was in flight; the response
		// must not mutate state someone else may have rebuilt.
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session is closed")
	}
	if err != nil {
		s.state = prev
		s.logg.Error(ctx, "split save failed", err)
		return nil, err
	}
	if err := s.apply(rec); err != nil {
		s.state = prev
		return nil, err
	}
	s.state = StateSaved
	s.logg.Info(ctx, "split saved")
	if s.cache != nil {
		s.cache.Put(ctx, s.receiptID, rec)
	}
	if s.bus != nil {
		bus := s.bus
		receiptID := s.receiptID
		// Publish outside the lock; a subscriber may call back into this
		// session.
		defer func() {
			go bus.Publish(context.WithoutCancel(ctx), SplitChanged{ReceiptID: receiptID})
		}()
	}
	return rec, nil
}

// HandleSplitChanged re-fetches the split when another session saved the same
// receipt. Wire it to a Bus with Subscribe.
func (s *Session) HandleSplitChanged(ctx context.Context, ev SplitChanged) {
	if ev.ReceiptID != s.receiptID {
		return
	}
	s.mu.Lock()
	skip := s.busy || s.closed
	s.mu.Unlock()
	if skip {
		return
	}
	if err := s.Load(ctx); err != nil {
		s.logg.Error(s.logg.WithReceiptID(ctx, s.receiptID), "reload after split change failed", err)
	}
}

// Close marks the session finished. In-flight operations complete but their
// results are discarded; every later call fails with CodeStateConflict.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) fetch(ctx context.Context) (*SplitRecord, error) {
	if s.cache != nil {
		if rec, ok := s.cache.Get(ctx, s.receiptID); ok {
			return rec, nil
		}
	}
	rec, err := s.backend.FetchExisting(ctx, s.receiptID)
	if err != nil {
		return nil, err
	}
	if rec != nil && s.cache != nil {
		s.cache.Put(ctx, s.receiptID, rec)
	}
	return rec, nil
}

// apply adopts the backend record wholesale. Caller holds the mutex.
func (s *Session) apply(rec *SplitRecord) error {
	registry, err := registryFromRecord(rec)
	if err != nil {
		return err
	}
	s.registry = registry
	s.assignments = assignmentsFromRecord(s.keys.Keys(), rec)
	return nil
}
