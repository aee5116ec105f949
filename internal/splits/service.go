package splits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tabsplit/tabsplit-backend/internal/split"
	"github.com/tabsplit/tabsplit-backend/pkg/db/models"
	pkgerrors "github.com/tabsplit/tabsplit-backend/pkg/errors"
	"github.com/tabsplit/tabsplit-backend/pkg/logger"
	"github.com/tabsplit/tabsplit-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type receiptFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error)
}

// Service is the authoritative save/fetch surface for splits. Save replaces
// the receipt's split wholesale and mints participant ids; clients reference
// participants by position on the way up and adopt the minted ids from the
// returned record.
type Service interface {
	Fetch(ctx context.Context, receiptID uuid.UUID) (*split.SplitRecord, error)
	Save(ctx context.Context, req split.SaveSplitRequest) (*split.SplitRecord, error)
}

type service struct {
	repo     Repository
	receipts receiptFinder
	tx       txRunner
	cache    *RecordCache
	metrics  *metrics.SplitMetrics
	logg     *logger.Logger
}

// NewService wires the splits service. Cache and metrics are optional.
func NewService(repo Repository, receipts receiptFinder, tx txRunner, cache *RecordCache, m *metrics.SplitMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("splits repository is required")
	}
	if receipts == nil {
		return nil, fmt.Errorf("receipt finder is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, receipts: receipts, tx: tx, cache: cache, metrics: m, logg: logg}, nil
}

// Fetch returns the saved split for the receipt, or nil when none exists.
func (s *service) Fetch(ctx context.Context, receiptID uuid.UUID) (*split.SplitRecord, error) {
	started := time.Now()
	ctx = s.logg.WithReceiptID(ctx, receiptID.String())

	if rec, ok := s.cache.Get(ctx, receiptID.String()); ok {
		s.observeCache("hit")
		s.observeFetch("success", started)
		return rec, nil
	}
	s.observeCache("miss")

	stored, err := s.repo.FindByReceiptID(ctx, receiptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.observeFetch("absent", started)
			return nil, nil
		}
		s.observeFetch("error", started)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load split")
	}

	rec := recordFromModel(stored)
	s.cache.Put(ctx, receiptID.String(), rec)
	s.observeFetch("success", started)
	return rec, nil
}

// Save validates the positional payload, replaces the stored split inside a
// transaction, and returns the record with server-assigned participant ids.
func (s *service) Save(ctx context.Context, req split.SaveSplitRequest) (*split.SplitRecord, error) {
	started := time.Now()

	receiptID, err := uuid.Parse(req.ReceiptID)
	if err != nil {
		s.observeSave("rejected", started)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receipt id must be a uuid")
	}
	ctx = s.logg.WithReceiptID(ctx, receiptID.String())

	receipt, err := s.receipts.FindByID(ctx, receiptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.observeSave("rejected", started)
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
		}
		s.observeSave("error", started)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load receipt for split save")
	}

	if err := validateSaveRequest(req, receipt); err != nil {
		s.observeSave("rejected", started)
		return nil, err
	}

	replacement := buildSplitModel(receiptID, req)

	var saved *models.Split
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		saved, err = s.repo.WithTx(tx).Replace(ctx, replacement)
		return err
	})
	if err != nil {
		s.observeSave("error", started)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace split")
	}

	rec := recordFromModel(saved)
	s.cache.Put(ctx, receiptID.String(), rec)
	s.observeSave("success", started)
	s.logg.Info(s.logg.WithSplitID(ctx, rec.SplitID), "split saved")
	return rec, nil
}

// validateSaveRequest enforces the payload contract: at least one
// participant, exactly one marked self, non-empty names, assignment indices
// inside the participant array, and item keys that belong to the receipt
// (either an item row id or a local-item-N position key).
func validateSaveRequest(req split.SaveSplitRequest, receipt *models.Receipt) error {
	if len(req.Participants) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one participant is required")
	}
	selfCount := 0
	for i, p := range req.Participants {
		if p.Name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "participant name is required").
				WithDetails(map[string]any{"index": i})
		}
		if p.IsSelf {
			selfCount++
		}
	}
	if selfCount != 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "exactly one participant must be marked self").
			WithDetails(map[string]any{"self_count": selfCount})
	}

	validKeys := make(map[string]struct{}, 2*len(receipt.Items))
	for i, item := range receipt.Items {
		validKeys[item.ID.String()] = struct{}{}
		validKeys[fmt.Sprintf("local-item-%d", i)] = struct{}{}
	}

	seenKeys := make(map[string]struct{}, len(req.Assignments))
	for _, a := range req.Assignments {
		if _, ok := validKeys[a.ItemKey]; !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "assignment references an item not on the receipt").
				WithDetails(map[string]any{"item_key": a.ItemKey})
		}
		if _, dup := seenKeys[a.ItemKey]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate assignment for item").
				WithDetails(map[string]any{"item_key": a.ItemKey})
		}
		seenKeys[a.ItemKey] = struct{}{}
		if len(a.ParticipantIndices) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "assignment needs at least one participant").
				WithDetails(map[string]any{"item_key": a.ItemKey})
		}
		for _, idx := range a.ParticipantIndices {
			if idx < 0 || idx >= len(req.Participants) {
				return pkgerrors.New(pkgerrors.CodeValidation, "participant index out of range").
					WithDetails(map[string]any{"item_key": a.ItemKey, "index": idx})
			}
		}
	}
	return nil
}

// buildSplitModel mints the split and participant ids and resolves positional
// indices into participant references.
func buildSplitModel(receiptID uuid.UUID, req split.SaveSplitRequest) *models.Split {
	splitID := uuid.New()
	stored := &models.Split{
		ID:        splitID,
		ReceiptID: receiptID,
	}

	participantIDs := make([]uuid.UUID, len(req.Participants))
	for i, p := range req.Participants {
		participantIDs[i] = uuid.New()
		stored.Participants = append(stored.Participants, models.SplitParticipant{
			ID:           participantIDs[i],
			SplitID:      splitID,
			Name:         p.Name,
			ColorToken:   p.ColorToken,
			IsSelf:       p.IsSelf,
			DisplayOrder: i,
		})
	}
	for _, a := range req.Assignments {
		for _, idx := range a.ParticipantIndices {
			stored.Assignments = append(stored.Assignments, models.SplitAssignment{
				ID:            uuid.New(),
				SplitID:       splitID,
				ItemKey:       a.ItemKey,
				ParticipantID: participantIDs[idx],
			})
		}
	}
	return stored
}

// recordFromModel flattens stored rows into the wire record.
func recordFromModel(stored *models.Split) *split.SplitRecord {
	rec := &split.SplitRecord{
		SplitID:     stored.ID.String(),
		ReceiptID:   stored.ReceiptID.String(),
		Assignments: make(map[string][]string, len(stored.Assignments)),
		UpdatedAt:   stored.UpdatedAt,
	}
	for _, p := range stored.Participants {
		rec.Participants = append(rec.Participants, split.RecordParticipant{
			ID:           p.ID.String(),
			Name:         p.Name,
			ColorToken:   p.ColorToken,
			IsSelf:       p.IsSelf,
			DisplayOrder: p.DisplayOrder,
		})
	}
	for _, a := range stored.Assignments {
		rec.Assignments[a.ItemKey] = append(rec.Assignments[a.ItemKey], a.ParticipantID.String())
	}
	return rec
}

func (s *service) observeSave(outcome string, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveSave(outcome)
	s.metrics.ObserveDuration("save", time.Since(started))
}

func (s *service) observeFetch(outcome string, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveFetch(outcome)
	s.metrics.ObserveDuration("fetch", time.Since(started))
}

func (s *service) observeCache(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveCacheLookup(result)
}
