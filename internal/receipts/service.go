package receipts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tabsplit/tabsplit-backend/internal/split"
	"github.com/tabsplit/tabsplit-backend/pkg/db/models"
	pkgerrors "github.com/tabsplit/tabsplit-backend/pkg/errors"
	"github.com/tabsplit/tabsplit-backend/pkg/pagination"
)

// Service exposes the receipt read/write surface the API and the split
// engine build on.
type Service interface {
	Create(ctx context.Context, input CreateReceiptInput) (*models.Receipt, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Receipt, error)
	List(ctx context.Context, params pagination.Params) (*ReceiptList, error)
	RecentReceiptIDs(ctx context.Context, lookback time.Duration, limit int) ([]uuid.UUID, error)
}

type service struct {
	repo Repository
}

// NewService wires the receipts service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("receipts repository is required")
	}
	return &service{repo: repo}, nil
}

// CreateReceiptInput is a decoded receipt ready for persistence.
type CreateReceiptInput struct {
	StoreName   string
	TotalAmount decimal.Decimal
	PurchasedAt time.Time
	Items       []CreateReceiptItem
}

// CreateReceiptItem is one purchased product in creation order.
type CreateReceiptItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

func (s *service) Create(ctx context.Context, input CreateReceiptInput) (*models.Receipt, error) {
	if strings.TrimSpace(input.StoreName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a receipt needs at least one item")
	}
	purchasedAt := input.PurchasedAt
	if purchasedAt.IsZero() {
		purchasedAt = time.Now().UTC()
	}

	receipt := &models.Receipt{
		StoreName:   strings.TrimSpace(input.StoreName),
		TotalAmount: input.TotalAmount,
		PurchasedAt: purchasedAt,
	}
	for i, item := range input.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required").
				WithDetails(map[string]any{"position": i})
		}
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		receipt.Items = append(receipt.Items, models.ReceiptItem{
			Position:  i,
			Name:      name,
			UnitPrice: item.UnitPrice,
			Quantity:  qty,
		})
	}

	created, err := s.repo.Create(ctx, receipt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create receipt")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	receipt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load receipt")
	}
	return receipt, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ReceiptList, error) {
	list, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list receipts")
	}
	return list, nil
}

func (s *service) RecentReceiptIDs(ctx context.Context, lookback time.Duration, limit int) ([]uuid.UUID, error) {
	if lookback <= 0 {
		lookback = 30 * 24 * time.Hour
	}
	if limit <= 0 {
		limit = 100
	}
	ids, err := s.repo.RecentReceiptIDs(ctx, time.Now().UTC().Add(-lookback), limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list recent receipt ids")
	}
	return ids, nil
}

// Source adapts a stored receipt into the shape the split engine allocates
// over. Items carry their row id as the backend item id, so splits reference
// them durably across re-reads.
func Source(receipt *models.Receipt) split.ReceiptSource {
	return &receiptSource{receipt: receipt}
}

type receiptSource struct {
	receipt *models.Receipt
}

func (r *receiptSource) ReceiptID() string            { return r.receipt.ID.String() }
func (r *receiptSource) StoreName() string            { return r.receipt.StoreName }
func (r *receiptSource) TotalAmount() decimal.Decimal { return r.receipt.TotalAmount }

func (r *receiptSource) LineItems() []split.LineItem {
	items := make([]split.LineItem, len(r.receipt.Items))
	for i, item := range r.receipt.Items {
		items[i] = split.LineItem{
			SourceIndex:   i,
			BackendItemID: item.ID.String(),
			Name:          item.Name,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
		}
	}
	return items
}
