package receipts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tabsplit/tabsplit-backend/pkg/db/models"
	pkgerrors "github.com/tabsplit/tabsplit-backend/pkg/errors"
	"github.com/tabsplit/tabsplit-backend/pkg/pagination"
)

type stubReceiptsRepo struct {
	created  *models.Receipt
	receipt  *models.Receipt
	recent   []uuid.UUID
	recentAt time.Time
}

func (s *stubReceiptsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubReceiptsRepo) Create(ctx context.Context, receipt *models.Receipt) (*models.Receipt, error) {
	receipt.ID = uuid.New()
	s.created = receipt
	return receipt, nil
}

func (s *stubReceiptsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	if s.receipt == nil || s.receipt.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.receipt, nil
}

func (s *stubReceiptsRepo) List(ctx context.Context, params pagination.Params) (*ReceiptList, error) {
	return &ReceiptList{}, nil
}

func (s *stubReceiptsRepo) RecentReceiptIDs(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error) {
	s.recentAt = since
	return s.recent, nil
}

func TestServiceCreateValidates(t *testing.T) {
	repo := &stubReceiptsRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Create(context.Background(), CreateReceiptInput{StoreName: "  "})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("blank store name: got %v", err)
	}

	_, err = svc.Create(context.Background(), CreateReceiptInput{StoreName: "Mart"})
	if coded := pkgerrors.As(err); coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("no items: got %v", err)
	}
}

func TestServiceCreateAssignsPositions(t *testing.T) {
	repo := &stubReceiptsRepo{}
	svc, _ := NewService(repo)

	created, err := svc.Create(context.Background(), CreateReceiptInput{
		StoreName:   "Mart",
		TotalAmount: decimal.RequireFromString("7.75"),
		Items: []CreateReceiptItem{
			{Name: "Coffee", UnitPrice: decimal.RequireFromString("4.50")},
			{Name: "Bagel", UnitPrice: decimal.RequireFromString("3.25"), Quantity: 2},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(created.Items) != 2 {
		t.Fatalf("items = %d", len(created.Items))
	}
	for i, item := range created.Items {
		if item.Position != i {
			t.Fatalf("item %d position = %d", i, item.Position)
		}
	}
	if created.Items[0].Quantity != 1 {
		t.Fatalf("zero quantity not defaulted, got %d", created.Items[0].Quantity)
	}
	if created.PurchasedAt.IsZero() {
		t.Fatal("purchased_at not defaulted")
	}
}

func TestServiceGetNotFound(t *testing.T) {
	svc, _ := NewService(&stubReceiptsRepo{})
	_, err := svc.Get(context.Background(), uuid.New())
	if !pkgerrors.IsNotFound(err) {
		t.Fatalf("got %v, want not found", err)
	}
}

func TestSourceAdaptsStoredReceipt(t *testing.T) {
	receipt := &models.Receipt{
		ID:          uuid.New(),
		StoreName:   "Mart",
		TotalAmount: decimal.RequireFromString("9.00"),
		Items: []models.ReceiptItem{
			{ID: uuid.New(), Position: 0, Name: "Coffee", UnitPrice: decimal.RequireFromString("4.50"), Quantity: 2},
		},
	}
	src := Source(receipt)
	if src.ReceiptID() != receipt.ID.String() {
		t.Fatalf("receipt id = %s", src.ReceiptID())
	}
	items := src.LineItems()
	if len(items) != 1 {
		t.Fatalf("items = %d", len(items))
	}
	if items[0].BackendItemID != receipt.Items[0].ID.String() {
		t.Fatal("backend item id not carried through")
	}
	if items[0].SourceIndex != 0 || items[0].Quantity != 2 {
		t.Fatalf("item = %+v", items[0])
	}
}
