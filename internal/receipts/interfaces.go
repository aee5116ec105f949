package receipts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tabsplit/tabsplit-backend/pkg/db/models"
	"github.com/tabsplit/tabsplit-backend/pkg/pagination"
)

// Repository defines persistence operations for receipts and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, receipt *models.Receipt) (*models.Receipt, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error)
	List(ctx context.Context, params pagination.Params) (*ReceiptList, error)
	RecentReceiptIDs(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error)
}

// ReceiptList is one page of receipts plus the cursor for the next page.
type ReceiptList struct {
	Receipts   []models.Receipt
	NextCursor string
}
