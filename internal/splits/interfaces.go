package splits

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tabsplit/tabsplit-backend/pkg/db/models"
)

// Repository defines persistence operations for saved splits.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByReceiptID(ctx context.Context, receiptID uuid.UUID) (*models.Split, error)
	Replace(ctx context.Context, split *models.Split) (*models.Split, error)
	DeleteByReceiptID(ctx context.Context, receiptID uuid.UUID) error
}
