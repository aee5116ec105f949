package receipts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tabsplit/tabsplit-backend/pkg/db/models"
	"github.com/tabsplit/tabsplit-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a receipts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, receipt *models.Receipt) (*models.Receipt, error) {
	if err := r.db.WithContext(ctx).Create(receipt).Error; err != nil {
		return nil, err
	}
	return receipt, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	var receipt models.Receipt
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) (*ReceiptList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Receipt{}).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Receipt
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &ReceiptList{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Receipts = rows
	return list, nil
}

func (r *repository) RecentReceiptIDs(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Receipt{}).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
