package splits

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tabsplit/tabsplit-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a splits repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByReceiptID(ctx context.Context, receiptID uuid.UUID) (*models.Split, error) {
	var split models.Split
	err := r.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		Preload("Assignments", func(db *gorm.DB) *gorm.DB {
			return db.Order("item_key ASC")
		}).
		Where("receipt_id = ?", receiptID).
		First(&split).Error
	if err != nil {
		return nil, err
	}
	return &split, nil
}

// Replace swaps the receipt's split for the given one. Callers run this
// inside a transaction so readers never see a half-replaced split.
func (r *repository) Replace(ctx context.Context, split *models.Split) (*models.Split, error) {
	if err := r.DeleteByReceiptID(ctx, split.ReceiptID); err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(split).Error; err != nil {
		return nil, err
	}
	return split, nil
}

func (r *repository) DeleteByReceiptID(ctx context.Context, receiptID uuid.UUID) error {
	db := r.db.WithContext(ctx)

	var splitIDs []uuid.UUID
	err := db.Model(&models.Split{}).
		Where("receipt_id = ?", receiptID).
		Pluck("id", &splitIDs).Error
	if err != nil {
		return err
	}
	if len(splitIDs) == 0 {
		return nil
	}

	if err := db.Where("split_id IN ?", splitIDs).Delete(&models.SplitAssignment{}).Error; err != nil {
		return err
	}
	if err := db.Where("split_id IN ?", splitIDs).Delete(&models.SplitParticipant{}).Error; err != nil {
		return err
	}
	return db.Where("id IN ?", splitIDs).Delete(&models.Split{}).Error
}
