package receipts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tabsplit/tabsplit-backend/pkg/db/models"
	"github.com/tabsplit/tabsplit-backend/pkg/pagination"
)

func setupReceiptsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	receipts := `
CREATE TABLE IF NOT EXISTS receipts (
  id TEXT PRIMARY KEY,
  store_name TEXT NOT NULL,
  total_amount TEXT NOT NULL,
  purchased_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	receiptItems := `
CREATE TABLE IF NOT EXISTS receipt_items (
  id TEXT PRIMARY KEY,
  receipt_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  name TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`
	for _, stmt := range []string{receipts, receiptItems} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	require.NoError(t, db.Exec("DELETE FROM receipt_items").Error)
	require.NoError(t, db.Exec("DELETE FROM receipts").Error)
	return db
}

func seedReceipt(t *testing.T, db *gorm.DB, createdAt time.Time) *models.Receipt {
	t.Helper()
	receipt := &models.Receipt{
		ID:          uuid.New(),
		StoreName:   "Test Mart",
		TotalAmount: decimal.RequireFromString("17.25"),
		PurchasedAt: createdAt,
		CreatedAt:   createdAt,
		Items: []models.ReceiptItem{
			{ID: uuid.New(), Position: 1, Name: "Bagel", UnitPrice: decimal.RequireFromString("3.25"), Quantity: 1},
			{ID: uuid.New(), Position: 0, Name: "Coffee", UnitPrice: decimal.RequireFromString("4.50"), Quantity: 2},
		},
	}
	for i := range receipt.Items {
		receipt.Items[i].ReceiptID = receipt.ID
	}
	require.NoError(t, db.Create(receipt).Error)
	return receipt
}

func TestRepositoryFindByIDOrdersItems(t *testing.T) {
	db := setupReceiptsTestDB(t)
	repo := NewRepository(db)
	seeded := seedReceipt(t, db, time.Now().UTC())

	found, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "Coffee", found.Items[0].Name)
	assert.Equal(t, "Bagel", found.Items[1].Name)
	assert.Equal(t, 0, found.Items[0].Position)
}

func TestRepositoryFindByIDMissing(t *testing.T) {
	db := setupReceiptsTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListPaginates(t *testing.T) {
	db := setupReceiptsTestDB(t)
	repo := NewRepository(db)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedReceipt(t, db, base.Add(time.Duration(i)*time.Minute))
	}

	first, err := repo.List(context.Background(), pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Receipts, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.True(t, first.Receipts[0].CreatedAt.After(first.Receipts[1].CreatedAt))

	second, err := repo.List(context.Background(), pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Receipts, 1)
	assert.Empty(t, second.NextCursor)
}

func TestRepositoryRecentReceiptIDs(t *testing.T) {
	db := setupReceiptsTestDB(t)
	repo := NewRepository(db)

	old := seedReceipt(t, db, time.Now().UTC().Add(-48*time.Hour))
	recent := seedReceipt(t, db, time.Now().UTC().Add(-time.Hour))

	ids, err := repo.RecentReceiptIDs(context.Background(), time.Now().UTC().Add(-24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, recent.ID, ids[0])
	assert.NotEqual(t, old.ID, ids[0])
}
