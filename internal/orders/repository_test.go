package orders

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

	"github.com/floraweave/floraweave-backend/pkg/db/models"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	"github.com/floraweave/floraweave-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'unpaid',
  subtotal TEXT NOT NULL,
  gst_amount TEXT NOT NULL DEFAULT '0',
  total TEXT NOT NULL,
  shipping_address TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderLines := `
CREATE TABLE IF NOT EXISTS order_lines (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  kind TEXT NOT NULL,
  quantity TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  total_price TEXT NOT NULL,
  design_price TEXT,
  fabric_price TEXT,
  fabric_product_id TEXT,
  variant_selections TEXT NOT NULL DEFAULT '[]',
  digital_file_key TEXT,
  created_at DATETIME
);`
	carts := `
CREATE TABLE IF NOT EXISTS cart_records (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  subtotal TEXT NOT NULL DEFAULT '0',
  gst_amount TEXT NOT NULL DEFAULT '0',
  total TEXT NOT NULL DEFAULT '0',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderLines).Error)
	require.NoError(t, db.Exec(carts).Error)
	return db
}

func createTestOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, number string, created time.Time, paymentStatus enums.PaymentStatus) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:            uuid.New(),
		Number:        number,
		UserID:        userID,
		Status:        enums.OrderStatusPending,
		PaymentStatus: paymentStatus,
		Subtotal:      decimal.NewFromInt(1000),
		GSTAmount:     decimal.NewFromInt(50),
		Total:         decimal.NewFromInt(1050),
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	require.NoError(t, db.Omit("Lines").Create(order).Error)
	return order
}

func createTestLine(t *testing.T, db *gorm.DB, order *models.Order, productID uuid.UUID, kind enums.ProductKind, fileKey *string) *models.OrderLine {
	t.Helper()

	line := &models.OrderLine{
		ID:             uuid.New(),
		OrderID:        order.ID,
		ProductID:      productID,
		ProductName:    "Indigo Block Print",
		Kind:           kind,
		Quantity:       decimal.NewFromInt(2),
		UnitPrice:      decimal.NewFromInt(500),
		TotalPrice:     decimal.NewFromInt(1000),
		DigitalFileKey: fileKey,
		CreatedAt:      order.CreatedAt,
	}
	require.NoError(t, db.Create(line).Error)
	return line
}

func TestRepositoryList_pagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)
	older := createTestOrder(t, db, userID, "FW-00001", now.Add(-time.Hour), enums.PaymentStatusPaid)
	newer := createTestOrder(t, db, userID, "FW-00002", now, enums.PaymentStatusUnpaid)

	first, err := repo.List(context.Background(), ListFilter{UserID: &userID}, pagination.Params{Limit: 1})
	require.NoError(t, err)
	require.Len(t, first, 2) // limit+1 buffer row for next-page detection
	assert.Equal(t, newer.Number, first[0].Number)

	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: first[0].CreatedAt, ID: first[0].ID})
	second, err := repo.List(context.Background(), ListFilter{UserID: &userID}, pagination.Params{Limit: 1, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, older.Number, second[0].Number)
}

func TestRepositoryList_filters(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)
	paid := createTestOrder(t, db, userID, "FW-00010", now.Add(-time.Minute), enums.PaymentStatusPaid)
	createTestOrder(t, db, userID, "FW-00011", now, enums.PaymentStatusUnpaid)
	createTestOrder(t, db, uuid.New(), "FW-00012", now, enums.PaymentStatusPaid)

	paidStatus := enums.PaymentStatusPaid
	rows, err := repo.List(context.Background(), ListFilter{UserID: &userID, PaymentStatus: &paidStatus}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, paid.Number, rows[0].Number)

	_, err = repo.List(context.Background(), ListFilter{}, pagination.Params{Cursor: "not-base64"})
	require.Error(t, err)
}

func TestRepositoryFindByID_preloadsLines(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, uuid.New(), "FW-00020", time.Now().UTC(), enums.PaymentStatusPaid)
	createTestLine(t, db, order, uuid.New(), enums.ProductKindPlain, nil)

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, found.Lines, 1)
	assert.Equal(t, "Indigo Block Print", found.Lines[0].ProductName)

	_, err = repo.FindByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestRepositoryNumberExists(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	createTestOrder(t, db, uuid.New(), "FW-00030", time.Now().UTC(), enums.PaymentStatusUnpaid)

	taken, err := repo.NumberExists(context.Background(), "FW-00030")
	require.NoError(t, err)
	assert.True(t, taken)

	free, err := repo.NumberExists(context.Background(), "FW-99999")
	require.NoError(t, err)
	assert.False(t, free)
}

func TestRepositoryPaidLineLookups(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	productID := uuid.New()
	fileKey := "digital/patterns/indigo-v2.zip"

	now := time.Now().UTC().Truncate(time.Second)
	unpaid := createTestOrder(t, db, userID, "FW-00040", now.Add(-time.Hour), enums.PaymentStatusUnpaid)
	createTestLine(t, db, unpaid, productID, enums.ProductKindDigital, &fileKey)

	owns, err := repo.HasPaidLineWithProduct(context.Background(), userID, productID)
	require.NoError(t, err)
	assert.False(t, owns, "unpaid orders must not grant ownership")

	paid := createTestOrder(t, db, userID, "FW-00041", now, enums.PaymentStatusPaid)
	createTestLine(t, db, paid, productID, enums.ProductKindDigital, &fileKey)

	owns, err = repo.HasPaidLineWithProduct(context.Background(), userID, productID)
	require.NoError(t, err)
	assert.True(t, owns)

	line, err := repo.FindPaidLine(context.Background(), userID, productID)
	require.NoError(t, err)
	require.NotNil(t, line.DigitalFileKey)
	assert.Equal(t, fileKey, *line.DigitalFileKey)

	// Another customer never sees the line.
	_, err = repo.FindPaidLine(context.Background(), uuid.New(), productID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestRepositoryDeleteCartForUser(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	cart := &models.CartRecord{ID: uuid.New(), UserID: userID}
	require.NoError(t, db.Omit("Items").Create(cart).Error)

	require.NoError(t, repo.DeleteCartForUser(context.Background(), userID))

	var count int64
	require.NoError(t, db.Model(&models.CartRecord{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Zero(t, count)
}
