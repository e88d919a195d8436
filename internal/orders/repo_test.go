package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/packaxis/packaxis-backend/pkg/db/models"
	"github.com/packaxis/packaxis-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'PENDING',
  customer_email TEXT NOT NULL,
  province TEXT NOT NULL,
  subtotal NUMERIC NOT NULL,
  discount NUMERIC NOT NULL DEFAULT 0,
  tax NUMERIC NOT NULL,
  tax_rate NUMERIC NOT NULL,
  tax_label TEXT NOT NULL,
  shipping NUMERIC NOT NULL,
  total NUMERIC NOT NULL,
  coupon_code TEXT,
  estimated_delivery TEXT,
  transaction_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderLines := `
CREATE TABLE IF NOT EXISTS order_lines (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  qty INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  line_total NUMERIC NOT NULL,
  weight_kg NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	orderAddresses := `
CREATE TABLE IF NOT EXISTS order_addresses (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  line1 TEXT NOT NULL,
  line2 TEXT,
  city TEXT NOT NULL,
  province TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  country TEXT NOT NULL DEFAULT 'CA',
  phone TEXT,
  created_at DATETIME
);`
	shipmentTrackings := `
CREATE TABLE IF NOT EXISTS shipment_trackings (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  carrier TEXT NOT NULL,
  tracking_number TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  estimated_delivery DATETIME,
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderLines).Error)
	require.NoError(t, db.Exec(orderAddresses).Error)
	require.NoError(t, db.Exec(shipmentTrackings).Error)
	return db
}

func persistedOrder(t *testing.T, db *gorm.DB, orderNumber string) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   orderNumber,
		Status:        enums.OrderStatusPending,
		CustomerEmail: "dana@example.com",
		Province:      enums.ProvinceON,
		Subtotal:      decimal.RequireFromString("100.00"),
		Tax:           decimal.RequireFromString("13.00"),
		TaxRate:       decimal.RequireFromString("0.13"),
		TaxLabel:      "HST",
		Shipping:      decimal.RequireFromString("9.99"),
		Total:         decimal.RequireFromString("122.99"),
		Lines: []models.OrderLine{
			{
				ID:        uuid.New(),
				SKU:       "BOX-10x10",
				Name:      "10x10 Shipping Box",
				Qty:       4,
				UnitPrice: decimal.RequireFromString("25.00"),
				LineTotal: decimal.RequireFromString("100.00"),
				WeightKg:  decimal.RequireFromString("0.5"),
			},
		},
		Addresses: []models.OrderAddress{
			{
				ID:         uuid.New(),
				Kind:       models.AddressKindShipping,
				FirstName:  "Dana",
				LastName:   "Tremblay",
				Line1:      "100 King St W",
				City:       "Toronto",
				Province:   enums.ProvinceON,
				PostalCode: "M5V 3A8",
				Country:    "CA",
			},
		},
	}
	repo := NewRepository(db)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return repo.CreateTx(tx, order)
	}))
	return order
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	created := persistedOrder(t, db, "PKX20260105143000")

	found, err := repo.FindByOrderNumber(context.Background(), "PKX20260105143000")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, enums.OrderStatusPending, found.Status)
	assert.True(t, found.Total.Equal(decimal.RequireFromString("122.99")))

	require.Len(t, found.Lines, 1)
	assert.Equal(t, "BOX-10x10", found.Lines[0].SKU)
	assert.Equal(t, 4, found.Lines[0].Qty)
	assert.True(t, found.Lines[0].UnitPrice.Equal(decimal.RequireFromString("25")))

	require.Len(t, found.Addresses, 1)
	assert.Equal(t, models.AddressKindShipping, found.Addresses[0].Kind)
	assert.Equal(t, "M5V 3A8", found.Addresses[0].PostalCode)
}

func TestRepositoryFindMissingOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByOrderNumber(context.Background(), "PKX404")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryExistsByOrderNumber(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	exists, err := repo.ExistsByOrderNumberTx(db, "PKX1")
	require.NoError(t, err)
	assert.False(t, exists)

	persistedOrder(t, db, "PKX1")

	exists, err = repo.ExistsByOrderNumberTx(db, "PKX1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRepositoryUpdateStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := persistedOrder(t, db, "PKX2")

	txID := "pi_3abc"
	require.NoError(t, repo.UpdateStatusTx(db, order.ID, enums.OrderStatusProcessing, &txID))

	found, err := repo.FindByOrderNumberTx(db, "PKX2")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, found.Status)
	require.NotNil(t, found.TransactionID)
	assert.Equal(t, "pi_3abc", *found.TransactionID)
}

func TestRepositoryTrackingLifecycle(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := persistedOrder(t, db, "PKX3")

	tracking := &models.ShipmentTracking{
		ID:             uuid.New(),
		OrderID:        order.ID,
		Carrier:        enums.CarrierCanadaPost,
		TrackingNumber: "CP123456789CA",
		Status:         enums.ShipmentStatusInTransit,
	}
	require.NoError(t, repo.CreateTrackingTx(db, tracking))

	found, err := repo.FindTrackingByOrderTx(db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CarrierCanadaPost, found.Carrier)
	assert.Equal(t, enums.ShipmentStatusInTransit, found.Status)
	assert.Nil(t, found.DeliveredAt)

	require.NoError(t, repo.UpdateTrackingStatusTx(db, tracking.ID, enums.ShipmentStatusDelivered))

	delivered, err := repo.FindTrackingByOrderTx(db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)
}

func TestRepositoryTxGuards(t *testing.T) {
	repo := NewRepository(nil)

	require.Error(t, repo.CreateTx(nil, &models.Order{}))
	_, err := repo.ExistsByOrderNumberTx(nil, "PKX1")
	require.Error(t, err)
	_, err = repo.FindByOrderNumberTx(nil, "PKX1")
	require.Error(t, err)
	require.Error(t, repo.UpdateStatusTx(nil, uuid.New(), enums.OrderStatusProcessing, nil))
}
