package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nino-0813/honma-ec-sub000/pkg/db/models"
	"github.com/nino-0813/honma-ec-sub000/pkg/enums"
	pkgerrors "github.com/nino-0813/honma-ec-sub000/pkg/errors"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:coupons_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// The production schema lives in the SQL migrations; sqlite gets a
	// hand-written equivalent because the Postgres defaults do not parse.
	ddl := `CREATE TABLE IF NOT EXISTS coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  discount_type TEXT NOT NULL,
  amount INTEGER NOT NULL,
  usage_limit INTEGER,
  usage_count INTEGER NOT NULL DEFAULT 0,
  active_from DATETIME,
  active_until DATETIME,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func TestRepository_FindByCode(t *testing.T) {
	t.Parallel()
	repo := NewRepository(testDB(t))
	ctx := context.Background()

	coupon := &models.Coupon{
		ID:           uuid.New(),
		Code:         "SHINMAI2026",
		DiscountType: enums.DiscountTypePercentage,
		Amount:       10,
		IsActive:     true,
	}
	require.NoError(t, repo.(*repository).db.Create(coupon).Error)

	got, err := repo.FindByCode(ctx, " SHINMAI2026 ")
	require.NoError(t, err)
	assert.Equal(t, coupon.ID, got.ID)
	assert.Equal(t, 10, got.Amount)

	_, err = repo.FindByCode(ctx, "NOPE")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	_, err = repo.FindByCode(ctx, "   ")
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestUsable(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	limit := 5

	cases := []struct {
		name   string
		coupon *models.Coupon
		want   bool
	}{
		{"nil coupon", nil, false},
		{"inactive", &models.Coupon{IsActive: false}, false},
		{"active no window", &models.Coupon{IsActive: true}, true},
		{"not started", &models.Coupon{IsActive: true, ActiveFrom: &future}, false},
		{"expired", &models.Coupon{IsActive: true, ActiveUntil: &past}, false},
		{"in window", &models.Coupon{IsActive: true, ActiveFrom: &past, ActiveUntil: &future}, true},
		{"limit reached", &models.Coupon{IsActive: true, UsageLimit: &limit, UsageCount: 5}, false},
		{"under limit", &models.Coupon{IsActive: true, UsageLimit: &limit, UsageCount: 4}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Usable(tc.coupon, now))
		})
	}
}

func TestDiscountYen(t *testing.T) {
	t.Parallel()

	percent := &models.Coupon{DiscountType: enums.DiscountTypePercentage, Amount: 10}
	// 10% of 4555 floors to 455.
	assert.Equal(t, 455, DiscountYen(percent, 4555))

	fixed := &models.Coupon{DiscountType: enums.DiscountTypeFixed, Amount: 1000}
	assert.Equal(t, 1000, DiscountYen(fixed, 4500))
	// Fixed discounts clamp at the subtotal.
	assert.Equal(t, 300, DiscountYen(fixed, 300))

	assert.Equal(t, 0, DiscountYen(nil, 4500))
	assert.Equal(t, 0, DiscountYen(percent, 0))
}
