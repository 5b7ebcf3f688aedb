package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, repository.Migrate(db))
	return db
}

func TestCartRepository(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewCartRepository(openTestDB(t))

	_, err := repo.FindByUser(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	cart, err := repo.Create(ctx, "u1")
	require.NoError(t, err)
	again, err := repo.Create(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, cart.CartID, again.CartID, "second create returns the existing cart")

	require.NoError(t, repo.SaveItem(ctx, &models.CartItem{CartID: cart.CartID, ProductID: "B", Name: "Gummies", Price: decimal.RequireFromString("5.50"), Quantity: 1}))
	require.NoError(t, repo.SaveItem(ctx, &models.CartItem{CartID: cart.CartID, ProductID: "A", Name: "Flower", Price: decimal.RequireFromString("10.00"), Quantity: 2}))

	cart, err = repo.FindByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, "B", cart.Items[0].ProductID, "items keep insertion order")
	assert.True(t, decimal.RequireFromString("10").Equal(cart.Items[1].Price))

	line := cart.Find("A")
	line.Quantity = 5
	require.NoError(t, repo.SaveItem(ctx, line))

	require.NoError(t, repo.DeleteItem(ctx, cart.CartID, "B"))
	require.NoError(t, repo.DeleteItem(ctx, cart.CartID, "B"))

	cart, err = repo.FindByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	require.NoError(t, repo.ClearItems(ctx, cart.CartID))
	cart, err = repo.FindByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func testOrder(number, user string, created time.Time) *models.Order {
	return &models.Order{
		OrderNumber: number,
		UserID:      user,
		Type:        models.OrderTypeOnline,
		Status:      models.OrderStatusPending,
		Items: []models.OrderItem{
			{ProductID: "A", Name: "Flower", Price: decimal.RequireFromString("10.00"), Quantity: 2},
		},
		Subtotal:    decimal.RequireFromString("20.00"),
		Tax:         decimal.RequireFromString("2.00"),
		DeliveryFee: decimal.RequireFromString("5.00"),
		Tip:         decimal.Zero,
		Total:       decimal.RequireFromString("27.00"),
		CreatedAt:   created,
	}
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewOrderRepository(openTestDB(t))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := testOrder("ORD-1", "u1", base)
	require.NoError(t, repo.Create(ctx, first))
	require.NotZero(t, first.ID)
	require.NoError(t, repo.Create(ctx, testOrder("ORD-2", "u1", base.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, testOrder("ORD-3", "u2", base.Add(2*time.Hour))))

	err := repo.Create(ctx, testOrder("ORD-1", "u3", base))
	require.Error(t, err, "order numbers are unique")

	got, err := repo.FindByNumber(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Flower", got.Items[0].Name)

	_, err = repo.FindByNumber(ctx, "ORD-404")
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	orders, total, err := repo.List(ctx, models.OrderFilter{UserID: "u1", Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, orders, 1)
	assert.Equal(t, "ORD-2", orders[0].OrderNumber, "newest first")

	ok, err := repo.UpdateStatusIf(ctx, first.ID, models.OrderStatusPending, models.OrderStatusCancelled, base.Add(3*time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateStatusIf(ctx, first.ID, models.OrderStatusPending, models.OrderStatusConfirmed, base.Add(4*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "guarded update must not apply from a stale status")

	got, err = repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	assert.NotNil(t, got.CancelledAt)

	orders, total, err = repo.List(ctx, models.OrderFilter{UserID: "u1", Status: models.OrderStatusCancelled})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, "ORD-1", orders[0].OrderNumber)
}

func TestReviewAggregateAndRating(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	products := repository.NewProductRepository(db)
	reviews := repository.NewReviewRepository(db)

	require.NoError(t, products.Upsert(ctx, &models.Product{ID: "p1", Name: "Blue Dream", Category: "flower", Price: decimal.RequireFromString("35.00"), InStock: true}))

	require.NoError(t, reviews.Create(ctx, &models.Review{ProductID: "p1", UserID: "u1", Rating: 5}))
	require.NoError(t, reviews.Create(ctx, &models.Review{ProductID: "p1", UserID: "u2", Rating: 4}))
	require.Error(t, reviews.Create(ctx, &models.Review{ProductID: "p1", UserID: "u1", Rating: 1}))

	avg, n, err := reviews.Aggregate(ctx, "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.InDelta(t, 4.5, avg, 0.0001)

	require.NoError(t, products.UpdateRating(ctx, "p1", avg, n))
	p, err := products.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.InDelta(t, 4.5, p.Rating, 0.0001)
	assert.EqualValues(t, 2, p.ReviewCount)

	avg, n, err = reviews.Aggregate(ctx, "none")
	require.NoError(t, err)
	assert.Zero(t, avg)
	assert.Zero(t, n)
}

func TestProductListFilters(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProductRepository(openTestDB(t))
	for _, p := range []models.Product{
		{ID: "p1", Name: "Blue Dream", Category: "flower", Price: decimal.RequireFromString("35.00"), InStock: true},
		{ID: "p2", Name: "Sour Gummies", Category: "edibles", Price: decimal.RequireFromString("18.00"), InStock: true},
		{ID: "p3", Name: "Midnight Vape", Category: "vapes", Price: decimal.RequireFromString("45.00"), InStock: false},
	} {
		p := p
		require.NoError(t, repo.Upsert(ctx, &p))
	}

	all, total, err := repo.List(ctx, models.ProductFilter{Sort: models.SortPriceAsc})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, all, 3)
	assert.Equal(t, "p2", all[0].ID)

	inStock := true
	got, total, err := repo.List(ctx, models.ProductFilter{InStock: &inStock, Search: "DREAM"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)
}
