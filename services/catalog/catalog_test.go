package catalog_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/repository/memory"
	"github.com/jwillz7667/dank-deals-delivery-sub001/services/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seeded() *catalog.Service {
	return catalog.NewService(memory.NewProducts(
		models.Product{ID: "p1", Name: "Blue Dream", Category: "flower", Price: price("35.00"), InStock: true},
		models.Product{ID: "p2", Name: "Sour Gummies", Category: "edibles", Brand: "Kiva", Price: price("18.00"), InStock: true},
		models.Product{ID: "p3", Name: "Live Resin Cart", Category: "vapes", Price: price("45.00")},
	))
}

func TestList(t *testing.T) {
	svc := seeded()
	ctx := context.Background()

	page, err := svc.List(ctx, models.ProductFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, catalog.DefaultPageSize, page.Limit)
	assert.Equal(t, "Blue Dream", page.Products[0].Name, "sorted by name by default")

	page, err = svc.List(ctx, models.ProductFilter{Category: " Flower "})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "p1", page.Products[0].ID)

	page, err = svc.List(ctx, models.ProductFilter{Search: "kiva"})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "p2", page.Products[0].ID)

	page, err = svc.List(ctx, models.ProductFilter{Sort: "price_desc", Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "p3", page.Products[0].ID)
	assert.True(t, page.HasMore)
}

func TestListValidation(t *testing.T) {
	svc := seeded()
	lo, hi := price("50"), price("10")

	_, err := svc.List(context.Background(), models.ProductFilter{Sort: "cheapest", Offset: -1, MinPrice: &lo, MaxPrice: &hi})
	require.True(t, apperr.HasCode(err, apperr.CodeValidation))
	e, _ := apperr.As(err)
	assert.Len(t, e.Details, 3)
}

func TestGet(t *testing.T) {
	svc := seeded()

	p, err := svc.Get(context.Background(), "p2")
	require.NoError(t, err)
	assert.Equal(t, "Kiva", p.Brand)

	_, err = svc.Get(context.Background(), "nope")
	assert.True(t, apperr.HasCode(err, apperr.CodeProductNotFound))
}

func TestUpsert(t *testing.T) {
	repo := memory.NewProducts()
	svc := catalog.NewService(repo)
	ctx := context.Background()

	p, err := svc.Upsert(ctx, "p9", models.Product{Name: "Pre-roll", Category: "Flower", Price: price("12.00"), Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, "flower", p.Category)
	assert.Zero(t, p.Rating, "the rating cache is not writable")

	require.NoError(t, repo.UpdateRating(ctx, "p9", 4.5, 2))
	p, err = svc.Upsert(ctx, "p9", models.Product{Name: "Pre-roll 2pk", Category: "flower", Price: price("20.00")})
	require.NoError(t, err)
	assert.Equal(t, "Pre-roll 2pk", p.Name)
	assert.Equal(t, 4.5, p.Rating, "an update keeps the cached rating")

	_, err = svc.Upsert(ctx, "p10", models.Product{Name: "Bad", Category: "flower", Price: price("1.999"), Strain: "ruderalis"})
	require.True(t, apperr.HasCode(err, apperr.CodeValidation))
	e, _ := apperr.As(err)
	assert.Contains(t, e.Details, "price")
	assert.Contains(t, e.Details, "strain")
}

func TestAllPagesThrough(t *testing.T) {
	var ps []models.Product
	for i := 0; i < catalog.MaxPageSize+5; i++ {
		ps = append(ps, models.Product{ID: fmt.Sprintf("p%03d", i), Name: fmt.Sprintf("Item %03d", i), Category: "flower", Price: price("10.00")})
	}
	svc := catalog.NewService(memory.NewProducts(ps...))

	all, err := svc.All(context.Background(), models.ProductFilter{Category: "flower"})
	require.NoError(t, err)
	assert.Len(t, all, catalog.MaxPageSize+5)
	assert.Equal(t, "p000", all[0].ID)
}
