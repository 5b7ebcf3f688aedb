// Package catalog serves the product catalog and its admin upsert.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/pricing"
	"github.com/jwillz7667/dank-deals-delivery-sub001/repository"
)

const (
	DefaultPageSize = 24
	MaxPageSize     = 100
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, f models.ProductFilter) ([]models.Product, int64, error)
	Upsert(ctx context.Context, p *models.Product) error
}

type Page struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
	HasMore  bool             `json:"hasMore"`
}

var sorts = map[string]models.ProductSort{
	"":           models.SortName,
	"name":       models.SortName,
	"price_asc":  models.SortPriceAsc,
	"price_desc": models.SortPriceDesc,
	"rating":     models.SortRating,
	"newest":     models.SortNewest,
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List normalises the filter and returns one page of products.
func (s *Service) List(ctx context.Context, f models.ProductFilter) (*Page, error) {
	fields := map[string]string{}
	sort, ok := sorts[strings.ToLower(string(f.Sort))]
	if !ok {
		fields["sort"] = "must be one of name, price_asc, price_desc, rating, newest"
	}
	f.Sort = sort
	f.Category = strings.ToLower(strings.TrimSpace(f.Category))
	f.Search = strings.TrimSpace(f.Search)
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultPageSize
	case f.Limit > MaxPageSize:
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		fields["offset"] = "must be zero or more"
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		fields["minPrice"] = "must not exceed maxPrice"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	products, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, apperr.Database(err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return &Page{
		Products: products,
		Total:    total,
		Limit:    f.Limit,
		Offset:   f.Offset,
		HasMore:  int64(f.Offset+len(products)) < total,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ProductNotFound(id)
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	return p, nil
}

// Upsert creates or replaces a product. The review rating cache is never
// taken from the input.
func (s *Service) Upsert(ctx context.Context, id string, p models.Product) (*models.Product, error) {
	p.ID = strings.TrimSpace(id)
	p.Category = strings.ToLower(strings.TrimSpace(p.Category))
	fields := apperr.FieldErrors(p)
	if !pricing.ValidPrice(p.Price) {
		fields["price"] = "must be greater than zero with at most 2 decimal places"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	p.Rating, p.ReviewCount = 0, 0
	if err := s.repo.Upsert(ctx, &p); err != nil {
		return nil, apperr.Database(err)
	}
	return s.Get(ctx, p.ID)
}

// All pages through every product matching f, for exports.
func (s *Service) All(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	f.Limit, f.Offset = MaxPageSize, 0
	var out []models.Product
	for {
		page, err := s.List(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Products...)
		if !page.HasMore {
			return out, nil
		}
		f.Offset += len(page.Products)
	}
}
