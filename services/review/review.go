// Package review stores product reviews and keeps the product rating cache
// in step with them.
package review

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/logging"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Repository interface {
	Create(ctx context.Context, rv *models.Review) error
	FindByID(ctx context.Context, id uint) (*models.Review, error)
	Save(ctx context.Context, rv *models.Review) error
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]models.Review, int64, error)
	Aggregate(ctx context.Context, productID string) (float64, int64, error)
}

type Products interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	UpdateRating(ctx context.Context, id string, rating float64, count int64) error
}

type CreateInput struct {
	ProductID  string `json:"productId" validate:"required,max=64"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	Title      string `json:"title" validate:"max=120"`
	Comment    string `json:"comment" validate:"max=2000"`
	AuthorName string `json:"authorName" validate:"max=80"`
}

type UpdateInput struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Title   *string `json:"title" validate:"omitempty,max=120"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

type Page struct {
	Reviews []models.Review `json:"reviews"`
	Total   int64           `json:"total"`
	Average float64         `json:"averageRating"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
	HasMore bool            `json:"hasMore"`
}

type Service struct {
	repo     Repository
	products Products
	now      func() time.Time
}

func NewService(repo Repository, products Products) *Service {
	return &Service{repo: repo, products: products, now: time.Now}
}

func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*models.Review, error) {
	if err := apperr.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := s.productExists(ctx, in.ProductID); err != nil {
		return nil, err
	}

	now := s.now()
	rv := &models.Review{
		ProductID:  in.ProductID,
		UserID:     userID,
		Rating:     in.Rating,
		Title:      strings.TrimSpace(in.Title),
		Comment:    strings.TrimSpace(in.Comment),
		AuthorName: strings.TrimSpace(in.AuthorName),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, rv); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.InvalidAction("you have already reviewed this product")
		}
		return nil, apperr.Database(err)
	}
	s.refreshRating(ctx, rv.ProductID)
	return rv, nil
}

// Update edits a review. Only its author may change it.
func (s *Service) Update(ctx context.Context, userID string, id uint, in UpdateInput) (*models.Review, error) {
	if err := apperr.ValidateStruct(in); err != nil {
		return nil, err
	}
	rv, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("review %d not found", id)
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	if rv.UserID != userID {
		return nil, apperr.Forbidden("you can only edit your own reviews")
	}

	if in.Rating != nil {
		rv.Rating = *in.Rating
	}
	if in.Title != nil {
		rv.Title = strings.TrimSpace(*in.Title)
	}
	if in.Comment != nil {
		rv.Comment = strings.TrimSpace(*in.Comment)
	}
	rv.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, rv); err != nil {
		return nil, apperr.Database(err)
	}
	s.refreshRating(ctx, rv.ProductID)
	return rv, nil
}

func (s *Service) List(ctx context.Context, productID string, limit, offset int) (*Page, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, apperr.Validation(map[string]string{"productId": "is required"})
	}
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	if offset < 0 {
		return nil, apperr.Validation(map[string]string{"offset": "must be zero or more"})
	}

	reviews, total, err := s.repo.ListByProduct(ctx, productID, limit, offset)
	if err != nil {
		return nil, apperr.Database(err)
	}
	avg, _, err := s.repo.Aggregate(ctx, productID)
	if err != nil {
		return nil, apperr.Database(err)
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return &Page{
		Reviews: reviews,
		Total:   total,
		Average: round2(avg),
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(reviews)) < total,
	}, nil
}

func (s *Service) productExists(ctx context.Context, id string) error {
	_, err := s.products.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.ProductNotFound(id)
	}
	if err != nil {
		return apperr.Database(err)
	}
	return nil
}

// refreshRating recomputes the cached rating. The review is already stored,
// so a failure here is only logged.
func (s *Service) refreshRating(ctx context.Context, productID string) {
	log := logging.FromCtx(ctx)
	avg, count, err := s.repo.Aggregate(ctx, productID)
	if err != nil {
		log.Warn("aggregate reviews", "product_id", productID, "err", err)
		return
	}
	if err := s.products.UpdateRating(ctx, productID, round2(avg), count); err != nil {
		log.Warn("update product rating", "product_id", productID, "err", err)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
