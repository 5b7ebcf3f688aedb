// Package cart owns a user's single active cart. Totals are derived from the
// items on every read and are never persisted.
package cart

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/pricing"
	"github.com/jwillz7667/dank-deals-delivery-sub001/repository"
	"github.com/shopspring/decimal"
)

type Repository interface {
	FindByUser(ctx context.Context, userID string) (*models.Cart, error)
	Create(ctx context.Context, userID string) (*models.Cart, error)
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID uint, productID string) error
	ClearItems(ctx context.Context, cartID uint) error
	Touch(ctx context.Context, cartID uint, at time.Time) error
}

type ItemInput struct {
	ProductID string          `json:"productId" validate:"required,max=64"`
	Name      string          `json:"name" validate:"required,max=200"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl,omitempty" validate:"omitempty,max=500"`
	Quantity  int             `json:"quantity" validate:"gte=1,lte=99"`
}

// View is a cart with its derived totals.
type View struct {
	ID          uint              `json:"id,omitempty"`
	UserID      string            `json:"userId"`
	Items       []models.CartItem `json:"items"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	Tax         decimal.Decimal   `json:"tax"`
	DeliveryFee decimal.Decimal   `json:"deliveryFee"`
	Total       decimal.Decimal   `json:"total"`
	ItemCount   int               `json:"itemCount"`
	UpdatedAt   *time.Time        `json:"updatedAt,omitempty"`
}

type Service struct {
	repo Repository
	calc *pricing.Calculator
	now  func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, calc *pricing.Calculator, opts ...Option) *Service {
	s := &Service{repo: repo, calc: calc, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GetCart returns the user's cart, or an empty view when none exists. It
// never inserts a row.
func (s *Service) GetCart(ctx context.Context, userID string) (*View, error) {
	c, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return s.view(&models.Cart{UserID: userID}), nil
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	return s.view(c), nil
}

// Load returns the stored cart without deriving totals. A missing cart is
// returned as an empty unsaved cart.
func (s *Service) Load(ctx context.Context, userID string) (*models.Cart, error) {
	c, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.Cart{UserID: userID}, nil
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	return c, nil
}

// AddItem appends the item, or merges it into an existing line for the same
// product. A merged quantity above the maximum is clamped to it.
func (s *Service) AddItem(ctx context.Context, userID string, in ItemInput) (*View, error) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateItem(in); err != nil {
		return nil, err
	}

	c, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		c, err = s.repo.Create(ctx, userID)
	}
	if err != nil {
		return nil, apperr.Database(err)
	}

	now := s.now()
	if line := c.Find(in.ProductID); line != nil {
		line.Quantity = min(line.Quantity+in.Quantity, models.MaxItemQuantity)
		line.Name = in.Name
		line.Price = in.Price
		if in.ImageURL != "" {
			line.ImageURL = in.ImageURL
		}
		if err := s.repo.SaveItem(ctx, line); err != nil {
			return nil, apperr.Database(err)
		}
	} else {
		line := models.CartItem{
			CartID:    c.CartID,
			ProductID: in.ProductID,
			Name:      in.Name,
			Price:     in.Price,
			ImageURL:  in.ImageURL,
			Quantity:  in.Quantity,
			AddedAt:   now,
		}
		if err := s.repo.SaveItem(ctx, &line); err != nil {
			return nil, apperr.Database(err)
		}
	}
	return s.touchAndReload(ctx, c.CartID, userID, now)
}

// UpdateItemQuantity sets an absolute quantity. Zero removes the line.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (*View, error) {
	if quantity < 0 || quantity > models.MaxItemQuantity {
		return nil, apperr.Validation(map[string]string{"quantity": "must be between 0 and 99"})
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	c, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.ProductNotFound(productID)
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	line := c.Find(productID)
	if line == nil {
		return nil, apperr.ProductNotFound(productID)
	}
	line.Quantity = quantity
	if err := s.repo.SaveItem(ctx, line); err != nil {
		return nil, apperr.Database(err)
	}
	return s.touchAndReload(ctx, c.CartID, userID, s.now())
}

// RemoveItem deletes the line for productID. Removing an absent line is not
// an error.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*View, error) {
	c, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return s.view(&models.Cart{UserID: userID}), nil
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	if c.Find(productID) == nil {
		return s.view(c), nil
	}
	if err := s.repo.DeleteItem(ctx, c.CartID, productID); err != nil {
		return nil, apperr.Database(err)
	}
	return s.touchAndReload(ctx, c.CartID, userID, s.now())
}

// ClearCart removes every item and keeps the empty cart row.
func (s *Service) ClearCart(ctx context.Context, userID string) (*View, error) {
	c, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return s.view(&models.Cart{UserID: userID}), nil
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	if err := s.repo.ClearItems(ctx, c.CartID); err != nil {
		return nil, apperr.Database(err)
	}
	return s.touchAndReload(ctx, c.CartID, userID, s.now())
}

// Totals prices the cart with the given tip.
func (s *Service) Totals(c *models.Cart, tip decimal.Decimal) pricing.Totals {
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, pricing.Line{Price: it.Price, Quantity: it.Quantity})
	}
	return s.calc.Compute(lines, tip)
}

func (s *Service) touchAndReload(ctx context.Context, cartID uint, userID string, at time.Time) (*View, error) {
	if err := s.repo.Touch(ctx, cartID, at); err != nil {
		return nil, apperr.Database(err)
	}
	c, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Database(err)
	}
	return s.view(c), nil
}

func (s *Service) view(c *models.Cart) *View {
	t := s.Totals(c, decimal.Zero)
	v := &View{
		ID:          c.CartID,
		UserID:      c.UserID,
		Items:       c.Items,
		Subtotal:    t.Subtotal,
		Tax:         t.Tax,
		DeliveryFee: t.DeliveryFee,
		Total:       t.Total,
		ItemCount:   t.ItemCount,
	}
	if v.Items == nil {
		v.Items = []models.CartItem{}
	}
	if !c.UpdatedAt.IsZero() {
		at := c.UpdatedAt
		v.UpdatedAt = &at
	}
	return v
}

func validateItem(in ItemInput) error {
	fields := apperr.FieldErrors(in)
	if !pricing.ValidPrice(in.Price) {
		fields["price"] = "must be greater than 0 with at most 2 decimal places"
	}
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}
