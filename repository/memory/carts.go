// Package memory implements the repository interfaces on process-local maps.
// It backs `database.driver: memory` for local runs and the service tests,
// and mirrors the unique constraints of the gorm schema.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/repository"
)

type Carts struct {
	mu     sync.Mutex
	byUser map[string]*models.Cart
	nextID uint
	itemID uint
}

func NewCarts() *Carts {
	return &Carts{byUser: make(map[string]*models.Cart)}
}

func (s *Carts) FindByUser(_ context.Context, userID string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byUser[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyCart(c), nil
}

func (s *Carts) Create(_ context.Context, userID string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.byUser[userID]; ok {
		return copyCart(c), nil
	}
	s.nextID++
	now := time.Now()
	c := &models.Cart{CartID: s.nextID, UserID: userID, CreatedAt: now, UpdatedAt: now}
	s.byUser[userID] = c
	return copyCart(c), nil
}

func (s *Carts) SaveItem(_ context.Context, item *models.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.byCartID(item.CartID)
	if c == nil {
		return repository.ErrNotFound
	}
	for i := range c.Items {
		existing := &c.Items[i]
		if item.ID != 0 && existing.ID == item.ID {
			*existing = *item
			return nil
		}
		if existing.ProductID == item.ProductID {
			return repository.ErrDuplicate
		}
	}
	s.itemID++
	item.ID = s.itemID
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now()
	}
	c.Items = append(c.Items, *item)
	return nil
}

func (s *Carts) DeleteItem(_ context.Context, cartID uint, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.byCartID(cartID); c != nil {
		c.Items = slices.DeleteFunc(c.Items, func(it models.CartItem) bool {
			return it.ProductID == productID
		})
	}
	return nil
}

func (s *Carts) ClearItems(_ context.Context, cartID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.byCartID(cartID); c != nil {
		c.Items = nil
	}
	return nil
}

func (s *Carts) Touch(_ context.Context, cartID uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.byCartID(cartID); c != nil {
		c.UpdatedAt = at
	}
	return nil
}

func (s *Carts) byCartID(id uint) *models.Cart {
	for _, c := range s.byUser {
		if c.CartID == id {
			return c
		}
	}
	return nil
}

func copyCart(c *models.Cart) *models.Cart {
	cp := *c
	cp.Items = slices.Clone(c.Items)
	return &cp
}
