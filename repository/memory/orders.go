package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/repository"
)

type Orders struct {
	mu     sync.Mutex
	orders []*models.Order
	nextID uint
	itemID uint
}

func NewOrders() *Orders {
	return &Orders{}
}

func (s *Orders) Create(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.OrderNumber == order.OrderNumber {
			return repository.ErrDuplicate
		}
	}
	s.nextID++
	order.ID = s.nextID
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}
	for i := range order.Items {
		s.itemID++
		order.Items[i].ID = s.itemID
		order.Items[i].OrderID = order.ID
	}
	s.orders = append(s.orders, copyOrder(order))
	return nil
}

func (s *Orders) FindByNumber(_ context.Context, number string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.OrderNumber == number {
			return copyOrder(o), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Orders) FindByID(_ context.Context, id uint) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o := s.byID(id); o != nil {
		return copyOrder(o), nil
	}
	return nil, repository.ErrNotFound
}

func (s *Orders) List(_ context.Context, f models.OrderFilter) ([]models.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Order
	for _, o := range s.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.StartDate != nil && o.CreatedAt.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && o.CreatedAt.After(*f.EndDate) {
			continue
		}
		matched = append(matched, o)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	start := min(max(f.Offset, 0), len(matched))
	end := len(matched)
	if f.Limit > 0 {
		end = min(start+f.Limit, end)
	}
	page := make([]models.Order, 0, end-start)
	for _, o := range matched[start:end] {
		page = append(page, *copyOrder(o))
	}
	return page, total, nil
}

func (s *Orders) UpdateStatusIf(_ context.Context, id uint, from, to models.OrderStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.byID(id)
	if o == nil || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = at
	if to == models.OrderStatusCancelled {
		t := at
		o.CancelledAt = &t
	}
	return true, nil
}

func (s *Orders) byID(id uint) *models.Order {
	for _, o := range s.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func copyOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = slices.Clone(o.Items)
	if o.CancelledAt != nil {
		t := *o.CancelledAt
		cp.CancelledAt = &t
	}
	return &cp
}
