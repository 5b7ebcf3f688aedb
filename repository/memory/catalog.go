package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/repository"
)

type Products struct {
	mu   sync.Mutex
	byID map[string]*models.Product
}

func NewProducts(seed ...models.Product) *Products {
	s := &Products{byID: make(map[string]*models.Product)}
	for i := range seed {
		p := seed[i]
		s.byID[p.ID] = &p
	}
	return s
}

func (s *Products) FindByID(_ context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Products) List(_ context.Context, f models.ProductFilter) ([]models.Product, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	var matched []models.Product
	for _, p := range s.byID {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Brand), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		if f.InStock != nil && p.InStock != *f.InStock {
			continue
		}
		matched = append(matched, *p)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch f.Sort {
		case models.SortPriceAsc:
			if !a.Price.Equal(b.Price) {
				return a.Price.LessThan(b.Price)
			}
		case models.SortPriceDesc:
			if !a.Price.Equal(b.Price) {
				return a.Price.GreaterThan(b.Price)
			}
		case models.SortRating:
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
			if a.ReviewCount != b.ReviewCount {
				return a.ReviewCount > b.ReviewCount
			}
		case models.SortNewest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		default:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		}
		return a.ID < b.ID
	})

	total := int64(len(matched))
	start := min(max(f.Offset, 0), len(matched))
	end := len(matched)
	if f.Limit > 0 {
		end = min(start+f.Limit, end)
	}
	return matched[start:end], total, nil
}

func (s *Products) Upsert(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if existing, ok := s.byID[p.ID]; ok {
		p.Rating = existing.Rating
		p.ReviewCount = existing.ReviewCount
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	s.byID[p.ID] = &cp
	return nil
}

func (s *Products) UpdateRating(_ context.Context, id string, rating float64, count int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.byID[id]; ok {
		p.Rating = rating
		p.ReviewCount = count
	}
	return nil
}

type Reviews struct {
	mu      sync.Mutex
	reviews []models.Review
	nextID  uint
}

func NewReviews() *Reviews {
	return &Reviews{}
}

func (s *Reviews) Create(_ context.Context, rv *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.reviews {
		if existing.ProductID == rv.ProductID && existing.UserID == rv.UserID {
			return repository.ErrDuplicate
		}
	}
	s.nextID++
	rv.ID = s.nextID
	now := time.Now()
	rv.CreatedAt, rv.UpdatedAt = now, now
	s.reviews = append(s.reviews, *rv)
	return nil
}

func (s *Reviews) FindByID(_ context.Context, id uint) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rv := range s.reviews {
		if rv.ID == id {
			cp := rv
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Reviews) Save(_ context.Context, rv *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reviews {
		if s.reviews[i].ID == rv.ID {
			rv.UpdatedAt = time.Now()
			s.reviews[i] = *rv
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *Reviews) ListByProduct(_ context.Context, productID string, limit, offset int) ([]models.Review, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Review
	for _, rv := range s.reviews {
		if rv.ProductID == productID {
			matched = append(matched, rv)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	total := int64(len(matched))
	start := min(max(offset, 0), len(matched))
	end := len(matched)
	if limit > 0 {
		end = min(start+limit, end)
	}
	return matched[start:end], total, nil
}

func (s *Reviews) Aggregate(_ context.Context, productID string) (float64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum, n int64
	for _, rv := range s.reviews {
		if rv.ProductID == productID {
			sum += int64(rv.Rating)
			n++
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(n), n, nil
}
