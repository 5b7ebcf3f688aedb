package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/repository"
)

type Profiles struct {
	mu     sync.Mutex
	byUser map[string]*models.UserProfile
	nextID uint
}

func NewProfiles() *Profiles {
	return &Profiles{byUser: make(map[string]*models.UserProfile)}
}

func (s *Profiles) FindByUser(_ context.Context, userID string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byUser[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyProfile(p), nil
}

func (s *Profiles) Create(_ context.Context, p *models.UserProfile) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byUser[p.UserID]; ok {
		return copyProfile(existing), nil
	}
	s.nextID++
	p.ID = s.nextID
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.byUser[p.UserID] = copyProfile(p)
	return copyProfile(p), nil
}

func (s *Profiles) Save(_ context.Context, p *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		if _, ok := s.byUser[p.UserID]; ok {
			return repository.ErrDuplicate
		}
		s.nextID++
		p.ID = s.nextID
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	s.byUser[p.UserID] = copyProfile(p)
	return nil
}

func copyProfile(p *models.UserProfile) *models.UserProfile {
	cp := *p
	if p.VerifiedAt != nil {
		t := *p.VerifiedAt
		cp.VerifiedAt = &t
	}
	return &cp
}
