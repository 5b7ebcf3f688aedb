// Package profile manages the per-user delivery profile, created lazily on
// first access.
package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/repository"
)

type Repository interface {
	FindByUser(ctx context.Context, userID string) (*models.UserProfile, error)
	Create(ctx context.Context, p *models.UserProfile) (*models.UserProfile, error)
	Save(ctx context.Context, p *models.UserProfile) error
}

// UpdateInput carries a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	Phone                  *string               `json:"phone" validate:"omitempty,min=7,max=20"`
	Address                *models.Address       `json:"address"`
	DeliveryInstructions   *string               `json:"deliveryInstructions" validate:"omitempty,max=500"`
	PreferredPaymentMethod *models.PaymentMethod `json:"preferredPaymentMethod" validate:"omitempty,oneof=card cash debit"`
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Get returns the user's profile, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	p, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		p, err = s.repo.Create(ctx, &models.UserProfile{
			UserID:             userID,
			VerificationStatus: models.VerificationUnverified,
		})
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, userID string, in UpdateInput) (*models.UserProfile, error) {
	if err := apperr.ValidateStruct(in); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Phone != nil {
		p.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		a := *in.Address
		a.State = strings.ToUpper(a.State)
		p.Address = a
	}
	if in.DeliveryInstructions != nil {
		p.DeliveryInstructions = strings.TrimSpace(*in.DeliveryInstructions)
	}
	if in.PreferredPaymentMethod != nil {
		p.PreferredPaymentMethod = *in.PreferredPaymentMethod
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, apperr.Database(err)
	}
	return p, nil
}

// EnsureEmail records the login email on the profile when it changed.
func (s *Service) EnsureEmail(ctx context.Context, userID, email string) (*models.UserProfile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || p.Email == email {
		return p, nil
	}
	p.Email = email
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, apperr.Database(err)
	}
	return p, nil
}

// SetVerification records the identity verification state. sessionID is
// kept when empty.
func (s *Service) SetVerification(ctx context.Context, userID string, status models.VerificationStatus, sessionID string) (*models.UserProfile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.VerificationStatus = status
	if sessionID != "" {
		p.VerificationSessionID = sessionID
	}
	if status == models.VerificationVerified {
		now := s.now()
		p.VerifiedAt = &now
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, apperr.Database(err)
	}
	return p, nil
}
