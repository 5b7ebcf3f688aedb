package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/jwillz7667/dank-deals-delivery-sub001/payments"
)

const birthDateLayout = "2006-01-02"

type IdentityInput struct {
	BirthDate string `json:"birthDate" validate:"required"`
}

type IdentityResult struct {
	SessionID    string `json:"sessionId"`
	ClientSecret string `json:"clientSecret"`
	URL          string `json:"url,omitempty"`
}

// AgeOn returns the number of whole years between birth and now, counting a
// year only once its month and day have been reached.
func AgeOn(birth, now time.Time) int {
	y, m, d := now.Date()
	by, bm, bd := birth.Date()
	age := y - by
	if m < bm || (m == bm && d < bd) {
		age--
	}
	return age
}

// VerifyIdentity checks the minimum age locally, then opens a provider
// verification session. Under-age users never reach the provider.
func (s *Service) VerifyIdentity(ctx context.Context, userID string, in IdentityInput) (*IdentityResult, error) {
	if err := apperr.ValidateStruct(in); err != nil {
		return nil, err
	}
	now := s.now()
	birth, err := time.ParseInLocation(birthDateLayout, strings.TrimSpace(in.BirthDate), now.Location())
	if err != nil {
		return nil, apperr.Validation(map[string]string{"birthDate": "must be a date in YYYY-MM-DD format"})
	}
	if birth.After(now) {
		return nil, apperr.Validation(map[string]string{"birthDate": "must not be in the future"})
	}
	if AgeOn(birth, now) < s.cfg.MinimumAge {
		return nil, apperr.Validation(map[string]string{
			"birthDate": fmt.Sprintf("you must be at least %d years old", s.cfg.MinimumAge),
		})
	}

	vs, err := s.provider.CreateVerificationSession(ctx, payments.VerificationParams{
		UserID:         userID,
		ReturnURL:      s.cfg.IdentityReturnURL,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return nil, apperr.Upstream("identity provider", err)
	}
	if _, err := s.profiles.SetVerification(ctx, userID, models.VerificationPending, vs.ID); err != nil {
		return nil, err
	}
	return &IdentityResult{SessionID: vs.ID, ClientSecret: vs.ClientSecret, URL: vs.URL}, nil
}
