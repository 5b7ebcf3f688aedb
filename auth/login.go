package auth

import (
	"context"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/logging"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
)

type Profiles interface {
	EnsureEmail(ctx context.Context, userID, email string) (*models.UserProfile, error)
}

type LoginInput struct {
	IDToken string `json:"idToken" validate:"required"`
}

type LoginResult struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expiresAt"`
	Profile   *models.UserProfile `json:"profile"`
}

// Login exchanges a Google sign-in for a session token.
type Login struct {
	verifier IdentityVerifier
	sessions *Sessions
	profiles Profiles
	admins   map[string]bool
}

// NewLogin builds the login flow. Emails in admins get the admin role.
func NewLogin(verifier IdentityVerifier, sessions *Sessions, profiles Profiles, admins ...string) *Login {
	l := &Login{verifier: verifier, sessions: sessions, profiles: profiles, admins: make(map[string]bool)}
	for _, a := range admins {
		l.admins[normalizeEmail(a)] = true
	}
	return l
}

func (l *Login) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := apperr.ValidateStruct(in); err != nil {
		return nil, err
	}
	id, err := l.verifier.Verify(ctx, in.IDToken)
	if err != nil {
		logging.FromCtx(ctx).Warn("id token rejected", "err", err)
		return nil, apperr.Unauthorized("invalid or revoked ID token")
	}

	profile, err := l.profiles.EnsureEmail(ctx, id.UID, id.Email)
	if err != nil {
		return nil, err
	}
	role := RoleUser
	if l.admins[normalizeEmail(id.Email)] {
		role = RoleAdmin
	}
	token, exp, err := l.sessions.Issue(id.UID, profile.Email, role)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &LoginResult{Token: token, ExpiresAt: exp, Profile: profile}, nil
}
