package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go"
	fbauth "firebase.google.com/go/auth"
	"google.golang.org/api/option"
)

// Identity is a verified Google sign-in.
type Identity struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

type FirebaseConfig struct {
	ProjectID       string `koanf:"project_id"`
	CredentialsJSON string `koanf:"credentials_json"`
}

type tokenVerifier interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier checks Firebase ID tokens, including revocation.
type FirebaseVerifier struct {
	client    tokenVerifier
	projectID string
}

func NewFirebaseVerifier(ctx context.Context, cfg FirebaseConfig) (*FirebaseVerifier, error) {
	if cfg.ProjectID == "" || cfg.CredentialsJSON == "" {
		return nil, errors.New("firebase: project_id and credentials_json must be set")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID},
		option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &FirebaseVerifier{client: client, projectID: cfg.ProjectID}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	tok, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return nil, err
	}
	if tok.Audience != v.projectID {
		return nil, fmt.Errorf("token audience %q does not match project", tok.Audience)
	}
	email, _ := tok.Claims["email"].(string)
	if strings.TrimSpace(email) == "" {
		return nil, errors.New("token has no email claim")
	}
	name, _ := tok.Claims["name"].(string)
	picture, _ := tok.Claims["picture"].(string)
	return &Identity{UID: tok.UID, Email: email, Name: name, Picture: picture}, nil
}

type disabledVerifier struct{ err error }

// DisabledVerifier rejects every token with err. It stands in when Firebase
// is not configured so the rest of the API can still run.
func DisabledVerifier(err error) IdentityVerifier { return disabledVerifier{err: err} }

func (d disabledVerifier) Verify(context.Context, string) (*Identity, error) { return nil, d.err }
