// Package identity provides the credential store and session tokens.
// The rest of the system treats tokens as opaque bearer credentials
// behind the Verifier interface.
package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/agoraboard/agora/internal/apperr"
	"github.com/agoraboard/agora/internal/db"
	"github.com/agoraboard/agora/internal/models"
	"github.com/agoraboard/agora/pkg/config"
)

const tokenIssuer = "agora"

// Identity is a verified token subject
type Identity struct {
	UserID string
	Email  string
}

// Verifier maps an opaque bearer credential to an identity
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Session is an issued access token
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Service issues and verifies session tokens against the credential
// store
type Service struct {
	creds    *db.CredentialRepository
	profiles *db.ProfileRepository
	secret   []byte
	tokenTTL time.Duration
}

// NewService creates an identity service
func NewService(repo *db.Repository, cfg *config.AuthConfig) *Service {
	return &Service{
		creds:    repo.Credentials(),
		profiles: repo.Profiles(),
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: cfg.TokenTTL,
	}
}

// SignUp registers a credential and its profile, then issues a session
func (s *Service) SignUp(ctx context.Context, email, password, nickname string) (*models.Profile, *Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.creds.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, apperr.Validation("Email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	userID := uuid.NewString()

	cred := &models.Credential{
		UserID:       userID,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.creds.Create(ctx, cred); err != nil {
		// The unique email index is authoritative under concurrent signups
		if apperr.IsDuplicateKey(err) {
			return nil, nil, apperr.Validation("Email is already registered")
		}
		return nil, nil, err
	}

	profile := &models.Profile{
		ID:        userID,
		Email:     email,
		Nickname:  nickname,
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, nil, err
	}

	session, err := s.issue(userID, email)
	if err != nil {
		return nil, nil, err
	}
	return profile, session, nil
}

// SignIn verifies a credential and issues a session. Bad credentials
// surface as a 400 with a provider message, matching signup-flow
// behavior rather than the UNAUTHORIZED used for missing tokens.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.Profile, *Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	cred, err := s.creds.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if cred == nil {
		return nil, nil, apperr.Validation("Invalid login credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, nil, apperr.Validation("Invalid login credentials")
	}

	profile, err := s.profiles.GetByID(ctx, cred.UserID)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.issue(cred.UserID, cred.Email)
	if err != nil {
		return nil, nil, err
	}
	return profile, session, nil
}

// issue signs a session token for the user
func (s *Service) issue(userID, email string) (*Session, error) {
	expiresAt := time.Now().Add(s.tokenTTL)
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   expiresAt.Unix(),
		"iss":   tokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Session{AccessToken: signed, ExpiresAt: expiresAt}, nil
}

// Verify implements Verifier. Invalid or expired tokens return an
// error; the resolver treats any verification failure as anonymous.
func (s *Service) Verify(_ context.Context, tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	email, _ := claims["email"].(string)

	return &Identity{UserID: sub, Email: email}, nil
}
