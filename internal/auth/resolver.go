// Package auth resolves bearer credentials into request actors.
package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agoraboard/agora/internal/apperr"
	"github.com/agoraboard/agora/internal/db"
	"github.com/agoraboard/agora/internal/identity"
	"github.com/agoraboard/agora/internal/models"
	"github.com/agoraboard/agora/pkg/logging"
)

// Actor is a resolved, authenticated request principal
type Actor struct {
	UserID  string
	Profile *models.Profile
	IsAdmin bool
}

// profileStore is the slice of the profile repository the resolver needs
type profileStore interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	SetRole(ctx context.Context, id, role string) (*models.Profile, error)
}

// settingStore claims deployment-wide one-shot flags
type settingStore interface {
	Claim(ctx context.Context, key, value string) (bool, error)
}

// Resolver turns Authorization headers into actors, provisioning
// profiles for first-time users and claiming the bootstrap admin seat
type Resolver struct {
	verifier       identity.Verifier
	profiles       profileStore
	settings       settingStore
	bootstrapEmail string
	logger         *zap.Logger
}

// NewResolver creates an actor resolver
func NewResolver(verifier identity.Verifier, repo *db.Repository, bootstrapEmail string) *Resolver {
	return &Resolver{
		verifier:       verifier,
		profiles:       repo.Profiles(),
		settings:       repo.Settings(),
		bootstrapEmail: strings.ToLower(strings.TrimSpace(bootstrapEmail)),
		logger:         logging.GetLogger().With(zap.String("component", "auth")),
	}
}

// Resolve maps an Authorization header to an actor. A missing,
// malformed, or unverifiable credential resolves to an anonymous
// actor (nil), never an error; handlers that require authentication
// call RequireActor.
func (r *Resolver) Resolve(ctx context.Context, authorization string) (*Actor, error) {
	token := bearerToken(authorization)
	if token == "" {
		return nil, nil
	}

	id, err := r.verifier.Verify(ctx, token)
	if err != nil {
		r.logger.Debug("rejected bearer token", zap.Error(err))
		return nil, nil
	}

	profile, err := r.profiles.GetByID(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile, err = r.provision(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	if err := r.maybeBootstrapAdmin(ctx, profile, id.Email); err != nil {
		return nil, err
	}

	return &Actor{
		UserID:  profile.ID,
		Profile: profile,
		IsAdmin: profile.IsAdmin(),
	}, nil
}

// RequireActor rejects anonymous requests
func RequireActor(actor *Actor) (*Actor, error) {
	if actor == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return actor, nil
}

// provision creates a profile for a verified identity that has none.
// Concurrent first requests race on the primary key; the loser
// re-reads the winner's row.
func (r *Resolver) provision(ctx context.Context, id *identity.Identity) (*models.Profile, error) {
	now := time.Now().UTC()
	profile := &models.Profile{
		ID:        id.UserID,
		Email:     id.Email,
		Nickname:  FallbackNickname(id.UserID),
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if profile.Email == "" {
		profile.Email = profile.Nickname + "@local.invalid"
	}

	if err := r.profiles.Create(ctx, profile); err != nil {
		if apperr.IsDuplicateKey(err) {
			return r.profiles.GetByID(ctx, id.UserID)
		}
		return nil, err
	}

	r.logger.Info("provisioned profile",
		zap.String("user_id", profile.ID),
		zap.String("nickname", profile.Nickname))
	return profile, nil
}

// maybeBootstrapAdmin promotes the configured bootstrap email to
// admin exactly once across the deployment. The settings row is the
// claim; only the claimant performs the promotion.
func (r *Resolver) maybeBootstrapAdmin(ctx context.Context, profile *models.Profile, email string) error {
	if r.bootstrapEmail == "" || profile.IsAdmin() {
		return nil
	}
	if !strings.EqualFold(email, r.bootstrapEmail) {
		return nil
	}

	// The value column is jsonb; store the claimant id as a JSON string
	claimed, err := r.settings.Claim(ctx, models.SettingBootstrapAdmin, strconv.Quote(profile.ID))
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	updated, err := r.profiles.SetRole(ctx, profile.ID, models.RoleAdmin)
	if err != nil {
		return err
	}
	*profile = *updated

	r.logger.Info("bootstrap admin assigned", zap.String("user_id", profile.ID))
	return nil
}

// FallbackNickname derives a stable display name from a user id
func FallbackNickname(userID string) string {
	compact := strings.ReplaceAll(userID, "-", "")
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return fmt.Sprintf("user_%s", compact)
}

func bearerToken(authorization string) string {
	const prefix = "Bearer "
	if len(authorization) <= len(prefix) || !strings.EqualFold(authorization[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(authorization[len(prefix):])
}
