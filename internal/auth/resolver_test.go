package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/agoraboard/agora/internal/identity"
	"github.com/agoraboard/agora/internal/models"
	"github.com/agoraboard/agora/pkg/logging"
	"go.uber.org/zap"
)

type fakeVerifier struct {
	identity *identity.Identity
	err      error
}

func (f *fakeVerifier) Verify(_ context.Context, _ string) (*identity.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
	created  int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: map[string]*models.Profile{}}
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) Create(_ context.Context, profile *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[profile.ID]; ok {
		return errors.New("duplicate key")
	}
	cp := *profile
	f.profiles[profile.ID] = &cp
	f.created++
	return nil
}

func (f *fakeProfiles) SetRole(_ context.Context, id, role string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, nil
	}
	p.Role = role
	cp := *p
	return &cp, nil
}

type fakeSettings struct {
	mu     sync.Mutex
	claims map[string]string
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{claims: map[string]string{}}
}

func (f *fakeSettings) Claim(_ context.Context, key, value string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.claims[key]; ok {
		return false, nil
	}
	f.claims[key] = value
	return true, nil
}

func newTestResolver(verifier identity.Verifier, profiles *fakeProfiles, settings *fakeSettings, bootstrapEmail string) *Resolver {
	return &Resolver{
		verifier:       verifier,
		profiles:       profiles,
		settings:       settings,
		bootstrapEmail: bootstrapEmail,
		logger:         logging.GetLogger().With(zap.String("component", "auth")),
	}
}

func TestResolveAnonymous(t *testing.T) {
	r := newTestResolver(&fakeVerifier{err: errors.New("bad token")}, newFakeProfiles(), newFakeSettings(), "")

	tests := []struct {
		name   string
		header string
	}{
		{"empty", ""},
		{"no bearer prefix", "Token abc"},
		{"bare bearer", "Bearer "},
		{"rejected token", "Bearer garbage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor, err := r.Resolve(context.Background(), tt.header)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if actor != nil {
				t.Fatalf("expected anonymous actor, got %+v", actor)
			}
		})
	}
}

func TestResolveExistingProfile(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.profiles["u-1"] = &models.Profile{ID: "u-1", Email: "a@b.com", Nickname: "alice", Role: models.RoleUser}

	verifier := &fakeVerifier{identity: &identity.Identity{UserID: "u-1", Email: "a@b.com"}}
	r := newTestResolver(verifier, profiles, newFakeSettings(), "")

	actor, err := r.Resolve(context.Background(), "Bearer ok")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if actor == nil || actor.UserID != "u-1" {
		t.Fatalf("expected actor u-1, got %+v", actor)
	}
	if actor.IsAdmin {
		t.Error("expected non-admin actor")
	}
	if profiles.created != 0 {
		t.Errorf("expected no provisioning, got %d creates", profiles.created)
	}
}

func TestResolveProvisionsProfile(t *testing.T) {
	profiles := newFakeProfiles()
	verifier := &fakeVerifier{identity: &identity.Identity{UserID: "123e4567-e89b-42d3-a456-426614174000", Email: ""}}
	r := newTestResolver(verifier, profiles, newFakeSettings(), "")

	actor, err := r.Resolve(context.Background(), "Bearer ok")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if actor == nil {
		t.Fatal("expected actor")
	}
	if got, want := actor.Profile.Nickname, "user_123e4567"; got != want {
		t.Errorf("nickname = %q, want %q", got, want)
	}
	if got, want := actor.Profile.Email, "user_123e4567@local.invalid"; got != want {
		t.Errorf("email = %q, want %q", got, want)
	}
	if profiles.created != 1 {
		t.Errorf("expected 1 create, got %d", profiles.created)
	}
}

func TestBootstrapAdminClaimedOnce(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.profiles["u-1"] = &models.Profile{ID: "u-1", Email: "admin@example.com", Role: models.RoleUser}
	profiles.profiles["u-2"] = &models.Profile{ID: "u-2", Email: "admin@example.com", Role: models.RoleUser}
	settings := newFakeSettings()

	r1 := newTestResolver(&fakeVerifier{identity: &identity.Identity{UserID: "u-1", Email: "admin@example.com"}}, profiles, settings, "admin@example.com")
	actor, err := r1.Resolve(context.Background(), "Bearer ok")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !actor.IsAdmin {
		t.Fatal("expected first matching user to become admin")
	}

	// A second account with the same email must not gain admin
	r2 := newTestResolver(&fakeVerifier{identity: &identity.Identity{UserID: "u-2", Email: "admin@example.com"}}, profiles, settings, "admin@example.com")
	actor2, err := r2.Resolve(context.Background(), "Bearer ok")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if actor2.IsAdmin {
		t.Fatal("expected bootstrap claim to be one-shot")
	}

	// The claimant keeps admin on later requests without re-claiming
	actor, err = r1.Resolve(context.Background(), "Bearer ok")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !actor.IsAdmin {
		t.Fatal("expected claimant to stay admin")
	}
}

func TestBootstrapEmailCaseInsensitive(t *testing.T) {
	profiles := newFakeProfiles()
	profiles.profiles["u-1"] = &models.Profile{ID: "u-1", Email: "Admin@Example.COM", Role: models.RoleUser}

	r := newTestResolver(&fakeVerifier{identity: &identity.Identity{UserID: "u-1", Email: "Admin@Example.COM"}}, profiles, newFakeSettings(), "admin@example.com")
	actor, err := r.Resolve(context.Background(), "Bearer ok")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !actor.IsAdmin {
		t.Fatal("expected case-insensitive bootstrap match")
	}
}

func TestRequireActor(t *testing.T) {
	if _, err := RequireActor(nil); err == nil {
		t.Fatal("expected UNAUTHORIZED for nil actor")
	}
	a := &Actor{UserID: "u-1"}
	got, err := RequireActor(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != a {
		t.Fatal("expected same actor back")
	}
}

func TestFallbackNickname(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123e4567-e89b-42d3-a456-426614174000", "user_123e4567"},
		{"abc", "user_abc"},
		{"", "user_"},
	}
	for _, tt := range tests {
		if got := FallbackNickname(tt.in); got != tt.want {
			t.Errorf("FallbackNickname(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
