package policy

import (
	"database/sql"
	"testing"
	"time"

	"github.com/agoraboard/agora/internal/apperr"
	"github.com/agoraboard/agora/internal/models"
)

func TestAssertNotSuspended(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		until    sql.NullTime
		wantCode apperr.Code
	}{
		{"never suspended", sql.NullTime{}, ""},
		{"suspension in the future", sql.NullTime{Time: now.Add(24 * time.Hour), Valid: true}, apperr.CodeSuspended},
		{"suspension just expired", sql.NullTime{Time: now.Add(-time.Second), Valid: true}, ""},
		{"suspension exactly now", sql.NullTime{Time: now, Valid: true}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &models.Profile{SuspendedUntil: tt.until}
			err := AssertNotSuspended(profile, now)
			checkCode(t, err, tt.wantCode)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	if err := RequireAdmin(Actor{UserID: "u1", IsAdmin: true}); err != nil {
		t.Errorf("admin actor should pass, got: %v", err)
	}

	err := RequireAdmin(Actor{UserID: "u1"})
	checkCode(t, err, apperr.CodeForbidden)
}

func TestAssertBoardWriteAccess(t *testing.T) {
	actions := []BoardWriteAction{ActionCreatePost, ActionCreateComment, ActionLikePost, ActionReport}

	// Full truth table over {public/private} x {admin/non-admin} x action
	// for a board with all feature flags enabled.
	for _, action := range actions {
		for _, isPublic := range []bool{true, false} {
			for _, isAdmin := range []bool{true, false} {
				board := &models.Board{IsPublic: isPublic, AllowPost: true, AllowComment: true}
				actor := Actor{UserID: "u1", IsAdmin: isAdmin}

				err := AssertBoardWriteAccess(board, actor, action)
				if !isPublic && !isAdmin {
					checkCode(t, err, apperr.CodeForbidden)
				} else if err != nil {
					t.Errorf("public=%v admin=%v action=%s: unexpected error %v", isPublic, isAdmin, action, err)
				}
			}
		}
	}
}

func TestAssertBoardWriteAccess_FeatureFlags(t *testing.T) {
	actor := Actor{UserID: "u1"}

	tests := []struct {
		name     string
		board    *models.Board
		action   BoardWriteAction
		wantCode apperr.Code
	}{
		{
			name:     "posting disabled blocks create_post",
			board:    &models.Board{IsPublic: true, AllowComment: true},
			action:   ActionCreatePost,
			wantCode: apperr.CodeForbidden,
		},
		{
			name:     "posting disabled does not block comments",
			board:    &models.Board{IsPublic: true, AllowComment: true},
			action:   ActionCreateComment,
			wantCode: "",
		},
		{
			name:     "comments disabled blocks create_comment",
			board:    &models.Board{IsPublic: true, AllowPost: true},
			action:   ActionCreateComment,
			wantCode: apperr.CodeForbidden,
		},
		{
			name:     "comments disabled does not block likes",
			board:    &models.Board{IsPublic: true, AllowPost: true},
			action:   ActionLikePost,
			wantCode: "",
		},
		{
			name:     "flags do not gate reports",
			board:    &models.Board{IsPublic: true},
			action:   ActionReport,
			wantCode: "",
		},
		{
			name: "deleted board is not found even for admins",
			board: &models.Board{
				IsPublic:  true,
				AllowPost: true,
				DeletedAt: sql.NullTime{Time: time.Now(), Valid: true},
			},
			action:   ActionCreatePost,
			wantCode: apperr.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AssertBoardWriteAccess(tt.board, actor, tt.action)
			checkCode(t, err, tt.wantCode)
		})
	}
}

func TestAssertBoardWriteAccess_DeletedBeatsPrivate(t *testing.T) {
	// A deleted private board must report NOT_FOUND, not FORBIDDEN,
	// so existence does not leak.
	board := &models.Board{
		IsPublic:  false,
		DeletedAt: sql.NullTime{Time: time.Now(), Valid: true},
	}
	err := AssertBoardWriteAccess(board, Actor{UserID: "u1"}, ActionCreatePost)
	checkCode(t, err, apperr.CodeNotFound)
}

func TestAssertBoardMutable(t *testing.T) {
	tests := []struct {
		name     string
		board    *models.Board
		actor    Actor
		wantCode apperr.Code
	}{
		{
			name:     "public board accepts owner writes",
			board:    &models.Board{IsPublic: true},
			actor:    Actor{UserID: "u1"},
			wantCode: "",
		},
		{
			name:     "private board rejects non-admin even as owner",
			board:    &models.Board{IsPublic: false},
			actor:    Actor{UserID: "u1"},
			wantCode: apperr.CodeForbidden,
		},
		{
			name:     "private board accepts admins",
			board:    &models.Board{IsPublic: false},
			actor:    Actor{UserID: "u2", IsAdmin: true},
			wantCode: "",
		},
		{
			name: "deleted board is not found even for admins",
			board: &models.Board{
				IsPublic:  true,
				DeletedAt: sql.NullTime{Time: time.Now(), Valid: true},
			},
			actor:    Actor{UserID: "u2", IsAdmin: true},
			wantCode: apperr.CodeNotFound,
		},
		{
			name: "deleted private board does not leak existence",
			board: &models.Board{
				IsPublic:  false,
				DeletedAt: sql.NullTime{Time: time.Now(), Valid: true},
			},
			actor:    Actor{UserID: "u1"},
			wantCode: apperr.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AssertBoardMutable(tt.board, tt.actor)
			checkCode(t, err, tt.wantCode)
		})
	}
}

func TestAssertOwnerOrAdmin(t *testing.T) {
	tests := []struct {
		name     string
		actor    Actor
		authorID string
		wantCode apperr.Code
	}{
		{"owner may act", Actor{UserID: "u1"}, "u1", ""},
		{"admin may act on others", Actor{UserID: "u2", IsAdmin: true}, "u1", ""},
		{"stranger may not", Actor{UserID: "u2"}, "u1", apperr.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AssertOwnerOrAdmin(tt.actor, tt.authorID)
			checkCode(t, err, tt.wantCode)
		})
	}
}

func checkCode(t *testing.T, err error, want apperr.Code) {
	t.Helper()
	if want == "" {
		if err != nil {
			t.Errorf("expected success, got: %v", err)
		}
		return
	}
	appErr, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected apperr with code %s, got: %v", want, err)
	}
	if appErr.Code != want {
		t.Errorf("expected code %s, got %s", want, appErr.Code)
	}
}
