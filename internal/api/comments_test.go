package api

import (
	"database/sql"
	"testing"
	"time"

	"github.com/agoraboard/agora/internal/apperr"
	"github.com/agoraboard/agora/internal/auth"
	"github.com/agoraboard/agora/internal/models"
)

func deletedTime() sql.NullTime {
	return sql.NullTime{Time: time.Now().UTC(), Valid: true}
}

func TestCommentWriteAccess(t *testing.T) {
	owner := &auth.Actor{UserID: "u-owner"}
	other := &auth.Actor{UserID: "u-other"}
	admin := &auth.Actor{UserID: "u-admin", IsAdmin: true}

	comment := &models.Comment{ID: "c-1", PostID: "p-1", AuthorID: "u-owner"}
	post := &models.Post{ID: "p-1", BoardID: "b-1", Status: models.PostStatusPublished}
	publicBoard := &models.Board{ID: "b-1", IsPublic: true}
	privateBoard := &models.Board{ID: "b-1", IsPublic: false}
	deletedBoard := &models.Board{ID: "b-1", IsPublic: true, DeletedAt: deletedTime()}

	tests := []struct {
		name     string
		actor    *auth.Actor
		comment  *models.Comment
		post     *models.Post
		board    *models.Board
		wantCode apperr.Code
	}{
		{"owner on public board", owner, comment, post, publicBoard, ""},
		{"admin on public board", admin, comment, post, publicBoard, ""},
		{"non-owner rejected", other, comment, post, publicBoard, apperr.CodeForbidden},
		{"missing comment", owner, nil, post, publicBoard, apperr.CodeNotFound},
		{"deleted post hides comment", owner, comment, nil, publicBoard, apperr.CodeNotFound},
		{"deleted board hides comment", owner, comment, post, nil, apperr.CodeNotFound},
		{"soft-deleted board hides comment", owner, comment, post, deletedBoard, apperr.CodeNotFound},
		{"private board rejects owner", owner, comment, post, privateBoard, apperr.CodeForbidden},
		{"private board allows admin", admin, comment, post, privateBoard, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := commentWriteAccess(tt.actor, tt.comment, tt.post, tt.board)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			appErr, ok := apperr.As(err)
			if !ok {
				t.Fatalf("expected taxonomy error, got %v", err)
			}
			if appErr.Code != tt.wantCode {
				t.Fatalf("code = %s, want %s", appErr.Code, tt.wantCode)
			}
		})
	}
}
