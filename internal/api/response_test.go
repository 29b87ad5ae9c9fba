package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/agoraboard/agora/internal/apperr"
	"github.com/agoraboard/agora/internal/db"
	"github.com/agoraboard/agora/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope JSON: %v", err)
	}
	return env
}

func TestFailMapsTaxonomyError(t *testing.T) {
	c, rec := testContext(t)

	Fail(c, apperr.NotFound("Board not found"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.OK {
		t.Error("expected ok=false")
	}
	if env.Error == nil || env.Error.Code != "NOT_FOUND" || env.Error.Message != "Board not found" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestFailKeepsInternalErrorsOpaque(t *testing.T) {
	c, rec := testContext(t)

	Fail(c, apperr.FromStore(errors.New("boom"), ""))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Message != "Internal server error" {
		t.Errorf("internal errors must stay opaque, got %+v", env.Error)
	}
}

func TestOKAndCreated(t *testing.T) {
	c, rec := testContext(t)
	OK(c, gin.H{"liked": true})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); !env.OK {
		t.Error("expected ok=true")
	}

	c, rec = testContext(t)
	Created(c, gin.H{"id": "p-1"})
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"single hop", "203.0.113.9", "203.0.113.9"},
		{"multiple hops", "203.0.113.9, 10.0.0.1, 10.0.0.2", "203.0.113.9"},
		{"padded", "  203.0.113.9  ", "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := testContext(t)
			c.Request.Header.Set("X-Forwarded-For", tt.header)
			if got := clientIP(c); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeSearch(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "alice", "alice"},
		{"strips quotes and parens", `ali(ce)'"` + "`;", "alice"},
		{"collapses spaces", "a   b\t c", "a b c"},
		{"escapes wildcards", "50%_off", `50\%\_off`},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeSearch(tt.in); got != tt.want {
				t.Errorf("sanitizeSearch(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	if got := sanitizeSearch(string(long)); len(got) != 100 {
		t.Errorf("long query not capped: len = %d", len(got))
	}
}

func TestBuildCommentTree(t *testing.T) {
	root1 := &db.CommentRow{Comment: models.Comment{ID: "c-1"}}
	root2 := &db.CommentRow{Comment: models.Comment{ID: "c-2"}}
	reply := &db.CommentRow{Comment: models.Comment{
		ID:       "c-3",
		ParentID: sql.NullString{String: "c-1", Valid: true},
	}}
	orphan := &db.CommentRow{Comment: models.Comment{
		ID:       "c-4",
		ParentID: sql.NullString{String: "gone", Valid: true},
	}}

	tree := buildCommentTree([]*db.CommentRow{root1, reply, root2, orphan})

	if len(tree) != 2 {
		t.Fatalf("got %d roots, want 2", len(tree))
	}
	if tree[0].ID != "c-1" || len(tree[0].Replies) != 1 || tree[0].Replies[0].ID != "c-3" {
		t.Errorf("root c-1 tree wrong: %+v", tree[0])
	}
	if len(tree[1].Replies) != 0 {
		t.Errorf("root c-2 should have no replies")
	}
}
