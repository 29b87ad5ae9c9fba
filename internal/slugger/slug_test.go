package slugger

import (
	"context"
	"strings"
	"testing"

	"github.com/agoraboard/agora/internal/apperr"
)

func TestToSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"trims and hyphenates", "  Hello World !! ", "hello-world"},
		{"collapses underscore runs", "__A__B__", "a-b"},
		{"lowercases", "FreeBoard", "freeboard"},
		{"multi word", "free board", "free-board"},
		{"mixed separators", "a - b _ c", "a-b-c"},
		{"digits survive", "board 42", "board-42"},
		{"symbols only", "!!!", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToSlug(tt.input)
			if result != tt.expected {
				t.Errorf("ToSlug(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestToSlug_CapsLength(t *testing.T) {
	long := strings.Repeat("abcde ", 30)
	result := ToSlug(long)
	if len(result) > 60 {
		t.Errorf("slug length %d exceeds 60", len(result))
	}
	if strings.HasSuffix(result, "-") || strings.HasPrefix(result, "-") {
		t.Errorf("slug %q has a dangling hyphen", result)
	}
}

func TestGenerateUnique(t *testing.T) {
	existsIn := func(taken ...string) ExistsFunc {
		set := make(map[string]bool, len(taken))
		for _, s := range taken {
			set[s] = true
		}
		return func(_ context.Context, slug string) (bool, error) {
			return set[slug], nil
		}
	}

	ctx := context.Background()

	t.Run("root free", func(t *testing.T) {
		got, err := GenerateUnique(ctx, "free board", existsIn())
		if err != nil {
			t.Fatalf("GenerateUnique() error: %v", err)
		}
		if got != "free-board" {
			t.Errorf("got %q, want %q", got, "free-board")
		}
	})

	t.Run("probes past taken candidates", func(t *testing.T) {
		got, err := GenerateUnique(ctx, "free board", existsIn("free-board", "free-board-2"))
		if err != nil {
			t.Fatalf("GenerateUnique() error: %v", err)
		}
		if got != "free-board-3" {
			t.Errorf("got %q, want %q", got, "free-board-3")
		}
	})

	t.Run("empty base is a validation error", func(t *testing.T) {
		_, err := GenerateUnique(ctx, "!!!", existsIn())
		appErr, ok := apperr.As(err)
		if !ok || appErr.Code != apperr.CodeValidationError {
			t.Errorf("expected VALIDATION_ERROR, got: %v", err)
		}
	})

	t.Run("exhaustion is a conflict", func(t *testing.T) {
		everything := func(_ context.Context, _ string) (bool, error) {
			return true, nil
		}
		_, err := GenerateUnique(ctx, "crowded", everything)
		appErr, ok := apperr.As(err)
		if !ok || appErr.Code != apperr.CodeConflict {
			t.Errorf("expected CONFLICT, got: %v", err)
		}
	})
}
