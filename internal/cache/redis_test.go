package cache

import (
	"strings"
	"testing"
)

// The increment and its expiry must run as one server-side script. A
// client that increments first and expires second can crash in between
// and leave a counter that never resets.
func TestIncrWindowScriptCouplesExpiry(t *testing.T) {
	if !strings.Contains(incrWindowSrc, "INCR") {
		t.Fatal("window script must increment the counter")
	}
	if !strings.Contains(incrWindowSrc, "PTTL") || !strings.Contains(incrWindowSrc, "PEXPIRE") {
		t.Fatal("window script must anchor a TTL whenever the key has none")
	}
}

func TestHashKey(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
	}{
		{
			name:  "single part",
			parts: []string{"test"},
		},
		{
			name:  "multiple parts",
			parts: []string{"test", "key", "with", "many", "parts"},
		},
		{
			name:  "empty parts",
			parts: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashed1 := HashKey(tt.parts...)
			hashed2 := HashKey(tt.parts...)

			// Hash should be consistent
			if hashed1 != hashed2 {
				t.Errorf("HashKey() should be consistent, got %s and %s", hashed1, hashed2)
			}

			// Hash should be 32 characters (MD5 hex)
			if len(hashed1) != 32 {
				t.Errorf("HashKey() should return 32 character hex string, got length %d", len(hashed1))
			}
		})
	}
}

func TestHashKeyDistinct(t *testing.T) {
	if HashKey("a", "b") == HashKey("ab") {
		t.Error("HashKey should separate parts before hashing")
	}
}

func TestCache_NamespaceKey(t *testing.T) {
	cache := &Cache{}

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{
			name:     "simple key",
			key:      "test",
			expected: "agora:test",
		},
		{
			name:     "key with colon",
			key:      "test:key",
			expected: "agora:test:key",
		},
		{
			name:     "empty key",
			key:      "",
			expected: "agora:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := cache.namespaceKey(tt.key)
			if result != tt.expected {
				t.Errorf("namespaceKey() = %v, want %v", result, tt.expected)
			}
		})
	}
}
