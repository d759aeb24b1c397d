package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateGroupID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		groupID string
		wantErr bool
	}{
		{name: "empty is allowed", groupID: "", wantErr: false},
		{name: "alphanumeric", groupID: "group123", wantErr: false},
		{name: "dashes and underscores", groupID: "my-group_1", wantErr: false},
		{name: "spaces rejected", groupID: "my group", wantErr: true},
		{name: "slashes rejected", groupID: "a/b", wantErr: true},
		{name: "unicode rejected", groupID: "gruppé", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGroupID(tt.groupID)
			if tt.wantErr && !errors.Is(err, ErrInvalidGroupID) {
				t.Errorf("expected ErrInvalidGroupID, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{name: "lowercases", in: "Kamala Harris", expected: "kamala harris"},
		{name: "collapses whitespace", in: "  San   Francisco\t", expected: "san francisco"},
		{name: "already normal", in: "tinybirds", expected: "tinybirds"},
		{name: "empty", in: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.in); got != tt.expected {
				t.Errorf("NormalizeName(%q) = %q, expected %q", tt.in, got, tt.expected)
			}
		})
	}
}

func TestLuceneSanitize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{
			name:     "plain text untouched",
			query:    "Who is the attorney general",
			expected: "Who is the attorney general",
		},
		{
			name:     "special characters escaped",
			query:    `tilde~ colon: star*`,
			expected: `tilde\~ colon\: star\*`,
		},
		{
			name:     "boolean operators lowercased",
			query:    "cats AND dogs OR birds NOT fish",
			expected: "cats and dogs or birds not fish",
		},
		{
			name:     "operators inside words untouched",
			query:    "ANDREW ORBIT",
			expected: "ANDREW ORBIT",
		},
		{
			name:     "parens and quotes",
			query:    `say "hello" (loudly)`,
			expected: `say \"hello\" \(loudly\)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LuceneSanitize(tt.query); got != tt.expected {
				t.Errorf("LuceneSanitize(%q) = %q, expected %q", tt.query, got, tt.expected)
			}
		})
	}
}

func TestNewUUID(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	var prev string
	for i := 0; i < 100; i++ {
		id := NewUUID()
		if len(id) != 36 || strings.Count(id, "-") != 4 {
			t.Fatalf("malformed UUID: %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate UUID generated: %q", id)
		}
		seen[id] = true
		// UUIDv7 is time-ordered, so later IDs never sort below
		// earlier ones.
		if prev != "" && id < prev {
			t.Errorf("UUIDs not time-ordered: %q then %q", prev, id)
		}
		prev = id
	}
}

func TestSemaphoreLimit(t *testing.T) {
	t.Run("default when unset", func(t *testing.T) {
		t.Setenv("SEMAPHORE_LIMIT", "")
		if got := SemaphoreLimit(); got != DefaultSemaphoreLimit {
			t.Errorf("expected %d, got %d", DefaultSemaphoreLimit, got)
		}
	})

	t.Run("reads override", func(t *testing.T) {
		t.Setenv("SEMAPHORE_LIMIT", "7")
		if got := SemaphoreLimit(); got != 7 {
			t.Errorf("expected 7, got %d", got)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		t.Setenv("SEMAPHORE_LIMIT", "lots")
		if got := SemaphoreLimit(); got != DefaultSemaphoreLimit {
			t.Errorf("expected fallback %d, got %d", DefaultSemaphoreLimit, got)
		}
	})
}
