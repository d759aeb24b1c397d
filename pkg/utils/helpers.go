package utils

import (
	"errors"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DefaultSemaphoreLimit bounds concurrent LLM and database calls when no
// override is configured.
const DefaultSemaphoreLimit = 20

// ErrInvalidGroupID is returned when a group ID contains characters
// outside the allowed set.
var ErrInvalidGroupID = errors.New("group ID contains invalid characters")

var (
	groupIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// SemaphoreLimit returns the concurrency limit from the SEMAPHORE_LIMIT
// environment variable, falling back to DefaultSemaphoreLimit when unset
// or unparsable.
func SemaphoreLimit() int {
	val := os.Getenv("SEMAPHORE_LIMIT")
	if val == "" {
		return DefaultSemaphoreLimit
	}
	limit, err := strconv.Atoi(val)
	if err != nil || limit <= 0 {
		return DefaultSemaphoreLimit
	}
	return limit
}

// NewUUID returns a time-ordered UUIDv7 string. Time ordering keeps
// freshly created graph rows roughly clustered in index pages.
func NewUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ValidateGroupID checks that a group ID contains only ASCII letters,
// digits, dashes, and underscores. The empty string is allowed and means
// the caller's configured default group.
func ValidateGroupID(groupID string) error {
	if groupID == "" {
		return nil
	}
	if !groupIDPattern.MatchString(groupID) {
		return ErrInvalidGroupID
	}
	return nil
}

// NormalizeName lowercases a name and collapses whitespace runs so that
// equal entity names map to the same deduplication key.
func NormalizeName(name string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.ToLower(name), " "))
}

var luceneEscaper = strings.NewReplacer(
	`\`, `\\`,
	"+", `\+`,
	"-", `\-`,
	"&", `\&`,
	"|", `\|`,
	"!", `\!`,
	"(", `\(`,
	")", `\)`,
	"{", `\{`,
	"}", `\}`,
	"[", `\[`,
	"]", `\]`,
	"^", `\^`,
	`"`, `\"`,
	"~", `\~`,
	"*", `\*`,
	"?", `\?`,
	":", `\:`,
	"/", `\/`,
)

// LuceneSanitize escapes Lucene query syntax in user text so it can be
// passed to a fulltext index verbatim. Special characters are escaped
// and the bare boolean operators AND, OR, and NOT are lowercased, which
// the standard analyzer treats as plain terms.
func LuceneSanitize(query string) string {
	escaped := luceneEscaper.Replace(query)

	words := strings.Fields(escaped)
	for i, w := range words {
		switch w {
		case "AND", "OR", "NOT":
			words[i] = strings.ToLower(w)
		}
	}
	return strings.Join(words, " ")
}
