package cs4teachers

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SlugScope names the set of records a slug must be unique within.
// ParentID is only set for kinds whose slugs are unique per parent
// (sessions, per event).
type SlugScope struct {
	Kind     EntityKind
	ParentID int64
}

// SlugChecker reports whether a slug is already taken within a scope.
type SlugChecker interface {
	SlugExists(ctx context.Context, scope SlugScope, slug string) (bool, error)
}

// Slugify converts a name to a URL-safe slug. Accented letters are folded
// to ASCII; every other run of non-alphanumerics becomes a single hyphen.
func Slugify(s string) string {
	s = foldAccents(strings.ToLower(strings.TrimSpace(s)))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// SlugBase returns the slug candidate for name before disambiguation,
// prefixed with parentSlug when one is given.
func SlugBase(name, parentSlug string) string {
	if parentSlug != "" {
		return Slugify(parentSlug + "-" + name)
	}
	return Slugify(name)
}

// AssignSlug derives a slug for a new record and appends -2, -3, ... until
// it is unused within scope. An empty name is a validation error.
func AssignSlug(ctx context.Context, checker SlugChecker, scope SlugScope, name, parentSlug string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fieldError("name", "This field is required.")
	}
	base := SlugBase(name, parentSlug)
	if base == "" {
		base = string(scope.Kind)
	}
	return uniqueSlug(ctx, checker, scope, base)
}

func uniqueSlug(ctx context.Context, checker SlugChecker, scope SlugScope, base string) (string, error) {
	candidate := base
	for n := 2; ; n++ {
		taken, err := checker.SlugExists(ctx, scope, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
