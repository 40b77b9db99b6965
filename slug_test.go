package cs4teachers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSlugs map[string]bool

func (f fakeSlugs) SlugExists(_ context.Context, scope SlugScope, slug string) (bool, error) {
	return f[string(scope.Kind)+"/"+slug], nil
}

type failingSlugs struct{}

func (failingSlugs) SlugExists(context.Context, SlugScope, string) (bool, error) {
	return false, errors.New("db down")
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Campus Tour", "campus-tour"},
		{"  Hello,   World!  ", "hello-world"},
		{"Māori Computing Día", "maori-computing-dia"},
		{"CS4T: Hackathon 2024", "cs4t-hackathon-2024"},
		{"---", ""},
		{"already-slugged", "already-slugged"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func TestSlugBaseWithParent(t *testing.T) {
	assert.Equal(t, "cs4t-hackathon", SlugBase("Hackathon", "cs4t"))
	assert.Equal(t, "hackathon", SlugBase("Hackathon", ""))
}

func TestAssignSlugDisambiguates(t *testing.T) {
	ctx := context.Background()
	taken := fakeSlugs{"location/campus-tour": true, "location/campus-tour-2": true}

	slug, err := AssignSlug(ctx, taken, SlugScope{Kind: KindLocation}, "Campus Tour", "")
	require.NoError(t, err)
	assert.Equal(t, "campus-tour-3", slug)

	// A different scope does not collide.
	slug, err = AssignSlug(ctx, taken, SlugScope{Kind: KindSeries}, "Campus Tour", "")
	require.NoError(t, err)
	assert.Equal(t, "campus-tour", slug)
}

func TestAssignSlugEmptyName(t *testing.T) {
	_, err := AssignSlug(context.Background(), fakeSlugs{}, SlugScope{Kind: KindEvent}, "   ", "")
	ve, ok := IsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Contains(t, ve.Fields, "name")
}

func TestAssignSlugSymbolsOnlyFallsBackToKind(t *testing.T) {
	slug, err := AssignSlug(context.Background(), fakeSlugs{}, SlugScope{Kind: KindSponsor}, "!!!", "")
	require.NoError(t, err)
	assert.Equal(t, "sponsor", slug)
}

func TestAssignSlugCheckerError(t *testing.T) {
	_, err := AssignSlug(context.Background(), failingSlugs{}, SlugScope{Kind: KindEvent}, "Open Day", "")
	require.Error(t, err)
	_, isValidation := IsValidation(err)
	assert.False(t, isValidation)
}
