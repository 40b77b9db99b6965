package cs4teachers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormFieldName(t *testing.T) {
	assert.Equal(t, "start_datetime", formFieldName("StartDatetime"))
	assert.Equal(t, "url", formFieldName("URL"))
	assert.Equal(t, "is_published", formFieldName("IsPublished"))
	assert.Equal(t, "event_id", formFieldName("EventID"))
	assert.Equal(t, "location_id", formFieldName("LocationID"))
	assert.Equal(t, "name", formFieldName("Name"))
}

func TestValidateGeolocation(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"-43.5225594,172.5811949", true},
		{"0,0", true},
		{"91,0", false},
		{"0,181", false},
		{"north,east", false},
		{"-43.5", false},
	}
	for _, tt := range tests {
		l := Location{Name: "x", Address: "y", Geolocation: tt.value}
		err := Validate(&l)
		if tt.ok {
			assert.NoError(t, err, tt.value)
			continue
		}
		ve, ok := IsValidation(err)
		require.True(t, ok, tt.value)
		assert.Equal(t, "Enter coordinates as latitude,longitude.", ve.Fields["geolocation"])
	}
}

func TestValidateMessages(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	e := ThirdPartyEvent{
		Name:      strings.Repeat("a", 151),
		StartDate: day,
		EndDate:   day.AddDate(0, 0, -1),
		URL:       "not a url",
	}
	ve, ok := IsValidation(Validate(&e))
	require.True(t, ok)
	assert.Equal(t, "Ensure this value has at most 150 characters.", ve.Fields["name"])
	assert.Equal(t, "This field is required.", ve.Fields["description"])
	assert.Equal(t, "Must not be before start date.", ve.Fields["end_date"])
	assert.Equal(t, "Enter a valid URL.", ve.Fields["url"])
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	err := ValidationError{Fields: map[string]string{"url": "bad", "name": "missing"}}
	assert.Equal(t, "validation failed: name: missing; url: bad", err.Error())
}
