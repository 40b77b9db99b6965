package cs4teachers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"https://cs4teachers.test", nil, "https://cs4teachers.test"},
		{"https://cs4teachers.test", []string{"events"}, "https://cs4teachers.test/events/"},
		{"https://cs4teachers.test", []string{"/events/event/cs4hs-chch/"}, "https://cs4teachers.test/events/event/cs4hs-chch/"},
		{"https://cs4teachers.test/site", []string{"events", "resources"}, "https://cs4teachers.test/site/events/resources/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BuildURL(tt.base, tt.segments...))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "héllo…", Truncate("héllo world", 5))
	assert.Equal(t, "one…", Truncate("one two", 4))
}

func TestEventJSONLD(t *testing.T) {
	series := Series{Name: "CS4HS"}
	ev := Event{
		Slug:        "cs4hs-christchurch",
		Name:        "Christchurch",
		Description: "<p>Two days of <strong>workshops</strong>.</p>",
		StartDate:   day(3),
		EndDate:     day(4),
		Series:      &series,
		Location:    &Location{Name: "Erskine Building", Address: "Science Rd"},
		Sponsors:    []Sponsor{{Name: "Google", URL: "https://google.com/"}},
	}
	site := SiteInfo{Name: "CS4Teachers", URL: "https://cs4teachers.test"}

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(EventJSONLD(ev, site)), &doc))
	assert.Equal(t, "Event", doc["@type"])
	assert.Equal(t, "CS4HS: Christchurch", doc["name"])
	assert.Equal(t, "Two days of workshops.", doc["description"])
	assert.Equal(t, "2024-06-18", doc["startDate"])
	assert.Equal(t, "2024-06-19", doc["endDate"])
	assert.Equal(t, "https://cs4teachers.test/events/event/cs4hs-christchurch/", doc["url"])

	place := doc["location"].(map[string]any)
	assert.Equal(t, "Erskine Building", place["name"])
	sponsors := doc["sponsor"].([]any)
	require.Len(t, sponsors, 1)
	assert.Equal(t, "Google", sponsors[0].(map[string]any)["name"])
}

func TestEventJSONLDWithoutLocation(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(EventJSONLD(Event{Name: "Online"}, SiteInfo{})), &doc))
	assert.NotContains(t, doc, "location")
	assert.NotContains(t, doc, "sponsor")
}

func TestWebsiteJSONLD(t *testing.T) {
	var doc map[string]any
	site := SiteInfo{Name: "CS4Teachers", URL: "https://cs4teachers.test", Description: "Events for teachers"}
	require.NoError(t, json.Unmarshal([]byte(WebsiteJSONLD(site)), &doc))
	assert.Equal(t, "WebSite", doc["@type"])
	assert.Equal(t, "https://cs4teachers.test", doc["url"])
	assert.Equal(t, "Events for teachers", doc["description"])
}
