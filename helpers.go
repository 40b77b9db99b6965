package cs4teachers

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"
	"unicode/utf8"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "…"
}

func eventSummary(ev Event) string {
	return Truncate(PlainText(ev.Description), 280)
}

// EventJSONLD returns a schema.org Event JSON-LD document for an event page.
func EventJSONLD(ev Event, site SiteInfo) string {
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "Event",
		"name":        ev.String(),
		"description": eventSummary(ev),
		"startDate":   formatDate(ev.StartDate),
		"endDate":     formatDate(ev.EndDate),
		"url":         BuildURL(site.URL, ev.URL()),
		"organizer": map[string]string{
			"@type": "Organization",
			"name":  site.Name,
			"url":   BuildURL(site.URL),
		},
	}
	if ev.Location != nil {
		data["location"] = map[string]string{
			"@type":   "Place",
			"name":    ev.Location.Name,
			"address": ev.Location.Address,
		}
	}
	if len(ev.Sponsors) > 0 {
		sponsors := make([]map[string]string, 0, len(ev.Sponsors))
		for _, sp := range ev.Sponsors {
			sponsors = append(sponsors, map[string]string{"@type": "Organization", "name": sp.Name, "url": sp.URL})
		}
		data["sponsor"] = sponsors
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// WebsiteJSONLD returns a schema.org WebSite JSON-LD document.
func WebsiteJSONLD(site SiteInfo) string {
	data := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     site.Name,
		"url":      BuildURL(site.URL),
	}
	if site.Description != "" {
		data["description"] = site.Description
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
