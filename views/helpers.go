package views

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	cs4t "github.com/uccser/cs4teachers"
)

// DateRange formats an event's dates, collapsing shared months and years.
func DateRange(start, end time.Time) string {
	switch {
	case start.Equal(end):
		return start.Format("2 January 2006")
	case start.Year() != end.Year():
		return start.Format("2 January 2006") + " – " + end.Format("2 January 2006")
	case start.Month() != end.Month():
		return start.Format("2 January") + " – " + end.Format("2 January 2006")
	default:
		return strconv.Itoa(start.Day()) + "–" + end.Format("2 January 2006")
	}
}

// DaysLabel describes a DaysDifference value for display.
func DaysLabel(days int) string {
	switch {
	case days == 0:
		return "Happening now"
	case days == 1:
		return "Starts tomorrow"
	case days > 1:
		return fmt.Sprintf("Starts in %d days", days)
	case days == -1:
		return "Ended yesterday"
	default:
		return fmt.Sprintf("Ended %d days ago", -days)
	}
}

// SessionTime formats a session's time span in loc.
func SessionTime(s cs4t.Session, loc *time.Location) string {
	start, end := s.StartDatetime.In(loc), s.EndDatetime.In(loc)
	if start.YearDay() == end.YearDay() && start.Year() == end.Year() {
		return start.Format("Mon 2 Jan, 3:04pm") + " – " + end.Format("3:04pm")
	}
	return start.Format("Mon 2 Jan, 3:04pm") + " – " + end.Format("Mon 2 Jan, 3:04pm")
}

// MapEmbedURL returns a Google Maps embed URL for a "lat,lng" geolocation.
func MapEmbedURL(apiKey, geolocation string) string {
	if apiKey == "" || geolocation == "" {
		return ""
	}
	return "https://www.google.com/maps/embed/v1/place?key=" + url.QueryEscape(apiKey) + "&q=" + url.QueryEscape(geolocation)
}
