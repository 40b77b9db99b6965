package cs4teachers

import "time"

// SiteInfo is the subset of SiteConfig that templates may read.
type SiteInfo struct {
	Name        string
	URL         string
	Description string
	MapsAPIKey  string
	TZ          *time.Location
}

// SeriesSummary pairs a series with the event the public pages feature for it.
type SeriesSummary struct {
	Series  Series
	Closest *Event
	// DaysAway is DaysDifference for Closest; zero when Closest is nil.
	DaysAway int
}

// HomePage is the data for "/".
type HomePage struct {
	Site             SiteInfo
	Meta             PageMeta
	UpcomingEvents   []Event
	Series           []SeriesSummary
	ThirdPartyEvents []ThirdPartyEvent
}

// EventIndexPage is the data for "/events/".
type EventIndexPage struct {
	Site             SiteInfo
	Meta             PageMeta
	Upcoming         []Event
	Past             []Event
	ThirdPartyEvents []ThirdPartyEvent
}

// EventPage is the data for an event detail page.
type EventPage struct {
	Site     SiteInfo
	Meta     PageMeta
	Event    Event
	DaysAway int
}

// SeriesPage is the data for a series page.
type SeriesPage struct {
	Site     SiteInfo
	Meta     PageMeta
	Series   Series
	Closest  *Event
	DaysAway int
	Events   []Event
}

// LocationPage is the data for a location page.
type LocationPage struct {
	Site             SiteInfo
	Meta             PageMeta
	Location         Location
	Events           []Event
	ThirdPartyEvents []ThirdPartyEvent
}

// ThirdPartyEventPage is the data for a third party event page.
type ThirdPartyEventPage struct {
	Site     SiteInfo
	Meta     PageMeta
	Event    ThirdPartyEvent
	DaysAway int
}

// ResourcesPage is the data for "/events/resources/".
type ResourcesPage struct {
	Site  SiteInfo
	Meta  PageMeta
	Table ResourceTable
}

func (a *App) siteInfo() SiteInfo {
	return SiteInfo{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		MapsAPIKey:  a.Config.MapsAPIKey,
		TZ:          a.tz,
	}
}

// Today returns the current calendar date in the site's time zone.
func (a *App) Today() time.Time {
	now := a.now().In(a.tz)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
