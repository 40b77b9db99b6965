package cs4teachers

import "time"

// UploadBasePath is the directory, relative to the upload root, under which
// all entity images are stored.
const UploadBasePath = "uploads/events"

// DateLayout is the storage and form layout for calendar dates.
const DateLayout = "2006-01-02"

// DateTimeLayout is the form layout for session start and end times.
const DateTimeLayout = "2006-01-02T15:04"

// Location is a venue where events and sessions take place.
type Location struct {
	ID          int64
	Slug        string
	Name        string `validate:"required,max=150"`
	Description string
	Address     string `validate:"required,max=200"`
	Geolocation string `validate:"required,max=100,geolocation"`
	Images      []LocationImage `validate:"-"`
}

// URL returns the public path of the location page.
func (l Location) URL() string { return "/events/location/" + l.Slug + "/" }

func (l Location) String() string { return l.Name }

// LocationImage is a photo attached to a Location.
type LocationImage struct {
	ID         int64
	LocationID int64  `validate:"required"`
	Name       string `validate:"required,max=255"`
	Image      string `validate:"required"`
}

func (i LocationImage) String() string { return i.Name }

// Series groups recurring events under a shared slug prefix.
type Series struct {
	ID          int64
	Slug        string
	Name        string `validate:"required,max=150"`
	Subtitle    string `validate:"max=150"`
	Logo        string
	Description string `validate:"required"`
}

// URL returns the public path of the series page.
func (s Series) URL() string { return "/events/series/" + s.Slug + "/" }

func (s Series) String() string { return s.Name }

// Sponsor supports one or more events. Names are unique.
type Sponsor struct {
	ID   int64
	Name string `validate:"required,max=200"`
	URL  string `validate:"required,http_url"`
	Logo string
}

func (s Sponsor) String() string { return s.Name }

// Resource is teaching material referenced by sessions.
type Resource struct {
	ID          int64
	Slug        string
	Name        string `validate:"required,max=150"`
	URL         string `validate:"required,http_url"`
	Description string
	Image       string
}

func (r Resource) String() string { return r.Name }

// Event is a teacher-training event run by the site owners.
type Event struct {
	ID          int64
	Slug        string
	Name        string    `validate:"required,max=150"`
	Description string    `validate:"required"`
	StartDate   time.Time `validate:"required"`
	EndDate     time.Time `validate:"required,gtefield=StartDate"`
	IsPublished bool
	SeriesID    *int64
	LocationID  *int64
	SponsorIDs  []int64

	// Populated on reads.
	Series   *Series      `validate:"-"`
	Location *Location    `validate:"-"`
	Sponsors []Sponsor    `validate:"-"`
	Sessions []Session    `validate:"-"`
	Images   []EventImage `validate:"-"`
}

// URL returns the public path of the event page.
func (e Event) URL() string { return "/events/event/" + e.Slug + "/" }

func (e Event) String() string {
	if e.Series != nil {
		return e.Series.Name + ": " + e.Name
	}
	return e.Name
}

// EventImage is a photo attached to an Event.
type EventImage struct {
	ID      int64
	EventID int64  `validate:"required"`
	Name    string `validate:"required,max=255"`
	Image   string `validate:"required"`
}

func (i EventImage) String() string { return i.Name }

// ThirdPartyEvent is an event run by another organisation that the site
// advertises with a link to the organiser.
type ThirdPartyEvent struct {
	ID          int64
	Slug        string
	Name        string    `validate:"required,max=150"`
	Description string    `validate:"required"`
	StartDate   time.Time `validate:"required"`
	EndDate     time.Time `validate:"required,gtefield=StartDate"`
	URL         string    `validate:"required,http_url"`
	IsPublished bool
	LocationID  *int64

	Location *Location `validate:"-"`
}

// Path returns the public path of the third party event page.
func (e ThirdPartyEvent) Path() string { return "/events/third-party-event/" + e.Slug + "/" }

func (e ThirdPartyEvent) String() string { return e.Name }

// Session is a scheduled slot within an Event.
type Session struct {
	ID            int64
	EventID       int64  `validate:"required"`
	Slug          string
	Name          string    `validate:"required,max=200"`
	Description   string
	Image         string
	StartDatetime time.Time `validate:"required"`
	EndDatetime   time.Time `validate:"required,gtefield=StartDatetime"`
	LocationIDs   []int64
	ResourceIDs   []int64

	Event     *Event     `validate:"-"`
	Locations []Location `validate:"-"`
	Resources []Resource `validate:"-"`
}

func (s Session) String() string { return s.Name }

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}
