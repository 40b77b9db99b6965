package cs4teachers

import "fmt"

// EntityKind identifies a record type in URLs, slug scopes and the admin.
type EntityKind string

const (
	KindLocation        EntityKind = "location"
	KindLocationImage   EntityKind = "location-image"
	KindSeries          EntityKind = "series"
	KindSponsor         EntityKind = "sponsor"
	KindResource        EntityKind = "resource"
	KindEvent           EntityKind = "event"
	KindEventImage      EntityKind = "event-image"
	KindThirdPartyEvent EntityKind = "third-party-event"
	KindSession         EntityKind = "session"
)

// Widget selects the form control used for a field.
type Widget string

const (
	WidgetText        Widget = "text"
	WidgetTextarea    Widget = "textarea"
	WidgetRichText    Widget = "richtext"
	WidgetMapAddress  Widget = "map-address"
	WidgetGeolocation Widget = "geolocation"
	WidgetURL         Widget = "url"
	WidgetDate        Widget = "date"
	WidgetDateTime    Widget = "datetime"
	WidgetCheckbox    Widget = "checkbox"
	WidgetSelect      Widget = "select"
	WidgetMultiSelect Widget = "multiselect"
	WidgetImage       Widget = "image"
)

// Fieldset is a named group of fields on an admin form. The unnamed group
// holds the core fields.
type Fieldset struct {
	Name      string
	Fields    []string
	Collapsed bool
}

// InlineAdmin describes a child record edited on its parent's form.
type InlineAdmin struct {
	Kind           EntityKind
	Extra          int
	Exclude        []string
	FilterVertical []string
}

// ModelAdmin declares how one entity kind is edited and listed.
type ModelAdmin struct {
	Kind           EntityKind
	Label          string
	LabelPlural    string
	Fields         []string
	Fieldsets      []Fieldset
	Exclude        []string
	Widgets        map[string]Widget
	ListDisplay    []string
	ListFilter     []string
	SearchFields   []string
	FilterVertical []string
	Inlines        []InlineAdmin
}

// FormFieldsets returns the fieldsets to render. Without explicit
// fieldsets all fields except the excluded ones form a single core group.
func (m ModelAdmin) FormFieldsets() []Fieldset {
	if len(m.Fieldsets) > 0 {
		return m.Fieldsets
	}
	var fields []string
	for _, f := range m.Fields {
		if !contains(m.Exclude, f) {
			fields = append(fields, f)
		}
	}
	return []Fieldset{{Fields: fields}}
}

// WidgetFor returns the widget override for field, or WidgetText.
func (m ModelAdmin) WidgetFor(field string) Widget {
	if w, ok := m.Widgets[field]; ok {
		return w
	}
	return WidgetText
}

// Editable reports whether field appears on the form.
func (m ModelAdmin) Editable(field string) bool {
	for _, fs := range m.FormFieldsets() {
		if contains(fs.Fields, field) {
			return true
		}
	}
	return false
}

// AdminSite is the explicit registry of ModelAdmins served by the admin
// backend. Registration order is preserved for the dashboard.
type AdminSite struct {
	models map[EntityKind]ModelAdmin
	order  []EntityKind
}

// NewAdminSite returns an empty AdminSite.
func NewAdminSite() *AdminSite {
	return &AdminSite{models: make(map[EntityKind]ModelAdmin)}
}

// Register adds m to the site. Registering a kind twice is an error.
func (s *AdminSite) Register(m ModelAdmin) error {
	if _, ok := s.models[m.Kind]; ok {
		return fmt.Errorf("admin: %s already registered", m.Kind)
	}
	if m.Label == "" {
		m.Label = string(m.Kind)
	}
	if m.LabelPlural == "" {
		m.LabelPlural = m.Label + "s"
	}
	if len(m.ListDisplay) == 0 {
		m.ListDisplay = []string{"name"}
	}
	s.models[m.Kind] = m
	s.order = append(s.order, m.Kind)
	return nil
}

// Model returns the ModelAdmin for kind.
func (s *AdminSite) Model(kind EntityKind) (ModelAdmin, bool) {
	m, ok := s.models[kind]
	return m, ok
}

// Models returns all registered ModelAdmins in registration order.
func (s *AdminSite) Models() []ModelAdmin {
	out := make([]ModelAdmin, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.models[k])
	}
	return out
}

var richText = map[string]Widget{"description": WidgetRichText}

func widgets(extra map[string]Widget) map[string]Widget {
	out := make(map[string]Widget, len(richText)+len(extra))
	for k, v := range richText {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// DefaultAdminSite returns the admin configuration for every entity kind.
func DefaultAdminSite() *AdminSite {
	site := NewAdminSite()
	for _, m := range []ModelAdmin{
		{
			Kind:  KindEvent,
			Label: "event",
			Fields: []string{"name", "description", "start_date", "end_date", "series", "location", "sponsors",
				"is_published", "slug"},
			Fieldsets: []Fieldset{
				{Fields: []string{"name", "description", "start_date", "end_date", "series", "location", "sponsors"}},
				{Name: "Visibility", Fields: []string{"is_published"}},
				{Name: "Advanced", Fields: []string{"slug"}, Collapsed: true},
			},
			Widgets: widgets(map[string]Widget{
				"start_date":   WidgetDate,
				"end_date":     WidgetDate,
				"series":       WidgetSelect,
				"location":     WidgetSelect,
				"sponsors":     WidgetMultiSelect,
				"is_published": WidgetCheckbox,
			}),
			Inlines: []InlineAdmin{{
				Kind:           KindSession,
				Extra:          5,
				Exclude:        []string{"slug"},
				FilterVertical: []string{"resources", "locations"},
			}},
			ListDisplay:    []string{"name", "series", "location", "start_date", "end_date"},
			ListFilter:     []string{"is_published"},
			SearchFields:   []string{"name"},
			FilterVertical: []string{"sponsors"},
		},
		{
			Kind:        KindThirdPartyEvent,
			Label:       "third party event",
			Fields:      []string{"name", "url", "start_date", "end_date", "description", "location", "is_published"},
			Fieldsets: []Fieldset{
				{Fields: []string{"name", "url", "start_date", "end_date", "description", "location"}},
				{Name: "Visibility", Fields: []string{"is_published"}},
			},
			Widgets: widgets(map[string]Widget{
				"url":          WidgetURL,
				"start_date":   WidgetDate,
				"end_date":     WidgetDate,
				"location":     WidgetSelect,
				"is_published": WidgetCheckbox,
			}),
			ListDisplay:  []string{"name", "location", "start_date", "end_date"},
			ListFilter:   []string{"is_published"},
			SearchFields: []string{"name"},
		},
		{
			Kind:   KindSession,
			Label:  "session",
			Fields: []string{"event", "name", "description", "image", "start_datetime", "end_datetime", "locations", "resources", "slug"},
			Exclude: []string{"slug"},
			Widgets: widgets(map[string]Widget{
				"event":          WidgetSelect,
				"image":          WidgetImage,
				"start_datetime": WidgetDateTime,
				"end_datetime":   WidgetDateTime,
				"locations":      WidgetMultiSelect,
				"resources":      WidgetMultiSelect,
			}),
			ListDisplay:    []string{"name", "event"},
			ListFilter:     []string{"event"},
			SearchFields:   []string{"name", "event"},
			FilterVertical: []string{"resources", "locations"},
		},
		{
			Kind:    KindLocation,
			Label:   "location",
			Fields:  []string{"name", "description", "address", "geolocation", "slug"},
			Exclude: []string{"slug"},
			Widgets: widgets(map[string]Widget{
				"address":     WidgetMapAddress,
				"geolocation": WidgetGeolocation,
			}),
		},
		{
			Kind:        KindResource,
			Label:       "resource",
			Fields:      []string{"name", "url", "description", "image", "slug"},
			Exclude:     []string{"slug"},
			Widgets:     widgets(map[string]Widget{"url": WidgetURL, "image": WidgetImage}),
			ListDisplay: []string{"name", "url"},
		},
		{
			Kind:        KindSeries,
			Label:       "series",
			LabelPlural: "series",
			Fields:      []string{"name", "subtitle", "logo", "description"},
			ListDisplay: []string{"name", "subtitle", "closest_event"},
			Widgets:     widgets(map[string]Widget{"description": WidgetTextarea, "logo": WidgetImage}),
		},
		{
			Kind:    KindSponsor,
			Label:   "sponsor",
			Fields:  []string{"name", "url", "logo"},
			Widgets: map[string]Widget{"url": WidgetURL, "logo": WidgetImage},
		},
		{
			Kind:    KindLocationImage,
			Label:   "location image",
			Fields:  []string{"name", "image", "location"},
			Widgets: map[string]Widget{"image": WidgetImage, "location": WidgetSelect},
		},
		{
			Kind:    KindEventImage,
			Label:   "event image",
			Fields:  []string{"name", "image", "event"},
			Widgets: map[string]Widget{"image": WidgetImage, "event": WidgetSelect},
		},
	} {
		if err := site.Register(m); err != nil {
			panic(err)
		}
	}
	return site
}

func contains(vals []string, v string) bool {
	for _, s := range vals {
		if s == v {
			return true
		}
	}
	return false
}
