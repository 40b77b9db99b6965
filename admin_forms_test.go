package cs4teachers

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldLabel(t *testing.T) {
	assert.Equal(t, "URL", fieldLabel("url"))
	assert.Equal(t, "Published", fieldLabel("is_published"))
	assert.Equal(t, "Start datetime", fieldLabel("start_datetime"))
	assert.Equal(t, "Name", fieldLabel("name"))
}

func TestAdminErrorsRemapsInlineIndexes(t *testing.T) {
	ve := ValidationError{Fields: map[string]string{
		"sessions-0-end_datetime": "bad end",
		"sessions-1-event_id":     "missing event",
		"series_id":               "bad series",
		"name":                    "required",
	}}
	got := adminErrors(ve, []int{2, 4})
	assert.Equal(t, map[string]string{
		"sessions-2-end_datetime": "bad end",
		"sessions-4-event":        "missing event",
		"series":                  "bad series",
		"name":                    "required",
	}, got)
}

func TestFormBuilderFieldsets(t *testing.T) {
	m, _ := DefaultAdminSite().Model(KindEvent)
	values := url.Values{
		"name":         {"Hackathon"},
		"is_published": {"on"},
		"sponsors":     {"1", "3"},
		"series":       {"2"},
	}
	choices := map[string][]SelectOption{"series": {{Value: "2", Label: "CS4T"}}}
	b := newFormBuilder(m, values, choices, map[string]string{"name": "Too long.", "bogus": "Lost."})

	sets := b.fieldsets()
	require.Len(t, sets, 3)
	name := sets[0].Fields[0]
	assert.Equal(t, "name", name.Name)
	assert.Equal(t, "Hackathon", name.Value)
	assert.Equal(t, "Too long.", name.Error)

	byName := map[string]FormField{}
	for _, f := range sets[0].Fields {
		byName[f.Name] = f
	}
	assert.Equal(t, []string{"1", "3"}, byName["sponsors"].Values)
	assert.True(t, byName["sponsors"].Vertical)
	assert.Equal(t, WidgetSelect, byName["series"].Widget)
	assert.Equal(t, choices["series"], byName["series"].Options)
	assert.True(t, sets[1].Fields[0].Checked)
	assert.True(t, sets[2].Collapsed)

	assert.Equal(t, []string{"Bogus: Lost."}, b.leftover())
}

func TestFormBuilderInlineForms(t *testing.T) {
	site := DefaultAdminSite()
	m, _ := site.Model(KindEvent)

	t.Run("stored sessions plus extra", func(t *testing.T) {
		values := url.Values{
			"sessions-INITIAL_FORMS": {"2"},
			"sessions-0-id":          {"10"},
			"sessions-0-name":        {"Keynote"},
			"sessions-1-id":          {"11"},
			"sessions-1-DELETE":      {"on"},
		}
		set := newFormBuilder(m, values, nil, nil).inline(site, m.Inlines[0], "event")
		assert.Equal(t, "sessions", set.Prefix)
		require.Len(t, set.Forms, 7)
		assert.Equal(t, int64(10), set.Forms[0].ID)
		assert.True(t, set.Forms[1].Delete)
		assert.Zero(t, set.Forms[2].ID)

		var names []string
		for _, f := range set.Forms[0].Fields {
			names = append(names, f.Name)
		}
		assert.NotContains(t, names, "sessions-0-event")
		assert.NotContains(t, names, "sessions-0-slug")
		assert.Contains(t, names, "sessions-0-name")
		assert.Equal(t, "Keynote", set.Forms[0].Fields[0].Value)
	})

	t.Run("posted total is kept on re-render", func(t *testing.T) {
		values := url.Values{"sessions-TOTAL_FORMS": {"3"}, "sessions-INITIAL_FORMS": {"0"}}
		errs := map[string]string{"sessions-2-name": "This field is required."}
		b := newFormBuilder(m, values, nil, errs)
		set := b.inline(site, m.Inlines[0], "event")
		require.Len(t, set.Forms, 3)
		assert.Equal(t, "This field is required.", set.Forms[2].Fields[0].Error)
		assert.Empty(t, b.leftover())
	})
}

func TestFormBinder(t *testing.T) {
	nz, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)
	values := url.Values{
		"sessions-0-name":           {"  Intro  "},
		"sessions-0-start_datetime": {"2024-06-01T09:30"},
		"sessions-0-end_datetime":   {"yesterday"},
		"sessions-0-locations":      {"1", "x"},
		"sessions-0-image-current":  {"uploads/events/sessions/images/a.jpg"},
		"sessions-0-image-clear":    {"on"},
		"sessions-0-start_date":     {"2024-13-40"},
	}
	b := newFormBinder(values, "sessions-0-", nz)

	assert.Equal(t, "Intro", b.str("name"))
	assert.Equal(t, time.Date(2024, 5, 31, 21, 30, 0, 0, time.UTC), b.datetime("start_datetime"))
	assert.True(t, b.datetime("end_datetime").IsZero())
	assert.Equal(t, []int64{1}, b.ids("locations"))
	assert.Equal(t, "", b.image("image"))
	assert.True(t, b.date("start_date").IsZero())
	assert.False(t, b.blank("name"))
	assert.True(t, b.blank("description", "resources"))

	assert.Equal(t, map[string]string{
		"sessions-0-end_datetime": "Enter a valid date and time.",
		"sessions-0-locations":    "Select a valid choice.",
		"sessions-0-start_date":   "Enter a valid date.",
	}, b.errs)
}

func TestFormBinderResult(t *testing.T) {
	b := newFormBinder(url.Values{"start_datetime": {"soon"}}, "", time.UTC)
	s := Session{Name: "", StartDatetime: b.datetime("start_datetime")}
	err := b.result(&s, "event")

	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Enter a valid date and time.", ve.Fields["start_datetime"])
	assert.Equal(t, "This field is required.", ve.Fields["name"])
	assert.NotContains(t, ve.Fields, "event")

	clean := newFormBinder(url.Values{"name": {"ok"}}, "", time.UTC)
	assert.NoError(t, clean.result(&Session{}))
}

func TestValueHelpers(t *testing.T) {
	id := int64(5)
	assert.Equal(t, "5", idString(&id))
	assert.Equal(t, "", idString(nil))
	assert.Equal(t, []string{"1", "2"}, idStrings([]int64{1, 2}))
	assert.Equal(t, "on", checkbox(true))
	assert.Equal(t, "", dateValue(time.Time{}))
	assert.Equal(t, "2024-06-01", dateValue(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-06-01T21:30", dateTimeValue(time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC), time.FixedZone("NZST", 12*3600)))
}
