package views

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cs4t "github.com/uccser/cs4teachers"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestDateRange(t *testing.T) {
	assert.Equal(t, "3 May 2024", DateRange(date(2024, 5, 3), date(2024, 5, 3)))
	assert.Equal(t, "3–4 May 2024", DateRange(date(2024, 5, 3), date(2024, 5, 4)))
	assert.Equal(t, "30 May – 2 June 2024", DateRange(date(2024, 5, 30), date(2024, 6, 2)))
	assert.Equal(t, "31 December 2024 – 1 January 2025", DateRange(date(2024, 12, 31), date(2025, 1, 1)))
}

func TestDaysLabel(t *testing.T) {
	assert.Equal(t, "Happening now", DaysLabel(0))
	assert.Equal(t, "Starts tomorrow", DaysLabel(1))
	assert.Equal(t, "Starts in 12 days", DaysLabel(12))
	assert.Equal(t, "Ended yesterday", DaysLabel(-1))
	assert.Equal(t, "Ended 5 days ago", DaysLabel(-5))
}

func TestSessionTime(t *testing.T) {
	nz, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)
	s := cs4t.Session{
		StartDatetime: time.Date(2024, 6, 14, 21, 0, 0, 0, time.UTC),
		EndDatetime:   time.Date(2024, 6, 14, 22, 30, 0, 0, time.UTC),
	}
	assert.Equal(t, "Sat 15 Jun, 9:00am – 10:30am", SessionTime(s, nz))
}

func TestMapEmbedURL(t *testing.T) {
	assert.Empty(t, MapEmbedURL("", "-43.5,172.5"))
	assert.Equal(t, "https://www.google.com/maps/embed/v1/place?key=k&q=-43.5%2C172.5", MapEmbedURL("k", "-43.5,172.5"))
}

func TestEventDetailEscapesAndEmbedsJSONLD(t *testing.T) {
	series := cs4t.Series{Slug: "cs4hs", Name: "CS4HS"}
	page := cs4t.EventPage{
		Site: cs4t.SiteInfo{Name: "CS4Teachers", URL: "https://cs4teachers.test", TZ: time.UTC},
		Meta: cs4t.PageMeta{Title: "CS4HS: <Christchurch> | CS4Teachers"},
		Event: cs4t.Event{
			Slug:        "cs4hs-christchurch",
			Name:        "<Christchurch>",
			Description: "<p>Two days of workshops.</p>",
			StartDate:   date(2024, 6, 18),
			EndDate:     date(2024, 6, 19),
			Series:      &series,
			Sessions: []cs4t.Session{{
				Name:          "Unplugged",
				StartDatetime: time.Date(2024, 6, 18, 9, 0, 0, 0, time.UTC),
				EndDatetime:   time.Date(2024, 6, 18, 10, 0, 0, 0, time.UTC),
			}},
		},
		DaysAway: 3,
	}

	html := render(t, EventDetail(page))
	assert.Contains(t, html, "<h1>&lt;Christchurch&gt;</h1>")
	assert.Contains(t, html, "<p>Two days of workshops.</p>")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	assert.Equal(t, "<Christchurch>", doc.Find("article.event h1").Text())
	assert.Contains(t, doc.Find("p.dates").Text(), "18–19 June 2024")
	assert.Equal(t, "Starts in 3 days", doc.Find("p.dates .badge").Text())
	href, _ := doc.Find("p.eyebrow a").Attr("href")
	assert.Equal(t, "/events/series/cs4hs/", href)
	assert.Contains(t, doc.Find("section.sessions").Text(), "Unplugged")

	var ld map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc.Find(`script[type="application/ld+json"]`).Text()), &ld))
	assert.Equal(t, "CS4HS: <Christchurch>", ld["name"])
}

func TestResourceTable(t *testing.T) {
	assert.Contains(t, render(t, ResourceTable(cs4t.NewResourceTable(nil))), "No resources yet.")

	table := cs4t.NewResourceTable([]cs4t.Resource{
		{Name: "CS Unplugged", URL: "https://csunplugged.org/", Description: "<p>Activities</p>"},
		{Name: "Bad link", URL: "javascript:alert(1)"},
	})
	html := render(t, ResourceTable(table))
	assert.Contains(t, html, `<table class="table">`)
	assert.Contains(t, html, `<a href="https://csunplugged.org/" rel="noopener">CS Unplugged</a>`)
	assert.Contains(t, html, "<td>Activities</td>")
	assert.NotContains(t, html, "javascript:")
	assert.Contains(t, html, "<td>Bad link</td>")
}

func TestAdminFormInlineManagementFields(t *testing.T) {
	page := cs4t.AdminFormPage{
		Site:      cs4t.SiteInfo{Name: "CS4Teachers"},
		ID:        7,
		Title:     "Change event",
		Action:    "/admin/event/7/",
		CSRFToken: "tok",
		Fieldsets: []cs4t.FormFieldset{
			{Fields: []cs4t.FormField{{Name: "name", Label: "Name", Value: "Hackathon", Error: "This field is required."}}},
			{Name: "Advanced", Collapsed: true, Fields: []cs4t.FormField{{Name: "slug", Label: "Slug"}}},
		},
		Inlines: []cs4t.InlineFormset{{
			Label:  "Sessions",
			Prefix: "sessions",
			Forms: []cs4t.InlineForm{
				{Prefix: "sessions-0-", ID: 3, Fields: []cs4t.FormField{{Name: "sessions-0-name", Label: "Name", Value: "Intro"}}},
				{Prefix: "sessions-1-", Fields: []cs4t.FormField{{Name: "sessions-1-name", Label: "Name"}}},
			},
		}},
	}

	html := render(t, AdminForm(page))
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Find("div.inline-form").Length())
	assert.Equal(t, 1, doc.Find(".form-row.has-error").Length())
	assert.Equal(t, "Advanced", doc.Find("details.fieldset summary").Text())

	assert.Contains(t, html, `name="sessions-TOTAL_FORMS" value="2"`)
	assert.Contains(t, html, `name="sessions-INITIAL_FORMS" value="1"`)
	assert.Contains(t, html, `name="sessions-0-id" value="3"`)
	assert.Contains(t, html, `name="sessions-0-DELETE"`)
	assert.NotContains(t, html, `name="sessions-1-DELETE"`)
	assert.Contains(t, html, `<details class="fieldset"><summary>Advanced</summary>`)
	assert.Contains(t, html, `<p class="error">This field is required.</p>`)
	assert.Contains(t, html, `action="/admin/event/7/delete/"`)
	assert.Equal(t, 2, strings.Count(html, `name="_csrf" value="tok"`))
}

func TestNotFound(t *testing.T) {
	html := render(t, NotFound())
	assert.Contains(t, html, "Page not found")
	assert.True(t, strings.HasPrefix(html, "<!doctype html>"))
	assert.NotContains(t, html, `<body class="admin">`)
}

func TestSeriesDetailKeepsLineBreaks(t *testing.T) {
	page := cs4t.SeriesPage{
		Site:   cs4t.SiteInfo{Name: "CS4Teachers", TZ: time.UTC},
		Meta:   cs4t.PageMeta{Title: "CS4HS"},
		Series: cs4t.Series{Slug: "cs4hs", Name: "CS4HS", Description: "Workshops for <teachers>\nacross the country.\n\nFree to attend."},
	}

	html := render(t, SeriesDetail(page))
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	paras := doc.Find("article.series > p")
	require.Equal(t, 2, paras.Length())
	assert.Equal(t, 1, paras.First().Find("br").Length())
	assert.Contains(t, paras.First().Text(), "Workshops for <teachers>")
	assert.Contains(t, paras.First().Text(), "across the country.")
	assert.Contains(t, paras.Last().Text(), "Free to attend.")
	assert.Contains(t, html, "&lt;teachers&gt;")
}

func TestAdminListMarksSelectedFilterAndLinksRows(t *testing.T) {
	page := cs4t.AdminListPage{
		Site:       cs4t.SiteInfo{Name: "CS4Teachers"},
		Model:      cs4t.ModelAdmin{Kind: cs4t.KindSeries, Label: "series", LabelPlural: "series"},
		Columns:    []string{"Name", "Closest event"},
		Rows:       []cs4t.AdminRow{{ID: 4, Cells: []string{"CS4HS", "CS4HS Christchurch"}, ViewURL: "/events/series/cs4hs/"}},
		Searchable: true,
		Query:      "cs4",
		Filters: []cs4t.AdminFilter{{
			Field:    "series",
			Label:    "Series",
			Options:  []cs4t.SelectOption{{Value: "1", Label: "One"}, {Value: "2", Label: "Two"}},
			Selected: "2",
		}},
	}

	html := render(t, AdminList(page))
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	assert.Equal(t, "admin", doc.Find("body").AttrOr("class", ""))
	assert.Equal(t, "cs4", doc.Find(`input[name="q"]`).AttrOr("value", ""))
	assert.Equal(t, "Two", doc.Find(`select[name="series"] option[selected]`).Text())
	assert.Equal(t, "/admin/series/4/", doc.Find("table.changelist tbody td a").First().AttrOr("href", ""))
	assert.Equal(t, "CS4HS Christchurch", doc.Find("table.changelist tbody td").Eq(1).Text())
	assert.Equal(t, "/events/series/cs4hs/", doc.Find(`a:contains("View on site")`).AttrOr("href", ""))
}
