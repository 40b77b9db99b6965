package cs4teachers

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const feedItemLimit = 50

type rssFeed struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	AtomXMLNS string     `xml:"xmlns:atom,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string      `xml:"title"`
	Link          string      `xml:"link"`
	Description   string      `xml:"description"`
	Language      string      `xml:"language"`
	LastBuildDate string      `xml:"lastBuildDate,omitempty"`
	Self          rssAtomLink `xml:"atom:link"`
	Items         []rssItem   `xml:"item"`
}

type rssAtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	Category    string  `xml:"category,omitempty"`
	PubDate     string  `xml:"pubDate"`
	GUID        rssGUID `xml:"guid"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// renderRSS writes the feed of published events, latest start date first.
// The start date stands in for the publication date.
func (a *App) renderRSS(c echo.Context, events []Event) error {
	base := a.Config.URL
	var items []rssItem
	var latest time.Time
	for i := len(events) - 1; i >= 0 && len(items) < feedItemLimit; i-- {
		ev := events[i]
		link := BuildURL(base, ev.URL())
		item := rssItem{
			Title:       ev.String(),
			Link:        link,
			Description: eventSummary(ev),
			PubDate:     ev.StartDate.Format(time.RFC1123Z),
			GUID:        rssGUID{Value: link, IsPermaLink: true},
		}
		if ev.Series != nil {
			item.Category = ev.Series.Name
		}
		if ev.StartDate.After(latest) {
			latest = ev.StartDate
		}
		items = append(items, item)
	}

	channel := rssChannel{
		Title:       a.Config.Name,
		Link:        BuildURL(base),
		Description: a.Config.Description,
		Language:    "en-nz",
		Self:        rssAtomLink{Href: base + "/feed.xml", Rel: "self", Type: "application/rss+xml"},
		Items:       items,
	}
	if !latest.IsZero() {
		channel.LastBuildDate = latest.Format(time.RFC1123Z)
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(rssFeed{
		Version:   "2.0",
		AtomXMLNS: "http://www.w3.org/2005/Atom",
		Channel:   channel,
	})
}
