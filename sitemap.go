package cs4teachers

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// sitemapContent is everything with a public page.
type sitemapContent struct {
	Events     []Event
	ThirdParty []ThirdPartyEvent
	Series     []Series
	Locations  []Location
}

func (a *App) renderSitemap(c echo.Context, content sitemapContent) error {
	base := a.Config.URL
	page := func(path, freq, priority string) sitemapURL {
		return sitemapURL{Loc: BuildURL(base, path), ChangeFreq: freq, Priority: priority}
	}
	urls := []sitemapURL{
		{Loc: BuildURL(base), ChangeFreq: "daily", Priority: "1.0"},
		page("/events/", "daily", "0.9"),
		page("/events/resources/", "weekly", "0.5"),
	}
	for _, s := range content.Series {
		urls = append(urls, page(s.URL(), "weekly", "0.8"))
	}
	for _, ev := range content.Events {
		u := page(ev.URL(), "weekly", "0.7")
		u.LastMod = formatDate(ev.StartDate)
		urls = append(urls, u)
	}
	for _, ev := range content.ThirdParty {
		u := page(ev.Path(), "monthly", "0.4")
		u.LastMod = formatDate(ev.StartDate)
		urls = append(urls, u)
	}
	for _, l := range content.Locations {
		urls = append(urls, page(l.URL(), "monthly", "0.3"))
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	})
}
