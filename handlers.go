package cs4teachers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	today := a.Today()
	upcoming, err := a.Cache.UpcomingEvents(ctx, today)
	if err != nil {
		return err
	}
	thirdParty, err := a.Cache.UpcomingThirdPartyEvents(ctx, today)
	if err != nil {
		return err
	}
	series, err := a.seriesSummaries(c, today)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(HomePage{
		Site:             a.siteInfo(),
		Meta:             a.meta("", a.Config.Description, "/"),
		UpcomingEvents:   upcoming,
		Series:           series,
		ThirdPartyEvents: thirdParty,
	}))
}

func (a *App) seriesSummaries(c echo.Context, today time.Time) ([]SeriesSummary, error) {
	ctx := c.Request().Context()
	series, err := a.Cache.Series(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SeriesSummary, 0, len(series))
	for _, s := range series {
		sum := SeriesSummary{Series: s}
		ev, ok, err := a.Cache.ClosestEvent(ctx, s.ID, today)
		if err != nil {
			return nil, err
		}
		if ok {
			sum.Closest = &ev
			sum.DaysAway = DaysDifference(ev.StartDate, ev.EndDate, today)
		}
		out = append(out, sum)
	}
	return out, nil
}

func (a *App) handleEventIndex(c echo.Context) error {
	ctx := c.Request().Context()
	today := a.Today()
	upcoming, err := a.Cache.UpcomingEvents(ctx, today)
	if err != nil {
		return err
	}
	past, err := a.Cache.PastEvents(ctx, today)
	if err != nil {
		return err
	}
	thirdParty, err := a.Cache.UpcomingThirdPartyEvents(ctx, today)
	if err != nil {
		return err
	}
	return Render(c, a.Views.EventIndex(EventIndexPage{
		Site:             a.siteInfo(),
		Meta:             a.meta("Events", "Upcoming and past events.", "/events/"),
		Upcoming:         upcoming,
		Past:             past,
		ThirdPartyEvents: thirdParty,
	}))
}

func (a *App) handleEvent(c echo.Context) error {
	ev, err := a.Store.GetEvent(c.Request().Context(), c.Param("slug"), true)
	if err != nil {
		return a.notFoundOr(c, err)
	}
	return Render(c, a.Views.Event(EventPage{
		Site:     a.siteInfo(),
		Meta:     a.meta(ev.String(), PlainText(ev.Description), ev.URL()),
		Event:    ev,
		DaysAway: DaysDifference(ev.StartDate, ev.EndDate, a.Today()),
	}))
}

func (a *App) handleSeries(c echo.Context) error {
	ctx := c.Request().Context()
	series, err := a.Cache.SeriesBySlug(ctx, c.Param("slug"))
	if err != nil {
		return a.notFoundOr(c, err)
	}
	events, err := a.Cache.SeriesEvents(ctx, series.ID)
	if err != nil {
		return err
	}
	today := a.Today()
	page := SeriesPage{
		Site:   a.siteInfo(),
		Meta:   a.meta(series.Name, series.Subtitle, series.URL()),
		Series: series,
		Events: events,
	}
	if ev, ok := FindClosestEvent(events, today); ok {
		page.Closest = &ev
		page.DaysAway = DaysDifference(ev.StartDate, ev.EndDate, today)
	}
	return Render(c, a.Views.Series(page))
}

func (a *App) handleLocation(c echo.Context) error {
	ctx := c.Request().Context()
	loc, err := a.Store.GetLocation(ctx, c.Param("slug"))
	if err != nil {
		return a.notFoundOr(c, err)
	}
	events, err := a.Store.ListEventsAtLocation(ctx, loc.ID)
	if err != nil {
		return err
	}
	thirdParty, err := a.Store.ListThirdPartyEvents(ctx, EventFilter{PublishedOnly: true, LocationID: loc.ID})
	if err != nil {
		return err
	}
	return Render(c, a.Views.Location(LocationPage{
		Site:             a.siteInfo(),
		Meta:             a.meta(loc.Name, loc.Address, loc.URL()),
		Location:         loc,
		Events:           events,
		ThirdPartyEvents: thirdParty,
	}))
}

func (a *App) handleThirdPartyEvent(c echo.Context) error {
	ev, err := a.Store.GetThirdPartyEvent(c.Request().Context(), c.Param("slug"), true)
	if err != nil {
		return a.notFoundOr(c, err)
	}
	return Render(c, a.Views.ThirdPartyEvent(ThirdPartyEventPage{
		Site:     a.siteInfo(),
		Meta:     a.meta(ev.Name, PlainText(ev.Description), ev.Path()),
		Event:    ev,
		DaysAway: DaysDifference(ev.StartDate, ev.EndDate, a.Today()),
	}))
}

func (a *App) handleResources(c echo.Context) error {
	resources, err := a.Cache.Resources(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.Resources(ResourcesPage{
		Site:  a.siteInfo(),
		Meta:  a.meta("Resources", "Teaching resources from our events.", "/events/resources/"),
		Table: NewResourceTable(resources),
	}))
}

func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	var content sitemapContent
	var err error
	if content.Events, err = a.Cache.Events(ctx); err != nil {
		return err
	}
	if content.ThirdParty, err = a.Cache.ThirdPartyEvents(ctx); err != nil {
		return err
	}
	if content.Series, err = a.Cache.Series(ctx); err != nil {
		return err
	}
	if content.Locations, err = a.Store.ListLocations(ctx, ""); err != nil {
		return err
	}
	return a.renderSitemap(c, content)
}

func (a *App) handleFeed(c echo.Context) error {
	events, err := a.Cache.Events(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, events)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nDisallow: /admin/\nDisallow: /metrics\nSitemap: " + a.Config.URL + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) meta(title, description, path string) PageMeta {
	ogType := "website"
	if title != "" && path != "/" {
		ogType = "article"
	}
	if title == "" {
		title = a.Config.Name
	} else {
		title = title + " | " + a.Config.Name
	}
	return PageMeta{Title: title, Description: description, URL: a.Config.URL + path, OGType: ogType}
}

// notFoundOr renders the 404 page for missing rows and passes other errors on.
func (a *App) notFoundOr(c echo.Context, err error) error {
	if errors.Is(err, ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	return err
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if (ok && he.Code == http.StatusNotFound) || errors.Is(err, ErrNotFound) {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error().Err(err).Str("method", c.Request().Method).Str("uri", c.Request().RequestURI).Msg("server error")
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
