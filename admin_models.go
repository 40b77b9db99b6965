package cs4teachers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const displayDate = "2 Jan 2006"

// adminRecord is a listed record with its display values keyed by field.
type adminRecord struct {
	ID      int64
	Cols    map[string]string
	ViewURL string
}

type adminQuery struct {
	Search  string
	Filters map[string]string
}

// adminModel adapts one entity kind to the generic admin handlers. Form
// values are keyed by field name, with inline children under
// "<prefix>-<index>-<field>".
type adminModel interface {
	list(ctx context.Context, q adminQuery) ([]adminRecord, error)
	values(ctx context.Context, id int64) (url.Values, error)
	save(c echo.Context, id int64, form url.Values) (int64, error)
	remove(ctx context.Context, id int64) error
	choices(ctx context.Context) (map[string][]SelectOption, error)
}

func newAdminModels(a *App) map[EntityKind]adminModel {
	return map[EntityKind]adminModel{
		KindLocation:        locationAdmin{a},
		KindLocationImage:   locationImageAdmin{a},
		KindSeries:          seriesAdmin{a},
		KindSponsor:         sponsorAdmin{a},
		KindResource:        resourceAdmin{a},
		KindEvent:           eventAdmin{a},
		KindEventImage:      eventImageAdmin{a},
		KindThirdPartyEvent: thirdPartyEventAdmin{a},
		KindSession:         sessionAdmin{a},
	}
}

// imageField stores an upload posted for field, falling back to the current
// or cleared value. Upload problems are recorded on the binder.
func (a *App) imageField(c echo.Context, b *formBinder, kind EntityKind, field string) (string, error) {
	rel, ok, err := a.saveUpload(c, b.prefix+field, UploadDir(kind, field))
	if err != nil {
		if ve, isVE := IsValidation(err); isVE {
			for _, msg := range ve.Fields {
				b.fail(field, msg)
			}
			return b.image(field), nil
		}
		return "", err
	}
	if ok {
		return rel, nil
	}
	return b.image(field), nil
}

// Choices

func (a *App) locationOptions(ctx context.Context) ([]SelectOption, error) {
	locs, err := a.Store.ListLocations(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]SelectOption, 0, len(locs))
	for _, l := range locs {
		out = append(out, SelectOption{Value: strconv.FormatInt(l.ID, 10), Label: l.String()})
	}
	return out, nil
}

func (a *App) seriesOptions(ctx context.Context) ([]SelectOption, error) {
	series, err := a.Store.ListSeries(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]SelectOption, 0, len(series))
	for _, s := range series {
		out = append(out, SelectOption{Value: strconv.FormatInt(s.ID, 10), Label: s.String()})
	}
	return out, nil
}

func (a *App) sponsorOptions(ctx context.Context) ([]SelectOption, error) {
	sponsors, err := a.Store.ListSponsors(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]SelectOption, 0, len(sponsors))
	for _, s := range sponsors {
		out = append(out, SelectOption{Value: strconv.FormatInt(s.ID, 10), Label: s.String()})
	}
	return out, nil
}

func (a *App) resourceOptions(ctx context.Context) ([]SelectOption, error) {
	resources, err := a.Store.ListResources(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]SelectOption, 0, len(resources))
	for _, r := range resources {
		out = append(out, SelectOption{Value: strconv.FormatInt(r.ID, 10), Label: r.String()})
	}
	return out, nil
}

func (a *App) eventOptions(ctx context.Context) ([]SelectOption, error) {
	events, err := a.Store.ListEvents(ctx, EventFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]SelectOption, 0, len(events))
	for _, e := range events {
		out = append(out, SelectOption{Value: strconv.FormatInt(e.ID, 10), Label: e.String()})
	}
	return out, nil
}

// Locations

type locationAdmin struct{ a *App }

func (m locationAdmin) list(ctx context.Context, q adminQuery) ([]adminRecord, error) {
	locs, err := m.a.Store.ListLocations(ctx, q.Search)
	if err != nil {
		return nil, err
	}
	out := make([]adminRecord, 0, len(locs))
	for _, l := range locs {
		out = append(out, adminRecord{ID: l.ID, ViewURL: l.URL(), Cols: map[string]string{
			"name": l.Name, "address": l.Address, "geolocation": l.Geolocation,
		}})
	}
	return out, nil
}

func (m locationAdmin) values(ctx context.Context, id int64) (url.Values, error) {
	l, err := m.a.Store.GetLocationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return url.Values{
		"name":        {l.Name},
		"description": {l.Description},
		"address":     {l.Address},
		"geolocation": {l.Geolocation},
		"slug":        {l.Slug},
	}, nil
}

func (m locationAdmin) save(c echo.Context, id int64, form url.Values) (int64, error) {
	b := newFormBinder(form, "", m.a.tz)
	l := Location{
		ID:          id,
		Name:        b.str("name"),
		Description: b.str("description"),
		Address:     b.str("address"),
		Geolocation: b.str("geolocation"),
	}
	if err := b.result(&l); err != nil {
		return 0, err
	}
	ctx := c.Request().Context()
	if id == 0 {
		err := m.a.Store.CreateLocation(ctx, &l)
		return l.ID, err
	}
	return id, m.a.Store.UpdateLocation(ctx, &l)
}

func (m locationAdmin) remove(ctx context.Context, id int64) error {
	return m.a.Store.DeleteLocation(ctx, id)
}

func (m locationAdmin) choices(context.Context) (map[string][]SelectOption, error) { return nil, nil }

// Location images

type locationImageAdmin struct{ a *App }

func (m locationImageAdmin) list(ctx context.Context, q adminQuery) ([]adminRecord, error) {
	imgs, err := m.a.Store.ListLocationImages(ctx, 0)
	if err != nil {
		return nil, err
	}
	names := map[int64]string{}
	locs, err := m.a.Store.ListLocations(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, l := range locs {
		names[l.ID] = l.Name
	}
	var out []adminRecord
	for _, img := range imgs {
		if !matches(q.Search, img.Name) {
			continue
		}
		out = append(out, adminRecord{ID: img.ID, ViewURL: MediaURL(img.Image), Cols: map[string]string{
			"name": img.Name, "image": img.Image, "location": names[img.LocationID],
		}})
	}
	return out, nil
}

func (m locationImageAdmin) values(ctx context.Context, id int64) (url.Values, error) {
	img, err := m.a.Store.GetLocationImage(ctx, id)
	if err != nil {
		return nil, err
	}
	return url.Values{
		"name":          {img.Name},
		"image-current": {img.Image},
		"location":      {strconv.FormatInt(img.LocationID, 10)},
	}, nil
}

func (m locationImageAdmin) save(c echo.Context, id int64, form url.Values) (int64, error) {
	b := newFormBinder(form, "", m.a.tz)
	image, err := m.a.imageField(c, b, KindLocationImage, "image")
	if err != nil {
		return 0, err
	}
	img := LocationImage{ID: id, Name: b.str("name"), Image: image, LocationID: b.requiredID("location")}
	if err := b.result(&img); err != nil {
		return 0, err
	}
	ctx := c.Request().Context()
	if id == 0 {
		err := m.a.Store.CreateLocationImage(ctx, &img)
		return img.ID, err
	}
	return id, m.a.Store.UpdateLocationImage(ctx, &img)
}

func (m locationImageAdmin) remove(ctx context.Context, id int64) error {
	img, err := m.a.Store.DeleteLocationImage(ctx, id)
	if err != nil {
		return err
	}
	m.a.removeUpload(img.Image)
	return nil
}

func (m locationImageAdmin) choices(ctx context.Context) (map[string][]SelectOption, error) {
	locs, err := m.a.locationOptions(ctx)
	return map[string][]SelectOption{"location": locs}, err
}

// Series

type seriesAdmin struct{ a *App }

func (m seriesAdmin) list(ctx context.Context, q adminQuery) ([]adminRecord, error) {
	series, err := m.a.Store.ListSeries(ctx, q.Search)
	if err != nil {
		return nil, err
	}
	today := m.a.Today()
	out := make([]adminRecord, 0, len(series))
	for _, s := range series {
		rec := adminRecord{ID: s.ID, ViewURL: s.URL(), Cols: map[string]string{
			"name": s.Name, "subtitle": s.Subtitle, "logo": s.Logo,
		}}
		ev, ok, err := m.a.Store.FindClosestEvent(ctx, s.ID, today)
		if err != nil {
			return nil, err
		}
		if ok {
			rec.Cols["closest_event"] = ev.Name + " (" + ev.StartDate.Format(displayDate) + ")"
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m seriesAdmin) values(ctx context.Context, id int64) (url.Values, error) {
	s, err := m.a.Store.GetSeriesByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return url.Values{
		"name":         {s.Name},
		"subtitle":     {s.Subtitle},
		"logo-current": {s.Logo},
		"description":  {s.Description},
	}, nil
}

func (m seriesAdmin) save(c echo.Context, id int64, form url.Values) (int64, error) {
	b := newFormBinder(form, "", m.a.tz)
	logo, err := m.a.imageField(c, b, KindSeries, "logo")
	if err != nil {
		return 0, err
	}
	s := Series{ID: id, Name: b.str("name"), Subtitle: b.str("subtitle"), Logo: logo, Description: b.str("description")}
	if err := b.result(&s); err != nil {
		return 0, err
	}
	ctx := c.Request().Context()
	if id == 0 {
		err := m.a.Store.CreateSeries(ctx, &s)
		return s.ID, err
	}
	return id, m.a.Store.UpdateSeries(ctx, &s)
}

func (m seriesAdmin) remove(ctx context.Context, id int64) error {
	return m.a.Store.DeleteSeries(ctx, id)
}

func (m seriesAdmin) choices(context.Context) (map[string][]SelectOption, error) { return nil, nil }

// Sponsors

type sponsorAdmin struct{ a *App }

func (m sponsorAdmin) list(ctx context.Context, q adminQuery) ([]adminRecord, error) {
	sponsors, err := m.a.Store.ListSponsors(ctx, q.Search)
	if err != nil {
		return nil, err
	}
	out := make([]adminRecord, 0, len(sponsors))
	for _, s := range sponsors {
		out = append(out, adminRecord{ID: s.ID, ViewURL: s.URL, Cols: map[string]string{
			"name": s.Name, "url": s.URL, "logo": s.Logo,
		}})
	}
	return out, nil
}

func (m sponsorAdmin) values(ctx context.Context, id int64) (url.Values, error) {
	s, err := m.a.Store.GetSponsor(ctx, id)
	if err != nil {
		return nil, err
	}
	return url.Values{"name": {s.Name}, "url": {s.URL}, "logo-current": {s.Logo}}, nil
}

func (m sponsorAdmin) save(c echo.Context, id int64, form url.Values) (int64, error) {
	b := newFormBinder(form, "", m.a.tz)
	logo, err := m.a.imageField(c, b, KindSponsor, "logo")
	if err != nil {
		return 0, err
	}
	s := Sponsor{ID: id, Name: b.str("name"), URL: b.str("url"), Logo: logo}
	if err := b.result(&s); err != nil {
		return 0, err
	}
	ctx := c.Request().Context()
	if id == 0 {
		err := m.a.Store.CreateSponsor(ctx, &s)
		return s.ID, err
	}
	return id, m.a.Store.UpdateSponsor(ctx, &s)
}

func (m sponsorAdmin) remove(ctx context.Context, id int64) error {
	return m.a.Store.DeleteSponsor(ctx, id)
}

func (m sponsorAdmin) choices(context.Context) (map[string][]SelectOption, error) { return nil, nil }

// Resources

type resourceAdmin struct{ a *App }

func (m resourceAdmin) list(ctx context.Context, q adminQuery) ([]adminRecord, error) {
	resources, err := m.a.Store.ListResources(ctx, q.Search)
	if err != nil {
		return nil, err
	}
	out := make([]adminRecord, 0, len(resources))
	for _, r := range resources {
		out = append(out, adminRecord{ID: r.ID, ViewURL: r.URL, Cols: map[string]string{
			"name": r.Name, "url": r.URL, "image": r.Image,
		}})
	}
	return out, nil
}

func (m resourceAdmin) values(ctx context.Context, id int64) (url.Values, error) {
	r, err := m.a.Store.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	return url.Values{
		"name":          {r.Name},
		"url":           {r.URL},
		"description":   {r.Description},
		"image-current": {r.Image},
		"slug":          {r.Slug},
	}, nil
}

func (m resourceAdmin) save(c echo.Context, id int64, form url.Values) (int64, error) {
	b := newFormBinder(form, "", m.a.tz)
	image, err := m.a.imageField(c, b, KindResource, "image")
	if err != nil {
		return 0, err
	}
	r := Resource{ID: id, Name: b.str("name"), URL: b.str("url"), Description: b.str("description"), Image: image}
	if err := b.result(&r); err != nil {
		return 0, err
	}
	ctx := c.Request().Context()
	if id == 0 {
		err := m.a.Store.CreateResource(ctx, &r)
		return r.ID, err
	}
	return id, m.a.Store.UpdateResource(ctx, &r)
}

func (m resourceAdmin) remove(ctx context.Context, id int64) error {
	return m.a.Store.DeleteResource(ctx, id)
}

func (m resourceAdmin) choices(context.Context) (map[string][]SelectOption, error) { return nil, nil }

// Events

type eventAdmin struct{ a *App }

func (m eventAdmin) list(ctx context.Context, q adminQuery) ([]adminRecord, error) {
	events, err := m.a.Store.ListEvents(ctx, EventFilter{Query: q.Search, Published: q.Filters["is_published"]})
	if err != nil {
		return nil, err
	}
	out := make([]adminRecord, 0, len(events))
	for _, e := range events {
		rec := adminRecord{ID: e.ID, ViewURL: e.URL(), Cols: map[string]string{
			"name":         e.Name,
			"start_date":   e.StartDate.Format(displayDate),
			"end_date":     e.EndDate.Format(displayDate),
			"is_published": yesNo(e.IsPublished),
			"series":       "-",
			"location":     "-",
		}}
		if e.Series != nil {
			rec.Cols["series"] = e.Series.Name
		}
		if e.Location != nil {
			rec.Cols["location"] = e.Location.Name
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m eventAdmin) values(ctx context.Context, id int64) (url.Values, error) {
	e, err := m.a.Store.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	loc := m.a.tz
	v := url.Values{
		"name":         {e.Name},
		"description":  {e.Description},
		"start_date":   {dateValue(e.StartDate)},
		"end_date":     {dateValue(e.EndDate)},
		"series":       {idString(e.SeriesID)},
		"location":     {idString(e.LocationID)},
		"sponsors":     idStrings(e.SponsorIDs),
		"is_published": {checkbox(e.IsPublished)},
		"slug":         {e.Slug},
	}
	prefix := inlinePrefix(KindSession)
	v.Set(initialKey(prefix), strconv.Itoa(len(e.Sessions)))
	for i, s := range e.Sessions {
		sessionValues(v, fmt.Sprintf("%s-%d-", prefix, i), s, loc)
	}
	return v, nil
}

func sessionValues(v url.Values, p string, s Session, loc *time.Location) {
	v.Set(p+"id", strconv.FormatInt(s.ID, 10))
	v.Set(p+"event", strconv.FormatInt(s.EventID, 10))
	v.Set(p+"name", s.Name)
	v.Set(p+"description", s.Description)
	v.Set(p+"image-current", s.Image)
	v.Set(p+"start_datetime", dateTimeValue(s.StartDatetime, loc))
	v.Set(p+"end_datetime", dateTimeValue(s.EndDatetime, loc))
	v[p+"locations"] = idStrings(s.LocationIDs)
	v[p+"resources"] = idStrings(s.ResourceIDs)
}

func (m eventAdmin) save(c echo.Context, id int64, form url.Values) (int64, error) {
	loc := m.a.tz
	b := newFormBinder(form, "", loc)
	e := Event{
		ID:          id,
		Slug:        b.str("slug"),
		Name:        b.str("name"),
		Description: b.str("description"),
		StartDate:   b.date("start_date"),
		EndDate:     b.date("end_date"),
		IsPublished: b.bool("is_published"),
		SeriesID:    b.id("series"),
		LocationID:  b.id("location"),
		SponsorIDs:  b.ids("sponsors"),
	}

	prefix := inlinePrefix(KindSession)
	var (
		edits    SessionEdits
		indexMap []int
		errs     = map[string]string{}
	)
	total, _ := strconv.Atoi(form.Get(totalKey(prefix)))
	for i := 0; i < total; i++ {
		sb := newFormBinder(form, fmt.Sprintf("%s-%d-", prefix, i), loc)
		sid, _ := strconv.ParseInt(sb.str("id"), 10, 64)
		if sb.bool("DELETE") {
			if sid != 0 {
				edits.Delete = append(edits.Delete, sid)
			}
			continue
		}
		image, err := m.a.imageField(c, sb, KindSession, "image")
		if err != nil {
			return 0, err
		}
		if sid == 0 && image == "" && sb.blank("name", "description", "start_datetime", "end_datetime", "locations", "resources") {
			continue
		}
		sess := Session{
			ID:            sid,
			EventID:       id,
			Name:          sb.str("name"),
			Description:   sb.str("description"),
			Image:         image,
			StartDatetime: sb.datetime("start_datetime"),
			EndDatetime:   sb.datetime("end_datetime"),
			LocationIDs:   sb.ids("locations"),
			ResourceIDs:   sb.ids("resources"),
		}
		if ve, ok := IsValidation(sb.result(&sess, "event")); ok {
			for k, v := range ve.Fields {
				errs[k] = v
			}
		}
		edits.Save = append(edits.Save, sess)
		indexMap = append(indexMap, i)
	}

	if len(b.errs) > 0 || len(errs) > 0 {
		if ve, ok := IsValidation(Validate(&e)); ok {
			for k, v := range adminErrors(ve, nil) {
				errs[k] = v
			}
		}
		for k, v := range b.errs {
			errs[k] = v
		}
		return 0, ValidationError{Fields: errs}
	}

	if err := m.a.Store.SaveEvent(c.Request().Context(), &e, edits); err != nil {
		if ve, ok := IsValidation(err); ok {
			return 0, ValidationError{Fields: adminErrors(ve, indexMap)}
		}
		return 0, err
	}
	return e.ID, nil
}

func (m eventAdmin) remove(ctx context.Context, id int64) error {
	return m.a.Store.DeleteEvent(ctx, id)
}

func (m eventAdmin) choices(ctx context.Context) (map[string][]SelectOption, error) {
	series, err := m.a.seriesOptions(ctx)
	if err != nil {
		return nil, err
	}
	locs, err := m.a.locationOptions(ctx)
	if err != nil {
		return nil, err
	}
	sponsors, err := m.a.sponsorOptions(ctx)
	if err != nil {
		return nil, err
	}
	resources, err := m.a.resourceOptions(ctx)
	if err != nil {
		return nil, err
	}
	return map[string][]SelectOption{
		"series":    series,
		"location":  locs,
		"sponsors":  sponsors,
		"locations": locs,
		"resources": resources,
	}, nil
}

// Event images

type eventImageAdmin struct{ a *App }

func (m eventImageAdmin) list(ctx context.Context, q adminQuery) ([]adminRecord, error) {
	imgs, err := m.a.Store.ListEventImages(ctx, 0)
	if err != nil {
		return nil, err
	}
	events, err := m.a.Store.ListEvents(ctx, EventFilter{})
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(events))
	for _, e := range events {
		names[e.ID] = e.String()
	}
	var out []adminRecord
	for _, img := range imgs {
		if !matches(q.Search, img.Name) {
			continue
		}
		out = append(out, adminRecord{ID: img.ID, ViewURL: MediaURL(img.Image), Cols: map[string]string{
			"name": img.Name, "image": img.Image, "event": names[img.EventID],
		}})
	}
	return out, nil
}

func (m eventImageAdmin) values(ctx context.Context, id int64) (url.Values, error) {
	img, err := m.a.Store.GetEventImage(ctx, id)
	if err != nil {
		return nil, err
	}
	return url.Values{
		"name":          {img.Name},
		"image-current": {img.Image},
		"event":         {strconv.FormatInt(img.EventID, 10)},
	}, nil
}

func (m eventImageAdmin) save(c echo.Context, id int64, form url.Values) (int64, error) {
	b := newFormBinder(form, "", m.a.tz)
	image, err := m.a.imageField(c, b, KindEventImage, "image")
	if err != nil {
		return 0, err
	}
	img := EventImage{ID: id, Name: b.str("name"), Image: image, EventID: b.requiredID("event")}
	if err := b.result(&img); err != nil {
		return 0, err
	}
	ctx := c.Request().Context()
	if id == 0 {
		err := m.a.Store.CreateEventImage(ctx, &img)
		return img.ID, err
	}
	return id, m.a.Store.UpdateEventImage(ctx, &img)
}

func (m eventImageAdmin) remove(ctx context.Context, id int64) error {
	img, err := m.a.Store.DeleteEventImage(ctx, id)
	if err != nil {
		return err
	}
	m.a.removeUpload(img.Image)
	return nil
}

func (m eventImageAdmin) choices(ctx context.Context) (map[string][]SelectOption, error) {
	events, err := m.a.eventOptions(ctx)
	return map[string][]SelectOption{"event": events}, err
}

// Third party events

type thirdPartyEventAdmin struct{ a *App }

func (m thirdPartyEventAdmin) list(ctx context.Context, q adminQuery) ([]adminRecord, error) {
	events, err := m.a.Store.ListThirdPartyEvents(ctx, EventFilter{Query: q.Search, Published: q.Filters["is_published"]})
	if err != nil {
		return nil, err
	}
	out := make([]adminRecord, 0, len(events))
	for _, e := range events {
		rec := adminRecord{ID: e.ID, ViewURL: e.Path(), Cols: map[string]string{
			"name":         e.Name,
			"url":          e.URL,
			"start_date":   e.StartDate.Format(displayDate),
			"end_date":     e.EndDate.Format(displayDate),
			"is_published": yesNo(e.IsPublished),
			"location":     "-",
		}}
		if e.Location != nil {
			rec.Cols["location"] = e.Location.Name
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m thirdPartyEventAdmin) values(ctx context.Context, id int64) (url.Values, error) {
	e, err := m.a.Store.GetThirdPartyEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return url.Values{
		"name":         {e.Name},
		"url":          {e.URL},
		"start_date":   {dateValue(e.StartDate)},
		"end_date":     {dateValue(e.EndDate)},
		"description":  {e.Description},
		"location":     {idString(e.LocationID)},
		"is_published": {checkbox(e.IsPublished)},
		"slug":         {e.Slug},
	}, nil
}

func (m thirdPartyEventAdmin) save(c echo.Context, id int64, form url.Values) (int64, error) {
	b := newFormBinder(form, "", m.a.tz)
	e := ThirdPartyEvent{
		ID:          id,
		Slug:        b.str("slug"),
		Name:        b.str("name"),
		URL:         b.str("url"),
		StartDate:   b.date("start_date"),
		EndDate:     b.date("end_date"),
		Description: b.str("description"),
		LocationID:  b.id("location"),
		IsPublished: b.bool("is_published"),
	}
	if err := b.result(&e); err != nil {
		return 0, err
	}
	ctx := c.Request().Context()
	if id == 0 {
		err := m.a.Store.CreateThirdPartyEvent(ctx, &e)
		return e.ID, err
	}
	return id, m.a.Store.UpdateThirdPartyEvent(ctx, &e)
}

func (m thirdPartyEventAdmin) remove(ctx context.Context, id int64) error {
	return m.a.Store.DeleteThirdPartyEvent(ctx, id)
}

func (m thirdPartyEventAdmin) choices(ctx context.Context) (map[string][]SelectOption, error) {
	locs, err := m.a.locationOptions(ctx)
	return map[string][]SelectOption{"location": locs}, err
}

// Sessions

type sessionAdmin struct{ a *App }

func (m sessionAdmin) list(ctx context.Context, q adminQuery) ([]adminRecord, error) {
	f := SessionFilter{Query: q.Search}
	if id, err := strconv.ParseInt(q.Filters["event"], 10, 64); err == nil {
		f.EventID = id
	}
	sessions, err := m.a.Store.ListSessions(ctx, f)
	if err != nil {
		return nil, err
	}
	loc := m.a.tz
	out := make([]adminRecord, 0, len(sessions))
	for _, s := range sessions {
		rec := adminRecord{ID: s.ID, Cols: map[string]string{
			"name":           s.Name,
			"start_datetime": s.StartDatetime.In(loc).Format(displayDate + " 15:04"),
			"end_datetime":   s.EndDatetime.In(loc).Format(displayDate + " 15:04"),
		}}
		if s.Event != nil {
			rec.Cols["event"] = s.Event.Name
			rec.ViewURL = s.Event.URL()
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m sessionAdmin) values(ctx context.Context, id int64) (url.Values, error) {
	s, err := m.a.Store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	v := url.Values{}
	sessionValues(v, "", s, m.a.tz)
	v.Del("id")
	v.Set("slug", s.Slug)
	return v, nil
}

func (m sessionAdmin) save(c echo.Context, id int64, form url.Values) (int64, error) {
	b := newFormBinder(form, "", m.a.tz)
	image, err := m.a.imageField(c, b, KindSession, "image")
	if err != nil {
		return 0, err
	}
	s := Session{
		ID:            id,
		EventID:       b.requiredID("event"),
		Name:          b.str("name"),
		Description:   b.str("description"),
		Image:         image,
		StartDatetime: b.datetime("start_datetime"),
		EndDatetime:   b.datetime("end_datetime"),
		LocationIDs:   b.ids("locations"),
		ResourceIDs:   b.ids("resources"),
	}
	if err := b.result(&s); err != nil {
		return 0, err
	}
	ctx := c.Request().Context()
	if id == 0 {
		err := m.a.Store.CreateSession(ctx, &s)
		return s.ID, err
	}
	return id, m.a.Store.UpdateSession(ctx, &s)
}

func (m sessionAdmin) remove(ctx context.Context, id int64) error {
	return m.a.Store.DeleteSession(ctx, id)
}

func (m sessionAdmin) choices(ctx context.Context) (map[string][]SelectOption, error) {
	events, err := m.a.eventOptions(ctx)
	if err != nil {
		return nil, err
	}
	locs, err := m.a.locationOptions(ctx)
	if err != nil {
		return nil, err
	}
	resources, err := m.a.resourceOptions(ctx)
	if err != nil {
		return nil, err
	}
	return map[string][]SelectOption{"event": events, "locations": locs, "resources": resources}, nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func matches(query, s string) bool {
	return query == "" || strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(query)))
}
