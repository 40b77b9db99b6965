package cs4teachers

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testLocation(t *testing.T, s *Store, name string) Location {
	t.Helper()
	l := Location{Name: name, Address: "Science Rd, Ilam", Geolocation: "-43.5225594, 172.5811949"}
	require.NoError(t, s.CreateLocation(context.Background(), &l))
	return l
}

func testEvent(t *testing.T, s *Store, name string, seriesID *int64, start time.Time, published bool) Event {
	t.Helper()
	e := Event{
		Name:        name,
		Description: "<p>About " + name + "</p>",
		StartDate:   start,
		EndDate:     start,
		IsPublished: published,
		SeriesID:    seriesID,
	}
	require.NoError(t, s.CreateEvent(context.Background(), &e))
	return e
}

func testSession(name string, start time.Time) Session {
	return Session{Name: name, StartDatetime: start, EndDatetime: start.Add(time.Hour)}
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "site.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	defer s.Close()
	assert.FileExists(t, path)
}

func TestReopenStoreKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	testLocation(t, s, "Erskine Building")
	require.NoError(t, s.Close())

	s, err = NewStore(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.GetLocation(context.Background(), "erskine-building")
	require.NoError(t, err)
	assert.Equal(t, "Erskine Building", got.Name)
}

func TestLocationSlugsAreDisambiguated(t *testing.T) {
	s := newTestStore(t)
	first := testLocation(t, s, "Campus Tour")
	second := testLocation(t, s, "Campus Tour")

	assert.Equal(t, "campus-tour", first.Slug)
	assert.Equal(t, "campus-tour-2", second.Slug)
	assert.Equal(t, "-43.5225594,172.5811949", first.Geolocation)
}

func TestLocationSlugIsImmutable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	l := testLocation(t, s, "Erskine Building")

	l.Name = "Jack Erskine Building"
	require.NoError(t, s.UpdateLocation(ctx, &l))

	got, err := s.GetLocation(ctx, "erskine-building")
	require.NoError(t, err)
	assert.Equal(t, "Jack Erskine Building", got.Name)
	assert.Equal(t, "erskine-building", got.Slug)
}

func TestCreateLocationValidation(t *testing.T) {
	s := newTestStore(t)
	l := Location{Name: "", Address: "", Geolocation: "north"}
	err := s.CreateLocation(context.Background(), &l)

	ve, ok := IsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Contains(t, ve.Fields, "name")
	assert.Contains(t, ve.Fields, "address")
	assert.Contains(t, ve.Fields, "geolocation")
}

func TestEventSlugUsesSeriesPrefix(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	sr := Series{Name: "CS4T", Description: "Workshops"}
	require.NoError(t, s.CreateSeries(ctx, &sr))

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	withSeries := testEvent(t, s, "Hackathon", &sr.ID, day, true)
	standalone := testEvent(t, s, "Hackathon", nil, day, true)

	assert.Equal(t, "cs4t-hackathon", withSeries.Slug)
	assert.Equal(t, "hackathon", standalone.Slug)

	// Renaming or re-parenting never regenerates the slug.
	withSeries.Name = "Winter Hackathon"
	withSeries.SeriesID = nil
	require.NoError(t, s.UpdateEvent(ctx, &withSeries))
	got, err := s.GetEventByID(ctx, withSeries.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs4t-hackathon", got.Slug)
	assert.Equal(t, "Winter Hackathon", got.Name)
}

func TestEventAndThirdPartySlugScopesAreSeparate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ev := testEvent(t, s, "Open Day", nil, day, true)

	tp := ThirdPartyEvent{Name: "Open Day", Description: "x", StartDate: day, EndDate: day, URL: "https://example.org/"}
	require.NoError(t, s.CreateThirdPartyEvent(ctx, &tp))
	assert.Equal(t, ev.Slug, tp.Slug)
}

func TestSessionSlugsAreScopedToEvent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	openDay := testEvent(t, s, "Open Day 2024", nil, day, true)
	other := testEvent(t, s, "Teacher Day", nil, day, true)

	intro := testSession("Intro", day.Add(9*time.Hour))
	intro.EventID = openDay.ID
	require.NoError(t, s.CreateSession(ctx, &intro))

	again := testSession("Intro", day.Add(11*time.Hour))
	again.EventID = openDay.ID
	require.NoError(t, s.CreateSession(ctx, &again))

	elsewhere := testSession("Intro", day.Add(9*time.Hour))
	elsewhere.EventID = other.ID
	require.NoError(t, s.CreateSession(ctx, &elsewhere))

	assert.Equal(t, "open-day-2024", openDay.Slug)
	assert.Equal(t, "intro", intro.Slug)
	assert.Equal(t, "intro-2", again.Slug)
	assert.Equal(t, "intro", elsewhere.Slug)
}

func TestMovedSessionSlugIsDisambiguatedInNewEvent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	first := testEvent(t, s, "Open Day", nil, day, true)
	second := testEvent(t, s, "Teacher Day", nil, day, true)

	stay := testSession("Intro", day.Add(9*time.Hour))
	stay.EventID = first.ID
	require.NoError(t, s.CreateSession(ctx, &stay))
	move := testSession("Intro", day.Add(9*time.Hour))
	move.EventID = second.ID
	require.NoError(t, s.CreateSession(ctx, &move))
	require.Equal(t, "intro", move.Slug)

	move.EventID = first.ID
	require.NoError(t, s.UpdateSession(ctx, &move))
	assert.Equal(t, "intro-2", move.Slug)

	got, err := s.GetSession(ctx, move.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.EventID)
	assert.Equal(t, "intro-2", got.Slug)

	// Staying in the same event never changes the slug.
	got.Name = "Welcome"
	require.NoError(t, s.UpdateSession(ctx, &got))
	assert.Equal(t, "intro-2", got.Slug)
}

func TestSaveEventCannotClaimAnotherEventsSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mine := testEvent(t, s, "Open Day", nil, day, true)
	theirs := testEvent(t, s, "Teacher Day", nil, day, true)

	other := testSession("Workshop", day.Add(9*time.Hour))
	other.EventID = theirs.ID
	require.NoError(t, s.CreateSession(ctx, &other))

	err := s.SaveEvent(ctx, &mine, SessionEdits{Save: []Session{other}})
	ve, ok := IsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Contains(t, ve.Fields, "sessions-0-id")

	got, err := s.GetSession(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, theirs.ID, got.EventID)

	require.NoError(t, s.SaveEvent(ctx, &mine, SessionEdits{Delete: []int64{other.ID}}))
	_, err = s.GetSession(ctx, other.ID)
	assert.NoError(t, err)
}

func TestSaveEventWithInlineSessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	loc := testLocation(t, s, "Lab")
	res := Resource{Name: "Unplugged", URL: "https://csunplugged.org/"}
	require.NoError(t, s.CreateResource(ctx, &res))

	day := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
	e := Event{Name: "Summit", Description: "<p>Summit</p>", StartDate: day, EndDate: day.AddDate(0, 0, 1), IsPublished: true}
	first := testSession("Keynote", day.Add(9*time.Hour))
	first.LocationIDs = []int64{loc.ID}
	first.ResourceIDs = []int64{res.ID}
	require.NoError(t, s.SaveEvent(ctx, &e, SessionEdits{Save: []Session{first, testSession("Lunch", day.Add(12*time.Hour))}}))

	got, err := s.GetEvent(ctx, "summit", true)
	require.NoError(t, err)
	require.Len(t, got.Sessions, 2)
	assert.Equal(t, "Keynote", got.Sessions[0].Name)
	require.Len(t, got.Sessions[0].Locations, 1)
	assert.Equal(t, "Lab", got.Sessions[0].Locations[0].Name)
	require.Len(t, got.Sessions[0].Resources, 1)

	// Delete one session and rename the other in a second save.
	keep := got.Sessions[0]
	keep.Name = "Opening keynote"
	require.NoError(t, s.SaveEvent(ctx, &got, SessionEdits{Save: []Session{keep}, Delete: []int64{got.Sessions[1].ID}}))

	sessions, err := s.ListSessions(ctx, SessionFilter{EventID: e.ID})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Opening keynote", sessions[0].Name)
	assert.Equal(t, "keynote", sessions[0].Slug)
}

func TestSaveEventSessionErrorsArePrefixedAndRolledBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	day := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
	e := Event{Name: "Summit", Description: "x", StartDate: day, EndDate: day}
	bad := testSession("Broken", day.Add(10*time.Hour))
	bad.EndDatetime = day.Add(9 * time.Hour)

	err := s.SaveEvent(ctx, &e, SessionEdits{Save: []Session{testSession("Fine", day), bad}})
	ve, ok := IsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Contains(t, ve.Fields, "sessions-1-end_datetime")

	events, err := s.ListEvents(ctx, EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventEndBeforeStartIsRejected(t *testing.T) {
	s := newTestStore(t)
	day := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
	e := Event{Name: "Backwards", Description: "x", StartDate: day, EndDate: day.AddDate(0, 0, -1)}
	ve, ok := IsValidation(s.CreateEvent(context.Background(), &e))
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "end_date")
}

func TestDeleteEventCascadesToSessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	e := Event{Name: "Workshop", Description: "x", StartDate: day, EndDate: day}
	require.NoError(t, s.SaveEvent(ctx, &e, SessionEdits{Save: []Session{testSession("Part 1", day), testSession("Part 2", day)}}))

	require.NoError(t, s.DeleteEvent(ctx, e.ID))

	sessions, err := s.ListSessions(ctx, SessionFilter{})
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.ErrorIs(t, s.DeleteEvent(ctx, e.ID), ErrNotFound)
}

func TestDeleteEventWithImagesIsInUse(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	e := testEvent(t, s, "Gallery", nil, day, true)
	img := EventImage{EventID: e.ID, Name: "Group photo", Image: "uploads/events/events/images/group.jpg"}
	require.NoError(t, s.CreateEventImage(ctx, &img))

	assert.ErrorIs(t, s.DeleteEvent(ctx, e.ID), ErrInUse)

	removed, err := s.DeleteEventImage(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, img.Image, removed.Image)
	require.NoError(t, s.DeleteEvent(ctx, e.ID))
}

func TestDeleteLocationKeepsEvents(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	loc := testLocation(t, s, "Old Hall")
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	e := Event{Name: "Meetup", Description: "x", StartDate: day, EndDate: day, LocationID: &loc.ID}
	require.NoError(t, s.CreateEvent(ctx, &e))

	require.NoError(t, s.DeleteLocation(ctx, loc.ID))
	got, err := s.GetEventByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LocationID)
}

func TestSponsorNamesAreUnique(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateSponsor(ctx, &Sponsor{Name: "Acme", URL: "https://acme.example/"}))

	err := s.CreateSponsor(ctx, &Sponsor{Name: "Acme", URL: "https://other.example/"})
	assert.True(t, errors.Is(err, ErrDuplicate), "got %v", err)
	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "name")
}

func TestSponsorURLMustBeHTTP(t *testing.T) {
	err := newTestStore(t).CreateSponsor(context.Background(), &Sponsor{Name: "Acme", URL: "ftp://acme.example/"})
	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "Enter a valid URL.", ve.Fields["url"])
}

func TestListEventsFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	sr := Series{Name: "Roadshow", Description: "x"}
	require.NoError(t, s.CreateSeries(ctx, &sr))
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	testEvent(t, s, "Past", &sr.ID, base.AddDate(0, 0, -10), true)
	testEvent(t, s, "Draft", &sr.ID, base.AddDate(0, 0, 5), false)
	testEvent(t, s, "Future", nil, base.AddDate(0, 0, 3), true)

	published, err := s.ListEvents(ctx, EventFilter{PublishedOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Past", "Future"}, eventNames(published))

	inSeries, err := s.ListEvents(ctx, EventFilter{SeriesID: sr.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"Past", "Draft"}, eventNames(inSeries))

	upcoming, err := s.ListEvents(ctx, EventFilter{PublishedOnly: true, EndsOnOrAfter: base})
	require.NoError(t, err)
	assert.Equal(t, []string{"Future"}, eventNames(upcoming))

	drafts, err := s.ListEvents(ctx, EventFilter{Published: "0", Query: "dra"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Draft"}, eventNames(drafts))
}

func TestClosestEventSkipsUnpublished(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	sr := Series{Name: "Roadshow", Description: "x"}
	require.NoError(t, s.CreateSeries(ctx, &sr))
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	testEvent(t, s, "Last month", &sr.ID, today.AddDate(0, -1, 0), true)
	testEvent(t, s, "Tomorrow draft", &sr.ID, today.AddDate(0, 0, 1), false)
	testEvent(t, s, "Next week", &sr.ID, today.AddDate(0, 0, 7), true)

	ev, ok, err := s.FindClosestEvent(ctx, sr.ID, today)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Next week", ev.Name)

	empty := Series{Name: "Empty", Description: "x"}
	require.NoError(t, s.CreateSeries(ctx, &empty))
	_, ok, err = s.FindClosestEvent(ctx, empty.ID, today)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetEventPublishedOnly(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	testEvent(t, s, "Secret", nil, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), false)

	_, err := s.GetEvent(ctx, "secret", true)
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := s.GetEvent(ctx, "secret", false)
	require.NoError(t, err)
	assert.False(t, got.IsPublished)
}

func TestRichTextIsSanitized(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	e := Event{Name: "<b>Bold</b> name", Description: `<p onclick="x()">Hi<script>alert(1)</script></p>`, StartDate: day, EndDate: day}
	require.NoError(t, s.CreateEvent(ctx, &e))

	got, err := s.GetEventByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bold name", got.Name)
	assert.Equal(t, "<p>Hi</p>", got.Description)
}

func TestSeedDemoData(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, SeedDemoData(ctx, s, SeedOptions{
		Series: 2, Locations: 2, Sponsors: 1, Resources: 2, EventsPerSeries: 3, ThirdPartyEvents: 2, Today: today,
	}))

	events, err := s.ListEvents(ctx, EventFilter{PublishedOnly: true})
	require.NoError(t, err)
	assert.Len(t, events, 6)
	assert.Equal(t, "series-1-event-1", events[0].Slug)

	detail, err := s.GetEventByID(ctx, events[0].ID)
	require.NoError(t, err)
	assert.Len(t, detail.Sessions, 2)
	assert.Len(t, detail.Sponsors, 1)

	tp, err := s.ListThirdPartyEvents(ctx, EventFilter{})
	require.NoError(t, err)
	assert.Len(t, tp, 2)
}

func eventNames(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Name)
	}
	return out
}
