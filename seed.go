package cs4teachers

import (
	"context"
	"fmt"
	"time"
)

// SeedOptions controls the amount of demo content SeedDemoData creates.
type SeedOptions struct {
	Series           int
	Locations        int
	Sponsors         int
	Resources        int
	EventsPerSeries  int
	ThirdPartyEvents int
	// Today anchors event dates. Events are spread either side of it.
	Today time.Time
}

// SeedDemoData fills an empty store with numbered demo records: each series
// gets events a fortnight apart centred on Today, and each event gets two
// sessions.
func SeedDemoData(ctx context.Context, s *Store, o SeedOptions) error {
	if o.Today.IsZero() {
		now := time.Now().UTC()
		o.Today = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	var locations []Location
	for i := 1; i <= o.Locations; i++ {
		l := Location{
			Name:        fmt.Sprintf("Location %d", i),
			Description: fmt.Sprintf("<p>Description for Location %d</p>", i),
			Address:     "Erskine Building, Science Rd, Ilam, Christchurch",
			Geolocation: "-43.5225594,172.5811949",
		}
		if err := s.CreateLocation(ctx, &l); err != nil {
			return fmt.Errorf("seed location %d: %w", i, err)
		}
		locations = append(locations, l)
	}

	var sponsorIDs []int64
	for i := 1; i <= o.Sponsors; i++ {
		sp := Sponsor{Name: fmt.Sprintf("Sponsor %d", i), URL: fmt.Sprintf("https://www.%d.com/", i)}
		if err := s.CreateSponsor(ctx, &sp); err != nil {
			return fmt.Errorf("seed sponsor %d: %w", i, err)
		}
		sponsorIDs = append(sponsorIDs, sp.ID)
	}

	var resourceIDs []int64
	for i := 1; i <= o.Resources; i++ {
		r := Resource{
			Name:        fmt.Sprintf("Resource %d", i),
			URL:         fmt.Sprintf("https://www.%d.com/", i),
			Description: fmt.Sprintf("<p>Description for Resource %d</p>", i),
		}
		if err := s.CreateResource(ctx, &r); err != nil {
			return fmt.Errorf("seed resource %d: %w", i, err)
		}
		resourceIDs = append(resourceIDs, r.ID)
	}

	event := 0
	for i := 1; i <= o.Series; i++ {
		sr := Series{
			Name:        fmt.Sprintf("Series %d", i),
			Subtitle:    fmt.Sprintf("Subtitle for Series %d", i),
			Description: fmt.Sprintf("Description for Series %d", i),
		}
		if err := s.CreateSeries(ctx, &sr); err != nil {
			return fmt.Errorf("seed series %d: %w", i, err)
		}
		for j := 0; j < o.EventsPerSeries; j++ {
			event++
			start := o.Today.AddDate(0, 0, (j-o.EventsPerSeries/2)*14)
			e := Event{
				Name:        fmt.Sprintf("Event %d", event),
				Description: fmt.Sprintf("<p>Description for Event %d</p>", event),
				StartDate:   start,
				EndDate:     start.AddDate(0, 0, 1),
				IsPublished: true,
				SeriesID:    &sr.ID,
				SponsorIDs:  sponsorIDs,
			}
			if len(locations) > 0 {
				e.LocationID = &locations[event%len(locations)].ID
			}
			edits := SessionEdits{}
			for k := 1; k <= 2; k++ {
				begin := start.Add(time.Duration(7+k*2) * time.Hour)
				sess := Session{
					Name:          fmt.Sprintf("Session %d", k),
					Description:   fmt.Sprintf("<p>Description for Session %d</p>", k),
					StartDatetime: begin,
					EndDatetime:   begin.Add(90 * time.Minute),
					ResourceIDs:   resourceIDs,
				}
				if e.LocationID != nil {
					sess.LocationIDs = []int64{*e.LocationID}
				}
				edits.Save = append(edits.Save, sess)
			}
			if err := s.SaveEvent(ctx, &e, edits); err != nil {
				return fmt.Errorf("seed event %d: %w", event, err)
			}
		}
	}

	for i := 1; i <= o.ThirdPartyEvents; i++ {
		start := o.Today.AddDate(0, 0, i*10)
		e := ThirdPartyEvent{
			Name:        fmt.Sprintf("Third Party Event %d", i),
			Description: fmt.Sprintf("<p>Description for Third Party Event %d</p>", i),
			StartDate:   start,
			EndDate:     start,
			URL:         fmt.Sprintf("https://www.%d.com/", i),
			IsPublished: true,
		}
		if len(locations) > 0 {
			e.LocationID = &locations[i%len(locations)].ID
		}
		if err := s.CreateThirdPartyEvent(ctx, &e); err != nil {
			return fmt.Errorf("seed third party event %d: %w", i, err)
		}
	}
	return nil
}
