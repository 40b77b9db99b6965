package cs4teachers

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EventFilter narrows ListEvents and ListThirdPartyEvents. Zero values
// disable a condition.
type EventFilter struct {
	PublishedOnly bool
	SeriesID      int64
	LocationID    int64
	Query         string
	// Published reports the is_published admin list filter: "1", "0" or "".
	Published string
	// EndsOnOrAfter keeps events that have not finished before this date.
	EndsOnOrAfter time.Time
	// EndsBefore keeps events that finished before this date.
	EndsBefore time.Time
}

func (f EventFilter) where(alias string, withSeries bool) (string, []any) {
	var conds []string
	var args []any
	if f.PublishedOnly || f.Published == "1" {
		conds = append(conds, alias+".is_published = 1")
	} else if f.Published == "0" {
		conds = append(conds, alias+".is_published = 0")
	}
	if withSeries && f.SeriesID != 0 {
		conds = append(conds, alias+".series_id = ?")
		args = append(args, f.SeriesID)
	}
	if f.LocationID != 0 {
		conds = append(conds, alias+".location_id = ?")
		args = append(args, f.LocationID)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		conds = append(conds, "instr(lower("+alias+".name), lower(?)) > 0")
		args = append(args, q)
	}
	if !f.EndsOnOrAfter.IsZero() {
		conds = append(conds, alias+".end_date >= ?")
		args = append(args, formatDate(f.EndsOnOrAfter))
	}
	if !f.EndsBefore.IsZero() {
		conds = append(conds, alias+".end_date < ?")
		args = append(args, formatDate(f.EndsBefore))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// SessionEdits are inline session changes saved in the same transaction as
// their event.
type SessionEdits struct {
	Save   []Session
	Delete []int64
}

// Events

const eventSelect = `SELECT e.id, e.slug, e.name, e.description, e.start_date, e.end_date, e.is_published,
	e.series_id, e.location_id, s.slug, s.name, l.slug, l.name
	FROM events e
	LEFT JOIN series s ON s.id = e.series_id
	LEFT JOIN locations l ON l.id = e.location_id`

func scanEvent(row interface{ Scan(...any) error }) (Event, error) {
	var (
		e                      Event
		start, end             string
		published              int
		seriesID, locationID   sql.NullInt64
		seriesSlug, seriesName sql.NullString
		locSlug, locName       sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Slug, &e.Name, &e.Description, &start, &end, &published,
		&seriesID, &locationID, &seriesSlug, &seriesName, &locSlug, &locName); err != nil {
		return Event{}, err
	}
	var err error
	if e.StartDate, err = parseDate(start); err != nil {
		return Event{}, err
	}
	if e.EndDate, err = parseDate(end); err != nil {
		return Event{}, err
	}
	e.IsPublished = published == 1
	e.SeriesID = idPtr(seriesID)
	e.LocationID = idPtr(locationID)
	if e.SeriesID != nil {
		e.Series = &Series{ID: *e.SeriesID, Slug: seriesSlug.String, Name: seriesName.String}
	}
	if e.LocationID != nil {
		e.Location = &Location{ID: *e.LocationID, Slug: locSlug.String, Name: locName.String}
	}
	return e, nil
}

// CreateEvent validates e, assigns its slug and inserts it.
func (s *Store) CreateEvent(ctx context.Context, e *Event) error {
	e.ID = 0
	return s.SaveEvent(ctx, e, SessionEdits{})
}

// UpdateEvent saves every field of e except its slug.
func (s *Store) UpdateEvent(ctx context.Context, e *Event) error {
	if e.ID == 0 {
		return ErrNotFound
	}
	return s.SaveEvent(ctx, e, SessionEdits{})
}

// SaveEvent creates e when its ID is zero, otherwise updates it, then
// applies the inline session edits. Everything happens in one transaction.
// Session validation errors are keyed "sessions-<index>-<field>".
//
// On create the slug is derived from e.Slug when set, else from the series
// slug and name. On update the stored slug is never changed.
func (s *Store) SaveEvent(ctx context.Context, e *Event, edits SessionEdits) error {
	e.sanitize()
	if err := Validate(e); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if e.ID == 0 {
			if err := s.insertEvent(ctx, tx, e); err != nil {
				return err
			}
		} else {
			res, err := tx.ExecContext(ctx, `UPDATE events SET name = ?, description = ?, start_date = ?, end_date = ?,
				is_published = ?, series_id = ?, location_id = ? WHERE id = ?`,
				e.Name, e.Description, formatDate(e.StartDate), formatDate(e.EndDate), boolInt(e.IsPublished),
				nullID(e.SeriesID), nullID(e.LocationID), e.ID)
			if err != nil {
				return translateError(err, "name")
			}
			if err := requireAffected(res); err != nil {
				return err
			}
		}
		if err := replaceLinks(ctx, tx, "event_sponsors", "event_id", "sponsor_id", e.ID, e.SponsorIDs); err != nil {
			return translateError(err, "sponsors")
		}
		for _, id := range edits.Delete {
			if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ? AND event_id = ?`, id, e.ID); err != nil {
				return err
			}
		}
		for i := range edits.Save {
			sess := &edits.Save[i]
			sess.EventID = e.ID
			if err := saveSession(ctx, tx, sess, e.ID); err != nil {
				if ve, ok := IsValidation(err); ok {
					return prefixFields(ve, "sessions-"+strconv.Itoa(i)+"-")
				}
				return err
			}
		}
		return nil
	})
}

func (s *Store) insertEvent(ctx context.Context, tx *sql.Tx, e *Event) error {
	name, parent := e.Name, ""
	if explicit := strings.TrimSpace(e.Slug); explicit != "" {
		name = explicit
	} else if e.SeriesID != nil {
		if err := tx.QueryRowContext(ctx, `SELECT slug FROM series WHERE id = ?`, *e.SeriesID).Scan(&parent); err != nil {
			if isNotFound(err) {
				return fieldError("series", "Select a valid choice.")
			}
			return err
		}
	}
	slug, err := AssignSlug(ctx, txSlugs{tx}, SlugScope{Kind: KindEvent}, name, parent)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO events (slug, name, description, start_date, end_date, is_published, series_id, location_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		slug, e.Name, e.Description, formatDate(e.StartDate), formatDate(e.EndDate), boolInt(e.IsPublished),
		nullID(e.SeriesID), nullID(e.LocationID))
	if err != nil {
		return translateError(err, "slug")
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	e.Slug = slug
	return nil
}

// DeleteEvent removes an event together with its sessions. It fails with
// ErrInUse while the event still has images.
func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return translateDeleteError(err)
	}
	return requireAffected(res)
}

// GetEvent returns an event by slug with sponsors, sessions and images.
// Unpublished events are only returned when publishedOnly is false.
func (s *Store) GetEvent(ctx context.Context, slug string, publishedOnly bool) (Event, error) {
	query := eventSelect + ` WHERE e.slug = ?`
	if publishedOnly {
		query += ` AND e.is_published = 1`
	}
	e, err := scanEvent(s.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		return Event{}, err
	}
	if err := s.loadEventDetail(ctx, &e); err != nil {
		return Event{}, err
	}
	return e, nil
}

// GetEventByID returns an event by id with its related records.
func (s *Store) GetEventByID(ctx context.Context, id int64) (Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, eventSelect+` WHERE e.id = ?`, id))
	if err != nil {
		return Event{}, err
	}
	if err := s.loadEventDetail(ctx, &e); err != nil {
		return Event{}, err
	}
	return e, nil
}

func (s *Store) loadEventDetail(ctx context.Context, e *Event) error {
	var err error
	if e.SeriesID != nil {
		sr, err := s.GetSeriesByID(ctx, *e.SeriesID)
		if err != nil {
			return fmt.Errorf("load series: %w", err)
		}
		e.Series = &sr
	}
	if e.LocationID != nil {
		loc, err := s.GetLocationByID(ctx, *e.LocationID)
		if err != nil {
			return fmt.Errorf("load location: %w", err)
		}
		e.Location = &loc
	}
	if e.Sponsors, err = s.eventSponsors(ctx, e.ID); err != nil {
		return fmt.Errorf("load sponsors: %w", err)
	}
	e.SponsorIDs = make([]int64, 0, len(e.Sponsors))
	for _, sp := range e.Sponsors {
		e.SponsorIDs = append(e.SponsorIDs, sp.ID)
	}
	if e.Sessions, err = s.ListSessions(ctx, SessionFilter{EventID: e.ID, WithLinks: true}); err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}
	if e.Images, err = s.ListEventImages(ctx, e.ID); err != nil {
		return fmt.Errorf("load images: %w", err)
	}
	return nil
}

// ListEvents returns events matching f ordered by start date then id.
func (s *Store) ListEvents(ctx context.Context, f EventFilter) ([]Event, error) {
	where, args := f.where("e", true)
	rows, err := s.db.QueryContext(ctx, eventSelect+where+` ORDER BY e.start_date, e.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// FindClosestEvent selects the published event of a series most relevant
// to today. ok is false when the series has no published events.
func (s *Store) FindClosestEvent(ctx context.Context, seriesID int64, today time.Time) (Event, bool, error) {
	events, err := s.ListEvents(ctx, EventFilter{PublishedOnly: true, SeriesID: seriesID})
	if err != nil {
		return Event{}, false, err
	}
	ev, ok := FindClosestEvent(events, today)
	return ev, ok, nil
}

// Event images

// CreateEventImage records an uploaded image for an event.
func (s *Store) CreateEventImage(ctx context.Context, img *EventImage) error {
	img.Name = PlainText(img.Name)
	if err := Validate(img); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO event_images (event_id, name, image) VALUES (?, ?, ?)`,
		img.EventID, img.Name, img.Image)
	if err != nil {
		return translateError(err, "image")
	}
	img.ID, err = res.LastInsertId()
	return err
}

// UpdateEventImage renames an image or moves it to another event.
func (s *Store) UpdateEventImage(ctx context.Context, img *EventImage) error {
	img.Name = PlainText(img.Name)
	if err := Validate(img); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE event_images SET event_id = ?, name = ?, image = ? WHERE id = ?`,
		img.EventID, img.Name, img.Image, img.ID)
	if err != nil {
		return translateError(err, "image")
	}
	return requireAffected(res)
}

// GetEventImage returns one event image by id.
func (s *Store) GetEventImage(ctx context.Context, id int64) (EventImage, error) {
	var img EventImage
	err := s.db.QueryRowContext(ctx, `SELECT id, event_id, name, image FROM event_images WHERE id = ?`, id).
		Scan(&img.ID, &img.EventID, &img.Name, &img.Image)
	return img, err
}

// ListEventImages returns the images of an event, or of every event when
// eventID is zero.
func (s *Store) ListEventImages(ctx context.Context, eventID int64) ([]EventImage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, event_id, name, image FROM event_images
		WHERE ? = 0 OR event_id = ? ORDER BY id`, eventID, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []EventImage
	for rows.Next() {
		var img EventImage
		if err := rows.Scan(&img.ID, &img.EventID, &img.Name, &img.Image); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// DeleteEventImage removes an image row and returns it so the caller can
// remove the file.
func (s *Store) DeleteEventImage(ctx context.Context, id int64) (EventImage, error) {
	img, err := s.GetEventImage(ctx, id)
	if err != nil {
		return EventImage{}, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM event_images WHERE id = ?`, id); err != nil {
		return EventImage{}, err
	}
	return img, nil
}

// Third party events

const thirdPartySelect = `SELECT t.id, t.slug, t.name, t.description, t.start_date, t.end_date, t.url, t.is_published,
	t.location_id, l.slug, l.name
	FROM third_party_events t
	LEFT JOIN locations l ON l.id = t.location_id`

func scanThirdPartyEvent(row interface{ Scan(...any) error }) (ThirdPartyEvent, error) {
	var (
		e                ThirdPartyEvent
		start, end       string
		published        int
		locationID       sql.NullInt64
		locSlug, locName sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Slug, &e.Name, &e.Description, &start, &end, &e.URL, &published,
		&locationID, &locSlug, &locName); err != nil {
		return ThirdPartyEvent{}, err
	}
	var err error
	if e.StartDate, err = parseDate(start); err != nil {
		return ThirdPartyEvent{}, err
	}
	if e.EndDate, err = parseDate(end); err != nil {
		return ThirdPartyEvent{}, err
	}
	e.IsPublished = published == 1
	e.LocationID = idPtr(locationID)
	if e.LocationID != nil {
		e.Location = &Location{ID: *e.LocationID, Slug: locSlug.String, Name: locName.String}
	}
	return e, nil
}

// CreateThirdPartyEvent validates e, assigns its slug and inserts it.
func (s *Store) CreateThirdPartyEvent(ctx context.Context, e *ThirdPartyEvent) error {
	e.sanitize()
	if err := Validate(e); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		name := e.Name
		if explicit := strings.TrimSpace(e.Slug); explicit != "" {
			name = explicit
		}
		slug, err := AssignSlug(ctx, txSlugs{tx}, SlugScope{Kind: KindThirdPartyEvent}, name, "")
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO third_party_events (slug, name, description, start_date, end_date, url, is_published, location_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			slug, e.Name, e.Description, formatDate(e.StartDate), formatDate(e.EndDate), e.URL, boolInt(e.IsPublished), nullID(e.LocationID))
		if err != nil {
			return translateError(err, "slug")
		}
		if e.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		e.Slug = slug
		return nil
	})
}

// UpdateThirdPartyEvent saves every field of e except its slug.
func (s *Store) UpdateThirdPartyEvent(ctx context.Context, e *ThirdPartyEvent) error {
	e.sanitize()
	if err := Validate(e); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE third_party_events SET name = ?, description = ?, start_date = ?, end_date = ?,
		url = ?, is_published = ?, location_id = ? WHERE id = ?`,
		e.Name, e.Description, formatDate(e.StartDate), formatDate(e.EndDate), e.URL, boolInt(e.IsPublished), nullID(e.LocationID), e.ID)
	if err != nil {
		return translateError(err, "name")
	}
	return requireAffected(res)
}

// DeleteThirdPartyEvent removes a third party event.
func (s *Store) DeleteThirdPartyEvent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM third_party_events WHERE id = ?`, id)
	if err != nil {
		return translateDeleteError(err)
	}
	return requireAffected(res)
}

// GetThirdPartyEvent returns a third party event by slug.
func (s *Store) GetThirdPartyEvent(ctx context.Context, slug string, publishedOnly bool) (ThirdPartyEvent, error) {
	query := thirdPartySelect + ` WHERE t.slug = ?`
	if publishedOnly {
		query += ` AND t.is_published = 1`
	}
	e, err := scanThirdPartyEvent(s.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		return ThirdPartyEvent{}, err
	}
	if e.LocationID != nil {
		loc, err := s.GetLocationByID(ctx, *e.LocationID)
		if err != nil {
			return ThirdPartyEvent{}, fmt.Errorf("load location: %w", err)
		}
		e.Location = &loc
	}
	return e, nil
}

// GetThirdPartyEventByID returns a third party event by id.
func (s *Store) GetThirdPartyEventByID(ctx context.Context, id int64) (ThirdPartyEvent, error) {
	return scanThirdPartyEvent(s.db.QueryRowContext(ctx, thirdPartySelect+` WHERE t.id = ?`, id))
}

// ListThirdPartyEvents returns third party events matching f ordered by
// start date then id. f.SeriesID is ignored.
func (s *Store) ListThirdPartyEvents(ctx context.Context, f EventFilter) ([]ThirdPartyEvent, error) {
	where, args := f.where("t", false)
	rows, err := s.db.QueryContext(ctx, thirdPartySelect+where+` ORDER BY t.start_date, t.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list third party events: %w", err)
	}
	defer rows.Close()
	var out []ThirdPartyEvent
	for rows.Next() {
		e, err := scanThirdPartyEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func prefixFields(ve ValidationError, prefix string) ValidationError {
	out := ValidationError{Fields: make(map[string]string, len(ve.Fields))}
	for k, v := range ve.Fields {
		out.Fields[prefix+k] = v
	}
	return out
}
