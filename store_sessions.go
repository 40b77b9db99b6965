package cs4teachers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SessionFilter narrows ListSessions.
type SessionFilter struct {
	EventID int64
	// Query matches the session name or its event's name.
	Query string
	// WithLinks loads each session's locations and resources.
	WithLinks bool
}

const sessionSelect = `SELECT ss.id, ss.event_id, ss.slug, ss.name, ss.description, ss.image,
	ss.start_datetime, ss.end_datetime, e.slug, e.name
	FROM sessions ss JOIN events e ON e.id = ss.event_id`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var (
		sess                 Session
		start, end           string
		eventSlug, eventName string
	)
	if err := row.Scan(&sess.ID, &sess.EventID, &sess.Slug, &sess.Name, &sess.Description, &sess.Image,
		&start, &end, &eventSlug, &eventName); err != nil {
		return Session{}, err
	}
	var err error
	if sess.StartDatetime, err = parseDateTime(start); err != nil {
		return Session{}, err
	}
	if sess.EndDatetime, err = parseDateTime(end); err != nil {
		return Session{}, err
	}
	sess.Event = &Event{ID: sess.EventID, Slug: eventSlug, Name: eventName}
	return sess, nil
}

// CreateSession validates sess, assigns a slug unique within its event and
// inserts it with its location and resource links.
func (s *Store) CreateSession(ctx context.Context, sess *Session) error {
	sess.ID = 0
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return saveSession(ctx, tx, sess, 0)
	})
}

// UpdateSession saves every field of sess except its slug. A session moved
// to another event keeps its slug unless that event already uses it, in
// which case the slug is disambiguated within the new event.
func (s *Store) UpdateSession(ctx context.Context, sess *Session) error {
	if sess.ID == 0 {
		return ErrNotFound
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return saveSession(ctx, tx, sess, 0)
	})
}

// saveSession inserts or updates sess inside q. When owner is non-zero an
// existing session must already belong to that event.
func saveSession(ctx context.Context, q dbtx, sess *Session, owner int64) error {
	sess.sanitize()
	if err := Validate(sess); err != nil {
		return err
	}
	if sess.ID == 0 {
		slug, err := AssignSlug(ctx, txSlugs{q}, SlugScope{Kind: KindSession, ParentID: sess.EventID}, sess.Name, "")
		if err != nil {
			return err
		}
		res, err := q.ExecContext(ctx, `INSERT INTO sessions (event_id, slug, name, description, image, start_datetime, end_datetime)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sess.EventID, slug, sess.Name, sess.Description, sess.Image,
			formatDateTime(sess.StartDatetime), formatDateTime(sess.EndDatetime))
		if err != nil {
			return translateError(err, "event")
		}
		if sess.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		sess.Slug = slug
	} else {
		var currentEvent int64
		var slug string
		err := q.QueryRowContext(ctx, `SELECT event_id, slug FROM sessions WHERE id = ?`, sess.ID).Scan(&currentEvent, &slug)
		if err != nil {
			return err
		}
		if owner != 0 && currentEvent != owner {
			return fieldError("id", "Select a valid session.")
		}
		if currentEvent != sess.EventID {
			scope := SlugScope{Kind: KindSession, ParentID: sess.EventID}
			if slug, err = uniqueSlug(ctx, txSlugs{q}, scope, slug); err != nil {
				return err
			}
		}
		res, err := q.ExecContext(ctx, `UPDATE sessions SET event_id = ?, slug = ?, name = ?, description = ?, image = ?,
			start_datetime = ?, end_datetime = ? WHERE id = ?`,
			sess.EventID, slug, sess.Name, sess.Description, sess.Image,
			formatDateTime(sess.StartDatetime), formatDateTime(sess.EndDatetime), sess.ID)
		if err != nil {
			return translateError(err, "event")
		}
		if err := requireAffected(res); err != nil {
			return err
		}
		sess.Slug = slug
	}
	if err := replaceLinks(ctx, q, "session_locations", "session_id", "location_id", sess.ID, sess.LocationIDs); err != nil {
		return translateError(err, "locations")
	}
	if err := replaceLinks(ctx, q, "session_resources", "session_id", "resource_id", sess.ID, sess.ResourceIDs); err != nil {
		return translateError(err, "resources")
	}
	return nil
}

// DeleteSession removes a session and its links.
func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return translateDeleteError(err)
	}
	return requireAffected(res)
}

// GetSession returns a session by id with its links.
func (s *Store) GetSession(ctx context.Context, id int64) (Session, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx, sessionSelect+` WHERE ss.id = ?`, id))
	if err != nil {
		return Session{}, err
	}
	if err := s.loadSessionLinks(ctx, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// ListSessions returns sessions ordered by start time.
func (s *Store) ListSessions(ctx context.Context, f SessionFilter) ([]Session, error) {
	var conds []string
	var args []any
	if f.EventID != 0 {
		conds = append(conds, "ss.event_id = ?")
		args = append(args, f.EventID)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		conds = append(conds, "(instr(lower(ss.name), lower(?)) > 0 OR instr(lower(e.name), lower(?)) > 0)")
		args = append(args, q, q)
	}
	query := sessionSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY ss.start_datetime, ss.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, sess)
	}
	err = rows.Err()
	rows.Close()
	if err != nil || !f.WithLinks {
		return out, err
	}
	for i := range out {
		if err := s.loadSessionLinks(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) loadSessionLinks(ctx context.Context, sess *Session) error {
	var err error
	if sess.Locations, err = s.linkedLocations(ctx, "session_locations", "session_id", sess.ID); err != nil {
		return fmt.Errorf("load session locations: %w", err)
	}
	if sess.Resources, err = s.sessionResources(ctx, sess.ID); err != nil {
		return fmt.Errorf("load session resources: %w", err)
	}
	sess.LocationIDs = make([]int64, 0, len(sess.Locations))
	for _, l := range sess.Locations {
		sess.LocationIDs = append(sess.LocationIDs, l.ID)
	}
	sess.ResourceIDs = make([]int64, 0, len(sess.Resources))
	for _, r := range sess.Resources {
		sess.ResourceIDs = append(sess.ResourceIDs, r.ID)
	}
	return nil
}

// ListEventsAtLocation returns published events held at a location, either
// directly or through one of their sessions, ordered by start date.
func (s *Store) ListEventsAtLocation(ctx context.Context, locationID int64) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, eventSelect+` WHERE e.is_published = 1 AND (e.location_id = ?
		OR e.id IN (SELECT ss.event_id FROM sessions ss JOIN session_locations sl ON sl.session_id = ss.id WHERE sl.location_id = ?))
		ORDER BY e.start_date, e.id`, locationID, locationID)
	if err != nil {
		return nil, fmt.Errorf("list events at location: %w", err)
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
