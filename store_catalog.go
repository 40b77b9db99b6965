package cs4teachers

import (
	"context"
	"database/sql"
	"fmt"
)

// Locations

const locationColumns = `id, slug, name, description, address, geolocation`

func scanLocation(row interface{ Scan(...any) error }) (Location, error) {
	var l Location
	err := row.Scan(&l.ID, &l.Slug, &l.Name, &l.Description, &l.Address, &l.Geolocation)
	return l, err
}

// CreateLocation validates l, assigns its slug and inserts it.
func (s *Store) CreateLocation(ctx context.Context, l *Location) error {
	l.sanitize()
	if err := Validate(l); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		slug, err := AssignSlug(ctx, txSlugs{tx}, SlugScope{Kind: KindLocation}, l.Name, "")
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO locations (slug, name, description, address, geolocation) VALUES (?, ?, ?, ?, ?)`,
			slug, l.Name, l.Description, l.Address, l.Geolocation)
		if err != nil {
			return translateError(err, "slug")
		}
		l.ID, err = res.LastInsertId()
		l.Slug = slug
		return err
	})
}

// UpdateLocation saves every field of l except its slug.
func (s *Store) UpdateLocation(ctx context.Context, l *Location) error {
	l.sanitize()
	if err := Validate(l); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE locations SET name = ?, description = ?, address = ?, geolocation = ? WHERE id = ?`,
		l.Name, l.Description, l.Address, l.Geolocation, l.ID)
	if err != nil {
		return translateError(err, "name")
	}
	return requireAffected(res)
}

// DeleteLocation removes a location. Events and sessions referencing it are
// kept; the delete fails with ErrInUse while images remain.
func (s *Store) DeleteLocation(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id)
	if err != nil {
		return translateDeleteError(err)
	}
	return requireAffected(res)
}

// GetLocation returns a location by slug, with its images.
func (s *Store) GetLocation(ctx context.Context, slug string) (Location, error) {
	l, err := scanLocation(s.db.QueryRowContext(ctx, `SELECT `+locationColumns+` FROM locations WHERE slug = ?`, slug))
	if err != nil {
		return Location{}, err
	}
	l.Images, err = s.ListLocationImages(ctx, l.ID)
	return l, err
}

// GetLocationByID returns a location by id.
func (s *Store) GetLocationByID(ctx context.Context, id int64) (Location, error) {
	return scanLocation(s.db.QueryRowContext(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = ?`, id))
}

// ListLocations returns all locations ordered by name.
func (s *Store) ListLocations(ctx context.Context, query string) ([]Location, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+locationColumns+` FROM locations
		WHERE ? = '' OR instr(lower(name), lower(?)) > 0 ORDER BY name, id`, query, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) linkedLocations(ctx context.Context, join, ownerCol string, ownerID int64) ([]Location, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT l.id, l.slug, l.name, l.description, l.address, l.geolocation
		FROM locations l JOIN `+join+` j ON j.location_id = l.id WHERE j.`+ownerCol+` = ? ORDER BY l.name, l.id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Location images

// CreateLocationImage records an uploaded image for a location.
func (s *Store) CreateLocationImage(ctx context.Context, img *LocationImage) error {
	img.Name = PlainText(img.Name)
	if err := Validate(img); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO location_images (location_id, name, image) VALUES (?, ?, ?)`,
		img.LocationID, img.Name, img.Image)
	if err != nil {
		return translateError(err, "image")
	}
	img.ID, err = res.LastInsertId()
	return err
}

// UpdateLocationImage renames an image or moves it to another location.
func (s *Store) UpdateLocationImage(ctx context.Context, img *LocationImage) error {
	img.Name = PlainText(img.Name)
	if err := Validate(img); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE location_images SET location_id = ?, name = ?, image = ? WHERE id = ?`,
		img.LocationID, img.Name, img.Image, img.ID)
	if err != nil {
		return translateError(err, "image")
	}
	return requireAffected(res)
}

// GetLocationImage returns one location image by id.
func (s *Store) GetLocationImage(ctx context.Context, id int64) (LocationImage, error) {
	var img LocationImage
	err := s.db.QueryRowContext(ctx, `SELECT id, location_id, name, image FROM location_images WHERE id = ?`, id).
		Scan(&img.ID, &img.LocationID, &img.Name, &img.Image)
	return img, err
}

// ListLocationImages returns the images of a location, or of every location
// when locationID is zero.
func (s *Store) ListLocationImages(ctx context.Context, locationID int64) ([]LocationImage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, location_id, name, image FROM location_images
		WHERE ? = 0 OR location_id = ? ORDER BY id`, locationID, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LocationImage
	for rows.Next() {
		var img LocationImage
		if err := rows.Scan(&img.ID, &img.LocationID, &img.Name, &img.Image); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

// DeleteLocationImage removes an image row and returns it so the caller can
// remove the file.
func (s *Store) DeleteLocationImage(ctx context.Context, id int64) (LocationImage, error) {
	img, err := s.GetLocationImage(ctx, id)
	if err != nil {
		return LocationImage{}, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM location_images WHERE id = ?`, id); err != nil {
		return LocationImage{}, err
	}
	return img, nil
}

// Series

const seriesColumns = `id, slug, name, subtitle, logo, description`

func scanSeries(row interface{ Scan(...any) error }) (Series, error) {
	var sr Series
	err := row.Scan(&sr.ID, &sr.Slug, &sr.Name, &sr.Subtitle, &sr.Logo, &sr.Description)
	return sr, err
}

// CreateSeries validates sr, assigns its slug and inserts it.
func (s *Store) CreateSeries(ctx context.Context, sr *Series) error {
	sr.sanitize()
	if err := Validate(sr); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		slug, err := AssignSlug(ctx, txSlugs{tx}, SlugScope{Kind: KindSeries}, sr.Name, "")
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO series (slug, name, subtitle, logo, description) VALUES (?, ?, ?, ?, ?)`,
			slug, sr.Name, sr.Subtitle, sr.Logo, sr.Description)
		if err != nil {
			return translateError(err, "slug")
		}
		sr.ID, err = res.LastInsertId()
		sr.Slug = slug
		return err
	})
}

// UpdateSeries saves every field of sr except its slug.
func (s *Store) UpdateSeries(ctx context.Context, sr *Series) error {
	sr.sanitize()
	if err := Validate(sr); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE series SET name = ?, subtitle = ?, logo = ?, description = ? WHERE id = ?`,
		sr.Name, sr.Subtitle, sr.Logo, sr.Description, sr.ID)
	if err != nil {
		return translateError(err, "name")
	}
	return requireAffected(res)
}

// DeleteSeries removes a series; its events stay, detached from it.
func (s *Store) DeleteSeries(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM series WHERE id = ?`, id)
	if err != nil {
		return translateDeleteError(err)
	}
	return requireAffected(res)
}

// GetSeries returns a series by slug.
func (s *Store) GetSeries(ctx context.Context, slug string) (Series, error) {
	return scanSeries(s.db.QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM series WHERE slug = ?`, slug))
}

// GetSeriesByID returns a series by id.
func (s *Store) GetSeriesByID(ctx context.Context, id int64) (Series, error) {
	return scanSeries(s.db.QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM series WHERE id = ?`, id))
}

// ListSeries returns all series ordered by name.
func (s *Store) ListSeries(ctx context.Context, query string) ([]Series, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+seriesColumns+` FROM series
		WHERE ? = '' OR instr(lower(name), lower(?)) > 0 ORDER BY name, id`, query, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Series
	for rows.Next() {
		sr, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// Sponsors

// CreateSponsor inserts a sponsor. A taken name is reported as a
// ValidationError wrapped in ErrDuplicate.
func (s *Store) CreateSponsor(ctx context.Context, sp *Sponsor) error {
	sp.sanitize()
	if err := Validate(sp); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO sponsors (name, url, logo) VALUES (?, ?, ?)`, sp.Name, sp.URL, sp.Logo)
	if err != nil {
		return translateError(err, "name")
	}
	sp.ID, err = res.LastInsertId()
	return err
}

// UpdateSponsor saves every field of sp.
func (s *Store) UpdateSponsor(ctx context.Context, sp *Sponsor) error {
	sp.sanitize()
	if err := Validate(sp); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE sponsors SET name = ?, url = ?, logo = ? WHERE id = ?`, sp.Name, sp.URL, sp.Logo, sp.ID)
	if err != nil {
		return translateError(err, "name")
	}
	return requireAffected(res)
}

// DeleteSponsor removes a sponsor and its event links.
func (s *Store) DeleteSponsor(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sponsors WHERE id = ?`, id)
	if err != nil {
		return translateDeleteError(err)
	}
	return requireAffected(res)
}

// GetSponsor returns a sponsor by id.
func (s *Store) GetSponsor(ctx context.Context, id int64) (Sponsor, error) {
	var sp Sponsor
	err := s.db.QueryRowContext(ctx, `SELECT id, name, url, logo FROM sponsors WHERE id = ?`, id).
		Scan(&sp.ID, &sp.Name, &sp.URL, &sp.Logo)
	return sp, err
}

// ListSponsors returns all sponsors ordered by name.
func (s *Store) ListSponsors(ctx context.Context, query string) ([]Sponsor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, url, logo FROM sponsors
		WHERE ? = '' OR instr(lower(name), lower(?)) > 0 ORDER BY name`, query, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Sponsor
	for rows.Next() {
		var sp Sponsor
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.URL, &sp.Logo); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (s *Store) eventSponsors(ctx context.Context, eventID int64) ([]Sponsor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sp.id, sp.name, sp.url, sp.logo FROM sponsors sp
		JOIN event_sponsors es ON es.sponsor_id = sp.id WHERE es.event_id = ? ORDER BY sp.name`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Sponsor
	for rows.Next() {
		var sp Sponsor
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.URL, &sp.Logo); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// Resources

const resourceColumns = `id, slug, name, url, description, image`

func scanResource(row interface{ Scan(...any) error }) (Resource, error) {
	var r Resource
	err := row.Scan(&r.ID, &r.Slug, &r.Name, &r.URL, &r.Description, &r.Image)
	return r, err
}

// CreateResource validates r, assigns its slug and inserts it.
func (s *Store) CreateResource(ctx context.Context, r *Resource) error {
	r.sanitize()
	if err := Validate(r); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		slug, err := AssignSlug(ctx, txSlugs{tx}, SlugScope{Kind: KindResource}, r.Name, "")
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO resources (slug, name, url, description, image) VALUES (?, ?, ?, ?, ?)`,
			slug, r.Name, r.URL, r.Description, r.Image)
		if err != nil {
			return translateError(err, "slug")
		}
		r.ID, err = res.LastInsertId()
		r.Slug = slug
		return err
	})
}

// UpdateResource saves every field of r except its slug.
func (s *Store) UpdateResource(ctx context.Context, r *Resource) error {
	r.sanitize()
	if err := Validate(r); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE resources SET name = ?, url = ?, description = ?, image = ? WHERE id = ?`,
		r.Name, r.URL, r.Description, r.Image, r.ID)
	if err != nil {
		return translateError(err, "name")
	}
	return requireAffected(res)
}

// DeleteResource removes a resource and its session links.
func (s *Store) DeleteResource(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id)
	if err != nil {
		return translateDeleteError(err)
	}
	return requireAffected(res)
}

// GetResource returns a resource by id.
func (s *Store) GetResource(ctx context.Context, id int64) (Resource, error) {
	return scanResource(s.db.QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id))
}

// ListResources returns all resources ordered by name.
func (s *Store) ListResources(ctx context.Context, query string) ([]Resource, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+resourceColumns+` FROM resources
		WHERE ? = '' OR instr(lower(name), lower(?)) > 0 ORDER BY name, id`, query, query)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()
	var out []Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) sessionResources(ctx context.Context, sessionID int64) ([]Resource, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT r.id, r.slug, r.name, r.url, r.description, r.image FROM resources r
		JOIN session_resources sr ON sr.resource_id = r.id WHERE sr.session_id = ? ORDER BY r.name, r.id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
