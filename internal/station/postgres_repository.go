package station

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL station repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const stationColumns = `
	id, name, frequency, latitude, longitude, city, province, genre,
	description, on_air, inspection_68, date_inspected, details, unwanted,
	submit_request, created_at, updated_at
`

func scanStation(row pgx.Row) (*Station, error) {
	var (
		s          Station
		inspection string
		submit     string
	)
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Frequency,
		&s.Latitude,
		&s.Longitude,
		&s.City,
		&s.Province,
		&s.Genre,
		&s.Description,
		&s.OnAir,
		&inspection,
		&s.DateInspected,
		&s.Details,
		&s.Unwanted,
		&submit,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	// Legacy rows hold Thai display strings and stringified booleans in the
	// status columns; normalize on the way out so raw encodings never reach
	// comparisons or the wire.
	s.Inspection = ParseInspectionStatus(inspection)
	s.SubmitRequest = ParseSubmitDecision(submit)
	return &s, nil
}

// List returns all stations ordered by name ascending.
func (r *PostgresRepository) List(ctx context.Context) ([]*Station, error) {
	query := `
		SELECT ` + stationColumns + `
		FROM stations
		ORDER BY name ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []*Station
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

// Get returns a single station by id.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Station, error) {
	query := `
		SELECT ` + stationColumns + `
		FROM stations
		WHERE id = $1
	`

	s, err := scanStation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}
	return s, nil
}

// ApplyPatch applies the supplied fields in a single statement. Absent
// fields keep their stored value via COALESCE, so two inspectors editing
// different fields of the same station do not clobber each other.
//
// date_inspected is derived inside the same statement: setting the
// inspection field to "inspected" stamps today's date, setting it to any
// other value clears the date, and a patch without the inspection field
// leaves the date alone.
func (r *PostgresRepository) ApplyPatch(ctx context.Context, id int64, patch Patch) (*Station, error) {
	if patch.Empty() {
		return nil, ErrEmptyPatch
	}

	query := `
		UPDATE stations
		SET on_air         = COALESCE($2::boolean, on_air),
		    inspection_68  = COALESCE($3::text, inspection_68),
		    details        = COALESCE($4::text, details),
		    unwanted       = COALESCE($5::boolean, unwanted),
		    submit_request = COALESCE($6::text, submit_request),
		    date_inspected = CASE
		        WHEN $3::text IS NULL THEN date_inspected
		        WHEN $3::text = 'inspected' THEN CURRENT_DATE
		        ELSE NULL
		    END,
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + stationColumns + `
	`

	var inspection, submit *string
	if patch.Inspection != nil {
		v := string(*patch.Inspection)
		inspection = &v
	}
	if patch.SubmitRequest != nil {
		v := string(*patch.SubmitRequest)
		submit = &v
	}

	s, err := scanStation(r.pool.QueryRow(ctx, query, id,
		patch.OnAir,
		inspection,
		patch.Details,
		patch.Unwanted,
		submit,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}
	return s, nil
}

// RecentlyChanged returns stations updated at or after the given instant,
// most recent first.
func (r *PostgresRepository) RecentlyChanged(ctx context.Context, since time.Time) ([]*Station, error) {
	query := `
		SELECT ` + stationColumns + `
		FROM stations
		WHERE updated_at >= $1
		ORDER BY updated_at DESC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []*Station
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

// BulkInsert copies stations into the table in one round trip. Stations
// must carry their ids; the identity sequence is realigned afterwards so
// later inserts do not collide with seeded ids.
func (r *PostgresRepository) BulkInsert(ctx context.Context, stations []*Station) (int64, error) {
	columns := []string{
		"id", "name", "frequency", "latitude", "longitude", "city",
		"province", "genre", "description", "on_air", "inspection_68",
		"date_inspected", "details", "unwanted", "submit_request",
	}

	rows := make([][]any, 0, len(stations))
	for _, s := range stations {
		rows = append(rows, []any{
			s.ID,
			s.Name,
			s.Frequency,
			s.Latitude,
			s.Longitude,
			s.City,
			s.Province,
			s.Genre,
			s.Description,
			s.OnAir,
			string(s.Inspection),
			s.DateInspected,
			s.Details,
			s.Unwanted,
			string(s.SubmitRequest),
		})
	}

	count, err := r.pool.CopyFrom(ctx, pgx.Identifier{"stations"}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, err
	}

	_, err = r.pool.Exec(ctx, `
		SELECT setval(pg_get_serial_sequence('stations', 'id'),
		              (SELECT COALESCE(MAX(id), 1) FROM stations))
	`)
	if err != nil {
		return count, err
	}
	return count, nil
}

// DeleteAll truncates the stations table and resets the identity sequence.
func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `TRUNCATE stations RESTART IDENTITY`)
	return err
}
