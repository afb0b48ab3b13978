// Package pgstore provides a PostgreSQL EntityStore.
//
// Uniqueness, ranges, references and the delete cascade are enforced by
// the schema (see schema.sql); driver errors are translated to the core
// sentinels by mapError. Lines and their stop links are written in one
// transaction.
package pgstore

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/transitdir/internal/core"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const (
	selectStops     = `SELECT id, name, latitude, longitude FROM stops`
	selectVehicles  = `SELECT id, name, model, line_id FROM vehicles`
	selectPositions = `SELECT vehicle_id, latitude, longitude FROM positions`
	selectLines     = `SELECT l.id, l.name,
		COALESCE((SELECT array_agg(ls.stop_id ORDER BY ls.stop_id) FROM line_stops ls WHERE ls.line_id = l.id), '{}')::bigint[]
		FROM lines l`
)

// Store is a PostgreSQL core.EntityStore and core.TokenSource.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ core.EntityStore = (*Store)(nil)
	_ core.TokenSource = (*Store)(nil)
)

// New wraps an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies the schema. It is safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Get returns one record.
func (s *Store) Get(ctx context.Context, kind core.Kind, id int64) (core.Record, error) {
	var (
		rec core.Record
		err error
	)
	switch kind {
	case core.KindStop:
		rec, err = one[core.Stop](ctx, s.pool, selectStops+` WHERE id = $1`, id)
	case core.KindLine:
		rec, err = one[core.Line](ctx, s.pool, selectLines+` WHERE l.id = $1`, id)
	case core.KindVehicle:
		rec, err = one[core.Vehicle](ctx, s.pool, selectVehicles+` WHERE id = $1`, id)
	case core.KindPosition:
		rec, err = one[core.Position](ctx, s.pool, selectPositions+` WHERE vehicle_id = $1`, id)
	default:
		return nil, unknownKind(kind)
	}
	if err != nil {
		return nil, mapError(err, kind, id)
	}
	return rec, nil
}

// List returns every record of kind in insertion order.
func (s *Store) List(ctx context.Context, kind core.Kind) ([]core.Record, error) {
	var (
		recs []core.Record
		err  error
	)
	switch kind {
	case core.KindStop:
		recs, err = many[core.Stop](ctx, s.pool, selectStops+` ORDER BY seq`)
	case core.KindLine:
		recs, err = many[core.Line](ctx, s.pool, selectLines+` ORDER BY l.seq`)
	case core.KindVehicle:
		recs, err = many[core.Vehicle](ctx, s.pool, selectVehicles+` ORDER BY seq`)
	case core.KindPosition:
		recs, err = many[core.Position](ctx, s.pool, selectPositions+` ORDER BY seq`)
	default:
		return nil, unknownKind(kind)
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return recs, nil
}

// Create stores a new record.
func (s *Store) Create(ctx context.Context, rec core.Record) error {
	if err := checkRanges(rec); err != nil {
		return err
	}

	var err error
	switch r := rec.(type) {
	case core.Stop:
		_, err = s.pool.Exec(ctx,
			`INSERT INTO stops (id, name, latitude, longitude) VALUES ($1, $2, $3, $4)`,
			r.ID, r.Name, r.Latitude, r.Longitude)
	case core.Line:
		err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `INSERT INTO lines (id, name) VALUES ($1, $2)`, r.ID, r.Name); err != nil {
				return err
			}
			return linkStops(ctx, tx, r.ID, r.Stops)
		})
	case core.Vehicle:
		_, err = s.pool.Exec(ctx,
			`INSERT INTO vehicles (id, name, model, line_id) VALUES ($1, $2, $3, $4)`,
			r.ID, r.Name, r.Model, r.LineID)
	case core.Position:
		_, err = s.pool.Exec(ctx,
			`INSERT INTO positions (vehicle_id, latitude, longitude) VALUES ($1, $2, $3)`,
			r.VehicleID, r.Latitude, r.Longitude)
	default:
		return unknownKind(rec.Kind())
	}
	return mapError(err, rec.Kind(), rec.Key())
}

// Update replaces the record stored under id. The record's key must equal id.
func (s *Store) Update(ctx context.Context, id int64, rec core.Record) error {
	if rec.Key() != id {
		if _, err := s.Get(ctx, rec.Kind(), id); err != nil {
			return err
		}
		return core.Constraint("%s id cannot be changed (%d -> %d)", rec.Kind().Singular(), id, rec.Key())
	}
	if err := checkRanges(rec); err != nil {
		return err
	}

	var (
		tag pgconn.CommandTag
		err error
	)
	switch r := rec.(type) {
	case core.Stop:
		tag, err = s.pool.Exec(ctx,
			`UPDATE stops SET name = $2, latitude = $3, longitude = $4 WHERE id = $1`,
			r.ID, r.Name, r.Latitude, r.Longitude)
	case core.Line:
		err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			var txErr error
			tag, txErr = tx.Exec(ctx, `UPDATE lines SET name = $2 WHERE id = $1`, r.ID, r.Name)
			if txErr != nil || tag.RowsAffected() == 0 {
				return txErr
			}
			if _, txErr = tx.Exec(ctx, `DELETE FROM line_stops WHERE line_id = $1`, r.ID); txErr != nil {
				return txErr
			}
			return linkStops(ctx, tx, r.ID, r.Stops)
		})
	case core.Vehicle:
		tag, err = s.pool.Exec(ctx,
			`UPDATE vehicles SET name = $2, model = $3, line_id = $4 WHERE id = $1`,
			r.ID, r.Name, r.Model, r.LineID)
	case core.Position:
		tag, err = s.pool.Exec(ctx,
			`UPDATE positions SET latitude = $2, longitude = $3 WHERE vehicle_id = $1`,
			r.VehicleID, r.Latitude, r.Longitude)
	default:
		return unknownKind(rec.Kind())
	}
	if err != nil {
		return mapError(err, rec.Kind(), id)
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound(rec.Kind(), id)
	}
	return nil
}

// Delete removes a record. Foreign keys carry the cascade: a Line takes its
// Vehicles and their Positions, a Stop is unlinked from every Line.
func (s *Store) Delete(ctx context.Context, kind core.Kind, id int64) error {
	var query string
	switch kind {
	case core.KindStop:
		query = `DELETE FROM stops WHERE id = $1`
	case core.KindLine:
		query = `DELETE FROM lines WHERE id = $1`
	case core.KindVehicle:
		query = `DELETE FROM vehicles WHERE id = $1`
	case core.KindPosition:
		query = `DELETE FROM positions WHERE vehicle_id = $1`
	default:
		return unknownKind(kind)
	}

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return mapError(err, kind, id)
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound(kind, id)
	}
	return nil
}

// LinesForStop returns the lines whose stops include stopID.
func (s *Store) LinesForStop(ctx context.Context, stopID int64) ([]core.Line, error) {
	if err := s.mustExist(ctx, core.KindStop, `SELECT EXISTS (SELECT 1 FROM stops WHERE id = $1)`, stopID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, selectLines+`
		WHERE EXISTS (SELECT 1 FROM line_stops m WHERE m.line_id = l.id AND m.stop_id = $1)
		ORDER BY l.seq`, stopID)
	if err != nil {
		return nil, fmt.Errorf("lines for stop %d: %w", stopID, err)
	}
	lines, err := pgx.CollectRows(rows, pgx.RowToStructByPos[core.Line])
	if err != nil {
		return nil, fmt.Errorf("lines for stop %d: %w", stopID, err)
	}
	return nonNil(lines), nil
}

// VehiclesForLine returns the vehicles assigned to lineID.
func (s *Store) VehiclesForLine(ctx context.Context, lineID int64) ([]core.Vehicle, error) {
	if err := s.mustExist(ctx, core.KindLine, `SELECT EXISTS (SELECT 1 FROM lines WHERE id = $1)`, lineID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, selectVehicles+` WHERE line_id = $1 ORDER BY seq`, lineID)
	if err != nil {
		return nil, fmt.Errorf("vehicles for line %d: %w", lineID, err)
	}
	vehicles, err := pgx.CollectRows(rows, pgx.RowToStructByPos[core.Vehicle])
	if err != nil {
		return nil, fmt.Errorf("vehicles for line %d: %w", lineID, err)
	}
	return nonNil(vehicles), nil
}

// RemoveStopsFromLine unlinks the listed stops that are members of the line.
func (s *Store) RemoveStopsFromLine(ctx context.Context, lineID int64, stopIDs []int64) (int, error) {
	if err := s.mustExist(ctx, core.KindLine, `SELECT EXISTS (SELECT 1 FROM lines WHERE id = $1)`, lineID); err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM line_stops WHERE line_id = $1 AND stop_id = ANY($2)`, lineID, stopIDs)
	if err != nil {
		return 0, mapError(err, core.KindLine, lineID)
	}
	return int(tag.RowsAffected()), nil
}

// AddToken persists a token. Adding an existing token is a no-op.
func (s *Store) AddToken(ctx context.Context, token int64) error {
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO tokens (token) VALUES ($1) ON CONFLICT (token) DO NOTHING`, token); err != nil {
		return fmt.Errorf("add token: %w", err)
	}
	return nil
}

// Tokens returns every persisted token, oldest first.
func (s *Store) Tokens(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT token FROM tokens ORDER BY created_at, token`)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	tokens, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	return tokens, nil
}

func (s *Store) mustExist(ctx context.Context, kind core.Kind, query string, id int64) error {
	var ok bool
	if err := s.pool.QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return fmt.Errorf("look up %s %d: %w", kind.Singular(), id, err)
	}
	if !ok {
		return core.NotFound(kind, id)
	}
	return nil
}

// linkStops inserts the line_stops rows for a line. A missing stop fails
// the foreign key and aborts the surrounding transaction.
func linkStops(ctx context.Context, db DBTX, lineID int64, stops []int64) error {
	if len(stops) == 0 {
		return nil
	}
	_, err := db.Exec(ctx,
		`INSERT INTO line_stops (line_id, stop_id) SELECT $1, unnest($2::bigint[])`,
		lineID, core.StopSet(stops))
	return err
}

func one[T core.Record](ctx context.Context, db DBTX, query string, args ...any) (core.Record, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	rec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[T])
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func many[T core.Record](ctx context.Context, db DBTX, query string, args ...any) ([]core.Record, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[T])
	if err != nil {
		return nil, err
	}
	out := make([]core.Record, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// checkRanges rejects out-of-range coordinates before they reach the
// CHECK constraints so the error names the value.
func checkRanges(rec core.Record) error {
	switch r := rec.(type) {
	case core.Stop:
		return core.CheckCoordinates(r.Latitude, r.Longitude)
	case core.Position:
		return core.CheckCoordinates(r.Latitude, r.Longitude)
	}
	return nil
}

func unknownKind(kind core.Kind) error {
	return fmt.Errorf("%w: unknown kind %q", core.ErrNotFound, kind)
}
