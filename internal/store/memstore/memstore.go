// Package memstore provides an in-memory EntityStore. It is the default
// backend and the store used by tests.
//
// Every call holds one lock for its whole duration, so uniqueness,
// reference checks and cascades are atomic per call. List returns records
// in insertion order.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/JonMunkholm/transitdir/internal/core"
)

type table struct {
	order []int64
	rows  map[int64]core.Record
}

func newTable() *table {
	return &table{rows: make(map[int64]core.Record)}
}

func (t *table) put(rec core.Record) {
	if _, ok := t.rows[rec.Key()]; !ok {
		t.order = append(t.order, rec.Key())
	}
	t.rows[rec.Key()] = rec
}

func (t *table) remove(id int64) {
	delete(t.rows, id)
	if i := slices.Index(t.order, id); i >= 0 {
		t.order = slices.Delete(t.order, i, i+1)
	}
}

func (t *table) each(fn func(core.Record)) {
	for _, id := range t.order {
		fn(t.rows[id])
	}
}

// Store is an in-memory core.EntityStore and core.TokenSource.
type Store struct {
	mu     sync.RWMutex
	tables map[core.Kind]*table
	tokens []int64
}

var (
	_ core.EntityStore = (*Store)(nil)
	_ core.TokenSource = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{
		tables: map[core.Kind]*table{
			core.KindStop:     newTable(),
			core.KindLine:     newTable(),
			core.KindVehicle:  newTable(),
			core.KindPosition: newTable(),
		},
	}
}

func (s *Store) table(kind core.Kind) (*table, error) {
	t, ok := s.tables[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", core.ErrNotFound, kind)
	}
	return t, nil
}

// Get returns one record.
func (s *Store) Get(_ context.Context, kind core.Kind, id int64) (core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(kind)
	if err != nil {
		return nil, err
	}
	rec, ok := t.rows[id]
	if !ok {
		return nil, core.NotFound(kind, id)
	}
	return clone(rec), nil
}

// List returns every record of kind in insertion order.
func (s *Store) List(_ context.Context, kind core.Kind) ([]core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(kind)
	if err != nil {
		return nil, err
	}
	out := make([]core.Record, 0, len(t.order))
	t.each(func(rec core.Record) { out = append(out, clone(rec)) })
	return out, nil
}

// Create stores a new record.
func (s *Store) Create(_ context.Context, rec core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(rec.Kind())
	if err != nil {
		return err
	}
	if _, exists := t.rows[rec.Key()]; exists {
		return core.Constraint("duplicate key: %s %d already exists", rec.Kind().Singular(), rec.Key())
	}
	if err := s.checkWrite(rec); err != nil {
		return err
	}
	t.put(clone(rec))
	return nil
}

// Update replaces the record stored under id. The record's key must equal id.
func (s *Store) Update(_ context.Context, id int64, rec core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(rec.Kind())
	if err != nil {
		return err
	}
	if _, exists := t.rows[id]; !exists {
		return core.NotFound(rec.Kind(), id)
	}
	if rec.Key() != id {
		return core.Constraint("%s id cannot be changed (%d -> %d)", rec.Kind().Singular(), id, rec.Key())
	}
	if err := s.checkWrite(rec); err != nil {
		return err
	}
	t.put(clone(rec))
	return nil
}

// Delete removes a record with its cascade: a Line takes its Vehicles, a
// Vehicle takes its Position, a Stop is unlinked from every Line.
func (s *Store) Delete(_ context.Context, kind core.Kind, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(kind)
	if err != nil {
		return err
	}
	if _, exists := t.rows[id]; !exists {
		return core.NotFound(kind, id)
	}

	switch kind {
	case core.KindLine:
		var doomed []int64
		s.tables[core.KindVehicle].each(func(rec core.Record) {
			if rec.(core.Vehicle).LineID == id {
				doomed = append(doomed, rec.Key())
			}
		})
		for _, vid := range doomed {
			s.deleteVehicle(vid)
		}
	case core.KindVehicle:
		s.tables[core.KindPosition].remove(id)
	case core.KindStop:
		lines := s.tables[core.KindLine]
		for lid, rec := range lines.rows {
			l := rec.(core.Line)
			if l.HasStop(id) {
				l.Stops = slices.DeleteFunc(slices.Clone(l.Stops), func(sid int64) bool { return sid == id })
				lines.rows[lid] = l
			}
		}
	}

	t.remove(id)
	return nil
}

func (s *Store) deleteVehicle(id int64) {
	s.tables[core.KindPosition].remove(id)
	s.tables[core.KindVehicle].remove(id)
}

// LinesForStop returns the lines whose stops include stopID.
func (s *Store) LinesForStop(_ context.Context, stopID int64) ([]core.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.tables[core.KindStop].rows[stopID]; !ok {
		return nil, core.NotFound(core.KindStop, stopID)
	}
	out := make([]core.Line, 0)
	s.tables[core.KindLine].each(func(rec core.Record) {
		if l := rec.(core.Line); l.HasStop(stopID) {
			out = append(out, clone(l).(core.Line))
		}
	})
	return out, nil
}

// VehiclesForLine returns the vehicles assigned to lineID.
func (s *Store) VehiclesForLine(_ context.Context, lineID int64) ([]core.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.tables[core.KindLine].rows[lineID]; !ok {
		return nil, core.NotFound(core.KindLine, lineID)
	}
	out := make([]core.Vehicle, 0)
	s.tables[core.KindVehicle].each(func(rec core.Record) {
		if v := rec.(core.Vehicle); v.LineID == lineID {
			out = append(out, v)
		}
	})
	return out, nil
}

// RemoveStopsFromLine unlinks the listed stops that are members of the line.
func (s *Store) RemoveStopsFromLine(_ context.Context, lineID int64, stopIDs []int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.tables[core.KindLine]
	rec, ok := lines.rows[lineID]
	if !ok {
		return 0, core.NotFound(core.KindLine, lineID)
	}
	l := rec.(core.Line)
	before := len(l.Stops)
	l.Stops = slices.DeleteFunc(slices.Clone(l.Stops), func(sid int64) bool {
		return slices.Contains(stopIDs, sid)
	})
	lines.rows[lineID] = l
	return before - len(l.Stops), nil
}

// AddToken records a token for Tokens to return.
func (s *Store) AddToken(_ context.Context, token int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.tokens, token) {
		s.tokens = append(s.tokens, token)
	}
	return nil
}

// Tokens returns every recorded token.
func (s *Store) Tokens(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tokens), nil
}

// checkWrite enforces ranges and references for rec. Callers hold the lock.
func (s *Store) checkWrite(rec core.Record) error {
	switch r := rec.(type) {
	case core.Stop:
		return core.CheckCoordinates(r.Latitude, r.Longitude)
	case core.Line:
		for _, sid := range r.Stops {
			if _, ok := s.tables[core.KindStop].rows[sid]; !ok {
				return core.Constraint("line %d references missing stop %d", r.ID, sid)
			}
		}
	case core.Vehicle:
		if _, ok := s.tables[core.KindLine].rows[r.LineID]; !ok {
			return core.Constraint("vehicle %d references missing line %d", r.ID, r.LineID)
		}
	case core.Position:
		if _, ok := s.tables[core.KindVehicle].rows[r.VehicleID]; !ok {
			return core.Constraint("position references missing vehicle %d", r.VehicleID)
		}
		return core.CheckCoordinates(r.Latitude, r.Longitude)
	}
	return nil
}

// clone copies the Line stop slice so callers never share it with the store.
func clone(rec core.Record) core.Record {
	if l, ok := rec.(core.Line); ok {
		l.Stops = core.StopSet(l.Stops)
		return l
	}
	return rec
}
