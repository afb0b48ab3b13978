package core

import (
	"context"
	"net/url"
	"slices"
	"time"
)

// Kind identifies one of the four stored entity kinds.
type Kind string

const (
	KindStop     Kind = "stops"
	KindLine     Kind = "lines"
	KindVehicle  Kind = "vehicles"
	KindPosition Kind = "positions"
)

// Singular returns the lowercase singular noun for the kind ("stop", "line", ...).
func (k Kind) Singular() string {
	switch k {
	case KindStop:
		return "stop"
	case KindLine:
		return "line"
	case KindVehicle:
		return "vehicle"
	case KindPosition:
		return "position"
	default:
		return string(k)
	}
}

// Record is a stored entity. Key is the entity's immutable unique id.
type Record interface {
	Kind() Kind
	Key() int64
}

// Stop is a fixed transit location.
type Stop struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name" validate:"required,max=100"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

func (Stop) Kind() Kind { return KindStop }
func (s Stop) Key() int64 { return s.ID }

// Line is a named route referencing a set of Stops. Stops is kept sorted
// and free of duplicates; its order carries no meaning.
type Line struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name" validate:"required,max=100"`
	Stops []int64 `json:"stops"`
}

func (Line) Kind() Kind { return KindLine }
func (l Line) Key() int64 { return l.ID }

// HasStop reports whether stopID is a member of the line.
func (l Line) HasStop(stopID int64) bool {
	_, ok := slices.BinarySearch(l.Stops, stopID)
	return ok
}

// Vehicle is a unit of rolling stock assigned to a Line.
type Vehicle struct {
	ID     int64  `json:"id"`
	Name   string `json:"name" validate:"required,max=100"`
	Model  string `json:"model" validate:"required,max=50"`
	LineID int64  `json:"line_id"`
}

func (Vehicle) Kind() Kind { return KindVehicle }
func (v Vehicle) Key() int64 { return v.ID }

// Position is the most recent coordinate of one Vehicle. It is keyed by
// the vehicle it belongs to.
type Position struct {
	VehicleID int64   `json:"vehicle_id"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

func (Position) Kind() Kind { return KindPosition }
func (p Position) Key() int64 { return p.VehicleID }

// StopSet returns ids sorted ascending with duplicates collapsed.
// The result is never nil.
func StopSet(ids ...[]int64) []int64 {
	out := make([]int64, 0)
	for _, group := range ids {
		out = append(out, group...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// EntityStore is durable keyed storage for the four entity kinds.
//
// Implementations enforce, atomically per call: unique keys, coordinate
// ranges, foreign keys at write time, key immutability on Update, and the
// delete cascade Line -> Vehicles -> Positions. Deleting a Stop unlinks it
// from every Line. Errors wrap ErrNotFound or ErrConstraint.
type EntityStore interface {
	Get(ctx context.Context, kind Kind, id int64) (Record, error)
	List(ctx context.Context, kind Kind) ([]Record, error)
	Create(ctx context.Context, rec Record) error
	Update(ctx context.Context, id int64, rec Record) error
	Delete(ctx context.Context, kind Kind, id int64) error

	LinesForStop(ctx context.Context, stopID int64) ([]Line, error)
	VehiclesForLine(ctx context.Context, lineID int64) ([]Vehicle, error)
	RemoveStopsFromLine(ctx context.Context, lineID int64, stopIDs []int64) (int, error)
}

// TokenSource lists persisted tokens so the service can seed its TokenSet.
type TokenSource interface {
	Tokens(ctx context.Context) ([]int64, error)
}

// ImportMode selects how an import batch resolves each row.
type ImportMode int

const (
	// ModeInsert creates every row; existing ids are rejected.
	ModeInsert ImportMode = iota
	// ModeUpdate merges every row into an existing record; absent ids are rejected.
	ModeUpdate
	// ModeUpsert updates existing records and creates absent ones.
	ModeUpsert
)

func (m ImportMode) String() string {
	switch m {
	case ModeInsert:
		return "insert"
	case ModeUpdate:
		return "update"
	case ModeUpsert:
		return "upsert"
	default:
		return "unknown"
	}
}

// RowReader yields positional rows. *csv.Reader satisfies it.
type RowReader interface {
	Read() ([]string, error)
}

// ImportResult contains the partitioned outcome of one import batch.
// Valid and Invalid hold row identifiers verbatim, in first-seen order.
type ImportResult struct {
	ImportID string        `json:"import_id"`
	Kind     Kind          `json:"kind"`
	Mode     string        `json:"mode"`
	Rows     int           `json:"rows"`
	Valid    []string      `json:"valid"`
	Invalid  []string      `json:"invalid"`
	Duration time.Duration `json:"duration"`

	// Interrupted is set when the input stopped being readable mid-batch.
	// Rows listed in Valid were applied regardless.
	Interrupted string `json:"interrupted,omitempty"`
}

// NearbyStop is one ranked proximity result.
type NearbyStop struct {
	StopID     int64   `json:"id"`
	Name       string  `json:"name"`
	DistanceKm float64 `json:"distance_km"`
}

// Fields is a named field bag for create and partial update. A missing key
// means "keep the stored value"; a present key replaces it.
type Fields = url.Values
