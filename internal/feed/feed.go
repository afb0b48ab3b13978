// Package feed turns GTFS-Realtime VehiclePositions messages into
// position rows for the import reconciler.
//
// Each vehicle entity becomes one row of the form [vehicleId, latitude,
// longitude]. An entity that carries no position becomes a single-cell
// row, which the reconciler rejects. Entities without a vehicle payload
// (trip updates, alerts) are skipped.
package feed

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// ErrEmptyFeed is returned when the message holds no vehicle entities.
var ErrEmptyFeed = errors.New("feed contains no vehicle positions")

// Decode unmarshals a FeedMessage from raw protobuf bytes.
func Decode(b []byte) (*gtfsrtpb.FeedMessage, error) {
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(b, &fm); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return &fm, nil
}

// DecodeVehiclePositions decodes b and returns one row per vehicle entity,
// in feed order.
func DecodeVehiclePositions(b []byte) ([][]string, error) {
	fm, err := Decode(b)
	if err != nil {
		return nil, err
	}
	rows := VehicleRows(fm)
	if len(rows) == 0 {
		return nil, ErrEmptyFeed
	}
	return rows, nil
}

// VehicleRows extracts position rows from a decoded message.
func VehicleRows(fm *gtfsrtpb.FeedMessage) [][]string {
	rows := make([][]string, 0, len(fm.GetEntity()))
	for _, e := range fm.GetEntity() {
		vp := e.GetVehicle()
		if vp == nil {
			continue
		}

		id := vp.GetVehicle().GetId()
		if id == "" {
			id = e.GetId()
		}

		pos := vp.GetPosition()
		if pos == nil {
			rows = append(rows, []string{id})
			continue
		}
		rows = append(rows, []string{id, formatDegrees(pos.GetLatitude()), formatDegrees(pos.GetLongitude())})
	}
	return rows
}

// formatDegrees prints a float32 coordinate with the shortest
// representation that round-trips at 32 bits.
func formatDegrees(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

// Rows serves decoded rows through the Read interface the reconciler
// consumes.
type Rows struct {
	rows [][]string
	next int
}

// NewRows returns a reader over rows.
func NewRows(rows [][]string) *Rows {
	return &Rows{rows: rows}
}

// Read returns the next row, or io.EOF after the last one.
func (r *Rows) Read() ([]string, error) {
	if r.next >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.next]
	r.next++
	return row, nil
}
