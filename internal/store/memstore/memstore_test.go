package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/transitdir/internal/core"
)

func seed(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s := New()
	for _, rec := range []core.Record{
		core.Stop{ID: 5, Name: "Praça", Latitude: -23.55, Longitude: -46.63},
		core.Stop{ID: 6, Name: "Sé", Latitude: -23.54, Longitude: -46.63},
		core.Line{ID: 10, Name: "Blue", Stops: []int64{6, 5}},
		core.Line{ID: 11, Name: "Red", Stops: []int64{6}},
		core.Vehicle{ID: 100, Name: "Bus 100", Model: "Citaro", LineID: 10},
		core.Vehicle{ID: 101, Name: "Bus 101", Model: "Citaro", LineID: 11},
		core.Position{VehicleID: 100, Latitude: -23.5, Longitude: -46.6},
		core.Position{VehicleID: 101, Latitude: -23.6, Longitude: -46.7},
	} {
		require.NoError(t, s.Create(ctx, rec))
	}
	return s
}

func TestCreate_Constraints(t *testing.T) {
	tests := []struct {
		name string
		rec  core.Record
	}{
		{"duplicate stop", core.Stop{ID: 5, Name: "Again"}},
		{"latitude out of range", core.Stop{ID: 7, Name: "North", Latitude: 91}},
		{"longitude out of range", core.Stop{ID: 7, Name: "East", Longitude: -180.5}},
		{"line with missing stop", core.Line{ID: 12, Name: "Green", Stops: []int64{99}}},
		{"vehicle with missing line", core.Vehicle{ID: 102, Name: "Bus", Model: "X", LineID: 99}},
		{"position with missing vehicle", core.Position{VehicleID: 999}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seed(t)
			err := s.Create(context.Background(), tt.rec)
			assert.ErrorIs(t, err, core.ErrConstraint)
		})
	}
}

func TestUpdate_KeyIsImmutable(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	err := s.Update(ctx, 5, core.Stop{ID: 9, Name: "Moved", Latitude: 1, Longitude: 1})
	require.ErrorIs(t, err, core.ErrConstraint)

	rec, err := s.Get(ctx, core.KindStop, 5)
	require.NoError(t, err)
	assert.Equal(t, core.Stop{ID: 5, Name: "Praça", Latitude: -23.55, Longitude: -46.63}, rec)

	_, err = s.Get(ctx, core.KindStop, 9)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdate_RangeChecked(t *testing.T) {
	s := seed(t)
	err := s.Update(context.Background(), 100, core.Position{VehicleID: 100, Latitude: -90.1})
	assert.ErrorIs(t, err, core.ErrConstraint)
}

func TestUpdate_NotFound(t *testing.T) {
	s := seed(t)
	err := s.Update(context.Background(), 42, core.Stop{ID: 42, Name: "Nowhere"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdate_KeepsListOrder(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, 5, core.Stop{ID: 5, Name: "Renamed", Latitude: 0, Longitude: 0}))

	recs, err := s.List(ctx, core.KindStop)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(5), recs[0].Key())
	assert.Equal(t, "Renamed", recs[0].(core.Stop).Name)
}

func TestDelete_LineCascades(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, core.KindLine, 10))

	_, err := s.Get(ctx, core.KindVehicle, 100)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.Get(ctx, core.KindPosition, 100)
	assert.ErrorIs(t, err, core.ErrNotFound)

	// The other line's vehicle and position are untouched.
	_, err = s.Get(ctx, core.KindVehicle, 101)
	assert.NoError(t, err)
	_, err = s.Get(ctx, core.KindPosition, 101)
	assert.NoError(t, err)

	// Stops are not owned by lines.
	_, err = s.Get(ctx, core.KindStop, 5)
	assert.NoError(t, err)
}

func TestDelete_VehicleTakesPosition(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, core.KindVehicle, 100))
	_, err := s.Get(ctx, core.KindPosition, 100)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDelete_StopUnlinksFromLines(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, core.KindStop, 6))

	rec, err := s.Get(ctx, core.KindLine, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, rec.(core.Line).Stops)

	rec, err = s.Get(ctx, core.KindLine, 11)
	require.NoError(t, err)
	assert.Empty(t, rec.(core.Line).Stops)
}

func TestDelete_NotFound(t *testing.T) {
	s := seed(t)
	assert.ErrorIs(t, s.Delete(context.Background(), core.KindVehicle, 404), core.ErrNotFound)
}

func TestLinesForStop(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	lines, err := s.LinesForStop(ctx, 6)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, int64(10), lines[0].ID)
	assert.Equal(t, int64(11), lines[1].ID)

	_, err = s.LinesForStop(ctx, 404)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestVehiclesForLine(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	vehicles, err := s.VehiclesForLine(ctx, 11)
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, int64(101), vehicles[0].ID)

	_, err = s.VehiclesForLine(ctx, 404)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRemoveStopsFromLine(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	removed, err := s.RemoveStopsFromLine(ctx, 10, []int64{5, 77})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	rec, err := s.Get(ctx, core.KindLine, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{6}, rec.(core.Line).Stops)

	_, err = s.RemoveStopsFromLine(ctx, 404, []int64{5})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	rec, err := s.Get(ctx, core.KindLine, 10)
	require.NoError(t, err)
	line := rec.(core.Line)
	line.Stops[0] = 999

	again, err := s.Get(ctx, core.KindLine, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6}, again.(core.Line).Stops)
}

func TestTokens(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.AddToken(ctx, 42))
	require.NoError(t, s.AddToken(ctx, 42))
	require.NoError(t, s.AddToken(ctx, 7))

	tokens, err := s.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{42, 7}, tokens)
}
