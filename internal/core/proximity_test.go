package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kmPerDegree is the length of one degree of latitude at EarthRadiusKm.
const kmPerDegree = 111.19492664455873

// northOf returns a stop d km due north of the origin.
func northOf(id int64, d float64) Stop {
	return Stop{ID: id, Name: fmt.Sprintf("stop %d", id), Latitude: d / kmPerDegree}
}

func TestHaversine_SamePointIsZero(t *testing.T) {
	points := [][2]float64{{0, 0}, {-23.5505, -46.6333}, {90, 0}, {-90, 180}, {51.5, -0.12}}
	for _, p := range points {
		if d := Haversine(p[0], p[1], p[0], p[1]); d != 0 {
			t.Errorf("Haversine(%v, %v) = %v, want 0", p, p, d)
		}
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	tests := []struct {
		name string
		a, b [2]float64
	}{
		{"short hop", [2]float64{-23.5505, -46.6333}, [2]float64{-23.5614, -46.6559}},
		{"across the meridian", [2]float64{51.5, -0.5}, [2]float64{51.4, 0.5}},
		{"across the antimeridian", [2]float64{10, 179.9}, [2]float64{-10, -179.9}},
		{"pole to equator", [2]float64{90, 0}, [2]float64{0, 45}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ab := Haversine(tt.a[0], tt.a[1], tt.b[0], tt.b[1])
			ba := Haversine(tt.b[0], tt.b[1], tt.a[0], tt.a[1])
			if ab != ba {
				t.Errorf("asymmetric: %v vs %v", ab, ba)
			}
		})
	}
}

func TestHaversine_KnownDistances(t *testing.T) {
	assert.InDelta(t, kmPerDegree, Haversine(0, 0, 1, 0), 1e-9)
	assert.InDelta(t, kmPerDegree, Haversine(0, 0, 0, 1), 1e-9)
	// Half the circumference between antipodes.
	assert.InDelta(t, 20015.086796, Haversine(0, 0, 0, 180), 1e-3)
}

func TestRankNearby_Empty(t *testing.T) {
	got := RankNearby(0, 0, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRankNearby_SingleStopAlwaysReturned(t *testing.T) {
	far := Stop{ID: 1, Name: "Faraway", Latitude: 45, Longitude: 90}
	got := RankNearby(0, 0, []Stop{far})

	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].StopID)
	assert.Greater(t, got[0].DistanceKm, 1000.0)
}

func TestRankNearby_OneAndFiveKm(t *testing.T) {
	near, far := northOf(1, 1), northOf(2, 5)

	for _, order := range [][]Stop{{near, far}, {far, near}} {
		got := RankNearby(0, 0, order)
		require.Len(t, got, 1)
		assert.Equal(t, int64(1), got[0].StopID)
		assert.InDelta(t, 1.0, got[0].DistanceKm, 1e-9)
	}
}

func TestRankNearby_FarAnchorReplacedOnlyByCloser(t *testing.T) {
	stops := []Stop{northOf(1, 10), northOf(2, 12), northOf(3, 8), northOf(4, 9)}
	got := RankNearby(0, 0, stops)

	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].StopID)
}

func TestRankNearby_FarStopsVisitedFirst(t *testing.T) {
	// 10 km anchor, replaced by 8 km, replaced by 1 km; 2 km is appended;
	// the trailing far stop is dropped because the set is no longer a far anchor.
	stops := []Stop{northOf(1, 10), northOf(2, 8), northOf(3, 1), northOf(4, 2), northOf(5, 9)}
	got := RankNearby(0, 0, stops)

	ids := make([]int64, len(got))
	for i, r := range got {
		ids[i] = r.StopID
	}
	assert.Equal(t, []int64{3, 4}, ids)
}

func TestRankNearby_NearAnchorDropsLaterFarStops(t *testing.T) {
	stops := []Stop{northOf(1, 2.5), northOf(2, 4), northOf(3, 0.5)}
	got := RankNearby(0, 0, stops)

	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].StopID)
	assert.Equal(t, int64(1), got[1].StopID)
}

func TestRankNearby_SortedAndCapped(t *testing.T) {
	var stops []Stop
	// Fifteen stops within 3 km, visited in descending distance.
	for i := 15; i >= 1; i-- {
		stops = append(stops, northOf(int64(i), float64(i)*0.19))
	}
	got := RankNearby(0, 0, stops)

	require.Len(t, got, NearbyLimit)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].DistanceKm, got[i].DistanceKm, "not strictly ascending at %d", i)
	}
	assert.Equal(t, int64(1), got[0].StopID)
	assert.Equal(t, int64(10), got[9].StopID)
}

func TestRankNearby_TiesKeepVisitOrder(t *testing.T) {
	a := Stop{ID: 7, Name: "A", Latitude: 0.01}
	b := Stop{ID: 3, Name: "B", Latitude: 0.01}
	got := RankNearby(0, 0, []Stop{a, b})

	require.Len(t, got, 2)
	assert.Equal(t, int64(7), got[0].StopID)
	assert.Equal(t, int64(3), got[1].StopID)
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		km   float64
		want string
	}{
		{0, "0.0"},
		{3, "3.0"},
		{12.5, "12.5"},
		{1.23456789, "1.23456"},
		{0.123456789, "0.12345"},
		{1234.56789, "1234.56"},
		{12345678, "1234567"},
		{0.0001, "0.0001"},
		{0.00005, "5e-05"},
		{0.0000123456789, "1.23456"},
		{1e16, "1e+16"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDistance(tt.km))
		})
	}
}

func TestRenderNearby(t *testing.T) {
	got := RenderNearby([]NearbyStop{
		{StopID: 5, Name: "Praça", DistanceKm: 0.987654321},
		{StopID: 6, Name: "Sé", DistanceKm: 2},
	})
	want := "Id - Name - Distance\n5 - Praça - 0.98765\n6 - Sé - 2.0\n"
	assert.Equal(t, want, got)

	assert.Equal(t, "Id - Name - Distance\n", RenderNearby(nil))
}
