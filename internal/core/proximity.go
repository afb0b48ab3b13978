package core

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	// EarthRadiusKm is the mean Earth radius used by Haversine.
	EarthRadiusKm = 6371.0
	// NearbyRadiusKm is the radius within which stops are appended as candidates.
	NearbyRadiusKm = 3.0
	// NearbyLimit caps the number of ranked results.
	NearbyLimit = 10
	// distanceWidth is the number of characters kept when rendering a distance.
	distanceWidth = 7
)

// Haversine returns the great-circle distance in kilometres between two
// points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Pow(math.Sin(dLat/2), 2) + math.Cos(rlat1)*math.Cos(rlat2)*math.Pow(math.Sin(dLon/2), 2)
	// Rounding can push a slightly past 1 for antipodal points.
	a = math.Min(1, a)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}

// RankNearby ranks stops by distance to (lat, lon).
//
// Stops are visited in the given order. The first stop visited always
// becomes the anchor candidate. While the anchor is the only candidate and
// lies beyond NearbyRadiusKm, a strictly closer stop replaces it. Otherwise
// a stop within NearbyRadiusKm is appended. Everything else is dropped.
// The candidates are stably sorted by distance and capped at NearbyLimit.
func RankNearby(lat, lon float64, stops []Stop) []NearbyStop {
	candidates := make([]NearbyStop, 0, NearbyLimit)

	for _, s := range stops {
		c := NearbyStop{
			StopID:     s.ID,
			Name:       s.Name,
			DistanceKm: Haversine(lat, lon, s.Latitude, s.Longitude),
		}

		switch {
		case len(candidates) == 0:
			candidates = append(candidates, c)
		case len(candidates) == 1 && candidates[0].DistanceKm > NearbyRadiusKm:
			if c.DistanceKm < candidates[0].DistanceKm {
				candidates[0] = c
			}
		case c.DistanceKm < NearbyRadiusKm:
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DistanceKm < candidates[j].DistanceKm
	})

	if len(candidates) > NearbyLimit {
		candidates = candidates[:NearbyLimit]
	}
	return candidates
}

// FormatDistance renders km truncated, not rounded, to seven characters.
// Whole numbers keep a ".0" suffix. Magnitudes below 1e-4 or from 1e16 up
// switch to exponent form ("5e-05", "1e+16").
func FormatDistance(km float64) string {
	var s string
	if abs := math.Abs(km); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		s = strconv.FormatFloat(km, 'e', -1, 64)
	} else {
		s = strconv.FormatFloat(km, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
	}
	if len(s) > distanceWidth {
		s = s[:distanceWidth]
	}
	return s
}

// RenderNearby renders ranked stops as text, one "Id - Name - Distance"
// line per result under a header line.
func RenderNearby(results []NearbyStop) string {
	var b strings.Builder
	b.WriteString("Id - Name - Distance\n")
	for _, r := range results {
		fmt.Fprintf(&b, "%d - %s - %s\n", r.StopID, r.Name, FormatDistance(r.DistanceKm))
	}
	return b.String()
}
