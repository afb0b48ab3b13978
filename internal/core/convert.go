package core

// convert.go turns raw form and CSV cells into typed values.
//
// Cells arrive from spreadsheets as often as from scripts, so the common
// artifacts are stripped before parsing:
//   - Surrounding whitespace
//   - Excel formula prefixes (="value")
//   - Surrounding quotes
//
// Names are never cleaned; they are stored verbatim.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a plain decimal number after cleanup.
// Matches integers, decimals, and scientific notation. Rejects NaN and Inf.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// ParseID parses an entity id. field names the column for error messages.
func ParseID(field, raw string) (int64, error) {
	s := CleanCell(raw)
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, Malformed(field, raw)
	}
	return id, nil
}

// ParseIDs parses a list of ids, skipping empty cells.
func ParseIDs(field string, raws []string) ([]int64, error) {
	ids := make([]int64, 0, len(raws))
	for _, raw := range raws {
		if CleanCell(raw) == "" {
			continue
		}
		id, err := ParseID(field, raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseCoordinate parses a decimal-degree value. Range checks are left to
// validation so that parse and range failures stay distinguishable.
func ParseCoordinate(field, raw string) (float64, error) {
	s := CleanCell(raw)
	if !numericRegex.MatchString(s) {
		return 0, Malformed(field, raw)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, Malformed(field, raw)
	}
	return f, nil
}
