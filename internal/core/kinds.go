package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Field names shared by forms, import columns and error messages.
const (
	FieldID        = "Id"
	FieldName      = "Name"
	FieldLatitude  = "Latitude"
	FieldLongitude = "Longitude"
	FieldStops     = "Stops"
	FieldModel     = "Model"
	FieldLineID    = "LineId"
	FieldVehicleID = "VehicleId"
)

func init() {
	Register(KindDefinition{
		Kind:     KindStop,
		Label:    "Stops",
		KeyField: FieldID,
		Columns:  []string{FieldID, FieldName, FieldLatitude, FieldLongitude},
		Zero:     func() Record { return Stop{} },
		Apply:    applyStop,
		Describe: func(rec Record) string {
			s := rec.(Stop)
			return fmt.Sprintf("%d - %s", s.ID, s.Name)
		},
	})

	Register(KindDefinition{
		Kind:     KindLine,
		Label:    "Lines",
		KeyField: FieldID,
		Columns:  []string{FieldID, FieldName},
		Variadic: FieldStops,
		Zero:     func() Record { return Line{Stops: []int64{}} },
		Apply:    applyLine,
		Describe: func(rec Record) string {
			l := rec.(Line)
			return fmt.Sprintf("%d - %s", l.ID, l.Name)
		},
	})

	Register(KindDefinition{
		Kind:     KindVehicle,
		Label:    "Vehicles",
		KeyField: FieldID,
		Columns:  []string{FieldID, FieldName, FieldModel, FieldLineID},
		Zero:     func() Record { return Vehicle{} },
		Apply:    applyVehicle,
		Describe: func(rec Record) string {
			v := rec.(Vehicle)
			return fmt.Sprintf("%d - %s - %s - line %d", v.ID, v.Name, v.Model, v.LineID)
		},
	})

	Register(KindDefinition{
		Kind:     KindPosition,
		Label:    "Positions",
		KeyField: FieldVehicleID,
		Columns:  []string{FieldVehicleID, FieldLatitude, FieldLongitude},
		Zero:     func() Record { return Position{} },
		Apply:    applyPosition,
		Describe: func(rec Record) string {
			p := rec.(Position)
			return fmt.Sprintf("%d - %s, %s", p.VehicleID, formatDegrees(p.Latitude), formatDegrees(p.Longitude))
		},
	})
}

func applyStop(rec Record, f Fields) (Record, error) {
	s := rec.(Stop)
	if err := setID(f, FieldID, &s.ID); err != nil {
		return nil, err
	}
	setText(f, FieldName, &s.Name)
	if err := setCoordinate(f, FieldLatitude, &s.Latitude); err != nil {
		return nil, err
	}
	if err := setCoordinate(f, FieldLongitude, &s.Longitude); err != nil {
		return nil, err
	}
	return s, nil
}

// applyLine unions supplied stops into the existing set; it never removes.
func applyLine(rec Record, f Fields) (Record, error) {
	l := rec.(Line)
	if err := setID(f, FieldID, &l.ID); err != nil {
		return nil, err
	}
	setText(f, FieldName, &l.Name)

	var cells []string
	for _, v := range f[FieldStops] {
		cells = append(cells, strings.Split(v, ",")...)
	}
	ids, err := ParseIDs(FieldStops, cells)
	if err != nil {
		return nil, err
	}
	l.Stops = StopSet(l.Stops, ids)
	return l, nil
}

func applyVehicle(rec Record, f Fields) (Record, error) {
	v := rec.(Vehicle)
	if err := setID(f, FieldID, &v.ID); err != nil {
		return nil, err
	}
	setText(f, FieldName, &v.Name)
	setText(f, FieldModel, &v.Model)
	if err := setID(f, FieldLineID, &v.LineID); err != nil {
		return nil, err
	}
	return v, nil
}

func applyPosition(rec Record, f Fields) (Record, error) {
	p := rec.(Position)
	if err := setID(f, FieldVehicleID, &p.VehicleID); err != nil {
		return nil, err
	}
	if err := setCoordinate(f, FieldLatitude, &p.Latitude); err != nil {
		return nil, err
	}
	if err := setCoordinate(f, FieldLongitude, &p.Longitude); err != nil {
		return nil, err
	}
	return p, nil
}

func setID(f Fields, field string, dst *int64) error {
	if !f.Has(field) {
		return nil
	}
	id, err := ParseID(field, f.Get(field))
	if err != nil {
		return err
	}
	*dst = id
	return nil
}

func setCoordinate(f Fields, field string, dst *float64) error {
	if !f.Has(field) {
		return nil
	}
	v, err := ParseCoordinate(field, f.Get(field))
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func setText(f Fields, field string, dst *string) {
	if f.Has(field) {
		*dst = f.Get(field)
	}
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
