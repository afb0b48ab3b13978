package core

import (
	"errors"
	"strings"
	"testing"
)

func TestValidator_Validate(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		rec       Record
		wantField string // empty means valid
	}{
		{name: "valid stop", rec: Stop{ID: 1, Name: "Central", Latitude: -23.5, Longitude: -46.6}},
		{name: "stop without name", rec: Stop{ID: 1, Latitude: 1, Longitude: 1}, wantField: "Name"},
		{name: "stop name too long", rec: Stop{ID: 1, Name: strings.Repeat("x", 101)}, wantField: "Name"},
		{name: "stop latitude too high", rec: Stop{ID: 1, Name: "N", Latitude: 90.5}, wantField: "Latitude"},
		{name: "stop longitude too low", rec: Stop{ID: 1, Name: "W", Longitude: -181}, wantField: "Longitude"},
		{name: "valid line", rec: Line{ID: 10, Name: "Blue", Stops: []int64{}}},
		{name: "vehicle model too long", rec: Vehicle{ID: 3, Name: "Bus", Model: strings.Repeat("m", 51)}, wantField: "Model"},
		{name: "vehicle without model", rec: Vehicle{ID: 3, Name: "Bus"}, wantField: "Model"},
		{name: "valid position", rec: Position{VehicleID: 3, Latitude: 90, Longitude: -180}},
		{name: "position out of range", rec: Position{VehicleID: 3, Latitude: -91}, wantField: "Latitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.rec)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, ErrConstraint) {
				t.Fatalf("Validate() error = %v, want ErrConstraint", err)
			}
			var ve ValidationErrors
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error %v does not carry ValidationErrors", err)
			}
			if ve[0].Field != tt.wantField {
				t.Errorf("first failing field = %q, want %q", ve[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Field: "Latitude", Message: "must be at most 90"}
	if got := e.Error(); got != "Latitude: must be at most 90" {
		t.Errorf("Error() = %q", got)
	}

	e = ValidationError{Message: "bad row"}
	if got := e.Error(); got != "bad row" {
		t.Errorf("Error() = %q", got)
	}
}
