package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			"Unknown measurement type",
			&UnknownMeasurementTypeError{Type: "crown_rump_length"},
			[]string{"unknown measurement type", "crown_rump_length"},
		},
		{
			"Reference out of range",
			&ReferenceOutOfRangeError{Type: "head_circumference", AgeWeeks: 12, MinWeeks: 14, MaxWeeks: 40},
			[]string{"12.00", "[14.00, 40.00]", "head_circumference"},
		},
		{
			"Invalid reference data",
			&InvalidReferenceDataError{Type: "femur_length", Detail: "non-positive standard deviation"},
			[]string{"femur_length", "non-positive standard deviation"},
		},
		{
			"Mapping validation",
			&MappingValidationError{Type: "head_circumference", Defect: "gap between 3 and 5"},
			[]string{"head_circumference", "gap between 3 and 5"},
		},
		{
			"Invalid term id",
			&InvalidTermIdError{ID: "HP:252"},
			[]string{"HP:252"},
		},
		{
			"Invalid percentile",
			&InvalidPercentileError{Value: 101.5},
			[]string{"101.5", "[0, 100]"},
		},
		{
			"Mapping integrity",
			&MappingIntegrityError{Type: "head_circumference", Percentile: 42},
			[]string{"head_circumference", "42"},
		},
		{
			"Unsupported operation",
			&UnsupportedOperationError{Op: "z-score lookup", Type: "head_circumference"},
			[]string{"z-score lookup", "head_circumference"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Expected message %q to contain %q", msg, want)
				}
			}
		})
	}
}

func TestErrorUnwrapping(t *testing.T) {
	wrapped := fmt.Errorf("resolving percentile: %w", &ReferenceOutOfRangeError{
		Type: "head_circumference", AgeWeeks: 10, MinWeeks: 14, MaxWeeks: 40,
	})

	var oor *ReferenceOutOfRangeError
	if !errors.As(wrapped, &oor) {
		t.Fatal("Expected errors.As to find ReferenceOutOfRangeError")
	}
	if oor.AgeWeeks != 10 {
		t.Errorf("Expected age 10, got %v", oor.AgeWeeks)
	}
}
