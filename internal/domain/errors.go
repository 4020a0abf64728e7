package domain

import "fmt"

// UnknownMeasurementTypeError reports a measurement type with no loaded
// reference table or no configured mapping.
type UnknownMeasurementTypeError struct {
	Type string
}

func (e *UnknownMeasurementTypeError) Error() string {
	return fmt.Sprintf("unknown measurement type: %s", e.Type)
}

// ReferenceOutOfRangeError reports a gestational age outside a reference
// table's supported bounds. Age bounds are hard validity limits of the
// underlying growth standard; no extrapolation is performed across them.
type ReferenceOutOfRangeError struct {
	Type     string
	AgeWeeks float64
	MinWeeks float64
	MaxWeeks float64
}

func (e *ReferenceOutOfRangeError) Error() string {
	return fmt.Sprintf("gestational age %.2f weeks outside reference range [%.2f, %.2f] for %s",
		e.AgeWeeks, e.MinWeeks, e.MaxWeeks, e.Type)
}

// InvalidReferenceDataError reports a structurally defective reference table:
// non-ascending ages, decreasing thresholds, or a non-positive standard
// deviation. Detected eagerly at load time where possible.
type InvalidReferenceDataError struct {
	Type   string
	Detail string
}

func (e *InvalidReferenceDataError) Error() string {
	return fmt.Sprintf("invalid reference data for %s: %s", e.Type, e.Detail)
}

// MappingValidationError reports a defect in the declarative percentile
// mapping configuration: a gap, an overlap, out-of-order ranges, or bounds
// outside [0, 100]. An invalid partition could misclassify patient data, so
// this error is fatal to the load attempt.
type MappingValidationError struct {
	Type   string
	Defect string
}

func (e *MappingValidationError) Error() string {
	return fmt.Sprintf("invalid percentile mapping for %s: %s", e.Type, e.Defect)
}

// InvalidTermIdError reports a phenotype term identifier that does not match
// the fixed namespace:code pattern.
type InvalidTermIdError struct {
	ID string
}

func (e *InvalidTermIdError) Error() string {
	return fmt.Sprintf("invalid phenotype term identifier: %q", e.ID)
}

// InvalidPercentileError reports a classification request with a percentile
// outside [0, 100].
type InvalidPercentileError struct {
	Value float64
}

func (e *InvalidPercentileError) Error() string {
	return fmt.Sprintf("percentile %v outside [0, 100]", e.Value)
}

// MappingIntegrityError reports that no bin matched a valid percentile.
// Loader validation guarantees the bins partition [0, 100] exactly, so this
// is unreachable with correctly loaded configuration and indicates a loader
// defect if it occurs. It is never silently absorbed.
type MappingIntegrityError struct {
	Type       string
	Percentile float64
}

func (e *MappingIntegrityError) Error() string {
	return fmt.Sprintf("no percentile bin matched %.4f for %s: mapping partition is defective", e.Percentile, e.Type)
}

// UnsupportedOperationError reports an operation the loaded tables cannot
// serve, such as a z-score request for a type with no moment grid.
type UnsupportedOperationError struct {
	Op   string
	Type string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s not supported for %s", e.Op, e.Type)
}
