package domain

import "fmt"

// ReferenceRow is one gestational-age grid point of a reference table.
// Centile tables populate Thresholds (one value per percentile label);
// moment tables populate Mean and SD.
type ReferenceRow struct {
	AgeWeeks   float64
	Thresholds []float64
	Mean       float64
	SD         float64
}

// ReferenceTable is one measurement type's age-indexed reference grid from a
// single growth standard. Built once at startup from normalized tabular
// input and immutable thereafter.
type ReferenceTable struct {
	Measurement MeasurementType
	Source      SourceStandard
	Kind        TableKind
	// Labels are the ascending percentile labels of a centile table
	// (e.g. 3, 5, 10, 50, 90, 95, 97). Empty for moment tables.
	Labels []float64
	// Rows are the grid points, ascending by gestational age.
	Rows []ReferenceRow
}

// MinAge returns the lowest tabled gestational age.
func (t *ReferenceTable) MinAge() float64 {
	return t.Rows[0].AgeWeeks
}

// MaxAge returns the highest tabled gestational age.
func (t *ReferenceTable) MaxAge() float64 {
	return t.Rows[len(t.Rows)-1].AgeWeeks
}

// Validate checks the structural invariants of the table: at least two grid
// rows, strictly ascending ages, and per-kind row shape (ascending labels
// with monotonically non-decreasing thresholds for centile tables, strictly
// positive SD for moment tables).
func (t *ReferenceTable) Validate() error {
	if !t.Kind.IsValid() {
		return &InvalidReferenceDataError{Type: t.Measurement.String(), Detail: fmt.Sprintf("unknown table kind %q", t.Kind)}
	}
	if len(t.Rows) < 2 {
		return &InvalidReferenceDataError{Type: t.Measurement.String(), Detail: "table needs at least two gestational-age rows"}
	}
	for i := 1; i < len(t.Rows); i++ {
		if t.Rows[i].AgeWeeks <= t.Rows[i-1].AgeWeeks {
			return &InvalidReferenceDataError{
				Type:   t.Measurement.String(),
				Detail: fmt.Sprintf("gestational ages not strictly ascending at row %d (%.2f after %.2f)", i, t.Rows[i].AgeWeeks, t.Rows[i-1].AgeWeeks),
			}
		}
	}

	switch t.Kind {
	case CentileTable:
		if len(t.Labels) < 2 {
			return &InvalidReferenceDataError{Type: t.Measurement.String(), Detail: "centile table needs at least two percentile labels"}
		}
		for i := 1; i < len(t.Labels); i++ {
			if t.Labels[i] <= t.Labels[i-1] {
				return &InvalidReferenceDataError{Type: t.Measurement.String(), Detail: "percentile labels not strictly ascending"}
			}
		}
		for _, row := range t.Rows {
			if len(row.Thresholds) != len(t.Labels) {
				return &InvalidReferenceDataError{
					Type:   t.Measurement.String(),
					Detail: fmt.Sprintf("row at %.2f weeks has %d thresholds, expected %d", row.AgeWeeks, len(row.Thresholds), len(t.Labels)),
				}
			}
			for i := 1; i < len(row.Thresholds); i++ {
				if row.Thresholds[i] < row.Thresholds[i-1] {
					return &InvalidReferenceDataError{
						Type:   t.Measurement.String(),
						Detail: fmt.Sprintf("thresholds decreasing at %.2f weeks (label %g)", row.AgeWeeks, t.Labels[i]),
					}
				}
			}
		}
	case MomentTable:
		for _, row := range t.Rows {
			if row.SD <= 0 {
				return &InvalidReferenceDataError{
					Type:   t.Measurement.String(),
					Detail: fmt.Sprintf("non-positive standard deviation %.4f at %.2f weeks", row.SD, row.AgeWeeks),
				}
			}
		}
	}
	return nil
}
