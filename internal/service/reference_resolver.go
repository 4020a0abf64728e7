package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/prenatal-phenotype-server/internal/domain"
)

// GrowthReferenceResolver converts (measurement type, gestational age, raw
// value) into a continuous percentile using the loaded reference tables.
// Centile grids are interpolated directly; moment grids go through a
// z-score and the standard normal CDF.
//
// All tables are validated and indexed at construction; every lookup after
// that is a pure function safe for concurrent use.
type GrowthReferenceResolver struct {
	logger  *logrus.Logger
	centile map[domain.MeasurementType]*domain.ReferenceTable
	moment  map[domain.MeasurementType]*domain.ReferenceTable
}

// NewGrowthReferenceResolver validates and indexes the given tables. At most
// one table per (measurement type, kind) pair is allowed.
func NewGrowthReferenceResolver(logger *logrus.Logger, tables []*domain.ReferenceTable) (*GrowthReferenceResolver, error) {
	r := &GrowthReferenceResolver{
		logger:  logger,
		centile: make(map[domain.MeasurementType]*domain.ReferenceTable),
		moment:  make(map[domain.MeasurementType]*domain.ReferenceTable),
	}

	for _, table := range tables {
		if err := table.Validate(); err != nil {
			return nil, err
		}
		index := r.centile
		if table.Kind == domain.MomentTable {
			index = r.moment
		}
		if _, exists := index[table.Measurement]; exists {
			return nil, &domain.InvalidReferenceDataError{
				Type:   table.Measurement.String(),
				Detail: fmt.Sprintf("duplicate %s table", table.Kind),
			}
		}
		index[table.Measurement] = table

		logger.WithFields(logrus.Fields{
			"measurement": table.Measurement.String(),
			"source":      table.Source.String(),
			"kind":        table.Kind.String(),
			"rows":        len(table.Rows),
		}).Debug("Indexed reference table")
	}

	return r, nil
}

// PercentileFor resolves the continuous percentile of a raw value at the
// given gestational age. The centile grid is preferred; types with only a
// moment grid fall back to the z-score path. When a moment grid is present
// the z-score is included in the result either way.
func (r *GrowthReferenceResolver) PercentileFor(measurement domain.MeasurementType, ageWeeks float64, value float64) (*domain.PercentileResult, error) {
	ct, hasCentile := r.centile[measurement]
	ms, hasMoment := r.moment[measurement]
	if !hasCentile && !hasMoment {
		return nil, &domain.UnknownMeasurementTypeError{Type: measurement.String()}
	}

	var result *domain.PercentileResult
	if hasCentile {
		thresholds, err := interpolateRow(ct, ageWeeks)
		if err != nil {
			return nil, err
		}
		percentile, extrapolated := interpolateLabel(ct.Labels, thresholds, value)
		result = &domain.PercentileResult{Percentile: percentile, Extrapolated: extrapolated}

		if extrapolated {
			r.logger.WithFields(logrus.Fields{
				"measurement": measurement.String(),
				"age_weeks":   ageWeeks,
				"value_mm":    value,
				"percentile":  percentile,
			}).Warn("Value outside tabled threshold range, percentile extrapolated")
		}
	}

	if hasMoment {
		z, err := r.zscore(ms, ageWeeks, value)
		if err != nil {
			// The moment grid only supplements a centile result; it is
			// authoritative when it is the sole grid for the type.
			if result == nil {
				return nil, err
			}
			return result, nil
		}
		if result == nil {
			result = &domain.PercentileResult{Percentile: normalCDF(z) * 100}
		}
		result.ZScore = &z
	}

	return result, nil
}

// ZScoreFor resolves the z-score of a raw value at the given gestational
// age. Only defined for measurement types with a moment grid.
func (r *GrowthReferenceResolver) ZScoreFor(measurement domain.MeasurementType, ageWeeks float64, value float64) (float64, error) {
	ms, hasMoment := r.moment[measurement]
	if !hasMoment {
		if _, hasCentile := r.centile[measurement]; hasCentile {
			return 0, &domain.UnsupportedOperationError{Op: "z-score lookup", Type: measurement.String()}
		}
		return 0, &domain.UnknownMeasurementTypeError{Type: measurement.String()}
	}
	return r.zscore(ms, ageWeeks, value)
}

// Measurements returns the measurement types with at least one loaded table,
// sorted by name.
func (r *GrowthReferenceResolver) Measurements() []domain.MeasurementType {
	seen := make(map[domain.MeasurementType]bool, len(r.centile)+len(r.moment))
	for m := range r.centile {
		seen[m] = true
	}
	for m := range r.moment {
		seen[m] = true
	}
	out := make([]domain.MeasurementType, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasMomentTable reports whether a moment grid is loaded for the type.
func (r *GrowthReferenceResolver) HasMomentTable(measurement domain.MeasurementType) bool {
	_, ok := r.moment[measurement]
	return ok
}

func (r *GrowthReferenceResolver) zscore(table *domain.ReferenceTable, ageWeeks float64, value float64) (float64, error) {
	moments, err := interpolateRow(table, ageWeeks)
	if err != nil {
		return 0, err
	}
	mean, sd := moments[0], moments[1]
	if sd <= 0 {
		return 0, &domain.InvalidReferenceDataError{
			Type:   table.Measurement.String(),
			Detail: fmt.Sprintf("non-positive interpolated standard deviation %.6f at %.2f weeks", sd, ageWeeks),
		}
	}
	return (value - mean) / sd, nil
}

// interpolateRow resolves the age axis: it returns the row scalars at
// ageWeeks, linearly interpolated between the two bracketing grid rows. For
// centile tables the scalars are the thresholds; for moment tables they are
// [mean, sd]. Ages outside the grid bounds (inclusive) are a hard error.
func interpolateRow(table *domain.ReferenceTable, ageWeeks float64) ([]float64, error) {
	rows := table.Rows
	if ageWeeks < table.MinAge() || ageWeeks > table.MaxAge() {
		return nil, &domain.ReferenceOutOfRangeError{
			Type:     table.Measurement.String(),
			AgeWeeks: ageWeeks,
			MinWeeks: table.MinAge(),
			MaxWeeks: table.MaxAge(),
		}
	}

	// Exact grid point: use the row directly, no interpolation error.
	idx := sort.Search(len(rows), func(i int) bool { return rows[i].AgeWeeks >= ageWeeks })
	if rows[idx].AgeWeeks == ageWeeks {
		return rowScalars(table, rows[idx]), nil
	}

	lo, hi := rows[idx-1], rows[idx]
	frac := (ageWeeks - lo.AgeWeeks) / (hi.AgeWeeks - lo.AgeWeeks)

	loVals := rowScalars(table, lo)
	hiVals := rowScalars(table, hi)
	out := make([]float64, len(loVals))
	for i := range loVals {
		out[i] = loVals[i] + frac*(hiVals[i]-loVals[i])
	}
	return out, nil
}

func rowScalars(table *domain.ReferenceTable, row domain.ReferenceRow) []float64 {
	if table.Kind == domain.MomentTable {
		return []float64{row.Mean, row.SD}
	}
	return row.Thresholds
}

// interpolateLabel resolves the value axis of a centile row: it maps a raw
// value to a continuous percentile assuming a locally linear
// percentile-to-value relationship between bracketing labels. Values outside
// the tabled threshold range are extrapolated from the two extreme grid
// points, clipped to [0, 100], and flagged.
func interpolateLabel(labels []float64, thresholds []float64, value float64) (percentile float64, extrapolated bool) {
	n := len(thresholds)

	if value < thresholds[0] {
		return clipPercentile(extrapolate(labels[0], thresholds[0], labels[1], thresholds[1], value)), true
	}
	if value > thresholds[n-1] {
		return clipPercentile(extrapolate(labels[n-2], thresholds[n-2], labels[n-1], thresholds[n-1], value)), true
	}

	for i := 0; i < n-1; i++ {
		lo, hi := thresholds[i], thresholds[i+1]
		if value < lo || value > hi {
			continue
		}
		if hi == lo {
			return labels[i], false
		}
		frac := (value - lo) / (hi - lo)
		return labels[i] + frac*(labels[i+1]-labels[i]), false
	}

	// value == thresholds[n-1] with a degenerate final segment
	return labels[n-1], false
}

func extrapolate(p0, t0, p1, t1, value float64) float64 {
	if t1 == t0 {
		return p0
	}
	slope := (p1 - p0) / (t1 - t0)
	return p0 + slope*(value-t0)
}

func clipPercentile(p float64) float64 {
	return math.Min(100, math.Max(0, p))
}

// normalCDF is the standard normal cumulative distribution function,
// computed via erfc for numerical stability in the tails.
func normalCDF(z float64) float64 {
	return 0.5 * math.Erfc(-z/math.Sqrt2)
}
