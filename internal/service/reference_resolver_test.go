package service

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prenatal-phenotype-server/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// hcCentileTable brackets 20.86 weeks so that the interpolated 3rd-percentile
// threshold is exactly 172.0mm (167.7 + 0.86 * 5.0).
func hcCentileTable() *domain.ReferenceTable {
	return &domain.ReferenceTable{
		Measurement: domain.HeadCircumference,
		Source:      domain.Intergrowth21,
		Kind:        domain.CentileTable,
		Labels:      []float64{3, 5, 10, 50, 90, 95, 97},
		Rows: []domain.ReferenceRow{
			{AgeWeeks: 20, Thresholds: []float64{167.7, 171.0, 176.0, 185.0, 194.0, 198.0, 201.0}},
			{AgeWeeks: 21, Thresholds: []float64{172.7, 176.0, 181.0, 190.0, 199.0, 203.0, 206.0}},
			{AgeWeeks: 22, Thresholds: []float64{177.7, 181.0, 186.0, 195.0, 204.0, 208.0, 211.0}},
		},
	}
}

func hcMomentTable() *domain.ReferenceTable {
	return &domain.ReferenceTable{
		Measurement: domain.HeadCircumference,
		Source:      domain.Intergrowth21,
		Kind:        domain.MomentTable,
		Rows: []domain.ReferenceRow{
			{AgeWeeks: 20, Mean: 185.0, SD: 9.0},
			{AgeWeeks: 21, Mean: 190.0, SD: 9.5},
			{AgeWeeks: 22, Mean: 195.0, SD: 10.0},
		},
	}
}

func flMomentTable() *domain.ReferenceTable {
	return &domain.ReferenceTable{
		Measurement: domain.FemurLength,
		Source:      domain.Intergrowth21,
		Kind:        domain.MomentTable,
		Rows: []domain.ReferenceRow{
			{AgeWeeks: 28, Mean: 190.0, SD: 9.0},
			{AgeWeeks: 32, Mean: 210.0, SD: 11.0},
		},
	}
}

func newTestResolver(t *testing.T, tables ...*domain.ReferenceTable) *GrowthReferenceResolver {
	t.Helper()
	resolver, err := NewGrowthReferenceResolver(testLogger(), tables)
	require.NoError(t, err)
	return resolver
}

func TestPercentileForExactGridPoint(t *testing.T) {
	resolver := newTestResolver(t, hcCentileTable())

	// Exact tabled threshold at an exact grid age returns the label exactly.
	result, err := resolver.PercentileFor(domain.HeadCircumference, 20, 185.0)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, result.Percentile, 1e-6)
	assert.False(t, result.Extrapolated)
}

func TestPercentileForInterpolatedAge(t *testing.T) {
	resolver := newTestResolver(t, hcCentileTable())

	// Row interpolated between 20 and 21 weeks: 3rd-percentile threshold is
	// 172.0mm at 20.86 weeks.
	result, err := resolver.PercentileFor(domain.HeadCircumference, 20.86, 172.0)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, result.Percentile, 1e-6)
	assert.False(t, result.Extrapolated)
}

func TestPercentileForValueAxisInterpolation(t *testing.T) {
	resolver := newTestResolver(t, hcCentileTable())

	// Halfway between the 10th (176.0) and 50th (185.0) thresholds.
	result, err := resolver.PercentileFor(domain.HeadCircumference, 20, 180.5)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, result.Percentile, 1e-6)
}

func TestPercentileForMonotonicity(t *testing.T) {
	resolver := newTestResolver(t, hcCentileTable())

	prev := -1.0
	for value := 150.0; value <= 220.0; value += 0.5 {
		result, err := resolver.PercentileFor(domain.HeadCircumference, 20.5, value)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.Percentile, prev, "percentile decreased at value %.1f", value)
		prev = result.Percentile
	}
}

func TestPercentileForExtrapolation(t *testing.T) {
	resolver := newTestResolver(t, hcCentileTable())

	low, err := resolver.PercentileFor(domain.HeadCircumference, 20, 160.0)
	require.NoError(t, err)
	assert.True(t, low.Extrapolated)
	assert.GreaterOrEqual(t, low.Percentile, 0.0)
	assert.Less(t, low.Percentile, 3.0)

	high, err := resolver.PercentileFor(domain.HeadCircumference, 20, 240.0)
	require.NoError(t, err)
	assert.True(t, high.Extrapolated)
	assert.Equal(t, 100.0, high.Percentile, "far-out value clips to 100")
}

func TestPercentileForAgeOutOfRange(t *testing.T) {
	resolver := newTestResolver(t, hcCentileTable())

	_, err := resolver.PercentileFor(domain.HeadCircumference, 19.9, 180.0)
	var oor *domain.ReferenceOutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 20.0, oor.MinWeeks)
	assert.Equal(t, 22.0, oor.MaxWeeks)

	_, err = resolver.PercentileFor(domain.HeadCircumference, 22.01, 180.0)
	require.ErrorAs(t, err, &oor)

	// Inclusive bounds: the extremes themselves resolve.
	_, err = resolver.PercentileFor(domain.HeadCircumference, 20.0, 180.0)
	assert.NoError(t, err)
	_, err = resolver.PercentileFor(domain.HeadCircumference, 22.0, 180.0)
	assert.NoError(t, err)
}

func TestPercentileForUnknownType(t *testing.T) {
	resolver := newTestResolver(t, hcCentileTable())

	_, err := resolver.PercentileFor(domain.AbdominalCircumference, 20, 150.0)
	var unknown *domain.UnknownMeasurementTypeError
	assert.ErrorAs(t, err, &unknown)
}

func TestZScorePath(t *testing.T) {
	resolver := newTestResolver(t, flMomentTable())

	// Interpolated moments at 30 weeks: mean 200.0, sd 10.0.
	z, err := resolver.ZScoreFor(domain.FemurLength, 30, 220.0)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, z, 1e-9)

	// Moment-only types resolve percentiles through the normal CDF.
	result, err := resolver.PercentileFor(domain.FemurLength, 30, 220.0)
	require.NoError(t, err)
	assert.InDelta(t, 97.7, result.Percentile, 0.1)
	require.NotNil(t, result.ZScore)
	assert.InDelta(t, 2.0, *result.ZScore, 1e-9)
	assert.False(t, result.Extrapolated)
}

func TestZScoreUnsupportedWithoutMomentTable(t *testing.T) {
	resolver := newTestResolver(t, hcCentileTable())

	_, err := resolver.ZScoreFor(domain.HeadCircumference, 20, 185.0)
	var unsupported *domain.UnsupportedOperationError
	assert.ErrorAs(t, err, &unsupported)
}

func TestPercentileForIncludesZScoreWhenMomentTablePresent(t *testing.T) {
	resolver := newTestResolver(t, hcCentileTable(), hcMomentTable())

	result, err := resolver.PercentileFor(domain.HeadCircumference, 20, 185.0)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, result.Percentile, 1e-6)
	require.NotNil(t, result.ZScore)
	assert.InDelta(t, 0.0, *result.ZScore, 1e-9)
}

func TestNewResolverRejectsDefectiveTables(t *testing.T) {
	bad := flMomentTable()
	bad.Rows[1].SD = 0

	_, err := NewGrowthReferenceResolver(testLogger(), []*domain.ReferenceTable{bad})
	var invalid *domain.InvalidReferenceDataError
	assert.ErrorAs(t, err, &invalid)
}

func TestNewResolverRejectsDuplicateTables(t *testing.T) {
	_, err := NewGrowthReferenceResolver(testLogger(), []*domain.ReferenceTable{hcCentileTable(), hcCentileTable()})
	var invalid *domain.InvalidReferenceDataError
	assert.ErrorAs(t, err, &invalid)
}

func TestMeasurements(t *testing.T) {
	resolver := newTestResolver(t, hcCentileTable(), flMomentTable())

	assert.Equal(t, []domain.MeasurementType{domain.FemurLength, domain.HeadCircumference}, resolver.Measurements())
	assert.True(t, resolver.HasMomentTable(domain.FemurLength))
	assert.False(t, resolver.HasMomentTable(domain.HeadCircumference))
}

func TestNormalCDF(t *testing.T) {
	assert.InDelta(t, 0.5, normalCDF(0), 1e-12)
	assert.InDelta(t, 0.97725, normalCDF(2.0), 1e-5)
	assert.InDelta(t, 0.02275, normalCDF(-2.0), 1e-5)
}
