package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prenatal-phenotype-server/internal/domain"
)

func TestProjectObservedFeature(t *testing.T) {
	age, err := domain.NewGestationalAge(34, 3)
	require.NoError(t, err)
	p := 1.5

	feature := NewObservationProjector().Project(&domain.TermObservation{
		TermID:         "HP:0000252",
		TermLabel:      "Microcephaly",
		Category:       domain.LowerExtreme,
		Observed:       true,
		GestationalAge: age,
		Percentile:     &p,
	})

	require.NotNil(t, feature.Type)
	assert.Equal(t, "HP:0000252", feature.Type.ID)
	assert.Equal(t, "Microcephaly", feature.Type.Label)
	assert.False(t, feature.Excluded)
	assert.Equal(t, 34, feature.Onset.Weeks)
	assert.Equal(t, 3, feature.Onset.Days)
	require.NotNil(t, feature.Percentile)
	assert.Equal(t, 1.5, *feature.Percentile)
	assert.Equal(t, "Measurement at 34w3d gestation", feature.Description)
}

func TestProjectNormalRangeFeatureIsExcluded(t *testing.T) {
	age, err := domain.NewGestationalAge(20, 0)
	require.NoError(t, err)
	p := 50.0

	feature := NewObservationProjector().Project(&domain.TermObservation{
		TermID:         "HP:0000240",
		TermLabel:      "Abnormality of skull size",
		Category:       domain.NormalRange,
		Observed:       false,
		GestationalAge: age,
		Percentile:     &p,
	})

	assert.True(t, feature.Excluded)
	require.NotNil(t, feature.Type)
	assert.Equal(t, "Measurement within normal range for gestational age (20w0d)", feature.Description)
}

func TestProjectUnboundTermYieldsNullType(t *testing.T) {
	age, err := domain.NewGestationalAge(25, 2)
	require.NoError(t, err)

	feature := NewObservationProjector().Project(&domain.TermObservation{
		Observed:       true,
		GestationalAge: age,
	})

	assert.Nil(t, feature.Type)
	assert.True(t, feature.Excluded)
}
