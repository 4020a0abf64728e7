package service

import (
	"fmt"

	"github.com/prenatal-phenotype-server/internal/domain"
)

// ObservationProjector converts TermObservations into the schema-stable
// feature records consumed by the external document assembler. Pure
// transformation; all validation happens upstream in the loader and
// evaluator.
type ObservationProjector struct{}

// NewObservationProjector creates a projector.
func NewObservationProjector() *ObservationProjector {
	return &ObservationProjector{}
}

// Project renders one observation as a feature record. An observation
// without a bound term projects to a null type on an excluded feature, never
// an absent record.
func (p *ObservationProjector) Project(obs *domain.TermObservation) domain.PhenotypicFeature {
	feature := domain.PhenotypicFeature{
		Excluded: !obs.Observed,
		Onset: domain.OnsetRecord{
			Weeks: obs.GestationalAge.Weeks(),
			Days:  obs.GestationalAge.Days(),
		},
		Percentile:  obs.Percentile,
		Description: fmt.Sprintf("Measurement at %s gestation", obs.GestationalAge),
	}

	if obs.TermID != "" {
		feature.Type = &domain.TermReference{ID: obs.TermID, Label: obs.TermLabel}
	} else {
		feature.Excluded = true
	}
	if !obs.Observed {
		feature.Description = fmt.Sprintf("Measurement within normal range for gestational age (%s)", obs.GestationalAge)
	}
	return feature
}
