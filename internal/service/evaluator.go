package service

import (
	"io"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/prenatal-phenotype-server/internal/domain"
)

// MeasurementEvaluator classifies a percentile into a TermObservation using
// one measurement type's validated mapping set. Stateless after
// construction; safe for concurrent use.
type MeasurementEvaluator struct {
	measurement string
	bins        []domain.TermBin
}

// NewMeasurementEvaluator wraps a validated, sorted mapping set. Callers
// normally obtain evaluators through the EvaluationRegistry.
func NewMeasurementEvaluator(measurement string, bins []domain.TermBin) *MeasurementEvaluator {
	return &MeasurementEvaluator{measurement: measurement, bins: bins}
}

// Measurement returns the measurement type this evaluator classifies.
func (e *MeasurementEvaluator) Measurement() string {
	return e.measurement
}

// Bins returns a copy of the evaluator's mapping set.
func (e *MeasurementEvaluator) Bins() []domain.TermBin {
	out := make([]domain.TermBin, len(e.bins))
	copy(out, e.bins)
	return out
}

// Classify maps a percentile to the first bin containing it. The bins are a
// validated half-open partition of [0, 100]; the final bin's upper bound is
// explicitly treated as inclusive so a percentile of exactly 100 matches.
// A percentile no bin matches indicates a loader defect and surfaces as a
// MappingIntegrityError, never a silent default.
func (e *MeasurementEvaluator) Classify(percentile float64, age domain.GestationalAge) (*domain.TermObservation, error) {
	if math.IsNaN(percentile) || percentile < 0 || percentile > 100 {
		return nil, &domain.InvalidPercentileError{Value: percentile}
	}

	for i, bin := range e.bins {
		last := i == len(e.bins)-1
		if bin.Range.Contains(percentile) || (last && percentile == bin.Range.Max) {
			p := percentile
			return &domain.TermObservation{
				TermID:         bin.TermID,
				TermLabel:      bin.TermLabel,
				Category:       bin.Category,
				Observed:       !bin.Normal,
				GestationalAge: age,
				Percentile:     &p,
			}, nil
		}
	}

	return nil, &domain.MappingIntegrityError{Type: e.measurement, Percentile: percentile}
}

// EvaluationRegistry loads the mapping configuration once and hands out one
// cached evaluator per measurement type. Constructing it with an alternate
// configuration source swaps the clinical policy without code changes.
type EvaluationRegistry struct {
	logger     *logrus.Logger
	evaluators map[string]*MeasurementEvaluator
}

// NewEvaluationRegistry loads and validates a mapping document from r.
func NewEvaluationRegistry(logger *logrus.Logger, r io.Reader) (*EvaluationRegistry, error) {
	mappings, err := NewMappingConfigurationLoader(logger).Load(r)
	if err != nil {
		return nil, err
	}
	return newRegistry(logger, mappings), nil
}

// NewEvaluationRegistryFromFile loads the mapping document at path.
func NewEvaluationRegistryFromFile(logger *logrus.Logger, path string) (*EvaluationRegistry, error) {
	logger.WithField("path", path).Info("Loading percentile mapping configuration")
	mappings, err := NewMappingConfigurationLoader(logger).LoadFile(path)
	if err != nil {
		return nil, err
	}
	return newRegistry(logger, mappings), nil
}

func newRegistry(logger *logrus.Logger, mappings map[string][]domain.TermBin) *EvaluationRegistry {
	evaluators := make(map[string]*MeasurementEvaluator, len(mappings))
	for measurement, bins := range mappings {
		evaluators[measurement] = NewMeasurementEvaluator(measurement, bins)
	}
	logger.WithField("measurement_count", len(evaluators)).Info("Initialized measurement evaluators")
	return &EvaluationRegistry{logger: logger, evaluators: evaluators}
}

// EvaluatorFor returns the cached evaluator for a measurement type.
func (r *EvaluationRegistry) EvaluatorFor(measurement string) (*MeasurementEvaluator, error) {
	evaluator, ok := r.evaluators[measurement]
	if !ok {
		return nil, &domain.UnknownMeasurementTypeError{Type: measurement}
	}
	return evaluator, nil
}

// Measurements returns the configured measurement type names, sorted.
func (r *EvaluationRegistry) Measurements() []string {
	out := make([]string, 0, len(r.evaluators))
	for measurement := range r.evaluators {
		out = append(out, measurement)
	}
	sort.Strings(out)
	return out
}
