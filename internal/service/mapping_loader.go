package service

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/prenatal-phenotype-server/internal/domain"
)

// boundTolerance absorbs floating-point noise when checking that adjacent
// percentile ranges tile exactly.
const boundTolerance = 1e-9

// binSpec is one rule row of the declarative mapping document.
type binSpec struct {
	Min    *float64 `yaml:"min"`
	Max    *float64 `yaml:"max"`
	ID     string   `yaml:"id"`
	Label  string   `yaml:"label"`
	Normal bool     `yaml:"normal"`
}

// MappingConfigurationLoader parses the declarative percentile-to-term rule
// document into validated, sorted mapping sets. Loading happens once; the
// resulting sets are immutable, shareable configuration.
type MappingConfigurationLoader struct {
	logger *logrus.Logger
}

// NewMappingConfigurationLoader creates a mapping loader.
func NewMappingConfigurationLoader(logger *logrus.Logger) *MappingConfigurationLoader {
	return &MappingConfigurationLoader{logger: logger}
}

// LoadFile loads and validates a mapping document from a YAML file.
func (l *MappingConfigurationLoader) LoadFile(path string) (map[string][]domain.TermBin, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening mapping document: %w", err)
	}
	defer f.Close()
	return l.Load(f)
}

// Load parses a mapping document: a YAML mapping of measurement-type name to
// an ordered list of {min, max, id, label, normal} rules. Every rule set is
// sorted ascending by min and must partition [0, 100] exactly; any gap,
// overlap, ordering, or bounds defect fails the load with a
// MappingValidationError naming the type and the defect. Structural defects
// (unknown fields, wrong shapes) fail fast before validation.
func (l *MappingConfigurationLoader) Load(r io.Reader) (map[string][]domain.TermBin, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	raw := make(map[string][]binSpec)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding mapping document: %w", err)
	}

	mappings := make(map[string][]domain.TermBin, len(raw))
	for measurement, specs := range raw {
		bins, err := buildMappingSet(measurement, specs)
		if err != nil {
			return nil, err
		}
		mappings[measurement] = bins

		l.logger.WithFields(logrus.Fields{
			"measurement": measurement,
			"bins":        len(bins),
		}).Debug("Loaded mapping set")
	}
	return mappings, nil
}

// buildMappingSet constructs, sorts, and validates one measurement type's
// TermBins.
func buildMappingSet(measurement string, specs []binSpec) ([]domain.TermBin, error) {
	if len(specs) == 0 {
		return nil, &domain.MappingValidationError{Type: measurement, Defect: "no rule rows"}
	}

	bins := make([]domain.TermBin, 0, len(specs))
	for i, spec := range specs {
		if spec.Min == nil || spec.Max == nil {
			return nil, &domain.MappingValidationError{Type: measurement, Defect: fmt.Sprintf("rule %d is missing min or max", i)}
		}
		r := domain.PercentileRange{Min: *spec.Min, Max: *spec.Max}
		if r.Min < 0 || r.Max > 100 {
			return nil, &domain.MappingValidationError{
				Type:   measurement,
				Defect: fmt.Sprintf("range [%g, %g) outside [0, 100]", r.Min, r.Max),
			}
		}
		if r.Min >= r.Max {
			return nil, &domain.MappingValidationError{
				Type:   measurement,
				Defect: fmt.Sprintf("range [%g, %g) has min >= max", r.Min, r.Max),
			}
		}
		if err := domain.ValidateTermID(spec.ID); err != nil {
			return nil, err
		}
		bins = append(bins, domain.TermBin{
			Range:     r,
			TermID:    spec.ID,
			TermLabel: spec.Label,
			Normal:    spec.Normal,
			Category:  domain.DeriveCategory(r, spec.Normal),
		})
	}

	sort.Slice(bins, func(i, j int) bool { return bins[i].Range.Min < bins[j].Range.Min })

	// The sorted ranges must tile [0, 100] with no gap and no overlap.
	if bins[0].Range.Min != 0 {
		return nil, &domain.MappingValidationError{
			Type:   measurement,
			Defect: fmt.Sprintf("first range starts at %g, expected 0", bins[0].Range.Min),
		}
	}
	for i := 1; i < len(bins); i++ {
		prev, next := bins[i-1].Range, bins[i].Range
		diff := next.Min - prev.Max
		switch {
		case diff > boundTolerance:
			return nil, &domain.MappingValidationError{
				Type:   measurement,
				Defect: fmt.Sprintf("gap between %g and %g", prev.Max, next.Min),
			}
		case diff < -boundTolerance:
			return nil, &domain.MappingValidationError{
				Type:   measurement,
				Defect: fmt.Sprintf("overlap between %g and %g", next.Min, prev.Max),
			}
		}
		// Seams within tolerance snap shut so the stored ranges tile [0, 100]
		// exactly and every percentile classifies.
		bins[i].Range.Min = prev.Max
	}
	if last := bins[len(bins)-1].Range; last.Max != 100 {
		return nil, &domain.MappingValidationError{
			Type:   measurement,
			Defect: fmt.Sprintf("last range ends at %g, expected 100", last.Max),
		}
	}

	return bins, nil
}
