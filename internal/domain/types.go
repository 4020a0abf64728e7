// Package domain contains core business entities and types for fetal biometry
// evaluation: converting raw sonographic measurements into percentile-ranked,
// ontology-mapped phenotypic observations against published growth standards
// (INTERGROWTH-21st, NICHD).
package domain

import "regexp"

// MeasurementType identifies a fetal biometric measurement.
//
// Mapping configuration is keyed by plain strings, so adding a new
// measurement type requires only configuration, not a new constant.
// Constants exist for reference-table file discovery and for call sites
// that need a known type.
type MeasurementType string

const (
	HeadCircumference       MeasurementType = "head_circumference"
	BiparietalDiameter      MeasurementType = "biparietal_diameter"
	AbdominalCircumference  MeasurementType = "abdominal_circumference"
	FemurLength             MeasurementType = "femur_length"
	OccipitofrontalDiameter MeasurementType = "occipitofrontal_diameter"
	EstimatedFetalWeight    MeasurementType = "estimated_fetal_weight"
)

// shortAliases are the abbreviated forms used in reference-table filenames,
// e.g. intergrowth21_hc_ct.tsv.
var shortAliases = map[MeasurementType]string{
	HeadCircumference:       "hc",
	BiparietalDiameter:      "bpd",
	AbdominalCircumference:  "ac",
	FemurLength:             "fl",
	OccipitofrontalDiameter: "ofd",
	EstimatedFetalWeight:    "efw",
}

// IsValid reports whether the measurement type is one of the known biometrics.
func (m MeasurementType) IsValid() bool {
	_, ok := shortAliases[m]
	return ok
}

// String returns the canonical long-form name.
func (m MeasurementType) String() string {
	return string(m)
}

// ShortAlias returns the abbreviated form used in table filenames, or the
// empty string for unknown types.
func (m MeasurementType) ShortAlias() string {
	return shortAliases[m]
}

// KnownMeasurementTypes returns the measurement types with registered aliases.
func KnownMeasurementTypes() []MeasurementType {
	return []MeasurementType{
		HeadCircumference,
		BiparietalDiameter,
		AbdominalCircumference,
		FemurLength,
		OccipitofrontalDiameter,
		EstimatedFetalWeight,
	}
}

// SourceStandard identifies the growth reference a table was derived from.
type SourceStandard string

const (
	Intergrowth21 SourceStandard = "intergrowth21"
	NICHD         SourceStandard = "nichd"
)

// IsValid reports whether the source standard is supported.
func (s SourceStandard) IsValid() bool {
	switch s {
	case Intergrowth21, NICHD:
		return true
	default:
		return false
	}
}

func (s SourceStandard) String() string {
	return string(s)
}

// TableKind distinguishes the two reference-table shapes: centile grids
// (age -> ordered percentile thresholds) and moment grids (age -> mean, SD).
type TableKind string

const (
	CentileTable TableKind = "centile"
	MomentTable  TableKind = "moment"
)

// IsValid reports whether the table kind is one of the two supported shapes.
func (k TableKind) IsValid() bool {
	switch k {
	case CentileTable, MomentTable:
		return true
	default:
		return false
	}
}

func (k TableKind) String() string {
	return string(k)
}

// FileSuffix returns the filename suffix used for this table kind.
func (k TableKind) FileSuffix() string {
	switch k {
	case CentileTable:
		return "ct"
	case MomentTable:
		return "ms"
	default:
		return ""
	}
}

// BinCategory is a presentation label derived from a bin's position within
// the percentile partition and its normal flag. It layers on top of the
// normal flag and never replaces it.
type BinCategory string

const (
	LowerExtreme BinCategory = "lower_extreme"
	UpperExtreme BinCategory = "upper_extreme"
	NormalRange  BinCategory = "normal"
	Abnormal     BinCategory = "abnormal"
)

// IsValid reports whether the category is one of the derived labels.
func (c BinCategory) IsValid() bool {
	switch c {
	case LowerExtreme, UpperExtreme, NormalRange, Abnormal:
		return true
	default:
		return false
	}
}

func (c BinCategory) String() string {
	return string(c)
}

// termIDPattern is the fixed identifier shape for phenotype terms: a
// two-letter namespace and a seven-digit code, e.g. "HP:0000252".
var termIDPattern = regexp.MustCompile(`^[A-Z]{2}:[0-9]{7}$`)

// ValidateTermID checks a phenotype term identifier against the fixed
// namespace:code pattern. Returns *InvalidTermIdError on mismatch.
func ValidateTermID(id string) error {
	if !termIDPattern.MatchString(id) {
		return &InvalidTermIdError{ID: id}
	}
	return nil
}
