package domain

// PercentileRange is a half-open percentile interval [Min, Max). Within a
// validated mapping set the final range's upper bound is treated as inclusive
// by the evaluator so that a percentile of exactly 100 still classifies.
type PercentileRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether p falls inside the half-open interval.
func (r PercentileRange) Contains(p float64) bool {
	return p >= r.Min && p < r.Max
}

// TermBin binds one percentile interval to a phenotype term and a normal
// flag. Immutable once constructed by the mapping loader.
type TermBin struct {
	Range     PercentileRange `json:"range"`
	TermID    string          `json:"term_id"`
	TermLabel string          `json:"term_label"`
	Normal    bool            `json:"normal"`
	Category  BinCategory     `json:"category"`
}

// DeriveCategory computes the presentation category for a bin: the partition
// edges are the extremes, interior bins split on the normal flag.
func DeriveCategory(r PercentileRange, normal bool) BinCategory {
	switch {
	case r.Min == 0:
		return LowerExtreme
	case r.Max == 100:
		return UpperExtreme
	case normal:
		return NormalRange
	default:
		return Abnormal
	}
}
