package domain

// TermObservation is the ontology-aware interpretation of one classified
// measurement. Created per classification call, immutable, and consumed
// immediately by the projector.
type TermObservation struct {
	// TermID and TermLabel identify the phenotype term; empty means no
	// term was bound (the projection still emits an excluded feature).
	TermID    string
	TermLabel string
	Category  BinCategory
	// Observed is true when an abnormality was observed and false when the
	// finding is normal (the term is reported as excluded).
	Observed       bool
	GestationalAge GestationalAge
	Percentile     *float64
}

// TermReference is the external identifier/label pair of a phenotype term.
type TermReference struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// OnsetRecord renders a gestational age as a structured weeks/days pair.
type OnsetRecord struct {
	Weeks int `json:"weeks"`
	Days  int `json:"days"`
}

// PhenotypicFeature is the schema-stable feature record consumed by the
// external document assembler. Type is null when no term was bound;
// Percentile is null when no percentile was computed.
type PhenotypicFeature struct {
	Type        *TermReference `json:"type"`
	Excluded    bool           `json:"excluded"`
	Onset       OnsetRecord    `json:"onset"`
	Percentile  *float64       `json:"percentile"`
	Description string         `json:"description,omitempty"`
}
