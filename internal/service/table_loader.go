package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/prenatal-phenotype-server/internal/domain"
)

// Reference tables arrive as pre-normalized TSV produced by the external
// ingestion tooling: one row per gestational-age grid point, ages in
// completed weeks, values in millimeters.
//
// Centile tables carry a header of "ga_weeks" followed by percentile-label
// columns ("p3", "p5", ..., "p97"); moment tables carry "ga_weeks", "mean",
// "sd". Files follow the <source>_<alias>_<kind>.tsv convention, e.g.
// intergrowth21_hc_ct.tsv.

// LoadReferenceTables scans dir for the selected source standard's tables
// across all known measurement types. Missing files are skipped (not every
// standard covers every biometric); defective files fail the load.
func LoadReferenceTables(logger *logrus.Logger, dir string, source domain.SourceStandard) ([]*domain.ReferenceTable, error) {
	var tables []*domain.ReferenceTable

	for _, measurement := range domain.KnownMeasurementTypes() {
		for _, kind := range []domain.TableKind{domain.CentileTable, domain.MomentTable} {
			name := fmt.Sprintf("%s_%s_%s.tsv", source, measurement.ShortAlias(), kind.FileSuffix())
			path := filepath.Join(dir, name)

			f, err := os.Open(path)
			if os.IsNotExist(err) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("opening reference table %s: %w", path, err)
			}

			table, err := ParseReferenceTable(f, measurement, source, kind)
			f.Close()
			if err != nil {
				return nil, err
			}
			tables = append(tables, table)

			logger.WithFields(logrus.Fields{
				"file":        name,
				"measurement": measurement.String(),
				"kind":        kind.String(),
				"rows":        len(table.Rows),
			}).Info("Loaded reference table")
		}
	}

	if len(tables) == 0 {
		return nil, fmt.Errorf("no reference tables for source %s in %s", source, dir)
	}
	return tables, nil
}

// ParseReferenceTable reads one normalized TSV table. The returned table is
// structurally validated.
func ParseReferenceTable(r io.Reader, measurement domain.MeasurementType, source domain.SourceStandard, kind domain.TableKind) (*domain.ReferenceTable, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &domain.InvalidReferenceDataError{Type: measurement.String(), Detail: fmt.Sprintf("malformed TSV: %v", err)}
	}
	if len(records) < 2 {
		return nil, &domain.InvalidReferenceDataError{Type: measurement.String(), Detail: "table has no data rows"}
	}

	header := records[0]
	if len(header) < 2 || strings.ToLower(strings.TrimSpace(header[0])) != "ga_weeks" {
		return nil, &domain.InvalidReferenceDataError{Type: measurement.String(), Detail: "first column must be ga_weeks"}
	}

	table := &domain.ReferenceTable{
		Measurement: measurement,
		Source:      source,
		Kind:        kind,
	}

	switch kind {
	case domain.CentileTable:
		for _, col := range header[1:] {
			label, err := parsePercentileLabel(col)
			if err != nil {
				return nil, &domain.InvalidReferenceDataError{Type: measurement.String(), Detail: err.Error()}
			}
			table.Labels = append(table.Labels, label)
		}
	case domain.MomentTable:
		if len(header) != 3 ||
			strings.ToLower(strings.TrimSpace(header[1])) != "mean" ||
			strings.ToLower(strings.TrimSpace(header[2])) != "sd" {
			return nil, &domain.InvalidReferenceDataError{Type: measurement.String(), Detail: "moment table header must be ga_weeks, mean, sd"}
		}
	default:
		return nil, &domain.InvalidReferenceDataError{Type: measurement.String(), Detail: fmt.Sprintf("unknown table kind %q", kind)}
	}

	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, &domain.InvalidReferenceDataError{
				Type:   measurement.String(),
				Detail: fmt.Sprintf("row %d has %d fields, expected %d", i+1, len(record), len(header)),
			}
		}
		values := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, &domain.InvalidReferenceDataError{
					Type:   measurement.String(),
					Detail: fmt.Sprintf("row %d column %q: not a number: %q", i+1, header[j], field),
				}
			}
			values[j] = v
		}

		row := domain.ReferenceRow{AgeWeeks: values[0]}
		if kind == domain.MomentTable {
			row.Mean, row.SD = values[1], values[2]
		} else {
			row.Thresholds = values[1:]
		}
		table.Rows = append(table.Rows, row)
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// parsePercentileLabel extracts the numeric percentile from a column header
// such as "p3" or "p97".
func parsePercentileLabel(col string) (float64, error) {
	c := strings.ToLower(strings.TrimSpace(col))
	if !strings.HasPrefix(c, "p") {
		return 0, fmt.Errorf("percentile column %q must be of the form p<number>", col)
	}
	label, err := strconv.ParseFloat(c[1:], 64)
	if err != nil {
		return 0, fmt.Errorf("percentile column %q must be of the form p<number>", col)
	}
	if label <= 0 || label >= 100 {
		return 0, fmt.Errorf("percentile label %g outside (0, 100)", label)
	}
	return label, nil
}
