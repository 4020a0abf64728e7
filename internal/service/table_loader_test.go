package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prenatal-phenotype-server/internal/domain"
)

const hcCentileTSV = "ga_weeks\tp3\tp10\tp50\tp90\tp97\n" +
	"20\t167.7\t176.0\t185.0\t194.0\t201.0\n" +
	"21\t172.7\t181.0\t190.0\t199.0\t206.0\n"

const hcMomentTSV = "ga_weeks\tmean\tsd\n" +
	"20\t185.0\t9.0\n" +
	"21\t190.0\t9.5\n"

func TestParseCentileTable(t *testing.T) {
	table, err := ParseReferenceTable(strings.NewReader(hcCentileTSV), domain.HeadCircumference, domain.Intergrowth21, domain.CentileTable)
	require.NoError(t, err)

	assert.Equal(t, []float64{3, 10, 50, 90, 97}, table.Labels)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, 20.0, table.Rows[0].AgeWeeks)
	assert.Equal(t, []float64{167.7, 176.0, 185.0, 194.0, 201.0}, table.Rows[0].Thresholds)
}

func TestParseMomentTable(t *testing.T) {
	table, err := ParseReferenceTable(strings.NewReader(hcMomentTSV), domain.HeadCircumference, domain.Intergrowth21, domain.MomentTable)
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, 185.0, table.Rows[0].Mean)
	assert.Equal(t, 9.0, table.Rows[0].SD)
}

func TestParseRejectsBadHeader(t *testing.T) {
	cases := []struct {
		name string
		tsv  string
		kind domain.TableKind
	}{
		{"wrong first column", "weeks\tp3\tp50\n20\t167.7\t185.0\n", domain.CentileTable},
		{"non-percentile column", "ga_weeks\tq3\tp50\n20\t167.7\t185.0\n", domain.CentileTable},
		{"label out of range", "ga_weeks\tp0\tp50\n20\t167.7\t185.0\n", domain.CentileTable},
		{"wrong moment header", "ga_weeks\tavg\tsd\n20\t185.0\t9.0\n", domain.MomentTable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseReferenceTable(strings.NewReader(tc.tsv), domain.HeadCircumference, domain.Intergrowth21, tc.kind)
			var derr *domain.InvalidReferenceDataError
			assert.ErrorAs(t, err, &derr)
		})
	}
}

func TestParseRejectsBadRows(t *testing.T) {
	cases := []struct {
		name string
		tsv  string
	}{
		{"no data rows", "ga_weeks\tp3\tp50\n"},
		{"non-numeric value", "ga_weeks\tp3\tp50\n20\tabc\t185.0\n"},
		{"unsorted ages", "ga_weeks\tp3\tp50\n21\t172.7\t190.0\n20\t167.7\t185.0\n"},
		{"non-monotone thresholds", "ga_weeks\tp3\tp50\n20\t185.0\t167.7\n21\t190.0\t172.7\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseReferenceTable(strings.NewReader(tc.tsv), domain.HeadCircumference, domain.Intergrowth21, domain.CentileTable)
			var derr *domain.InvalidReferenceDataError
			assert.ErrorAs(t, err, &derr)
		})
	}
}

func TestLoadReferenceTablesFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "intergrowth21_hc_ct.tsv", hcCentileTSV)
	writeTable(t, dir, "intergrowth21_hc_ms.tsv", hcMomentTSV)
	writeTable(t, dir, "intergrowth21_fl_ct.tsv",
		"ga_weeks\tp3\tp50\tp97\n20\t28.0\t32.0\t36.0\n21\t30.0\t34.0\t38.0\n")
	// A different source standard's file is ignored.
	writeTable(t, dir, "nichd_hc_ct.tsv", hcCentileTSV)

	tables, err := LoadReferenceTables(testLogger(), dir, domain.Intergrowth21)
	require.NoError(t, err)
	assert.Len(t, tables, 3)
}

func TestLoadReferenceTablesEmptyDirectory(t *testing.T) {
	_, err := LoadReferenceTables(testLogger(), t.TempDir(), domain.Intergrowth21)
	assert.Error(t, err)
}

func TestLoadReferenceTablesDefectiveFileFails(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, "intergrowth21_hc_ct.tsv", "ga_weeks\tp3\n20\tnot-a-number\n")

	_, err := LoadReferenceTables(testLogger(), dir, domain.Intergrowth21)
	var derr *domain.InvalidReferenceDataError
	assert.ErrorAs(t, err, &derr)
}

func writeTable(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
