package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() Report {
	return Report{
		Title:   "Water intake",
		Headers: []string{"Time", "Amount (ml)"},
		Rows: [][]string{
			{"2024-05-01 08:00", "250"},
			{"2024-05-01 12:30", "500"},
		},
		Footer: []string{"Total", "750"},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "Time,Amount (ml)\n2024-05-01 08:00,250\n2024-05-01 12:30,500\nTotal,750\n", string(out))
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	report := sampleReport()
	report.Rows = append(report.Rows, []string{"only-one"})
	_, err := NewCSVExporter().Render(report)
	assert.Error(t, err)

	_, err = NewCSVExporter().Render(Report{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()
	out, err := exporter.Render(sampleReport())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Equal(t, "application/pdf", exporter.ContentType())
}
