package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outlineDataset() Dataset {
	return Dataset{
		Headers: []string{"title", "kind", "level"},
		Rows: []map[string]string{
			{"title": "Biology", "kind": "topic", "level": "1"},
			{"title": "Cells", "kind": "topic", "level": "2"},
			{"title": "Mitosis, an introduction", "kind": "content", "level": "4"},
		},
		Depth: []int{0, 1, 2},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(outlineDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "title,kind,level", lines[0])
	assert.Equal(t, `"Mitosis, an introduction",content,4`, lines[3])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := outlineDataset()
	data.Rows = append(data.Rows, map[string]string{"title": strings.Repeat("Très long titre ", 20), "kind": "content", "level": "4"})
	data.Depth = append(data.Depth, 3)

	out, err := NewPDFExporter().Render(data, "Debate outline")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestColumnWidths(t *testing.T) {
	assert.Equal(t, []float64{190}, columnWidths(1))
	widths := columnWidths(3)
	assert.InDelta(t, 95.0, widths[0], 0.001)
	assert.InDelta(t, 47.5, widths[1], 0.001)
}
