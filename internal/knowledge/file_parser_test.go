package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextExtractorPlainText(t *testing.T) {
	extractor := NewTextExtractor()

	text, err := extractor.Extract([]byte("Hospitalization expenses are covered."), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "Hospitalization expenses are covered.", text)
}

func TestPDFParserDetection(t *testing.T) {
	parser := &PDFParser{}

	assert.True(t, parser.Supports([]byte("%PDF-1.7 rest"), ""))
	assert.True(t, parser.Supports([]byte("anything"), "application/pdf"))
	assert.True(t, parser.Supports(nil, "Application/PDF; charset=binary"))
	assert.False(t, parser.Supports([]byte("plain words"), "text/plain"))
}

func TestPDFParserRejectsGarbage(t *testing.T) {
	parser := &PDFParser{}

	_, err := parser.Parse([]byte("%PDF-1.7 but not really a pdf"))
	assert.Error(t, err)
}
