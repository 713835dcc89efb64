package ocr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityScore_Bounds(t *testing.T) {
	assert.Equal(t, 0.0, QualityScore(""))
	assert.Equal(t, 0.0, QualityScore("   \n\t "))

	long := strings.Repeat("Invoice line item 42 total 19.99\n", 40)
	score := QualityScore(long)
	assert.Greater(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestQualityScore_MixedBeatsGarbage(t *testing.T) {
	realistic := strings.Repeat("ACME Traders invoice 1180 total due 2024-03-15\n", 12)
	garbage := strings.Repeat("~~~ ### ^^^ ||| \n", 12)

	assert.Greater(t, QualityScore(realistic), QualityScore(garbage))
}

func TestQualityScore_ProseWithoutNumbersScoresLower(t *testing.T) {
	withNumbers := strings.Repeat("item 12 price 34.56 qty 7\n", 20)
	withoutNumbers := strings.Repeat("item price qty\n", 20)

	assert.Greater(t, QualityScore(withNumbers), QualityScore(withoutNumbers))
}

func TestNormalize_CleansDecoderOutput(t *testing.T) {
	in := "line one  \r\nline two\t\n\n\n\n\nline three\r"
	out := Normalize(in)
	assert.Equal(t, "line one\nline two\n\nline three", out)
}

func TestDocxBodyText(t *testing.T) {
	xmlDoc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>ACME Traders</w:t></w:r></w:p>
    <w:p><w:r><w:t>Total: </w:t></w:r><w:r><w:t>1180</w:t></w:r></w:p>
  </w:body>
</w:document>`

	text, err := docxBodyText(strings.NewReader(xmlDoc))
	assert.NoError(t, err)
	assert.Contains(t, text, "ACME Traders")
	assert.Contains(t, text, "Total: 1180")
}
