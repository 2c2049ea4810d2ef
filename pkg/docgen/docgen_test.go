package docgen

import (
	"archive/zip"
	"bytes"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dilovar-s/protokol/pkg/store"
)

func testRecord() *store.Interrogation {
	return &store.Interrogation{
		ID:         "rec-1",
		Title:      "Case 101 <priority>",
		Date:       time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Suspect:    "Ivanov & Sons",
		Officer:    "Lt. Petrov",
		Transcript: "line one\nline two",
	}
}

func readZipPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			content, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(content)
		}
	}
	t.Fatalf("part %s not found in package", name)
	return ""
}

func TestGenerateDocxStructure(t *testing.T) {
	data, err := GenerateDocx(testRecord())
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"}, names)

	contentTypes := readZipPart(t, data, "[Content_Types].xml")
	assert.Contains(t, contentTypes, "wordprocessingml.document.main+xml")
}

func TestGenerateDocxContent(t *testing.T) {
	data, err := GenerateDocx(testRecord())
	require.NoError(t, err)

	doc := readZipPart(t, data, "word/document.xml")
	assert.Contains(t, doc, "Interrogation Report")
	assert.Contains(t, doc, "Date: 2024-03-15")
	assert.Contains(t, doc, "Officer: Lt. Petrov")
	// markup characters in field values must be escaped
	assert.Contains(t, doc, "Case 101 &lt;priority&gt;")
	assert.Contains(t, doc, "Ivanov &amp; Sons")
	assert.NotContains(t, doc, "<priority>")
	// transcript lines become separate paragraphs
	assert.Contains(t, doc, ">line one</w:t>")
	assert.Contains(t, doc, ">line two</w:t>")
}

func TestDocxFilename(t *testing.T) {
	name := DocxFilename("rec-1")
	assert.Regexp(t, regexp.MustCompile(`^interrogation-rec-1-\d+\.docx$`), name)
}

func TestRenderText(t *testing.T) {
	text := RenderText(testRecord())
	assert.Contains(t, text, "INTERROGATION REPORT")
	assert.Contains(t, text, "Suspect: Ivanov & Sons")
	assert.Contains(t, text, "line one\nline two")
}
