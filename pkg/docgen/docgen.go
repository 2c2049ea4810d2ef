package docgen

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dilovar-s/protokol/pkg/store"
)

// ContentTypeDocx is the MIME type for Word documents
const ContentTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// DocxFilename builds the stored filename for a generated document
func DocxFilename(interrogationID string) string {
	return fmt.Sprintf("interrogation-%s-%d.docx", interrogationID, time.Now().UnixMilli())
}

// GenerateDocx renders the interrogation as a .docx package
func GenerateDocx(rec *store.Interrogation) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", documentXML(rec)},
	}

	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("write %s: %w", part.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close docx package: %w", err)
	}
	return buf.Bytes(), nil
}

func documentXML(rec *store.Interrogation) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	writeParagraph(&b, "Interrogation Report")
	writeParagraph(&b, "Title: "+rec.Title)
	writeParagraph(&b, "Date: "+rec.Date.Format("2006-01-02"))
	writeParagraph(&b, "Suspect: "+rec.Suspect)
	writeParagraph(&b, "Officer: "+rec.Officer)
	writeParagraph(&b, "")
	writeParagraph(&b, "Transcript:")
	for _, line := range strings.Split(rec.Transcript, "\n") {
		writeParagraph(&b, line)
	}

	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func writeParagraph(b *strings.Builder, text string) {
	b.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
	b.WriteString(escapeXML(text))
	b.WriteString(`</w:t></w:r></w:p>`)
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// RenderText renders the interrogation as a plain-text report
func RenderText(rec *store.Interrogation) string {
	var b strings.Builder
	b.WriteString("INTERROGATION REPORT\n")
	b.WriteString("====================\n\n")
	fmt.Fprintf(&b, "Title:   %s\n", rec.Title)
	fmt.Fprintf(&b, "Date:    %s\n", rec.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Suspect: %s\n", rec.Suspect)
	fmt.Fprintf(&b, "Officer: %s\n", rec.Officer)
	b.WriteString("\nTranscript:\n")
	b.WriteString(rec.Transcript)
	b.WriteString("\n")
	return b.String()
}
