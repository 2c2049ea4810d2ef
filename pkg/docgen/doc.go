// Package docgen renders interrogation records as downloadable documents.
//
// The Word output is a minimal OOXML package: [Content_Types].xml, the
// package relationships and a single word/document.xml with the report
// paragraphs. Word and LibreOffice both open it. A plain-text rendering
// is available for clients that only need the content.
package docgen
