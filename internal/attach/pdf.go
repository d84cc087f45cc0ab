package attach

import (
	"bytes"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/shortlist-app/shortlist/internal/match"
	"github.com/shortlist-app/shortlist/internal/model"
)

// PDFExtractor scans PDF attachments. The whole document's text is
// matched at once rather than per page; a name and registration number
// split across pages still match, but so would unrelated occurrences.
// That is an accepted limitation.
type PDFExtractor struct{}

// NewPDFExtractor returns the PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Kind implements Extractor.
func (e *PDFExtractor) Kind() model.MimeKind {
	return model.MimeKindPDF
}

// Extract pulls all text from the PDF and matches it against the
// profile. Malformed or unreadable PDFs degrade to NO_MATCH.
func (e *PDFExtractor) Extract(att model.Attachment, profile model.Profile) (verdict model.Verdict) {
	verdict = model.VerdictNoMatch

	// The pdf library panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			verdict = model.VerdictNoMatch
		}
	}()

	text, err := pdfText(att.RawContent)
	if err != nil || text == "" {
		return model.VerdictNoMatch
	}
	return match.EvaluateContent(text, profile)
}

// pdfText extracts the plain text of every page.
func pdfText(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", err
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
