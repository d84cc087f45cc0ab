package attach

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/shortlist-app/shortlist/internal/match"
	"github.com/shortlist-app/shortlist/internal/model"
)

// TabularExtractor scans spreadsheet-like attachments (XLSX, CSV) row
// by row. Shortlists arrive as one row per candidate, so each row is
// matched on its own: a single row carrying both name and registration
// number confirms the match even when every other row is someone else.
type TabularExtractor struct{}

// NewTabularExtractor returns the spreadsheet/CSV extractor.
func NewTabularExtractor() *TabularExtractor {
	return &TabularExtractor{}
}

// Kind implements Extractor.
func (e *TabularExtractor) Kind() model.MimeKind {
	return model.MimeKindTabular
}

// Extract parses the attachment as a workbook first and as CSV second,
// then returns the strongest per-row verdict. Content that parses as
// neither degrades to NO_MATCH.
func (e *TabularExtractor) Extract(att model.Attachment, profile model.Profile) model.Verdict {
	if rows, ok := workbookRows(att.RawContent); ok {
		return bestRowVerdict(rows, profile)
	}
	if rows, ok := csvRows(att.RawContent); ok {
		return bestRowVerdict(rows, profile)
	}
	return model.VerdictNoMatch
}

// bestRowVerdict joins each row's cells and matches the row text,
// keeping the maximum verdict across all rows.
func bestRowVerdict(rows [][]string, profile model.Profile) model.Verdict {
	best := model.VerdictNoMatch
	for _, row := range rows {
		rowText := strings.Join(row, " ")
		if v := match.EvaluateContent(rowText, profile); v.Stronger(best) {
			best = v
		}
		if best == model.VerdictConfirmed {
			break
		}
	}
	return best
}

// workbookRows reads every sheet of an XLSX workbook into rows.
func workbookRows(raw []byte) (rows [][]string, ok bool) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		sheetRows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		rows = append(rows, sheetRows...)
	}
	return rows, true
}

// csvRows parses the content as CSV with a lenient reader that
// tolerates ragged rows.
func csvRows(raw []byte) ([][]string, bool) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false
		}
		rows = append(rows, record)
	}
	return rows, len(rows) > 0
}
