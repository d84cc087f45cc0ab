package attach

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/shortlist-app/shortlist/internal/model"
)

var testProfile = model.Profile{
	Name:               "Jane Q Doe",
	RegistrationNumber: "22BCE2382",
}

func csvAttachment(t *testing.T, rows string) model.Attachment {
	t.Helper()
	return model.Attachment{
		Filename:   "shortlist.csv",
		Kind:       model.MimeKindTabular,
		RawContent: []byte(rows),
	}
}

func xlsxAttachment(t *testing.T, rows [][]string) model.Attachment {
	t.Helper()

	f := excelize.NewFile()
	for i, row := range rows {
		for j, cell := range row {
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", ref, cell))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return model.Attachment{
		Filename:   "shortlist.xlsx",
		Kind:       model.MimeKindTabular,
		RawContent: buf.Bytes(),
	}
}

func TestTabularCSVRowWithBothSignals(t *testing.T) {
	e := NewTabularExtractor()

	att := csvAttachment(t, "name,reg\nJohn Smith,21CSE1234\nJane Q Doe,22BCE2382\nAmit Rao,22ECE5678\n")
	assert.Equal(t, model.VerdictConfirmed, e.Extract(att, testProfile))
}

func TestTabularRowScopedMatching(t *testing.T) {
	e := NewTabularExtractor()

	// Name and reg in different rows: neither row confirms on its own.
	att := csvAttachment(t, "Jane Q Doe,foo\nbar,22BCE2382\n")
	assert.Equal(t, model.VerdictPossibility, e.Extract(att, testProfile))
}

func TestTabularXLSX(t *testing.T) {
	e := NewTabularExtractor()

	att := xlsxAttachment(t, [][]string{
		{"S.No", "Name", "Reg"},
		{"1", "John Smith", "21CSE1234"},
		{"2", "Jane Q Doe", "22BCE2382"},
	})
	assert.Equal(t, model.VerdictConfirmed, e.Extract(att, testProfile))
}

func TestTabularGarbageDegrades(t *testing.T) {
	e := NewTabularExtractor()

	att := model.Attachment{
		Filename:   "broken.xlsx",
		Kind:       model.MimeKindTabular,
		RawContent: []byte{0x00, 0x01, 0x02, '"'},
	}
	assert.Equal(t, model.VerdictNoMatch, e.Extract(att, testProfile))
}

func TestPDFGarbageDegrades(t *testing.T) {
	e := NewPDFExtractor()

	att := model.Attachment{
		Filename:   "broken.pdf",
		Kind:       model.MimeKindPDF,
		RawContent: []byte("not a pdf at all"),
	}
	assert.Equal(t, model.VerdictNoMatch, e.Extract(att, testProfile))
}

func TestAggregateNoAttachments(t *testing.T) {
	agg := DefaultAggregator()

	verdict, breakdown := agg.Aggregate(nil, testProfile)
	assert.Equal(t, model.VerdictNoMatch, verdict)
	assert.Empty(t, breakdown)
}

func TestAggregateUnsupportedFlagged(t *testing.T) {
	agg := DefaultAggregator()

	verdict, breakdown := agg.Aggregate([]model.Attachment{
		{Filename: "poster.png", Kind: model.MimeKindUnsupported},
	}, testProfile)

	assert.Equal(t, model.VerdictNoMatch, verdict)
	require.Len(t, breakdown, 1)
	assert.True(t, breakdown[0].Unsupported)
	assert.Equal(t, model.VerdictNoMatch, breakdown[0].Verdict)
}

// fixedExtractor returns a canned verdict, optionally panicking first.
type fixedExtractor struct {
	kind    model.MimeKind
	verdict model.Verdict
	panics  bool
}

func (f fixedExtractor) Kind() model.MimeKind { return f.kind }

func (f fixedExtractor) Extract(_ model.Attachment, _ model.Profile) model.Verdict {
	if f.panics {
		panic("extractor blew up")
	}
	return f.verdict
}

func TestAggregateTakesMaximum(t *testing.T) {
	agg := NewAggregator(
		fixedExtractor{kind: model.MimeKindTabular, verdict: model.VerdictPartial},
		fixedExtractor{kind: model.MimeKindPDF, verdict: model.VerdictPossibility},
	)

	verdict, breakdown := agg.Aggregate([]model.Attachment{
		{Filename: "a.csv", Kind: model.MimeKindTabular},
		{Filename: "b.pdf", Kind: model.MimeKindPDF},
	}, testProfile)

	assert.Equal(t, model.VerdictPossibility, verdict)
	require.Len(t, breakdown, 2)
	assert.Equal(t, "a.csv", breakdown[0].Filename)
	assert.Equal(t, "b.pdf", breakdown[1].Filename)
}

func TestAggregateMonotonicity(t *testing.T) {
	agg := NewAggregator(
		fixedExtractor{kind: model.MimeKindTabular, verdict: model.VerdictPartial},
		fixedExtractor{kind: model.MimeKindPDF, verdict: model.VerdictConfirmed},
	)

	base := []model.Attachment{{Filename: "a.csv", Kind: model.MimeKindTabular}}
	before, _ := agg.Aggregate(base, testProfile)

	// Adding an attachment can only hold or raise the aggregate.
	after, _ := agg.Aggregate(append(base, model.Attachment{
		Filename: "b.pdf", Kind: model.MimeKindPDF,
	}), testProfile)

	assert.False(t, before.Stronger(after))
	assert.Equal(t, model.VerdictConfirmed, after)
}

func TestAggregatePanicIsolation(t *testing.T) {
	agg := NewAggregator(
		fixedExtractor{kind: model.MimeKindPDF, verdict: model.VerdictNoMatch, panics: true},
		fixedExtractor{kind: model.MimeKindTabular, verdict: model.VerdictConfirmed},
	)

	verdict, breakdown := agg.Aggregate([]model.Attachment{
		{Filename: "bad.pdf", Kind: model.MimeKindPDF},
		{Filename: "good.csv", Kind: model.MimeKindTabular},
	}, testProfile)

	assert.Equal(t, model.VerdictConfirmed, verdict)
	require.Len(t, breakdown, 2)
	assert.Equal(t, model.VerdictNoMatch, breakdown[0].Verdict)
}
