package attach

import (
	"github.com/shortlist-app/shortlist/internal/model"
)

// Aggregator dispatches attachments to extractors by format tag and
// combines their verdicts.
type Aggregator struct {
	extractors map[model.MimeKind]Extractor
}

// NewAggregator returns an aggregator over the given extractors.
// Registering two extractors for the same kind keeps the later one.
func NewAggregator(extractors ...Extractor) *Aggregator {
	m := make(map[model.MimeKind]Extractor, len(extractors))
	for _, e := range extractors {
		m[e.Kind()] = e
	}
	return &Aggregator{extractors: m}
}

// DefaultAggregator returns an aggregator with the stock tabular and
// PDF extractors registered.
func DefaultAggregator() *Aggregator {
	return NewAggregator(NewTabularExtractor(), NewPDFExtractor())
}

// Aggregate evaluates every attachment and returns the strongest
// verdict plus a per-attachment breakdown parallel to the input order.
//
// A message with no attachments aggregates to NO_MATCH. Unsupported
// formats contribute NO_MATCH with the unsupported flag set, and a
// failure inside one extractor is isolated to that attachment so it
// never blocks evaluation of the others.
func (a *Aggregator) Aggregate(attachments []model.Attachment, profile model.Profile) (model.Verdict, []model.AttachmentVerdict) {
	overall := model.VerdictNoMatch
	breakdown := make([]model.AttachmentVerdict, 0, len(attachments))

	for _, att := range attachments {
		entry := model.AttachmentVerdict{
			Filename: att.Filename,
			Kind:     att.Kind,
			Verdict:  model.VerdictNoMatch,
		}

		extractor, ok := a.extractors[att.Kind]
		if !ok {
			entry.Unsupported = true
		} else {
			entry.Verdict = safeExtract(extractor, att, profile)
		}

		if entry.Verdict.Stronger(overall) {
			overall = entry.Verdict
		}
		breakdown = append(breakdown, entry)
	}

	return overall, breakdown
}

// safeExtract shields the aggregator from a panicking extractor.
func safeExtract(e Extractor, att model.Attachment, profile model.Profile) (verdict model.Verdict) {
	verdict = model.VerdictNoMatch
	defer func() {
		if r := recover(); r != nil {
			verdict = model.VerdictNoMatch
		}
	}()
	return e.Extract(att, profile)
}
