// Package attach scans message attachments for the user's identity
// signals. Each supported format has one extractor behind a shared
// contract so the aggregator stays format-agnostic; new formats are
// additive.
package attach

import (
	"github.com/shortlist-app/shortlist/internal/model"
)

// Extractor tests one attachment format against the profile. An
// extractor must never return an error: parse failures and unreadable
// files degrade to NO_MATCH so a bad attachment cannot abort the
// message's processing.
type Extractor interface {
	// Kind returns the format tag this extractor handles.
	Kind() model.MimeKind

	// Extract scans the attachment and returns its verdict.
	Extract(att model.Attachment, profile model.Profile) model.Verdict
}
