package model

import (
	"strings"
	"time"
)

// MimeKind classifies an attachment into one of the formats the
// extractors understand.
type MimeKind string

const (
	MimeKindTabular     MimeKind = "tabular"
	MimeKindPDF         MimeKind = "pdf"
	MimeKindUnsupported MimeKind = "unsupported"
)

// Message is a single unit of work fetched from the mail source.
// It is immutable once fetched.
type Message struct {
	// ID is the opaque source identifier, unique per message and
	// comparable for equality only; no ordering is inferred from it.
	ID string `json:"id"`

	// Subject is the decoded Subject header.
	Subject string `json:"subject"`

	// BodyText is the plain-text body, preferring text/plain parts.
	BodyText string `json:"body_text"`

	// FromEmail is the sender address from the From header.
	FromEmail string `json:"from_email"`

	// FromDisplayName is the decoded, cleaned sender display name.
	FromDisplayName string `json:"from_display_name"`

	// Timestamp is when the message was received by the source.
	Timestamp time.Time `json:"timestamp"`

	// Attachments holds the message attachments in source order.
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is a single file attached to a message. Immutable.
type Attachment struct {
	// Filename is the attachment's declared file name.
	Filename string `json:"filename"`

	// Kind is the format tag the extractor dispatch uses.
	Kind MimeKind `json:"mime_kind"`

	// RawContent holds the decoded attachment bytes.
	RawContent []byte `json:"-"`
}

// KindForAttachment maps a filename and declared MIME type to the
// extractor format tag. Unknown formats map to MimeKindUnsupported.
func KindForAttachment(filename, mimeType string) MimeKind {
	name := strings.ToLower(filename)
	mt := strings.ToLower(mimeType)

	switch {
	case strings.HasSuffix(name, ".csv"), strings.Contains(mt, "text/csv"):
		return MimeKindTabular
	case strings.HasSuffix(name, ".xlsx"), strings.HasSuffix(name, ".xls"),
		strings.Contains(mt, "spreadsheet"), strings.Contains(mt, "ms-excel"):
		return MimeKindTabular
	case strings.HasSuffix(name, ".pdf"), strings.Contains(mt, "pdf"):
		return MimeKindPDF
	default:
		return MimeKindUnsupported
	}
}
