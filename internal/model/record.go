package model

import "time"

// TierRetention is how many record references the process state keeps
// per verdict tier before evicting the oldest.
const TierRetention = 100

// AttachmentVerdict is one entry of the per-attachment breakdown kept
// alongside a match record, parallel to the message's attachment order.
type AttachmentVerdict struct {
	// Filename identifies the attachment within the message.
	Filename string `json:"filename"`

	// Kind is the format tag the extractor dispatched on.
	Kind MimeKind `json:"mime_kind"`

	// Verdict is the tier the extractor assigned.
	Verdict Verdict `json:"verdict"`

	// Unsupported is set when no extractor handles the format; the
	// verdict is then always NO_MATCH.
	Unsupported bool `json:"unsupported,omitempty"`
}

// MatchRecord is one append-only audit entry, created exactly once per
// processed message and never mutated or deleted.
type MatchRecord struct {
	// ID is the record's own identifier.
	ID string `json:"id"`

	// MessageID is the processed message's source identifier.
	MessageID string `json:"message_id"`

	// Verdict is the fused overall verdict for the message.
	Verdict Verdict `json:"verdict"`

	// ContentVerdict is the subject/body matcher's verdict.
	ContentVerdict Verdict `json:"content_verdict"`

	// AttachmentVerdict is the aggregated attachment verdict.
	AttachmentVerdict Verdict `json:"attachment_verdict"`

	// Breakdown holds the per-attachment verdicts in message order.
	Breakdown []AttachmentVerdict `json:"attachment_breakdown,omitempty"`

	// Profile is a snapshot of the profile the decision used.
	Profile Profile `json:"profile_snapshot"`

	// Subject and FromEmail are carried for the dashboard projections.
	Subject   string `json:"subject"`
	FromEmail string `json:"from_email"`

	// CreatedAt is when the decision was recorded.
	CreatedAt time.Time `json:"timestamp"`
}

// ProcessState is the watcher's persistent progress snapshot.
//
// LastMessageID only ever advances: the watcher compares the newest id
// against it for equality and never infers ordering from the opaque ids
// themselves. Out-of-order delivery from the source is a documented open
// question, not handled here.
type ProcessState struct {
	// LastMessageID is the id of the most recently processed message.
	LastMessageID string `json:"last_message_id"`

	// Counts maps each verdict tier to the number of messages that ever
	// landed in it. The counters are monotonic; trimming the per-tier
	// reference lists to TierRetention does not decrement them.
	Counts map[Verdict]int `json:"counts"`
}
