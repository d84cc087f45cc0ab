// Package event derives calendar event details from confirmed placement
// messages. Extraction is total-or-nothing: without a usable start time
// no draft is produced, never a partial one.
package event

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shortlist-app/shortlist/internal/ai"
	"github.com/shortlist-app/shortlist/internal/model"
)

// Extraction failure reasons surfaced to the caller and the audit log.
var (
	// ErrInferenceUnavailable means no inference collaborator is
	// configured or reachable. There is deliberately no non-inference
	// fallback for start-time extraction.
	ErrInferenceUnavailable = errors.New("inference unavailable")

	// ErrNoTimeFound means the collaborator ran but found no usable
	// start time in the message.
	ErrNoTimeFound = errors.New("no time found")
)

const (
	defaultDurationMinutes = 60
	maxDurationMinutes     = 240
	minDurationMinutes     = 15
)

// eventKinds are the recognized classification keywords for deriving
// the "<Company> - <Kind>" title, most specific first.
var eventKinds = []string{
	"Online Test", "Technical Interview", "HR Interview", "Coding Test",
	"Aptitude Test", "Online Assessment", "Assessment", "Interview",
	"Placement Drive", "Drive",
}

// venue is one recognizable campus location pattern.
type venue struct {
	pattern string
	desc    string
}

// campusHalls are hall names and their locations, checked before block
// codes since hall names are the more specific signal.
var campusHalls = []venue{
	{"Sarojini Naidu", "SJT 6th floor"},
	{"Bhagat Singh", "SJT 8th floor"},
	{"Homi Bhabha", "SJT 4th floor"},
	{"Channa Reddy", "MGR Ground floor"},
	{"Anna Auditorium", "Opposite MGR"},
	{"Kamaraj Auditorium", "TT 8th floor"},
	{"Ambedkar Auditorium", "TT Ground Floor"},
}

// campusBlocks are academic block codes and their full names.
var campusBlocks = []venue{
	{"PRP", "Pearl Research Park"},
	{"MGB", "Mahatma Gandhi Block"},
	{"SJT", "Silver Jubilee Tower"},
	{"TT", "Technology Tower"},
	{"SMV", "SMV"},
	{"MGR", "MGR"},
	{"CDMM", "CDMM"},
	{"GDN", "GDN"},
}

var (
	urlRE      = regexp.MustCompile(`https?://\S+`)
	durationRE = regexp.MustCompile(`(?i)(?:duration\s*[:\-]?\s*)?(\d+(?:\.\d+)?)\s*(hours?|hrs?|minutes?|mins?)\b`)
)

// DateTimeExtractor is the inference collaborator's scheduling surface.
type DateTimeExtractor interface {
	ExtractDateTime(ctx context.Context, subject, body string, loc *time.Location) ai.Result[time.Time]
}

// Extractor builds EventDrafts for confirmed messages.
type Extractor struct {
	inference DateTimeExtractor
	loc       *time.Location
}

// NewExtractor creates an event extractor bound to the fixed zone.
func NewExtractor(inference DateTimeExtractor, loc *time.Location) *Extractor {
	return &Extractor{inference: inference, loc: loc}
}

// Extract derives a complete EventDraft from the message, or an error
// naming why no event can be created. The start time comes exclusively
// from the inference collaborator, which is told to prefer the subject
// line over footer-prone body text.
func (e *Extractor) Extract(ctx context.Context, msg model.Message) (model.EventDraft, error) {
	if e.inference == nil {
		return model.EventDraft{}, ErrInferenceUnavailable
	}

	res := e.inference.ExtractDateTime(ctx, msg.Subject, msg.BodyText, e.loc)
	switch res.Status {
	case ai.StatusUnavailable:
		return model.EventDraft{}, ErrInferenceUnavailable
	case ai.StatusFailed:
		if res.Reason == ErrNoTimeFound.Error() {
			return model.EventDraft{}, ErrNoTimeFound
		}
		return model.EventDraft{}, fmt.Errorf("%w: %s", ErrInferenceUnavailable, res.Reason)
	}

	duration := ParseDuration(msg.BodyText)
	location := DetectLocation(msg.BodyText)
	link := firstURL(msg.BodyText)

	locationOrLink := location
	if locationOrLink == "" {
		locationOrLink = link
	}

	return model.EventDraft{
		Title:           DeriveTitle(msg.Subject),
		Start:           res.Value.In(e.loc),
		DurationMinutes: duration,
		LocationOrLink:  locationOrLink,
		Description:     buildDescription(msg, link, location, duration),
	}, nil
}

// DeriveTitle builds "<Company> - <Kind>" from the subject when a
// leading organization token and a classification keyword are both
// present, falling back to the raw subject otherwise.
func DeriveTitle(subject string) string {
	subject = strings.TrimSpace(subject)

	kind := ""
	for _, k := range eventKinds {
		if containsFold(subject, k) {
			kind = k
			break
		}
	}
	if kind == "" {
		return subject
	}

	company := leadingCompany(subject, kind)
	if company == "" {
		return subject
	}
	return company + " - " + kind
}

// leadingCompany returns the organization-like token at the start of
// the subject, up to the first delimiter. Rejects candidates that are
// empty, overlong, lowercase, or just the kind keyword itself.
func leadingCompany(subject, kind string) string {
	head := subject
	if idx := strings.IndexAny(subject, "-–:,|"); idx > 0 {
		head = subject[:idx]
	}
	head = strings.TrimSpace(head)

	if head == "" || containsFold(head, kind) {
		return ""
	}
	words := strings.Fields(head)
	if len(words) > 4 {
		return ""
	}
	first := []rune(words[0])
	if len(first) == 0 || !(first[0] >= 'A' && first[0] <= 'Z') {
		return ""
	}
	return head
}

// ParseDuration scans body text for an explicit duration phrase.
// Absent phrases default to 60 minutes; results are rounded to the
// nearest 15-minute increment and clamped to [15, 240].
func ParseDuration(body string) int {
	m := durationRE.FindStringSubmatch(body)
	if m == nil {
		return defaultDurationMinutes
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return defaultDurationMinutes
	}

	minutes := value
	if strings.HasPrefix(strings.ToLower(m[2]), "h") {
		minutes = value * 60
	}

	rounded := int((minutes+7.5)/15) * 15
	if rounded < minDurationMinutes {
		rounded = minDurationMinutes
	}
	if rounded > maxDurationMinutes {
		rounded = maxDurationMinutes
	}
	return rounded
}

// DetectLocation looks for a recognizable hall name first, then an
// academic block code. Returns the empty string when neither appears.
func DetectLocation(body string) string {
	for _, hall := range campusHalls {
		if containsFold(body, hall.pattern) {
			return hall.desc
		}
	}
	for _, block := range campusBlocks {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(block.pattern) + `\b`)
		if re.MatchString(body) {
			return block.desc
		}
	}
	return ""
}

// firstURL returns the first well-formed URL in the text, if any.
func firstURL(text string) string {
	return strings.TrimRight(urlRE.FindString(text), ".,;)>")
}

// buildDescription composes the event description deterministically:
// source permalink, detected link and location, the original subject,
// and the duration only when it differs from the default.
func buildDescription(msg model.Message, link, location string, duration int) string {
	lines := []string{
		"Original mail: https://mail.google.com/mail/u/0/#inbox/" + msg.ID,
	}
	if link != "" {
		lines = append(lines, "Join link: "+link)
	}
	if location != "" {
		lines = append(lines, "Venue: "+location)
	}
	lines = append(lines, "Subject: "+msg.Subject)
	if duration != defaultDurationMinutes {
		lines = append(lines, fmt.Sprintf("Duration: %d minutes", duration))
	}
	return strings.Join(lines, "\n")
}

// containsFold is a case-insensitive substring test.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
