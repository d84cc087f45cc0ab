// Package classify gates messages on whether they are placement-related
// at all. Matching verdicts are only meaningful for messages that pass
// this gate.
package classify

import (
	"context"
	"regexp"
	"strings"

	"github.com/shortlist-app/shortlist/internal/ai"
	"github.com/shortlist-app/shortlist/internal/model"
)

// InferenceClassifier is the optional model-backed classification path.
type InferenceClassifier interface {
	ClassifyPlacement(ctx context.Context, subject, body string) ai.Result[bool]
}

// capitalizedTokenRE finds candidate company-name tokens: a capitalized
// word optionally followed by a common company suffix.
var capitalizedTokenRE = regexp.MustCompile(
	`\b[A-Z][A-Za-z]+(?:\s+(?:Labs|Ltd|Pvt|Inc|LLP|Technologies|Systems|Solutions|Global|Software|Digital|Networks))?\b`)

// companyStopwords are capitalized words that appear in ordinary mail
// prose and must not count as a company-name signal.
var companyStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "dear": {}, "hello": {}, "hi": {},
	"regards": {}, "thanks": {}, "thank": {}, "best": {}, "team": {},
	"all": {}, "please": {}, "note": {}, "important": {}, "reminder": {},
	"subject": {}, "date": {}, "time": {}, "venue": {}, "students": {},
	"candidates": {}, "monday": {}, "tuesday": {}, "wednesday": {},
	"thursday": {}, "friday": {}, "saturday": {}, "sunday": {},
	"january": {}, "february": {}, "march": {}, "april": {}, "may": {},
	"june": {}, "july": {}, "august": {}, "september": {}, "october": {},
	"november": {}, "december": {},
}

// Classifier decides whether a message is placement-related using an
// allow-list short-circuit, an optional inference path, and a keyword
// heuristic fallback. The decision is pure: no state is touched.
type Classifier struct {
	keywords  []string
	whitelist []string
	inference InferenceClassifier
}

// New creates a classifier from configuration. inference may be nil.
func New(cfg model.ClassifierConfig, inference InferenceClassifier) *Classifier {
	keywords := make([]string, 0, len(cfg.Keywords))
	for _, k := range cfg.Keywords {
		keywords = append(keywords, strings.ToLower(strings.TrimSpace(k)))
	}

	whitelist := make([]string, 0, len(cfg.SenderWhitelist))
	for _, w := range cfg.SenderWhitelist {
		whitelist = append(whitelist, strings.ToLower(strings.TrimSpace(w)))
	}

	return &Classifier{
		keywords:  keywords,
		whitelist: whitelist,
		inference: inference,
	}
}

// Classify reports whether the message is placement-related, along with
// a short reason for the audit log.
//
// A whitelisted sender is trusted unconditionally and bypasses all
// content inspection. Otherwise the inference path decides when
// available; any inference failure degrades to the heuristic rather
// than surfacing an error.
func (c *Classifier) Classify(ctx context.Context, msg model.Message) (bool, string) {
	sender := strings.ToLower(strings.TrimSpace(msg.FromEmail))
	if c.senderWhitelisted(sender) {
		return true, "whitelisted sender: " + sender
	}

	if c.inference != nil {
		res := c.inference.ClassifyPlacement(ctx, msg.Subject, msg.BodyText)
		if res.Status == ai.StatusAvailable {
			if res.Value {
				return true, "inference: yes"
			}
			return false, "inference: no"
		}
		// Unavailable or failed: fall through to the heuristic.
	}

	text := msg.Subject + "\n" + msg.BodyText
	if c.containsKeyword(text) && containsCompanyToken(text) {
		return true, "heuristic: keyword and company token"
	}
	return false, "heuristic: insufficient signals"
}

// senderWhitelisted matches either the full address or its domain.
func (c *Classifier) senderWhitelisted(sender string) bool {
	if sender == "" {
		return false
	}
	domain := ""
	if at := strings.LastIndex(sender, "@"); at >= 0 {
		domain = sender[at+1:]
	}
	for _, entry := range c.whitelist {
		if entry == sender || (domain != "" && entry == domain) {
			return true
		}
	}
	return false
}

// containsKeyword reports whether any configured placement-domain
// phrase occurs in the text.
func (c *Classifier) containsKeyword(text string) bool {
	t := strings.ToLower(text)
	for _, k := range c.keywords {
		if k != "" && strings.Contains(t, k) {
			return true
		}
	}
	return false
}

// containsCompanyToken reports whether the text carries at least one
// capitalized token that is not a common stopword. Keyword presence
// alone is not enough to classify a message; this second condition
// keeps generic announcements out.
func containsCompanyToken(text string) bool {
	for _, tok := range capitalizedTokenRE.FindAllString(text, -1) {
		first := strings.ToLower(strings.Fields(tok)[0])
		if _, stop := companyStopwords[first]; !stop {
			return true
		}
	}
	return false
}
