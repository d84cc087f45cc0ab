// Package match tests message text against the user's identity signals
// and combines the resulting verdicts under the tier order.
package match

import (
	"regexp"
	"strings"

	"github.com/shortlist-app/shortlist/internal/model"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// NameInText reports whether all significant tokens of name appear in
// text in their original relative order, not necessarily contiguously.
// The loose containment tolerates middle names and initials interleaved
// with other text while rejecting shuffled coincidental matches.
func NameInText(text, name string) bool {
	if text == "" || name == "" {
		return false
	}

	t := strings.ToLower(whitespaceRE.ReplaceAllString(text, " "))
	n := strings.TrimSpace(strings.ToLower(whitespaceRE.ReplaceAllString(name, " ")))
	if n == "" {
		return false
	}

	idx := 0
	for _, part := range strings.Split(n, " ") {
		if part == "" {
			continue
		}
		found := strings.Index(t[idx:], part)
		if found == -1 {
			return false
		}
		idx += found + len(part)
	}
	return true
}

// ContainsReg reports whether the normalized registration number occurs
// as a literal substring of the text, ignoring case.
func ContainsReg(text, reg string) bool {
	reg = normalizeReg(reg)
	if text == "" || reg == "" {
		return false
	}
	return strings.Contains(strings.ToUpper(text), reg)
}

// normalizeReg strips whitespace and upper-cases a registration number.
func normalizeReg(reg string) string {
	return strings.ToUpper(whitespaceRE.ReplaceAllString(reg, ""))
}

// EvaluateContent tests subject/body text against the profile's name and
// registration number and returns the resulting tier.
//
// Sender/profile email equality is intentionally not a signal: automated
// senders and CC chains made it a reliable source of false positives.
func EvaluateContent(text string, profile model.Profile) model.Verdict {
	nameMatch := NameInText(text, profile.Name)
	regMatch := ContainsReg(text, profile.RegistrationNumber)

	switch {
	case nameMatch && regMatch:
		return model.VerdictConfirmed
	case nameMatch:
		return model.VerdictPossibility
	case regMatch:
		return model.VerdictPartial
	default:
		return model.VerdictNoMatch
	}
}

// Fuse combines the content verdict and the aggregated attachment
// verdict into the message's overall verdict. It is the only place the
// two independent signal paths meet: either side can upgrade the
// result, neither can downgrade it.
func Fuse(content, attachment model.Verdict) model.Verdict {
	return model.BestVerdict(content, attachment)
}
