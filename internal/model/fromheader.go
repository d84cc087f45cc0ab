package model

import (
	"mime"
	"net/mail"
	"regexp"
	"strings"
)

// RegNumberRE matches institutional registration numbers, e.g. "22BCE2382".
var RegNumberRE = regexp.MustCompile(`\b\d{2}[A-Za-z]{3}\d{4}\b`)

// viaClauses are routing decorations commonly appended to display names
// by mailing lists and forwarding services.
var viaClauses = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+via\s+.*$`),
	regexp.MustCompile(`(?i)\s+\(via\s+.*\)$`),
	regexp.MustCompile(`(?i)\s*[-–]\s*Google\s+Groups$`),
}

var multiSpaceRE = regexp.MustCompile(`\s{2,}`)

// ParseFromHeader returns the cleaned display name and address from a
// raw From header value. A malformed header yields empty results rather
// than an error; the sender then simply contributes no header signals.
func ParseFromHeader(raw string) (displayName, addr string) {
	if strings.TrimSpace(raw) == "" {
		return "", ""
	}
	parsed, err := mail.ParseAddress(raw)
	if err != nil {
		return "", ""
	}
	return CleanDisplayName(decodeWord(parsed.Name)), parsed.Address
}

// CleanDisplayName strips routing decorations, stray quotes, and
// redundant whitespace from a display name.
func CleanDisplayName(name string) string {
	out := strings.TrimSpace(name)
	for _, re := range viaClauses {
		out = strings.TrimSpace(re.ReplaceAllString(out, ""))
	}
	out = strings.Trim(out, `'" `)
	return multiSpaceRE.ReplaceAllString(out, " ")
}

// SplitNameAndReg separates a registration number out of a display name.
// Sender names in placement mail often look like "Jane Doe 22BCE2382".
func SplitNameAndReg(displayName string) (name, reg string) {
	if displayName == "" {
		return "", ""
	}
	reg = strings.ToUpper(RegNumberRE.FindString(displayName))
	name = displayName
	if reg != "" {
		name = strings.TrimSpace(regexp.MustCompile(`(?i)`+regexp.QuoteMeta(reg)).ReplaceAllString(name, ""))
	}
	name = strings.TrimRight(name, ",-– ")
	return multiSpaceRE.ReplaceAllString(name, " "), reg
}

// decodeWord decodes RFC 2047 encoded display names, returning the
// input unchanged when it is not encoded or fails to decode.
func decodeWord(s string) string {
	dec := new(mime.WordDecoder)
	out, err := dec.DecodeHeader(s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(out)
}
