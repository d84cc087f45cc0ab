package gmail

import (
	"encoding/base64"
	"regexp"
	"strings"

	"google.golang.org/api/gmail/v1"
)

// attachmentRef points at one named MIME part. Small parts carry their
// data inline; larger ones only carry an attachment id to fetch.
type attachmentRef struct {
	filename     string
	mimeType     string
	attachmentID string
	data         string
}

// plainTextBody walks the MIME tree and returns the message body,
// preferring text/plain parts and falling back to stripped HTML.
func plainTextBody(payload *gmail.MessagePart) string {
	if text := findBody(payload, "text/plain"); text != "" {
		return text
	}
	if html := findBody(payload, "text/html"); html != "" {
		return stripHTML(html)
	}
	return ""
}

// findBody returns the decoded body of the first part with the given
// MIME type, searching depth-first.
func findBody(part *gmail.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}
	// Named parts are attachments, not body candidates.
	if part.Filename == "" && strings.EqualFold(part.MimeType, mimeType) &&
		part.Body != nil && part.Body.Data != "" {
		if data, err := decodeBody(part.Body.Data); err == nil {
			return string(data)
		}
	}
	for _, child := range part.Parts {
		if body := findBody(child, mimeType); body != "" {
			return body
		}
	}
	return ""
}

// attachmentRefs collects every named part in the MIME tree.
func attachmentRefs(part *gmail.MessagePart) []attachmentRef {
	if part == nil {
		return nil
	}

	var refs []attachmentRef
	if part.Filename != "" && part.Body != nil {
		refs = append(refs, attachmentRef{
			filename:     part.Filename,
			mimeType:     part.MimeType,
			attachmentID: part.Body.AttachmentId,
			data:         part.Body.Data,
		})
	}
	for _, child := range part.Parts {
		refs = append(refs, attachmentRefs(child)...)
	}
	return refs
}

// decodeBody decodes the Gmail API's base64url body encoding, tolerating
// the padded variant some parts use.
func decodeBody(data string) ([]byte, error) {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err == nil {
		return decoded, nil
	}
	return base64.RawURLEncoding.DecodeString(data)
}

// htmlTagPattern matches HTML tags for stripping.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML removes HTML tags from a string and decodes common
// entities, providing a basic plain-text rendering.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}

	result := html
	for _, tag := range []string{
		"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>",
	} {
		result = strings.ReplaceAll(result, tag, "\n")
	}

	result = htmlTagPattern.ReplaceAllString(result, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	result = replacer.Replace(result)

	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(result)
}
