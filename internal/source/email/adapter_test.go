package email

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortlist-app/shortlist/internal/model"
)

func TestParseMIMEBodyExtractsTextAndAttachments(t *testing.T) {
	raw := strings.Join([]string{
		"From: Placement Office <cdc@vit.ac.in>",
		"To: jane@example.com",
		"Subject: Shortlist for Okta",
		"Content-Type: multipart/mixed; boundary=BOUNDARY",
		"",
		"--BOUNDARY",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Dear students, the shortlist is attached.",
		"--BOUNDARY",
		"Content-Type: text/csv",
		"Content-Disposition: attachment; filename=shortlist.csv",
		"",
		"name,reg",
		"Jane Doe,21BCE1234",
		"--BOUNDARY--",
		"",
	}, "\r\n")

	text, html, attachments := parseMIMEBody([]byte(raw))

	assert.Contains(t, text, "shortlist is attached")
	assert.Empty(t, html)
	require.Len(t, attachments, 1)
	assert.Equal(t, "shortlist.csv", attachments[0].Filename)
	assert.Contains(t, string(attachments[0].Content), "Jane Doe")
}

func TestParseMIMEBodyFallsBackToPlainText(t *testing.T) {
	raw := []byte("not a mime message at all")

	text, html, attachments := parseMIMEBody(raw)

	assert.Equal(t, "not a mime message at all", text)
	assert.Empty(t, html)
	assert.Empty(t, attachments)
}

func TestMessageFromParsed(t *testing.T) {
	when := time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)
	parsed := &ParsedMessage{
		Envelope: Envelope{
			MessageID: "<abc@mail.example>",
			Subject:   "Shortlist for Okta",
			FromName:  "Placement Office via Google Groups",
			FromAddr:  "cdc@vit.ac.in",
			Date:      when,
			UID:       42,
		},
		TextBody: "body text",
		Attachments: []Attachment{
			{Filename: "schedule.pdf", MIMEType: "application/pdf", Content: []byte("%PDF")},
			{Filename: "poster.png", MIMEType: "image/png", Content: []byte{1}},
		},
	}

	msg := messageFromParsed(parsed)

	assert.Equal(t, "<abc@mail.example>", msg.ID)
	assert.Equal(t, "Shortlist for Okta", msg.Subject)
	assert.Equal(t, "body text", msg.BodyText)
	assert.Equal(t, "cdc@vit.ac.in", msg.FromEmail)
	assert.Equal(t, "Placement Office", msg.FromDisplayName)
	assert.True(t, when.Equal(msg.Timestamp))
	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, model.MimeKindPDF, msg.Attachments[0].Kind)
	assert.Equal(t, model.MimeKindUnsupported, msg.Attachments[1].Kind)
}

func TestMessageFromParsedFallsBackToUID(t *testing.T) {
	msg := messageFromParsed(&ParsedMessage{
		Envelope: Envelope{UID: 7},
	})

	assert.Equal(t, "uid-7", msg.ID)
}
