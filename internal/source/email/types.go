package email

import "time"

// Envelope holds the parsed envelope data from an IMAP message.
type Envelope struct {
	MessageID string
	Subject   string
	FromName  string
	FromAddr  string
	Date      time.Time
	UID       uint32
}

// ParsedMessage holds the full parsed content of an email message.
type ParsedMessage struct {
	Envelope    Envelope
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// Attachment holds a message attachment with its decoded content.
type Attachment struct {
	Filename string
	MIMEType string
	Content  []byte
}
