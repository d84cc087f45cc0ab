package email

import (
	"context"
	"fmt"

	"github.com/shortlist-app/shortlist/internal/model"
	"github.com/shortlist-app/shortlist/internal/source"
)

// Adapter implements source.MailSource for IMAP mailboxes.
type Adapter struct {
	imapClient *IMAPClient
	username   string
}

// NewAdapter creates a new IMAP mailbox adapter.
func NewAdapter(
	host, port, username, password string, useTLS bool,
) *Adapter {
	return &Adapter{
		imapClient: NewIMAPClient(host, port, username, password, useTLS),
		username:   username,
	}
}

// Type returns the source type identifier for IMAP.
func (a *Adapter) Type() source.SourceType {
	return source.SourceTypeIMAP
}

// ValidateConnection verifies IMAP credentials by connecting,
// authenticating, and selecting INBOX. Returns the username on success.
func (a *Adapter) ValidateConnection(
	ctx context.Context,
) (string, error) {
	client, err := a.imapClient.Connect(ctx)
	if err != nil {
		return "", fmt.Errorf("validating email connection: %w", err)
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return "", fmt.Errorf("selecting INBOX: %w", err)
	}

	return a.username, nil
}

// NewestMessage retrieves the most recent inbox message with its body
// and attachment content loaded, or nil when the inbox is empty.
func (a *Adapter) NewestMessage(ctx context.Context) (*model.Message, error) {
	parsed, err := a.imapClient.FetchNewest(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching newest email: %w", err)
	}
	if parsed == nil {
		return nil, nil
	}

	return messageFromParsed(parsed), nil
}

// messageFromParsed converts a parsed IMAP message to the internal
// message model.
func messageFromParsed(parsed *ParsedMessage) *model.Message {
	env := parsed.Envelope

	id := env.MessageID
	if id == "" {
		id = fmt.Sprintf("uid-%d", env.UID)
	}

	body := parsed.TextBody
	if body == "" && parsed.HTMLBody != "" {
		body = parsed.HTMLBody
	}

	msg := &model.Message{
		ID:              id,
		Subject:         env.Subject,
		BodyText:        body,
		FromEmail:       env.FromAddr,
		FromDisplayName: model.CleanDisplayName(env.FromName),
		Timestamp:       env.Date,
	}

	for _, att := range parsed.Attachments {
		msg.Attachments = append(msg.Attachments, model.Attachment{
			Filename:   att.Filename,
			Kind:       model.KindForAttachment(att.Filename, att.MIMEType),
			RawContent: att.Content,
		})
	}

	return msg
}
