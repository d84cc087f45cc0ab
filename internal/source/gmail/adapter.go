// Package gmail implements the Gmail mailbox adapter on top of the
// Gmail REST API.
package gmail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/shortlist-app/shortlist/internal/gauth"
	"github.com/shortlist-app/shortlist/internal/model"
	"github.com/shortlist-app/shortlist/internal/source"
)

const (
	user = "me"

	// inboxQuery restricts polling to inbox mail across all categories.
	inboxQuery = "in:inbox -in:draft"
)

// Adapter implements source.MailSource for Gmail.
type Adapter struct {
	srv *gmail.Service
}

// NewAdapter builds a Gmail adapter from the OAuth client secret and
// cached token files. A missing token surfaces as an AuthError so the
// caller can direct the user to re-authorize.
func NewAdapter(
	ctx context.Context,
	credentialsFile, tokenFile string,
) (*Adapter, error) {
	httpClient, err := gauth.Client(
		ctx, credentialsFile, tokenFile, gmail.GmailReadonlyScope,
	)
	if err != nil {
		return nil, &source.AuthError{
			SourceType: source.SourceTypeGmail,
			Message:    fmt.Sprintf("loading oauth credentials: %v", err),
		}
	}

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}

	return &Adapter{srv: srv}, nil
}

// Type returns the source type identifier for Gmail.
func (a *Adapter) Type() source.SourceType {
	return source.SourceTypeGmail
}

// ValidateConnection verifies the OAuth token by fetching the mailbox
// profile. Returns the authenticated address on success.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	profile, err := a.srv.Users.GetProfile(user).Context(ctx).Do()
	if err != nil {
		return "", a.wrapErr("validating gmail connection", err)
	}
	return profile.EmailAddress, nil
}

// NewestMessage retrieves the most recent inbox message with its body
// and attachment content loaded, or nil when the inbox is empty.
func (a *Adapter) NewestMessage(ctx context.Context) (*model.Message, error) {
	list, err := a.srv.Users.Messages.List(user).
		MaxResults(1).
		Q(inboxQuery).
		Context(ctx).
		Do()
	if err != nil {
		return nil, a.wrapErr("listing inbox messages", err)
	}
	if len(list.Messages) == 0 {
		return nil, nil
	}

	id := list.Messages[0].Id
	full, err := a.srv.Users.Messages.Get(user, id).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, a.wrapErr(fmt.Sprintf("fetching message %s", id), err)
	}

	msg := a.parseMessage(full)

	if err := a.loadAttachments(ctx, full, msg); err != nil {
		return nil, err
	}

	return msg, nil
}

// parseMessage maps a full Gmail message to the internal message model.
func (a *Adapter) parseMessage(full *gmail.Message) *model.Message {
	msg := &model.Message{
		ID:        full.Id,
		Timestamp: time.UnixMilli(full.InternalDate),
	}

	if full.Payload == nil {
		return msg
	}

	for _, h := range full.Payload.Headers {
		switch h.Name {
		case "Subject":
			msg.Subject = h.Value
		case "From":
			msg.FromDisplayName, msg.FromEmail = model.ParseFromHeader(h.Value)
		}
	}

	msg.BodyText = plainTextBody(full.Payload)

	return msg
}

// loadAttachments walks the MIME tree and downloads every named part's
// content, tagging it with the extractor format kind.
func (a *Adapter) loadAttachments(
	ctx context.Context,
	full *gmail.Message,
	msg *model.Message,
) error {
	for _, ref := range attachmentRefs(full.Payload) {
		att := model.Attachment{
			Filename: ref.filename,
			Kind:     model.KindForAttachment(ref.filename, ref.mimeType),
		}

		if ref.data != "" {
			content, err := decodeBody(ref.data)
			if err != nil {
				return fmt.Errorf("decoding inline attachment %s: %w", ref.filename, err)
			}
			att.RawContent = content
		} else if ref.attachmentID != "" {
			body, err := a.srv.Users.Messages.Attachments.
				Get(user, full.Id, ref.attachmentID).
				Context(ctx).
				Do()
			if err != nil {
				return a.wrapErr(
					fmt.Sprintf("fetching attachment %s of message %s", ref.filename, full.Id),
					err,
				)
			}
			content, err := decodeBody(body.Data)
			if err != nil {
				return fmt.Errorf("decoding attachment %s: %w", ref.filename, err)
			}
			att.RawContent = content
		}

		msg.Attachments = append(msg.Attachments, att)
	}

	return nil
}

// wrapErr translates Gmail API errors, mapping credential rejections
// to AuthError.
func (a *Adapter) wrapErr(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == 401 || apiErr.Code == 403) {
		return &source.AuthError{
			SourceType: source.SourceTypeGmail,
			Message:    fmt.Sprintf("%s: %v", op, err),
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
