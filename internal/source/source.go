package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/shortlist-app/shortlist/internal/model"
)

// AuthError indicates that authentication has failed or expired for a
// mailbox. It is returned by adapters when the provider rejects the
// stored credentials.
type AuthError struct {
	SourceType SourceType
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.SourceType, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// SourceType identifies the kind of mailbox integration.
type SourceType string

const (
	SourceTypeGmail SourceType = "gmail"
	SourceTypeIMAP  SourceType = "imap"
)

// MailSource defines the contract that every mailbox integration must
// implement.
type MailSource interface {
	// Type returns the source type identifier.
	Type() SourceType

	// ValidateConnection verifies credentials and connectivity.
	// Returns the authenticated mailbox address on success.
	ValidateConnection(ctx context.Context) (string, error)

	// NewestMessage retrieves the most recent inbox message with its body
	// and attachment content loaded, or nil when the inbox is empty.
	NewestMessage(ctx context.Context) (*model.Message, error)
}
