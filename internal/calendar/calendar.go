// Package calendar publishes extracted event drafts to Google Calendar.
package calendar

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/shortlist-app/shortlist/internal/gauth"
	"github.com/shortlist-app/shortlist/internal/model"
)

// Sink receives event drafts for confirmed matches.
type Sink interface {
	// Insert publishes the draft as a calendar event.
	Insert(ctx context.Context, draft model.EventDraft) error
}

// GoogleSink implements Sink against the Google Calendar API.
type GoogleSink struct {
	srv        *calendar.Service
	calendarID string
	timezone   string
}

// NewGoogleSink builds a calendar sink from the OAuth client secret and
// cached token files. All event times are published in the given zone.
func NewGoogleSink(
	ctx context.Context,
	credentialsFile, tokenFile, calendarID, timezone string,
) (*GoogleSink, error) {
	httpClient, err := gauth.Client(
		ctx, credentialsFile, tokenFile, calendar.CalendarEventsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("loading calendar credentials: %w", err)
	}

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}

	return &GoogleSink{
		srv:        srv,
		calendarID: calendarID,
		timezone:   timezone,
	}, nil
}

// Insert publishes the draft as a calendar event.
func (s *GoogleSink) Insert(ctx context.Context, draft model.EventDraft) error {
	event := &calendar.Event{
		Summary:     draft.Title,
		Description: draft.Description,
		Location:    draft.LocationOrLink,
		Start: &calendar.EventDateTime{
			DateTime: draft.Start.Format(time.RFC3339),
			TimeZone: s.timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: draft.End().Format(time.RFC3339),
			TimeZone: s.timezone,
		},
	}

	if _, err := s.srv.Events.Insert(s.calendarID, event).Context(ctx).Do(); err != nil {
		return fmt.Errorf("inserting calendar event %q: %w", draft.Title, err)
	}

	return nil
}
