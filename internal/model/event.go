package model

import "time"

// EventDraft is a transient, fully specified candidate calendar event.
// It exists only between a successful extraction and the calendar
// insert; it is never persisted on its own.
type EventDraft struct {
	// Title is "<Company> - <Kind>" when the subject splits cleanly,
	// otherwise the raw subject.
	Title string `json:"title"`

	// Start is the zoned event start time.
	Start time.Time `json:"start_datetime"`

	// DurationMinutes is bounded to [15, 240] in 15-minute increments.
	DurationMinutes int `json:"duration_minutes"`

	// LocationOrLink is a recognized venue, else the first URL in the
	// body, else empty.
	LocationOrLink string `json:"location_or_link"`

	// Description links back to the source message and repeats the
	// detected details.
	Description string `json:"description"`
}

// End returns the event end time derived from the bounded duration.
func (d EventDraft) End() time.Time {
	return d.Start.Add(time.Duration(d.DurationMinutes) * time.Minute)
}
