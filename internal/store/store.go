// Package store persists the profile, the processing cursor, and the
// append-only match audit trail.
package store

import (
	"context"

	"github.com/shortlist-app/shortlist/internal/model"
)

// Store is the persistence boundary for the watcher. Implementations are
// safe for use from a single process; the loop assumes it is the only
// writer, so concurrent writers get last-writer-wins semantics on the
// cursor.
type Store interface {
	// Profile returns the stored candidate profile, or nil when none has
	// been saved yet.
	Profile(ctx context.Context) (*model.Profile, error)
	// SaveProfile replaces the stored profile.
	SaveProfile(ctx context.Context, p model.Profile) error

	// State returns the processing cursor and the per-tier counts.
	State(ctx context.Context) (model.ProcessState, error)

	// Record appends a match record, advances the cursor to the record's
	// message, bumps the tier counter, and trims the tier's reference list
	// to its retention cap. All of it happens in one transaction: either
	// the whole outcome lands or none of it does.
	Record(ctx context.Context, rec model.MatchRecord) error

	// Counts returns how many messages ever landed in each tier. Counters
	// are monotonic; retention trimming does not decrement them.
	Counts(ctx context.Context) (map[model.Verdict]int, error)

	// RecentRecords returns the newest records first, up to limit.
	RecentRecords(ctx context.Context, limit int) ([]model.MatchRecord, error)

	// TierMessageIDs returns the retained message ids for a tier, newest
	// first.
	TierMessageIDs(ctx context.Context, tier model.Verdict) ([]string, error)

	Close() error
}
