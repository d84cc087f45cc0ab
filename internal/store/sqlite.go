package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/shortlist-app/shortlist/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Profile retrieves the stored candidate profile, or nil when none has been
// saved yet.
func (s *SQLiteStore) Profile(ctx context.Context) (*model.Profile, error) {
	var p model.Profile
	err := s.db.QueryRowxContext(ctx, `
		SELECT name, registration_number, gmail_address, personal_email, phone_number
		FROM profile WHERE id = 1`,
	).Scan(&p.Name, &p.RegistrationNumber, &p.GmailAddress, &p.PersonalEmail, &p.PhoneNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return &p, nil
}

// SaveProfile replaces the stored profile.
func (s *SQLiteStore) SaveProfile(ctx context.Context, p model.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO profile (
			id, name, registration_number, gmail_address, personal_email, phone_number, updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.RegistrationNumber, p.GmailAddress, p.PersonalEmail, p.PhoneNumber,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// State retrieves the processing cursor and the per-tier counts.
func (s *SQLiteStore) State(ctx context.Context) (model.ProcessState, error) {
	state := model.ProcessState{Counts: map[model.Verdict]int{}}

	err := s.db.GetContext(ctx, &state.LastMessageID,
		"SELECT last_message_id FROM process_state WHERE id = 1",
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.ProcessState{}, fmt.Errorf("reading process state: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx, "SELECT tier, count FROM tier_counts")
	if err != nil {
		return model.ProcessState{}, fmt.Errorf("querying tier counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tier  string
			count int
		)
		if err := rows.Scan(&tier, &count); err != nil {
			return model.ProcessState{}, fmt.Errorf("scanning tier count row: %w", err)
		}
		state.Counts[model.Verdict(tier)] = count
	}

	return state, rows.Err()
}

// Record appends a match record and advances the processing cursor in a
// single transaction. The record's tier reference list is trimmed to the
// retention cap; the tier counter is never decremented.
func (s *SQLiteStore) Record(ctx context.Context, rec model.MatchRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	breakdown, err := json.Marshal(rec.Breakdown)
	if err != nil {
		return fmt.Errorf("marshaling attachment breakdown: %w", err)
	}
	profile, err := json.Marshal(rec.Profile)
	if err != nil {
		return fmt.Errorf("marshaling profile snapshot: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO match_records (
			id, message_id, verdict, content_verdict, attachment_verdict,
			breakdown, profile, subject, from_email, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.MessageID, string(rec.Verdict),
		string(rec.ContentVerdict), string(rec.AttachmentVerdict),
		string(breakdown), string(profile),
		rec.Subject, rec.FromEmail, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting match record: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO process_state (id, last_message_id, updated_at)
		VALUES (1, ?, ?)`,
		rec.MessageID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("advancing cursor: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tier_counts (tier, count) VALUES (?, 1)
		ON CONFLICT(tier) DO UPDATE SET count = count + 1`,
		string(rec.Verdict),
	)
	if err != nil {
		return fmt.Errorf("incrementing tier count: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tier_entries (tier, record_id, message_id, created_at)
		VALUES (?, ?, ?, ?)`,
		string(rec.Verdict), rec.ID, rec.MessageID, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting tier entry: %w", err)
	}

	// Keep only the newest entries for this tier.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM tier_entries
		WHERE tier = ? AND seq NOT IN (
			SELECT seq FROM tier_entries WHERE tier = ? ORDER BY seq DESC LIMIT ?
		)`,
		string(rec.Verdict), string(rec.Verdict), model.TierRetention,
	)
	if err != nil {
		return fmt.Errorf("trimming tier entries: %w", err)
	}

	return tx.Commit()
}

// Counts retrieves the monotonic per-tier counters.
func (s *SQLiteStore) Counts(ctx context.Context) (map[model.Verdict]int, error) {
	state, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	return state.Counts, nil
}

// RecentRecords retrieves the newest match records first, up to limit.
func (s *SQLiteStore) RecentRecords(
	ctx context.Context,
	limit int,
) ([]model.MatchRecord, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, message_id, verdict, content_verdict, attachment_verdict,
		       breakdown, profile, subject, from_email, created_at
		FROM match_records ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying match records: %w", err)
	}
	defer rows.Close()

	var records []model.MatchRecord
	for rows.Next() {
		rec, err := scanMatchRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// TierMessageIDs retrieves the retained message ids for a tier, newest first.
func (s *SQLiteStore) TierMessageIDs(
	ctx context.Context,
	tier model.Verdict,
) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids,
		"SELECT message_id FROM tier_entries WHERE tier = ? ORDER BY seq DESC",
		string(tier),
	)
	if err != nil {
		return nil, fmt.Errorf("querying tier entries for %s: %w", tier, err)
	}
	return ids, nil
}

// scanMatchRecord scans a match record row from a sqlx.Rows result set.
func scanMatchRecord(rows *sqlx.Rows) (model.MatchRecord, error) {
	var (
		rec        model.MatchRecord
		verdict    string
		content    string
		attachment string
		breakdown  string
		profile    string
		createdAt  time.Time
	)

	err := rows.Scan(
		&rec.ID, &rec.MessageID, &verdict, &content, &attachment,
		&breakdown, &profile, &rec.Subject, &rec.FromEmail, &createdAt,
	)
	if err != nil {
		return model.MatchRecord{}, fmt.Errorf("scanning match record row: %w", err)
	}

	rec.Verdict = model.Verdict(verdict)
	rec.ContentVerdict = model.Verdict(content)
	rec.AttachmentVerdict = model.Verdict(attachment)
	rec.CreatedAt = createdAt

	if breakdown != "" {
		if err := json.Unmarshal([]byte(breakdown), &rec.Breakdown); err != nil {
			return model.MatchRecord{}, fmt.Errorf("unmarshaling attachment breakdown: %w", err)
		}
	}
	if profile != "" {
		if err := json.Unmarshal([]byte(profile), &rec.Profile); err != nil {
			return model.MatchRecord{}, fmt.Errorf("unmarshaling profile snapshot: %w", err)
		}
	}

	return rec, nil
}
