// Package watch runs the polling loop: fetch the newest inbox message,
// gate it, match it, persist the outcome, and publish calendar events
// for confirmed matches.
package watch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shortlist-app/shortlist/internal/attach"
	"github.com/shortlist-app/shortlist/internal/calendar"
	"github.com/shortlist-app/shortlist/internal/classify"
	"github.com/shortlist-app/shortlist/internal/event"
	"github.com/shortlist-app/shortlist/internal/match"
	"github.com/shortlist-app/shortlist/internal/model"
	"github.com/shortlist-app/shortlist/internal/source"
	"github.com/shortlist-app/shortlist/internal/store"
)

// tickTimeout bounds a single fetch-and-process cycle.
const tickTimeout = 2 * time.Minute

// maxBackoff caps the sleep after a failed cycle.
const maxBackoff = 5 * time.Minute

// Watcher orchestrates the per-message pipeline over a mail source.
type Watcher struct {
	store      store.Store
	src        source.MailSource
	classifier *classify.Classifier
	aggregator *attach.Aggregator
	extractor  *event.Extractor
	sink       calendar.Sink
	log        *zap.Logger
	interval   time.Duration
}

// Config collects the watcher's collaborators. Sink may be nil to
// disable calendar publishing.
type Config struct {
	Store      store.Store
	Source     source.MailSource
	Classifier *classify.Classifier
	Aggregator *attach.Aggregator
	Extractor  *event.Extractor
	Sink       calendar.Sink
	Logger     *zap.Logger
	Interval   time.Duration
}

// New creates a watcher from its collaborators.
func New(cfg Config) *Watcher {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watcher{
		store:      cfg.Store,
		src:        cfg.Source,
		classifier: cfg.Classifier,
		aggregator: cfg.Aggregator,
		extractor:  cfg.Extractor,
		sink:       cfg.Sink,
		log:        cfg.Logger,
		interval:   interval,
	}
}

// Run polls until the context is cancelled. A failed cycle is logged
// and retried after a backoff; it never stops the loop.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Info("watcher started",
		zap.String("source", string(w.src.Type())),
		zap.Duration("interval", w.interval),
	)

	for {
		delay := w.interval
		if err := w.tick(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			delay = w.backoff()
			w.log.Error("poll cycle failed",
				zap.Error(err),
				zap.Bool("auth", source.IsAuthError(err)),
				zap.Duration("retry_in", delay),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// backoff returns the post-error sleep: double the poll interval,
// capped at five minutes.
func (w *Watcher) backoff() time.Duration {
	b := 2 * w.interval
	if b > maxBackoff {
		b = maxBackoff
	}
	return b
}

// tick runs one poll cycle: fetch the newest message and process it if
// it has not been seen before.
func (w *Watcher) tick(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, tickTimeout)
	defer cancel()

	msg, err := w.src.NewestMessage(ctx)
	if err != nil {
		return err
	}
	if msg == nil {
		return nil
	}

	state, err := w.store.State(ctx)
	if err != nil {
		return err
	}
	if msg.ID == state.LastMessageID {
		return nil
	}

	return w.Process(ctx, *msg)
}

// Process runs the full pipeline for one message: profile backfill,
// placement gate, content and attachment matching, fusion, persistence,
// and calendar publishing for confirmed matches.
func (w *Watcher) Process(ctx context.Context, msg model.Message) error {
	profile, err := w.backfillProfile(ctx, msg)
	if err != nil {
		return err
	}

	rec := model.MatchRecord{
		MessageID: msg.ID,
		Subject:   msg.Subject,
		FromEmail: msg.FromEmail,
		Profile:   profile,
	}

	placement, reason := w.classifier.Classify(ctx, msg)
	if !placement {
		// Non-placement mail still advances the cursor, recorded as
		// NO_MATCH without any matching work.
		rec.Verdict = model.VerdictNoMatch
		rec.ContentVerdict = model.VerdictNoMatch
		rec.AttachmentVerdict = model.VerdictNoMatch
		if err := w.store.Record(ctx, rec); err != nil {
			return err
		}
		w.log.Info("message skipped by placement gate",
			zap.String("message_id", msg.ID),
			zap.String("reason", reason),
		)
		return nil
	}

	rec.ContentVerdict = match.EvaluateContent(msg.Subject+"\n"+msg.BodyText, profile)
	rec.AttachmentVerdict, rec.Breakdown = w.aggregator.Aggregate(msg.Attachments, profile)
	rec.Verdict = match.Fuse(rec.ContentVerdict, rec.AttachmentVerdict)

	if err := w.store.Record(ctx, rec); err != nil {
		return err
	}

	w.log.Info("message processed",
		zap.String("message_id", msg.ID),
		zap.String("from", msg.FromEmail),
		zap.String("subject", msg.Subject),
		zap.String("gate_reason", reason),
		zap.String("verdict", string(rec.Verdict)),
		zap.String("content_verdict", string(rec.ContentVerdict)),
		zap.String("attachment_verdict", string(rec.AttachmentVerdict)),
		zap.Int("attachments", len(msg.Attachments)),
	)

	if rec.Verdict == model.VerdictConfirmed {
		w.publishEvent(ctx, msg)
	}

	return nil
}

// publishEvent extracts event details for a confirmed match and inserts
// them into the calendar. Extraction or publishing failures are logged,
// never escalated: the match record already landed.
func (w *Watcher) publishEvent(ctx context.Context, msg model.Message) {
	draft, err := w.extractor.Extract(ctx, msg)
	if err != nil {
		w.log.Warn("no calendar event for confirmed match",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		return
	}

	if w.sink == nil {
		w.log.Info("calendar disabled, event draft dropped",
			zap.String("message_id", msg.ID),
			zap.String("title", draft.Title),
		)
		return
	}

	if err := w.sink.Insert(ctx, draft); err != nil {
		w.log.Error("inserting calendar event",
			zap.String("message_id", msg.ID),
			zap.String("title", draft.Title),
			zap.Error(err),
		)
		return
	}

	w.log.Info("calendar event created",
		zap.String("message_id", msg.ID),
		zap.String("title", draft.Title),
		zap.Time("start", draft.Start),
		zap.Int("duration_minutes", draft.DurationMinutes),
	)
}

// backfillProfile fills empty profile identity fields from the sender's
// display name. Existing values are never overwritten.
func (w *Watcher) backfillProfile(ctx context.Context, msg model.Message) (model.Profile, error) {
	var profile model.Profile
	stored, err := w.store.Profile(ctx)
	if err != nil {
		return model.Profile{}, err
	}
	if stored != nil {
		profile = *stored
	}

	name, reg := model.SplitNameAndReg(msg.FromDisplayName)

	updated := false
	if profile.Name == "" && name != "" {
		profile.Name = name
		updated = true
	}
	if profile.RegistrationNumber == "" && reg != "" {
		profile.RegistrationNumber = reg
		updated = true
	}

	if updated {
		if err := w.store.SaveProfile(ctx, profile); err != nil {
			return model.Profile{}, err
		}
		w.log.Info("profile backfilled from sender header",
			zap.String("name", profile.Name),
			zap.String("registration_number", profile.RegistrationNumber),
		)
	}

	return profile, nil
}
