package watch

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/shortlist-app/shortlist/internal/ai"
	"github.com/shortlist-app/shortlist/internal/attach"
	"github.com/shortlist-app/shortlist/internal/classify"
	"github.com/shortlist-app/shortlist/internal/event"
	"github.com/shortlist-app/shortlist/internal/model"
	"github.com/shortlist-app/shortlist/internal/source"
	"github.com/shortlist-app/shortlist/tests/testutil"
)

type fakeSource struct {
	msg *model.Message
	err error
}

func (f *fakeSource) Type() source.SourceType { return "fake" }

func (f *fakeSource) ValidateConnection(context.Context) (string, error) {
	return "fake@example.com", f.err
}

func (f *fakeSource) NewestMessage(context.Context) (*model.Message, error) {
	return f.msg, f.err
}

// fakeAI serves both the classifier and the event extractor.
type fakeAI struct {
	classifyRes ai.Result[bool]
	datetimeRes ai.Result[time.Time]
}

func (f *fakeAI) ClassifyPlacement(context.Context, string, string) ai.Result[bool] {
	return f.classifyRes
}

func (f *fakeAI) ExtractDateTime(
	_ context.Context, _, _ string, loc *time.Location,
) ai.Result[time.Time] {
	res := f.datetimeRes
	if res.Status == ai.StatusAvailable {
		res.Value = res.Value.In(loc)
	}
	return res
}

type fakeSink struct {
	drafts []model.EventDraft
	err    error
}

func (f *fakeSink) Insert(_ context.Context, draft model.EventDraft) error {
	if f.err != nil {
		return f.err
	}
	f.drafts = append(f.drafts, draft)
	return nil
}

var testProfile = model.Profile{
	Name:               "Jane Q Doe",
	RegistrationNumber: "21BCE1234",
	GmailAddress:       "jane@gmail.com",
}

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return loc
}

func newTestWatcher(
	t *testing.T,
	src source.MailSource,
	brain *fakeAI,
	sink *fakeSink,
) (*Watcher, *fakeSink) {
	t.Helper()

	s := testutil.NewTestStore(t)
	require.NoError(t, s.SaveProfile(context.Background(), testProfile))

	classifierCfg := model.ClassifierConfig{
		Keywords:        []string{"shortlist", "assessment", "online test", "interview"},
		SenderWhitelist: []string{"cdc@vit.ac.in"},
	}

	var inference classify.InferenceClassifier
	var datetime event.DateTimeExtractor
	if brain != nil {
		inference = brain
		datetime = brain
	}

	if sink == nil {
		sink = &fakeSink{}
	}

	w := New(Config{
		Store:      s,
		Source:     src,
		Classifier: classify.New(classifierCfg, inference),
		Aggregator: attach.DefaultAggregator(),
		Extractor:  event.NewExtractor(datetime, kolkata(t)),
		Sink:       sink,
		Logger:     zap.NewNop(),
		Interval:   time.Second,
	})
	return w, sink
}

func lastRecord(t *testing.T, w *Watcher) model.MatchRecord {
	t.Helper()
	records, err := w.store.RecentRecords(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	return records[0]
}

// Whitelisted sender with no identity signals anywhere: everything stays
// NO_MATCH and no event is created.
func TestProcessWhitelistedNoSignals(t *testing.T) {
	msg := model.Message{
		ID:        "m-1",
		Subject:   "Assessment Reminder",
		BodyText:  "All students must report on time.",
		FromEmail: "cdc@vit.ac.in",
		Attachments: []model.Attachment{
			{Filename: "poster.png", Kind: model.MimeKindUnsupported},
		},
	}

	w, sink := newTestWatcher(t, &fakeSource{msg: &msg}, nil, nil)
	require.NoError(t, w.Process(context.Background(), msg))

	rec := lastRecord(t, w)
	assert.Equal(t, model.VerdictNoMatch, rec.Verdict)
	assert.Equal(t, model.VerdictNoMatch, rec.ContentVerdict)
	assert.Equal(t, model.VerdictNoMatch, rec.AttachmentVerdict)
	require.Len(t, rec.Breakdown, 1)
	assert.True(t, rec.Breakdown[0].Unsupported)
	assert.Empty(t, sink.drafts)

	state, err := w.store.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "m-1", state.LastMessageID)
}

// Body carries both name and registration number, and the inference
// collaborator returns a start time: the calendar receives a fully
// derived event.
func TestProcessConfirmedContentCreatesEvent(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Kolkata")
	start := time.Date(2025, 7, 7, 9, 0, 0, 0, loc)

	msg := model.Message{
		ID:        "m-2",
		Subject:   "Okta - Online Test, 7th July 2025 by 9.00 am",
		BodyText:  "Dear Jane Q Doe (21BCE1234), your online test is scheduled.",
		FromEmail: "placements@vit.ac.in",
	}

	brain := &fakeAI{
		classifyRes: ai.Available(true),
		datetimeRes: ai.Available(start),
	}

	w, sink := newTestWatcher(t, &fakeSource{msg: &msg}, brain, nil)
	require.NoError(t, w.Process(context.Background(), msg))

	rec := lastRecord(t, w)
	assert.Equal(t, model.VerdictConfirmed, rec.Verdict)
	assert.Equal(t, model.VerdictConfirmed, rec.ContentVerdict)

	require.Len(t, sink.drafts, 1)
	draft := sink.drafts[0]
	assert.Equal(t, "Okta - Online Test", draft.Title)
	assert.True(t, start.Equal(draft.Start))
	assert.Equal(t, 60, draft.DurationMinutes)
}

// A spreadsheet row with both identity fields upgrades an otherwise
// unmatched message to CONFIRMED_MATCH.
func TestProcessAttachmentUpgrade(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A5", "Jane Q Doe"))
	require.NoError(t, f.SetCellValue("Sheet1", "B5", "21BCE1234"))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	msg := model.Message{
		ID:        "m-3",
		Subject:   "Shortlist attached",
		BodyText:  "Please find the shortlist attached.",
		FromEmail: "cdc@vit.ac.in",
		Attachments: []model.Attachment{
			{
				Filename:   "shortlist.xlsx",
				Kind:       model.MimeKindTabular,
				RawContent: buf.Bytes(),
			},
		},
	}

	loc, _ := time.LoadLocation("Asia/Kolkata")
	brain := &fakeAI{
		classifyRes: ai.Available(true),
		datetimeRes: ai.Available(time.Date(2025, 7, 8, 10, 0, 0, 0, loc)),
	}

	w, sink := newTestWatcher(t, &fakeSource{msg: &msg}, brain, nil)
	require.NoError(t, w.Process(context.Background(), msg))

	rec := lastRecord(t, w)
	assert.Equal(t, model.VerdictNoMatch, rec.ContentVerdict)
	assert.Equal(t, model.VerdictConfirmed, rec.AttachmentVerdict)
	assert.Equal(t, model.VerdictConfirmed, rec.Verdict)
	assert.Len(t, sink.drafts, 1)
}

// An unconfigured inference collaborator blocks event creation but the
// confirmed match still lands in the audit log.
func TestProcessConfirmedWithoutInference(t *testing.T) {
	msg := model.Message{
		ID:        "m-4",
		Subject:   "Shortlisted for interview",
		BodyText:  "Congratulations Jane Q Doe, reg no 21BCE1234.",
		FromEmail: "cdc@vit.ac.in",
	}

	w, sink := newTestWatcher(t, &fakeSource{msg: &msg}, nil, nil)
	require.NoError(t, w.Process(context.Background(), msg))

	rec := lastRecord(t, w)
	assert.Equal(t, model.VerdictConfirmed, rec.Verdict)
	assert.Empty(t, sink.drafts)
}

// Messages the gate rejects still advance the cursor, recorded as
// NO_MATCH without content or attachment inspection.
func TestProcessGateRejection(t *testing.T) {
	msg := model.Message{
		ID:        "m-5",
		Subject:   "Library due reminder",
		BodyText:  "Your borrowed books are due tomorrow. Jane Q Doe 21BCE1234.",
		FromEmail: "library@vit.ac.in",
	}

	w, sink := newTestWatcher(t, &fakeSource{msg: &msg}, nil, nil)
	require.NoError(t, w.Process(context.Background(), msg))

	rec := lastRecord(t, w)
	assert.Equal(t, model.VerdictNoMatch, rec.Verdict)
	assert.Empty(t, sink.drafts)

	state, err := w.store.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "m-5", state.LastMessageID)
}

// A calendar failure is contained: the record stays and Process
// reports success.
func TestProcessSinkFailureIsContained(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Kolkata")
	msg := model.Message{
		ID:        "m-6",
		Subject:   "Shortlisted for interview",
		BodyText:  "Congratulations Jane Q Doe, reg no 21BCE1234.",
		FromEmail: "cdc@vit.ac.in",
	}

	brain := &fakeAI{
		classifyRes: ai.Available(true),
		datetimeRes: ai.Available(time.Date(2025, 7, 9, 11, 0, 0, 0, loc)),
	}
	sink := &fakeSink{err: errors.New("quota exceeded")}

	w, _ := newTestWatcher(t, &fakeSource{msg: &msg}, brain, sink)
	require.NoError(t, w.Process(context.Background(), msg))

	rec := lastRecord(t, w)
	assert.Equal(t, model.VerdictConfirmed, rec.Verdict)
}

func TestTickSkipsSeenMessage(t *testing.T) {
	msg := model.Message{
		ID:        "m-7",
		Subject:   "Assessment Reminder",
		FromEmail: "cdc@vit.ac.in",
	}

	w, _ := newTestWatcher(t, &fakeSource{msg: &msg}, nil, nil)
	ctx := context.Background()

	require.NoError(t, w.tick(ctx))
	require.NoError(t, w.tick(ctx))

	records, err := w.store.RecentRecords(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestTickEmptyInbox(t *testing.T) {
	w, _ := newTestWatcher(t, &fakeSource{}, nil, nil)
	require.NoError(t, w.tick(context.Background()))

	records, err := w.store.RecentRecords(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestTickPropagatesSourceError(t *testing.T) {
	srcErr := &source.AuthError{SourceType: "fake", Message: "token expired"}
	w, _ := newTestWatcher(t, &fakeSource{err: srcErr}, nil, nil)

	err := w.tick(context.Background())
	assert.True(t, source.IsAuthError(err))
}

func TestBackfillProfileFillsOnlyEmptyFields(t *testing.T) {
	msg := model.Message{
		ID:              "m-8",
		Subject:         "Assessment Reminder",
		FromEmail:       "jane@gmail.com",
		FromDisplayName: "Janet Other 22BCE9999",
	}

	w, _ := newTestWatcher(t, &fakeSource{msg: &msg}, nil, nil)
	ctx := context.Background()

	profile, err := w.backfillProfile(ctx, msg)
	require.NoError(t, err)
	// Both identity fields were already set; nothing is overwritten.
	assert.Equal(t, "Jane Q Doe", profile.Name)
	assert.Equal(t, "21BCE1234", profile.RegistrationNumber)
}

func TestBackfillProfileFromHeader(t *testing.T) {
	s := testutil.NewTestStore(t)
	w := New(Config{
		Store:      s,
		Source:     &fakeSource{},
		Classifier: classify.New(model.ClassifierConfig{}, nil),
		Aggregator: attach.DefaultAggregator(),
		Extractor:  event.NewExtractor(nil, time.UTC),
		Logger:     zap.NewNop(),
	})

	ctx := context.Background()
	profile, err := w.backfillProfile(ctx, model.Message{
		FromDisplayName: "Jane Q Doe 21BCE1234",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Q Doe", profile.Name)
	assert.Equal(t, "21BCE1234", profile.RegistrationNumber)

	stored, err := s.Profile(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Jane Q Doe", stored.Name)
}
