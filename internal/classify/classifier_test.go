package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shortlist-app/shortlist/internal/ai"
	"github.com/shortlist-app/shortlist/internal/model"
)

// fakeInference returns a canned result for every call.
type fakeInference struct {
	result ai.Result[bool]
	calls  int
}

func (f *fakeInference) ClassifyPlacement(_ context.Context, _, _ string) ai.Result[bool] {
	f.calls++
	return f.result
}

func testConfig() model.ClassifierConfig {
	return model.ClassifierConfig{
		Keywords:        []string{"shortlist", "online test", "interview", "assessment"},
		SenderWhitelist: []string{"placements@univ.edu", "univcdc.ac.in"},
	}
}

func TestWhitelistShortCircuit(t *testing.T) {
	inf := &fakeInference{result: ai.Available(false)}
	c := New(testConfig(), inf)

	// Whitelisted sender with a body containing no placement keywords
	// must still classify as placement-related, without consulting the
	// inference path at all.
	ok, reason := c.Classify(context.Background(), model.Message{
		FromEmail: "Placements@univ.edu",
		Subject:   "lunch plans",
		BodyText:  "nothing relevant here",
	})
	assert.True(t, ok)
	assert.Contains(t, reason, "whitelisted")
	assert.Zero(t, inf.calls)
}

func TestWhitelistByDomain(t *testing.T) {
	c := New(testConfig(), nil)

	ok, _ := c.Classify(context.Background(), model.Message{
		FromEmail: "someone@univcdc.ac.in",
		Subject:   "hello",
	})
	assert.True(t, ok)
}

func TestInferenceVerdictWins(t *testing.T) {
	c := New(testConfig(), &fakeInference{result: ai.Available(true)})

	ok, reason := c.Classify(context.Background(), model.Message{
		FromEmail: "noreply@example.com",
		Subject:   "no obvious signals",
	})
	assert.True(t, ok)
	assert.Equal(t, "inference: yes", reason)

	c = New(testConfig(), &fakeInference{result: ai.Available(false)})
	ok, _ = c.Classify(context.Background(), model.Message{
		FromEmail: "hr@okta.com",
		Subject:   "Okta shortlist for interview",
		BodyText:  "Okta has shortlisted candidates",
	})
	// An available inference "no" is final even when the heuristic
	// would have said yes.
	assert.False(t, ok)
}

func TestInferenceFailureFallsBackToHeuristic(t *testing.T) {
	c := New(testConfig(), &fakeInference{result: ai.Failed[bool]("timeout")})

	ok, reason := c.Classify(context.Background(), model.Message{
		FromEmail: "hr@okta.com",
		Subject:   "Okta - Online Test schedule",
		BodyText:  "Candidates shortlisted for the Okta online test",
	})
	assert.True(t, ok)
	assert.Contains(t, reason, "heuristic")
}

func TestHeuristicNeedsBothSignals(t *testing.T) {
	c := New(testConfig(), nil)

	// Keyword without any company-shaped token: not placement mail.
	ok, _ := c.Classify(context.Background(), model.Message{
		FromEmail: "list@example.com",
		BodyText:  "reminder: your interview preparation checklist awaits",
	})
	assert.False(t, ok)

	// Company token without any keyword: not placement mail either.
	ok, _ = c.Classify(context.Background(), model.Message{
		FromEmail: "list@example.com",
		BodyText:  "Greetings from Initech regarding your library dues",
	})
	assert.False(t, ok)

	// Both present.
	ok, _ = c.Classify(context.Background(), model.Message{
		FromEmail: "list@example.com",
		Subject:   "Initech - Online Test",
		BodyText:  "Initech has shortlisted you for the online test",
	})
	assert.True(t, ok)
}

func TestHeuristicStopwordsDoNotCount(t *testing.T) {
	c := New(testConfig(), nil)

	ok, _ := c.Classify(context.Background(), model.Message{
		FromEmail: "list@example.com",
		BodyText:  "Dear Students, Please note the interview schedule. Thanks",
	})
	assert.False(t, ok)
}
