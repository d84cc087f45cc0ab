package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shortlist-app/shortlist/internal/model"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 256
	defaultTimeout   = 20 * time.Second
	apiURL           = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"

	// bodyPreviewLimit caps how much body text is sent to the model.
	bodyPreviewLimit = 4000
)

const classifySystemPrompt = `You are a strict email classifier for campus placements.
Decide if this email is about a placement, shortlisting, assessment, or hiring drive.
Look for clear company names and placement-process words.
If there is no clear company name or placement context, answer NO.
Reply with a single token: YES or NO.`

const datetimeSystemPrompt = `You extract the scheduled start time of a placement event from an email.
Prefer the subject line over the body; bodies often contain footer and signature noise.
Handle informal formats like "7th July 2025 by 9.00 am".
Assume times are local to the %s timezone.
Reply with exactly one line: the start time as YYYY-MM-DDTHH:MM, or NONE if no usable time exists.`

// Client talks to the Anthropic Messages API. A Client with no API key
// is valid: every call then reports StatusUnavailable so the pipeline
// takes its documented fallback paths.
type Client struct {
	apiKey     string
	model      string
	maxTokens  int
	baseURL    string
	httpClient *http.Client
}

// New creates an inference client from the application config.
func New(cfg model.AIConfig) *Client {
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := defaultTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	return &Client{
		apiKey:    cfg.APIKey,
		model:     modelName,
		maxTokens: maxTokens,
		baseURL:   apiURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// ClassifyPlacement asks the model whether the message is
// placement-related. The caller falls back to the heuristic classifier
// on anything other than StatusAvailable.
func (c *Client) ClassifyPlacement(ctx context.Context, subject, body string) Result[bool] {
	if !c.Configured() {
		return Unavailable[bool]()
	}

	reply, err := c.complete(ctx, classifySystemPrompt, userMessage(subject, body))
	if err != nil {
		return Failed[bool](err.Error())
	}

	verdict := strings.ToUpper(strings.TrimSpace(reply))
	if strings.Contains(verdict, "YES") && !strings.Contains(verdict, "NO") {
		return Available(true)
	}
	return Available(false)
}

// ExtractDateTime asks the model for the event start time in the given
// fixed zone. A reply of NONE (or an unparseable reply) is reported as
// a failure with reason "no time found".
func (c *Client) ExtractDateTime(ctx context.Context, subject, body string, loc *time.Location) Result[time.Time] {
	if !c.Configured() {
		return Unavailable[time.Time]()
	}

	system := fmt.Sprintf(datetimeSystemPrompt, loc.String())
	reply, err := c.complete(ctx, system, userMessage(subject, body))
	if err != nil {
		return Failed[time.Time](err.Error())
	}

	line := strings.TrimSpace(reply)
	if line == "" || strings.EqualFold(line, "NONE") {
		return Failed[time.Time]("no time found")
	}

	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05", time.RFC3339} {
		if ts, perr := time.ParseInLocation(layout, line, loc); perr == nil {
			return Available(ts.In(loc))
		}
	}
	return Failed[time.Time]("no time found")
}

// apiRequest is the Anthropic Messages API request payload.
type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	System      string       `json:"system,omitempty"`
	Messages    []apiMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// apiResponse is the subset of the response the client consumes.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// userMessage builds the single user turn from subject and body,
// truncating oversized bodies.
func userMessage(subject, body string) string {
	if len(body) > bodyPreviewLimit {
		body = body[:bodyPreviewLimit]
	}
	return fmt.Sprintf("Subject: %s\n\nBody:\n%s", subject, body)
}

// complete performs one non-streaming completion and returns the
// concatenated text content.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	payload := apiRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages: []apiMessage{
			{Role: "user", Content: user},
		},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling inference API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading inference response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inference API returned status %d", resp.StatusCode)
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parsing inference response: %w", err)
	}

	var parts []string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, ""), nil
}
