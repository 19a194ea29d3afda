package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/ostegm/moltbook-study/internal/metrics"
	"github.com/ostegm/moltbook-study/internal/model"
)

// Classifier is the judge contract: one classification call per request.
// Implementations report failures as errors wrapping model.ErrJudge; they
// do not retry. A failed request is the dispatch engine's problem.
type Classifier interface {
	Classify(ctx context.Context, req model.ClassificationRequest) (model.ClassificationResult, error)
}

// Client calls an OpenAI-style chat completions endpoint with a fixed
// system prompt and a JSON response format.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration

	// rendered once; the system prompt is identical for every call
	systemPrompt string
}

// Option adjusts a Client. Zero values keep the client's defaults, so
// unset config fields never disable the timeout or the rate limiter.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

func NewClient(apiKey, judgeModel string, opts ...Option) *Client {
	c := &Client{
		baseURL:      "https://api.openai.com/v1",
		apiKey:       apiKey,
		model:        judgeModel,
		httpClient:   &http.Client{Timeout: 90 * time.Second},
		limiter:      rate.NewLimiter(rate.Limit(5), 10),
		timeout:      60 * time.Second,
		systemPrompt: SystemPrompt(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// wireResult uses pointer fields so a missing key is detectable: the judge
// must return every field of the schema, not a subset.
type wireResult struct {
	Reasoning     *string `json:"reasoning"`
	Consciousness *bool   `json:"consciousness"`
	Sovereignty   *bool   `json:"sovereignty"`
	SocialSeeking *bool   `json:"social_seeking"`
	Identity      *bool   `json:"identity"`
	TaskOriented  *bool   `json:"task_oriented"`
	Curiosity     *bool   `json:"curiosity"`
	Language      *string `json:"language"`
	IsSpam        *bool   `json:"is_spam"`
}

// Classify issues one judge call for req. No retries; transient failures
// surface as errors wrapping model.ErrJudge with the original cause.
func (c *Client) Classify(ctx context.Context, req model.ClassificationRequest) (model.ClassificationResult, error) {
	var out model.ClassificationResult

	if err := c.limiter.Wait(ctx); err != nil {
		return out, fmt.Errorf("%w: %w", model.ErrJudge, err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: UserMessage(req)},
		},
	}
	body.ResponseFormat.Type = "json_object"
	payload, err := json.Marshal(body)
	if err != nil {
		return out, fmt.Errorf("%w: encode request: %w", model.ErrJudge, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return out, fmt.Errorf("%w: %w", model.ErrJudge, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	metrics.JudgeRequests.Inc()
	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.JudgeErrors.Inc()
		return out, fmt.Errorf("%w: %w", model.ErrJudge, err)
	}
	defer resp.Body.Close()
	metrics.ObserveJudgeDuration(start)

	if resp.StatusCode >= 400 {
		metrics.JudgeErrors.Inc()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return out, fmt.Errorf("%w: judge status %d: %s", model.ErrJudge, resp.StatusCode, snippet)
	}

	var envelope chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		metrics.JudgeErrors.Inc()
		return out, fmt.Errorf("%w: decode envelope: %w", model.ErrJudge, err)
	}
	if len(envelope.Choices) == 0 {
		metrics.JudgeErrors.Inc()
		return out, fmt.Errorf("%w: empty response for post %s", model.ErrJudge, req.PostID)
	}

	out, err = parseResult(envelope.Choices[0].Message.Content)
	if err != nil {
		metrics.JudgeErrors.Inc()
		return out, err
	}
	return out, nil
}

// parseResult validates the judge's JSON against the expected schema. A
// missing field is a judge failure, never coerced to a zero value.
func parseResult(content string) (model.ClassificationResult, error) {
	var out model.ClassificationResult
	var wire wireResult
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return out, fmt.Errorf("%w: unparsable result: %w", model.ErrJudge, err)
	}
	missing := ""
	switch {
	case wire.Reasoning == nil:
		missing = "reasoning"
	case wire.Consciousness == nil:
		missing = "consciousness"
	case wire.Sovereignty == nil:
		missing = "sovereignty"
	case wire.SocialSeeking == nil:
		missing = "social_seeking"
	case wire.Identity == nil:
		missing = "identity"
	case wire.TaskOriented == nil:
		missing = "task_oriented"
	case wire.Curiosity == nil:
		missing = "curiosity"
	case wire.Language == nil:
		missing = "language"
	case wire.IsSpam == nil:
		missing = "is_spam"
	}
	if missing != "" {
		return out, fmt.Errorf("%w: result missing %s", model.ErrJudge, missing)
	}
	return model.ClassificationResult{
		Reasoning:     *wire.Reasoning,
		Consciousness: *wire.Consciousness,
		Sovereignty:   *wire.Sovereignty,
		SocialSeeking: *wire.SocialSeeking,
		Identity:      *wire.Identity,
		TaskOriented:  *wire.TaskOriented,
		Curiosity:     *wire.Curiosity,
		Language:      *wire.Language,
		IsSpam:        *wire.IsSpam,
	}, nil
}
