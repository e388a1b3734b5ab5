// Package classifier wraps the external text-classification API behind a
// closed verdict vocabulary. Classify never returns an error: transport
// failures, backpressure and malformed responses all resolve to a pending
// verdict with a reason, so the pipeline composes it without exception
// paths.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"beatflow/backend/internal/config"
	"beatflow/backend/internal/models"
)

const systemPrompt = `You are a content moderation classifier for a music platform. Analyze the user text and return strict JSON only, in the exact shape {"verdict": "<label>", "confidence": <number between 0 and 1>}.
The label must be one of: safe, hate, harassment, sexual, violence.
Classify based on the meaning and intent of the text. Return nothing except the JSON object.`

// Options configure the gateway.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Gateway calls an OpenAI-style chat-completions endpoint to classify
// text blobs.
type Gateway struct {
	client     *resty.Client
	model      string
	endpoint   string
	retryDelay time.Duration
}

// New creates a gateway instance.
func New(opt Options) (*Gateway, error) {
	if strings.TrimSpace(opt.APIKey) == "" {
		return nil, errors.New("classifier: API key is required")
	}
	if strings.TrimSpace(opt.BaseURL) == "" {
		opt.BaseURL = "https://openrouter.ai/api/v1"
	}
	if strings.TrimSpace(opt.Model) == "" {
		opt.Model = "openai/gpt-4o-mini"
	}
	if opt.Timeout <= 0 {
		opt.Timeout = config.ClassifyTimeout
	}
	base := strings.TrimRight(opt.BaseURL, "/")
	return &Gateway{
		model:      opt.Model,
		endpoint:   base + "/chat/completions",
		retryDelay: config.ClassifyRetryDelay,
		client: resty.New().
			SetTimeout(opt.Timeout).
			SetAuthToken(opt.APIKey).
			SetHeader("Content-Type", "application/json"),
	}, nil
}

// Classify evaluates one text blob and always produces a verdict.
// The text is truncated to the classification ceiling before the call.
// HTTP 429 and 402 are honored immediately without retry; 5xx and
// transport timeouts get one more attempt with a linear backoff.
func (g *Gateway) Classify(ctx context.Context, text string) models.Verdict {
	payload, err := g.buildPayload(truncate(text, config.ClassifyMaxChars))
	if err != nil {
		log.Printf("ERROR: classifier: payload marshal failed: %v", err)
		return models.PendingVerdict(models.ReasonAPIError)
	}

	last := models.PendingVerdict(models.ReasonAPIError)
	for attempt := 1; attempt <= config.ClassifyMaxAttempts; attempt++ {
		resp, err := g.client.R().
			SetContext(ctx).
			SetBody(payload).
			Post(g.endpoint)
		if err != nil {
			if isTimeout(err) {
				last = models.PendingVerdict(models.ReasonTimeout)
			} else {
				last = models.PendingVerdict(models.ReasonAPIError)
			}
			log.Printf("WARNING: classifier: attempt %d/%d failed: %v", attempt, config.ClassifyMaxAttempts, err)
			g.backoff(ctx, attempt)
			continue
		}

		switch code := resp.StatusCode(); {
		case code == http.StatusTooManyRequests:
			// Upstream backpressure, do not retry against it.
			return models.PendingVerdict(models.ReasonRateLimit429)
		case code == http.StatusPaymentRequired:
			return models.PendingVerdict(models.ReasonQuotaExceeded)
		case code >= http.StatusMultipleChoices:
			last = models.PendingVerdict(models.ReasonAPIError)
			log.Printf("WARNING: classifier: attempt %d/%d got status %d: %s", attempt, config.ClassifyMaxAttempts, code, resp.String())
			g.backoff(ctx, attempt)
			continue
		}

		return parseVerdict(resp.Body())
	}
	return last
}

func (g *Gateway) backoff(ctx context.Context, attempt int) {
	if attempt >= config.ClassifyMaxAttempts {
		return
	}
	select {
	case <-time.After(time.Duration(attempt) * g.retryDelay):
	case <-ctx.Done():
	}
}

func (g *Gateway) buildPayload(text string) ([]byte, error) {
	type requestMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type responseFormat struct {
		Type string `json:"type"`
	}
	type requestPayload struct {
		Model          string           `json:"model"`
		Messages       []requestMessage `json:"messages"`
		Temperature    float64          `json:"temperature"`
		ResponseFormat responseFormat   `json:"response_format"`
	}
	return json.Marshal(requestPayload{
		Model: g.model,
		Messages: []requestMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		Temperature:    0,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type verdictPayload struct {
	Verdict    string   `json:"verdict"`
	Confidence *float64 `json:"confidence"`
}

// parseVerdict validates the response shape and the upstream label.
// An untyped or out-of-vocabulary label is never trusted.
func parseVerdict(body []byte) models.Verdict {
	var resp chatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Printf("WARNING: classifier: response unmarshal failed: %v", err)
		return models.PendingVerdict(models.ReasonParseError)
	}
	if len(resp.Choices) == 0 {
		return models.PendingVerdict(models.ReasonInvalidResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if content == "" {
		return models.PendingVerdict(models.ReasonParseError)
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		log.Printf("WARNING: classifier: verdict payload parse failed: %v", err)
		return models.PendingVerdict(models.ReasonParseError)
	}
	if !models.ValidVerdictLabel(payload.Verdict) || payload.Confidence == nil {
		log.Printf("WARNING: classifier: invalid verdict payload: %q", content)
		return models.PendingVerdict(models.ReasonInvalidResponse)
	}

	return models.Verdict{
		Label:      models.VerdictLabel(payload.Verdict),
		Confidence: *payload.Confidence,
	}
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(fmt.Sprint(err), "Client.Timeout")
}
