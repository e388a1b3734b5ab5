package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beatflow/backend/internal/config"
	"beatflow/backend/internal/models"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestGateway(t *testing.T, rt roundTripFunc) *Gateway {
	t.Helper()
	g, err := New(Options{APIKey: "test-key", BaseURL: "http://classifier.local", Model: "test-model"})
	require.NoError(t, err)
	g.retryDelay = time.Millisecond
	g.client.SetTransport(rt)
	return g
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func completion(content string) string {
	payload, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(payload)
}

// TestClassifyHandledVerdict verifies a well-formed upstream response
// maps onto the closed vocabulary.
func TestClassifyHandledVerdict(t *testing.T) {
	calls := 0
	g := newTestGateway(t, func(*http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(200, completion(`{"verdict":"hate","confidence":0.9}`)), nil
	})

	v := g.Classify(context.Background(), "buy followers now hate you")
	assert.Equal(t, models.VerdictHate, v.Label)
	assert.Equal(t, 0.9, v.Confidence)
	assert.False(t, v.Pending())
	assert.True(t, v.Abusive())
	assert.Equal(t, 1, calls)
}

func TestClassifySafeVerdict(t *testing.T) {
	g := newTestGateway(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, completion(`{"verdict":"safe","confidence":0.95}`)), nil
	})

	v := g.Classify(context.Background(), "nice beat!")
	assert.Equal(t, models.VerdictSafe, v.Label)
	assert.False(t, v.Abusive())
}

// TestClassifyStripsMarkdownFences verifies fenced JSON from chatty
// models still parses.
func TestClassifyStripsMarkdownFences(t *testing.T) {
	g := newTestGateway(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, completion("```json\n{\"verdict\":\"sexual\",\"confidence\":0.7}\n```")), nil
	})

	v := g.Classify(context.Background(), "text")
	assert.Equal(t, models.VerdictSexual, v.Label)
}

// TestClassify429NoRetry verifies upstream backpressure is honored
// immediately without a second attempt.
func TestClassify429NoRetry(t *testing.T) {
	calls := 0
	g := newTestGateway(t, func(*http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusTooManyRequests, `{"error":"rate limited"}`), nil
	})

	v := g.Classify(context.Background(), "text")
	assert.Equal(t, models.VerdictPending, v.Label)
	assert.Equal(t, models.ReasonRateLimit429, v.Reason)
	assert.Equal(t, 1, calls)
}

// TestClassify402NoRetry verifies billing exhaustion is terminal for
// this call.
func TestClassify402NoRetry(t *testing.T) {
	calls := 0
	g := newTestGateway(t, func(*http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusPaymentRequired, `{"error":"quota"}`), nil
	})

	v := g.Classify(context.Background(), "text")
	assert.Equal(t, models.ReasonQuotaExceeded, v.Reason)
	assert.Equal(t, 1, calls)
}

// TestClassifyRetriesServerError verifies a 5xx gets one more attempt
// and the second response wins.
func TestClassifyRetriesServerError(t *testing.T) {
	calls := 0
	g := newTestGateway(t, func(*http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return jsonResponse(500, "boom"), nil
		}
		return jsonResponse(200, completion(`{"verdict":"violence","confidence":0.85}`)), nil
	})

	v := g.Classify(context.Background(), "text")
	assert.Equal(t, models.VerdictViolence, v.Label)
	assert.Equal(t, 2, calls)
}

// TestClassifyServerErrorExhaustsRetries verifies persistent 5xx ends as
// a pending api_error after the retry budget.
func TestClassifyServerErrorExhaustsRetries(t *testing.T) {
	calls := 0
	g := newTestGateway(t, func(*http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(502, "bad gateway"), nil
	})

	v := g.Classify(context.Background(), "text")
	assert.Equal(t, models.ReasonAPIError, v.Reason)
	assert.Equal(t, config.ClassifyMaxAttempts, calls)
}

// TestClassifyInvalidLabel verifies an out-of-vocabulary label is never
// trusted.
func TestClassifyInvalidLabel(t *testing.T) {
	calls := 0
	g := newTestGateway(t, func(*http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(200, completion(`{"verdict":"spam","confidence":0.9}`)), nil
	})

	v := g.Classify(context.Background(), "text")
	assert.Equal(t, models.ReasonInvalidResponse, v.Reason)
	assert.Equal(t, 1, calls, "invalid responses are not retried")
}

// TestClassifyMissingConfidence verifies a handled label without a
// numeric confidence is rejected as invalid.
func TestClassifyMissingConfidence(t *testing.T) {
	g := newTestGateway(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, completion(`{"verdict":"safe"}`)), nil
	})

	v := g.Classify(context.Background(), "text")
	assert.Equal(t, models.ReasonInvalidResponse, v.Reason)
}

// TestClassifyParseError verifies non-JSON content resolves to a pending
// parse_error without retry.
func TestClassifyParseError(t *testing.T) {
	calls := 0
	g := newTestGateway(t, func(*http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(200, completion("definitely not json")), nil
	})

	v := g.Classify(context.Background(), "text")
	assert.Equal(t, models.ReasonParseError, v.Reason)
	assert.Equal(t, 1, calls)
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// TestClassifyTimeout verifies transport timeouts retry once and then
// resolve to pending/timeout.
func TestClassifyTimeout(t *testing.T) {
	calls := 0
	g := newTestGateway(t, func(*http.Request) (*http.Response, error) {
		calls++
		return nil, timeoutError{}
	})

	v := g.Classify(context.Background(), "text")
	assert.Equal(t, models.ReasonTimeout, v.Reason)
	assert.Equal(t, config.ClassifyMaxAttempts, calls)
}

// TestClassifyTransportError verifies generic transport failures end as
// api_error.
func TestClassifyTransportError(t *testing.T) {
	g := newTestGateway(t, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	v := g.Classify(context.Background(), "text")
	assert.Equal(t, models.ReasonAPIError, v.Reason)
}

// TestClassifyTruncatesLongText verifies the subject text is capped at
// the classification ceiling before the call.
func TestClassifyTruncatesLongText(t *testing.T) {
	var sentText string
	g := newTestGateway(t, func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		var payload struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		require.Len(t, payload.Messages, 2)
		sentText = payload.Messages[1].Content
		return jsonResponse(200, completion(`{"verdict":"safe","confidence":1}`)), nil
	})

	long := strings.Repeat("a", config.ClassifyMaxChars+500)
	g.Classify(context.Background(), long)
	assert.Len(t, sentText, config.ClassifyMaxChars)
}

func TestTruncateKeepsShortText(t *testing.T) {
	assert.Equal(t, "short", truncate("short", config.ClassifyMaxChars))
	assert.Equal(t, fmt.Sprintf("%c%c", 'й', 'ц'), truncate("йцу", 2), "truncation counts runes, not bytes")
}
