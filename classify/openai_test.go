package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastemap/capture"
)

func testImage() *capture.EncodedImage {
	return &capture.EncodedImage{
		Data:     []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10},
		MimeType: "image/jpeg",
	}
}

func chatCompletion(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func newMockedOpenAI(t *testing.T) *OpenAIClient {
	t.Helper()
	c := NewOpenAIClient("test-key", "gpt-4o-mini")
	httpmock.ActivateNonDefault(c.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestOpenAIClassifySuccess(t *testing.T) {
	c := newMockedOpenAI(t)

	httpmock.RegisterResponder(http.MethodPost, openAIEndpoint,
		func(req *http.Request) (*http.Response, error) {
			var body chatRequest
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			require.Len(t, body.Messages, 1)
			assert.Equal(t, "Bearer test-key", req.Header.Get("Authorization"))

			return httpmock.NewJsonResponse(200, chatCompletion(
				`{"severity": "LOW", "confidence": 0.7, "waste_types": ["plastic"], "reason": "Scattered bottles."}`))
		})

	got, err := c.Classify(context.Background(), testImage())
	require.NoError(t, err)
	assert.Equal(t, SeverityLow, got.Severity)
	assert.InDelta(t, 0.7, got.Confidence, 1e-9)
	assert.Equal(t, []string{"plastic"}, got.WasteTypes)
}

func TestOpenAIClassifyServiceFault(t *testing.T) {
	c := newMockedOpenAI(t)

	httpmock.RegisterResponder(http.MethodPost, openAIEndpoint,
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "overloaded"))

	_, err := c.Classify(context.Background(), testImage())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAIClassifyMalformedPayload(t *testing.T) {
	c := newMockedOpenAI(t)

	responses := []map[string]any{
		{"choices": []any{}},
		chatCompletion("sorry, no JSON today"),
	}
	for _, payload := range responses {
		httpmock.RegisterResponder(http.MethodPost, openAIEndpoint,
			func(req *http.Request) (*http.Response, error) {
				return httpmock.NewJsonResponse(200, payload)
			})
		_, err := c.Classify(context.Background(), testImage())
		assert.ErrorIs(t, err, ErrMalformed)
	}
}

func TestOpenAIClassifyNormalizesOutOfSetValues(t *testing.T) {
	c := newMockedOpenAI(t)

	httpmock.RegisterResponder(http.MethodPost, openAIEndpoint,
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(200, chatCompletion(
				`{"severity": "EXTREME", "confidence": 1.4, "waste_types": [], "reason": "r"}`))
		})

	got, err := c.Classify(context.Background(), testImage())
	require.NoError(t, err)
	assert.Equal(t, SeverityMedium, got.Severity)
	assert.Equal(t, 1.0, got.Confidence)
	assert.Equal(t, []string{"mixed"}, got.WasteTypes)
	assert.Equal(t, "r", got.Reason)
}
