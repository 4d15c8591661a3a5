package llm

import (
	"HealthMate/backend/go/internal/models"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Authorization string
	Path          string
	Body          struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
}

func newCompletionServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			captured.Authorization = r.Header.Get("Authorization")
			captured.Path = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured.Body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func chatRequest(temp float32) *models.GenerateContentRequest {
	return &models.GenerateContentRequest{
		Content: []models.Content{
			models.NewTextContent(models.SpeakerSystem, "you are a doctor"),
			models.NewTextContent(models.SpeakerUser, "I have a headache"),
		},
		Temperature: &temp,
	}
}

func TestOpenAI_GenerateContent(t *testing.T) {
	var captured capturedRequest
	srv := newCompletionServer(t, http.StatusOK, `{
		"id": "cmpl-1",
		"object": "chat.completion",
		"model": "deepseek-chat",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Drink water."}, "finish_reason": "stop"}]
	}`, &captured)
	defer srv.Close()

	client, err := NewOpenAI("deepseek-chat", "secret-key", srv.URL, nil)
	require.NoError(t, err)

	resp, err := client.GenerateContent(context.Background(), chatRequest(0.7))
	require.NoError(t, err)

	assert.Equal(t, "Drink water.", resp.Text())
	assert.Equal(t, "cmpl-1", resp.ResponseID)
	assert.Equal(t, "Bearer secret-key", captured.Authorization)
	assert.Equal(t, "/chat/completions", captured.Path)
	assert.Equal(t, "deepseek-chat", captured.Body.Model)
	assert.InDelta(t, 0.7, captured.Body.Temperature, 1e-6)
	require.Len(t, captured.Body.Messages, 2)
	assert.Equal(t, "system", captured.Body.Messages[0].Role)
	assert.Equal(t, "user", captured.Body.Messages[1].Role)
	assert.Equal(t, "I have a headache", captured.Body.Messages[1].Content)
}

func TestOpenAI_Non2xxIsUpstreamError(t *testing.T) {
	srv := newCompletionServer(t, http.StatusTooManyRequests,
		`{"error": {"message": "rate limited", "type": "rate_limit"}}`, nil)
	defer srv.Close()

	client, err := NewOpenAI("deepseek-chat", "k", srv.URL, nil)
	require.NoError(t, err)

	_, err = client.GenerateContent(context.Background(), chatRequest(0.7))
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "openai", upstream.Provider)
}

func TestOpenAI_NoChoicesIsUpstreamError(t *testing.T) {
	srv := newCompletionServer(t, http.StatusOK, `{"id": "x", "choices": []}`, nil)
	defer srv.Close()

	client, err := NewOpenAI("deepseek-chat", "k", srv.URL, nil)
	require.NoError(t, err)

	_, err = client.GenerateContent(context.Background(), chatRequest(0.7))
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
}

func TestOpenAI_MalformedBodyIsUpstreamError(t *testing.T) {
	srv := newCompletionServer(t, http.StatusOK, `not json`, nil)
	defer srv.Close()

	client, err := NewOpenAI("deepseek-chat", "k", srv.URL, nil)
	require.NoError(t, err)

	_, err = client.GenerateContent(context.Background(), chatRequest(0.7))
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
}

func TestNewLLM_UnknownProvider(t *testing.T) {
	_, err := NewLLM(context.Background(), configFor("mystery"), nil)
	require.Error(t, err)
}

func TestParseTimeout(t *testing.T) {
	d, err := ParseTimeout("")
	require.NoError(t, err)
	assert.Zero(t, d)

	d, err = ParseTimeout("45s")
	require.NoError(t, err)
	assert.Equal(t, "45s", d.String())

	_, err = ParseTimeout("later")
	require.Error(t, err)
}
