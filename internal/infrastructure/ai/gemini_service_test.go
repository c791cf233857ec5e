package ai_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/ai"
)

func TestGeminiChat_EnviaHistorialYLeeUso(t *testing.T) {
	var gotPath string
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{
			"candidates":[{"content":{"parts":[{"text":"Olá, "},{"text":"tudo certo."}]}}],
			"usageMetadata":{"promptTokenCount":120,"candidatesTokenCount":30}
		}`))
	}))
	defer srv.Close()

	svc := ai.NewGeminiService("chave", "gemini-1.5-flash-latest").WithBaseURL(srv.URL)
	res, err := svc.Chat(context.Background(), ports.LLMRequest{
		Model:   "models/gemini-2.5-pro",
		System:  "Você é o assistente.",
		History: []ports.LLMMessage{{Role: "user", Text: "oi"}, {Role: "model", Text: "olá"}},
		Prompt:  "resuma",
		Images:  []ports.LLMImage{{MIMEType: "image/png", Data: []byte{1, 2}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "/models/gemini-2.5-pro:generateContent", gotPath)
	assert.Equal(t, "Olá, tudo certo.", res.Text)
	assert.Equal(t, 120, res.InputTokens)
	assert.Equal(t, 30, res.OutputTokens)
	contents := got["contents"].([]any)
	require.Len(t, contents, 3)
	last := contents[2].(map[string]any)["parts"].([]any)
	assert.Len(t, last, 2)
}

func TestGeminiChat_ErroDaAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota"}}`))
	}))
	defer srv.Close()

	_, err := ai.NewGeminiService("chave", "m").WithBaseURL(srv.URL).Chat(context.Background(), ports.LLMRequest{Prompt: "x"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "quota"))
}

func TestGeminiChat_SemChave(t *testing.T) {
	_, err := ai.NewGeminiService("", "m").Chat(context.Background(), ports.LLMRequest{Prompt: "x"})
	assert.Error(t, err)
}

func TestAnthropicChat_AlternaPapeis(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string           `json:"role"`
			Content []map[string]any `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "chave", r.Header.Get("x-api-key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"model":"claude-x","content":[{"type":"text","text":"ok"}],"usage":{"input_tokens":7,"output_tokens":2}}`))
	}))
	defer srv.Close()

	svc := ai.NewAnthropicService("chave", "claude-3-5-haiku").WithURL(srv.URL)
	res, err := svc.Chat(context.Background(), ports.LLMRequest{
		Model:   "gemini-1.5-flash-latest",
		History: []ports.LLMMessage{{Role: "user", Text: "a"}, {Role: "user", Text: "b"}},
		Prompt:  "c",
	})
	require.NoError(t, err)

	assert.Equal(t, "claude-3-5-haiku", got.Model)
	// dos turnos user seguidos + el prompt quedan en un solo mensaje
	require.Len(t, got.Messages, 1)
	assert.Len(t, got.Messages[0].Content, 3)
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, "claude-x", res.Model)
	assert.Equal(t, 7, res.InputTokens)
}
