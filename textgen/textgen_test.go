package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIGenerate(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"Buy now!"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := New(Config{Provider: "openai", OpenAIKey: "sk-test", BaseURL: srv.URL + "/v1", Temperature: 0.5}, nil)
	resp := c.Generate(context.Background(), "Write a headline", Options{System: "You write ads."})

	require.True(t, resp.OK(), resp.Error)
	assert.Equal(t, "Buy now!", resp.Text)
	assert.Equal(t, ProviderOpenAI, resp.Provider)

	assert.Equal(t, openai.GPT4oMini, got.Model)
	assert.InDelta(t, 0.5, got.Temperature, 0.001)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "Write a headline", got.Messages[1].Content)
}

func TestOpenAIErrorFailsClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	c := New(Config{OpenAIKey: "sk-test", BaseURL: srv.URL + "/v1"}, nil)
	resp := c.Generate(context.Background(), "hi", Options{})

	assert.False(t, resp.OK())
	assert.Empty(t, resp.Text)
	assert.Contains(t, resp.Error, "model overloaded")
}

func TestMisconfigurationFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"missing openai key", Config{Provider: "openai"}, "OPENAI_API_KEY"},
		{"missing gemini key", Config{Provider: "gemini"}, "GOOGLE_API_KEY"},
		{"unknown provider", Config{Provider: "llama"}, "unknown provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := New(tt.cfg, nil).Generate(context.Background(), "hi", Options{})
			assert.False(t, resp.OK())
			assert.Contains(t, resp.Error, tt.want)
		})
	}
}

type fakeProvider struct {
	text  string
	err   error
	panic bool
	opts  Options
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	f.opts = opts
	if f.panic {
		panic("nil map")
	}
	return f.text, f.err
}

func TestGenerateGuards(t *testing.T) {
	t.Run("empty prompt", func(t *testing.T) {
		resp := NewWithProvider(&fakeProvider{text: "x"}, Options{}, nil).Generate(context.Background(), "  ", Options{})
		assert.Equal(t, "empty prompt", resp.Error)
	})

	t.Run("panic", func(t *testing.T) {
		resp := NewWithProvider(&fakeProvider{panic: true}, Options{}, nil).Generate(context.Background(), "hi", Options{})
		assert.Contains(t, resp.Error, "panicked")
		assert.Equal(t, "fake", resp.Provider)
	})

	t.Run("provider error", func(t *testing.T) {
		resp := NewWithProvider(&fakeProvider{err: errors.New("quota")}, Options{}, nil).Generate(context.Background(), "hi", Options{})
		assert.Equal(t, "quota", resp.Error)
	})

	t.Run("blank text", func(t *testing.T) {
		resp := NewWithProvider(&fakeProvider{text: "\n"}, Options{}, nil).Generate(context.Background(), "hi", Options{})
		assert.False(t, resp.OK())
	})
}

func TestGenerateMergesDefaults(t *testing.T) {
	p := &fakeProvider{text: "ok"}
	c := NewWithProvider(p, Options{Model: "m-default", Temperature: 0.2, System: "sys"}, nil)

	resp := c.Generate(context.Background(), "hi", Options{Model: "m-override"})
	require.True(t, resp.OK())
	assert.Equal(t, Options{Model: "m-override", Temperature: 0.2, System: "sys"}, p.opts)
}
