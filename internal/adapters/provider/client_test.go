package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/translation-queue/internal/core"
)

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Options{Model: "m"})
	require.Error(t, err)

	_, err = NewClient(Options{BaseURL: "http://x"})
	require.Error(t, err)

	c, err := NewClient(Options{BaseURL: "http://x/v1/", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "http://x/v1/chat/completions", c.endpoint)

	c, err = NewClient(Options{BaseURL: "http://x/v1/chat/completions", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "http://x/v1/chat/completions", c.endpoint)
}

func TestClient_Translate(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Bonjour"}}]}`))
	}))
	defer srv.Close()

	prompts := DefaultPrompts()
	prompts.Languages = map[string]string{"fr": "French", "en": "English"}
	c, err := NewClient(Options{BaseURL: srv.URL + "/v1", APIKey: "secret", Model: "gpt-test", Prompts: prompts})
	require.NoError(t, err)

	out, err := c.Translate(context.Background(), core.TranslateRequest{
		Text: "Hello", SourceLang: "en", TargetLang: "fr", Domain: "seo",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", out)

	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "from English to French")
	assert.Contains(t, got.Messages[0].Content, "search engine metadata")
	assert.Equal(t, "Hello", got.Messages[1].Content)
}

func TestClient_TranslateEmptyTextSkipsCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("provider must not be called for empty text")
	}))
	defer srv.Close()

	c, err := NewClient(Options{BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	out, err := c.Translate(context.Background(), core.TranslateRequest{TargetLang: "fr"})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestClient_TranslateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "non-2xx status",
			status: http.StatusTooManyRequests,
			body:   "slow down",
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
				assert.Equal(t, "slow down", se.Body)
			},
		},
		{
			name:   "no choices",
			status: http.StatusOK,
			body:   `{"choices":[]}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyResponse)
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{"choices":`,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "decode provider response")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewClient(Options{BaseURL: srv.URL, Model: "m"})
			require.NoError(t, err)

			_, err = c.Translate(context.Background(), core.TranslateRequest{Text: "x", TargetLang: "fr"})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestLoadPrompts(t *testing.T) {
	p, err := LoadPrompts("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSystemPrompt, p.System)

	p, err = LoadPrompts(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSystemPrompt, p.System)

	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
system: "Translate {{source_lang}} into {{target_lang}}."
domains:
  SEO: "Short and keyword first."
languages:
  DE: German
`), 0o600))

	p, err = LoadPrompts(path)
	require.NoError(t, err)
	assert.Equal(t, "Translate en into German.\n\nShort and keyword first.", p.Render("en", "de", "seo"))
	assert.Contains(t, p.Domains, "marketing", "defaults are kept for domains the file omits")
	assert.False(t, strings.Contains(p.Render("en", "de", "general"), "\n\n"))

	require.NoError(t, os.WriteFile(path, []byte("system: [unterminated"), 0o600))
	_, err = LoadPrompts(path)
	require.Error(t, err)
}

func TestClient_TranslateWithOAuth(t *testing.T) {
	var tokenCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"issued","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer issued", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hallo"}}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewClient(Options{
		BaseURL: srv.URL + "/v1",
		APIKey:  "ignored",
		Model:   "m",
		OAuth:   &OAuthOptions{TokenURL: srv.URL + "/token", ClientID: "id", ClientSecret: "secret"},
	})
	require.NoError(t, err)

	for range 2 {
		out, err := c.Translate(context.Background(), core.TranslateRequest{Text: "Hello", SourceLang: "en", TargetLang: "de"})
		require.NoError(t, err)
		assert.Equal(t, "Hallo", out)
	}
	assert.Equal(t, int32(1), tokenCalls.Load(), "token is cached between calls")
}

func TestNewClient_OAuthRequiresSecret(t *testing.T) {
	_, err := NewClient(Options{
		BaseURL: "http://x",
		Model:   "m",
		OAuth:   &OAuthOptions{TokenURL: "http://x/token", ClientID: "id"},
	})
	require.Error(t, err)
	assert.False(t, (*OAuthOptions)(nil).Enabled())
}
