package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"

	"siteaudit/internal/domain"
	"siteaudit/internal/ports"
)

func TestParseSuggestions(t *testing.T) {
	got := ParseSuggestions("1. Improve title\n2. Add alt tags\n\n3. Compress images")
	require.Equal(t, []string{"Improve title", "Add alt tags", "Compress images"}, got)
}

func TestParseSuggestions_Markers(t *testing.T) {
	in := strings.Join([]string{
		"  - Add a meta description  ",
		"• Use a canonical link",
		"* Lazy-load images",
		"4) Reduce blocking scripts\r",
		"1.5s faster LCP is possible with preloading",
		"-",
	}, "\n")
	require.Equal(t, []string{
		"Add a meta description",
		"Use a canonical link",
		"Lazy-load images",
		"Reduce blocking scripts",
		"1.5s faster LCP is possible with preloading",
	}, ParseSuggestions(in))
}

func TestParseSuggestions_CapsAtFive(t *testing.T) {
	got := ParseSuggestions("a\nb\nc\nd\ne\nf\ng")
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
}

func TestParseSuggestions_EmptyIsNotNil(t *testing.T) {
	got := ParseSuggestions("\n  \n")
	require.NotNil(t, got)
	require.Empty(t, got)
}

func completionServer(t *testing.T, status int, content string, gotPrompt *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.Unmarshal(body, &req)
		if gotPrompt != nil && len(req.Messages) > 0 {
			*gotPrompt = req.Messages[0].Content
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error": {"message": "nope", "type": "invalid_request_error"}}`))
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSuggest(t *testing.T) {
	var prompt string
	srv := completionServer(t, http.StatusOK, "1. Shorten the title\n2. Add an h1", &prompt)
	g := New(Options{APIKey: "k", BaseURL: srv.URL + "/"})

	got, err := g.Suggest(context.Background(), domain.AuditSnapshot{URL: "https://example.com/"})
	require.NoError(t, err)
	require.Equal(t, []string{"Shorten the title", "Add an h1"}, got)
	require.Contains(t, prompt, "Generate 5 SEO suggestions")
	require.Contains(t, prompt, "https://example.com/")
}

func TestSuggest_ErrorsAreReturned(t *testing.T) {
	srv := completionServer(t, http.StatusUnauthorized, "", nil)
	g := New(Options{APIKey: "bad", BaseURL: srv.URL + "/"})

	got, err := g.Suggest(context.Background(), domain.AuditSnapshot{URL: "https://example.com/"})
	require.Error(t, err)
	require.Nil(t, got)
}

func TestSuggest_DisabledWithoutKey(t *testing.T) {
	_, err := New(Options{}).Suggest(context.Background(), domain.AuditSnapshot{})
	require.True(t, errors.Is(err, ports.ErrSuggestionsDisabled))
}
