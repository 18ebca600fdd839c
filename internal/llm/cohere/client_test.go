package cohere

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(url string) *Client {
	c := New("test-key", "command-r-plus")
	c.baseURL = url
	return c
}

func TestChat_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %q, want /chat", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization = %q, want api key bearer", auth)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "command-r-plus" {
			t.Errorf("model = %q, want command-r-plus", req.Model)
		}
		if req.Preamble != "you are a triage assistant" {
			t.Errorf("preamble = %q, want the given preamble", req.Preamble)
		}
		if req.Message != "classify this" {
			t.Errorf("message = %q, want the given message", req.Message)
		}
		if req.Temperature != 0.2 {
			t.Errorf("temperature = %v, want 0.2", req.Temperature)
		}

		_ = json.NewEncoder(w).Encode(chatResponse{Text: `{"severity":"high"}`})
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Chat(context.Background(), "you are a triage assistant", "classify this")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != `{"severity":"high"}` {
		t.Errorf("text = %q, want response text", got)
	}
}

func TestChat_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"rate limited"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Chat(context.Background(), "", "x")
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error = %v, want status code included", err)
	}
}

func TestEmbed_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("path = %q, want /embed", r.URL.Path)
		}

		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != EmbedModel {
			t.Errorf("model = %q, want %q", req.Model, EmbedModel)
		}
		if req.InputType != "search_document" {
			t.Errorf("input_type = %q, want search_document", req.InputType)
		}

		out := embedResponse{Embeddings: make([][]float32, len(req.Texts))}
		for i := range out.Embeddings {
			out.Embeddings[i] = []float32{float32(i), 1}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	vecs, err := newTestClient(srv.URL).Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("embeddings = %d, want 3", len(vecs))
	}
	if vecs[2][0] != 2 {
		t.Errorf("vecs[2][0] = %v, want per-text vectors in order", vecs[2][0])
	}
}

func TestEmbed_CountMismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1}}})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Embed(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error when embedding count does not match text count")
	}
	if !strings.Contains(err.Error(), "1 embeddings for 2 texts") {
		t.Errorf("error = %v, want count mismatch detail", err)
	}
}

func TestChat_MalformedResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Chat(context.Background(), "", "x")
	if err == nil {
		t.Fatal("expected error for malformed response body")
	}
}
