// Package cohere is a minimal client for the Cohere chat and embed APIs.
package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.cohere.com/v1"

// EmbedModel is the embedding model used for both documents and queries.
// The index and query vectors must come from the same model.
const EmbedModel = "embed-english-v3.0"

// Client calls the Cohere API over plain HTTP.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// New creates a new Cohere client with the given API key and chat model name.
func New(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chatRequest struct {
	Model       string  `json:"model"`
	Message     string  `json:"message"`
	Preamble    string  `json:"preamble,omitempty"`
	Temperature float64 `json:"temperature"`
}

type chatResponse struct {
	Text string `json:"text"`
}

// Chat sends a single-turn chat request and returns the generated text.
func (c *Client) Chat(ctx context.Context, preamble, message string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Message:     message,
		Preamble:    preamble,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("cohere: marshal chat request: %w", err)
	}

	respBody, err := c.post(ctx, c.baseURL+"/chat", body)
	if err != nil {
		return "", err
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("cohere: unmarshal chat response: %w", err)
	}
	return out.Text, nil
}

type embedRequest struct {
	Model     string   `json:"model"`
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed returns one embedding vector per input text.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{
		Model:     EmbedModel,
		Texts:     texts,
		InputType: "search_document",
	})
	if err != nil {
		return nil, fmt.Errorf("cohere: marshal embed request: %w", err)
	}

	respBody, err := c.post(ctx, c.baseURL+"/embed", body)
	if err != nil {
		return nil, err
	}

	var out embedResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("cohere: unmarshal embed response: %w", err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("cohere: got %d embeddings for %d texts", len(out.Embeddings), len(texts))
	}
	return out.Embeddings, nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cohere: create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq) //nolint:gosec // G704: baseURL is from trusted config, not user input
	if err != nil {
		return nil, fmt.Errorf("cohere: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cohere: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cohere: api error %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
