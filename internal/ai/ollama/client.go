// Package ollama talks to a local Ollama server.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Lin-Jiong-HDU/wissen/internal/ai"
)

const (
	DefaultBaseURL        = "http://localhost:11434"
	DefaultModel          = "qwen2.5:32b"
	DefaultEmbeddingModel = "bge-m3"
)

// Client implements ai.Provider, ai.Embedder and ai.Pinger
type Client struct {
	baseURL    string
	model      string
	embedModel string
	httpClient *http.Client
}

// NewClient creates a new Ollama client. Empty arguments take the defaults.
func NewClient(baseURL, model, embedModel string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if embedModel == "" {
		embedModel = DefaultEmbeddingModel
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// WithTimeout sets the timeout of non-streaming requests.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.httpClient.Timeout = d
	}
	return c
}

type chatChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

// Chat sends the conversation and returns the full answer
func (c *Client) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	resp, err := c.post(ctx, c.httpClient, "/api/chat", map[string]interface{}{
		"model":    c.model,
		"messages": messages,
		"stream":   false,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out chatChunk
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama: %s", out.Error)
	}
	return out.Message.Content, nil
}

// ChatStream streams the answer. Ollama sends one JSON object per line.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message) (<-chan string, error) {
	resp, err := c.post(ctx, &http.Client{}, "/api/chat", map[string]interface{}{
		"model":    c.model,
		"messages": messages,
		"stream":   true,
	})
	if err != nil {
		return nil, err
	}

	ch := make(chan string)

	go func() {
		defer resp.Body.Close()
		defer close(ch)

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			var chunk chatChunk
			if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
				continue
			}
			if chunk.Message.Content != "" {
				select {
				case ch <- chunk.Message.Content:
				case <-ctx.Done():
					return
				}
			}
			if chunk.Done || chunk.Error != "" {
				return
			}
		}
	}()

	return ch, nil
}

// Embed returns one L2-normalized vector per text
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.post(ctx, c.httpClient, "/api/embed", map[string]interface{}{
		"model": c.embedModel,
		"input": texts,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embeddings: %w", err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(out.Embeddings))
	}

	for i := range out.Embeddings {
		ai.Normalize(out.Embeddings[i])
	}
	return out.Embeddings, nil
}

// Ping checks that the server is up and the chat model is pulled
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama not reachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama error (status %d)", resp.StatusCode)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("failed to decode model list: %w", err)
	}
	for _, m := range tags.Models {
		if m.Name == c.model || strings.TrimSuffix(m.Name, ":latest") == c.model {
			return nil
		}
	}
	return fmt.Errorf("model %s not found, run: ollama pull %s", c.model, c.model)
}

func (c *Client) post(ctx context.Context, client *http.Client, path string, body interface{}) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	return resp, nil
}
