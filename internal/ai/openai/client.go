package openai

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

const defaultEmbeddingModel = "text-embedding-3-small"

// Client implements ai.Provider and ai.Embedder for OpenAI-compatible APIs
type Client struct {
	apiKey     string
	model      string
	embedModel string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new OpenAI client
func NewClient(apiKey, model, baseURL string) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		embedModel: defaultEmbeddingModel,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// WithEmbeddingModel sets the model used by Embed.
func (c *Client) WithEmbeddingModel(model string) *Client {
	if model != "" {
		c.embedModel = model
	}
	return c
}

// WithTimeout sets the timeout of non-streaming requests.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.httpClient.Timeout = d
	}
	return c
}

// Chat sends the conversation and returns the full answer
func (c *Client) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	resp, err := c.post(ctx, c.httpClient, "/chat/completions", map[string]interface{}{
		"model":    c.model,
		"messages": messages,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var respData struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(respData.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return respData.Choices[0].Message.Content, nil
}

// ChatStream streams the answer token by token (SSE)
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message) (<-chan string, error) {
	// No client timeout: the stream lives as long as ctx.
	resp, err := c.post(ctx, &http.Client{}, "/chat/completions", map[string]interface{}{
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
		for scanner.Scan() {
			line := scanner.Text()

			// SSE: "data: {...}"
			if !strings.HasPrefix(line, "data: ") {
				continue
			}

			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				return
			}

			var chunk struct {
				Choices []struct {
					Delta struct {
						Content string `json:"content"`
					} `json:"delta"`
				} `json:"choices"`
			}

			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}

			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}

			select {
			case ch <- chunk.Choices[0].Delta.Content:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// Embed returns one vector per text, in input order
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.post(ctx, c.httpClient, "/embeddings", map[string]interface{}{
		"model": c.embedModel,
		"input": texts,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var respData struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return nil, fmt.Errorf("failed to decode embeddings: %w", err)
	}
	if len(respData.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(respData.Data))
	}

	out := make([][]float32, len(texts))
	for _, d := range respData.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		out[d.Index] = ai.Normalize(d.Embedding)
	}
	return out, nil
}

// Ping checks that the API answers and the key is accepted
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error (status %d)", resp.StatusCode)
	}
	return nil
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
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return resp, nil
}
