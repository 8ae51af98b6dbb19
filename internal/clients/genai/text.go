package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/utils"
)

// TextClient is the LLM collaborator the agents call. Kept as an interface so
// agent tests can stub completions without network access.
type TextClient interface {
	Complete(ctx context.Context, system, prompt string, opts *TextOptions) (string, error)
	// CompleteJSON asks the model for a JSON object and decodes it.
	CompleteJSON(ctx context.Context, system, prompt string, opts *TextOptions) (map[string]any, error)
}

type TextOptions struct {
	Temperature float32
	MaxTokens   int
}

type textClient struct {
	httpClient *http.Client
	log        *logger.Logger
	apiKey     string
	baseURL    string
	model      string
}

func NewTextClient(log *logger.Logger) (TextClient, error) {
	clientLog := log.With("client", "TextClient")
	apiKey := utils.GetEnv("GENAI_API_KEY", "", log)
	if apiKey == "" {
		return nil, fmt.Errorf("GENAI_API_KEY is not set")
	}
	baseURL := utils.GetEnv("GENAI_BASE_URL", "https://api.openai.com/v1", log)
	model := utils.GetEnv("GENAI_TEXT_MODEL", "gpt-4o-mini", log)
	return &textClient{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		log:        clientLog,
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	ResponseFmt *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *textClient) Complete(ctx context.Context, system, prompt string, opts *TextOptions) (string, error) {
	return c.complete(ctx, system, prompt, opts, nil)
}

func (c *textClient) CompleteJSON(ctx context.Context, system, prompt string, opts *TextOptions) (map[string]any, error) {
	raw, err := c.complete(ctx, system, prompt, opts, &respFormat{Type: "json_object"})
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("model returned non-JSON content: %w", err)
	}
	return out, nil
}

func (c *textClient) complete(ctx context.Context, system, prompt string, opts *TextOptions, format *respFormat) (string, error) {
	msgs := make([]chatMessage, 0, 2)
	if system != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: system})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: prompt})

	reqBody := chatRequest{Model: c.model, Messages: msgs, ResponseFmt: format}
	if opts != nil {
		reqBody.Temperature = opts.Temperature
		reqBody.MaxTokens = opts.MaxTokens
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("text completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode completion response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("text provider returned %d: %s", resp.StatusCode, msg)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("text provider returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
