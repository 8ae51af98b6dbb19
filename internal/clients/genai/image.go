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

type ImageClient interface {
	Generate(ctx context.Context, prompt string, size string) (*GeneratedImage, error)
}

type GeneratedImage struct {
	URL           string `json:"url,omitempty"`
	B64           string `json:"b64_json,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

type imageClient struct {
	httpClient *http.Client
	log        *logger.Logger
	apiKey     string
	baseURL    string
	model      string
}

func NewImageClient(log *logger.Logger) (ImageClient, error) {
	clientLog := log.With("client", "ImageClient")
	apiKey := utils.GetEnv("GENAI_API_KEY", "", log)
	if apiKey == "" {
		return nil, fmt.Errorf("GENAI_API_KEY is not set")
	}
	baseURL := utils.GetEnv("GENAI_BASE_URL", "https://api.openai.com/v1", log)
	model := utils.GetEnv("GENAI_IMAGE_MODEL", "gpt-image-1", log)
	return &imageClient{
		// Image generation is slow; generous client timeout, the per-job
		// context still bounds the call.
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		log:        clientLog,
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
	}, nil
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size,omitempty"`
}

type imageResponse struct {
	Data  []GeneratedImage `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *imageClient) Generate(ctx context.Context, prompt string, size string) (*GeneratedImage, error) {
	payload, err := json.Marshal(imageRequest{Model: c.model, Prompt: prompt, N: 1, Size: size})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image generation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var parsed imageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode image response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, fmt.Errorf("image provider returned %d: %s", resp.StatusCode, msg)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("image provider returned no images")
	}
	img := parsed.Data[0]
	return &img, nil
}
