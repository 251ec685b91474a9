package image

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coinforge/internal/domain"
)

type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAIGenerator calls an OpenAI-compatible image generations endpoint. The
// endpoint returns a short-lived URL; the generator fetches it and hands back
// the raw bytes so the caller can inline them.
type OpenAIGenerator struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

const (
	openAIDefaultTimeout = 120 * time.Second
	defaultImageModel    = "dall-e-3"

	// maxAssetBytes bounds how much image data we are willing to inline.
	maxAssetBytes = 8 << 20
)

type openAIImageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type openAIImageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

func NewOpenAIGenerator(opts OpenAIOptions) (*OpenAIGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultImageModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &OpenAIGenerator{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

func (o *OpenAIGenerator) Generate(ctx context.Context, req Request) (Asset, error) {
	payload := openAIImageRequest{
		Model:  o.model,
		Prompt: req.Prompt,
		N:      1,
		Size:   req.Size(),
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return Asset{}, fmt.Errorf("encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/images/generations", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return Asset{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return Asset{}, fmt.Errorf("image generation: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return Asset{}, fmt.Errorf("%w: image status %d", domain.ErrProviderFailure, resp.StatusCode)
	}
	var out openAIImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Asset{}, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Data) == 0 || strings.TrimSpace(out.Data[0].URL) == "" {
		return Asset{}, fmt.Errorf("%w: no image url", domain.ErrProviderFailure)
	}
	return o.fetch(ctx, out.Data[0].URL)
}

func (o *OpenAIGenerator) fetch(ctx context.Context, url string) (Asset, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Asset{}, fmt.Errorf("build fetch request: %w", err)
	}
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return Asset{}, fmt.Errorf("fetch asset: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return Asset{}, fmt.Errorf("%w: asset status %d", domain.ErrProviderFailure, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
	if err != nil {
		return Asset{}, fmt.Errorf("read asset: %w", err)
	}
	if len(data) == 0 {
		return Asset{}, fmt.Errorf("%w: empty asset", domain.ErrProviderFailure)
	}
	mime := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = "image/png"
	}
	return Asset{Data: data, MIME: mime}, nil
}

func (o *OpenAIGenerator) Model() string {
	return o.model
}

var _ Generator = (*OpenAIGenerator)(nil)
