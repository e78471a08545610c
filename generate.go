package sprout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GenerationRequest is what the engine asks a generation service for.
type GenerationRequest struct {
	Prompt string     `json:"prompt"`
	Media  MediaType  `json:"-"`
	Source SourceKind `json:"-"`
	Kind   string     `json:"type"` // "image", "video" or "model"
}

func (r GenerationRequest) kind() string {
	if r.Source == SourceGeneratedModel {
		return "model"
	}
	return r.Media.String()
}

// GenerationResult is the terminal answer of a generation service.
type GenerationResult struct {
	Success  bool   `json:"success"`
	AssetURL string `json:"assetUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Generator produces assets from prompts. Implementations own transport,
// timeouts and retries; the engine only waits for the terminal result.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req GenerationRequest) (GenerationResult, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	return f(ctx, req)
}

// HTTPGeneratorConfig configures an HTTPGenerator.
type HTTPGeneratorConfig struct {
	Endpoint string        // POST target
	APIKey   string        // sent as a bearer token when set
	Timeout  time.Duration // default 2 minutes
}

// HTTPGenerator posts {"prompt", "type"} as JSON and expects
// {"success", "assetUrl", "error"} back.
type HTTPGenerator struct {
	config     HTTPGeneratorConfig
	httpClient *http.Client
}

// NewHTTPGenerator creates an HTTPGenerator.
func NewHTTPGenerator(config HTTPGeneratorConfig) (*HTTPGenerator, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("http generator: endpoint is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 2 * time.Minute
	}
	return &HTTPGenerator{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

// Generate performs one request. A reply with success=false or no asset URL
// is reported as ErrGenerationFailed.
func (g *HTTPGenerator) Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	req.Kind = req.kind()
	body, err := json.Marshal(req)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return GenerationResult{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return GenerationResult{}, fmt.Errorf("%w: status %d: %s", ErrGenerationFailed, resp.StatusCode, bytes.TrimSpace(data))
	}

	var res GenerationResult
	if err := json.Unmarshal(data, &res); err != nil {
		return GenerationResult{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if !res.Success || res.AssetURL == "" {
		msg := res.Error
		if msg == "" {
			msg = "no asset returned"
		}
		return res, fmt.Errorf("%w: %s", ErrGenerationFailed, msg)
	}
	return res, nil
}
