package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"feed-enricher/utils"
	apperrors "feed-enricher/utils/errors"
)

// ErrEmptyResponse is returned when the model answered with no usable text.
var ErrEmptyResponse = errors.New("generation service returned empty text")

// GenerateRequest is one prompt plus sampling options.
type GenerateRequest struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

type payloadModel struct {
	Model     string       `json:"model"`
	Prompt    string       `json:"prompt"`
	Options   optionsModel `json:"options"`
	KeepAlive string       `json:"keep_alive,omitempty"`
	Stream    bool         `json:"stream"`
}

type optionsModel struct {
	Stop          []string `json:"stop,omitempty"`
	Temperature   float64  `json:"temperature"`
	TopP          float64  `json:"top_p"`
	NumPredict    int      `json:"num_predict"`
	RepeatPenalty float64  `json:"repeat_penalty"`
	NumCtx        int      `json:"num_ctx"`
}

type generateResponse struct {
	Model      string `json:"model"`
	Response   string `json:"response"`
	DoneReason string `json:"done_reason"`
	Done       bool   `json:"done"`
}

type GenerationAPIConfig struct {
	Host    string
	APIPath string
	Model   string
	Timeout time.Duration
}

// GenerationAPI talks to an Ollama-compatible /api/generate endpoint.
// Each call is a single attempt; retries live in the repository layer.
type GenerationAPI struct {
	client    *http.Client
	config    GenerationAPIConfig
	sanitizer *utils.Sanitizer
	logger    *slog.Logger
}

func NewGenerationAPI(client *http.Client, config GenerationAPIConfig, logger *slog.Logger) *GenerationAPI {
	return &GenerationAPI{
		client:    client,
		config:    config,
		sanitizer: utils.NewSanitizer(),
		logger:    logger,
	}
}

func (g *GenerationAPI) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	apiURL := strings.TrimRight(g.config.Host, "/") + g.config.APIPath

	payload := payloadModel{
		Model:     g.config.Model,
		Prompt:    req.Prompt,
		Stream:    false,
		KeepAlive: "10m",
		Options: optionsModel{
			Temperature:   req.Temperature,
			TopP:          0.9,
			NumPredict:    req.MaxTokens,
			RepeatPenalty: 1.05,
			NumCtx:        8192,
			Stop:          []string{"<|user|>", "<|system|>", "<end_of_turn>"},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	g.logger.DebugContext(ctx, "sending generation request",
		"api_url", apiURL,
		"model", g.config.Model,
		"prompt_chars", len(req.Prompt))

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			g.logger.DebugContext(ctx, "failed to close response body", "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &apperrors.HTTPStatusError{
			StatusCode: resp.StatusCode,
			URL:        apiURL,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	var apiResponse generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if !apiResponse.Done {
		g.logger.WarnContext(ctx, "received incomplete response from generation service",
			"done_reason", apiResponse.DoneReason)
	}

	text := g.sanitizer.StripMarkup(CleanGeneratedText(apiResponse.Response))
	if text == "" {
		return "", ErrEmptyResponse
	}

	g.logger.DebugContext(ctx, "generation response received",
		"model", apiResponse.Model,
		"response_chars", len(text))

	return text, nil
}

var (
	chatTokenPattern = regexp.MustCompile(`<\|[a-z_]+\|>|<(?:start|end)_of_turn>(?:model|user)?`)
	thinkPattern     = regexp.MustCompile(`(?s)<think>.*?</think>`)
	fencePattern     = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n(.*?)\n?```$")
)

// CleanGeneratedText removes chat-template tokens, reasoning blocks and a
// wrapping code fence from model output.
func CleanGeneratedText(content string) string {
	content = chatTokenPattern.ReplaceAllString(content, "")
	content = thinkPattern.ReplaceAllString(content, "")
	if idx := strings.Index(content, "<think>"); idx != -1 {
		content = content[:idx]
	}
	content = strings.TrimSpace(content)

	if m := fencePattern.FindStringSubmatch(content); m != nil {
		content = m[1]
	}
	return strings.TrimSpace(content)
}
