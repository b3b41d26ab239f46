package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"Rostrum/pkg/logger"

	"github.com/teilomillet/gollm"
)

// ---------------------------------------------------------------------------
// Provider name mapping
// ---------------------------------------------------------------------------

// mapProviderName determines the canonical provider name from explicit name,
// model prefix, API key prefix, or base URL. Returns a lowercase string
// compatible with gollm provider names.
func mapProviderName(providerName, model, apiKey, baseURL string) string {
	name := strings.ToLower(strings.TrimSpace(providerName))

	switch name {
	case "anthropic":
		return "anthropic"
	case "openai":
		return "openai"
	case "google":
		return "google"
	case "deepseek":
		return "deepseek"
	case "groq":
		return "groq"
	case "mistral":
		return "mistral"
	case "ollama":
		return "ollama"
	case "openrouter":
		return "openrouter"
	}

	lowerModel := strings.ToLower(model)
	switch {
	case strings.HasPrefix(lowerModel, "claude"):
		return "anthropic"
	case strings.HasPrefix(lowerModel, "gpt") ||
		strings.HasPrefix(lowerModel, "o1") ||
		strings.HasPrefix(lowerModel, "o3") ||
		strings.HasPrefix(lowerModel, "o4"):
		return "openai"
	case strings.HasPrefix(lowerModel, "gemini"):
		return "google"
	case strings.HasPrefix(lowerModel, "deepseek"):
		return "deepseek"
	case strings.HasPrefix(lowerModel, "llama") ||
		strings.HasPrefix(lowerModel, "mistral") ||
		strings.HasPrefix(lowerModel, "phi") ||
		strings.HasPrefix(lowerModel, "qwen"):
		if strings.Contains(baseURL, ":11434") {
			return "ollama"
		}
		return "openai" // generic OpenAI-compatible
	}

	if strings.HasPrefix(apiKey, "sk-ant-") {
		return "anthropic"
	}
	if strings.Contains(baseURL, ":11434") {
		return "ollama"
	}

	return "openai"
}

// endpointURL returns the full chat-completion endpoint for the given base URL
// and provider name.
func endpointURL(baseURL, providerName string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	switch providerName {
	case "anthropic":
		return baseURL + "/messages"
	default:
		return baseURL + "/chat/completions"
	}
}

// defaultBaseURL returns the provider's public API base URL.
func defaultBaseURL(providerName string) string {
	switch providerName {
	case "anthropic":
		return "https://api.anthropic.com/v1"
	case "ollama":
		return "http://localhost:11434/v1"
	default:
		return "https://api.openai.com/v1"
	}
}

// setProviderHeaders sets the required HTTP headers for the given provider.
func setProviderHeaders(req *http.Request, providerName, apiKey string) {
	req.Header.Set("Content-Type", "application/json")

	switch providerName {
	case "anthropic":
		req.Header.Set("anthropic-version", anthropicAPIVersion)
		req.Header.Set("accept", "application/json")
		req.Header.Set("x-api-key", apiKey)
	default:
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

// ---------------------------------------------------------------------------
// Anthropic constants and types
// ---------------------------------------------------------------------------

const anthropicAPIVersion = "2023-06-01"
const anthropicDefaultMaxTokens = 4096

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Role       string                 `json:"role"`
	Content    []anthropicContentItem `json:"content"`
	Model      string                 `json:"model"`
	StopReason string                 `json:"stop_reason"`
}

type anthropicContentItem struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ---------------------------------------------------------------------------
// OpenAI-compatible types
// ---------------------------------------------------------------------------

type openAIRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// ---------------------------------------------------------------------------
// Error parsing
// ---------------------------------------------------------------------------

// parseAPIError extracts a clean error message from an API error response body.
func parseAPIError(statusCode int, body []byte) error {
	var errBody struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &errBody) == nil {
		if errBody.Error.Message != "" {
			msg := errBody.Error.Message
			if len(msg) > 300 {
				msg = msg[:300] + "..."
			}
			if errBody.Error.Type != "" {
				return fmt.Errorf("API error %d [%s]: %s", statusCode, errBody.Error.Type, msg)
			}
			return fmt.Errorf("API error %d: %s", statusCode, msg)
		}
		if errBody.Message != "" {
			msg := errBody.Message
			if len(msg) > 300 {
				msg = msg[:300] + "..."
			}
			return fmt.Errorf("API error %d: %s", statusCode, msg)
		}
	}
	raw := strings.TrimSpace(string(body))
	if len(raw) > 300 {
		raw = raw[:300] + "..."
	}
	return fmt.Errorf("API error %d: %s", statusCode, raw)
}

// IsRetryableStatus returns true if an HTTP status code is retryable (429 or 5xx).
func IsRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= 500 && statusCode <= 599)
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// Client is the HTTP LLM gateway. It speaks the OpenAI-compatible chat
// completions API and the Anthropic Messages API, resolving the target
// provider per request from the agent's model reference. A gollm instance
// per provider/model pair backs the Verify path.
type Client struct {
	defaultAPIKey  string
	defaultBaseURL string
	httpClient     *http.Client

	mu        sync.Mutex
	gollmSeen map[string]gollm.LLM
}

// NewClient creates a gateway client. defaultAPIKey and defaultBaseURL are
// used for model references that do not carry their own key env var or URL.
func NewClient(defaultAPIKey, defaultBaseURL string) *Client {
	return &Client{
		defaultAPIKey:  defaultAPIKey,
		defaultBaseURL: defaultBaseURL,
		// No Timeout on the http.Client: LLM responses can legitimately take
		// many minutes. Cancellation is handled via request context.
		httpClient: &http.Client{},
		gollmSeen:  make(map[string]gollm.LLM),
	}
}

// resolve returns the provider name, base URL and API key for a model ref.
func (c *Client) resolve(ref ModelRef) (provider, baseURL, apiKey string) {
	apiKey = c.defaultAPIKey
	if ref.APIKeyEnvVar != "" {
		if k := os.Getenv(ref.APIKeyEnvVar); k != "" {
			apiKey = k
		}
	}

	provider = mapProviderName(ref.Provider, ref.Model, apiKey, ref.BaseURL)

	baseURL = ref.BaseURL
	if baseURL == "" {
		baseURL = c.defaultBaseURL
	}
	if baseURL == "" {
		baseURL = defaultBaseURL(provider)
	}
	return provider, baseURL, apiKey
}

// Send implements Gateway. Failures are returned as *ProviderError with the
// Transient flag set from the HTTP status or transport fault; Send performs
// no retries of its own.
func (c *Client) Send(ctx context.Context, req SendRequest) (string, error) {
	provider, baseURL, apiKey := c.resolve(req.Model)

	body, err := buildRequestBody(provider, req)
	if err != nil {
		return "", &ProviderError{Provider: provider, Transient: false, Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL(baseURL, provider), bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{Provider: provider, Transient: false, Err: fmt.Errorf("create request: %w", err)}
	}
	setProviderHeaders(httpReq, provider, apiKey)

	logger.Debugf("llm: sending request provider=%s model=%s temp=%.2f max_tokens=%d",
		provider, req.Model.Model, req.Temperature, req.MaxTokens)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			// Cancellation is the caller's signal, not a provider fault.
			return "", ctx.Err()
		}
		return "", &ProviderError{Provider: provider, Transient: true, Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: provider, Transient: true, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := parseAPIError(resp.StatusCode, respBody)
		transient := IsRetryableStatus(resp.StatusCode) && !IsContextLengthError(apiErr)
		return "", &ProviderError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Transient:  transient,
			Err:        apiErr,
		}
	}

	text, err := parseResponseBody(provider, respBody)
	if err != nil {
		return "", &ProviderError{Provider: provider, Transient: false, Err: err}
	}
	return text, nil
}

// Verify checks that a model is reachable by issuing a one-token generation
// through gollm. Used by the CLI before starting a debate.
func (c *Client) Verify(ctx context.Context, ref ModelRef) error {
	instance, err := c.gollmInstance(ref)
	if err != nil {
		return err
	}
	_, err = instance.Generate(ctx, gollm.NewPrompt("ping"))
	if err != nil {
		return fmt.Errorf("model %s/%s not reachable: %w", ref.Provider, ref.Model, err)
	}
	return nil
}

// gollmInstance returns a cached gollm.LLM for the model ref.
// NOTE: gollm's validator rejects API keys that don't match standard provider
// formats. This is expected for third-party OpenAI-compatible endpoints, so
// failures here disable Verify but never block Send.
func (c *Client) gollmInstance(ref ModelRef) (gollm.LLM, error) {
	provider, baseURL, apiKey := c.resolve(ref)
	key := provider + "/" + ref.Model

	c.mu.Lock()
	defer c.mu.Unlock()
	if instance, ok := c.gollmSeen[key]; ok {
		return instance, nil
	}

	opts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(ref.Model),
		gollm.SetAPIKey(apiKey),
		gollm.SetLogLevel(gollm.LogLevelOff),
		gollm.SetMaxRetries(0), // retry is handled by the turn scheduler
	}
	if provider == "ollama" && baseURL != "" {
		opts = append(opts, gollm.SetOllamaEndpoint(baseURL))
	}

	instance, err := gollm.NewLLM(opts...)
	if err != nil {
		return nil, fmt.Errorf("gollm init [%s/%s]: %w", provider, ref.Model, err)
	}
	if baseURL != "" && provider != "ollama" {
		instance.SetEndpoint(endpointURL(baseURL, provider))
	}

	c.gollmSeen[key] = instance
	return instance, nil
}

// ---------------------------------------------------------------------------
// Request body building / response parsing
// ---------------------------------------------------------------------------

// buildRequestBody creates the JSON request body for the specified provider.
func buildRequestBody(providerName string, req SendRequest) ([]byte, error) {
	switch providerName {
	case "anthropic":
		return buildAnthropicRequestBody(req)
	default:
		return buildOpenAIRequestBody(req)
	}
}

func buildOpenAIRequestBody(req SendRequest) ([]byte, error) {
	messages := make([]ChatMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, req.Messages...)

	body := openAIRequest{
		Model:    req.Model.Model,
		Messages: messages,
	}
	if req.Temperature > 0 {
		t := req.Temperature
		body.Temperature = &t
	}
	if req.MaxTokens > 0 {
		m := req.MaxTokens
		body.MaxTokens = &m
	}
	return json.Marshal(body)
}

func buildAnthropicRequestBody(req SendRequest) ([]byte, error) {
	msgs := make([]anthropicMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		content := m.Content
		if content == "" {
			content = " " // Anthropic requires non-empty content
		}
		msgs = append(msgs, anthropicMessage{Role: m.Role, Content: content})
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	body := anthropicRequest{
		Model:     req.Model.Model,
		Messages:  msgs,
		System:    req.SystemPrompt,
		MaxTokens: maxTokens,
	}
	if req.Temperature > 0 {
		t := req.Temperature
		body.Temperature = &t
	}
	return json.Marshal(body)
}

// parseResponseBody extracts the response text from the provider's JSON body.
func parseResponseBody(providerName string, body []byte) (string, error) {
	switch providerName {
	case "anthropic":
		var resp anthropicResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("parse anthropic response: %w", err)
		}
		for _, item := range resp.Content {
			if item.Type == "text" && item.Text != "" {
				return item.Text, nil
			}
		}
		return "", fmt.Errorf("empty response from anthropic")
	default:
		var resp openAIResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("parse response: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no response choices returned")
		}
		return resp.Choices[0].Message.Content, nil
	}
}
