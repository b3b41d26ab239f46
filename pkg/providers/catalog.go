// Package providers serves the static catalog of supported LLM providers
// and their models.
package providers

// ModelInfo describes one model offered by a provider.
type ModelInfo struct {
	ModelID         string `json:"model_id"`
	DisplayName     string `json:"display_name"`
	Description     string `json:"description"`
	ContextWindow   int    `json:"context_window"`
	MaxOutputTokens int    `json:"max_output_tokens"`
	Recommended     bool   `json:"recommended"`
	PricingTier     string `json:"pricing_tier"`
}

// ProviderInfo describes one LLM provider and its models.
type ProviderInfo struct {
	ProviderID       string      `json:"provider_id"`
	DisplayName      string      `json:"display_name"`
	Description      string      `json:"description"`
	APIKeyEnvVar     string      `json:"api_key_env_var,omitempty"`
	DocumentationURL string      `json:"documentation_url"`
	Models           []ModelInfo `json:"models"`
}

// catalog is the static list of supported providers.
var catalog = []ProviderInfo{
	{
		ProviderID:       "anthropic",
		DisplayName:      "Anthropic",
		Description:      "Claude models by Anthropic",
		APIKeyEnvVar:     "ANTHROPIC_API_KEY",
		DocumentationURL: "https://docs.anthropic.com/",
		Models: []ModelInfo{
			{
				ModelID:         "claude-3-5-sonnet-20241022",
				DisplayName:     "Claude 3.5 Sonnet",
				Description:     "Most intelligent model, balanced performance and speed",
				ContextWindow:   200000,
				MaxOutputTokens: 8192,
				Recommended:     true,
				PricingTier:     "standard",
			},
			{
				ModelID:         "claude-3-opus-20240229",
				DisplayName:     "Claude 3 Opus",
				Description:     "Most powerful model for complex tasks",
				ContextWindow:   200000,
				MaxOutputTokens: 4096,
				PricingTier:     "premium",
			},
		},
	},
	{
		ProviderID:       "openai",
		DisplayName:      "OpenAI",
		Description:      "GPT models by OpenAI",
		APIKeyEnvVar:     "OPENAI_API_KEY",
		DocumentationURL: "https://platform.openai.com/docs/",
		Models: []ModelInfo{
			{
				ModelID:         "gpt-4o",
				DisplayName:     "GPT-4o",
				Description:     "Fastest and most affordable flagship model",
				ContextWindow:   128000,
				MaxOutputTokens: 16384,
				Recommended:     true,
				PricingTier:     "standard",
			},
			{
				ModelID:         "gpt-4-turbo",
				DisplayName:     "GPT-4 Turbo",
				Description:     "Previous generation, strong reasoning",
				ContextWindow:   128000,
				MaxOutputTokens: 4096,
				PricingTier:     "standard",
			},
		},
	},
	{
		ProviderID:       "ollama",
		DisplayName:      "Ollama",
		Description:      "Locally hosted open models",
		DocumentationURL: "https://ollama.com/",
		Models: []ModelInfo{
			{
				ModelID:         "llama3.1",
				DisplayName:     "Llama 3.1",
				Description:     "Open model running locally, no API key required",
				ContextWindow:   128000,
				MaxOutputTokens: 4096,
				PricingTier:     "free",
			},
		},
	},
}

// Catalog returns the full provider catalog.
func Catalog() []ProviderInfo {
	return catalog
}

// ByID returns a provider by id, or nil.
func ByID(providerID string) *ProviderInfo {
	for i := range catalog {
		if catalog[i].ProviderID == providerID {
			return &catalog[i]
		}
	}
	return nil
}

// DefaultModel returns the recommended model of a provider, falling back to
// the first listed model.
func DefaultModel(providerID string) *ModelInfo {
	p := ByID(providerID)
	if p == nil || len(p.Models) == 0 {
		return nil
	}
	for i := range p.Models {
		if p.Models[i].Recommended {
			return &p.Models[i]
		}
	}
	return &p.Models[0]
}
