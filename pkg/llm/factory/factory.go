package factory

import (
	"fmt"

	"ai-devguide-be/pkg/llm"
	"ai-devguide-be/pkg/llm/ollama"
	"ai-devguide-be/pkg/llm/openai"
)

const (
	DefaultOllamaURL     = "http://localhost:11434"
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1"
	DefaultOpenAIURL     = "https://api.openai.com/v1"
)

// NewLLMProvider builds the chat completion backend named by providerType.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openrouter":
		if baseURL == "" {
			baseURL = DefaultOpenRouterURL
		}
		return openai.NewProvider(apiKey, baseURL, modelName), nil
	case "openai":
		if baseURL == "" {
			baseURL = DefaultOpenAIURL
		}
		return openai.NewProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
