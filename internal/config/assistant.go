package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	GroundingFull    = "full"
	GroundingLexical = "lexical"

	DefaultGeminiModel = "gemini-1.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// AssistantConfig holds the conversational assistant settings
type AssistantConfig struct {
	Provider       string        `validate:"oneof=gemini openai"`
	Model          string        `validate:"required"`
	Timeout        time.Duration `validate:"gt=0"`
	IdleTimeout    time.Duration `validate:"gt=0"`
	Grounding      string        `validate:"oneof=full lexical"`
	GroundingLimit int           `validate:"min=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// GetAssistantConfig reads and validates the assistant configuration
func GetAssistantConfig() (AssistantConfig, error) {
	cfg := AssistantConfig{
		Provider:       strings.ToLower(GetEnvOrDefault("ASSISTANT_PROVIDER", ProviderGemini)),
		Model:          GetEnvOrDefault("ASSISTANT_MODEL", ""),
		Timeout:        parseEnvDuration("ASSISTANT_TIMEOUT", 30*time.Second),
		IdleTimeout:    parseEnvDuration("ASSISTANT_IDLE_TIMEOUT", time.Hour),
		Grounding:      strings.ToLower(GetEnvOrDefault("ASSISTANT_GROUNDING", GroundingFull)),
		GroundingLimit: parseEnvInt("ASSISTANT_GROUNDING_LIMIT", 20),
	}

	if cfg.Model == "" {
		switch cfg.Provider {
		case ProviderOpenAI:
			cfg.Model = DefaultOpenAIModel
		default:
			cfg.Model = DefaultGeminiModel
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return AssistantConfig{}, fmt.Errorf("invalid assistant configuration: %w", err)
	}

	return cfg, nil
}
