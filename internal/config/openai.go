package config

import "github.com/matteolinarello/Web-App-SIGEP/pkg/logger"

// GetOpenAIKey returns the current OpenAI key. A missing key is not fatal:
// every turn fails with the apology message instead.
func GetOpenAIKey() string {
	value := GetEnvOrDefault("OPENAI_KEY", "")
	if value == "" {
		logger.Warn(logger.CONFIG, "OPENAI_KEY environment variable not set")
	}
	return value
}

// GetOpenAIBaseURL allows pointing the client at a compatible gateway
func GetOpenAIBaseURL() string {
	return GetEnvOrDefault("OPENAI_BASE_URL", "")
}
