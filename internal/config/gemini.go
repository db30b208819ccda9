package config

import "github.com/matteolinarello/Web-App-SIGEP/pkg/logger"

// GetGeminiAPIKey returns the Gemini API key. A missing key is not fatal.
func GetGeminiAPIKey() string {
	value := GetEnvOrDefault("GEMINI_API_KEY", "")
	if value == "" {
		logger.Warn(logger.CONFIG, "GEMINI_API_KEY environment variable not set")
	}
	return value
}

func GetGeminiBaseURL() string {
	return GetEnvOrDefault("GEMINI_BASE_URL", "")
}
