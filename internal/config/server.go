package config

// GetPort returns the HTTP listen port
func GetPort() string {
	return GetEnvOrDefault("PORT", "8080")
}
