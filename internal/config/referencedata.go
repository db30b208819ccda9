package config

// ReferenceDataConfig locates the exhibitor directory and event schedule
// files. An unset path selects the dataset compiled into the binary.
type ReferenceDataConfig struct {
	ExhibitorsPath string
	EventsPath     string
	DisableBundled bool
}

func GetReferenceDataConfig() ReferenceDataConfig {
	return ReferenceDataConfig{
		ExhibitorsPath: GetEnvOrDefault("REFERENCE_DATA_EXHIBITORS", ""),
		EventsPath:     GetEnvOrDefault("REFERENCE_DATA_EVENTS", ""),
		DisableBundled: parseEnvBool("REFERENCE_DATA_DISABLE_BUNDLED", false),
	}
}
