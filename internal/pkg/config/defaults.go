package config

// Значения конфигурации по умолчанию.
const (
	DefaultServerHost             = "0.0.0.0"
	DefaultServerPort             = 8080
	DefaultShutdownTimeoutSeconds = 15

	DefaultCatalogTimeoutSeconds  = 15
	DefaultDownloadTimeoutSeconds = 30

	DefaultCacheTTLMinutes = 5

	DefaultUsersPath = "./data/users"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
