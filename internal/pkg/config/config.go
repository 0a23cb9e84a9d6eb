// Package config предоставляет управление конфигурацией приложения
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Bot содержит конфигурацию Telegram-бота
type Bot struct {
	Token                  string `yaml:"token"`
	DownloadTimeoutSeconds int    `yaml:"download_timeout_seconds"`
}

// CatalogAPI содержит конфигурацию клиента API каталога
type CatalogAPI struct {
	BaseURL        string `yaml:"base_url"`
	AuthToken      string `yaml:"auth_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Server содержит конфигурацию управляющего HTTP-сервера
type Server struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	AuthToken              string `yaml:"auth_token"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// Cache содержит конфигурацию кэша
type Cache struct {
	TTLMinutes             int `yaml:"ttl_minutes"`
	CleanupIntervalMinutes int `yaml:"cleanup_interval_minutes"` // 0 — без фоновой очистки
}

// Storage содержит конфигурацию встроенного хранилища
type Storage struct {
	UsersPath string `yaml:"users_path"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Config содержит конфигурацию приложения
type Config struct {
	Bot        Bot        `yaml:"bot"`
	CatalogAPI CatalogAPI `yaml:"catalog_api"`
	Server     Server     `yaml:"server"`
	Cache      Cache      `yaml:"cache"`
	Storage    Storage    `yaml:"storage"`
	Logging    Logging    `yaml:"logging"`
}

// LoadConfig загружает конфигурацию приложения из config.yml,
// переменных окружения или .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла, если он существует
	if err := godotenv.Load(); err != nil {
		// Отсутствие .env файла — это нормально, полагаемся на окружение или config.yml
	}

	cfg, err := loadFromYAML("config.yml")
	if err != nil {
		// Если загрузка YAML не удалась, используем переменные окружения
		cfg, err = loadFromEnv()
		if err != nil {
			return nil, fmt.Errorf("не удалось загрузить конфигурацию из env: %w", err)
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

// loadFromYAML загружает конфигурацию из YAML-файла
func loadFromYAML(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}

	return &cfg, nil
}

// loadFromEnv загружает конфигурацию из переменных окружения
func loadFromEnv() (*Config, error) {
	token := getEnv("BOT_TOKEN", "")
	baseURL := getEnv("CATALOG_BASE_URL", "")

	if token == "" || baseURL == "" {
		return nil, fmt.Errorf("BOT_TOKEN и CATALOG_BASE_URL должны быть установлены в переменных окружения")
	}

	port, err := getEnvInt("SERVER_PORT", DefaultServerPort)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := getEnvInt("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 0)
	if err != nil {
		return nil, err
	}
	catalogTimeout, err := getEnvInt("CATALOG_TIMEOUT_SECONDS", 0)
	if err != nil {
		return nil, err
	}
	downloadTimeout, err := getEnvInt("DOWNLOAD_TIMEOUT_SECONDS", 0)
	if err != nil {
		return nil, err
	}
	ttlMinutes, err := getEnvInt("CACHE_TTL_MINUTES", 0)
	if err != nil {
		return nil, err
	}
	cleanupInterval, err := getEnvInt("CACHE_CLEANUP_INTERVAL_MINUTES", 0)
	if err != nil {
		return nil, err
	}

	return &Config{
		Bot: Bot{
			Token:                  token,
			DownloadTimeoutSeconds: downloadTimeout,
		},
		CatalogAPI: CatalogAPI{
			BaseURL:        baseURL,
			AuthToken:      getEnv("CATALOG_AUTH_TOKEN", ""),
			TimeoutSeconds: catalogTimeout,
		},
		Server: Server{
			Host:                   getEnv("SERVER_HOST", DefaultServerHost),
			Port:                   port,
			AuthToken:              getEnv("SERVER_AUTH_TOKEN", ""),
			ShutdownTimeoutSeconds: shutdownTimeout,
		},
		Cache: Cache{
			TTLMinutes:             ttlMinutes,
			CleanupIntervalMinutes: cleanupInterval,
		},
		Storage: Storage{
			UsersPath: getEnv("USERS_DB_PATH", ""),
		},
		Logging: Logging{
			Level:  getEnv("LOG_LEVEL", ""),
			Format: getEnv("LOG_FORMAT", ""),
		},
	}, nil
}

// applyDefaults заполняет незаданные поля значениями по умолчанию
func (c *Config) applyDefaults() {
	if c.Bot.DownloadTimeoutSeconds == 0 {
		c.Bot.DownloadTimeoutSeconds = DefaultDownloadTimeoutSeconds
	}
	if c.CatalogAPI.TimeoutSeconds == 0 {
		c.CatalogAPI.TimeoutSeconds = DefaultCatalogTimeoutSeconds
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = DefaultShutdownTimeoutSeconds
	}
	if c.Cache.TTLMinutes == 0 {
		c.Cache.TTLMinutes = DefaultCacheTTLMinutes
	}
	if c.Storage.UsersPath == "" {
		c.Storage.UsersPath = DefaultUsersPath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Bot.Token == "" || c.Bot.Token == "YOUR_TELEGRAM_BOT_TOKEN" {
		return fmt.Errorf("bot.token is not configured")
	}
	if c.CatalogAPI.BaseURL == "" {
		return fmt.Errorf("catalog_api.base_url cannot be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in range 1-65535")
	}
	if c.Cache.TTLMinutes < 0 {
		return fmt.Errorf("cache.ttl_minutes cannot be negative")
	}
	return nil
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvInt возвращает целочисленное значение переменной окружения
// или значение по умолчанию
func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("недопустимый %s: %w", key, err)
	}
	return n, nil
}
