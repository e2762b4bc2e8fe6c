// internal/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"anycraft.io/bot/internal/validation"
)

const (
	DefaultAEONBaseURL    = "https://sbx-crypto-payment-api.aeon.xyz"
	DefaultTelegramAPIURL = "https://api.telegram.org"
	DefaultTimeoutSeconds = 15
	DefaultPort           = 8080
	DefaultPurchaseRPS    = 0.2
	DefaultPurchaseBurst  = 3
	DefaultWebhookRPS     = 20
	DefaultWebhookBurst   = 40
	defaultDotEnvPath     = "configs/.env"
	productionEnvName     = "production"
	developmentEnvName    = "development"
)

type AEONConfig struct {
	AppID          string `yaml:"app_id" validate:"required"`
	SecretKey      string `yaml:"secret_key" validate:"required"`
	BaseURL        string `yaml:"base_url" validate:"required,url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gt=0"`
}

type TelegramConfig struct {
	Token         string `yaml:"token" validate:"required"`
	APIURL        string `yaml:"api_url" validate:"required,url"`
	WebhookSecret string `yaml:"webhook_secret"`
	WebhookPath   string `yaml:"webhook_path" validate:"required,startswith=/"`
}

type LinksConfig struct {
	TMA       string `yaml:"tma_url" validate:"required,url"`
	Community string `yaml:"community" validate:"omitempty,url"`
	ChatEN    string `yaml:"chat_en" validate:"omitempty,url"`
	ChatRU    string `yaml:"chat_ru" validate:"omitempty,url"`
	Site      string `yaml:"site" validate:"omitempty,url"`
}

type GameAPIConfig struct {
	// пустой URL отключает уведомления игрового бэкенда
	URL            string `yaml:"url" validate:"omitempty,url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gt=0"`
}

type RateLimitConfig struct {
	PurchaseRPS   float64 `yaml:"purchase_rps" validate:"gt=0"`
	PurchaseBurst int     `yaml:"purchase_burst" validate:"gt=0"`
	WebhookRPS    float64 `yaml:"webhook_rps" validate:"gt=0"`
	WebhookBurst  int     `yaml:"webhook_burst" validate:"gt=0"`
}

type Config struct {
	AppEnv          string          `yaml:"app_env" validate:"required,oneof=development production test"`
	Port            int             `yaml:"port" validate:"gt=0,lt=65536"`
	Production      bool            `yaml:"production"`
	IsRC            bool            `yaml:"is_rc"`
	AuthorizedUsers []int64         `yaml:"authorized_users"`
	AEON            AEONConfig      `yaml:"aeon"`
	Telegram        TelegramConfig  `yaml:"telegram"`
	Links           LinksConfig     `yaml:"links"`
	GameAPI         GameAPIConfig   `yaml:"game_api"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

// Restricted - бот открыт только для AuthorizedUsers (не production или RC-сборка).
func (c *Config) Restricted() bool {
	return !c.Production || c.IsRC
}

// IsAuthorized проверяет доступ пользователя с учетом Restricted.
func (c *Config) IsAuthorized(userID int64) bool {
	if !c.Restricted() {
		return true
	}
	for _, id := range c.AuthorizedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

func getStringEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
		slog.Warn("Не удалось преобразовать переменную окружения в число, используется значение по умолчанию", "key", key, "value", valueStr)
	}
	return defaultValue
}

func getBoolEnvOrDefault(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return strings.EqualFold(strings.TrimSpace(valueStr), "true")
	}
	return defaultValue
}

// parseUserIDs разбирает список вида "327090911, 12390".
func parseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("некорректный ID пользователя %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// LoadConfig читает YAML-файл, затем переопределяет значения из окружения.
// Пустой filename означает конфигурацию только из окружения.
func LoadConfig(filename string) (*Config, error) {
	if os.Getenv("APP_ENV") != productionEnvName {
		if err := godotenv.Load(defaultDotEnvPath); err != nil {
			slog.Info("configs/.env не найден или ошибка загрузки, это ожидаемо для production или если переменные установлены системно.", "error", err)
		} else {
			slog.Info("Переменные окружения загружены из configs/.env")
		}
	}

	cfg := Config{Production: true}
	if filename != "" {
		file, err := os.Open(filename)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("файл конфигурации не найден: %s", filename)
		}
		if err != nil {
			return nil, fmt.Errorf("ошибка открытия файла конфигурации '%s': %w", filename, err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("ошибка декодирования YAML из файла '%s': %w", filename, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if errs := validation.ValidateStruct(cfg); errs != nil {
		return nil, fmt.Errorf("некорректная конфигурация: %s", validation.Summary(errs))
	}
	if cfg.AppEnv == productionEnvName && !strings.HasPrefix(cfg.AEON.BaseURL, "https://") {
		return nil, fmt.Errorf("в production окружении AEON_BASE_URL должен начинаться с https://")
	}
	if cfg.Telegram.WebhookSecret == "" {
		slog.Warn("TG_WEBHOOK_SECRET не задан, вебхук принимает запросы без проверки секрета")
	}

	slog.Info("Конфигурация загружена",
		"app_env", cfg.AppEnv,
		"port", cfg.Port,
		"aeon_base_url", cfg.AEON.BaseURL,
		"restricted", cfg.Restricted(),
		"game_api_enabled", cfg.GameAPI.URL != "",
	)
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.AppEnv = getStringEnvOrDefault("APP_ENV", cfg.AppEnv)
	cfg.Port = getIntEnvOrDefault("PORT", cfg.Port)
	cfg.Production = getBoolEnvOrDefault("PRODUCTION", cfg.Production)
	cfg.IsRC = getBoolEnvOrDefault("IS_RC", cfg.IsRC)
	if raw, ok := os.LookupEnv("AUTHORIZED_USERS"); ok {
		ids, err := parseUserIDs(raw)
		if err != nil {
			return fmt.Errorf("AUTHORIZED_USERS: %w", err)
		}
		cfg.AuthorizedUsers = ids
	}

	cfg.AEON.AppID = getStringEnvOrDefault("AEON_APP_ID", cfg.AEON.AppID)
	// секрет берется только из окружения, если он там задан
	cfg.AEON.SecretKey = getStringEnvOrDefault("AEON_SECRET_KEY", cfg.AEON.SecretKey)
	cfg.AEON.BaseURL = getStringEnvOrDefault("AEON_BASE_URL", cfg.AEON.BaseURL)
	cfg.AEON.TimeoutSeconds = getIntEnvOrDefault("AEON_TIMEOUT_SECONDS", cfg.AEON.TimeoutSeconds)

	cfg.Telegram.Token = getStringEnvOrDefault("TG_TOKEN", cfg.Telegram.Token)
	cfg.Telegram.APIURL = getStringEnvOrDefault("TG_API_URL", cfg.Telegram.APIURL)
	cfg.Telegram.WebhookSecret = getStringEnvOrDefault("TG_WEBHOOK_SECRET", cfg.Telegram.WebhookSecret)
	cfg.Telegram.WebhookPath = getStringEnvOrDefault("TG_WEBHOOK_PATH", cfg.Telegram.WebhookPath)

	cfg.Links.TMA = getStringEnvOrDefault("TMA_URL", cfg.Links.TMA)
	cfg.Links.Community = getStringEnvOrDefault("COMMUNITY_LINK", cfg.Links.Community)
	cfg.Links.ChatEN = getStringEnvOrDefault("CHAT_EN_LINK", cfg.Links.ChatEN)
	cfg.Links.ChatRU = getStringEnvOrDefault("CHAT_RU_LINK", cfg.Links.ChatRU)
	cfg.Links.Site = getStringEnvOrDefault("SITE_LINK", cfg.Links.Site)

	cfg.GameAPI.URL = getStringEnvOrDefault("API_URL", cfg.GameAPI.URL)
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.AppEnv == "" {
		cfg.AppEnv = developmentEnvName
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.AEON.BaseURL == "" {
		cfg.AEON.BaseURL = DefaultAEONBaseURL
	}
	cfg.AEON.BaseURL = strings.TrimSuffix(cfg.AEON.BaseURL, "/")
	if cfg.AEON.TimeoutSeconds <= 0 {
		cfg.AEON.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.Telegram.APIURL == "" {
		cfg.Telegram.APIURL = DefaultTelegramAPIURL
	}
	cfg.Telegram.APIURL = strings.TrimSuffix(cfg.Telegram.APIURL, "/")
	if cfg.Telegram.WebhookPath == "" {
		cfg.Telegram.WebhookPath = "/telegram/webhook"
	}
	if cfg.Links.TMA == "" {
		cfg.Links.TMA = "https://tma.anycraft.io/"
	}
	if cfg.GameAPI.URL != "" && !strings.HasSuffix(cfg.GameAPI.URL, "/") {
		cfg.GameAPI.URL += "/"
	}
	if cfg.GameAPI.TimeoutSeconds <= 0 {
		cfg.GameAPI.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.RateLimit.PurchaseRPS <= 0 {
		cfg.RateLimit.PurchaseRPS = DefaultPurchaseRPS
	}
	if cfg.RateLimit.PurchaseBurst <= 0 {
		cfg.RateLimit.PurchaseBurst = DefaultPurchaseBurst
	}
	if cfg.RateLimit.WebhookRPS <= 0 {
		cfg.RateLimit.WebhookRPS = DefaultWebhookRPS
	}
	if cfg.RateLimit.WebhookBurst <= 0 {
		cfg.RateLimit.WebhookBurst = DefaultWebhookBurst
	}
}

func InitLogger(appEnv string) {
	var logger *slog.Logger
	logLevel := slog.LevelInfo

	if appEnv == developmentEnvName {
		logLevel = slog.LevelDebug
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: false,
		}))
	}
	slog.SetDefault(logger)
}
