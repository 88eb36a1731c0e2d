// config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	IPN      IPNConfig
	Ledger   LedgerConfig
	Switches map[string]SwitchConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
	// CustomerTTL bounds staleness of cached customer records.
	CustomerTTL time.Duration
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

// IPNConfig carries the business parameters agreed with the payment switch.
type IPNConfig struct {
	MinAmount       float64
	MaxAmount       float64
	DefaultCurrency string
}

type LedgerConfig struct {
	URL       string
	APIKey    string
	APISecret string
}

// SwitchConfig identifies a payment switch allowed to call the gateway.
type SwitchConfig struct {
	ID        string
	Name      string
	APIKey    string
	APISecret string
	Enabled   bool
}

func Load(logger *zap.Logger) (*Config, error) {
	// Optional .env for local runs; in deployed environments variables come
	// from the process environment.
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", zap.Error(err))
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8030"),
			Env:  getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "airtel_ipn"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_HOST", "localhost") + ":" + getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvInt("REDIS_DB", 0),
			Enabled:     getEnvBool("REDIS_ENABLED", true),
			CustomerTTL: getEnvDuration("REDIS_CUSTOMER_TTL", 5*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", "airtel-ipn-service"),
			TokenTTL:  getEnvDuration("JWT_TOKEN_TTL", 30*time.Minute),
		},
		IPN: IPNConfig{
			MinAmount:       getEnvFloat("IPN_MIN_AMOUNT", 1),
			MaxAmount:       getEnvFloat("IPN_MAX_AMOUNT", 1000000),
			DefaultCurrency: getEnv("IPN_DEFAULT_CURRENCY", "KES"),
		},
		Ledger: LedgerConfig{
			URL:       getEnv("LEDGER_URL", ""),
			APIKey:    getEnv("LEDGER_API_KEY", ""),
			APISecret: getEnv("LEDGER_API_SECRET", ""),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.IPN.MinAmount <= 0 || cfg.IPN.MaxAmount < cfg.IPN.MinAmount {
		return nil, fmt.Errorf("invalid amount bounds: min=%v max=%v", cfg.IPN.MinAmount, cfg.IPN.MaxAmount)
	}

	if err := cfg.loadSwitches(logger); err != nil {
		return nil, fmt.Errorf("failed to load switches: %w", err)
	}

	return cfg, nil
}

// loadSwitches reads the payment switches allowed to authenticate, one set of
// SWITCH_<ID>_* variables per entry in the comma-separated SWITCH_IDS list.
func (c *Config) loadSwitches(logger *zap.Logger) error {
	c.Switches = make(map[string]SwitchConfig)

	switchIDsStr := getEnv("SWITCH_IDS", "")
	if switchIDsStr == "" {
		return fmt.Errorf("no switches configured (SWITCH_IDS is empty)")
	}

	for _, switchID := range strings.Split(switchIDsStr, ",") {
		switchID = strings.TrimSpace(switchID)
		if switchID == "" {
			continue
		}

		prefix := fmt.Sprintf("SWITCH_%s_", strings.ToUpper(switchID))

		sw := SwitchConfig{
			ID:        switchID,
			Name:      getEnv(prefix+"NAME", switchID),
			APIKey:    getEnv(prefix+"API_KEY", ""),
			APISecret: getEnv(prefix+"API_SECRET", ""),
			Enabled:   getEnvBool(prefix+"ENABLED", true),
		}

		if sw.APIKey == "" || sw.APISecret == "" {
			logger.Warn("switch credentials missing, skipping",
				zap.String("switch_id", switchID))
			continue
		}

		c.Switches[switchID] = sw

		logger.Info("switch loaded",
			zap.String("switch_id", switchID),
			zap.String("switch_name", sw.Name),
			zap.Bool("enabled", sw.Enabled))
	}

	if len(c.Switches) == 0 {
		return fmt.Errorf("no valid switches configured")
	}

	return nil
}

// FindSwitchByAPIKey returns the enabled switch holding the given API key.
func (c *Config) FindSwitchByAPIKey(apiKey string) (*SwitchConfig, error) {
	for _, sw := range c.Switches {
		if sw.APIKey == apiKey && sw.Enabled {
			return &sw, nil
		}
	}
	return nil, fmt.Errorf("unknown API key")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
