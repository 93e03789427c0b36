package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Setting keys for the default ledger account codes.
const (
	SettingReceivableAccount      = "receivable_account_code"
	SettingDeferredRevenueAccount = "deferred_revenue_account_code"
	SettingDiscountAccount        = "discount_account_code"
	SettingRevenueAccount         = "revenue_account_code"
	SettingTrainingRevenueAccount = "training_revenue_account_code"
	SettingCashAccount            = "cash_account_code"
	SettingBankAccount            = "bank_account_code"
	SettingGatewayAccount         = "gateway_account_code"
	SettingExpenseAccount         = "expense_account_code"
)

// AccountSettingKeys lists every account-code setting the ledger reads.
var AccountSettingKeys = []string{
	SettingReceivableAccount,
	SettingDeferredRevenueAccount,
	SettingDiscountAccount,
	SettingRevenueAccount,
	SettingTrainingRevenueAccount,
	SettingCashAccount,
	SettingBankAccount,
	SettingGatewayAccount,
	SettingExpenseAccount,
}

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	JWTSecret     string

	// Redis backs the course price cache. Empty disables caching.
	RedisAddr     string
	PriceCacheTTL time.Duration

	MaxInstallments      int
	OverdueSweepInterval time.Duration // 0 disables the background sweep

	RateLimit          string // ulule formatted, e.g. "100-M"
	CORSAllowedOrigins []string

	// AccountCodes are the env-provided defaults for the ledger account settings,
	// keyed by setting name. Values stored in the settings table take precedence.
	AccountCodes map[string]string
}

// envKeyFor maps a setting key to its environment variable,
// e.g. cash_account_code -> LEDGER_CASH_ACCOUNT_CODE.
func envKeyFor(setting string) string {
	return "LEDGER_" + strings.ToUpper(setting)
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("PRICE_CACHE_TTL", "5m")
	viper.SetDefault("MAX_INSTALLMENTS", 12)
	viper.SetDefault("OVERDUE_SWEEP_INTERVAL", "1h")
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	for _, key := range AccountSettingKeys {
		viper.SetDefault(envKeyFor(key), "")
	}

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set. Falling back to the in-memory store.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.RedisAddr = viper.GetString("REDIS_ADDR")

	cfg.PriceCacheTTL = durationOr("PRICE_CACHE_TTL", 5*time.Minute)
	cfg.OverdueSweepInterval = durationOr("OVERDUE_SWEEP_INTERVAL", time.Hour)

	cfg.MaxInstallments = viper.GetInt("MAX_INSTALLMENTS")
	if cfg.MaxInstallments < 1 {
		log.Printf("Warning: Invalid value for MAX_INSTALLMENTS (%d). Defaulting to 12.\n", cfg.MaxInstallments)
		cfg.MaxInstallments = 12
	}

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	for _, origin := range strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	cfg.AccountCodes = make(map[string]string, len(AccountSettingKeys))
	for _, key := range AccountSettingKeys {
		if code := strings.TrimSpace(viper.GetString(envKeyFor(key))); code != "" {
			cfg.AccountCodes[key] = code
		}
	}

	return cfg, nil
}

func durationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}
