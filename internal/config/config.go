package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env           string
	Port          string
	SessionSecret string
	DatabaseURL   string
	RedisURL      string

	// StatementTimeout bounds every transition transaction at the
	// database; state-machine work should never hold row locks longer.
	StatementTimeout time.Duration

	// FrontendURLEndsWith is the CORS origin suffix for the web client.
	FrontendURLEndsWith string
	HealthAdminKey      string

	LogLevel  string
	LogPretty bool

	// PrimeBalanceCache controls whether startup walks organizations and
	// periods to warm the Redis balance cache.
	PrimeBalanceCache bool
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL")
	if env == "test" && viper.GetString("DATABASE_URL_TEST") != "" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}

	timeout := viper.GetDuration("DB_STATEMENT_TIMEOUT")
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	logLevel := viper.GetString("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		Env:                 env,
		Port:                port,
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		StatementTimeout:    timeout,
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		LogLevel:            logLevel,
		LogPretty:           env == "development",
		PrimeBalanceCache:   strings.EqualFold(viper.GetString("PRIME_BALANCE_CACHE"), "true"),
	}, nil
}
