package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Secrets   SecretsConfig
	ACS       ACSConfig
	Registry  RegistryConfig
	Routing   RoutingConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SecretsConfig describes the Dapr secret store used to resolve the
// platform connection string. StoreName empty means "no secret store" and
// the connection string is taken from the environment instead.
type SecretsConfig struct {
	StoreName string
	DaprPort  string
}

type ACSConfig struct {
	// ConnectionString is read from the environment for local runs; when a
	// secret store is configured main resolves it through the secret
	// provider and overwrites this value before wiring clients.
	ConnectionString string
	// CallbackEventsURI is declared for server-side callback handling but
	// unused by the active routing path.
	CallbackEventsURI string
	// LocalIssuer enables the dev-mode JWT issuer instead of the platform
	// identity API.
	LocalIssuer       bool
	LocalIssuerSecret string
}

type RegistryConfig struct {
	FilePath    string
	LockTimeout time.Duration
}

type RoutingConfig struct {
	// RedirectTarget is the raw platform identifier every external incoming
	// call is redirected to.
	RedirectTarget string
	// NativePrefix marks callees that are platform-native users; calls to
	// them are acknowledged without redirecting.
	NativePrefix string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("DAPR_HTTP_PORT", "3500")
	viper.SetDefault("USERS_FILE", "users.json")
	viper.SetDefault("USERS_LOCK_TIMEOUT", 5)
	viper.SetDefault("NATIVE_CALLEE_PREFIX", "8:acs")
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Secrets: SecretsConfig{
			StoreName: viper.GetString("SECRET_STORE_NAME"),
			DaprPort:  viper.GetString("DAPR_HTTP_PORT"),
		},
		ACS: ACSConfig{
			ConnectionString:  os.Getenv("COMMUNICATION_SERVICES_CONNECTION_STRING"),
			CallbackEventsURI: viper.GetString("CALLBACK_EVENTS_URI"),
			LocalIssuer:       viper.GetBool("LOCAL_ISSUER"),
			LocalIssuerSecret: os.Getenv("LOCAL_ISSUER_SECRET"),
		},
		Registry: RegistryConfig{
			FilePath:    viper.GetString("USERS_FILE"),
			LockTimeout: time.Duration(viper.GetInt("USERS_LOCK_TIMEOUT")) * time.Second,
		},
		Routing: RoutingConfig{
			RedirectTarget: viper.GetString("REDIRECT_TARGET_ID"),
			NativePrefix:   viper.GetString("NATIVE_CALLEE_PREFIX"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	// Basic validation: the redirect target is the whole point of the
	// routing path, and we need *some* way to issue identities.
	if cfg.Routing.RedirectTarget == "" {
		return nil, fmt.Errorf("environment variable REDIRECT_TARGET_ID is required")
	}
	if cfg.Secrets.StoreName == "" && cfg.ACS.ConnectionString == "" && !cfg.ACS.LocalIssuer {
		return nil, fmt.Errorf("no platform credentials: set SECRET_STORE_NAME, COMMUNICATION_SERVICES_CONNECTION_STRING or LOCAL_ISSUER")
	}
	if cfg.ACS.LocalIssuer && cfg.ACS.LocalIssuerSecret == "" {
		return nil, fmt.Errorf("LOCAL_ISSUER_SECRET is required when LOCAL_ISSUER is enabled")
	}

	return cfg, nil
}

// Summary returns a redacted, human-readable settings block for startup logs.
func (c *Config) Summary() string {
	conn := "unset"
	if c.ACS.ConnectionString != "" {
		conn = "set (redacted)"
	}
	return fmt.Sprintf(`<settings>
    secret_store_name: %s
    acs_connection_string: %s
    callback_events_uri: %s
    users_file: %s
    redirect_target: %s
</settings>`, c.Secrets.StoreName, conn, c.ACS.CallbackEventsURI, c.Registry.FilePath, c.Routing.RedirectTarget)
}
