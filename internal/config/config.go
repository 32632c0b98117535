package config

import (
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/npri-watch/npri-api/internal/constants"
)

// AppConfig represents the entire application configuration
type AppConfig struct {
	App         AppSettings         `yaml:"app"`
	Database    DatabaseSettings    `yaml:"database"`
	Server      ServerSettings      `yaml:"server"`
	Logging     LoggingSettings     `yaml:"logging"`
	CORS        CORSSettings        `yaml:"cors"`
	RateLimit   RateLimitSettings   `yaml:"rate_limit"`
	Cache       CacheSettings       `yaml:"cache"`
	Breaker     BreakerSettings     `yaml:"breaker"`
	Passthrough PassthroughSettings `yaml:"passthrough"`
}

// AppSettings contains general application settings
type AppSettings struct {
	Environment string `yaml:"environment" env:"APP_ENV"`
	Name        string `yaml:"name" env:"APP_NAME"`
	Version     string `yaml:"version" env:"APP_VERSION"`
}

// DatabaseSettings contains database connection settings.
// The short variable names are accepted for compatibility with existing deployments.
type DatabaseSettings struct {
	Host         string        `yaml:"host" env:"DB_HOST,HO" validate:"required"`
	Port         int           `yaml:"port" env:"DB_PORT" validate:"min=1,max=65535"`
	Name         string        `yaml:"name" env:"DB_NAME,D" validate:"required"`
	User         string        `yaml:"user" env:"DB_USER,U" validate:"required"`
	Password     string        `yaml:"password" env:"DB_PASSWORD,P"`
	SSLMode      string        `yaml:"ssl_mode" env:"DB_SSLMODE" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" validate:"min=1"`
	QueryTimeout time.Duration `yaml:"query_timeout" env:"DB_QUERY_TIMEOUT" validate:"gt=0"`
}

// ServerSettings contains HTTP server settings
type ServerSettings struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT,PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a reverse proxy that sets those headers.
	TrustProxy bool `yaml:"trust_proxy" env:"SERVER_TRUST_PROXY"`
}

// LoggingSettings contains logging configuration
type LoggingSettings struct {
	Level      string `yaml:"level" env:"LOG_LEVEL" validate:"oneof=debug info warn error fatal panic"`
	Format     string `yaml:"format" env:"LOG_FORMAT" validate:"oneof=json console"`
	RequestLog bool   `yaml:"request_log" env:"LOG_REQUESTS"`
}

// CORSSettings contains CORS configuration
type CORSSettings struct {
	AllowedOrigins   []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	AllowCredentials bool     `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS"`
}

// RateLimitSettings limits requests per client IP on the query endpoints.
type RateLimitSettings struct {
	Enabled  bool          `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
	Requests int           `yaml:"requests" env:"RATE_LIMIT_REQUESTS" validate:"min=0"`
	Window   time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW"`
}

// CacheSettings selects and sizes the result cache.
type CacheSettings struct {
	Driver   string        `yaml:"driver" env:"CACHE_DRIVER" validate:"oneof=memory redis none"`
	TTL      time.Duration `yaml:"ttl" env:"CACHE_TTL"`
	Size     int           `yaml:"size" env:"CACHE_SIZE" validate:"min=0"`
	MaxBytes int           `yaml:"max_bytes" env:"CACHE_MAX_BYTES" validate:"min=0"`
	RedisURL string        `yaml:"redis_url" env:"CACHE_REDIS_URL,REDIS_URL" validate:"required_if=Driver redis"`
}

// BreakerSettings configures the circuit breaker in front of the database.
type BreakerSettings struct {
	Enabled          bool          `yaml:"enabled" env:"BREAKER_ENABLED"`
	MaxRequests      uint32        `yaml:"max_requests" env:"BREAKER_MAX_REQUESTS"`
	Interval         time.Duration `yaml:"interval" env:"BREAKER_INTERVAL"`
	Timeout          time.Duration `yaml:"timeout" env:"BREAKER_TIMEOUT"`
	FailureThreshold uint32        `yaml:"failure_threshold" env:"BREAKER_FAILURE_THRESHOLD"`
}

// PassthroughSettings controls the raw SQL endpoint.
type PassthroughSettings struct {
	Enabled bool `yaml:"enabled" env:"SQL_PASSTHROUGH_ENABLED"`
}

// ConnectionString returns the lib/pq connection URL.
func (dbs *DatabaseSettings) ConnectionString() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(dbs.Host, strconv.Itoa(dbs.Port)),
		Path:   "/" + dbs.Name,
	}
	if dbs.Password != "" {
		u.User = url.UserPassword(dbs.User, dbs.Password)
	} else {
		u.User = url.User(dbs.User)
	}

	q := url.Values{}
	q.Set("sslmode", dbs.SSLMode)
	q.Set("connect_timeout", strconv.Itoa(int(constants.DBConnectionTimeout.Seconds())))
	u.RawQuery = q.Encode()

	return u.String()
}

// ServerAddress returns the complete server address
func (ss *ServerSettings) ServerAddress() string {
	return net.JoinHostPort(ss.Host, strconv.Itoa(ss.Port))
}

// IsProduction checks if the application is running in production mode
func (as *AppSettings) IsProduction() bool {
	return strings.ToLower(as.Environment) == constants.EnvProduction
}

// Load loads the configuration from a config file and environment variables
func Load(configPath string) (*AppConfig, error) {
	config := &AppConfig{}
	setSwitchDefaults(config)

	// Load configuration from file if it exists
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}

			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}

	// Override with environment variables
	if err := LoadEnv(config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	// Passwords arrive percent-encoded so they can carry reserved characters.
	config.Database.Password = decodePassword(config.Database.Password)

	setDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logConfig(config)

	return config, nil
}

// decodePassword replaces valid %XX escapes and keeps any other '%' as it is,
// so "p%40ss" becomes "p@ss" while "100%secret" is left alone.
func decodePassword(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if v, err := hex.DecodeString(s[i+1 : i+3]); err == nil {
				b.WriteByte(v[0])
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// setSwitchDefaults enables the optional features before the file and
// environment are read, so that either can switch them off.
func setSwitchDefaults(config *AppConfig) {
	config.RateLimit.Enabled = true
	config.Breaker.Enabled = true
	config.Passthrough.Enabled = true
	config.Logging.RequestLog = true
}

// setDefaults sets default values for any missing configuration
func setDefaults(config *AppConfig) {
	if config.App.Environment == "" {
		config.App.Environment = constants.EnvDevelopment
	}
	if config.App.Name == "" {
		config.App.Name = constants.DefaultAppName
	}
	if config.App.Version == "" {
		config.App.Version = "1.0.0"
	}

	if config.Server.Port == 0 {
		config.Server.Port = constants.DefaultServerPort
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = constants.DefaultReadTimeout
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = constants.DefaultWriteTimeout
	}
	if config.Server.IdleTimeout == 0 {
		config.Server.IdleTimeout = constants.DefaultIdleTimeout
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = constants.DefaultShutdownTimeout
	}

	if config.Database.Port == 0 {
		config.Database.Port = constants.DefaultDBPort
	}
	if config.Database.SSLMode == "" {
		config.Database.SSLMode = constants.DefaultDBSSLMode
	}
	if config.Database.MaxOpenConns == 0 {
		config.Database.MaxOpenConns = constants.DefaultDBMaxOpenConns
	}
	if config.Database.QueryTimeout == 0 {
		config.Database.QueryTimeout = constants.DBQueryTimeout
	}

	if config.Logging.Level == "" {
		config.Logging.Level = constants.DefaultLogLevel
	}
	if config.Logging.Format == "" {
		config.Logging.Format = constants.DefaultLogFormat
	}

	if len(config.CORS.AllowedOrigins) == 0 {
		config.CORS.AllowedOrigins = []string{"*"}
	}

	if config.RateLimit.Requests == 0 {
		config.RateLimit.Requests = constants.DefaultRateLimitRequests
	}
	if config.RateLimit.Window == 0 {
		config.RateLimit.Window = constants.DefaultRateLimitWindow
	}

	if config.Cache.Driver == "" {
		config.Cache.Driver = constants.CacheDriverMemory
	}
	if config.Cache.TTL == 0 {
		config.Cache.TTL = constants.DefaultCacheTTL
	}
	if config.Cache.Size == 0 {
		config.Cache.Size = constants.DefaultCacheSize
	}
	if config.Cache.MaxBytes == 0 {
		config.Cache.MaxBytes = constants.DefaultCacheMaxBytes
	}

	if config.Breaker.MaxRequests == 0 {
		config.Breaker.MaxRequests = constants.DefaultBreakerMaxRequests
	}
	if config.Breaker.Interval == 0 {
		config.Breaker.Interval = constants.DefaultBreakerInterval
	}
	if config.Breaker.Timeout == 0 {
		config.Breaker.Timeout = constants.DefaultBreakerTimeout
	}
	if config.Breaker.FailureThreshold == 0 {
		config.Breaker.FailureThreshold = constants.DefaultBreakerFailureThreshold
	}
}

// validateConfig validates that the configuration has all required values
func validateConfig(config *AppConfig) error {
	env := strings.ToLower(config.App.Environment)
	if env != constants.EnvDevelopment && env != constants.EnvTesting && env != constants.EnvProduction {
		log.Warn().Str("environment", config.App.Environment).Msg("Invalid environment, defaulting to development")
		config.App.Environment = constants.EnvDevelopment
	}

	config.Logging.Level = strings.ToLower(config.Logging.Level)
	config.Cache.Driver = strings.ToLower(config.Cache.Driver)

	if err := validator.New().Struct(config); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed on the '%s' rule", fe.Namespace(), fe.Tag())
		}
		return err
	}

	return nil
}

// logConfig logs the current configuration, masking sensitive values
func logConfig(config *AppConfig) {
	logCfg := *config

	if logCfg.Database.Password != "" {
		logCfg.Database.Password = constants.LogRedactedValue
	}
	redisURL := logCfg.Cache.RedisURL
	if u, err := url.Parse(redisURL); err == nil && u.User != nil {
		redisURL = u.Redacted()
	}

	log.Info().
		Str("environment", logCfg.App.Environment).
		Str("version", logCfg.App.Version).
		Str("server", logCfg.Server.ServerAddress()).
		Str("db_host", logCfg.Database.Host).
		Int("db_port", logCfg.Database.Port).
		Str("db_name", logCfg.Database.Name).
		Str("db_password", logCfg.Database.Password).
		Dur("query_timeout", logCfg.Database.QueryTimeout).
		Str("cache_driver", logCfg.Cache.Driver).
		Str("cache_redis", redisURL).
		Bool("breaker", logCfg.Breaker.Enabled).
		Bool("sql_passthrough", logCfg.Passthrough.Enabled).
		Str("log_level", logCfg.Logging.Level).
		Msg("Configuration loaded")
}
