package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envPort                  = "PORT"
	envServerReadTimeout     = "SERVER_READ_TIMEOUT"
	envServerWriteTimeout    = "SERVER_WRITE_TIMEOUT"
	envServerShutdownTimeout = "SERVER_SHUTDOWN_TIMEOUT"
	envDBHost                = "DB_HOST"
	envDBPort                = "DB_PORT"
	envDBName                = "DB_NAME"
	envDBUser                = "DB_USER"
	envDBPassword            = "DB_PASSWORD"
	envDBSSLMode             = "DB_SSL_MODE"
	envDBMaxConns            = "DB_MAX_CONNS"
	envDBMinConns            = "DB_MIN_CONNS"
	envJWTSecret             = "JWT_SECRET"
	envJWTExpiry             = "JWT_EXPIRY_MINUTES"
	envRedisAddr             = "REDIS_ADDR"
	envRedisPassword         = "REDIS_PASSWORD"
	envRedisDB               = "REDIS_DB"
	envAuthzWatchChannel     = "AUTHZ_WATCH_CHANNEL"
	envAPIPrefix             = "API_PREFIX"
	envAuthzDenyStatus       = "AUTHZ_DENY_STATUS"
	envAuthzLoadTimeout      = "AUTHZ_LOAD_TIMEOUT"
	envEnableProfiling       = "ENABLE_PROFILING"
	envAuthzRoleCacheTTL     = "AUTHZ_ROLE_CACHE_TTL"
)

const (
	defaultServerPort          = "8080"
	defaultServerReadTimeout   = 10 * time.Second
	defaultServerWriteTimeout  = 10 * time.Second
	defaultServerShutdown      = 10 * time.Second
	defaultDBHost              = "localhost"
	defaultDBPort              = 5432
	defaultDBName              = "institute"
	defaultDBUser              = "institute_app"
	defaultDBSSLMode           = "disable"
	defaultDBMaxConns          = 25
	defaultDBMinConns          = 5
	defaultJWTExpiry           = 60 * time.Minute
	defaultRedisDB             = 0
	defaultWatchChannel        = "authz:policy-updates"
	defaultAPIPrefix           = "/api"
	defaultDenyStatus          = http.StatusUnauthorized
	defaultLoadTimeout         = 30 * time.Second
	defaultRoleCacheTTL        = 30 * time.Second
	minJWTSecretLength         = 32
	minUniqueCharsInSecret     = 16
	minRepeatedCharThreshold   = 4
	maxRepeatedChars           = 2
	errPortRequiredFmt         = "PORT must be set"
	errDBPasswordRequiredFmt   = "DB_PASSWORD must be set"
	errJWTSecretRequiredFmt    = "JWT_SECRET must be set"
	errJWTSecretMinLengthFmt   = "JWT_SECRET must be at least %d characters"
	errJWTSecretLowEntropyFmt  = "JWT_SECRET has insufficient entropy (appears non-random). Use a cryptographically secure random string."
	errAPIPrefixFmt            = "API_PREFIX must start with '/' and must not end with '/': %q"
	errDenyStatusFmt           = "AUTHZ_DENY_STATUS must be 401 or 403, got %d"
	errLoadTimeoutFmt          = "AUTHZ_LOAD_TIMEOUT must be positive"
	errRoleCacheTTLFmt         = "AUTHZ_ROLE_CACHE_TTL must not be negative"
	errWatchChannelFmt         = "AUTHZ_WATCH_CHANNEL must be set when REDIS_ADDR is set"
	errInvalidConfigurationFmt = "invalid configuration: %w"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Authz    AuthzConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	EnableProfiling bool
}

type DatabaseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MaxConns int
	MinConns int
}

type JWTConfig struct {
	Secret         string
	ExpiryDuration time.Duration
}

// RedisConfig is optional. An empty Addr disables cross-instance policy sync.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	WatchChannel string
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type AuthzConfig struct {
	APIPrefix   string
	DenyStatus  int
	LoadTimeout time.Duration
	// RoleCacheTTL bounds how long a role id to name lookup is reused. Zero
	// disables the cache.
	RoleCacheTTL time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv(envPort, defaultServerPort),
			ReadTimeout:     getDurationEnv(envServerReadTimeout, defaultServerReadTimeout),
			WriteTimeout:    getDurationEnv(envServerWriteTimeout, defaultServerWriteTimeout),
			ShutdownTimeout: getDurationEnv(envServerShutdownTimeout, defaultServerShutdown),
			EnableProfiling: getBoolEnv(envEnableProfiling),
		},
		Database: LoadDatabase(),
		JWT: JWTConfig{
			Secret:         requireEnv(envJWTSecret),
			ExpiryDuration: getDurationEnv(envJWTExpiry, defaultJWTExpiry),
		},
		Redis: LoadRedis(),
		Authz: AuthzConfig{
			APIPrefix:    getEnv(envAPIPrefix, defaultAPIPrefix),
			DenyStatus:   getIntEnv(envAuthzDenyStatus, defaultDenyStatus),
			LoadTimeout:  getDurationEnv(envAuthzLoadTimeout, defaultLoadTimeout),
			RoleCacheTTL: getDurationEnv(envAuthzRoleCacheTTL, defaultRoleCacheTTL),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf(errInvalidConfigurationFmt, err)
	}

	return cfg, nil
}

// LoadDatabase reads only the database section. The admin CLI uses it for
// commands that never touch tokens.
func LoadDatabase() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv(envDBHost, defaultDBHost),
		Port:     getIntEnv(envDBPort, defaultDBPort),
		Database: getEnv(envDBName, defaultDBName),
		User:     getEnv(envDBUser, defaultDBUser),
		Password: getEnv(envDBPassword, ""),
		SSLMode:  getEnv(envDBSSLMode, defaultDBSSLMode),
		MaxConns: getIntEnv(envDBMaxConns, defaultDBMaxConns),
		MinConns: getIntEnv(envDBMinConns, defaultDBMinConns),
	}
}

// LoadRedis reads the optional policy-sync section.
func LoadRedis() RedisConfig {
	return RedisConfig{
		Addr:         getEnv(envRedisAddr, ""),
		Password:     getEnv(envRedisPassword, ""),
		DB:           getIntEnv(envRedisDB, defaultRedisDB),
		WatchChannel: getEnv(envAuthzWatchChannel, defaultWatchChannel),
	}
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf(errPortRequiredFmt)
	}

	if c.Database.Password == "" {
		return fmt.Errorf(errDBPasswordRequiredFmt)
	}

	if err := c.JWT.Validate(); err != nil {
		return err
	}

	if c.Redis.Enabled() && c.Redis.WatchChannel == "" {
		return fmt.Errorf(errWatchChannelFmt)
	}

	return c.Authz.Validate()
}

func (c *JWTConfig) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf(errJWTSecretRequiredFmt)
	}

	if len(c.Secret) < minJWTSecretLength {
		return fmt.Errorf(errJWTSecretMinLengthFmt, minJWTSecretLength)
	}

	if !hasMinimumEntropy(c.Secret) {
		return fmt.Errorf(errJWTSecretLowEntropyFmt)
	}

	return nil
}

func (c *AuthzConfig) Validate() error {
	prefix := c.APIPrefix
	if prefix == "" || prefix[0] != '/' || (len(prefix) > 1 && prefix[len(prefix)-1] == '/') {
		return fmt.Errorf(errAPIPrefixFmt, prefix)
	}

	if c.DenyStatus != http.StatusUnauthorized && c.DenyStatus != http.StatusForbidden {
		return fmt.Errorf(errDenyStatusFmt, c.DenyStatus)
	}

	if c.LoadTimeout <= 0 {
		return fmt.Errorf(errLoadTimeoutFmt)
	}

	if c.RoleCacheTTL < 0 {
		return fmt.Errorf(errRoleCacheTTLFmt)
	}

	return nil
}

func hasMinimumEntropy(secret string) bool {
	if len(secret) < minJWTSecretLength {
		return false
	}

	charCounts := make(map[rune]int)
	for _, char := range secret {
		charCounts[char]++
	}

	uniqueChars := len(charCounts)
	if uniqueChars < minUniqueCharsInSecret {
		return false
	}

	repeatedChars := 0
	for _, count := range charCounts {
		if count > len(secret)/minRepeatedCharThreshold {
			repeatedChars++
		}
	}

	return repeatedChars <= maxRepeatedChars
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func requireEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(messages.requiredEnvNotSet(key))
	}
	return value
}

// LoadJWT reads only the token section. The admin CLI uses it to mint tokens
// without requiring database settings.
func LoadJWT() (JWTConfig, error) {
	secret := os.Getenv(envJWTSecret)
	if secret == "" {
		return JWTConfig{}, messages.requiredEnvMissing(envJWTSecret)
	}

	cfg := JWTConfig{
		Secret:         secret,
		ExpiryDuration: getDurationEnv(envJWTExpiry, defaultJWTExpiry),
	}
	if err := cfg.Validate(); err != nil {
		return JWTConfig{}, fmt.Errorf(errInvalidConfigurationFmt, err)
	}

	return cfg, nil
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}
