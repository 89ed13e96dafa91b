package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lowrey/playerdb/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	DBURL                   string
	DBDisablePreparedBinary bool

	CacheEnabled bool
	CacheTTL     time.Duration

	CORSAllowedOrigins []string

	ESPNBaseURL             string
	ESPNLeagueID            int64
	ESPNSeasonYear          int
	ESPNS2                  string
	ESPNSWID                string
	ESPNTimeout             time.Duration
	ESPNMaxRetries          int
	ESPNCircuitEnabled      bool
	ESPNCircuitFailureCount int
	ESPNCircuitOpenTimeout  time.Duration
	ESPNCircuitHalfOpenMax  int

	SyncFreeAgentPageSize int
	SyncMinStatWeeks      int
	SyncInterval          time.Duration
	ProjectionMaxPrefetch int

	InternalJobToken string

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	PprofEnabled bool
	PprofAddr    string

	LogLevel logging.Level
}

func Load() (Config, error) {
	var cfg Config

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}
	cfg.AppEnv = appEnv
	cfg.ServiceName = getEnv("APP_SERVICE_NAME", "playerdb")
	cfg.ServiceVersion = getEnv("APP_SERVICE_VERSION", "dev")
	cfg.HTTPAddr = getEnv("APP_HTTP_ADDR", ":8080")
	cfg.LogLevel = parseLogLevel(getEnv("APP_LOG_LEVEL", "info"))

	cfg.ReadTimeout, err = getEnvAsDuration("APP_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	cfg.WriteTimeout, err = getEnvAsDuration("APP_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	cfg.DBURL = strings.TrimSpace(getEnv("DB_URL", ""))
	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	cfg.DBDisablePreparedBinary, err = getEnvAsBool("DB_DISABLE_PREPARED_BINARY_RESULT", false)
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cfg.CacheEnabled, err = getEnvAsBool("CACHE_ENABLED", true)
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cfg.CacheTTL, err = getEnvAsDuration("CACHE_TTL", 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cfg.CacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	cfg.CORSAllowedOrigins = splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*"))

	cfg.ESPNBaseURL = strings.TrimSpace(getEnv("ESPN_BASE_URL", ""))
	leagueID, err := getEnvAsInt("ESPN_LEAGUE_ID", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse ESPN_LEAGUE_ID: %w", err)
	}
	if leagueID <= 0 {
		return Config{}, fmt.Errorf("ESPN_LEAGUE_ID is required")
	}
	cfg.ESPNLeagueID = int64(leagueID)

	cfg.ESPNSeasonYear, err = getEnvAsInt("ESPN_SEASON_YEAR", time.Now().Year())
	if err != nil {
		return Config{}, fmt.Errorf("parse ESPN_SEASON_YEAR: %w", err)
	}
	if cfg.ESPNSeasonYear < 2000 {
		return Config{}, fmt.Errorf("ESPN_SEASON_YEAR must be a full year")
	}

	cfg.ESPNS2 = strings.TrimSpace(getEnv("ESPN_S2", ""))
	cfg.ESPNSWID = strings.TrimSpace(getEnv("ESPN_SWID", ""))

	cfg.ESPNTimeout, err = getEnvAsDuration("ESPN_TIMEOUT", 20*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse ESPN_TIMEOUT: %w", err)
	}
	cfg.ESPNMaxRetries, err = getEnvAsInt("ESPN_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse ESPN_MAX_RETRIES: %w", err)
	}
	if cfg.ESPNMaxRetries < 0 {
		return Config{}, fmt.Errorf("ESPN_MAX_RETRIES must be >= 0")
	}

	cfg.ESPNCircuitEnabled, err = getEnvAsBool("ESPN_CIRCUIT_ENABLED", true)
	if err != nil {
		return Config{}, fmt.Errorf("parse ESPN_CIRCUIT_ENABLED: %w", err)
	}
	cfg.ESPNCircuitFailureCount, err = getEnvAsInt("ESPN_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse ESPN_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.ESPNCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("ESPN_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	cfg.ESPNCircuitOpenTimeout, err = getEnvAsDuration("ESPN_CIRCUIT_OPEN_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse ESPN_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if cfg.ESPNCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("ESPN_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	cfg.ESPNCircuitHalfOpenMax, err = getEnvAsInt("ESPN_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse ESPN_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if cfg.ESPNCircuitHalfOpenMax < 1 {
		return Config{}, fmt.Errorf("ESPN_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	cfg.SyncFreeAgentPageSize, err = getEnvAsInt("SYNC_FA_PAGE_SIZE", 500)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_FA_PAGE_SIZE: %w", err)
	}
	if cfg.SyncFreeAgentPageSize < 1 {
		return Config{}, fmt.Errorf("SYNC_FA_PAGE_SIZE must be >= 1")
	}
	cfg.SyncMinStatWeeks, err = getEnvAsInt("SYNC_MIN_STAT_WEEKS", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_MIN_STAT_WEEKS: %w", err)
	}
	if cfg.SyncMinStatWeeks < 1 {
		return Config{}, fmt.Errorf("SYNC_MIN_STAT_WEEKS must be >= 1")
	}
	cfg.SyncInterval, err = getEnvAsDuration("SYNC_INTERVAL", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_INTERVAL: %w", err)
	}
	cfg.ProjectionMaxPrefetch, err = getEnvAsInt("PROJECTION_MAX_PREFETCH", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse PROJECTION_MAX_PREFETCH: %w", err)
	}
	if cfg.ProjectionMaxPrefetch < 1 {
		return Config{}, fmt.Errorf("PROJECTION_MAX_PREFETCH must be >= 1")
	}

	cfg.InternalJobToken = strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", ""))

	cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", false)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", false)
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName)
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	cfg.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}

	cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", false)
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	cfg.PprofAddr = strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
