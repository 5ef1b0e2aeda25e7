package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/loanwatch/loanwatch/internal/platform/logging"
)

// Config stores runtime configuration for the bot.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	LogLevel       logging.Level

	PlayerFile string

	ScanInterval          time.Duration
	WatchInterval         time.Duration
	TickTimeout           time.Duration
	KickoffLead           time.Duration
	ScanMaxWorkers        int
	WatchMaxWorkers       int
	NotFoundEvictionAfter int

	FotMobBaseURL               string
	FotMobTimeout               time.Duration
	FotMobMaxRetries            int
	FotMobCircuitEnabled        bool
	FotMobCircuitFailureCount   int
	FotMobCircuitOpenTimeout    time.Duration
	FotMobCircuitHalfOpenMaxReq int

	TwitterEnabled               bool
	TwitterBaseURL               string
	TwitterTimeout               time.Duration
	TwitterConsumerKey           string
	TwitterConsumerSecret        string
	TwitterAccessToken           string
	TwitterAccessSecret          string
	TwitterCircuitEnabled        bool
	TwitterCircuitFailureCount   int
	TwitterCircuitOpenTimeout    time.Duration
	TwitterCircuitHalfOpenMaxReq int

	InternalJobToken string

	PprofEnabled bool
	PprofAddr    string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	UptraceEnabled     bool
	UptraceDSN         string
	UptraceLogsEnabled bool
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	playerFile := strings.TrimSpace(getEnv("PLAYER_FILE", "ids.json"))
	if playerFile == "" {
		return Config{}, fmt.Errorf("PLAYER_FILE cannot be empty")
	}

	scanInterval, err := getEnvAsDuration("SCAN_INTERVAL", time.Hour)
	if err != nil {
		return Config{}, err
	}
	watchInterval, err := getEnvAsDuration("WATCH_INTERVAL", time.Minute)
	if err != nil {
		return Config{}, err
	}
	tickTimeout, err := getEnvAsDuration("TICK_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	kickoffLead, err := getEnvAsDuration("KICKOFF_LEAD", time.Hour)
	if err != nil {
		return Config{}, err
	}

	scanMaxWorkers, err := getEnvAsInt("SCAN_MAX_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCAN_MAX_WORKERS: %w", err)
	}
	if scanMaxWorkers < 1 {
		return Config{}, fmt.Errorf("SCAN_MAX_WORKERS must be >= 1")
	}
	watchMaxWorkers, err := getEnvAsInt("WATCH_MAX_WORKERS", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse WATCH_MAX_WORKERS: %w", err)
	}
	if watchMaxWorkers < 1 {
		return Config{}, fmt.Errorf("WATCH_MAX_WORKERS must be >= 1")
	}
	notFoundEvictionAfter, err := getEnvAsInt("NOT_FOUND_EVICTION_AFTER", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse NOT_FOUND_EVICTION_AFTER: %w", err)
	}
	if notFoundEvictionAfter < 1 {
		return Config{}, fmt.Errorf("NOT_FOUND_EVICTION_AFTER must be >= 1")
	}

	fotmobTimeout, err := getEnvAsDuration("FOTMOB_TIMEOUT", 20*time.Second)
	if err != nil {
		return Config{}, err
	}
	fotmobMaxRetries, err := getEnvAsInt("FOTMOB_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse FOTMOB_MAX_RETRIES: %w", err)
	}
	if fotmobMaxRetries < 0 {
		return Config{}, fmt.Errorf("FOTMOB_MAX_RETRIES must be >= 0")
	}
	fotmobCircuitEnabled, fotmobFailureCount, fotmobOpenTimeout, fotmobHalfOpenMaxReq, err := loadCircuitConfig("FOTMOB")
	if err != nil {
		return Config{}, err
	}

	twitterEnabled, err := strconv.ParseBool(getEnv("TWITTER_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse TWITTER_ENABLED: %w", err)
	}
	twitterTimeout, err := getEnvAsDuration("TWITTER_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	twitterConsumerKey := strings.TrimSpace(getEnv("TWITTER_CONSUMER_KEY", ""))
	twitterConsumerSecret := strings.TrimSpace(getEnv("TWITTER_CONSUMER_SECRET", ""))
	twitterAccessToken := strings.TrimSpace(getEnv("TWITTER_ACCESS_TOKEN", ""))
	twitterAccessSecret := strings.TrimSpace(getEnv("TWITTER_ACCESS_SECRET", ""))
	if twitterEnabled {
		for name, value := range map[string]string{
			"TWITTER_CONSUMER_KEY":    twitterConsumerKey,
			"TWITTER_CONSUMER_SECRET": twitterConsumerSecret,
			"TWITTER_ACCESS_TOKEN":    twitterAccessToken,
			"TWITTER_ACCESS_SECRET":   twitterAccessSecret,
		} {
			if value == "" {
				return Config{}, fmt.Errorf("%s is required when TWITTER_ENABLED=true", name)
			}
		}
	}
	twitterCircuitEnabled, twitterFailureCount, twitterOpenTimeout, twitterHalfOpenMaxReq, err := loadCircuitConfig("TWITTER")
	if err != nil {
		return Config{}, err
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second)
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	readTimeout, err := getEnvAsDuration("APP_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := getEnvAsDuration("APP_WRITE_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("APP_SERVICE_NAME", "loanwatch-bot"),
		ServiceVersion: getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		LogLevel:       parseLogLevel(getEnv("LOG_LEVEL", "info")),

		PlayerFile: playerFile,

		ScanInterval:          scanInterval,
		WatchInterval:         watchInterval,
		TickTimeout:           tickTimeout,
		KickoffLead:           kickoffLead,
		ScanMaxWorkers:        scanMaxWorkers,
		WatchMaxWorkers:       watchMaxWorkers,
		NotFoundEvictionAfter: notFoundEvictionAfter,

		FotMobBaseURL:               strings.TrimSpace(getEnv("FOTMOB_BASE_URL", "https://www.fotmob.com/api")),
		FotMobTimeout:               fotmobTimeout,
		FotMobMaxRetries:            fotmobMaxRetries,
		FotMobCircuitEnabled:        fotmobCircuitEnabled,
		FotMobCircuitFailureCount:   fotmobFailureCount,
		FotMobCircuitOpenTimeout:    fotmobOpenTimeout,
		FotMobCircuitHalfOpenMaxReq: fotmobHalfOpenMaxReq,

		TwitterEnabled:               twitterEnabled,
		TwitterBaseURL:               strings.TrimSpace(getEnv("TWITTER_BASE_URL", "https://api.twitter.com")),
		TwitterTimeout:               twitterTimeout,
		TwitterConsumerKey:           twitterConsumerKey,
		TwitterConsumerSecret:        twitterConsumerSecret,
		TwitterAccessToken:           twitterAccessToken,
		TwitterAccessSecret:          twitterAccessSecret,
		TwitterCircuitEnabled:        twitterCircuitEnabled,
		TwitterCircuitFailureCount:   twitterFailureCount,
		TwitterCircuitOpenTimeout:    twitterOpenTimeout,
		TwitterCircuitHalfOpenMaxReq: twitterHalfOpenMaxReq,

		InternalJobToken: strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),

		PprofEnabled: pprofEnabled,
		PprofAddr:    pprofAddr,

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,

		UptraceEnabled:     uptraceEnabled,
		UptraceDSN:         uptraceDSN,
		UptraceLogsEnabled: uptraceLogsEnabled,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}

	return cfg, nil
}

// loadCircuitConfig reads the four <PREFIX>_CIRCUIT_* variables shared by
// both external clients.
func loadCircuitConfig(prefix string) (bool, int, time.Duration, int, error) {
	enabled, err := strconv.ParseBool(getEnv(prefix+"_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return false, 0, 0, 0, fmt.Errorf("parse %s_CIRCUIT_ENABLED: %w", prefix, err)
	}
	failureCount, err := getEnvAsInt(prefix+"_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return false, 0, 0, 0, fmt.Errorf("parse %s_CIRCUIT_FAILURE_COUNT: %w", prefix, err)
	}
	if failureCount < 1 {
		return false, 0, 0, 0, fmt.Errorf("%s_CIRCUIT_FAILURE_COUNT must be >= 1", prefix)
	}
	openTimeout, err := getEnvAsDuration(prefix+"_CIRCUIT_OPEN_TIMEOUT", 15*time.Second)
	if err != nil {
		return false, 0, 0, 0, err
	}
	halfOpenMaxReq, err := getEnvAsInt(prefix+"_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return false, 0, 0, 0, fmt.Errorf("parse %s_CIRCUIT_HALF_OPEN_MAX_REQ: %w", prefix, err)
	}
	if halfOpenMaxReq < 1 {
		return false, 0, 0, 0, fmt.Errorf("%s_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1", prefix)
	}
	return enabled, failureCount, openTimeout, halfOpenMaxReq, nil
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

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}

	return out, nil
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
