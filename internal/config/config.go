package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dashmetrics/internal/api"
	"dashmetrics/internal/charts"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	API                api.Config
	DataPath           string
	LogDir             string
	CacheDir           string
	ExportDir          string
	DBPath             string
	CacheTTL           time.Duration
	CacheMaxEntries    int
	HistoryLimit       int
	ExportHistoryLimit int
	Theme              charts.Theme
	MockFallback       bool
	HTTPAddr           string
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Binary directory first, so a globally installed binary finds its own settings
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Working directory
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve data paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))
	cacheDir := filepath.Join(dataPath, "cache")
	exportDir := filepath.Join(dataPath, "exports")

	for _, dir := range []string{logDir, cacheDir, exportDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("Failed to create directory")
		}
	}

	cfg := &AppConfig{
		API: api.Config{
			BaseURL: getEnv("DASHMETRICS_API_URL", "http://localhost:8000/api"),
			Timeout: getEnvSeconds("DASHMETRICS_REQUEST_TIMEOUT_SECONDS", 30),
		},
		DataPath:           dataPath,
		LogDir:             logDir,
		CacheDir:           cacheDir,
		ExportDir:          exportDir,
		DBPath:             filepath.Join(dataPath, "dashmetrics.db"),
		CacheTTL:           getEnvSeconds("DASHMETRICS_CACHE_TTL_SECONDS", 300),
		CacheMaxEntries:    getEnvInt("DASHMETRICS_CACHE_MAX_ENTRIES", 20),
		HistoryLimit:       getEnvInt("DASHMETRICS_HISTORY_LIMIT", 100),
		ExportHistoryLimit: getEnvInt("DASHMETRICS_EXPORT_HISTORY_LIMIT", 50),
		Theme:              charts.ParseTheme(getEnv("DASHMETRICS_THEME", string(charts.Light))),
		MockFallback:       getEnvBool("DASHMETRICS_MOCK_FALLBACK", true),
		HTTPAddr:           getEnv("DASHMETRICS_HTTP_ADDR", "127.0.0.1:8090"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid integer setting")
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}
