package config

import (
	"os"
	"strconv"
	"strings"

	"pdf-toolkit/internal/domain"
)

const (
	defaultMaxFileSize     int64 = 50 * 1024 * 1024
	defaultMaxFiles              = 20
	defaultJPEGQuality           = 92
	defaultCompressQuality       = 50
)

var defaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:4173",
	"http://localhost:3000",
}

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort      string
	LogLevel        string
	LogFormat       string
	MaxFileSize     int64
	MaxFiles        int
	OutputDir       string
	JPEGQuality     int
	CompressQuality int
	AllowedOrigins  []string
	SupabaseURL     string
	SupabaseKey     string
	SupabaseBucket  string
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// PaaS hosts provide the listening port via PORT; SERVER_PORT is kept for local runs.
		ServerPort:      getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       getEnvOrDefault("LOG_FORMAT", "json"),
		MaxFileSize:     getEnvInt64OrDefault("MAX_FILE_SIZE", defaultMaxFileSize),
		MaxFiles:        getEnvIntInRange("MAX_FILES", defaultMaxFiles, 2, 500),
		OutputDir:       getEnvOrDefault("OUTPUT_DIR", "./output"),
		JPEGQuality:     getEnvIntInRange("JPEG_QUALITY", defaultJPEGQuality, 1, 100),
		CompressQuality: getEnvIntInRange("COMPRESS_QUALITY", defaultCompressQuality, 1, 100),
		AllowedOrigins:  getEnvListOrDefault("ALLOWED_ORIGINS", defaultAllowedOrigins),
		SupabaseURL:     getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:     getEnvOrDefault("SUPABASE_KEY", getEnvOrDefault("SUPABASE_ANON_KEY", "")),
		SupabaseBucket:  getEnvOrDefault("SUPABASE_BUCKET", "conversions"),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetLogFormat returns "json" or "console"
func (c *AppConfig) GetLogFormat() string {
	return c.LogFormat
}

// GetMaxFileSize returns the maximum allowed size of one input file
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetMaxFiles returns the maximum number of files per run
func (c *AppConfig) GetMaxFiles() int {
	return c.MaxFiles
}

// GetOutputDir returns the directory used by the local save mechanism
func (c *AppConfig) GetOutputDir() string {
	return c.OutputDir
}

// GetJPEGQuality returns the JPEG encoder quality for page images
func (c *AppConfig) GetJPEGQuality() int {
	return c.JPEGQuality
}

// GetCompressQuality returns the quality value written by compress-pdf
func (c *AppConfig) GetCompressQuality() int {
	return c.CompressQuality
}

// GetAllowedOrigins returns the CORS origin allow-list
func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetSupabaseBucket returns the storage bucket for auto-saved archives
func (c *AppConfig) GetSupabaseBucket() string {
	return c.SupabaseBucket
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvIntInRange(key string, defaultValue, min, max int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue >= min && intValue <= max {
			return intValue
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
