package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Nats     NatsConfig
	Keys     APIKeys
	Editor   EditorConfig
	Otel     OtelConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	UploadDir          string
	MaxImageSize       int
}

type DatabaseConfig struct {
	Connection      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type NatsConfig struct {
	URL     string
	Enabled bool
}

type APIKeys struct {
	JwtSecret string
}

type EditorConfig struct {
	CreateMinLength   int
	EditMinLength     int
	SessionTTL        time.Duration
	CleanupInterval   time.Duration
	MediaCleanupTopic string
	// PreviewRoute is the public prefix pending images are served from
	PreviewRoute string
}

type OtelConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.json"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "ws.log.json"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
			MaxImageSize:       getEnvAsInt("MAX_IMAGE_SIZE", 5*1024*1024),
		},
		Database: DatabaseConfig{
			Connection:      getEnv("DB_CONNECTION_STRING", ""),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: time.Duration(getEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 60)) * time.Minute,
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Nats: NatsConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Enabled: getEnvAsBool("NATS_ENABLED", true),
		},
		Keys: APIKeys{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Editor: EditorConfig{
			CreateMinLength:   getEnvAsInt("EDITOR_CREATE_MIN_LENGTH", 50),
			EditMinLength:     getEnvAsInt("EDITOR_EDIT_MIN_LENGTH", 200),
			SessionTTL:        time.Duration(getEnvAsInt("EDITOR_SESSION_TTL_MINUTES", 60)) * time.Minute,
			CleanupInterval:   time.Duration(getEnvAsInt("EDITOR_CLEANUP_INTERVAL_MINUTES", 10)) * time.Minute,
			MediaCleanupTopic: getEnv("MEDIA_CLEANUP_TOPIC_NAME", "BLOG_MEDIA_CLEANUP"),
			PreviewRoute:      strings.TrimSuffix(getEnv("EDITOR_PREVIEW_ROUTE", "/uploads"), "/"),
		},
		Otel: OtelConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "blog-editor-be"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
