package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	Env     string
	LLM     LLMConfig
	Store   StoreConfig
	Archive ArchiveConfig
}

type LLMConfig struct {
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
	// RequestTimeout bounds one whole relay request, streaming included.
	RequestTimeout time.Duration
}

type StoreConfig struct {
	// Path is the JSON file used when no Postgres DSN is configured
	// (SESSION_STORE_PG_DSN, read by the session store itself).
	Path string
}

type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:    *port,
		Env:     env,
		LLM:     loadLLMConfig(),
		Store:   StoreConfig{Path: firstNonEmpty(strings.TrimSpace(os.Getenv("SESSION_STORE_PATH")), "tmp/chat_sessions.json")},
		Archive: loadArchiveConfig(env),
	}, nil
}

func loadLLMConfig() LLMConfig {
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("LLM_REQUEST_TIMEOUT_SEC")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Second
		}
	}
	return LLMConfig{
		Provider:       firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_PROVIDER")), "openai"),
		BaseURL:        strings.TrimSpace(os.Getenv("LLM_BASE_URL")),
		Model:          firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_MODEL")), "gpt-4o-mini"),
		APIKey:         strings.TrimSpace(os.Getenv("LLM_API_KEY")),
		RequestTimeout: timeout,
	}
}

func loadArchiveConfig(env string) ArchiveConfig {
	endpoint := resolveArchiveEndpoint(env)
	return ArchiveConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_S3_BUCKET")), "sketchflow-scenes"),
		UseSSL:    resolveArchiveUseSSL(env),
	}
}

func resolveArchiveEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("ARCHIVE_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("ARCHIVE_S3_ENDPOINT"))
}

func resolveArchiveUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARCHIVE_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
