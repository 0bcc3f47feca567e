package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Anthropic text generation. Empty key disables the service for the
	// whole run. There is no per-call retry of the credential lookup.
	AnthropicAPIKey string
	ClaudeModel     string
	// Override for the API endpoint, e.g. a proxy. Empty means the
	// public endpoint.
	AnthropicBaseURL string

	// Path to the Blender executable. Empty means auto-detect.
	BlenderPath string

	// AssetsDir is the root for everything the pipeline produces.
	AssetsDir   string
	SketchesDir string
	ImagesDir   string
	ModelsDir   string
	SessionsDir string

	SettingsPath string

	DBDriver   string // "sqlite" or "postgres"
	DBPath     string // sqlite file
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisURL string // empty disables the event mirror

	AllowedOrigins []string

	// AccessPassword gates the API when set; empty means open access.
	AccessPassword string
	JWTSecret      string
	JWTExpiry      time.Duration
}

func Load() *Config {
	godotenv.Load()
	godotenv.Load("../.env")

	assetsDir := getEnv("ASSETS_DIR", defaultAssetsDir())

	return &Config{
		Port: getEnv("PORT", "8080"),

		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		ClaudeModel:      getEnv("CLAUDE_MODEL", "claude-3-7-sonnet-20250219"),
		AnthropicBaseURL: os.Getenv("ANTHROPIC_BASE_URL"),

		BlenderPath: os.Getenv("BLENDER_PATH"),

		AssetsDir:   assetsDir,
		SketchesDir: filepath.Join(assetsDir, "sketches"),
		ImagesDir:   filepath.Join(assetsDir, "images"),
		ModelsDir:   filepath.Join(assetsDir, "models"),
		SessionsDir: filepath.Join(assetsDir, "sessions"),

		SettingsPath: getEnv("SETTINGS_PATH", filepath.Join(assetsDir, "settings.json")),

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBPath:     getEnv("DB_PATH", filepath.Join(assetsDir, "ideaboard.db")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "ideaboard"),
		DBPassword: getEnv("DB_PASSWORD", "ideaboard"),
		DBName:     getEnv("DB_NAME", "ideaboard"),

		RedisURL: os.Getenv("REDIS_URL"),

		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:8080")),

		AccessPassword: os.Getenv("ACCESS_PASSWORD"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		JWTExpiry:      parseDuration(getEnv("JWT_EXPIRY", "12h")),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=disable TimeZone=UTC"
}

// EnsureDirs creates the asset directory tree.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.AssetsDir, c.SketchesDir, c.ImagesDir, c.ModelsDir, c.SessionsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func defaultAssetsDir() string {
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "assets")
	}
	return "assets"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 12 * time.Hour
	}
	return d
}

func parseOrigins(s string) []string {
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
