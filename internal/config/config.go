package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Civitai  CivitaiConfig
	Scrape   ScrapeConfig
	Paths    PathsConfig
	Logger   LoggerConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type CivitaiConfig struct {
	// APIKey is the bearer token created in the civitai account settings.
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type ScrapeConfig struct {
	// Wait is the delay between page fetches and between retries of the
	// same page. MaxRetries bounds attempts per page; MaxPages bounds the
	// whole run (0 means unbounded). Both are configuration, not contract.
	Wait        time.Duration
	MaxRetries  int
	MaxPages    int
	PageSize    int
	IncludeNSFW bool
}

type PathsConfig struct {
	// ResponseDir receives raw response snapshots; empty disables them.
	ResponseDir string
	// ImageDir receives downloaded image files; empty disables downloads.
	ImageDir string
}

type LoggerConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "civitai")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("CIVITAI_API_KEY", "")
	v.SetDefault("CIVITAI_BASE_URL", "https://civitai.com")
	v.SetDefault("CIVITAI_TIMEOUT", "60s")
	v.SetDefault("SCRAPE_WAIT", "2800ms")
	v.SetDefault("SCRAPE_MAX_RETRIES", 3)
	v.SetDefault("SCRAPE_MAX_PAGES", 0)
	v.SetDefault("SCRAPE_PAGE_SIZE", 100)
	v.SetDefault("SCRAPE_INCLUDE_NSFW", true)
	v.SetDefault("RESPONSE_DIR", "")
	v.SetDefault("IMAGE_DIR", "")
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "text")

	// Env
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), 30*time.Minute),
		},
		Civitai: CivitaiConfig{
			APIKey:  v.GetString("CIVITAI_API_KEY"),
			BaseURL: v.GetString("CIVITAI_BASE_URL"),
			Timeout: parseDuration(v.GetString("CIVITAI_TIMEOUT"), 60*time.Second),
		},
		Scrape: ScrapeConfig{
			Wait:        parseDuration(v.GetString("SCRAPE_WAIT"), 2800*time.Millisecond),
			MaxRetries:  v.GetInt("SCRAPE_MAX_RETRIES"),
			MaxPages:    v.GetInt("SCRAPE_MAX_PAGES"),
			PageSize:    v.GetInt("SCRAPE_PAGE_SIZE"),
			IncludeNSFW: v.GetBool("SCRAPE_INCLUDE_NSFW"),
		},
		Paths: PathsConfig{
			ResponseDir: v.GetString("RESPONSE_DIR"),
			ImageDir:    v.GetString("IMAGE_DIR"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
	}

	return cfg, nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
