package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Placeholder replaces missing secrets. Calls made with it fail upstream and the
// service falls back instead of refusing to start.
const Placeholder = "placeholder"

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
		MaxBodyBytes   int64    `yaml:"maxBodyBytes"`
	} `yaml:"server"`

	AI struct {
		APIKey  string `yaml:"apiKey"`
		BaseURL string `yaml:"baseURL"`
		Model   string `yaml:"model"`
	} `yaml:"ai"`

	Database struct {
		Driver   string `yaml:"driver"` // postgres | mysql | sqlite
		URL      string `yaml:"url"`    // full DSN, wins over the fields below
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
		Path     string `yaml:"path"` // sqlite file
	} `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Fallback struct {
		MaskModelErrors bool `yaml:"maskModelErrors"`
		MaskStoreErrors bool `yaml:"maskStoreErrors"`
	} `yaml:"fallback"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 8080
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Server.MaxBodyBytes = 10 << 20
	cfg.Database.Driver = "postgres"
	cfg.Database.Port = 5432
	cfg.Database.Name = "postgres"
	cfg.Database.User = "postgres"
	cfg.Database.SSLMode = "require"
	cfg.Database.Path = "stoolscan.db"
	cfg.Minio.BucketName = "stool-uploads"
	cfg.Fallback.MaskModelErrors = true
	cfg.Fallback.MaskStoreErrors = true
	return &cfg
}

// Load baca file config.yaml di atas Default(), lalu override dari env.
// File tidak ada bukan error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("config: %s not found, using defaults", path)
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	for _, w := range cfg.fillSecrets() {
		log.Printf("WARNING: %s", w)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = p
	}
	c.AI.APIKey = apiKeyFromEnv(c.AI.APIKey)
	setString(&c.AI.BaseURL, "AI_BASE_URL")
	setString(&c.AI.Model, "AI_MODEL")
	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.Password, "DATABASE_PASSWORD")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	if v := os.Getenv("FALLBACK_MASK_ERRORS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("FALLBACK_MASK_ERRORS: %w", err)
		}
		c.Fallback.MaskModelErrors = b
		c.Fallback.MaskStoreErrors = b
	}
	return nil
}

// GEMINI_API_KEY menang karena endpoint default adalah Gemini
func apiKeyFromEnv(current string) string {
	gemini, openai := os.Getenv("GEMINI_API_KEY"), os.Getenv("OPENAI_API_KEY")
	switch {
	case gemini != "" && openai != "":
		if gemini != openai {
			log.Printf("WARNING: both GEMINI_API_KEY and OPENAI_API_KEY are set, using GEMINI_API_KEY")
		}
		return gemini
	case gemini != "":
		return gemini
	case openai != "":
		return openai
	}
	return current
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// fillSecrets isi secret yang kosong dengan Placeholder, return daftar warning
func (c *Config) fillSecrets() []string {
	var warnings []string
	if strings.TrimSpace(c.AI.APIKey) == "" {
		c.AI.APIKey = Placeholder
		warnings = append(warnings, "GEMINI_API_KEY is not set, model calls will fail and return the fallback analysis")
	}
	if c.Database.Driver != "sqlite" && c.Database.URL == "" && c.Database.Password == "" {
		c.Database.Password = Placeholder
		warnings = append(warnings, "database credentials are not set, history will not be persisted")
	}
	return warnings
}

// Helper untuk build URL koneksi lib/pq
func (c *Config) PostgresDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: url.Values{"sslmode": {c.Database.SSLMode}}.Encode(),
	}
	return u.String()
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}
