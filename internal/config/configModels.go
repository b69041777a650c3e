package config

import (
	"strings"
	"time"
)

type Config struct {
	Env             string           `yaml:"env" env:"ENV" env-default:"local"`
	HttpServer      HttpServerConfig `yaml:"httpServer" env-required:"true"`
	DBConfig        DBConfig         `yaml:"db" env-required:"true"`
	IntakeConfig    IntakeConfig     `yaml:"intake"`
	StorageConfig   StorageConfig    `yaml:"storage"`
	MigrationConfig MigrationConfig  `yaml:"migration"`
	NotifierConfig  NotifierConfig   `yaml:"notifier"`
	ScraperConfig   ScraperConfig    `yaml:"scraper"`
}

type HttpServerConfig struct {
	Address string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost"`
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	Timeout time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"30s"`
	// CollectorSecret is the shared bearer credential of the external collector.
	// It is never a data-store credential.
	CollectorSecret string `yaml:"collectorSecret" env:"COLLECTOR_SECRET" env-required:"true"`
}

type DBConfig struct {
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	Name     string `yaml:"name" env:"DB_NAME" env-default:"postgres"`
	User     string `yaml:"user" env:"DB_USER" env-default:"user"`
	Password string `yaml:"password" env:"DB_PASSWORD" env-default:"password"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
}

type IntakeConfig struct {
	MaxBodyBytes        int64   `yaml:"maxBodyBytes" env:"INTAKE_MAX_BODY_BYTES" env-default:"1048576"`
	SimilarityThreshold float64 `yaml:"similarityThreshold" env:"INTAKE_SIMILARITY_THRESHOLD" env-default:"0.7"`
	DefaultPriceType    string  `yaml:"defaultPriceType" env:"INTAKE_DEFAULT_PRICE_TYPE" env-default:"varies"`
	// DefaultTimezone is the IANA zone of submitted timestamps without an offset.
	DefaultTimezone string `yaml:"defaultTimezone" env:"INTAKE_DEFAULT_TIMEZONE" env-default:"UTC"`
}

// Location returns the zone named by DefaultTimezone, UTC when empty.
func (i IntakeConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(i.DefaultTimezone) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(strings.TrimSpace(i.DefaultTimezone))
}

type StorageConfig struct {
	// RootDir is the directory backing the owned bucket.
	RootDir string `yaml:"rootDir" env:"STORAGE_ROOT_DIR" env-default:""`
	Bucket  string `yaml:"bucket" env:"STORAGE_BUCKET" env-default:"event-images"`
	// PublicBaseURL is the URL prefix under which the bucket is served, e.g. https://cdn.example.org/storage.
	PublicBaseURL string `yaml:"publicBaseURL" env:"STORAGE_PUBLIC_BASE_URL" env-default:""`
}

// Namespace returns the owned-storage URL prefix, or "" when storage is not configured.
func (s StorageConfig) Namespace() string {
	base := strings.TrimRight(strings.TrimSpace(s.PublicBaseURL), "/")
	bucket := strings.Trim(strings.TrimSpace(s.Bucket), "/")
	if base == "" || bucket == "" {
		return ""
	}
	return base + "/" + bucket + "/"
}

type MigrationConfig struct {
	DownloadTimeout time.Duration `yaml:"downloadTimeout" env:"MIGRATION_DOWNLOAD_TIMEOUT" env-default:"20s"`
	MaxAssetBytes   int64         `yaml:"maxAssetBytes" env:"MIGRATION_MAX_ASSET_BYTES" env-default:"10485760"`
	Concurrency     int           `yaml:"concurrency" env:"MIGRATION_CONCURRENCY" env-default:"4"`
	DefaultLimit    int           `yaml:"defaultLimit" env:"MIGRATION_DEFAULT_LIMIT" env-default:"50"`
	MaxLimit        int           `yaml:"maxLimit" env:"MIGRATION_MAX_LIMIT" env-default:"500"`
	UserAgent       string        `yaml:"userAgent" env:"MIGRATION_USER_AGENT" env-default:"eventsPipeline-media-migrator/1.0"`
}

type NotifierConfig struct {
	TgbotApiToken string  `yaml:"tgbot_apitoken" env:"TGBOT_APITOKEN" env-default:""`
	ChannelIDs    []int64 `yaml:"channelIDs" env:"TGBOT_CHANNEL_IDS" env-separator:","`
}

// Enabled reports whether review notifications should be sent.
func (n NotifierConfig) Enabled() bool {
	return n.TgbotApiToken != "" && len(n.ChannelIDs) > 0
}

// SiteConfig describes a site for the built-in collector.
type SiteConfig struct {
	Name string `yaml:"name"` // scraper name, e.g. "lococlub"
	URL  string `yaml:"url"`  // listing page URL
}

type ScraperConfig struct {
	JobBufferSize int          `yaml:"jobBufferSize" env:"SCRAPER_JOB_BUFFER_SIZE" env-default:"10"`
	WorkersCount  int          `yaml:"workersCount" env:"SCRAPER_WORKERS_COUNT" env-default:"3"`
	Timeout       int          `yaml:"timeout" env:"SCRAPER_TIMEOUT" env-default:"600"` //in seconds
	Sites         []SiteConfig `yaml:"sites"`
}
