package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "NEWS_INGEST_CONFIG"
	mongoURIEnv       = "MONGODB_URI"
	imageSearchKeyEnv = "IMAGE_SEARCH_API_KEY"
	logLevelEnv       = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig     `yaml:"logging"`
	Mongo      MongoConfig       `yaml:"mongo"`
	Scheduler  SchedulerConfig   `yaml:"scheduler"`
	Ingest     IngestConfig      `yaml:"ingest"`
	Images     ImagesConfig      `yaml:"images"`
	Feeds      []FeedConfig      `yaml:"feeds"`
	Filter     FilterConfig      `yaml:"filter"`
	Categories map[string]string `yaml:"categories"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// MongoConfig describes the document-store connection.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// SchedulerConfig defines the two recurring cadences (standard 5-field cron).
type SchedulerConfig struct {
	FeedOnlySpec string         `yaml:"feedOnlySpec"`
	FullSpec     string         `yaml:"fullSpec"`
	Timezone     string         `yaml:"timezone"`
	location     *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// IngestConfig tunes the pipeline itself.
type IngestConfig struct {
	FeedDelaySeconds int `yaml:"feedDelaySeconds"`
	MaxSlugAttempts  int `yaml:"maxSlugAttempts"`
}

// ImagesConfig tunes the image fallback chain.
type ImagesConfig struct {
	Dir               string `yaml:"dir"`
	PublicPrefix      string `yaml:"publicPrefix"`
	Width             int    `yaml:"width"`
	Height            int    `yaml:"height"`
	Quality           int    `yaml:"quality"`
	SearchEndpoint    string `yaml:"searchEndpoint"`
	SearchAPIKey      string `yaml:"searchApiKey"`
	MaxRetries        int    `yaml:"maxRetries"`
	RetryDelaySeconds int    `yaml:"retryDelaySeconds"`
	BackfillLimit     int    `yaml:"backfillLimit"`
	Caption           string `yaml:"caption"`
}

// FeedConfig describes one polled feed endpoint.
type FeedConfig struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

// FilterConfig carries the known publisher-name list for attribution
// stripping; empty means the compiled-in default list.
type FilterConfig struct {
	Sources []string `yaml:"sources"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Feeds) == 0 {
		cfg.Feeds = defaultConfig().Feeds
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = defaultConfig().Categories
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(mongoURIEnv); v != "" {
		c.Mongo.URI = v
	}

	if v := os.Getenv(imageSearchKeyEnv); v != "" {
		c.Images.SearchAPIKey = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Mongo.URI != "" {
		base.Mongo.URI = override.Mongo.URI
	}
	if override.Mongo.Database != "" {
		base.Mongo.Database = override.Mongo.Database
	}
	if override.Mongo.Collection != "" {
		base.Mongo.Collection = override.Mongo.Collection
	}

	if override.Scheduler.FeedOnlySpec != "" {
		base.Scheduler.FeedOnlySpec = override.Scheduler.FeedOnlySpec
	}
	if override.Scheduler.FullSpec != "" {
		base.Scheduler.FullSpec = override.Scheduler.FullSpec
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Ingest.FeedDelaySeconds > 0 {
		base.Ingest.FeedDelaySeconds = override.Ingest.FeedDelaySeconds
	}
	if override.Ingest.MaxSlugAttempts > 0 {
		base.Ingest.MaxSlugAttempts = override.Ingest.MaxSlugAttempts
	}

	if override.Images.Dir != "" {
		base.Images.Dir = override.Images.Dir
	}
	if override.Images.PublicPrefix != "" {
		base.Images.PublicPrefix = override.Images.PublicPrefix
	}
	if override.Images.Width > 0 {
		base.Images.Width = override.Images.Width
	}
	if override.Images.Height > 0 {
		base.Images.Height = override.Images.Height
	}
	if override.Images.Quality > 0 {
		base.Images.Quality = override.Images.Quality
	}
	if override.Images.SearchEndpoint != "" {
		base.Images.SearchEndpoint = override.Images.SearchEndpoint
	}
	if override.Images.SearchAPIKey != "" {
		base.Images.SearchAPIKey = override.Images.SearchAPIKey
	}
	if override.Images.MaxRetries > 0 {
		base.Images.MaxRetries = override.Images.MaxRetries
	}
	if override.Images.RetryDelaySeconds > 0 {
		base.Images.RetryDelaySeconds = override.Images.RetryDelaySeconds
	}
	if override.Images.BackfillLimit > 0 {
		base.Images.BackfillLimit = override.Images.BackfillLimit
	}
	if override.Images.Caption != "" {
		base.Images.Caption = override.Images.Caption
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}
	if len(override.Filter.Sources) > 0 {
		base.Filter = override.Filter
	}
	if len(override.Categories) > 0 {
		base.Categories = override.Categories
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "news",
			Collection: "articles",
		},
		Scheduler: SchedulerConfig{
			FeedOnlySpec: "*/30 * * * *",
			FullSpec:     "15 */6 * * *",
			Timezone:     defaultTimezone,
			location:     tz,
		},
		Ingest: IngestConfig{
			FeedDelaySeconds: 5,
			MaxSlugAttempts:  1000,
		},
		Images: ImagesConfig{
			Dir:               "public/images/news",
			PublicPrefix:      "/images/news",
			Width:             300,
			Height:            200,
			Quality:           85,
			SearchEndpoint:    "https://api.openverse.org/v1/images/",
			MaxRetries:        3,
			RetryDelaySeconds: 2,
			BackfillLimit:     20,
			Caption:           "5WH Media",
		},
		Feeds: []FeedConfig{
			{Name: "Babushahi", URL: "https://www.babushahi.com/rss.xml", Category: "punjab"},
			{Name: "Daily Post Punjab", URL: "https://dailypost.in/feed/", Category: "punjab"},
			{Name: "PTC News", URL: "https://www.ptcnews.tv/rss", Category: "national"},
		},
		Categories: map[string]string{
			"punjab":        "national",
			"india":         "national",
			"national":      "national",
			"world":         "international",
			"international": "international",
			"politics":      "politics",
			"sports":        "sports",
			"business":      "business",
			"tech":          "technology",
			"technology":    "technology",
			"entertainment": "entertainment",
			"health":        "health",
		},
	}
}
