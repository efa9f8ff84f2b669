// Package config loads the bootstrap YAML file into typed runtime
// configuration and applies environment overrides and documented defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	kconfig "github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/joho/godotenv"
)

const (
	envConfPath   = "CONF_PATH"
	envPort       = "PORT"
	envDatabase   = "DATABASE_URL"
	envBucket     = "BACKUP_BUCKET"
	envCookieFile = "COOKIES_FILE"
	envScratchDir = "SCRATCH_DIR"
	envAppEnv     = "APP_ENV"

	defaultConfPath = "configs"
)

var envFileNames = []string{".env.local", ".env"}

// Server holds transport settings.
type Server struct {
	HTTPAddr    string
	HTTPTimeout time.Duration
}

// Data selects and configures the backing stores for the dedupe table and
// the channel cache.
type Data struct {
	// Driver is "memory" or "postgres".
	Driver   string
	Postgres Postgres
}

// Postgres holds pool settings for the pgx driver.
type Postgres struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// Storage configures the durable backup target.
type Storage struct {
	// Driver is "gcs" or "local".
	Driver   string
	Bucket   string
	LocalDir string
}

// Notify configures the live-event publisher.
type Notify struct {
	Enabled   bool
	ProjectID string
	Topic     string
}

// Cookies configures where the extractor's authentication cookies come from.
type Cookies struct {
	// Source is "file", "env" or "none".
	Source string
	// EnvVar names the variable holding the cookie blob when Source is "env".
	EnvVar string
	// File is the on-disk cookies path handed to the extractor.
	File string
}

// Jobs configures the orchestrator and the pipeline.
type Jobs struct {
	Workers         int
	QueueCapacity   int
	MaxRetries      int
	BackoffBase     time.Duration
	ScratchDir      string
	ScratchQuota    int64
	DownloadTimeout time.Duration
	UploadTimeout   time.Duration
}

// Live configures the live monitor, dedupe window and channel cache.
type Live struct {
	DedupeWindow  time.Duration
	CacheTTL      time.Duration
	AutoBackup    bool
	WatchChannels []string
	WatchInterval time.Duration
}

// Extractor configures the yt-dlp adapter, including the transient/permanent
// classification boundary.
type Extractor struct {
	Binary        string
	ProbeTimeout  time.Duration
	SocketTimeout time.Duration
	LiveFromStart bool
	// TransientPatterns and PermanentPatterns are matched case-insensitively
	// against extractor stderr to classify failures.
	TransientPatterns []string
	PermanentPatterns []string
}

// Service identifies this instance in logs.
type Service struct {
	Name        string
	Version     string
	Environment string
	InstanceID  string
}

// Config is the fully resolved runtime configuration.
type Config struct {
	Service   Service
	Server    Server
	Data      Data
	Storage   Storage
	Notify    Notify
	Cookies   Cookies
	Jobs      Jobs
	Live      Live
	Extractor Extractor
}

// raw mirrors the YAML layout; durations arrive as strings and are parsed
// during Load.
type raw struct {
	Server struct {
		HTTP struct {
			Addr    string `json:"addr"`
			Timeout string `json:"timeout"`
		} `json:"http"`
	} `json:"server"`
	Data struct {
		Driver   string `json:"driver"`
		Postgres struct {
			DSN      string `json:"dsn"`
			MaxConns int32  `json:"max_conns"`
			MinConns int32  `json:"min_conns"`
		} `json:"postgres"`
	} `json:"data"`
	Storage struct {
		Driver   string `json:"driver"`
		Bucket   string `json:"bucket"`
		LocalDir string `json:"local_dir"`
	} `json:"storage"`
	Notify struct {
		Enabled   bool   `json:"enabled"`
		ProjectID string `json:"project_id"`
		Topic     string `json:"topic"`
	} `json:"notify"`
	Cookies struct {
		Source string `json:"source"`
		EnvVar string `json:"env_var"`
		File   string `json:"file"`
	} `json:"cookies"`
	Jobs struct {
		Workers         *int   `json:"workers"`
		QueueCapacity   *int   `json:"queue_capacity"`
		MaxRetries      *int   `json:"max_retries"`
		BackoffBase     string `json:"backoff_base"`
		ScratchDir      string `json:"scratch_dir"`
		ScratchQuota    int64  `json:"scratch_quota_bytes"`
		DownloadTimeout string `json:"download_timeout"`
		UploadTimeout   string `json:"upload_timeout"`
	} `json:"jobs"`
	Live struct {
		DedupeWindow  string   `json:"dedupe_window"`
		CacheTTL      string   `json:"cache_ttl"`
		AutoBackup    bool     `json:"auto_backup"`
		WatchChannels []string `json:"watch_channels"`
		WatchInterval string   `json:"watch_interval"`
	} `json:"live"`
	Extractor struct {
		Binary            string   `json:"binary"`
		ProbeTimeout      string   `json:"probe_timeout"`
		SocketTimeout     string   `json:"socket_timeout"`
		LiveFromStart     *bool    `json:"live_from_start"`
		TransientPatterns []string `json:"transient_patterns"`
		PermanentPatterns []string `json:"permanent_patterns"`
	} `json:"extractor"`
}

// ResolveConfPath applies the fallback chain: explicit flag, CONF_PATH env
// var, default directory.
func ResolveConfPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(envConfPath); env != "" {
		return env
	}
	return defaultConfPath
}

// Load reads the bootstrap file at confPath, applies env overrides and
// defaults, and validates the result. A missing file is tolerated: the
// service can start from defaults plus environment alone.
func Load(confPath, name, version string) (*Config, error) {
	loadEnvFiles(confPath)

	var r raw
	if _, err := os.Stat(confPath); err == nil {
		c := kconfig.New(kconfig.WithSource(file.NewSource(confPath)))
		defer c.Close()
		if err := c.Load(); err != nil {
			return nil, fmt.Errorf("load config %q: %w", confPath, err)
		}
		if err := c.Scan(&r); err != nil {
			return nil, fmt.Errorf("scan config %q: %w", confPath, err)
		}
	}

	cfg, err := build(&r)
	if err != nil {
		return nil, err
	}
	cfg.Service = serviceMetadata(name, version)
	applyEnvOverrides(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func build(r *raw) (*Config, error) {
	cfg := &Config{}
	var err error

	cfg.Server.HTTPAddr = fallback(r.Server.HTTP.Addr, defaultHTTPAddr)
	if cfg.Server.HTTPTimeout, err = duration(r.Server.HTTP.Timeout, defaultHTTPTimeout); err != nil {
		return nil, fmt.Errorf("server.http.timeout: %w", err)
	}

	cfg.Data.Driver = fallback(r.Data.Driver, defaultDataDriver)
	cfg.Data.Postgres.DSN = r.Data.Postgres.DSN
	cfg.Data.Postgres.MaxConns = r.Data.Postgres.MaxConns
	cfg.Data.Postgres.MinConns = r.Data.Postgres.MinConns

	cfg.Storage.Driver = fallback(r.Storage.Driver, defaultStorageDriver)
	cfg.Storage.Bucket = r.Storage.Bucket
	cfg.Storage.LocalDir = fallback(r.Storage.LocalDir, defaultLocalStorageDir)

	cfg.Notify.Enabled = r.Notify.Enabled
	cfg.Notify.ProjectID = r.Notify.ProjectID
	cfg.Notify.Topic = fallback(r.Notify.Topic, defaultNotifyTopic)

	cfg.Cookies.Source = fallback(r.Cookies.Source, defaultCookieSource)
	cfg.Cookies.EnvVar = fallback(r.Cookies.EnvVar, defaultCookieEnvVar)
	cfg.Cookies.File = fallback(r.Cookies.File, defaultCookieFile)

	// The counters use pointers in the raw mirror so an explicit zero is
	// distinguishable from an absent key and reaches validation.
	cfg.Jobs.Workers = intOr(r.Jobs.Workers, defaultWorkers)
	cfg.Jobs.QueueCapacity = intOr(r.Jobs.QueueCapacity, defaultQueueCapacity)
	cfg.Jobs.MaxRetries = intOr(r.Jobs.MaxRetries, defaultMaxRetries)
	if cfg.Jobs.BackoffBase, err = duration(r.Jobs.BackoffBase, defaultBackoffBase); err != nil {
		return nil, fmt.Errorf("jobs.backoff_base: %w", err)
	}
	cfg.Jobs.ScratchDir = fallback(r.Jobs.ScratchDir, defaultScratchDir)
	cfg.Jobs.ScratchQuota = fallbackInt64(r.Jobs.ScratchQuota, defaultScratchQuota)
	if cfg.Jobs.DownloadTimeout, err = duration(r.Jobs.DownloadTimeout, defaultDownloadTimeout); err != nil {
		return nil, fmt.Errorf("jobs.download_timeout: %w", err)
	}
	if cfg.Jobs.UploadTimeout, err = duration(r.Jobs.UploadTimeout, defaultUploadTimeout); err != nil {
		return nil, fmt.Errorf("jobs.upload_timeout: %w", err)
	}

	if cfg.Live.DedupeWindow, err = duration(r.Live.DedupeWindow, defaultDedupeWindow); err != nil {
		return nil, fmt.Errorf("live.dedupe_window: %w", err)
	}
	if cfg.Live.CacheTTL, err = duration(r.Live.CacheTTL, defaultChannelCacheTTL); err != nil {
		return nil, fmt.Errorf("live.cache_ttl: %w", err)
	}
	cfg.Live.AutoBackup = r.Live.AutoBackup
	cfg.Live.WatchChannels = r.Live.WatchChannels
	if cfg.Live.WatchInterval, err = duration(r.Live.WatchInterval, defaultWatchInterval); err != nil {
		return nil, fmt.Errorf("live.watch_interval: %w", err)
	}

	cfg.Extractor.Binary = fallback(r.Extractor.Binary, defaultExtractorBinary)
	if cfg.Extractor.ProbeTimeout, err = duration(r.Extractor.ProbeTimeout, defaultProbeTimeout); err != nil {
		return nil, fmt.Errorf("extractor.probe_timeout: %w", err)
	}
	if cfg.Extractor.SocketTimeout, err = duration(r.Extractor.SocketTimeout, defaultSocketTimeout); err != nil {
		return nil, fmt.Errorf("extractor.socket_timeout: %w", err)
	}
	cfg.Extractor.LiveFromStart = true
	if r.Extractor.LiveFromStart != nil {
		cfg.Extractor.LiveFromStart = *r.Extractor.LiveFromStart
	}
	cfg.Extractor.TransientPatterns = r.Extractor.TransientPatterns
	if len(cfg.Extractor.TransientPatterns) == 0 {
		cfg.Extractor.TransientPatterns = DefaultTransientPatterns()
	}
	cfg.Extractor.PermanentPatterns = r.Extractor.PermanentPatterns
	if len(cfg.Extractor.PermanentPatterns) == 0 {
		cfg.Extractor.PermanentPatterns = DefaultPermanentPatterns()
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if port := os.Getenv(envPort); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			cfg.Server.HTTPAddr = ":" + port
		}
	}
	if dsn := os.Getenv(envDatabase); dsn != "" {
		cfg.Data.Postgres.DSN = dsn
	}
	if bucket := os.Getenv(envBucket); bucket != "" {
		cfg.Storage.Bucket = bucket
	}
	if cookies := os.Getenv(envCookieFile); cookies != "" {
		cfg.Cookies.File = cookies
	}
	if scratch := os.Getenv(envScratchDir); scratch != "" {
		cfg.Jobs.ScratchDir = scratch
	}
}

func validate(cfg *Config) error {
	switch cfg.Data.Driver {
	case "memory":
	case "postgres":
		if cfg.Data.Postgres.DSN == "" {
			return fmt.Errorf("data.driver is postgres but no DSN configured (set DATABASE_URL)")
		}
	default:
		return fmt.Errorf("data.driver must be memory or postgres, got %q", cfg.Data.Driver)
	}
	switch cfg.Storage.Driver {
	case "gcs":
		if cfg.Storage.Bucket == "" {
			return fmt.Errorf("storage.driver is gcs but no bucket configured (set BACKUP_BUCKET)")
		}
	case "local":
	default:
		return fmt.Errorf("storage.driver must be gcs or local, got %q", cfg.Storage.Driver)
	}
	if cfg.Notify.Enabled && cfg.Notify.ProjectID == "" {
		return fmt.Errorf("notify.enabled requires notify.project_id")
	}
	if cfg.Jobs.Workers <= 0 {
		return fmt.Errorf("jobs.workers must be positive, got %d", cfg.Jobs.Workers)
	}
	if cfg.Jobs.QueueCapacity <= 0 {
		return fmt.Errorf("jobs.queue_capacity must be positive, got %d", cfg.Jobs.QueueCapacity)
	}
	if cfg.Jobs.MaxRetries < 0 {
		return fmt.Errorf("jobs.max_retries must not be negative, got %d", cfg.Jobs.MaxRetries)
	}
	return nil
}

func serviceMetadata(name, version string) Service {
	if name == "" {
		name = "streamvault"
	}
	if version == "" {
		version = "dev"
	}
	env := os.Getenv(envAppEnv)
	if env == "" {
		env = "development"
	}
	host, _ := os.Hostname()
	return Service{Name: name, Version: version, Environment: env, InstanceID: host}
}

// loadEnvFiles best-effort loads .env files next to the config path and in
// the working directory. Existing environment variables win.
func loadEnvFiles(confPath string) {
	dirs := []string{filepath.Dir(confPath), "."}
	seen := map[string]struct{}{}
	for _, dir := range dirs {
		for _, name := range envFileNames {
			p := filepath.Join(dir, name)
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			if _, err := os.Stat(p); err == nil {
				_ = godotenv.Load(p)
			}
		}
	}
}

func duration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func fallbackInt64(v, def int64) int64 {
	if v == 0 {
		return def
	}
	return v
}
