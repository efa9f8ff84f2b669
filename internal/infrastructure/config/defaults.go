package config

import "time"

const (
	// defaultHTTPAddr is the fallback listen address when neither config nor
	// PORT provide one.
	defaultHTTPAddr    = ":8080"
	defaultHTTPTimeout = 30 * time.Second

	// defaultDataDriver keeps the dedupe and channel-cache stores in process
	// memory unless a Postgres DSN is configured.
	defaultDataDriver = "memory"

	defaultStorageDriver   = "local"
	defaultLocalStorageDir = "/var/lib/streamvault/archive"

	defaultNotifyTopic = "streamvault-live-events"

	defaultCookieSource = "file"
	defaultCookieEnvVar = "YOUTUBE_COOKIES"
	defaultCookieFile   = "/tmp/streamvault/cookies.txt"

	// Admission-control defaults: two worker slots and a 64-entry queue bound
	// concurrent resource use.
	defaultWorkers       = 2
	defaultQueueCapacity = 64
	defaultMaxRetries    = 3
	defaultBackoffBase   = 2 * time.Second

	defaultScratchDir = "/tmp/streamvault/downloads"
	// defaultScratchQuota caps total scratch disk at 20 GiB.
	defaultScratchQuota = int64(20) << 30

	defaultDownloadTimeout = 2 * time.Hour
	defaultUploadTimeout   = 30 * time.Minute

	// defaultDedupeWindow suppresses repeat notifications for the same live
	// event for 30 minutes.
	defaultDedupeWindow = 30 * time.Minute

	defaultChannelCacheTTL = 6 * time.Hour
	defaultWatchInterval   = 2 * time.Minute

	defaultExtractorBinary = "yt-dlp"
	defaultProbeTimeout    = 15 * time.Second
	defaultSocketTimeout   = 10 * time.Second
)

// DefaultTransientPatterns lists stderr fragments classified as retryable.
// The boundary is configuration, not per-call-site judgment.
func DefaultTransientPatterns() []string {
	return []string{
		"429",
		"too many requests",
		"timed out",
		"timeout",
		"temporary failure",
		"connection reset",
		"connection refused",
		"unable to download webpage",
		"http error 5",
	}
}

// DefaultPermanentPatterns lists stderr fragments classified as
// non-retryable.
func DefaultPermanentPatterns() []string {
	return []string{
		"members-only",
		"join this channel",
		"private video",
		"video unavailable",
		"does not exist",
		"404",
		"sign in",
		"cookie",
		"unsupported url",
		"invalid url",
	}
}
