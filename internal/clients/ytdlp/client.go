// Package ytdlp adapts the yt-dlp binary to the extraction contract used by
// the pipeline, the live monitor and the channel cache.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/models"
	"github.com/oshiworks/streamvault/internal/services"

	"github.com/go-kratos/kratos/v2/log"
)

// mergedExtensions are checked, in order, when locating the downloaded
// artifact.
var mergedExtensions = []string{"mkv", "mp4", "webm"}

// Client shells out to yt-dlp. One Client is shared by all workers; every
// invocation is independent.
type Client struct {
	cfg        config.Extractor
	classifier *Classifier
	// cookiesFile is used by metadata probes; downloads get their cookie
	// path per invocation through DownloadInput.
	cookiesFile string
	log         *log.Helper
}

// NewClient builds the adapter.
func NewClient(cfg config.Extractor, cookies config.Cookies, logger log.Logger) *Client {
	return &Client{
		cfg:         cfg,
		classifier:  NewClassifier(cfg),
		cookiesFile: cookies.File,
		log:         log.NewHelper(logger),
	}
}

// probeResult mirrors the subset of yt-dlp's JSON dump we consume.
type probeResult struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Uploader         string `json:"uploader"`
	UploaderID       string `json:"uploader_id"`
	ChannelID        string `json:"channel_id"`
	Channel          string `json:"channel"`
	IsLive           bool   `json:"is_live"`
	ViewCount        int64  `json:"view_count"`
	ReleaseTimestamp int64  `json:"release_timestamp"`
	Thumbnail        string `json:"thumbnail"`
}

// Download fetches the media into in.DestDir and returns the artifact path.
// Live streams are captured from their start and merged to mkv.
func (c *Client) Download(ctx context.Context, in services.DownloadInput) (string, error) {
	template := filepath.Join(in.DestDir, in.VideoID+".%(ext)s")
	args := []string{
		"--output", template,
		"-f", "bestvideo+bestaudio/best",
		"--merge-output-format", "mkv",
		"--no-playlist",
		"--newline",
		"--progress",
	}
	if c.cfg.LiveFromStart {
		args = append(args, "--live-from-start")
	}
	if in.CookiesFile != "" {
		args = append(args, "--cookies", in.CookiesFile)
	}
	args = append(args, in.VideoURL)

	cmd := exec.CommandContext(ctx, c.cfg.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", &services.ExtractError{Reason: "spawn_failed", Class: services.FailureTransient, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return "", &services.ExtractError{Reason: "spawn_failed", Class: services.FailureTransient, Err: err}
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			c.log.Debugf("[yt-dlp] %s", line)
		}
	}
	if err := scanner.Err(); err != nil {
		// The pipe must be drained after an aborted scan or the child blocks
		// writing stdout and Wait never returns.
		c.log.Warnf("yt-dlp output read aborted: %v", err)
		_, _ = io.Copy(io.Discard, stdout)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", c.classifier.Classify(stderr.String(), fmt.Errorf("yt-dlp download: %w", err))
	}

	for _, ext := range mergedExtensions {
		p := filepath.Join(in.DestDir, in.VideoID+"."+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", &services.ExtractError{
		Reason: "artifact_missing",
		Class:  services.FailurePermanent,
		Err:    errors.New("yt-dlp reported success but no artifact found"),
	}
}

// CheckLive probes the channel's /live endpoint. A channel that is simply
// offline is a successful check, not an error.
func (c *Client) CheckLive(ctx context.Context, handle string) (*models.LiveStatus, error) {
	status := &models.LiveStatus{CheckedAt: time.Now().UTC()}

	out, stderr, err := c.probe(ctx, liveURL(handle))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		classified := c.classifier.Classify(stderr, err)
		if classified.Reason == "extraction_failed" {
			// Offline channels make yt-dlp exit non-zero without any of the
			// known error signatures.
			return status, nil
		}
		return nil, classified
	}

	var res probeResult
	if err := json.Unmarshal(out, &res); err != nil {
		return nil, &services.ExtractError{Reason: "malformed_metadata", Class: services.FailureTransient, Err: err}
	}
	if !res.IsLive {
		return status, nil
	}

	status.IsLive = true
	status.Stream = &models.LiveStream{
		VideoID:   res.ID,
		Title:     res.Title,
		Uploader:  res.Uploader,
		ChannelID: res.ChannelID,
		ViewCount: res.ViewCount,
		Thumbnail: res.Thumbnail,
	}
	if res.ReleaseTimestamp > 0 {
		status.Stream.StartedAt = time.Unix(res.ReleaseTimestamp, 0).UTC()
	}
	return status, nil
}

// ChannelInfo resolves a handle into its channel id and metadata blob.
func (c *Client) ChannelInfo(ctx context.Context, handle string) (*models.ChannelInfo, error) {
	out, stderr, err := c.probe(ctx, channelURL(handle), "--dump-single-json")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, c.classifier.Classify(stderr, err)
	}

	var res struct {
		ID        string `json:"id"`
		ChannelID string `json:"channel_id"`
		Channel   string `json:"channel"`
		Title     string `json:"title"`
	}
	if err := json.Unmarshal(out, &res); err != nil {
		return nil, &services.ExtractError{Reason: "malformed_metadata", Class: services.FailureTransient, Err: err}
	}

	channelID := res.ChannelID
	if channelID == "" {
		channelID = res.ID
	}
	if channelID == "" {
		return nil, &services.ExtractError{
			Reason: "channel_not_found",
			Class:  services.FailurePermanent,
			Err:    errors.New("metadata has no channel id"),
		}
	}
	return &models.ChannelInfo{
		ChannelID: channelID,
		Title:     res.Title,
		Metadata:  json.RawMessage(out),
	}, nil
}

// probe runs a metadata-only yt-dlp invocation with the probe timeout.
func (c *Client) probe(ctx context.Context, url string, extraArgs ...string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	args := []string{
		"--skip-download",
		"--no-playlist",
		"--socket-timeout", strconv.Itoa(int(c.cfg.SocketTimeout.Seconds())),
	}
	if len(extraArgs) == 0 {
		args = append(args, "--dump-json")
	} else {
		args = append(args, extraArgs...)
	}
	if c.cookiesFile != "" {
		if _, err := os.Stat(c.cookiesFile); err == nil {
			args = append(args, "--cookies", c.cookiesFile)
		}
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, c.cfg.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, stderr.String(), fmt.Errorf("yt-dlp probe: %w", err)
	}
	return stdout.Bytes(), stderr.String(), nil
}

func liveURL(handle string) string {
	return "https://www.youtube.com/" + handle + "/live"
}

func channelURL(handle string) string {
	if strings.HasPrefix(handle, "@") {
		return "https://www.youtube.com/" + handle
	}
	return "https://www.youtube.com/@" + handle
}
