// Package config provides configuration types and defaults for vidbrain.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/vidbrain/internal/log"
	"github.com/zjrosen/vidbrain/internal/tracing"
)

// Config holds all configuration options for vidbrain.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Upload  UploadConfig  `mapstructure:"upload"`
	UI      UIConfig      `mapstructure:"ui"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Cache   CacheConfig   `mapstructure:"cache"`
}

// ServerConfig locates the analysis service.
type ServerConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"` // whole-request timeout; uploads are slow
}

// ChatConfig holds conversation texts.
type ChatConfig struct {
	Greeting        string `mapstructure:"greeting"`         // seeded agent turn
	FallbackMessage string `mapstructure:"fallback_message"` // agent turn shown when a reply fails
}

// UploadConfig holds upload view options.
type UploadConfig struct {
	ErrorMessage string   `mapstructure:"error_message"`
	StartDir     string   `mapstructure:"start_dir"` // file picker start directory (default: cwd)
	Watch        bool     `mapstructure:"watch"`     // refresh the picker when files change
	Extensions   []string `mapstructure:"extensions"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	ShowStatusBar bool   `mapstructure:"show_status_bar"`
	MarkdownStyle string `mapstructure:"markdown_style"` // "dark" (default) or "light"
}

// TracingConfig holds distributed tracing configuration for service calls.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/vidbrain/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// CacheConfig tunes local caches.
type CacheConfig struct {
	PreviewTTL time.Duration `mapstructure:"preview_ttl"`
}

// Provider converts to the tracing package's config.
func (t TracingConfig) Provider() tracing.Config {
	return tracing.Config{
		Enabled:      t.Enabled,
		Exporter:     t.Exporter,
		FilePath:     t.FilePath,
		OTLPEndpoint: t.OTLPEndpoint,
		SampleRate:   t.SampleRate,
		ServiceName:  tracing.DefaultServiceName,
	}
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/vidbrain/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "vidbrain", "traces", "traces.jsonl")
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 5 * time.Minute,
		},
		Chat: ChatConfig{
			Greeting:        "Video processed! Ask me anything about it.",
			FallbackMessage: "Error: Could not get response from agent.",
		},
		Upload: UploadConfig{
			ErrorMessage: "Failed to upload/process video. Ensure backend is running.",
			Watch:        true,
			Extensions:   []string{".mp4", ".mov", ".avi", ".mkv"},
		},
		UI: UIConfig{
			ShowStatusBar: true,
			MarkdownStyle: "dark",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Cache: CacheConfig{
			PreviewTTL: 10 * time.Minute,
		},
	}
}

// Validate checks every section.
func Validate(cfg Config) error {
	if err := ValidateServer(cfg.Server); err != nil {
		return err
	}
	if err := ValidateUpload(cfg.Upload); err != nil {
		return err
	}
	if err := ValidateUI(cfg.UI); err != nil {
		return err
	}
	if err := ValidateTracing(cfg.Tracing); err != nil {
		return err
	}
	if cfg.Cache.PreviewTTL < 0 {
		return fmt.Errorf("cache.preview_ttl must not be negative, got %v", cfg.Cache.PreviewTTL)
	}
	return nil
}

// ValidateServer checks the service location.
func ValidateServer(server ServerConfig) error {
	u, err := url.Parse(server.BaseURL)
	if err != nil {
		return fmt.Errorf("server.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.base_url must use http or https, got %q", server.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("server.base_url must include a host, got %q", server.BaseURL)
	}
	if server.Timeout < 0 {
		return fmt.Errorf("server.timeout must not be negative, got %v", server.Timeout)
	}
	return nil
}

// ValidateUpload checks the picker extension filter.
func ValidateUpload(upload UploadConfig) error {
	for _, ext := range upload.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("upload.extensions entries must look like \".mp4\", got %q", ext)
		}
	}
	return nil
}

// ValidateUI checks user interface options.
func ValidateUI(ui UIConfig) error {
	switch ui.MarkdownStyle {
	case "", "dark", "light":
		return nil
	default:
		return fmt.Errorf("ui.markdown_style must be \"dark\" or \"light\", got %q", ui.MarkdownStyle)
	}
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default configuration as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# vidbrain Configuration

# Analysis service
server:
  base_url: http://localhost:8000  # Where POST /upload, POST /chat and /videos live
  timeout: 5m                      # Whole-request timeout; ingesting a video takes a while

# Conversation texts
chat:
  greeting: "Video processed! Ask me anything about it."
  fallback_message: "Error: Could not get response from agent."

# Upload view
upload:
  error_message: "Failed to upload/process video. Ensure backend is running."
  # start_dir: ~/Videos           # File picker start directory (default: current directory)
  watch: true                     # Refresh the picker when files change on disk
  extensions: [".mp4", ".mov", ".avi", ".mkv"]  # Highlighted in the picker; others can still be chosen

# UI settings
ui:
  show_status_bar: true   # Show status bar at bottom
  markdown_style: dark    # Agent reply rendering: dark or light (ctrl+t toggles)

# Local caches
cache:
  preview_ttl: 10m        # How long a probed file preview is reused

# Distributed tracing of service calls
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/vidbrain/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
