package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/vidbrain/internal/tracing"
)

func TestDefaults_Valid(t *testing.T) {
	require.NoError(t, Validate(Defaults()))
}

func TestDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(DefaultConfigTemplate())))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	want := Defaults()
	require.Equal(t, want.Server, cfg.Server)
	require.Equal(t, want.Chat, cfg.Chat)
	require.Equal(t, want.Upload, cfg.Upload)
	require.Equal(t, want.UI, cfg.UI)
	require.Equal(t, want.Cache, cfg.Cache)
}

func TestValidateServer(t *testing.T) {
	tests := []struct {
		name    string
		server  ServerConfig
		wantErr string
	}{
		{name: "default", server: Defaults().Server},
		{name: "https", server: ServerConfig{BaseURL: "https://agent.example.com"}},
		{name: "bad scheme", server: ServerConfig{BaseURL: "ws://localhost:8000"}, wantErr: "must use http or https"},
		{name: "no host", server: ServerConfig{BaseURL: "http://"}, wantErr: "must include a host"},
		{name: "negative timeout", server: ServerConfig{BaseURL: "http://h", Timeout: -time.Second}, wantErr: "server.timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateServer(tt.server)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateUpload(t *testing.T) {
	require.NoError(t, ValidateUpload(UploadConfig{Extensions: []string{".mp4", ".webm"}}))
	require.ErrorContains(t, ValidateUpload(UploadConfig{Extensions: []string{"mp4"}}), `"mp4"`)
	require.Error(t, ValidateUpload(UploadConfig{Extensions: []string{"."}}))
}

func TestValidateUI(t *testing.T) {
	require.NoError(t, ValidateUI(UIConfig{MarkdownStyle: "light"}))
	require.NoError(t, ValidateUI(UIConfig{}))
	require.ErrorContains(t, ValidateUI(UIConfig{MarkdownStyle: "neon"}), "ui.markdown_style")
}

func TestValidateTracing(t *testing.T) {
	tests := []struct {
		name    string
		tracing TracingConfig
		wantErr string
	}{
		{name: "disabled defaults", tracing: Defaults().Tracing},
		{name: "sample rate too high", tracing: TracingConfig{SampleRate: 1.5}, wantErr: "sample_rate"},
		{name: "unknown exporter", tracing: TracingConfig{Exporter: "zipkin"}, wantErr: "tracing.exporter"},
		{name: "file without path", tracing: TracingConfig{Enabled: true, Exporter: "file"}, wantErr: "file_path is required"},
		{name: "otlp without endpoint", tracing: TracingConfig{Enabled: true, Exporter: "otlp"}, wantErr: "otlp_endpoint is required"},
		{name: "disabled file without path", tracing: TracingConfig{Exporter: "file"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTracing(tt.tracing)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidate_NegativePreviewTTL(t *testing.T) {
	cfg := Defaults()
	cfg.Cache.PreviewTTL = -time.Minute
	require.ErrorContains(t, Validate(cfg), "cache.preview_ttl")
}

func TestTracingConfig_Provider(t *testing.T) {
	cfg := TracingConfig{Enabled: true, Exporter: "stdout", SampleRate: 0.5}
	got := cfg.Provider()
	require.Equal(t, tracing.Config{
		Enabled:     true,
		Exporter:    "stdout",
		SampleRate:  0.5,
		ServiceName: tracing.DefaultServiceName,
	}, got)
}

func TestDefaultTracesFilePath(t *testing.T) {
	path := DefaultTracesFilePath()
	if path == "" {
		t.Skip("no home directory")
	}
	require.True(t, strings.HasSuffix(path, filepath.Join("vidbrain", "traces", "traces.jsonl")))
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}
