package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/vidbrain/internal/agent"
	"github.com/zjrosen/vidbrain/internal/app"
	"github.com/zjrosen/vidbrain/internal/config"
	"github.com/zjrosen/vidbrain/internal/log"
	"github.com/zjrosen/vidbrain/internal/tracing"
	"github.com/zjrosen/vidbrain/internal/ui/markdown"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

const (
	localConfigPath = ".vidbrain/config.yaml"
	shutdownTimeout = 2 * time.Second
)

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vidbrain",
	Short: "A terminal client for chatting with your videos",
	Long: `Upload a video to the analysis service and hold a conversation about it.

Each uploaded video gets its own conversation. Switching videos starts a
fresh conversation; videos are kept only for the life of the process.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/vidbrain/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"enable debug logging (also VIDBRAIN_DEBUG)")
	rootCmd.PersistentFlags().String("base-url", "",
		"analysis service base URL (default: http://localhost:8000)")
	rootCmd.Flags().String("dir", "",
		"directory the file picker starts in")
	rootCmd.Flags().Bool("no-watch", false,
		"do not refresh the file picker when files change")

	// Bind flags to viper
	_ = viper.BindPFlag("server.base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	_ = viper.BindPFlag("upload.start_dir", rootCmd.Flags().Lookup("dir"))
}

func initConfig() {
	setDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .vidbrain/config.yaml (current directory)
		// 2. ~/.config/vidbrain/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "vidbrain"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .vidbrain/config.yaml
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if writeErr := config.WriteDefaultConfig(localConfigPath); writeErr == nil {
				viper.SetConfigFile(localConfigPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	cfg = readConfig(viper.GetViper())
}

// setDefaults registers every default so env and flag bindings resolve
// keys missing from the file.
func setDefaults(v *viper.Viper) {
	d := config.Defaults()
	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("server.timeout", d.Server.Timeout)
	v.SetDefault("chat.greeting", d.Chat.Greeting)
	v.SetDefault("chat.fallback_message", d.Chat.FallbackMessage)
	v.SetDefault("upload.error_message", d.Upload.ErrorMessage)
	v.SetDefault("upload.watch", d.Upload.Watch)
	v.SetDefault("upload.extensions", d.Upload.Extensions)
	v.SetDefault("ui.show_status_bar", d.UI.ShowStatusBar)
	v.SetDefault("ui.markdown_style", d.UI.MarkdownStyle)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("cache.preview_ttl", d.Cache.PreviewTTL)
}

// readConfig overlays whatever v holds onto the defaults.
func readConfig(v *viper.Viper) config.Config {
	c := config.Defaults()
	if err := v.Unmarshal(&c); err != nil {
		log.Warn(log.CatConfig, "Config unmarshal failed, using defaults", "error", err)
		return config.Defaults()
	}
	return c
}

// configPath is where settings toggled in the TUI are saved.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return localConfigPath
}

// setupLogging enables the file logger when --debug or VIDBRAIN_DEBUG is set.
// The returned cleanup is never nil.
func setupLogging(prefix string) (func(), error) {
	if !debugEnabled() {
		return func() {}, nil
	}
	logPath := os.Getenv("VIDBRAIN_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.InitWithTeaLog(logPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	log.Info(log.CatConfig, "vidbrain starting", "version", version, "logPath", logPath, "config", viper.ConfigFileUsed())
	return cleanup, nil
}

func debugEnabled() bool {
	return debugFlag || os.Getenv("VIDBRAIN_DEBUG") != ""
}

// newService builds the HTTP client for the analysis service, wrapped with
// tracing when enabled. shutdown flushes pending spans and is never nil.
func newService(c config.Config) (svc agent.Service, shutdown func(), err error) {
	client, err := agent.NewClient(agent.ClientConfig{
		BaseURL: c.Server.BaseURL,
		Timeout: c.Server.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("configuring service client: %w", err)
	}

	tcfg := c.Tracing.Provider()
	if tcfg.FilePath == "" {
		tcfg.FilePath = config.DefaultTracesFilePath()
	}
	provider, err := tracing.NewProvider(tcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing tracing: %w", err)
	}
	shutdown = func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			log.Warn(log.CatTrace, "Tracing shutdown failed", "error", err)
		}
	}

	if !provider.Enabled() {
		return client, shutdown, nil
	}
	log.Info(log.CatTrace, "Tracing enabled", "exporter", tcfg.Exporter)
	return agent.WithTracing(client, provider.Tracer()), shutdown, nil
}

func runApp(cmd *cobra.Command, _ []string) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cleanup, err := setupLogging("vidbrain")
	if err != nil {
		return err
	}
	defer cleanup()

	svc, shutdown, err := newService(cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	// Handle --no-watch flag (negated logic)
	if noWatch, _ := cmd.Flags().GetBool("no-watch"); noWatch {
		cfg.Upload.Watch = false
	}

	zone.NewGlobal()
	model := app.New(app.Options{
		Agent:         svc,
		Config:        cfg,
		ConfigPath:    configPath(),
		MarkdownStyle: markdown.DetectStyle(cfg.UI.MarkdownStyle),
		DebugMode:     debugEnabled(),
	})
	p := tea.NewProgram(
		&model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err = p.Run()

	// Clean up watcher resources
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
