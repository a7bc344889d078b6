package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/intakehq/intake/internal/api"
	"github.com/intakehq/intake/internal/app"
	"github.com/intakehq/intake/internal/config"
	"github.com/intakehq/intake/internal/log"
	"github.com/intakehq/intake/internal/mode"
	"github.com/intakehq/intake/internal/mode/shared"
	"github.com/intakehq/intake/internal/nav"
	"github.com/intakehq/intake/internal/patients"
	"github.com/intakehq/intake/internal/query"
	"github.com/intakehq/intake/internal/tracing"
	"github.com/intakehq/intake/internal/watcher"
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
	envPrefix       = "INTAKE"
	localConfigPath = ".intake/config.yaml"
	shutdownTimeout = 5 * time.Second
)

var (
	version    = "dev"
	cfgFile    string
	debugFlag  bool
	baseURL    string
	cfg        config.Config
	cfgPath    string
	configErr  error
	viperStore = viper.GetViper()
)

var rootCmd = &cobra.Command{
	Use:   "intake",
	Short: "A terminal client for patient registration",
	Long: `A terminal user interface for browsing hospital patients and registering
new ones against a registration backend.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		// config init writes the default itself
		initConfig(cmd != configInitCmd)
	},
	RunE: runApp,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .intake/config.yaml or ~/.config/intake/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write a debug log and enable the log overlay (ctrl+x)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "",
		"registration backend URL (overrides api.base_url)")

	// Bind flags to viper
	_ = viperStore.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("base-url"))
}

func initConfig(writeDefault bool) {
	cfg, cfgPath, configErr = loadConfig(viperStore, cfgFile, writeDefault)
}

// setDefaults registers every config key so env overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	defaults := config.Defaults()
	v.SetDefault("api.base_url", defaults.API.BaseURL)
	v.SetDefault("api.token", defaults.API.Token)
	v.SetDefault("api.timeout", defaults.API.Timeout)
	v.SetDefault("ui.page_size", defaults.UI.PageSize)
	v.SetDefault("ui.hospital_limit", defaults.UI.HospitalLimit)
	v.SetDefault("ui.ordering", defaults.UI.Ordering)
	v.SetDefault("log.debug", defaults.Log.Debug)
	v.SetDefault("log.path", defaults.Log.Path)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	v.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	v.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
}

// loadConfig reads configuration into a Config and reports the file it came
// from. When no file exists anywhere and writeDefault is set, a commented
// default is written to .intake/config.yaml first.
func loadConfig(v *viper.Viper, explicitPath string, writeDefault bool) (config.Config, string, error) {
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		// Config lookup order:
		// 1. .intake/config.yaml (current directory)
		// 2. ~/.config/intake/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			v.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			v.AddConfigPath(filepath.Join(home, ".config", "intake"))
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		switch {
		case missing && explicitPath != "":
			return config.Config{}, "", fmt.Errorf("config file %s not found", explicitPath)
		case missing:
			// No config file found anywhere - create default at .intake/config.yaml
			if writeDefault {
				if writeErr := config.WriteDefaultConfig(localConfigPath); writeErr == nil {
					v.SetConfigFile(localConfigPath)
					_ = v.ReadInConfig()
				}
			}
			// If write fails, just continue with defaults (no config file)
		default:
			return config.Config{}, "", fmt.Errorf("reading config: %w", err)
		}
	}

	var out config.Config
	if err := v.Unmarshal(&out); err != nil {
		return config.Config{}, "", fmt.Errorf("decoding config: %w", err)
	}

	used := v.ConfigFileUsed()
	if used == "" {
		used = localConfigPath
	}
	return out, used, nil
}

// debugEnabled reports whether the debug log is on via flag, env or config.
func debugEnabled(c config.Config) bool {
	return debugFlag || os.Getenv("INTAKE_DEBUG") != "" || c.Log.Debug
}

// setupLogging starts the debug log when enabled. The returned cleanup is
// always safe to call.
func setupLogging(c config.Config, prefix string) (func(), error) {
	if !debugEnabled(c) {
		return func() {}, nil
	}

	logPath := os.Getenv("INTAKE_LOG")
	if logPath == "" {
		logPath = c.Log.Path
	}
	if logPath == "" {
		logPath = "debug.log"
	}

	cleanup, err := log.InitWithTeaLog(logPath, prefix)
	if err != nil {
		return func() {}, fmt.Errorf("initializing logging: %w", err)
	}
	log.SetMinLevel(log.ParseLevel(c.Log.Level))
	log.Info(log.CatConfig, "intake starting", "version", version, "config", cfgPath, "logPath", logPath)
	return cleanup, nil
}

// setupTracing installs the tracer provider described by the config.
func setupTracing(c config.Config, configFile string) (*tracing.Provider, error) {
	filePath := c.Tracing.FilePath
	if filePath == "" {
		filePath = config.DefaultTracesFilePath(filepath.Dir(configFile))
	}
	provider, err := tracing.NewProvider(tracing.Config{
		Enabled:      c.Tracing.Enabled,
		Exporter:     c.Tracing.Exporter,
		FilePath:     filePath,
		OTLPEndpoint: c.Tracing.OTLPEndpoint,
		SampleRate:   c.Tracing.SampleRate,
		ServiceName:  "intake",
	})
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	return provider, nil
}

// newService wires the backend client, the query cache and a history
// starting on the patients list.
func newService(c config.Config) (*patients.Service, *nav.History, error) {
	client, err := api.NewClient(api.Config{
		BaseURL: c.API.BaseURL,
		Token:   c.API.Token,
		Timeout: c.API.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating api client: %w", err)
	}

	history := nav.NewHistory(nav.Patients())
	return patients.NewService(query.NewClient(), client, history), history, nil
}

// prepare validates the loaded config and starts logging and tracing.
// The returned func undoes both.
func prepare(prefix string) (func(), error) {
	if configErr != nil {
		return nil, configErr
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	stopLog, err := setupLogging(cfg, prefix)
	if err != nil {
		return nil, err
	}
	provider, err := setupTracing(cfg, cfgPath)
	if err != nil {
		stopLog()
		return nil, err
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			log.Warn(log.CatConfig, "tracing shutdown failed", "error", err)
		}
		stopLog()
	}, nil
}

// isTTY reports whether w is connected to a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runApp(cmd *cobra.Command, _ []string) error {
	if !isTTY(cmd.OutOrStdout()) {
		return errors.New("interactive mode requires a terminal (TTY); try `intake patients --hospital <id>`")
	}

	cleanup, err := prepare("intake")
	if err != nil {
		return err
	}
	defer cleanup()

	svc, history, err := newService(cfg)
	if err != nil {
		return err
	}
	defer svc.Cache().Close()

	services := mode.Services{
		Patients:  svc,
		Navigator: history,
		Config:    &cfg,
		Clock:     shared.RealClock{},
	}

	zone.NewGlobal()
	defer zone.Close()

	model := app.New(services, history, debugEnabled(cfg))
	if stop := watchConfig(&model); stop != nil {
		defer stop()
	}
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	final, err := p.Run()

	// Release listeners held by whichever screen was active last
	if m, ok := final.(app.Model); ok {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	} else if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// watchConfig hooks the loaded config file up to model. It returns nil when
// there is no file to watch.
func watchConfig(model *app.Model) func() {
	if cfgPath == "" {
		return nil
	}

	w, err := watcher.New(cfgPath)
	if err != nil {
		log.ErrorErr(log.CatConfig, "Config watcher unavailable", err)
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	changes, err := w.Watch(ctx)
	if err != nil {
		log.ErrorErr(log.CatConfig, "Config watcher unavailable", err, "path", w.Path())
		cancel()
		return nil
	}

	reload := func() (config.Config, error) {
		next, _, err := loadConfig(viper.New(), cfgPath, false)
		if err != nil {
			return config.Config{}, err
		}
		return next, next.Validate()
	}
	*model = model.WatchConfig(changes, reload)
	return cancel
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
