package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/taskcal/internal/app"
	"github.com/teemow/taskcal/internal/config"
	"github.com/teemow/taskcal/internal/instrumentation"
	"github.com/teemow/taskcal/internal/logging"
)

// closeTimeout bounds how long a command waits for background syncs on exit.
const closeTimeout = 30 * time.Second

// errNotified marks failures the notifier already showed to the user.
var errNotified = errors.New("already reported")

func notified(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errNotified, err)
}

// globalOptions are the persistent flags shared by every command. Set flags
// override the configuration file and the environment.
type globalOptions struct {
	configFile string
	envFile    string
	storage    string
	dataDir    string
	timezone   string
	logLevel   string
	logFormat  string
}

var globals globalOptions

func (g *globalOptions) register(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&g.configFile, "config", "", "Path to a YAML config file. Can also use TASKCAL_CONFIG env var.")
	f.StringVar(&g.envFile, "env-file", ".env", "Path to a .env file. Ignored when missing.")
	f.StringVar(&g.storage, "storage", "", "Storage backend: memory, file, nutsdb, valkey or postgres. Can also use TASKCAL_STORAGE env var.")
	f.StringVar(&g.dataDir, "data-dir", "", "Directory for the file and nutsdb backends. Can also use TASKCAL_DATA_DIR env var.")
	f.StringVar(&g.timezone, "timezone", "", "IANA time zone for dates and calendar events (default: system zone). Can also use TASKCAL_TIMEZONE env var.")
	f.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn or error. Can also use LOG_LEVEL env var.")
	f.StringVar(&g.logFormat, "log-format", "", "Log format: text or json. Can also use LOG_FORMAT env var.")
}

// load reads the configuration and applies the flag overrides.
func (g globalOptions) load() (config.Config, error) {
	cfg, err := config.Load(g.configFile, g.envFile)
	if err != nil {
		return config.Config{}, err
	}
	override(&cfg.Storage.Backend, g.storage)
	override(&cfg.DataDir, g.dataDir)
	override(&cfg.Timezone, g.timezone)
	override(&cfg.Log.Level, g.logLevel)
	override(&cfg.Log.Format, g.logFormat)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// openApp loads the configuration and opens the App. Logs go to the command's
// error stream and notifications to its output.
func openApp(cmd *cobra.Command) (*app.App, *slog.Logger, error) {
	cfg, err := globals.load()
	if err != nil {
		return nil, nil, err
	}
	logOpts := cfg.LogOptions()
	logOpts.Writer = cmd.ErrOrStderr()
	logger, err := logging.New(logOpts)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.Open(cmd.Context(), cfg, app.Deps{
		Notifier: app.NewWriterNotifier(cmd.OutOrStdout(), cmd.ErrOrStderr()),
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

// withApp runs fn against an open App, then waits for background calendar
// syncs to settle and closes the storage backend.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	a, logger, err := openApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	runErr := fn(ctx, a)

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()
	if err := a.Close(closeCtx); err != nil {
		logger.Warn("failed to close application", logging.Err(err))
	}
	return runErr
}

// newProvider creates the instrumentation provider for long-running commands.
func newProvider(ctx context.Context) (*instrumentation.Provider, error) {
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	return provider, nil
}
