// Package cli implements the npmmeta command-line interface.
//
// The same service that backs the HTTP API answers queries locally, so
// "npmmeta latest vite@^5" resolves exactly like GET /vite@^5 would.
//
// # Commands
//
//   - serve: run the HTTP API
//   - latest: resolve specifiers to a single version each
//   - versions: list matching versions, optionally in an interactive browser
//   - cache: manage the file store
//   - completion: generate shell completions
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/npmmeta/pkg/buildinfo"
	"github.com/matzehuels/npmmeta/pkg/config"
	"github.com/matzehuels/npmmeta/pkg/integrations/npm"
	"github.com/matzehuels/npmmeta/pkg/manifest"
	"github.com/matzehuels/npmmeta/pkg/registry"
	"github.com/matzehuels/npmmeta/pkg/service"
)

// appName is the application name used for directories and display.
const appName = buildinfo.Name

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "npmmeta resolves npm package specifiers to versions",
		Long:         `npmmeta answers "which version does this specifier resolve to" for npm packages, from a cached copy of registry metadata. It runs as an HTTP service or answers queries directly from the command line.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a TOML config file")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.latestCommand())
	root.AddCommand(c.versionsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// Execute runs the CLI with ctx and returns the first command error.
func (c *CLI) Execute(ctx context.Context) error {
	return c.RootCommand().ExecuteContext(ctx)
}

// loadConfig loads the configuration and applies its log level unless
// --verbose already asked for debug output.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if !c.verbose {
		if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
			c.SetLogLevel(level)
		} else {
			c.Logger.Warn("ignoring log level", "level", cfg.Log.Level)
		}
	}
	return cfg, nil
}

// newService wires the registry client, the store and the fetcher. The
// returned close function releases the store.
func (c *CLI) newService(ctx context.Context, cfg config.Config, noCache bool) (*service.Service, func() error, error) {
	backend, err := openStore(ctx, cfg.Store, noCache)
	if err != nil {
		return nil, nil, err
	}
	store := manifest.NewStore(backend, cfg.Store.Retention)

	source := npm.NewClient(cfg.Registry.URL, cfg.Registry.UserAgent, cfg.Registry.FullDocument)

	fetcher := registry.NewFetcher(source, store,
		registry.WithLogger(c.Logger),
		registry.WithCacheTimeouts(cfg.Cache.Timeout, cfg.Cache.TimeoutForce),
		registry.WithFetchTimeout(cfg.Registry.FetchTimeout),
	)
	return service.New(fetcher), store.Close, nil
}
