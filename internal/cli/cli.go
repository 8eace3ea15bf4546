// Package cli implements the axonote command-line interface.
//
// The commands work on mind-map documents, the JSON files exported by the
// axonote editor:
//
//   - import: validate a document and summarize its structure
//   - layout: run the layered layout and write the positioned document
//   - view: browse and edit a document as a collapsible outline
//   - serve: expose editing sessions over HTTP
//   - cache: inspect or clear the layout cache
//   - config: print the effective configuration
//
// Settings come from $XDG_CONFIG_HOME/axonote/config.toml (see package
// config) and may be overridden per command with flags. All commands support
// --verbose (-v) for debug logging; loggers travel through context.Context.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/axonote/pkg/buildinfo"
	"github.com/matzehuels/axonote/pkg/cache"
	"github.com/matzehuels/axonote/pkg/config"
	"github.com/matzehuels/axonote/pkg/editor"
	"github.com/matzehuels/axonote/pkg/layout"
	"github.com/matzehuels/axonote/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "axonote"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
	cfg        config.Config
	hooks      *logHooks
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	logger := newLogger(w, level)
	return &CLI{
		Logger: logger,
		cfg:    config.Default(),
		hooks:  newLogHooks(logger),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Axonote lays out and edits mind maps",
		Long:         `Axonote is a toolkit for mind-map documents: it validates them, arranges their nodes with a layered layout, lets you fold and edit them in the terminal, and serves them to browser editors over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			observability.SetLayoutHooks(c.hooks)
			observability.SetCacheHooks(c.hooks)
			observability.SetEditorHooks(c.hooks)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/axonote/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the layout cache")

	root.AddCommand(c.importCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the config file named by --config, or the default path.
// Only an explicitly named file must exist.
func (c *CLI) loadConfig() error {
	path := c.configPath
	if path == "" {
		def, err := config.DefaultPath()
		if err != nil {
			return nil
		}
		path = def
	} else if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file: %w", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	c.Logger.Debug("config loaded", "path", path, "cache", cfg.Cache.Backend)
	c.cfg = cfg
	return nil
}

// =============================================================================
// Engine and Editor Factory
// =============================================================================

// newCache opens the configured layout cache. --no-cache and the "none"
// backend yield a cache that stores nothing.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch c.cfg.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, c.cfg.Cache.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return rc, nil
	default:
		dir, err := c.cfg.CacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// newEngine returns the Graphviz engine behind the configured cache. The
// returned cache must be closed by the caller.
func (c *CLI) newEngine(ctx context.Context) (layout.Engine, cache.Cache, error) {
	lc, err := c.newCache(ctx)
	if err != nil {
		return nil, nil, err
	}
	engine := layout.NewCachedEngine(layout.NewGraphvizEngine(), lc, nil, c.Logger)
	engine.SetTTL(c.cfg.Cache.TTL)
	return engine, lc, nil
}

// editorFactory returns a constructor for editors sharing engine and the
// configured layout options.
func (c *CLI) editorFactory(engine layout.Engine, opts layout.Options) func() *editor.Editor {
	return func() *editor.Editor {
		return editor.New(
			editor.WithLogger(c.Logger),
			editor.WithEngine(engine),
			editor.WithLayoutOptions(opts),
			editor.WithFitViewDelay(c.cfg.Layout.FitViewDelay),
		)
	}
}
