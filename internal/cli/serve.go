package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/axonote/pkg/server"
	"github.com/matzehuels/axonote/pkg/session"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		origins []string
		flags   layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve editing sessions over HTTP",
		Long: `Serve editing sessions over HTTP.

Each session holds one mind map in memory. Browser editors create a session,
send commands (select, add node, fold, layout, ...) and follow changes on the
session's event stream. Idle sessions expire after server.session_ttl.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context(), flags, origins)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config, :8080)")
	cmd.Flags().StringSliceVar(&origins, "cors-origin", nil, "allowed CORS origin (repeatable)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, flags layoutFlags, origins []string) error {
	logger := loggerFromContext(ctx)

	opts, err := c.layoutOptions(flags)
	if err != nil {
		return err
	}
	engine, lc, err := c.newEngine(ctx)
	if err != nil {
		return err
	}
	defer lc.Close()

	store := session.NewMemoryStore(c.cfg.Server.SessionTTL)
	defer store.Close()

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go session.RunJanitor(janitorCtx, store, c.cfg.Server.CleanupInterval, logger)

	srv := server.New(store,
		server.WithLogger(logger),
		server.WithEditorFactory(c.editorFactory(engine, opts)),
		server.WithAllowedOrigins(origins...),
	)

	printInfo("Serving on %s", StyleHighlight.Render(c.cfg.Server.Addr))
	printDetail("Sessions expire after %s of inactivity", c.cfg.Server.SessionTTL)
	return srv.ListenAndServe(ctx, c.cfg.Server.Addr, c.cfg.Server.ShutdownTimeout)
}
