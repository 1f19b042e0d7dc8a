package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kinboard/internal/server"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/store"
	"github.com/matzehuels/kinboard/pkg/store/file"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr string
		edit bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tree over HTTP with live canvas sessions",
		Long: `Serve the tree over a JSON API, a WebSocket canvas at /ws and Prometheus
metrics at /metrics. Changes made by one client, or to the store file, are
pushed to every open canvas.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, cmd.Flags().Changed("edit"), edit)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&edit, "edit", false, "start canvas sessions unlocked")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, override, edit bool) error {
	svc, done, err := c.openService(ctx)
	if err != nil {
		return err
	}
	defer done()

	if addr == "" {
		addr = c.cfg.Server.Addr
	}
	locked := c.cfg.Canvas.Locked
	if override {
		locked = !edit
	}

	server.NewMetrics(prometheus.DefaultRegisterer).Install()
	srv := server.New(svc, server.Options{
		CardSize: c.cfg.CardSize(),
		Localize: c.cfg.Localized(),
		Locked:   locked,
		Logger:   loggerFromContext(ctx),
	})

	if fs, ok := store.Unwrap(svc.Store).(*file.Store); ok {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			err := fs.Watch(watchCtx, func(family.Snapshot) { srv.Notify() })
			if err != nil && watchCtx.Err() == nil {
				loggerFromContext(ctx).Warn("watch store file", "err", err)
			}
		}()
	}

	printInfo("Serving %s store on %s", c.cfg.Store.Backend, addr)
	return srv.Run(ctx, addr)
}
