package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"apppulse/server"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(_ []string) error {
	a, err := c.base.setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A failed load is retried on the next request; until then pages answer 503.
	if ds, err := a.loader.Load(ctx); err != nil {
		a.logger.Warn("Dataset not loaded yet: %v", err)
	} else {
		a.logger.Info("Serving %s from %s", plural(ds.Len(), "app"), ds.Source)
	}

	addr := c.Addr
	if addr == "" {
		addr = a.cfg.HTTPAddr
	}
	srv := server.NewServer(a.loader, a.insights, a.logger)
	return srv.ListenAndServe(ctx, addr)
}
