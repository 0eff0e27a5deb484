package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"apppulse/server"
	"apppulse/snapshot"
)

// Execute implements the go-flags Commander interface for SnapshotCommand.
func (c *SnapshotCommand) Execute(_ []string) error {
	a, err := c.base.setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, err := a.loader.Load(ctx)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("snapshot: listen: %w", err)
	}

	serveCtx, cancelServe := context.WithCancel(ctx)
	srv := server.NewServer(a.loader, a.insights, a.logger)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(serveCtx, ln) }()

	outDir := c.Out
	if outDir == "" {
		outDir = a.cfg.SnapshotDir
	}
	baseURL := "http://" + ln.Addr().String()

	capturer := snapshot.New(snapshot.Options{
		BaseURL:        baseURL,
		OutDir:         outDir,
		ChromeBin:      a.cfg.ChromeBin,
		MaxConcurrency: a.cfg.MaxConcurrency,
		RateLimitMs:    a.cfg.RateLimitMs,
		MaxRetries:     a.cfg.MaxRetries,
	}, a.logger)
	shots, captureErr := capturer.Capture(ctx, snapshot.Targets(baseURL, ds.Categories()))

	cancelServe()
	if err := <-served; err != nil {
		a.logger.Warn("Dashboard server: %v", err)
	}

	saved := 0
	for _, s := range shots {
		if s.Err == nil {
			saved++
		}
	}
	a.logger.Info("Saved %s to %s", plural(saved, "snapshot"), outDir)
	return captureErr
}
