package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/codenest/promptcanvas/pkg/service/mcp"
	"github.com/codenest/promptcanvas/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func mcpCommand() *cli.Command {
	var (
		cfg  config
		addr string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "http",
			Usage:       "Serve the streamable HTTP transport on this address instead of stdio",
			Sources:     cli.EnvVars("PROMPTCANVAS_MCP_HTTP"),
			Destination: &addr,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Run as an MCP tool server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			// stdout carries JSON-RPC in stdio mode
			ctx, a, err := cfg.newApp(ctx, c, withOutput(c.Root().ErrWriter))
			if err != nil {
				return err
			}
			defer a.close()

			srv := mcp.New(a.ctrl, a.repo, mcp.WithStyles(cfg.styles), mcp.WithVersion(c.Root().Version))
			if addr == "" {
				return srv.RunStdio(ctx)
			}
			return serveHTTP(ctx, addr, srv.Handler())
		},
	}
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.From(ctx).Info("mcp server listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return goerr.Wrap(err, "mcp server failed", goerr.V("addr", addr))
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return goerr.Wrap(err, "failed to shut down mcp server")
		}
		return nil
	}
}
