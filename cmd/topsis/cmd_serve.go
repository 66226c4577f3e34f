package main

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/spboyer/topsis/internal/jsonrpc"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var tcpAddr string
	var tcpAllowRemote bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a JSON-RPC 2.0 server for editor and tool integration",
		Long: `Start a JSON-RPC 2.0 server for editor and tool integration.

By default, the server communicates over stdin/stdout using newline-delimited JSON.
Use --tcp to start a TCP server instead (useful for debugging).
TCP defaults to loopback (127.0.0.1) for security. Use --tcp-allow-remote to bind
to all interfaces.

Supported methods:
  problem.rank         Rank a problem ({path} or {problem})
  problem.validate     Validate a problem ({path} or {problem})
  problem.sensitivity  Weight sensitivity report
  rpc.methods          List available methods`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProjectConfig()
			if err != nil {
				return err
			}

			registry := jsonrpc.NewMethodRegistry()
			hctx := jsonrpc.NewHandlerContext()
			hctx.Sensitivity.Iterations = cfg.Sensitivity.Iterations
			hctx.Sensitivity.Spread = cfg.Sensitivity.Spread
			hctx.Sensitivity.Workers = cfg.Sensitivity.Workers
			if cfg.Sensitivity.Seed != nil {
				hctx.Sensitivity.Seed = *cfg.Sensitivity.Seed
			}
			jsonrpc.RegisterHandlers(registry, hctx)

			logger := slog.Default()
			server := jsonrpc.NewServer(registry, logger)
			ctx := cmd.Context()

			if tcpAddr != "" {
				tcpAddr = resolveTCPAddr(tcpAddr, tcpAllowRemote, logger)

				listener, err := jsonrpc.NewTCPListener(tcpAddr, server)
				if err != nil {
					return fmt.Errorf("failed to start TCP server: %w", err)
				}
				defer listener.Close() //nolint:errcheck
				fmt.Fprintf(cmd.ErrOrStderr(), "JSON-RPC server listening on %s\n", listener.Addr())
				return listener.Serve(ctx)
			}

			fmt.Fprintln(cmd.ErrOrStderr(), "JSON-RPC server running on stdio")
			server.ServeStdio(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&tcpAddr, "tcp", "", "TCP address to listen on (e.g., :9000)")
	cmd.Flags().BoolVar(&tcpAllowRemote, "tcp-allow-remote", false,
		"Allow binding to non-loopback addresses (WARNING: exposes the server to the network with no authentication)")

	return cmd
}

// resolveTCPAddr ensures TCP addresses default to loopback unless --tcp-allow-remote is set.
func resolveTCPAddr(addr string, allowRemote bool, logger *slog.Logger) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		// Likely just a port like "9000"; treat as ":9000".
		host = ""
		port = addr
	}

	if allowRemote {
		logger.Warn("TCP server binding to all interfaces; no authentication is provided",
			"address", addr)
		return addr
	}

	// Default to loopback if no host specified or if 0.0.0.0/:: is used without --tcp-allow-remote.
	if host == "" || host == "0.0.0.0" || host == "::" {
		logger.Info("JSON-RPC server listening on TCP (local only)")
		return net.JoinHostPort("127.0.0.1", port)
	}

	return addr
}
