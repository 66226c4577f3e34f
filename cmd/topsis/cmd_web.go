package main

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/spboyer/topsis/internal/projectconfig"
	"github.com/spboyer/topsis/internal/statistics"
	"github.com/spboyer/topsis/internal/webserver"
	"github.com/spf13/cobra"
)

func newWebCommand() *cobra.Command {
	var (
		host           string
		port           int
		resultsDir     string
		resultsDB      string
		rateLimit      float64
		burst          int
		allowedOrigins []string
	)

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Endpoints:
  GET  /api/health
  POST /api/rank                      (?save=true, ?explain=true, ?weighting=)
  POST /api/validate
  POST /api/sensitivity
  GET  /api/results                   (?sort=timestamp|name|top_score, ?order=asc|desc)
  GET  /api/results/{id}
  GET  /api/results/{id}/export       (?format=, ?precision=)
  GET  /metrics                       Prometheus metrics

Saved outcomes live in --results-dir, or in a SQLite database when
--results-db is set. Reports of seeded sensitivity runs are kept in memory
(server.memo_size in .topsis.yaml). The server binds to loopback unless
--host says otherwise and stops gracefully on interrupt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProjectConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("host") {
				host = cfg.Server.Host
			}
			if !flags.Changed("port") {
				port = cfg.Server.Port
			}
			if !flags.Changed("results-dir") {
				resultsDir = cfg.Output.ResultsDir
			}
			if !flags.Changed("results-db") {
				resultsDB = cfg.Server.ResultsDB
			}
			if !flags.Changed("rate-limit") {
				rateLimit = cfg.Server.RateLimit
			}
			if !flags.Changed("burst") {
				burst = cfg.Server.Burst
			}
			if !flags.Changed("allowed-origin") {
				allowedOrigins = cfg.Server.AllowedOrigins
			}

			sens := statistics.Options{
				Iterations: cfg.Sensitivity.Iterations,
				Spread:     cfg.Sensitivity.Spread,
				Seed:       -1,
				Workers:    cfg.Sensitivity.Workers,
			}
			if cfg.Sensitivity.Seed != nil {
				sens.Seed = *cfg.Sensitivity.Seed
			}
			memoSize := projectconfig.DefaultServerMemoSize
			if cfg.Server.MemoSize != nil {
				memoSize = *cfg.Server.MemoSize
			}

			srv, err := webserver.New(webserver.Config{
				Host:           host,
				Port:           port,
				ResultsDir:     resultsDir,
				ResultsDB:      resultsDB,
				RateLimit:      rateLimit,
				Burst:          burst,
				AllowedOrigins: allowedOrigins,
				Sensitivity:    sens,
				MemoSize:       memoSize,
				Logger:         slog.Default(),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "topsis API: http://%s\n", net.JoinHostPort(host, strconv.Itoa(port)))
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&host, "host", projectconfig.DefaultServerHost, "Address to bind")
	cmd.Flags().IntVar(&port, "port", projectconfig.DefaultServerPort, "Port to listen on")
	cmd.Flags().StringVar(&resultsDir, "results-dir", projectconfig.DefaultResultsDir, "Directory of saved outcomes")
	cmd.Flags().StringVar(&resultsDB, "results-db", "", "SQLite database of saved outcomes; overrides --results-dir")
	cmd.Flags().Float64Var(&rateLimit, "rate-limit", projectconfig.DefaultServerRateLimit, "Sustained requests per second; 0 disables limiting")
	cmd.Flags().IntVar(&burst, "burst", projectconfig.DefaultServerBurst, "Requests allowed in a burst")
	cmd.Flags().StringSliceVar(&allowedOrigins, "allowed-origin", nil, "Origin allowed to call the API from a browser (repeatable)")

	return cmd
}
