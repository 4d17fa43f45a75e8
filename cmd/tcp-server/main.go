package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"rcmd/internal/commands"
	"rcmd/internal/config"
	"rcmd/internal/metrics"
	"rcmd/internal/microservices/admin"
	"rcmd/internal/microservices/tcp"
)

var (
	flagHost    string
	flagPort    int
	flagToken   string
	flagMetrics bool
)

var rootCmd = &cobra.Command{
	Use:   "tcp-server",
	Short: "Serve the predefined remote command set over TCP",
	Long: `tcp-server accepts newline-delimited JSON requests and runs only the
built-in inspection commands. Set RCE_TOKEN (or --token) to require a shared
secret on every request. TLS is not provided; terminate it in a proxy.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&flagHost, "host", "", "host to bind (overrides RCMD_HOST)")
	rootCmd.Flags().IntVar(&flagPort, "port", 0, "port to bind (overrides RCMD_PORT)")
	rootCmd.Flags().StringVar(&flagToken, "token", "", "auth token (overrides RCE_TOKEN)")
	rootCmd.Flags().BoolVar(&flagMetrics, "metrics", false, "serve /healthz and /metrics on METRICS_PORT")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("host") {
		cfg.Host = flagHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = flagPort
	}
	if cmd.Flags().Changed("token") {
		cfg.Token = flagToken
	}
	if cmd.Flags().Changed("metrics") {
		cfg.MetricsEnabled = flagMetrics
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Setup structured logging, events and diagnostics share stdout
	events := tcp.NewEventLogger(cmd.OutOrStdout(), parseLevel(cfg.LogLevel))
	logger := events.Logger()
	slog.SetDefault(logger)

	var (
		m   *metrics.Metrics
		reg *prometheus.Registry
	)
	if cfg.MetricsEnabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.NewMetrics(reg)
	}

	registry := commands.NewRegistry(commands.Options{PingTimeout: cfg.PingTimeout})
	server := tcp.NewServer(cfg.Server(), registry, tcp.Options{
		MaxMessageSize: cfg.MaxMessageSize,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		IdleTimeout:    cfg.IdleTimeout,
		Events:         events,
		Metrics:        m,
	})

	// binding failure is fatal; cobra reports it on stderr
	if err := server.Listen(); err != nil {
		return err
	}

	var adminSrv *http.Server
	if cfg.MetricsEnabled {
		if !cfg.IsDevelopment() {
			gin.SetMode(gin.ReleaseMode)
		}
		adminSrv = &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.MetricsPort),
			Handler:           admin.NewRouter(server, reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("admin_server_error", "error", err.Error())
			}
		}()
		logger.Info("admin_server_started", "addr", adminSrv.Addr)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Serve in goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Serve()
	}()

	// Wait for shutdown signal or error
	var serveErr error
	select {
	case sig := <-sigChan:
		logger.Info("received_shutdown_signal", "signal", sig.String())
	case serveErr = <-errChan:
		logger.Error("server_error", "error", serveErr.Error())
	}

	if adminSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		adminSrv.Shutdown(ctx)
	}
	server.Stop()
	return serveErr
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
