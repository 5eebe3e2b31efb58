package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/msig-dev/msig/internal/config"
	"github.com/msig-dev/msig/internal/errors"
	"github.com/msig-dev/msig/internal/demo"
	"github.com/msig-dev/msig/pkg/live"
	"github.com/msig-dev/msig/pkg/metrics"
	"github.com/msig-dev/msig/pkg/reactive"
)

type serveOptions struct {
	configPath string
	port       int
	host       string
	s3Bucket   string
	s3Key      string
	s3Region   string
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo stores over HTTP and WebSocket",
		Long: `Serve the demo graph over HTTP and WebSocket.

Stores:
  count, input         writable (POST a JSON value)
  doubled, shout       memos derived from count and input
  clock                advanced every demo.tickInterval
  object, object-key   S3 object resource (with --s3-bucket)

Examples:
  msig serve
  msig serve --port=9000
  msig serve --config=./msig.json
  msig serve --s3-bucket=my-bucket --s3-key=data.json --s3-region=us-east-1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to msig.json (default: search from working directory)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to listen on (default from msig.json)")
	cmd.Flags().StringVarP(&opts.host, "host", "H", "", "Host to bind to (default from msig.json)")
	cmd.Flags().StringVar(&opts.s3Bucket, "s3-bucket", "", "Publish an object from this public S3 bucket")
	cmd.Flags().StringVar(&opts.s3Key, "s3-key", "", "Initial object key")
	cmd.Flags().StringVar(&opts.s3Region, "s3-region", "us-east-1", "S3 bucket region")

	return cmd
}

// loadConfig reads path, or msig.json from the working directory and its
// parents. Without any file the defaults apply.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg, err := config.LoadFromWorkingDir()
	if errors.Code(err) == "E141" {
		return config.New(), nil
	}
	return cfg, err
}

func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.LogLevel()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runServe(ctx context.Context, opts serveOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.port > 0 {
		cfg.Server.Port = opts.port
	}
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.New(
		metrics.WithRegistry(reg),
		metrics.WithNamespace(cfg.Metrics.Namespace),
	)

	rt := reactive.NewRuntime(
		reactive.WithLogger(logger),
		reactive.WithMaxDepth(cfg.Runtime.MaxDepth),
		reactive.WithObserver(collector),
	)
	collector.Watch(rt)

	callTimeout, _ := cfg.CallTimeout()
	srv := live.New(rt, &live.Config{
		CallTimeout: callTimeout,
		Hooks:       collector,
		Logger:      logger,
	})

	stores := demo.New(rt)
	stores.Publish(srv)

	if opts.s3Bucket != "" {
		client := s3.New(s3.Options{
			Region:      opts.s3Region,
			Credentials: aws.AnonymousCredentials{},
		})
		demo.PublishObject(rt, srv, client, opts.s3Bucket, opts.s3Key)
		info("Publishing s3://%s/%s", opts.s3Bucket, opts.s3Key)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	r.Mount("/", srv.Handler())

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if interval, _ := cfg.TickInterval(); interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					rt.Dispatch(func() { stores.Tick() })
				}
			}
		}()
	}

	httpServer := &http.Server{
		Addr:              cfg.Address(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	go rt.Serve(ctx)

	printBanner()
	success("Serving on http://%s", cfg.Address())
	info("Stores:  http://%s/stores", cfg.Address())
	if cfg.Metrics.Enabled {
		info("Metrics: http://%s%s", cfg.Address(), cfg.Metrics.Path)
	}
	if cfg.Path() == "" {
		warn("No msig.json found, using defaults")
	}

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
		return err
	}
	return nil
}
