package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/crimson-sun/emoshop/internal/api"
	"github.com/crimson-sun/emoshop/internal/catalog"
	"github.com/crimson-sun/emoshop/internal/catalog/breaker"
	"github.com/crimson-sun/emoshop/internal/catalog/loader"
	"github.com/crimson-sun/emoshop/internal/config"
	"github.com/crimson-sun/emoshop/internal/detector"
	"github.com/crimson-sun/emoshop/internal/detector/camera"
	"github.com/crimson-sun/emoshop/internal/detector/loop"
	"github.com/crimson-sun/emoshop/internal/detector/onnx"
	"github.com/crimson-sun/emoshop/internal/detector/remote"
	"github.com/crimson-sun/emoshop/internal/engine"
	"github.com/crimson-sun/emoshop/internal/engine/dedup"
	"github.com/crimson-sun/emoshop/internal/logging"
	"github.com/crimson-sun/emoshop/internal/output"
	"github.com/crimson-sun/emoshop/internal/output/async"
	"github.com/crimson-sun/emoshop/internal/output/file"
	"github.com/crimson-sun/emoshop/internal/output/multi"
	"github.com/crimson-sun/emoshop/internal/output/stdout"
	"github.com/crimson-sun/emoshop/internal/output/webhook"
	"github.com/crimson-sun/emoshop/internal/pipeline"
	"github.com/crimson-sun/emoshop/internal/shop"
	"github.com/crimson-sun/emoshop/internal/store"
	"github.com/crimson-sun/emoshop/internal/supervisor"

	// Register catalog providers.
	_ "github.com/crimson-sun/emoshop/internal/catalog/airtable"
	_ "github.com/crimson-sun/emoshop/internal/catalog/htmltable"
	_ "github.com/crimson-sun/emoshop/internal/catalog/ndjson"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "emoshop: %v\n", err)
		os.Exit(2)
	}
	logger := logging.Init(cfg.LogJSON, logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("emoshop exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Persistence for the cart and connection settings.
	st, err := store.Open(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	det, err := openDetector(cfg.Detector)
	if err != nil {
		return fmt.Errorf("open detector: %w", err)
	}
	if det != nil {
		defer det.Close()
	}

	events, err := buildOutputs(cfg.Output, logger)
	if err != nil {
		return fmt.Errorf("build outputs: %w", err)
	}
	var pipeOpts []pipeline.Option
	if cfg.Output.DedupWindow > 0 {
		pipeOpts = append(pipeOpts,
			pipeline.WithDedup(dedup.New(dedup.Config{Window: cfg.Output.DedupWindow})),
			pipeline.WithMaxBuffer(cfg.Output.BufferSize),
		)
	}
	pipe := pipeline.New(events, pipeOpts...)
	defer pipe.Close()

	s := shop.New(ctx, shop.Options{
		Source:  sourceConfig(cfg.Catalog),
		Loader:  loaderOptions(cfg.Catalog, logger),
		Breaker: breakerSettings(cfg.Catalog),
		Store:   st,
		Engine:  engine.NewDefault(cfg.Locale),

		Detector: det,
		Camera:   cameraOpener(cfg.Detector.CameraDir),
		Loop: loop.Options{
			Interval:    cfg.Detector.Interval,
			TickTimeout: cfg.Detector.TickTimeout,
			Logger:      logger,
		},

		Events: pipe,
		Logger: logger,
	})
	defer s.Close()

	if cfg.Catalog.LoadOnStart {
		if res, err := s.Refresh(ctx); err != nil {
			logger.Warn("initial catalog load failed", "error", err)
		} else {
			logger.Info("catalog loaded", "records", res.Records, "pages", res.Pages, "rejected", res.Rejected)
		}
	}

	router := api.NewRouter(s, api.Config{
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit:   cfg.Server.RateLimit,
	}, logger)

	tree := supervisor.New(logger, supervisor.Config{ShutdownTimeout: cfg.Server.ShutdownTimeout})
	tree.AddCore(pipe)
	if l := s.Loop(); l != nil {
		tree.AddCore(l)
	}
	tree.AddAPI(api.NewServer(cfg.Server.Addr, router, cfg.Server.ShutdownTimeout))

	logger.Info("emoshop starting",
		"addr", cfg.Server.Addr,
		"provider", cfg.Catalog.Provider,
		"detector", cfg.Detector.Backend,
		"store", cfg.Store.Backend,
	)
	err = tree.Serve(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if stuck, uerr := tree.Unstopped(); uerr == nil && len(stuck) > 0 {
		logger.Warn("services did not stop in time", "count", len(stuck))
	}
	logger.Info("emoshop stopped")
	return err
}

func openDetector(cfg config.DetectorConfig) (detector.Detector, error) {
	switch cfg.Backend {
	case "onnx":
		d, err := onnx.New(cfg.ModelPath, cfg.LibPath)
		if err != nil {
			return nil, err
		}
		return d, nil
	case "remote":
		d, err := remote.New(cfg.Endpoint, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, nil
	}
}

func cameraOpener(dir string) loop.CameraOpener {
	if dir == "" {
		return nil
	}
	return func() (detector.Camera, error) {
		c, err := camera.Open(dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

func buildOutputs(cfg config.OutputConfig, logger *slog.Logger) (output.Output, error) {
	verbosity := output.ParseVerbosity(cfg.Verbosity)
	onError := func(err error) { logger.Warn("mood event delivery failed", "error", err) }

	var sinks []multi.Sink
	if cfg.Stdout {
		sinks = append(sinks, multi.Sink{Name: "stdout", Out: stdout.New(os.Stdout, verbosity, cfg.Pretty)})
	}
	if cfg.FilePath != "" {
		f, err := file.New(cfg.FilePath, verbosity)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, multi.Sink{Name: "file", Out: async.New(f, async.WithBufferSize(cfg.BufferSize), async.WithOnError(onError))})
	}
	if cfg.WebhookURL != "" {
		wh := webhook.New(cfg.WebhookURL, webhook.WithVerbosity(verbosity))
		sinks = append(sinks, multi.Sink{Name: "webhook", Out: async.New(wh,
			async.WithBufferSize(cfg.BufferSize),
			async.WithOnError(onError),
			async.WithDropOnFull(),
		)})
	}
	fan := multi.New(sinks...)
	logger.Debug("mood sinks configured", "sinks", fan.Names())
	return fan, nil
}

func sourceConfig(cfg config.CatalogConfig) catalog.SourceConfig {
	sc := catalog.SourceConfig{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		Endpoint: cfg.Endpoint,
		BaseID:   cfg.BaseID,
		Table:    cfg.Table,
		Path:     cfg.Path,
		Timeout:  cfg.Timeout,
	}
	if cfg.Selector != "" {
		sc.Extra = map[string]string{"selector": cfg.Selector}
	}
	return sc
}

func loaderOptions(cfg config.CatalogConfig, logger *slog.Logger) loader.Options {
	return loader.Options{
		Provider:   cfg.Provider,
		PageSize:   cfg.PageSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		RatePerSec: cfg.RatePerSec,
		Logger:     logger,
	}
}

func breakerSettings(cfg config.CatalogConfig) *breaker.Settings {
	if !cfg.BreakerEnabled {
		return nil
	}
	return &breaker.Settings{
		Name:          "catalog-" + cfg.Provider,
		FailThreshold: cfg.BreakerThreshold,
		Timeout:       cfg.BreakerTimeout,
	}
}
