package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"finitefield.org/catalog-web/internal/catalog"
	"finitefield.org/catalog-web/internal/config"
	"finitefield.org/catalog-web/internal/content"
	"finitefield.org/catalog-web/internal/i18n"
	"finitefield.org/catalog-web/internal/loader"
	mw "finitefield.org/catalog-web/internal/middleware"
	"finitefield.org/catalog-web/internal/observability"
)

const shutdownTimeout = 10 * time.Second

type servePaths struct {
	addr      string
	templates string
	public    string
	content   string
	locales   string
}

func newServeCmd(envFile *string) *cobra.Command {
	var paths servePaths
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP storefront",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.WithEnvFile(*envFile))
			if err != nil {
				return err
			}
			if paths.addr == "" {
				paths.addr = ":" + cfg.Server.Port
			}
			logger, err := observability.NewLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, paths, logger)
		},
	}
	cmd.Flags().StringVar(&paths.addr, "addr", "", "HTTP listen address (default :$CATALOG_WEB_PORT)")
	cmd.Flags().StringVar(&paths.templates, "templates", "templates", "templates directory")
	cmd.Flags().StringVar(&paths.public, "public", "public", "public assets directory")
	cmd.Flags().StringVar(&paths.content, "content", "content", "markdown content directory")
	cmd.Flags().StringVar(&paths.locales, "locales", "locales", "locale bundles directory")
	return cmd
}

// serve runs the HTTP server and the one-shot product load side by side until ctx ends.
func serve(ctx context.Context, cfg config.Config, paths servePaths, logger *zap.Logger) error {
	bundle, err := i18n.Load(paths.locales, cfg.Server.DefaultLang, []string{"pt", "en"})
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}
	store := catalog.NewStore()
	a := &app{
		cfg:          cfg,
		logger:       logger,
		store:        store,
		bundle:       bundle,
		content:      content.NewSource(paths.content, content.WithFallbacks(cfg.Server.DefaultLang, "pt", "en")),
		sessions:     mw.NewSessions(mw.SessionOptions{HashKey: cfg.Session.HashKey, BlockKey: cfg.Session.BlockKey, Secure: cfg.Session.Secure, Logger: logger}),
		templatesDir: paths.templates,
		publicDir:    paths.public,
		devMode:      cfg.Server.DevMode,
	}
	if !a.devMode {
		tc, err := a.parseTemplates()
		if err != nil {
			return fmt.Errorf("parse templates: %w", err)
		}
		a.tmplCache = tc
	}

	srv := &http.Server{
		Addr:              paths.addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	ldr := loader.New(store, loaderOptions(cfg, logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("web listening", zap.String("addr", paths.addr), zap.Bool("dev_mode", a.devMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// failures are logged by the loader; the page simply stays empty
		_ = ldr.Load(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func loaderOptions(cfg config.Config, logger *zap.Logger) loader.Options {
	return loader.Options{
		ServerURL:   cfg.Backend.ServerURL,
		FixturePath: cfg.Backend.FixturePath,
		Timeout:     cfg.Backend.FetchTimeout,
		Retries:     cfg.Backend.FetchRetries,
		Logger:      logger.Named("loader"),
	}
}
