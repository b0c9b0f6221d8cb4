package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/sketchparty-backend/internal/config"
	"github.com/DoyleJ11/sketchparty-backend/internal/engine"
	"github.com/DoyleJ11/sketchparty-backend/internal/game"
	"github.com/DoyleJ11/sketchparty-backend/internal/httpapi"
	"github.com/DoyleJ11/sketchparty-backend/internal/hub"
	"github.com/DoyleJ11/sketchparty-backend/internal/lobby"
	"github.com/DoyleJ11/sketchparty-backend/internal/storage"
	"github.com/DoyleJ11/sketchparty-backend/internal/words"
	"github.com/DoyleJ11/sketchparty-backend/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if cfg.Development() {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func run(cfg config.Config, logger *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vocab, err := words.Load(cfg.WordsDir, logger)
	if err != nil {
		return fmt.Errorf("load words: %w", err)
	}

	var (
		results game.ResultRecorder
		history httpapi.GameHistory
	)
	if cfg.DatabaseURL != "" {
		store, openErr := storage.Open(ctx, cfg.DatabaseURL, logger.Named("storage"))
		if openErr != nil {
			return openErr
		}
		defer func() { err = multierr.Append(err, store.Close()) }()
		results, history = store, store
	} else {
		logger.Info("DATABASE_URL not set; finished games are not persisted")
	}

	e := engine.New(vocab)
	h := hub.NewHub(e)
	broker := lobby.NewBroker(ctx)
	svc := game.NewService(e, h, broker, results, logger.Named("game"))
	defer svc.Wait()

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Hub:            h,
			Games:          history,
			Logger:         logger.Named("http"),
			AllowedOrigins: cfg.AllowedOrigins,
			WS: ws.Handler(svc, logger.Named("ws"), ws.Options{
				AllowedOrigins: cfg.AllowedOrigins,
				MsgRate:        cfg.MsgRate,
				MsgBurst:       cfg.MsgBurst,
			}),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return game.NewTicker(svc, game.TickInterval).Run(gctx) })
	g.Go(func() error {
		return game.NewReaper(svc, cfg.ReapInterval, cfg.PublicIdle, cfg.PrivateIdle).Run(gctx)
	})

	err = g.Wait()
	logger.Info("shutting down", zap.Int("rooms", h.Len()))
	return err
}
