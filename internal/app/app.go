package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sharetube/watchparty/internal/controller"
	connInmemory "github.com/sharetube/watchparty/internal/repository/connection/inmemory"
	roomInmemory "github.com/sharetube/watchparty/internal/repository/room/inmemory"
	roomRedis "github.com/sharetube/watchparty/internal/repository/room/redis"
	"github.com/sharetube/watchparty/internal/service/mirror"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/ctxlogger"
	"github.com/sharetube/watchparty/pkg/redisclient"
	"github.com/sharetube/watchparty/pkg/validator"
)

const (
	shutdownTimeout = 30 * time.Second
	mirrorQueueSize = 1024
)

type AppConfig struct {
	Host             string        `json:"host"`
	Port             int           `json:"port" validate:"min=1,max=65535"`
	LogLevel         string        `json:"log_level" validate:"required"`
	StaticDir        string        `json:"static_dir"`
	HostOnlyControls bool          `json:"host_only_controls"`
	SendBuffer       int           `json:"send_buffer" validate:"min=1"`
	RedisHost        string        `json:"redis_host"`
	RedisPort        int           `json:"redis_port" validate:"min=1,max=65535"`
	RedisPassword    string        `json:"-"`
	MirrorTTL        time.Duration `json:"mirror_ttl" validate:"required_with=RedisHost,gte=0"`
}

func (cfg *AppConfig) Validate() error {
	if err := validator.NewValidator().Validate(cfg); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	return nil
}

func newLogger(cfg *AppConfig) *slog.Logger {
	logLevel := slog.LevelInfo
	// validated by AppConfig.Validate
	_ = logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel)))

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h)
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	roomConfig := &room.Config{HostOnlyControls: cfg.HostOnlyControls}
	if cfg.RedisHost != "" {
		rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		defer rc.Close()

		roomMirror := mirror.New(roomRedis.NewRepo(rc, cfg.MirrorTTL, logger), mirrorQueueSize, logger)
		roomConfig.Mirror = roomMirror
		g.Go(func() error {
			return roomMirror.Run(gCtx)
		})
	}

	roomService := room.NewService(roomInmemory.NewRepo(logger), connInmemory.NewRepo(logger), roomConfig, logger)
	controller := controller.NewController(roomService, logger, &controller.Config{
		StaticDir:  cfg.StaticDir,
		SendBuffer: cfg.SendBuffer,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           controller.GetMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.InfoContext(gCtx, "starting server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	// graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}

		return nil
	})

	return g.Wait()
}
