package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/wingo-round-engine/internal/core/domain"
	"github.com/radieske/wingo-round-engine/internal/game-service/auth"
	gamecache "github.com/radieske/wingo-round-engine/internal/game-service/cache"
	httpapi "github.com/radieske/wingo-round-engine/internal/game-service/http"
	"github.com/radieske/wingo-round-engine/internal/game-service/producer"
	"github.com/radieske/wingo-round-engine/internal/game-service/ratelimit"
	"github.com/radieske/wingo-round-engine/internal/game-service/ws"
	"github.com/radieske/wingo-round-engine/internal/platform"
	"github.com/radieske/wingo-round-engine/internal/settlement-worker/scheduler"
	"github.com/radieske/wingo-round-engine/internal/shared/cache"
	"github.com/radieske/wingo-round-engine/internal/shared/config"
	"github.com/radieske/wingo-round-engine/internal/shared/kafka"
	"github.com/radieske/wingo-round-engine/internal/shared/logger"
	"github.com/radieske/wingo-round-engine/internal/shared/metrics"
	"github.com/radieske/wingo-round-engine/pkg/contracts/events"
)

// hubBroadcaster entrega as rodadas direto ao Hub quando não há Redis
type hubBroadcaster struct{ hub *ws.Hub }

func (b hubBroadcaster) PublishRoundResolved(_ context.Context, e events.RoundResolved) error {
	b.hub.Broadcast(e)
	return nil
}

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "game-service"
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env),
		zap.String("store", cfg.StoreDriver))

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := platform.OpenBackend(ctx, log, cfg)
	if err != nil {
		log.Fatal("store init failed", zap.Error(err))
	}
	defer backend.Close()

	// Redis é opcional: cache de config, rate limit e fan-out do /ws
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rdb.Close()
		log.Info("redis connected")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	gm := metrics.NewGame(reg)

	hub := ws.NewHub(log.Named("ws"), func(*http.Request) bool { return true })

	deps := platform.Deps{
		Log:     log,
		Config:  cfg,
		Store:   backend.Store,
		Metrics: gm,
	}

	if cfg.KafkaBrokers != "" {
		pub := producer.NewKafkaPublisher(
			kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced),
			kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetsSettled),
			kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoundResolved),
		)
		defer pub.Close()
		deps.Events = pub
		log.Info("kafka writers ready", zap.String("brokers", cfg.KafkaBrokers))
	}

	var configSource httpapi.ConfigStore = backend.Store
	if rdb != nil {
		cc := gamecache.NewConfigCache(rdb, backend.Store, cfg.ConfigCacheTTL, log.Named("config-cache"))
		configSource = cc
		deps.GameConfig = cc
		deps.RateLimiter = ratelimit.NewRedisLimiter(rdb, cfg.BetRateLimit, time.Minute)
		deps.Broadcast = producer.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel)
		ws.StartRedisSubscriber(ctx, log.Named("ws"), rdb, cfg.RedisPubSubChannel, hub)
	} else {
		deps.Broadcast = hubBroadcaster{hub: hub}
	}

	core := platform.Build(deps)
	defer core.Close()

	// sem store compartilhado o worker não enxerga as apostas; a varredura roda aqui
	if !backend.Shared {
		sched := scheduler.New(log.Named("scheduler"), backend.Store, core.Selector, core.Settlement, scheduler.Options{
			GameTypes: domain.GameTypes,
			Grace:     cfg.SettleGrace,
			Interval:  cfg.SweepInterval,
		})
		go func() { _ = sched.Run(ctx) }()
		log.Info("in-process sweeper started")
	}

	health := func(ctx context.Context) error {
		if err := backend.Health(ctx); err != nil {
			return fmt.Errorf("store: %w", err)
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, reg, health)

	api := httpapi.NewServer(log.Named("http"), httpapi.Deps{
		Auth:     auth.NewVerifier(cfg.JWTSecret, cfg.InternalCronToken, cfg.AdminUserID),
		Bets:     core.Betting,
		Settler:  core.Settlement,
		Outcomes: core.Selector,
		History:  backend.Store,
		Config:   configSource,
		WS:       hub.HandleWS,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("game-service stopped")
}
