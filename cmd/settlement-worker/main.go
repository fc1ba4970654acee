package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/radieske/wingo-round-engine/internal/core/domain"
	"github.com/radieske/wingo-round-engine/internal/game-service/producer"
	"github.com/radieske/wingo-round-engine/internal/platform"
	"github.com/radieske/wingo-round-engine/internal/settlement-worker/consumer"
	"github.com/radieske/wingo-round-engine/internal/settlement-worker/scheduler"
	"github.com/radieske/wingo-round-engine/internal/shared/cache"
	"github.com/radieske/wingo-round-engine/internal/shared/config"
	"github.com/radieske/wingo-round-engine/internal/shared/kafka"
	"github.com/radieske/wingo-round-engine/internal/shared/logger"
	"github.com/radieske/wingo-round-engine/internal/shared/metrics"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "settlement-worker"
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := platform.OpenBackend(ctx, log, cfg)
	if err != nil {
		log.Fatal("store init failed", zap.Error(err))
	}
	defer backend.Close()
	if !backend.Shared {
		log.Fatal("settlement-worker needs a shared store", zap.String("store", cfg.StoreDriver))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	gm := metrics.NewGame(reg)
	wm := metrics.NewWorker(reg)

	deps := platform.Deps{Log: log, Config: cfg, Store: backend.Store, Metrics: gm}

	// rodadas criadas pela varredura também vão para o /ws e para o Kafka
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()
	deps.Broadcast = producer.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel)

	pub := producer.NewKafkaPublisher(
		kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced),
		kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetsSettled),
		kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoundResolved),
	)
	defer pub.Close()
	deps.Events = pub

	core := platform.Build(deps)
	defer core.Close()

	sched := scheduler.New(log.Named("scheduler"), backend.Store, core.Selector, core.Settlement, scheduler.Options{
		GameTypes: domain.GameTypes,
		Grace:     cfg.SettleGrace,
		Interval:  cfg.SweepInterval,
		Hooks: scheduler.Hooks{
			OnSwept:   func(g domain.GameType, _ string, _ int) { wm.Swept.WithLabelValues(string(g)).Inc() },
			OnError:   func(g domain.GameType, _ string, _ error) { wm.SweepErrors.WithLabelValues(string(g)).Inc() },
			OnPending: func(n int) { wm.Pending.Set(float64(n)) },
		},
	})

	// Configura o consumer Kafka (consumer group do worker)
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetPlaced, cfg.ConsumerGroup)
	defer reader.Close()
	proc := &consumer.Processor{
		Log:        log.Named("consumer"),
		Reader:     reader,
		Queue:      sched,
		OnConsumed: wm.Consumed.Inc,
		OnError:    func(stage string) { wm.ConsumeErrors.WithLabelValues(stage).Inc() },
	}

	health := func(ctx context.Context) error {
		if err := backend.Health(ctx); err != nil {
			return fmt.Errorf("store: %w", err)
		}
		return rdb.Ping(ctx).Err()
	}
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, reg, health)

	go func() {
		if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("consumer stopped with error", zap.Error(err))
			stop()
		}
	}()

	log.Info("settlement-worker started",
		zap.Duration("grace", cfg.SettleGrace), zap.Duration("interval", cfg.SweepInterval))
	_ = sched.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("settlement-worker stopped")
}
