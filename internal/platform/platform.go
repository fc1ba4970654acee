package platform

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wingo-round-engine/internal/core/betting"
	"github.com/radieske/wingo-round-engine/internal/core/domain"
	"github.com/radieske/wingo-round-engine/internal/core/outcome"
	"github.com/radieske/wingo-round-engine/internal/core/risk"
	"github.com/radieske/wingo-round-engine/internal/core/settlement"
	"github.com/radieske/wingo-round-engine/internal/shared/config"
	"github.com/radieske/wingo-round-engine/internal/shared/metrics"
	"github.com/radieske/wingo-round-engine/pkg/contracts/events"
)

const publishTimeout = 2 * time.Second

// EventPublisher é o destino dos eventos de domínio (Kafka em produção)
type EventPublisher interface {
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
	PublishBetsSettled(ctx context.Context, e events.BetsSettled) error
	PublishRoundResolved(ctx context.Context, e events.RoundResolved) error
}

// RoundBroadcaster leva rodadas novas ao /ws (Redis Pub/Sub em produção)
type RoundBroadcaster interface {
	PublishRoundResolved(ctx context.Context, e events.RoundResolved) error
}

type Deps struct {
	Log         *zap.Logger
	Config      config.Config
	Store       domain.Store
	GameConfig  outcome.ConfigSource // nil usa o próprio Store
	Metrics     *metrics.Game        // opcional
	Events      EventPublisher       // opcional
	Broadcast   RoundBroadcaster     // opcional
	RateLimiter betting.RateLimiter  // opcional
	Rng         risk.Source
	Now         func() time.Time
}

// Core reúne os serviços do jogo já ligados a métricas e publicadores
type Core struct {
	Selector   *outcome.Selector
	Settlement *settlement.Engine
	Betting    *betting.Service

	d  Deps
	wg sync.WaitGroup
}

// Build monta seletor, motor de liquidação e serviço de apostas sobre o mesmo Store
func Build(d Deps) *Core {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.GameConfig == nil {
		d.GameConfig = d.Store
	}
	c := &Core{d: d}
	cfg := d.Config

	riskRng := d.Rng
	if riskRng == nil {
		riskRng = risk.DefaultSource()
	}
	c.Selector = outcome.NewSelector(d.Log.Named("outcome"), d.Store, d.GameConfig, risk.NewEngine(riskRng, d.Now), outcome.Options{
		Rng:         riskRng,
		RiskShare:   cfg.RiskEngineShare,
		DisableRisk: cfg.RiskEngineShare <= 0,
		Now:         d.Now,
		Hooks: outcome.Hooks{
			OnCreated:  c.roundCreated,
			OnConflict: c.roundConflict,
		},
	})

	c.Settlement = settlement.NewEngine(d.Log.Named("settlement"), d.Store, c.Selector, settlement.Options{
		HouseFee:    cfg.HouseFee,
		AdminUserID: cfg.AdminUserID,
		Now:         d.Now,
		Hooks: settlement.Hooks{
			OnSettled: c.settled,
			OnFailed:  c.settleFailed,
		},
	})

	limits := make(map[domain.GameType]betting.Limits, len(cfg.GameLimits))
	for g, l := range cfg.GameLimits {
		limits[g] = betting.Limits{Min: l.Min, Max: l.Max}
	}
	c.Betting = betting.NewService(d.Log.Named("betting"), d.Store, betting.Options{
		Limits:      limits,
		Default:     betting.Limits{Min: cfg.DefaultLimits.Min, Max: cfg.DefaultLimits.Max},
		AdminUserID: cfg.AdminUserID,
		RateLimiter: d.RateLimiter,
		Now:         d.Now,
		Hooks:       betting.Hooks{OnPlaced: c.betPlaced},
	})
	return c
}

// Close espera as publicações em andamento
func (c *Core) Close() { c.wg.Wait() }

// publish roda fora da transação do chamador, com timeout próprio
func (c *Core) publish(sink string, fn func(ctx context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			c.d.Log.Warn("event publish failed", zap.String("sink", sink), zap.Error(err))
			if c.d.Metrics != nil {
				c.d.Metrics.PublishFailures.WithLabelValues(sink).Inc()
			}
		}
	}()
}

func (c *Core) roundCreated(r domain.Round, source string) {
	if m := c.d.Metrics; m != nil {
		m.RoundsCreated.WithLabelValues(string(r.GameType), source).Inc()
	}
	e := events.RoundResolved{
		GameType:      string(r.GameType),
		Period:        r.Period,
		Number:        r.Number,
		Color:         string(r.Color),
		Size:          string(r.Size),
		ForcedByAdmin: r.ForcedByAdmin,
		Source:        source,
		CreatedAt:     r.CreatedAt,
	}
	if c.d.Events != nil {
		c.publish("kafka", func(ctx context.Context) error { return c.d.Events.PublishRoundResolved(ctx, e) })
	}
	if c.d.Broadcast != nil {
		c.publish("redis", func(ctx context.Context) error { return c.d.Broadcast.PublishRoundResolved(ctx, e) })
	}
}

func (c *Core) roundConflict(g domain.GameType, _ string) {
	if m := c.d.Metrics; m != nil {
		m.RoundConflicts.WithLabelValues(string(g)).Inc()
	}
}

func (c *Core) settled(userID string, res settlement.Result, elapsed time.Duration) {
	if m := c.d.Metrics; m != nil {
		g := string(res.GameType)
		outcomeLabel := metrics.OutcomeNoBets
		if res.HadBets {
			outcomeLabel = metrics.OutcomeSettled
		}
		m.Settlements.WithLabelValues(g, outcomeLabel).Inc()
		m.SettleLatency.WithLabelValues(g).Observe(elapsed.Seconds())
		m.PayoutTotal.WithLabelValues(g).Add(float64(res.TotalProfit))
		m.FeeTotal.WithLabelValues(g).Add(float64(res.TotalFeeCollected))
	}
	if !res.HadBets || c.d.Events == nil {
		return
	}
	e := events.BetsSettled{
		UserID:            userID,
		GameType:          string(res.GameType),
		Period:            res.Period,
		ResultNumber:      res.ResultNumber,
		ResultColor:       string(res.ResultColor),
		ResultSize:        string(res.Size),
		BetsSettled:       res.BetsSettled,
		Wins:              res.Wins,
		TotalStake:        res.TotalStake,
		TotalProfit:       res.TotalProfit,
		TotalFeeCollected: res.TotalFeeCollected,
		Balance:           res.Balance,
	}
	c.publish("kafka", func(ctx context.Context) error { return c.d.Events.PublishBetsSettled(ctx, e) })
}

func (c *Core) settleFailed(_ string, g domain.GameType, _ string, err error) {
	// rejeições de entrada não contam como falha de liquidação
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrAdminIdentity) {
		return
	}
	if m := c.d.Metrics; m != nil {
		m.Settlements.WithLabelValues(string(g), metrics.OutcomeError).Inc()
	}
}

func (c *Core) betPlaced(b domain.Bet, balance int64) {
	if m := c.d.Metrics; m != nil {
		m.BetsPlaced.WithLabelValues(string(b.GameType), string(b.Kind)).Inc()
		m.StakePlaced.WithLabelValues(string(b.GameType)).Add(float64(b.Amount))
	}
	if c.d.Events == nil {
		return
	}
	e := events.BetPlaced{
		BetID:        b.ID,
		UserID:       b.UserID,
		GameType:     string(b.GameType),
		Period:       b.Period,
		BetKind:      string(b.Kind),
		BetValue:     b.Value,
		Amount:       b.Amount,
		BalanceAfter: balance,
	}
	c.publish("kafka", func(ctx context.Context) error { return c.d.Events.PublishBetPlaced(ctx, e) })
}
