package sim

import (
	"context"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wingo-round-engine/internal/game-service/dto"
	"github.com/radieske/wingo-round-engine/internal/player-simulator/client"
)

type Player struct {
	ID     string
	Client *client.Client
}

// Hooks para métricas do simulador
type Hooks struct {
	OnBet     func(player string, err error)
	OnSettled func(player string, res dto.SettleResponse, err error)
}

type Options struct {
	GameType  string
	MinAmount int64
	MaxAmount int64
	Seed      uint64
	Grace     time.Duration // espera após o fim do período antes de liquidar
	Hooks     Hooks
}

// Runner faz cada jogador apostar uma vez por período e liquidar depois do fechamento
type Runner struct {
	log     *zap.Logger
	players []Player
	opts    Options

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRunner(log *zap.Logger, players []Player, opts Options) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.GameType == "" {
		opts.GameType = "30s"
	}
	if opts.MinAmount <= 0 {
		opts.MinAmount = 10
	}
	if opts.MaxAmount < opts.MinAmount {
		opts.MaxAmount = opts.MinAmount
	}
	return &Runner{
		log:     log,
		players: players,
		opts:    opts,
		rng:     rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}
}

// RandomBet sorteia tipo, valor e quantia
func (r *Runner) RandomBet() dto.PlaceBetRequest {
	r.mu.Lock()
	defer r.mu.Unlock()

	req := dto.PlaceBetRequest{
		GameType: r.opts.GameType,
		Amount:   r.opts.MinAmount + r.rng.Int64N(r.opts.MaxAmount-r.opts.MinAmount+1),
	}
	switch r.rng.IntN(3) {
	case 0:
		req.BetKind = "color"
		req.BetValue = []string{"G", "R", "V"}[r.rng.IntN(3)]
	case 1:
		req.BetKind = "number"
		req.BetValue = strconv.Itoa(r.rng.IntN(10))
	default:
		req.BetKind = "size"
		req.BetValue = []string{"SMALL", "BIG"}[r.rng.IntN(2)]
	}
	return req
}

// Round aposta por todos os jogadores no período corrente e devolve o período
func (r *Runner) Round(ctx context.Context) (dto.CurrentPeriodResponse, error) {
	cur, err := r.players[0].Client.Current(ctx, r.opts.GameType)
	if err != nil {
		return cur, err
	}
	var wg sync.WaitGroup
	for _, p := range r.players {
		wg.Add(1)
		go func(p Player) {
			defer wg.Done()
			_, err := p.Client.PlaceBet(ctx, r.RandomBet())
			if err != nil {
				r.log.Debug("bet rejected", zap.String("player", p.ID), zap.Error(err))
			}
			if r.opts.Hooks.OnBet != nil {
				r.opts.Hooks.OnBet(p.ID, err)
			}
		}(p)
	}
	wg.Wait()
	return cur, nil
}

// SettleAll liquida o período para todos os jogadores
func (r *Runner) SettleAll(ctx context.Context, period string) {
	var wg sync.WaitGroup
	for _, p := range r.players {
		wg.Add(1)
		go func(p Player) {
			defer wg.Done()
			res, err := p.Client.Settle(ctx, r.opts.GameType, period)
			if err != nil {
				r.log.Warn("settle failed", zap.String("player", p.ID), zap.String("period", period), zap.Error(err))
			} else if res.HadBets {
				r.log.Info("settled", zap.String("player", p.ID), zap.String("period", period),
					zap.Int("number", res.ResultNumber), zap.Int64("profit", res.TotalProfit), zap.Int64("balance", res.Balance))
			}
			if r.opts.Hooks.OnSettled != nil {
				r.opts.Hooks.OnSettled(p.ID, res, err)
			}
		}(p)
	}
	wg.Wait()
}

// Run repete Round/SettleAll até o contexto ser cancelado
func (r *Runner) Run(ctx context.Context) error {
	for {
		cur, err := r.Round(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.log.Warn("current period failed", zap.Error(err))
			cur.EndsAt = time.Now().Add(time.Second)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(cur.EndsAt) + r.opts.Grace):
		}
		if cur.Period != "" {
			r.SettleAll(ctx, cur.Period)
		}
	}
}
