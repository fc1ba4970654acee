package outcome

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wingo-round-engine/internal/core/domain"
	"github.com/radieske/wingo-round-engine/internal/core/risk"
)

// DefaultRiskShare é a fração das rodadas novas decididas pelo motor de risco
const DefaultRiskShare = 0.3

// Origem do número de uma rodada (label de métricas)
const (
	SourceAdmin  = "admin"
	SourceRandom = "random"
	SourceRisk   = "risk"
)

// RoundStore é o subconjunto da persistência usado pelo seletor.
// CreateRound deve ser um insert-if-absent atômico na camada de armazenamento.
type RoundStore interface {
	GetRound(ctx context.Context, g domain.GameType, period string) (domain.Round, error)
	CreateRound(ctx context.Context, r domain.Round) (created bool, err error)
	ForceRound(ctx context.Context, r domain.Round) (domain.Round, error)
}

// ConfigSource entrega a GameConfig atual (lida a cada decisão)
type ConfigSource interface {
	GetGameConfig(ctx context.Context) (domain.GameConfig, error)
}

// Hooks são callbacks opcionais para métricas e broadcast
type Hooks struct {
	OnCreated  func(r domain.Round, source string)
	OnConflict func(g domain.GameType, period string)
}

// Selector resolve o resultado de um período: admin, risco ponderado ou aleatório puro
type Selector struct {
	rounds    RoundStore
	config    ConfigSource
	risk      *risk.Engine
	rng       risk.Source
	riskShare float64
	now       func() time.Time
	log       *zap.Logger
	hooks     Hooks
}

type Options struct {
	Rng risk.Source
	// RiskShare fora de (0, 1] usa DefaultRiskShare
	RiskShare float64
	// DisableRisk faz toda rodada nova ser sorteada uniformemente
	DisableRisk bool
	Now         func() time.Time
	Hooks       Hooks
}

func NewSelector(log *zap.Logger, rounds RoundStore, config ConfigSource, engine *risk.Engine, opts Options) *Selector {
	if opts.Rng == nil {
		opts.Rng = risk.DefaultSource()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RiskShare <= 0 || opts.RiskShare > 1 {
		opts.RiskShare = DefaultRiskShare
	}
	if opts.DisableRisk {
		opts.RiskShare = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Selector{
		rounds:    rounds,
		config:    config,
		risk:      engine,
		rng:       opts.Rng,
		riskShare: opts.RiskShare,
		now:       opts.Now,
		log:       log,
		hooks:     opts.Hooks,
	}
}

// Resolve devolve a rodada do período, criando-a se ainda não existir.
// Uma rodada já persistida (forçada ou não) é devolvida sem alteração.
// Em corrida, o primeiro a gravar vence e os demais relêem o registro salvo.
func (s *Selector) Resolve(ctx context.Context, g domain.GameType, period string, user *domain.User, bets []domain.Bet) (domain.Round, error) {
	r, err := s.rounds.GetRound(ctx, g, period)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Round{}, fmt.Errorf("load round: %w", err)
	}

	n, source, err := s.candidate(ctx, user, bets)
	if err != nil {
		return domain.Round{}, err
	}

	cand := domain.NewRound(g, period, n)
	cand.CreatedAt = s.now()

	created, err := s.rounds.CreateRound(ctx, cand)
	if err != nil {
		return domain.Round{}, fmt.Errorf("create round: %w", err)
	}
	if created {
		if s.hooks.OnCreated != nil {
			s.hooks.OnCreated(cand, source)
		}
		return cand, nil
	}

	// outro processo gravou primeiro: descarta o candidato local
	s.log.Warn("round already created by concurrent writer",
		zap.String("gameType", string(g)), zap.String("period", period))
	if s.hooks.OnConflict != nil {
		s.hooks.OnConflict(g, period)
	}
	r, err = s.rounds.GetRound(ctx, g, period)
	if err != nil {
		return domain.Round{}, fmt.Errorf("reload round: %w", err)
	}
	return r, nil
}

// EnsureRound garante que o período tenha resultado, sem população de apostas
func (s *Selector) EnsureRound(ctx context.Context, g domain.GameType, period string) (domain.Round, error) {
	return s.Resolve(ctx, g, period, nil, nil)
}

func (s *Selector) candidate(ctx context.Context, user *domain.User, bets []domain.Bet) (int, string, error) {
	if s.rng.Float64() >= s.riskShare {
		return s.rng.IntN(10), SourceRandom, nil
	}
	cfg, err := s.config.GetGameConfig(ctx)
	if err != nil {
		return 0, "", fmt.Errorf("load game config: %w", err)
	}
	return s.risk.DecideNumber(user, bets, cfg), SourceRisk, nil
}

// ForceRequest é o override manual de resultado
type ForceRequest struct {
	GameType domain.GameType
	Period   string
	Number   int
	Color    string // opcional: G/GREEN, R/RED, V/VIOLET
	Size     string // opcional: SMALL/S, BIG/B
	SetBy    string
}

// Force grava o resultado do admin. Rejeita com ErrConflict se alguma aposta do período já foi liquidada.
func (s *Selector) Force(ctx context.Context, req ForceRequest) (domain.Round, error) {
	if req.Period == "" {
		return domain.Round{}, fmt.Errorf("%w: period is required", domain.ErrValidation)
	}
	if req.Number < 0 || req.Number > 9 {
		return domain.Round{}, fmt.Errorf("%w: invalid resultNumber %d", domain.ErrValidation, req.Number)
	}

	r := domain.NewRound(req.GameType, req.Period, req.Number)
	if req.Color != "" {
		c, err := domain.ParseColor(req.Color)
		if err != nil {
			return domain.Round{}, err
		}
		r.Color = c
	}
	if req.Size != "" {
		sz, err := domain.ParseSize(req.Size)
		if err != nil {
			return domain.Round{}, err
		}
		r.Size = sz
	}
	r.ForcedByAdmin = true
	r.SetBy = req.SetBy
	r.CreatedAt = s.now()

	stored, err := s.rounds.ForceRound(ctx, r)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.log.Warn("late admin override rejected",
				zap.String("gameType", string(req.GameType)), zap.String("period", req.Period))
		}
		return domain.Round{}, err
	}
	if s.hooks.OnCreated != nil {
		s.hooks.OnCreated(stored, SourceAdmin)
	}
	return stored, nil
}
