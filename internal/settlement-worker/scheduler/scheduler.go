package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wingo-round-engine/internal/core/domain"
	"github.com/radieske/wingo-round-engine/internal/core/period"
	"github.com/radieske/wingo-round-engine/internal/core/settlement"
)

const (
	// maxAttempts limita as tentativas de um período com falha de infraestrutura
	maxAttempts = 5
	// maxCatchUp limita quantos períodos a varredura agenda de uma vez após uma pausa
	maxCatchUp = 64
)

type PendingUsers interface {
	UsersWithUnsettledBets(ctx context.Context, g domain.GameType, period string) ([]string, error)
}

type Rounds interface {
	EnsureRound(ctx context.Context, g domain.GameType, period string) (domain.Round, error)
}

type Settler interface {
	Settle(ctx context.Context, userID string, g domain.GameType, period string) (settlement.Result, error)
}

// Hooks para métricas
type Hooks struct {
	OnSwept   func(g domain.GameType, period string, users int)
	OnError   func(g domain.GameType, period string, err error)
	OnPending func(n int)
}

type Options struct {
	GameTypes []domain.GameType
	Grace     time.Duration // espera após o fim do período antes de liquidar
	Interval  time.Duration
	Now       func() time.Time
	Hooks     Hooks
}

type key struct {
	g      domain.GameType
	period string
	idx    int64
}

// Scheduler fecha os períodos encerrados: liquida quem apostou e grava a rodada dos períodos sem apostas
type Scheduler struct {
	log     *zap.Logger
	users   PendingUsers
	rounds  Rounds
	settler Settler
	opts    Options

	mu       sync.Mutex
	pending  map[key]int // tentativas
	last     map[domain.GameType]int64
	sweeping sync.Mutex
}

func New(log *zap.Logger, users PendingUsers, rounds Rounds, settler Settler, opts Options) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if len(opts.GameTypes) == 0 {
		opts.GameTypes = domain.GameTypes
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		log:     log,
		users:   users,
		rounds:  rounds,
		settler: settler,
		opts:    opts,
		pending: make(map[key]int),
		last:    make(map[domain.GameType]int64),
	}
}

// Enqueue agenda um período conhecido por evento (ex.: bet_placed). Períodos abertos esperam o fechamento.
func (s *Scheduler) Enqueue(g domain.GameType, periodID string) error {
	pg, idx, err := period.Parse(periodID)
	if err != nil {
		return err
	}
	if pg != g {
		return fmt.Errorf("%w: period %s does not belong to game %s", domain.ErrValidation, periodID, g)
	}
	s.mu.Lock()
	if _, ok := s.pending[key{g, periodID, idx}]; !ok {
		s.pending[key{g, periodID, idx}] = 0
	}
	n := len(s.pending)
	s.mu.Unlock()
	s.pendingChanged(n)
	return nil
}

// Pending devolve quantos períodos aguardam liquidação
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Run varre a cada Interval até o contexto ser cancelado
func (s *Scheduler) Run(ctx context.Context) error {
	t := time.NewTicker(s.opts.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep agenda os períodos recém-fechados e processa tudo que já passou da carência
func (s *Scheduler) Sweep(ctx context.Context) {
	s.sweeping.Lock()
	defer s.sweeping.Unlock()

	cutoff := s.opts.Now().Add(-s.opts.Grace)
	due := s.collect(cutoff)

	for _, k := range due {
		if ctx.Err() != nil {
			return
		}
		n, err := s.closePeriod(ctx, k)
		s.mu.Lock()
		if err == nil {
			delete(s.pending, k)
		} else {
			s.pending[k]++
			if s.pending[k] >= maxAttempts {
				s.log.Error("giving up on period",
					zap.String("gameType", string(k.g)), zap.String("period", k.period), zap.Error(err))
				delete(s.pending, k)
			}
		}
		left := len(s.pending)
		s.mu.Unlock()
		s.pendingChanged(left)

		if err != nil {
			if s.opts.Hooks.OnError != nil {
				s.opts.Hooks.OnError(k.g, k.period, err)
			}
			continue
		}
		if s.opts.Hooks.OnSwept != nil {
			s.opts.Hooks.OnSwept(k.g, k.period, n)
		}
	}
}

// collect agenda os períodos fechados desde a última varredura e devolve os vencidos em ordem
func (s *Scheduler) collect(cutoff time.Time) []key {
	s.mu.Lock()
	defer s.mu.Unlock()

	closed := make(map[domain.GameType]int64, len(s.opts.GameTypes))
	for _, g := range s.opts.GameTypes {
		prev := period.Previous(g, cutoff)
		closed[g] = prev.Index

		from := prev.Index
		if last, ok := s.last[g]; ok {
			from = max(last+1, prev.Index-maxCatchUp+1)
		}
		for idx := from; idx <= prev.Index; idx++ {
			k := key{g, period.ID(g, idx), idx}
			if _, ok := s.pending[k]; !ok {
				s.pending[k] = 0
			}
		}
		s.last[g] = prev.Index
	}

	var due []key
	for k := range s.pending {
		if last, ok := closed[k.g]; ok && k.idx <= last {
			due = append(due, k)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].g != due[j].g {
			return due[i].g < due[j].g
		}
		return due[i].idx < due[j].idx
	})
	return due
}

// closePeriod liquida cada usuário com aposta aberta; sem apostas, só grava a rodada
func (s *Scheduler) closePeriod(ctx context.Context, k key) (int, error) {
	users, err := s.users.UsersWithUnsettledBets(ctx, k.g, k.period)
	if err != nil {
		return 0, fmt.Errorf("list pending users: %w", err)
	}
	if len(users) == 0 {
		if _, err := s.rounds.EnsureRound(ctx, k.g, k.period); err != nil {
			return 0, fmt.Errorf("ensure round: %w", err)
		}
		return 0, nil
	}

	var firstErr error
	for _, u := range users {
		if _, err := s.settler.Settle(ctx, u, k.g, k.period); err != nil {
			if permanent(err) {
				s.log.Warn("skipping user on sweep",
					zap.String("userId", u), zap.String("period", k.period), zap.Error(err))
				continue
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return len(users), firstErr
}

// permanent: repetir não muda o resultado
func permanent(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrAdminIdentity) ||
		errors.Is(err, domain.ErrValidation)
}

func (s *Scheduler) pendingChanged(n int) {
	if s.opts.Hooks.OnPending != nil {
		s.opts.Hooks.OnPending(n)
	}
}
