package betting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/wingo-round-engine/internal/core/domain"
	"github.com/radieske/wingo-round-engine/internal/core/period"
)

// Limits define o valor mínimo e máximo por aposta
type Limits struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// LimitError é devolvido quando o valor está fora dos limites do jogo
type LimitError struct {
	Amount int64
	Limits Limits
}

func (e *LimitError) Error() string {
	if e.Amount < e.Limits.Min {
		return fmt.Sprintf("minimum bet is %d", e.Limits.Min)
	}
	return fmt.Sprintf("maximum bet is %d", e.Limits.Max)
}

func (e *LimitError) Unwrap() error { return domain.ErrValidation }

// RateLimiter limita a frequência de apostas por usuário
type RateLimiter interface {
	Allow(ctx context.Context, userID string) (bool, error)
}

type Hooks struct {
	OnPlaced func(b domain.Bet, balance int64)
}

type Options struct {
	Limits      map[domain.GameType]Limits
	Default     Limits
	AdminUserID string
	RateLimiter RateLimiter
	Now         func() time.Time
	NewID       func() string
	Hooks       Hooks
}

// Service é o único escritor de novas apostas
type Service struct {
	store domain.WalletStore
	opts  Options
	log   *zap.Logger
}

func NewService(log *zap.Logger, store domain.WalletStore, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Default == (Limits{}) {
		opts.Default = Limits{Min: 10, Max: 100000}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, opts: opts, log: log}
}

// LimitsFor devolve os limites do tipo de jogo (ou o default)
func (s *Service) LimitsFor(g domain.GameType) Limits {
	if l, ok := s.opts.Limits[g]; ok {
		return l
	}
	return s.opts.Default
}

type PlaceRequest struct {
	UserID   string
	GameType domain.GameType
	Kind     domain.BetKind
	Value    string
	Amount   int64
}

type Placed struct {
	Bet            domain.Bet
	CurrentBalance int64
}

// Place valida a aposta, debita o valor do saldo (escrow) e cria a aposta em aberto no período corrente
func (s *Service) Place(ctx context.Context, req PlaceRequest) (Placed, error) {
	if req.Amount <= 0 {
		return Placed{}, fmt.Errorf("%w: invalid bet amount", domain.ErrValidation)
	}
	lim := s.LimitsFor(req.GameType)
	if req.Amount < lim.Min || req.Amount > lim.Max {
		return Placed{}, &LimitError{Amount: req.Amount, Limits: lim}
	}
	value, err := domain.NormalizeBet(req.Kind, req.Value)
	if err != nil {
		return Placed{}, err
	}
	if s.opts.AdminUserID != "" && req.UserID == s.opts.AdminUserID {
		return Placed{}, domain.ErrAdminIdentity
	}

	if s.opts.RateLimiter != nil {
		ok, err := s.opts.RateLimiter.Allow(ctx, req.UserID)
		if err != nil {
			// limiter indisponível não bloqueia a aposta
			s.log.Warn("rate limit check failed", zap.String("userId", req.UserID), zap.Error(err))
		} else if !ok {
			return Placed{}, domain.ErrRateLimited
		}
	}

	now := s.opts.Now()
	bet := domain.Bet{
		ID:       s.opts.NewID(),
		UserID:   req.UserID,
		GameType: req.GameType,
		Period:   period.Current(req.GameType, now),
		Kind:     req.Kind,
		Value:    value,
		Amount:   req.Amount,
	}

	var balance int64
	err = s.store.InUserTx(ctx, req.UserID, func(tx domain.UserTx) error {
		// a espera pelo lock pode cruzar o fim do período, que talvez já tenha rodada publicada
		if cur := period.Current(req.GameType, s.opts.Now()); cur != bet.Period {
			return fmt.Errorf("%w: period %s closed, retry in %s", domain.ErrConflict, bet.Period, cur)
		}
		u := tx.User()
		if u.IsBlocked {
			return domain.ErrBlocked
		}
		if u.Balance < req.Amount {
			return domain.ErrInsufficientBalance
		}
		u.Balance -= req.Amount
		if err := tx.SaveUser(ctx, u); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		if err := tx.CreateBet(ctx, &bet); err != nil {
			return fmt.Errorf("create bet: %w", err)
		}
		balance = u.Balance
		return nil
	})
	if err != nil {
		if !isBusinessError(err) {
			s.log.Error("place bet failed", zap.String("userId", req.UserID), zap.Error(err))
		}
		return Placed{}, err
	}

	if s.opts.Hooks.OnPlaced != nil {
		s.opts.Hooks.OnPlaced(bet, balance)
	}
	return Placed{Bet: bet, CurrentBalance: balance}, nil
}

func isBusinessError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrBlocked) ||
		errors.Is(err, domain.ErrInsufficientBalance)
}
