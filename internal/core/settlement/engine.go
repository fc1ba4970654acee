package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/wingo-round-engine/internal/core/domain"
	"github.com/radieske/wingo-round-engine/internal/core/period"
)

// DefaultHouseFee é a taxa da casa sobre o ganho bruto (2%)
const DefaultHouseFee = 0.02

// RoundResolver é implementado por outcome.Selector
type RoundResolver interface {
	Resolve(ctx context.Context, g domain.GameType, period string, user *domain.User, bets []domain.Bet) (domain.Round, error)
	EnsureRound(ctx context.Context, g domain.GameType, period string) (domain.Round, error)
}

// Result é o resumo devolvido ao chamador
type Result struct {
	GameType          domain.GameType `json:"gameType"`
	Period            string          `json:"period"`
	ResultNumber      int             `json:"resultNumber"`
	ResultColor       domain.Color    `json:"resultColor"`
	Size              domain.Size     `json:"size"`
	HadBets           bool            `json:"hadBets"`
	BetsSettled       int             `json:"betsSettled"`
	Wins              int             `json:"wins"`
	TotalStake        int64           `json:"totalStake"`
	TotalProfit       int64           `json:"totalProfit"`
	TotalFeeCollected int64           `json:"totalFeeCollected"`
	Balance           int64           `json:"balance"`
	HouseFeePercent   float64         `json:"houseFeePercent"`
}

// Hooks recebem o resultado depois do commit
type Hooks struct {
	OnSettled func(userID string, res Result, elapsed time.Duration)
	OnFailed  func(userID string, g domain.GameType, period string, err error)
}

type Options struct {
	HouseFee    float64
	AdminUserID string
	Now         func() time.Time
	Hooks       Hooks
}

// Engine liquida as apostas abertas de um usuário em um período
type Engine struct {
	store    domain.WalletStore
	rounds   RoundResolver
	houseFee decimal.Decimal
	adminID  string
	now      func() time.Time
	log      *zap.Logger
	hooks    Hooks
}

func NewEngine(log *zap.Logger, store domain.WalletStore, rounds RoundResolver, opts Options) *Engine {
	if opts.HouseFee <= 0 || opts.HouseFee >= 1 {
		opts.HouseFee = DefaultHouseFee
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		store:    store,
		rounds:   rounds,
		houseFee: decimal.NewFromFloat(opts.HouseFee),
		adminID:  opts.AdminUserID,
		now:      opts.Now,
		log:      log,
		hooks:    opts.Hooks,
	}
}

// HouseFeePercent devolve a taxa configurada em pontos percentuais
func (e *Engine) HouseFeePercent() float64 {
	return e.houseFee.Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// Payout calcula lucro e taxa de uma aposta vencedora: fee = round(bruto*taxa), lucro = bruto - fee
func (e *Engine) Payout(kind domain.BetKind, amount int64) (profit, fee int64) {
	gross := decimal.NewFromInt(amount).Mul(decimal.NewFromInt(domain.Multiplier(kind)))
	f := gross.Mul(e.houseFee).Round(0)
	return gross.Sub(f).IntPart(), f.IntPart()
}

// Settle liquida (userID, g, period). É idempotente: apostas já liquidadas não são revisitadas,
// então uma segunda chamada responde HadBets=false sem mexer no saldo.
func (e *Engine) Settle(ctx context.Context, userID string, g domain.GameType, periodID string) (Result, error) {
	start := e.now()

	if e.adminID != "" && userID == e.adminID {
		return Result{}, domain.ErrAdminIdentity
	}
	if err := e.checkPeriod(g, periodID); err != nil {
		return Result{}, err
	}

	res, err := e.settle(ctx, userID, g, periodID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			e.log.Error("settlement failed",
				zap.String("userId", userID), zap.String("gameType", string(g)),
				zap.String("period", periodID), zap.Error(err))
		}
		if e.hooks.OnFailed != nil {
			e.hooks.OnFailed(userID, g, periodID, err)
		}
		return Result{}, err
	}

	if res.HadBets {
		e.log.Info("bets settled",
			zap.String("userId", userID), zap.String("period", periodID),
			zap.Int("bets", res.BetsSettled), zap.Int("wins", res.Wins),
			zap.Int64("profit", res.TotalProfit), zap.Int64("balance", res.Balance))
	}
	if e.hooks.OnSettled != nil {
		e.hooks.OnSettled(userID, res, e.now().Sub(start))
	}
	return res, nil
}

// settle roda em duas transações curtas. A primeira só lê as apostas em aberto e o usuário;
// a rodada é resolvida fora de qualquer transação, então cada liquidação segura no máximo
// uma conexão do pool. A segunda relê as apostas sob o lock e aplica o resultado.
func (e *Engine) settle(ctx context.Context, userID string, g domain.GameType, periodID string) (Result, error) {
	var (
		snapshot domain.User
		pending  []domain.Bet
	)
	err := e.store.InUserTx(ctx, userID, func(tx domain.UserTx) error {
		bets, err := tx.UnsettledBets(ctx, g, periodID)
		if err != nil {
			return fmt.Errorf("load unsettled bets: %w", err)
		}
		snapshot, pending = *tx.User(), bets
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if len(pending) == 0 {
		round, err := e.rounds.EnsureRound(ctx, g, periodID)
		if err != nil {
			return Result{}, err
		}
		res := e.newResult(round)
		res.Balance = snapshot.Balance
		return res, nil
	}

	round, err := e.rounds.Resolve(ctx, g, periodID, &snapshot, pending)
	if err != nil {
		return Result{}, err
	}

	res := e.newResult(round)
	err = e.store.InUserTx(ctx, userID, func(tx domain.UserTx) error {
		user := tx.User()
		bets, err := tx.UnsettledBets(ctx, g, periodID)
		if err != nil {
			return fmt.Errorf("load unsettled bets: %w", err)
		}
		// outra chamada liquidou entre as duas transações
		if len(bets) == 0 {
			res.Balance = user.Balance
			return nil
		}
		res.HadBets = true

		for i := range bets {
			b := &bets[i]
			user.TradeVolumeSinceLastDeposit += b.Amount
			res.TotalStake += b.Amount

			var profit, fee int64
			win := domain.WinsRound(b.Kind, b.Value, round)
			if win {
				profit, fee = e.Payout(b.Kind, b.Amount)
				user.Balance += profit
				res.TotalProfit += profit
				res.TotalFeeCollected += fee
				res.Wins++
			}

			n := round.Number
			bal := user.Balance
			b.ResultNumber = &n
			b.ResultColor = round.Color
			b.ResultSize = round.Size
			b.Win = win
			b.Profit = profit
			b.Settled = true
			b.BalanceAfter = &bal

			if err := tx.SettleBet(ctx, b); err != nil {
				return fmt.Errorf("save bet %s: %w", b.ID, err)
			}
			res.BetsSettled++
		}

		// rollover cumprido: libera as restrições do depósito
		if user.HasActiveDeposit && user.PendingTurnover > 0 && user.TradeVolumeSinceLastDeposit >= user.PendingTurnover {
			user.HasActiveDeposit = false
			user.PendingTurnover = 0
			user.TradeVolumeSinceLastDeposit = 0
		}

		if err := tx.SaveUser(ctx, user); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		res.Balance = user.Balance
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// checkPeriod exige um período bem formado, do mesmo tipo de jogo e já encerrado
func (e *Engine) checkPeriod(g domain.GameType, periodID string) error {
	if periodID == "" {
		return fmt.Errorf("%w: period is required", domain.ErrValidation)
	}
	pg, idx, err := period.Parse(periodID)
	if err != nil {
		return err
	}
	if pg != g {
		return fmt.Errorf("%w: period %s does not belong to game %s", domain.ErrValidation, periodID, g)
	}
	if idx >= period.Index(g, e.now()) {
		return fmt.Errorf("%w: period %s is still open", domain.ErrValidation, periodID)
	}
	return nil
}

func (e *Engine) newResult(r domain.Round) Result {
	return Result{
		GameType:        r.GameType,
		Period:          r.Period,
		ResultNumber:    r.Number,
		ResultColor:     r.Color,
		Size:            r.Size,
		HouseFeePercent: e.HouseFeePercent(),
	}
}
