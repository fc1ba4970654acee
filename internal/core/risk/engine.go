package risk

import (
	"time"

	"github.com/radieske/wingo-round-engine/internal/core/domain"
)

const (
	baseBias      = 0.5
	newUserBoost  = 0.2
	bigBetPenalty = 0.25
	turnoverDrag  = 0.2
	minBias       = 0.05
	maxBias       = 0.95

	// BigBetThreshold é o valor a partir do qual uma aposta é considerada grande
	BigBetThreshold int64 = 300
	// NewUserWindow define por quanto tempo após o cadastro o usuário é "novo"
	NewUserWindow = 3 * 24 * time.Hour
)

// Engine decide o dígito vencedor a partir da configuração e da população de apostas.
// Dado o mesmo Source e relógio, o resultado é determinístico.
type Engine struct {
	rng Source
	now func() time.Time
}

func NewEngine(rng Source, now func() time.Time) *Engine {
	if rng == nil {
		rng = DefaultSource()
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{rng: rng, now: now}
}

// WinBias calcula a probabilidade de favorecer o apostador, já limitada a [0.05, 0.95].
// user pode ser nil (rodada sem apostador associado).
func (e *Engine) WinBias(user *domain.User, bets []domain.Bet, cfg domain.GameConfig) float64 {
	bias := baseBias

	if cfg.NewUserBoost && user != nil && !user.CreatedAt.IsZero() && e.now().Sub(user.CreatedAt) < NewUserWindow {
		bias += newUserBoost
	}
	if cfg.BigBetRisk && maxAmount(bets) >= BigBetThreshold {
		bias -= bigBetPenalty
	}
	if cfg.WithdrawalRisk && user != nil && user.UnderTurnover() {
		bias -= turnoverDrag
	}

	if bias < minBias {
		bias = minBias
	}
	if bias > maxBias {
		bias = maxBias
	}
	return bias
}

// DecideNumber retorna um dígito 0–9
func (e *Engine) DecideNumber(user *domain.User, bets []domain.Bet, cfg domain.GameConfig) int {
	if !cfg.ProfitMode {
		return e.rng.IntN(10)
	}

	shouldWin := e.rng.Float64() < e.WinBias(user, bets, cfg)

	if len(bets) == 0 {
		return e.rng.IntN(10)
	}
	if shouldWin {
		return e.winningNumber(bets)
	}
	return e.losingNumber(bets)
}

// winningNumber escolhe uma aposta ao acaso e um dígito que a satisfaz
func (e *Engine) winningNumber(bets []domain.Bet) int {
	b := bets[e.rng.IntN(len(bets))]
	pool := domain.WinningDigits(b.Kind, b.Value)
	if len(pool) == 0 {
		return e.rng.IntN(10)
	}
	return pool[e.rng.IntN(len(pool))]
}

// losingNumber escolhe entre os dígitos em que nenhuma aposta ganha
func (e *Engine) losingNumber(bets []domain.Bet) int {
	safe := SafeDigits(bets)
	if len(safe) == 0 {
		return e.rng.IntN(10)
	}
	return safe[e.rng.IntN(len(safe))]
}

// SafeDigits lista os dígitos para os quais nenhuma aposta da população ganha
func SafeDigits(bets []domain.Bet) []int {
	var safe []int
	for n := 0; n <= 9; n++ {
		hit := false
		for _, b := range bets {
			if domain.Wins(b.Kind, b.Value, n) {
				hit = true
				break
			}
		}
		if !hit {
			safe = append(safe, n)
		}
	}
	return safe
}

func maxAmount(bets []domain.Bet) int64 {
	var m int64
	for _, b := range bets {
		if b.Amount > m {
			m = b.Amount
		}
	}
	return m
}
