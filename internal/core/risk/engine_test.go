package risk_test

import (
	"math"
	"testing"
	"time"

	"github.com/radieske/wingo-round-engine/internal/core/domain"
	"github.com/radieske/wingo-round-engine/internal/core/risk"
)

// scripted devolve valores pré-definidos, na ordem em que são pedidos
type scripted struct {
	ints   []int
	floats []float64
}

func (s *scripted) IntN(n int) int {
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func (s *scripted) Float64() float64 {
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

var now = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func TestFairModeIsUniform(t *testing.T) {
	e := risk.NewEngine(risk.NewSeededSource(7), clock)
	cfg := domain.GameConfig{ProfitMode: false, BigBetRisk: true}
	bets := []domain.Bet{{Kind: domain.BetKindNumber, Value: "7", Amount: 1000}}

	const trials = 100_000
	var counts [10]int
	for i := 0; i < trials; i++ {
		counts[e.DecideNumber(nil, bets, cfg)]++
	}

	// qui-quadrado com 9 graus de liberdade; 27.88 corresponde a p=0.001
	expected := float64(trials) / 10
	var chi2 float64
	for _, c := range counts {
		d := float64(c) - expected
		chi2 += d * d / expected
	}
	if chi2 > 27.88 {
		t.Errorf("distribution not uniform: chi2=%.2f counts=%v", chi2, counts)
	}
}

func TestWinBias(t *testing.T) {
	e := risk.NewEngine(risk.DefaultSource(), clock)
	all := domain.DefaultGameConfig()

	fresh := &domain.User{CreatedAt: now.Add(-time.Hour)}
	old := &domain.User{CreatedAt: now.Add(-30 * 24 * time.Hour)}
	grinding := &domain.User{
		CreatedAt:                   now.Add(-30 * 24 * time.Hour),
		HasActiveDeposit:            true,
		PendingTurnover:             1000,
		TradeVolumeSinceLastDeposit: 200,
	}
	big := []domain.Bet{{Kind: domain.BetKindColor, Value: "G", Amount: 300}}
	small := []domain.Bet{{Kind: domain.BetKindColor, Value: "G", Amount: 299}}

	cases := []struct {
		name string
		user *domain.User
		bets []domain.Bet
		cfg  domain.GameConfig
		want float64
	}{
		{"baseline", old, small, all, 0.5},
		{"new user", fresh, small, all, 0.7},
		{"new user boost off", fresh, small, domain.GameConfig{ProfitMode: true}, 0.5},
		{"big bet", old, big, all, 0.25},
		{"new user with big bet", fresh, big, all, 0.45},
		{"under turnover", grinding, small, all, 0.3},
		{"big bet under turnover", grinding, big, all, 0.05},
		{"nil user", nil, big, all, 0.25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.WinBias(tc.user, tc.bets, tc.cfg)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("expected %.2f, got %.2f", tc.want, got)
			}
		})
	}
}

func TestShouldWinPicksSatisfyingDigit(t *testing.T) {
	bets := []domain.Bet{
		{Kind: domain.BetKindNumber, Value: "3", Amount: 10},
		{Kind: domain.BetKindColor, Value: "V", Amount: 10},
	}
	// Float64 < 0.5 => vitória; IntN(2)=1 escolhe a aposta em violeta; IntN(2)=1 escolhe o 5
	src := &scripted{floats: []float64{0.1}, ints: []int{1, 1}}
	e := risk.NewEngine(src, clock)

	got := e.DecideNumber(&domain.User{CreatedAt: now.Add(-900 * time.Hour)}, bets, domain.DefaultGameConfig())
	if got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
}

func TestShouldLosePicksSafeDigit(t *testing.T) {
	bets := []domain.Bet{
		{Kind: domain.BetKindSize, Value: "BIG", Amount: 10},
		{Kind: domain.BetKindColor, Value: "G", Amount: 10},
	}
	// dígitos seguros: 0,1,3 (SMALL e não verde)
	if safe := risk.SafeDigits(bets); len(safe) != 3 || safe[0] != 0 || safe[1] != 1 || safe[2] != 3 {
		t.Fatalf("unexpected safe digits %v", safe)
	}

	src := &scripted{floats: []float64{0.99}, ints: []int{2}}
	e := risk.NewEngine(src, clock)
	got := e.DecideNumber(nil, bets, domain.DefaultGameConfig())
	if got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}

func TestNoSafeDigitFallsBackToRandom(t *testing.T) {
	bets := []domain.Bet{
		{Kind: domain.BetKindSize, Value: "BIG", Amount: 10},
		{Kind: domain.BetKindSize, Value: "SMALL", Amount: 10},
	}
	src := &scripted{floats: []float64{0.99}, ints: []int{8}}
	e := risk.NewEngine(src, clock)
	if got := e.DecideNumber(nil, bets, domain.DefaultGameConfig()); got != 8 {
		t.Errorf("expected fallback 8, got %d", got)
	}
}

func TestEmptyPopulationIsRandom(t *testing.T) {
	src := &scripted{floats: []float64{0.0}, ints: []int{4}}
	e := risk.NewEngine(src, clock)
	if got := e.DecideNumber(nil, nil, domain.DefaultGameConfig()); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
}
