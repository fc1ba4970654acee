package outcome_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/radieske/wingo-round-engine/internal/core/domain"
	"github.com/radieske/wingo-round-engine/internal/core/memstore"
	"github.com/radieske/wingo-round-engine/internal/core/outcome"
	"github.com/radieske/wingo-round-engine/internal/core/risk"
)

// fixedSource sempre devolve o mesmo dígito e nunca delega ao motor de risco
type fixedSource struct{ n int }

func (f fixedSource) IntN(n int) int   { return f.n % n }
func (f fixedSource) Float64() float64 { return 0.99 }

// racyStore atrasa o GetRound inicial para forçar todos a disputarem o CreateRound
type racyStore struct {
	*memstore.Store
	gate chan struct{}
}

func (r *racyStore) GetRound(ctx context.Context, g domain.GameType, p string) (domain.Round, error) {
	<-r.gate
	return r.Store.GetRound(ctx, g, p)
}

func newSelector(store outcome.RoundStore, src risk.Source, hooks outcome.Hooks) *outcome.Selector {
	cfg := memstore.New()
	return outcome.NewSelector(nil, store, cfg, risk.NewEngine(src, nil), outcome.Options{Rng: src, Hooks: hooks})
}

func TestResolveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	first, err := newSelector(store, fixedSource{n: 3}, outcome.Hooks{}).Resolve(ctx, domain.GameType30s, "30s-100", nil, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if first.Number != 3 || first.Color != domain.ColorRed || first.Size != domain.SizeSmall {
		t.Fatalf("unexpected round %+v", first)
	}

	second, err := newSelector(store, fixedSource{n: 8}, outcome.Hooks{}).Resolve(ctx, domain.GameType30s, "30s-100", nil, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if second.Number != 3 {
		t.Errorf("expected persisted number 3, got %d", second.Number)
	}
}

func TestConcurrentResolveConverges(t *testing.T) {
	ctx := context.Background()
	store := &racyStore{Store: memstore.New(), gate: make(chan struct{})}

	var mu sync.Mutex
	created, conflicts := 0, 0
	hooks := outcome.Hooks{
		OnCreated:  func(domain.Round, string) { mu.Lock(); created++; mu.Unlock() },
		OnConflict: func(domain.GameType, string) { mu.Lock(); conflicts++; mu.Unlock() },
	}

	const workers = 10
	results := make([]domain.Round, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sel := newSelector(store, fixedSource{n: i}, hooks)
			r, err := sel.Resolve(ctx, domain.GameType60s, "60s-7", nil, nil)
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			results[i] = r
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(store.gate)
	wg.Wait()

	for i, r := range results {
		if r.Number != results[0].Number {
			t.Errorf("worker %d saw %d, worker 0 saw %d", i, r.Number, results[0].Number)
		}
	}
	if created != 1 {
		t.Errorf("expected exactly one round created, got %d", created)
	}
	if created+conflicts != workers {
		t.Errorf("expected %d creates+conflicts, got %d+%d", workers, created, conflicts)
	}
}

func TestForceOutcome(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	sel := newSelector(store, fixedSource{n: 1}, outcome.Hooks{})

	r, err := sel.Force(ctx, outcome.ForceRequest{GameType: domain.GameType30s, Period: "30s-5", Number: 4, SetBy: "admin-1"})
	if err != nil {
		t.Fatalf("force: %v", err)
	}
	if r.Color != domain.ColorGreen || r.Size != domain.SizeSmall || !r.ForcedByAdmin || r.SetBy != "admin-1" {
		t.Errorf("unexpected forced round %+v", r)
	}

	r, err = sel.Force(ctx, outcome.ForceRequest{GameType: domain.GameType30s, Period: "30s-5", Number: 4, Color: "violet", Size: "b"})
	if err != nil {
		t.Fatalf("force override: %v", err)
	}
	if r.Color != domain.ColorViolet || r.Size != domain.SizeBig {
		t.Errorf("expected normalized overrides, got %+v", r)
	}

	got, err := sel.Resolve(ctx, domain.GameType30s, "30s-5", nil, nil)
	if err != nil || got.Number != 4 || !got.ForcedByAdmin {
		t.Errorf("resolve should return forced round, got %+v %v", got, err)
	}
}

func TestForceOutcomeValidation(t *testing.T) {
	sel := newSelector(memstore.New(), fixedSource{}, outcome.Hooks{})
	cases := []outcome.ForceRequest{
		{GameType: domain.GameType30s, Period: "", Number: 1},
		{GameType: domain.GameType30s, Period: "30s-1", Number: 10},
		{GameType: domain.GameType30s, Period: "30s-1", Number: -1},
		{GameType: domain.GameType30s, Period: "30s-1", Number: 1, Color: "blue"},
		{GameType: domain.GameType30s, Period: "30s-1", Number: 1, Size: "huge"},
	}
	for _, req := range cases {
		if _, err := sel.Force(context.Background(), req); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%+v: expected validation error, got %v", req, err)
		}
	}
}

func TestForceRejectedAfterSettlement(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	store.PutUser(domain.User{ID: "u1", Balance: 100})
	err := store.InUserTx(ctx, "u1", func(tx domain.UserTx) error {
		b := &domain.Bet{ID: "b1", UserID: "u1", GameType: domain.GameType30s, Period: "30s-9", Kind: domain.BetKindColor, Value: "G", Amount: 10}
		if err := tx.CreateBet(ctx, b); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	err = store.InUserTx(ctx, "u1", func(tx domain.UserTx) error {
		b, _ := store.GetBet("b1")
		b.Settled = true
		return tx.SettleBet(ctx, &b)
	})
	if err != nil {
		t.Fatal(err)
	}

	sel := newSelector(store, fixedSource{}, outcome.Hooks{})
	if _, err := sel.Force(ctx, outcome.ForceRequest{GameType: domain.GameType30s, Period: "30s-9", Number: 2}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

// scriptedSource devolve os valores na ordem dada; esgotada, repete o último
type scriptedSource struct {
	floats []float64
	ints   []int
}

func (s *scriptedSource) Float64() float64 {
	v := s.floats[0]
	if len(s.floats) > 1 {
		s.floats = s.floats[1:]
	}
	return v
}

func (s *scriptedSource) IntN(n int) int {
	v := s.ints[0]
	if len(s.ints) > 1 {
		s.ints = s.ints[1:]
	}
	return v % n
}

func TestCandidateSplitsBetweenRiskAndRandom(t *testing.T) {
	ctx := context.Background()
	bets := []domain.Bet{{Kind: domain.BetKindColor, Value: "R", Amount: 100}}
	safe := risk.SafeDigits(bets)
	profitOnly := domain.GameConfigPatch{ProfitMode: ptr(true), NewUserBoost: ptr(false), WithdrawalRisk: ptr(false), BigBetRisk: ptr(false)}

	cases := []struct {
		name       string
		opts       outcome.Options
		floats     []float64
		ints       []int
		wantSource string
		wantNumber int
	}{
		// 0.1 < 0.3 vai ao motor; 0.9 >= viés 0.5 escolhe um dígito perdedor
		{"risk branch", outcome.Options{RiskShare: 0.3}, []float64{0.1, 0.9}, []int{0}, outcome.SourceRisk, safe[0]},
		{"random branch", outcome.Options{RiskShare: 0.3}, []float64{0.5}, []int{7}, outcome.SourceRandom, 7},
		{"unset share uses default", outcome.Options{}, []float64{0.29, 0.9}, []int{1}, outcome.SourceRisk, safe[1]},
		{"disabled", outcome.Options{RiskShare: 0.3, DisableRisk: true}, []float64{0}, []int{4}, outcome.SourceRandom, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := memstore.New()
			if _, err := store.UpdateGameConfig(ctx, profitOnly); err != nil {
				t.Fatal(err)
			}
			src := &scriptedSource{floats: tc.floats, ints: tc.ints}
			var source string
			opts := tc.opts
			opts.Rng = src
			opts.Hooks = outcome.Hooks{OnCreated: func(_ domain.Round, s string) { source = s }}
			sel := outcome.NewSelector(nil, store, store, risk.NewEngine(src, nil), opts)

			r, err := sel.Resolve(ctx, domain.GameType30s, "30s-40", &domain.User{ID: "u1"}, bets)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if source != tc.wantSource || r.Number != tc.wantNumber {
				t.Errorf("got %d from %q, want %d from %q", r.Number, source, tc.wantNumber, tc.wantSource)
			}
			if tc.wantSource == outcome.SourceRisk && domain.WinsRound(domain.BetKindColor, "R", r) {
				t.Errorf("losing decision let the bet win: %+v", r)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }
