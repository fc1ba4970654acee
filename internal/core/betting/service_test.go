package betting_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/radieske/wingo-round-engine/internal/core/betting"
	"github.com/radieske/wingo-round-engine/internal/core/domain"
	"github.com/radieske/wingo-round-engine/internal/core/memstore"
)

var now = time.UnixMilli(100*30_000 + 1_000)

type denyAll struct{ err error }

func (d denyAll) Allow(context.Context, string) (bool, error) { return false, d.err }

func newService(store *memstore.Store, rl betting.RateLimiter) *betting.Service {
	return betting.NewService(nil, store, betting.Options{
		Limits:      map[domain.GameType]betting.Limits{domain.GameType60s: {Min: 50, Max: 500}},
		AdminUserID: "999",
		RateLimiter: rl,
		Now:         func() time.Time { return now },
		NewID:       func() string { return "bet-1" },
	})
}

func TestPlaceEscrowsStake(t *testing.T) {
	store := memstore.New()
	store.PutUser(domain.User{ID: "u1", Balance: 1000})
	var placed []domain.Bet
	svc := betting.NewService(nil, store, betting.Options{
		Now:   func() time.Time { return now },
		Hooks: betting.Hooks{OnPlaced: func(b domain.Bet, _ int64) { placed = append(placed, b) }},
	})

	got, err := svc.Place(context.Background(), betting.PlaceRequest{
		UserID: "u1", GameType: domain.GameType30s, Kind: domain.BetKindColor, Value: " g ", Amount: 100,
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if got.CurrentBalance != 900 {
		t.Errorf("expected balance 900, got %d", got.CurrentBalance)
	}
	if got.Bet.Period != "30s-100" || got.Bet.Value != "G" || got.Bet.Settled || got.Bet.ID == "" {
		t.Errorf("unexpected bet %+v", got.Bet)
	}
	u, _ := store.GetUser("u1")
	if u.Balance != 900 || u.TradeVolumeSinceLastDeposit != 0 {
		t.Errorf("unexpected user %+v", u)
	}
	if _, ok := store.GetBet(got.Bet.ID); !ok {
		t.Error("bet was not persisted")
	}
	if len(placed) != 1 {
		t.Errorf("expected OnPlaced once, got %d", len(placed))
	}
}

func TestPlaceRejections(t *testing.T) {
	cases := []struct {
		name string
		user domain.User
		req  betting.PlaceRequest
		want error
	}{
		{"below min", domain.User{ID: "u1", Balance: 1000},
			betting.PlaceRequest{UserID: "u1", GameType: domain.GameType30s, Kind: domain.BetKindNumber, Value: "3", Amount: 5}, domain.ErrValidation},
		{"above game max", domain.User{ID: "u1", Balance: 1000},
			betting.PlaceRequest{UserID: "u1", GameType: domain.GameType60s, Kind: domain.BetKindNumber, Value: "3", Amount: 600}, domain.ErrValidation},
		{"zero amount", domain.User{ID: "u1", Balance: 1000},
			betting.PlaceRequest{UserID: "u1", GameType: domain.GameType30s, Kind: domain.BetKindNumber, Value: "3", Amount: 0}, domain.ErrValidation},
		{"bad value", domain.User{ID: "u1", Balance: 1000},
			betting.PlaceRequest{UserID: "u1", GameType: domain.GameType30s, Kind: domain.BetKindNumber, Value: "12", Amount: 100}, domain.ErrValidation},
		{"bad kind", domain.User{ID: "u1", Balance: 1000},
			betting.PlaceRequest{UserID: "u1", GameType: domain.GameType30s, Kind: "parity", Value: "odd", Amount: 100}, domain.ErrValidation},
		{"admin", domain.User{ID: "999", Balance: 1000},
			betting.PlaceRequest{UserID: "999", GameType: domain.GameType30s, Kind: domain.BetKindSize, Value: "BIG", Amount: 100}, domain.ErrAdminIdentity},
		{"blocked", domain.User{ID: "u1", Balance: 1000, IsBlocked: true},
			betting.PlaceRequest{UserID: "u1", GameType: domain.GameType30s, Kind: domain.BetKindSize, Value: "BIG", Amount: 100}, domain.ErrBlocked},
		{"insufficient", domain.User{ID: "u1", Balance: 99},
			betting.PlaceRequest{UserID: "u1", GameType: domain.GameType30s, Kind: domain.BetKindSize, Value: "small", Amount: 100}, domain.ErrInsufficientBalance},
		{"unknown user", domain.User{ID: "u1", Balance: 1000},
			betting.PlaceRequest{UserID: "ghost", GameType: domain.GameType30s, Kind: domain.BetKindSize, Value: "BIG", Amount: 100}, domain.ErrNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			store := memstore.New()
			store.PutUser(c.user)
			_, err := newService(store, nil).Place(context.Background(), c.req)
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
			u, _ := store.GetUser(c.user.ID)
			if u.Balance != c.user.Balance {
				t.Errorf("balance changed: %d -> %d", c.user.Balance, u.Balance)
			}
			if n := store.CountBets(); n != 0 {
				t.Errorf("expected no bets, got %d", n)
			}
		})
	}
}

func TestLimitErrorMessage(t *testing.T) {
	store := memstore.New()
	store.PutUser(domain.User{ID: "u1", Balance: 1000})
	svc := newService(store, nil)

	_, err := svc.Place(context.Background(), betting.PlaceRequest{UserID: "u1", GameType: domain.GameType60s, Kind: domain.BetKindColor, Value: "R", Amount: 10})
	var le *betting.LimitError
	if !errors.As(err, &le) || err.Error() != "minimum bet is 50" {
		t.Errorf("unexpected error %v", err)
	}
	_, err = svc.Place(context.Background(), betting.PlaceRequest{UserID: "u1", GameType: domain.GameType60s, Kind: domain.BetKindColor, Value: "R", Amount: 501})
	if err == nil || err.Error() != "maximum bet is 500" {
		t.Errorf("unexpected error %v", err)
	}
	if l := svc.LimitsFor(domain.GameType300s); l.Min != 10 || l.Max != 100000 {
		t.Errorf("unexpected default limits %+v", l)
	}
}

func TestRateLimiter(t *testing.T) {
	store := memstore.New()
	store.PutUser(domain.User{ID: "u1", Balance: 1000})
	req := betting.PlaceRequest{UserID: "u1", GameType: domain.GameType30s, Kind: domain.BetKindColor, Value: "R", Amount: 10}

	if _, err := newService(store, denyAll{}).Place(context.Background(), req); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
	// falha do limiter não bloqueia a aposta
	if _, err := newService(store, denyAll{err: errors.New("redis down")}).Place(context.Background(), req); err != nil {
		t.Fatalf("expected bet to go through, got %v", err)
	}
}

func TestPlaceRejectedWhenPeriodRollsOverUnderLock(t *testing.T) {
	store := memstore.New()
	store.PutUser(domain.User{ID: "u1", Balance: 1000})
	// primeira leitura no fim do 30s-100; a segunda, já dentro da tx, cai no 30s-101
	ticks := []time.Time{time.UnixMilli(100*30_000 + 29_999), time.UnixMilli(101*30_000 + 1)}
	svc := betting.NewService(nil, store, betting.Options{
		Now: func() time.Time {
			t := ticks[0]
			if len(ticks) > 1 {
				ticks = ticks[1:]
			}
			return t
		},
	})

	_, err := svc.Place(context.Background(), betting.PlaceRequest{
		UserID: "u1", GameType: domain.GameType30s, Kind: domain.BetKindColor, Value: "R", Amount: 100,
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if u, _ := store.GetUser("u1"); u.Balance != 1000 {
		t.Errorf("balance changed to %d", u.Balance)
	}
	if n := store.CountBets(); n != 0 {
		t.Errorf("expected no bets, got %d", n)
	}
}
