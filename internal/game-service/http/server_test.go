package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/radieske/wingo-round-engine/internal/core/domain"
	"github.com/radieske/wingo-round-engine/internal/core/memstore"
	"github.com/radieske/wingo-round-engine/internal/core/risk"
	"github.com/radieske/wingo-round-engine/internal/game-service/auth"
	"github.com/radieske/wingo-round-engine/internal/game-service/dto"
	httpapi "github.com/radieske/wingo-round-engine/internal/game-service/http"
	"github.com/radieske/wingo-round-engine/internal/platform"
	"github.com/radieske/wingo-round-engine/internal/shared/config"
)

const cronToken = "cron-secret"

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	t     *testing.T
	store *memstore.Store
	clock *clock
	h     http.Handler
	user  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	store.PutUser(domain.User{ID: "u1", Balance: 1000})

	// 5s dentro do período 30s-500
	clk := &clock{t: time.UnixMilli(500*30_000 + 5_000)}
	core := platform.Build(platform.Deps{
		Config: config.Config{AdminUserID: "999", HouseFee: 0.02, RiskEngineShare: 0.3},
		Store:  store,
		Rng:    risk.NewSeededSource(7),
		Now:    clk.Now,
	})
	t.Cleanup(core.Close)

	verifier := auth.NewVerifier("test-secret", cronToken, "999")
	tok, err := verifier.Issue(auth.Identity{UserID: "u1", Role: auth.RoleUser}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	srv := httpapi.NewServer(nil, httpapi.Deps{
		Auth:     verifier,
		Bets:     core.Betting,
		Settler:  core.Settlement,
		Outcomes: core.Selector,
		History:  store,
		Config:   store,
		Now:      clk.Now,
	})
	return &fixture{t: t, store: store, clock: clk, h: srv.Router(), user: tok}
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	f.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestAuthentication(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name   string
		header string
		path   string
		want   int
	}{
		{"no token", "", "/api/game/current", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", "/api/game/current", http.StatusUnauthorized},
		{"bad token", "Bearer nope", "/api/game/current", http.StatusUnauthorized},
		{"bearer ok", "Bearer " + f.user, "/api/game/current", http.StatusOK},
		{"query token", "", "/api/game/current?token=" + f.user, http.StatusOK},
		{"user on admin route", "Bearer " + f.user, "/api/game/admin/config", http.StatusForbidden},
		{"cron token is admin", "Bearer " + cronToken, "/api/game/admin/config", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			f.h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestCurrentPeriod(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/game/current?gameType=30s", f.user, "")
	got := decodeBody[dto.CurrentPeriodResponse](t, rec)
	if got.Period != "30s-500" || got.SecondsLeft != 25 || got.GameType != "30s" {
		t.Errorf("unexpected current period %+v", got)
	}

	// tipo desconhecido cai para 30s
	rec = f.do(http.MethodGet, "/api/game/current?gameType=7s", f.user, "")
	if got := decodeBody[dto.CurrentPeriodResponse](t, rec); got.GameType != "30s" {
		t.Errorf("unknown game type should normalize, got %s", got.GameType)
	}
}

func TestPlaceBetAndSettle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/game/bet", f.user, `{"gameType":"30s","betKind":"color","betValue":"r","amount":100}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("bet status %d: %s", rec.Code, rec.Body.String())
	}
	placed := decodeBody[dto.PlaceBetResponse](t, rec)
	if placed.Message != "Bet placed" || placed.Bet.CurrentBalance != 900 || placed.Bet.BetValue != "R" || placed.Bet.Period != "30s-500" {
		t.Errorf("unexpected bet response %+v", placed)
	}

	// período ainda aberto
	rec = f.do(http.MethodPost, "/api/game/settle", f.user, `{"gameType":"30s","period":"30s-500"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("settle of open period = %d", rec.Code)
	}

	f.clock.Advance(30 * time.Second)
	rec = f.do(http.MethodPost, "/api/game/settle", f.user, `{"gameType":"30s","period":"30s-500"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("settle status %d: %s", rec.Code, rec.Body.String())
	}
	res := decodeBody[dto.SettleResponse](t, rec)
	if !res.HadBets || res.Message != "Bets settled" || res.HouseFeePercent != 2 {
		t.Errorf("unexpected settle response %+v", res)
	}
	u, _ := f.store.GetUser("u1")
	if u.Balance != res.Balance {
		t.Errorf("balance %d, response says %d", u.Balance, res.Balance)
	}

	// segunda chamada não encontra apostas em aberto
	rec = f.do(http.MethodPost, "/api/game/settle", f.user, `{"gameType":"30s","period":"30s-500"}`)
	again := decodeBody[dto.SettleResponse](t, rec)
	if again.HadBets || again.Message != "No unsettled bets for this period." || again.ResultNumber != res.ResultNumber {
		t.Errorf("unexpected second settle %+v", again)
	}

	rec = f.do(http.MethodGet, "/api/game/my-trades?gameType=30s", f.user, "")
	trades := decodeBody[[]dto.TradeView](t, rec)
	if len(trades) != 1 || !trades[0].Settled || trades[0].ResultNumber == nil || *trades[0].ResultNumber != res.ResultNumber {
		t.Errorf("unexpected trades %+v", trades)
	}

	rec = f.do(http.MethodGet, "/api/game/results?gameType=30s&limit=1000", f.user, "")
	rounds := decodeBody[[]dto.RoundView](t, rec)
	if len(rounds) != 1 || rounds[0].Period != "30s-500" {
		t.Errorf("unexpected results %+v", rounds)
	}
}

func TestPlaceBetRejections(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"bad json", `{"betKind":`, http.StatusBadRequest, "bad json"},
		{"missing kind", `{"betValue":"R","amount":100}`, http.StatusBadRequest, "betKind is required"},
		{"unknown kind", `{"betKind":"parity","betValue":"odd","amount":100}`, http.StatusBadRequest, "invalid betKind"},
		{"negative amount", `{"betKind":"color","betValue":"R","amount":-5}`, http.StatusBadRequest, "invalid amount"},
		{"below minimum", `{"betKind":"color","betValue":"R","amount":5}`, http.StatusBadRequest, "minimum bet is 10"},
		{"insufficient balance", `{"betKind":"color","betValue":"R","amount":5000}`, http.StatusBadRequest, domain.ErrInsufficientBalance.Error()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/game/bet", f.user, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
			got := decodeBody[dto.ErrorResponse](t, rec)
			if !strings.Contains(got.Message, tc.message) {
				t.Errorf("message = %q, want %q", got.Message, tc.message)
			}
		})
	}

	rec := f.do(http.MethodPost, "/api/game/bet", f.user, `{"betKind":"color","betValue":"R","amount":5}`)
	got := decodeBody[dto.ErrorResponse](t, rec)
	if got.Min == nil || got.Max == nil || *got.Min != 10 || *got.Max != 100000 {
		t.Errorf("limit error should carry min/max, got %+v", got)
	}
	if f.store.CountBets() != 0 {
		t.Errorf("rejected bets must not be stored")
	}
}

func TestAdminSetResult(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/game/admin/set-result", cronToken,
		`{"gameType":"30s","period":"30s-500","resultNumber":3,"resultColor":"violet"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set-result status %d: %s", rec.Code, rec.Body.String())
	}
	got := decodeBody[dto.SetResultResponse](t, rec)
	if got.ResultNumber != 3 || got.ResultColor != "V" || got.ResultSize != "SMALL" || !got.ForcedByAdmin {
		t.Errorf("unexpected set-result %+v", got)
	}

	rec = f.do(http.MethodPost, "/api/game/admin/set-result", cronToken, `{"period":"30s-500","resultNumber":12}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out of range number = %d", rec.Code)
	}

	// aposta vencedora no número forçado, liquidada antes de um novo override
	f.do(http.MethodPost, "/api/game/bet", f.user, `{"betKind":"number","betValue":"3","amount":100}`)
	f.clock.Advance(30 * time.Second)
	rec = f.do(http.MethodPost, "/api/game/settle", f.user, `{"period":"30s-500"}`)
	res := decodeBody[dto.SettleResponse](t, rec)
	if res.ResultNumber != 3 || res.ResultColor != "V" || res.TotalProfit != 980 {
		t.Errorf("forced result not honoured: %+v", res)
	}

	rec = f.do(http.MethodPost, "/api/game/admin/set-result", cronToken, `{"period":"30s-500","resultNumber":4}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("override after settlement = %d, want 409", rec.Code)
	}
}

func TestAdminConfigAndStats(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/game/admin/config", cronToken, `{"profitMode":false}`)
	got := decodeBody[dto.ConfigResponse](t, rec)
	if got.Message != "Game config updated" || got.ProfitMode || !got.NewUserBoost || !got.BigBetRisk || !got.WithdrawalRisk {
		t.Errorf("unexpected config %+v", got)
	}
	rec = f.do(http.MethodGet, "/api/game/admin/config", cronToken, "")
	if got := decodeBody[dto.ConfigResponse](t, rec); got.ProfitMode {
		t.Errorf("patch was not persisted: %+v", got)
	}

	rec = f.do(http.MethodGet, "/api/game/admin/period-stats", cronToken, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("period-stats without period = %d", rec.Code)
	}

	f.do(http.MethodPost, "/api/game/bet", f.user, `{"betKind":"size","betValue":"big","amount":200}`)
	f.do(http.MethodPost, "/api/game/bet", f.user, `{"betKind":"size","betValue":"BIG","amount":50}`)
	rec = f.do(http.MethodGet, "/api/game/admin/period-stats?gameType=30s&period=30s-500", cronToken, "")
	stats := decodeBody[[]dto.PeriodStatView](t, rec)
	if len(stats) != 1 || stats[0].BetValue != "BIG" || stats[0].TotalAmount != 250 || stats[0].Count != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}
}
