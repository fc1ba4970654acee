package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/wingo-round-engine/internal/core/betting"
	"github.com/radieske/wingo-round-engine/internal/core/domain"
	"github.com/radieske/wingo-round-engine/internal/core/outcome"
	"github.com/radieske/wingo-round-engine/internal/core/settlement"
	"github.com/radieske/wingo-round-engine/internal/game-service/auth"
	"github.com/radieske/wingo-round-engine/internal/game-service/dto"
)

type Bets interface {
	Place(ctx context.Context, req betting.PlaceRequest) (betting.Placed, error)
}

type Settler interface {
	Settle(ctx context.Context, userID string, g domain.GameType, period string) (settlement.Result, error)
}

type Outcomes interface {
	Force(ctx context.Context, req outcome.ForceRequest) (domain.Round, error)
}

// History são as leituras usadas por results, my-trades e period-stats
type History interface {
	ListRounds(ctx context.Context, g domain.GameType, limit int) ([]domain.Round, error)
	ListUserBets(ctx context.Context, userID string, g domain.GameType, limit int) ([]domain.Bet, error)
	PeriodStats(ctx context.Context, g domain.GameType, period string) ([]domain.PeriodStat, error)
}

type ConfigStore interface {
	GetGameConfig(ctx context.Context) (domain.GameConfig, error)
	UpdateGameConfig(ctx context.Context, p domain.GameConfigPatch) (domain.GameConfig, error)
}

type Authenticator interface {
	Verify(token string) (auth.Identity, error)
}

// Server expõe a API do jogo (jogador + admin)
type Server struct {
	log      *zap.Logger
	auth     Authenticator
	bets     Bets
	settler  Settler
	outcomes Outcomes
	history  History
	config   ConfigStore
	ws       http.HandlerFunc
	now      func() time.Time
}

type Deps struct {
	Auth     Authenticator
	Bets     Bets
	Settler  Settler
	Outcomes Outcomes
	History  History
	Config   ConfigStore
	WS       http.HandlerFunc // opcional
	Now      func() time.Time
}

func NewServer(log *zap.Logger, d Deps) *Server {
	if d.Now == nil {
		d.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		log:      log,
		auth:     d.Auth,
		bets:     d.Bets,
		settler:  d.Settler,
		outcomes: d.Outcomes,
		history:  d.History,
		config:   d.Config,
		ws:       d.WS,
		now:      d.Now,
	}
}

// Router retorna o roteador HTTP com os endpoints REST e o /ws
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	if s.ws != nil {
		r.Get("/ws", s.ws) // feed público de resultados
	}

	r.Route("/api/game", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/current", s.currentPeriod)
		r.Get("/results", s.results)
		r.Get("/my-trades", s.myTrades)
		r.Post("/bet", s.placeBet)
		r.Post("/settle", s.settle)

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/config", s.getConfig)
			r.Post("/config", s.updateConfig)
			r.Get("/period-stats", s.periodStats)
			r.Post("/set-result", s.setResult)
		})
	})
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Message: msg})
}

// writeError traduz os erros de domínio para status HTTP
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var le *betting.LimitError
	switch {
	case errors.As(err, &le):
		lo, hi := le.Limits.Min, le.Limits.Max
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: le.Error(), Min: &lo, Max: &hi})
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrAdminIdentity):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrBlocked):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeMessage(w, http.StatusTooManyRequests, err.Error())
	default:
		s.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("requestId", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "server error")
	}
}
