package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/radieske/wingo-round-engine/internal/core/betting"
	"github.com/radieske/wingo-round-engine/internal/core/domain"
	"github.com/radieske/wingo-round-engine/internal/core/outcome"
	"github.com/radieske/wingo-round-engine/internal/core/period"
	"github.com/radieske/wingo-round-engine/internal/game-service/dto"
)

const (
	defaultLimit  = 50
	maxResults    = 200
	maxTradesPage = 100
)

// limitParam lê ?limit=, com default e teto
func limitParam(r *http.Request, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		n = defaultLimit
	}
	if n > max {
		n = max
	}
	return n
}

func gameTypeParam(r *http.Request) domain.GameType {
	return domain.ParseGameType(r.URL.Query().Get("gameType"))
}

// decode lê o corpo JSON e aplica a validação do DTO
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json")
		return false
	}
	if err := dto.Validate(v); err != nil {
		writeMessage(w, http.StatusBadRequest, dto.Message(err))
		return false
	}
	return true
}

// GET /api/game/current?gameType=30s
func (s *Server) currentPeriod(w http.ResponseWriter, r *http.Request) {
	g := gameTypeParam(r)
	now := s.now()
	info := period.At(g, now)
	left := int64(info.EndsAt.Sub(now).Seconds())
	writeJSON(w, http.StatusOK, dto.CurrentPeriodResponse{
		GameType:    string(g),
		Period:      info.Period,
		SecondsLeft: left,
		EndsAt:      info.EndsAt.UTC(),
	})
}

// GET /api/game/results?gameType=30s&limit=50
func (s *Server) results(w http.ResponseWriter, r *http.Request) {
	rounds, err := s.history.ListRounds(r.Context(), gameTypeParam(r), limitParam(r, maxResults))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]dto.RoundView, 0, len(rounds))
	for _, rd := range rounds {
		out = append(out, dto.RoundView{
			Period:    rd.Period,
			Number:    rd.Number,
			Color:     string(rd.Color),
			Size:      string(rd.Size),
			CreatedAt: rd.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/game/my-trades?gameType=30s&limit=50
func (s *Server) myTrades(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	bets, err := s.history.ListUserBets(r.Context(), id.UserID, gameTypeParam(r), limitParam(r, maxTradesPage))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]dto.TradeView, 0, len(bets))
	for _, b := range bets {
		out = append(out, dto.TradeView{
			Period:       b.Period,
			BetKind:      string(b.Kind),
			BetValue:     b.Value,
			Amount:       b.Amount,
			Settled:      b.Settled,
			Win:          b.Win,
			Profit:       b.Profit,
			ResultNumber: b.ResultNumber,
			ResultColor:  string(b.ResultColor),
			ResultSize:   string(b.ResultSize),
			CreatedAt:    b.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/game/bet
func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if !decode(w, r, &req) {
		return
	}
	id := identityFrom(r.Context())

	placed, err := s.bets.Place(r.Context(), betting.PlaceRequest{
		UserID:   id.UserID,
		GameType: domain.ParseGameType(req.GameType),
		Kind:     domain.BetKind(req.BetKind),
		Value:    req.BetValue,
		Amount:   req.Amount,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b := placed.Bet
	writeJSON(w, http.StatusOK, dto.PlaceBetResponse{
		Message: "Bet placed",
		Bet: dto.BetView{
			ID:             b.ID,
			GameType:       string(b.GameType),
			Period:         b.Period,
			BetKind:        string(b.Kind),
			BetValue:       b.Value,
			Amount:         b.Amount,
			CurrentBalance: placed.CurrentBalance,
		},
	})
}

// POST /api/game/settle
func (s *Server) settle(w http.ResponseWriter, r *http.Request) {
	var req dto.SettleRequest
	if !decode(w, r, &req) {
		return
	}
	id := identityFrom(r.Context())

	res, err := s.settler.Settle(r.Context(), id.UserID, domain.ParseGameType(req.GameType), req.Period)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	msg := "Bets settled"
	if !res.HadBets {
		msg = "No unsettled bets for this period."
	}
	writeJSON(w, http.StatusOK, dto.SettleResponse{
		Message:           msg,
		ResultNumber:      res.ResultNumber,
		ResultColor:       string(res.ResultColor),
		Size:              string(res.Size),
		HadBets:           res.HadBets,
		TotalProfit:       res.TotalProfit,
		Balance:           res.Balance,
		HouseFeePercent:   res.HouseFeePercent,
		TotalFeeCollected: res.TotalFeeCollected,
	})
}

// GET /api/game/admin/config
func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.config.GetGameConfig(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, configResponse("", cfg))
}

// POST /api/game/admin/config
func (s *Server) updateConfig(w http.ResponseWriter, r *http.Request) {
	var req dto.ConfigUpdateRequest
	if !decode(w, r, &req) {
		return
	}
	cfg, err := s.config.UpdateGameConfig(r.Context(), domain.GameConfigPatch{
		ProfitMode:     req.ProfitMode,
		NewUserBoost:   req.NewUserBoost,
		WithdrawalRisk: req.WithdrawalRisk,
		BigBetRisk:     req.BigBetRisk,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, configResponse("Game config updated", cfg))
}

func configResponse(msg string, c domain.GameConfig) dto.ConfigResponse {
	return dto.ConfigResponse{
		Message:        msg,
		ProfitMode:     c.ProfitMode,
		NewUserBoost:   c.NewUserBoost,
		WithdrawalRisk: c.WithdrawalRisk,
		BigBetRisk:     c.BigBetRisk,
	}
}

// GET /api/game/admin/period-stats?gameType=30s&period=30s-123
func (s *Server) periodStats(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("period")
	if p == "" {
		writeMessage(w, http.StatusBadRequest, "period is required")
		return
	}
	stats, err := s.history.PeriodStats(r.Context(), gameTypeParam(r), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]dto.PeriodStatView, 0, len(stats))
	for _, st := range stats {
		out = append(out, dto.PeriodStatView{
			BetKind:     string(st.Kind),
			BetValue:    st.Value,
			TotalAmount: st.TotalAmount,
			Count:       st.Count,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/game/admin/set-result
func (s *Server) setResult(w http.ResponseWriter, r *http.Request) {
	var req dto.SetResultRequest
	if !decode(w, r, &req) {
		return
	}
	id := identityFrom(r.Context())

	rd, err := s.outcomes.Force(r.Context(), outcome.ForceRequest{
		GameType: domain.ParseGameType(req.GameType),
		Period:   req.Period,
		Number:   *req.ResultNumber,
		Color:    req.ResultColor,
		Size:     req.ResultSize,
		SetBy:    id.UserID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SetResultResponse{
		Message:       "Result set for period",
		GameType:      string(rd.GameType),
		Period:        rd.Period,
		ResultNumber:  rd.Number,
		ResultColor:   string(rd.Color),
		ResultSize:    string(rd.Size),
		ForcedByAdmin: rd.ForcedByAdmin,
	})
}
