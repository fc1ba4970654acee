package dto

import "time"

type ErrorResponse struct {
	Message string `json:"message"`
	Min     *int64 `json:"min,omitempty"`
	Max     *int64 `json:"max,omitempty"`
}

type CurrentPeriodResponse struct {
	GameType    string    `json:"gameType"`
	Period      string    `json:"period"`
	SecondsLeft int64     `json:"secondsLeft"`
	EndsAt      time.Time `json:"endsAt"`
}

type BetView struct {
	ID             string `json:"id"`
	GameType       string `json:"gameType"`
	Period         string `json:"period"`
	BetKind        string `json:"betKind"`
	BetValue       string `json:"betValue"`
	Amount         int64  `json:"amount"`
	CurrentBalance int64  `json:"currentBalance"`
}

type PlaceBetResponse struct {
	Message string  `json:"message"`
	Bet     BetView `json:"bet"`
}

type SettleResponse struct {
	Message           string  `json:"message"`
	ResultNumber      int     `json:"resultNumber"`
	ResultColor       string  `json:"resultColor"`
	Size              string  `json:"size"`
	HadBets           bool    `json:"hadBets"`
	TotalProfit       int64   `json:"totalProfit"`
	Balance           int64   `json:"balance"`
	HouseFeePercent   float64 `json:"houseFeePercent"`
	TotalFeeCollected int64   `json:"totalFeeCollected"`
}

type RoundView struct {
	Period    string    `json:"period"`
	Number    int       `json:"number"`
	Color     string    `json:"color"`
	Size      string    `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

type TradeView struct {
	Period       string    `json:"period"`
	BetKind      string    `json:"betKind"`
	BetValue     string    `json:"betValue"`
	Amount       int64     `json:"amount"`
	Settled      bool      `json:"settled"`
	Win          bool      `json:"win"`
	Profit       int64     `json:"profit"`
	ResultNumber *int      `json:"resultNumber"`
	ResultColor  string    `json:"resultColor,omitempty"`
	ResultSize   string    `json:"resultSize,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type PeriodStatView struct {
	BetKind     string `json:"betKind"`
	BetValue    string `json:"betValue"`
	TotalAmount int64  `json:"totalAmount"`
	Count       int64  `json:"count"`
}

type SetResultResponse struct {
	Message       string `json:"message"`
	GameType      string `json:"gameType"`
	Period        string `json:"period"`
	ResultNumber  int    `json:"resultNumber"`
	ResultColor   string `json:"resultColor"`
	ResultSize    string `json:"resultSize"`
	ForcedByAdmin bool   `json:"forcedByAdmin"`
}

type ConfigResponse struct {
	Message        string `json:"message,omitempty"`
	ProfitMode     bool   `json:"profitMode"`
	NewUserBoost   bool   `json:"newUserBoost"`
	WithdrawalRisk bool   `json:"withdrawalRisk"`
	BigBetRisk     bool   `json:"bigBetRisk"`
}
