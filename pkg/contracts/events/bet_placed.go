package events

// Evento publicado no tópico "bet_placed" depois que a aposta é gravada e o valor debitado
type BetPlaced struct {
	BetID        string `json:"bet_id"`
	UserID       string `json:"user_id"`
	GameType     string `json:"game_type"`
	Period       string `json:"period"`
	BetKind      string `json:"bet_kind"`
	BetValue     string `json:"bet_value"`
	Amount       int64  `json:"amount"`
	BalanceAfter int64  `json:"balance_after"`
	TsUnixMs     int64  `json:"ts_unix_ms"`
}
