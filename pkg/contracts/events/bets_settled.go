package events

// Evento publicado no tópico "bets_settled" após o commit da liquidação de um usuário
type BetsSettled struct {
	UserID            string `json:"user_id"`
	GameType          string `json:"game_type"`
	Period            string `json:"period"`
	ResultNumber      int    `json:"result_number"`
	ResultColor       string `json:"result_color"`
	ResultSize        string `json:"result_size"`
	BetsSettled       int    `json:"bets_settled"`
	Wins              int    `json:"wins"`
	TotalStake        int64  `json:"total_stake"`
	TotalProfit       int64  `json:"total_profit"`
	TotalFeeCollected int64  `json:"total_fee_collected"`
	Balance           int64  `json:"balance"`
	TsUnixMs          int64  `json:"ts_unix_ms"`
}
