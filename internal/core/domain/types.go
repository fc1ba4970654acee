package domain

import "time"

// GameType identifica a duração do jogo ("30s", "60s", "180s", "300s")
type GameType string

const (
	GameType30s  GameType = "30s"
	GameType60s  GameType = "60s"
	GameType180s GameType = "180s"
	GameType300s GameType = "300s"
)

// GameTypes lista os tipos suportados, na ordem exibida aos clientes
var GameTypes = []GameType{GameType30s, GameType60s, GameType180s, GameType300s}

// ParseGameType normaliza a entrada; valores desconhecidos viram 30s (sem erro)
func ParseGameType(s string) GameType {
	switch GameType(s) {
	case GameType30s, GameType60s, GameType180s, GameType300s:
		return GameType(s)
	default:
		return GameType30s
	}
}

// Seconds retorna a duração de uma rodada em segundos
func (g GameType) Seconds() int64 {
	switch g {
	case GameType60s:
		return 60
	case GameType180s:
		return 180
	case GameType300s:
		return 300
	default:
		return 30
	}
}

type BetKind string

const (
	BetKindColor  BetKind = "color"
	BetKindNumber BetKind = "number"
	BetKindSize   BetKind = "size"
)

type Color string

const (
	ColorGreen  Color = "G"
	ColorRed    Color = "R"
	ColorViolet Color = "V"
)

type Size string

const (
	SizeSmall Size = "SMALL"
	SizeBig   Size = "BIG"
)

// Round é o resultado persistido de um período. No máximo um por (GameType, Period).
type Round struct {
	GameType      GameType  `json:"gameType"`
	Period        string    `json:"period"`
	Number        int       `json:"number"`
	Color         Color     `json:"color"`
	Size          Size      `json:"size"`
	ForcedByAdmin bool      `json:"forcedByAdmin"`
	SetBy         string    `json:"setBy,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Bet é o registro de uma aposta. Depois de Settled=true os campos de resultado não mudam.
type Bet struct {
	ID           string
	UserID       string
	GameType     GameType
	Period       string
	Kind         BetKind
	Value        string
	Amount       int64
	Settled      bool
	Win          bool
	Profit       int64
	ResultNumber *int
	ResultColor  Color
	ResultSize   Size
	BalanceAfter *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// User contém apenas o subconjunto relevante para a carteira
type User struct {
	ID                          string
	Balance                     int64
	TradeVolumeSinceLastDeposit int64
	PendingTurnover             int64
	HasActiveDeposit            bool
	IsBlocked                   bool
	CreatedAt                   time.Time
}

// UnderTurnover indica depósito ativo com rollover ainda não cumprido
func (u *User) UnderTurnover() bool {
	return u.HasActiveDeposit && u.PendingTurnover > 0 && u.TradeVolumeSinceLastDeposit < u.PendingTurnover
}

// GameConfig é o singleton "default" com as flags do motor de risco
type GameConfig struct {
	ProfitMode     bool `json:"profitMode"`
	NewUserBoost   bool `json:"newUserBoost"`
	WithdrawalRisk bool `json:"withdrawalRisk"`
	BigBetRisk     bool `json:"bigBetRisk"`
}

// DefaultGameConfig reproduz os defaults do documento recém-criado (tudo ligado)
func DefaultGameConfig() GameConfig {
	return GameConfig{ProfitMode: true, NewUserBoost: true, WithdrawalRisk: true, BigBetRisk: true}
}

// GameConfigPatch é uma atualização parcial; nil mantém o valor atual
type GameConfigPatch struct {
	ProfitMode     *bool `json:"profitMode,omitempty"`
	NewUserBoost   *bool `json:"newUserBoost,omitempty"`
	WithdrawalRisk *bool `json:"withdrawalRisk,omitempty"`
	BigBetRisk     *bool `json:"bigBetRisk,omitempty"`
}

// Apply retorna a configuração resultante do patch
func (p GameConfigPatch) Apply(c GameConfig) GameConfig {
	if p.ProfitMode != nil {
		c.ProfitMode = *p.ProfitMode
	}
	if p.NewUserBoost != nil {
		c.NewUserBoost = *p.NewUserBoost
	}
	if p.WithdrawalRisk != nil {
		c.WithdrawalRisk = *p.WithdrawalRisk
	}
	if p.BigBetRisk != nil {
		c.BigBetRisk = *p.BigBetRisk
	}
	return c
}

// PeriodStat agrega o volume apostado por opção em um período
type PeriodStat struct {
	Kind        BetKind `json:"betKind"`
	Value       string  `json:"betValue"`
	TotalAmount int64   `json:"totalAmount"`
	Count       int64   `json:"count"`
}
