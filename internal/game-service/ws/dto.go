package ws

import "github.com/radieske/wingo-round-engine/pkg/contracts/events"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// GameType: obrigatório para subscribe/unsubscribe ("30s", "60s", ...)
type ClientMsg struct {
	Type     string `json:"type"`
	GameType string `json:"gameType"`
}

// RoundUpdate é a mensagem enviada aos inscritos de um tipo de jogo
type RoundUpdate struct {
	Type  string               `json:"type"` // "round"
	Round events.RoundResolved `json:"round"`
}
