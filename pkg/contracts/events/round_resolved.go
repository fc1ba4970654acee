package events

import "time"

// Evento publicado no tópico "round_resolved" e no canal Redis de broadcast
// quando uma rodada é criada ou sobrescrita pelo admin
type RoundResolved struct {
	GameType      string    `json:"gameType"`
	Period        string    `json:"period"`
	Number        int       `json:"number"`
	Color         string    `json:"color"`
	Size          string    `json:"size"`
	ForcedByAdmin bool      `json:"forcedByAdmin"`
	Source        string    `json:"source"` // "admin" | "random" | "risk"
	CreatedAt     time.Time `json:"createdAt"`
}
