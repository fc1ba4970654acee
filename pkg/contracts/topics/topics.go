package topics

const (
	// Apostas
	BetPlaced   = "bet_placed"
	BetsSettled = "bets_settled"

	// Rodadas
	RoundResolved = "round_resolved"

	// Canal Redis Pub/Sub consumido pelo /ws
	RoundsBroadcast = "rounds_broadcast"
)
