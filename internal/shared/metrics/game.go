package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Resultado de uma liquidação (label "outcome")
const (
	OutcomeSettled = "settled"
	OutcomeNoBets  = "no_bets"
	OutcomeError   = "error"
)

// Game agrupa os coletores do jogo. Os métodos têm a forma dos hooks dos serviços do core.
type Game struct {
	BetsPlaced      *prometheus.CounterVec
	StakePlaced     *prometheus.CounterVec
	Settlements     *prometheus.CounterVec
	SettleLatency   *prometheus.HistogramVec
	RoundsCreated   *prometheus.CounterVec
	RoundConflicts  *prometheus.CounterVec
	PayoutTotal     *prometheus.CounterVec
	FeeTotal        *prometheus.CounterVec
	PublishFailures *prometheus.CounterVec
}

func NewGame(reg prometheus.Registerer) *Game {
	g := &Game{
		BetsPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wingo_bets_placed_total", Help: "apostas aceitas",
		}, []string{"game_type", "kind"}),
		StakePlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wingo_stake_placed_total", Help: "valor apostado",
		}, []string{"game_type"}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wingo_settlements_total", Help: "liquidações por resultado",
		}, []string{"game_type", "outcome"}),
		SettleLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wingo_settle_duration_seconds",
			Help:    "latência da liquidação de um usuário",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"game_type"}),
		RoundsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wingo_rounds_created_total", Help: "rodadas gravadas por origem",
		}, []string{"game_type", "source"}),
		RoundConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wingo_round_conflicts_total", Help: "corridas na criação de rodada",
		}, []string{"game_type"}),
		PayoutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wingo_payout_total", Help: "lucro creditado aos jogadores",
		}, []string{"game_type"}),
		FeeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wingo_house_fee_total", Help: "taxa da casa retida",
		}, []string{"game_type"}),
		PublishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wingo_publish_failures_total", Help: "falhas ao publicar eventos",
		}, []string{"sink"}),
	}
	reg.MustRegister(g.BetsPlaced, g.StakePlaced, g.Settlements, g.SettleLatency,
		g.RoundsCreated, g.RoundConflicts, g.PayoutTotal, g.FeeTotal, g.PublishFailures)
	return g
}
