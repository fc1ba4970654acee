package metrics

import "github.com/prometheus/client_golang/prometheus"

// Worker são os coletores do settlement-worker (consumer + varredura)
type Worker struct {
	Consumed      prometheus.Counter
	ConsumeErrors *prometheus.CounterVec
	Pending       prometheus.Gauge
	Swept         *prometheus.CounterVec
	SweepErrors   *prometheus.CounterVec
}

func NewWorker(reg prometheus.Registerer) *Worker {
	w := &Worker{
		Consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wingo_worker_messages_consumed_total", Help: "mensagens bet_placed consumidas",
		}),
		ConsumeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wingo_worker_consume_errors_total", Help: "erros do consumer por estágio",
		}, []string{"stage"}),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wingo_worker_pending_periods", Help: "períodos aguardando liquidação",
		}),
		Swept: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wingo_worker_periods_swept_total", Help: "períodos fechados pela varredura",
		}, []string{"game_type"}),
		SweepErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wingo_worker_sweep_errors_total", Help: "liquidações que falharam na varredura",
		}, []string{"game_type"}),
	}
	reg.MustRegister(w.Consumed, w.ConsumeErrors, w.Pending, w.Swept, w.SweepErrors)
	return w
}
