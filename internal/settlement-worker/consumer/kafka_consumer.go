package consumer

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wingo-round-engine/internal/core/domain"
	"github.com/radieske/wingo-round-engine/internal/shared/kafka"
	"github.com/radieske/wingo-round-engine/pkg/contracts/events"
)

type Enqueuer interface {
	Enqueue(g domain.GameType, period string) error
}

// Processor consome bet_placed e agenda o período da aposta para liquidação.
// Com consumer group, apostas feitas enquanto o worker estava fora chegam no retorno.
type Processor struct {
	Log    *zap.Logger
	Reader kafka.MessageReader
	Queue  Enqueuer

	Backoff time.Duration // espera após falha de leitura (default 500ms)

	OnConsumed func()       // métricas (counter++)
	OnError    func(string) // métricas por fase
}

// Run inicia o loop de consumo; retorna ctx.Err() no cancelamento
func (p *Processor) Run(ctx context.Context) error {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	for {
		var ev events.BetPlaced
		_, err := kafka.ReadJSON(ctx, p.Reader, &ev)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, kafka.ErrDecode) {
				log.Warn("invalid message", zap.Error(err))
				p.failed("decode")
				continue
			}
			log.Warn("kafka read failed", zap.Error(err))
			p.failed("read")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		if err := p.Queue.Enqueue(domain.ParseGameType(ev.GameType), ev.Period); err != nil {
			log.Warn("bet_placed with invalid period",
				zap.String("betId", ev.BetID), zap.String("period", ev.Period), zap.Error(err))
			p.failed("enqueue")
		}
	}
}

func (p *Processor) failed(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
