package producer

import (
	"context"
	"time"

	"github.com/radieske/wingo-round-engine/internal/shared/kafka"
	"github.com/radieske/wingo-round-engine/pkg/contracts/events"
)

// KafkaPublisher publica os eventos do jogo, um writer por tópico
type KafkaPublisher struct {
	BetPlaced     *kafka.Writer
	BetsSettled   *kafka.Writer
	RoundResolved *kafka.Writer
	now           func() time.Time
}

func NewKafkaPublisher(betPlaced, betsSettled, roundResolved *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{BetPlaced: betPlaced, BetsSettled: betsSettled, RoundResolved: roundResolved, now: time.Now}
}

// chave = userId, para manter a ordem por usuário na partição
func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	e.TsUnixMs = p.now().UnixMilli()
	return kafka.WriteJSON(ctx, p.BetPlaced, e.UserID, e)
}

func (p *KafkaPublisher) PublishBetsSettled(ctx context.Context, e events.BetsSettled) error {
	e.TsUnixMs = p.now().UnixMilli()
	return kafka.WriteJSON(ctx, p.BetsSettled, e.UserID, e)
}

// chave = gameType:period
func (p *KafkaPublisher) PublishRoundResolved(ctx context.Context, e events.RoundResolved) error {
	return kafka.WriteJSON(ctx, p.RoundResolved, e.GameType+":"+e.Period, e)
}

// Close fecha os três writers
func (p *KafkaPublisher) Close() error {
	var first error
	for _, w := range []*kafka.Writer{p.BetPlaced, p.BetsSettled, p.RoundResolved} {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
