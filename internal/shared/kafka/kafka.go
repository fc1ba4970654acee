package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrDecode indica mensagem lida mas com payload inválido (não adianta reler)
var ErrDecode = errors.New("unmarshal kafka message")

type Writer = kafka.Writer

type Reader = kafka.Reader

type Message = kafka.Message

// MessageReader é o lado de leitura usado pelos consumers (*kafka.Reader em produção)
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

func brokerList(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func NewWriter(brokers string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokerList(brokers)...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // mesma chave (userId) cai na mesma partição
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

func NewReader(brokers string, topic string, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokerList(brokers),
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
}

// WriteJSON serializa v e publica com a chave informada
func WriteJSON(ctx context.Context, w *kafka.Writer, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal kafka payload: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	}
	return w.WriteMessages(ctx, msg)
}

// ReadJSON lê a próxima mensagem do grupo e desserializa em dst
func ReadJSON(ctx context.Context, r MessageReader, dst any) (key []byte, err error) {
	m, err := r.ReadMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("read kafka message: %w", err)
	}
	if err := json.Unmarshal(m.Value, dst); err != nil {
		return m.Key, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return m.Key, nil
}
