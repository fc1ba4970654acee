package producer_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/radieske/wingo-round-engine/internal/game-service/producer"
	"github.com/radieske/wingo-round-engine/pkg/contracts/events"
)

func TestRedisBroadcasterPublishes(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, "rounds")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	b := producer.NewRedisBroadcaster(rdb, "rounds")
	sent := events.RoundResolved{GameType: "30s", Period: "30s-1", Number: 5, Color: "V", Size: "BIG", Source: "random"}
	if err := b.PublishRoundResolved(ctx, sent); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var got events.RoundResolved
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatal(err)
		}
		if got.Period != "30s-1" || got.Number != 5 || got.Source != "random" {
			t.Errorf("unexpected payload %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}
