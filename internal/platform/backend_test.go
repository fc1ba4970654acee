package platform_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/wingo-round-engine/internal/core/memstore"
	"github.com/radieske/wingo-round-engine/internal/platform"
	"github.com/radieske/wingo-round-engine/internal/shared/config"
)

func TestParseSeedUsers(t *testing.T) {
	users, err := platform.ParseSeedUsers(" u1:1000, u2:0 ,")
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 || users[0].ID != "u1" || users[0].Balance != 1000 || users[1].ID != "u2" {
		t.Errorf("unexpected users %+v", users)
	}

	for _, bad := range []string{"u1", ":10", "u1:abc", "u1:-5"} {
		if _, err := platform.ParseSeedUsers(bad); err == nil {
			t.Errorf("ParseSeedUsers(%q) should fail", bad)
		}
	}
}

func TestOpenMemoryBackend(t *testing.T) {
	b, err := platform.OpenBackend(context.Background(), zap.NewNop(), config.Config{
		StoreDriver: platform.DriverMemory,
		SeedUsers:   "u1:500",
	})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if b.Shared {
		t.Error("memory backend is process-local")
	}
	u, ok := b.Store.(*memstore.Store).GetUser("u1")
	if !ok || u.Balance != 500 {
		t.Errorf("seed user not loaded: %+v", u)
	}
	if err := b.Health(context.Background()); err != nil {
		t.Error(err)
	}

	if _, err := platform.OpenBackend(context.Background(), zap.NewNop(), config.Config{StoreDriver: "mongo"}); err == nil {
		t.Error("unknown driver should fail")
	}
}
