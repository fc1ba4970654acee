package platform

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/wingo-round-engine/internal/core/domain"
	"github.com/radieske/wingo-round-engine/internal/core/memstore"
	"github.com/radieske/wingo-round-engine/internal/repo"
	"github.com/radieske/wingo-round-engine/internal/shared/config"
	"github.com/radieske/wingo-round-engine/internal/shared/db"
	"github.com/radieske/wingo-round-engine/internal/shared/metrics"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Backend é o Store escolhido por STORE_DRIVER, com health e close
type Backend struct {
	Store  domain.Store
	Health metrics.HealthFunc
	Close  func() error
	// Shared indica que outros processos enxergam os mesmos dados
	Shared bool
}

// OpenBackend conecta (e migra) o Postgres, ou monta o store em memória com SEED_USERS
func OpenBackend(ctx context.Context, log *zap.Logger, cfg config.Config) (*Backend, error) {
	switch cfg.StoreDriver {
	case DriverMemory:
		users, err := ParseSeedUsers(cfg.SeedUsers)
		if err != nil {
			return nil, err
		}
		s := memstore.New()
		for _, u := range users {
			s.PutUser(u)
		}
		log.Info("memory store ready", zap.Int("seedUsers", len(users)))
		return &Backend{
			Store:  s,
			Health: func(context.Context) error { return nil },
			Close:  func() error { return nil },
		}, nil

	case DriverPostgres, "":
		pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		store := repo.NewPostgres(pg)
		if err := store.Migrate(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("postgres connected")
		return &Backend{Store: store, Health: store.Ping, Close: pg.Close, Shared: true}, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

// ParseSeedUsers lê "id:saldo,id:saldo"
func ParseSeedUsers(s string) ([]domain.User, error) {
	var out []domain.User
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, bal, ok := strings.Cut(part, ":")
		if !ok || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("invalid seed user %q", part)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(bal), 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid seed balance %q", part)
		}
		out = append(out, domain.User{ID: strings.TrimSpace(id), Balance: n})
	}
	return out, nil
}
