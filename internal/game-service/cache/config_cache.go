package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/wingo-round-engine/internal/core/domain"
)

const keyGameConfig = "wingo:game_config:default"

// ConfigStore é a fonte de verdade da GameConfig
type ConfigStore interface {
	GetGameConfig(ctx context.Context) (domain.GameConfig, error)
	UpdateGameConfig(ctx context.Context, p domain.GameConfigPatch) (domain.GameConfig, error)
}

// ConfigCache é um read-through da GameConfig no Redis.
// Falhas do Redis caem para o banco; a escrita do admin invalida a chave.
type ConfigCache struct {
	R     *redis.Client
	Store ConfigStore
	TTL   time.Duration
	Log   *zap.Logger
}

func NewConfigCache(r *redis.Client, store ConfigStore, ttl time.Duration, log *zap.Logger) *ConfigCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConfigCache{R: r, Store: store, TTL: ttl, Log: log}
}

func (c *ConfigCache) GetGameConfig(ctx context.Context) (domain.GameConfig, error) {
	b, err := c.R.Get(ctx, keyGameConfig).Bytes()
	if err == nil {
		var cfg domain.GameConfig
		if jerr := json.Unmarshal(b, &cfg); jerr == nil {
			return cfg, nil
		}
	} else if err != redis.Nil {
		c.Log.Warn("config cache read failed", zap.Error(err))
	}

	cfg, err := c.Store.GetGameConfig(ctx)
	if err != nil {
		return domain.GameConfig{}, err
	}
	b, _ = json.Marshal(cfg)
	if err := c.R.Set(ctx, keyGameConfig, b, c.TTL).Err(); err != nil {
		c.Log.Warn("config cache write failed", zap.Error(err))
	}
	return cfg, nil
}

// UpdateGameConfig grava no banco e invalida o cache; a próxima leitura já vê o valor novo
func (c *ConfigCache) UpdateGameConfig(ctx context.Context, p domain.GameConfigPatch) (domain.GameConfig, error) {
	cfg, err := c.Store.UpdateGameConfig(ctx, p)
	if err != nil {
		return domain.GameConfig{}, err
	}
	if err := c.R.Del(ctx, keyGameConfig).Err(); err != nil {
		c.Log.Warn("config cache invalidate failed", zap.Error(err))
	}
	return cfg, nil
}
