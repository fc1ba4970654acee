package main

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/wingo-round-engine/internal/game-service/auth"
	"github.com/radieske/wingo-round-engine/internal/game-service/dto"
	"github.com/radieske/wingo-round-engine/internal/game-service/ws"
	"github.com/radieske/wingo-round-engine/internal/player-simulator/client"
	"github.com/radieske/wingo-round-engine/internal/player-simulator/sim"
	"github.com/radieske/wingo-round-engine/internal/shared/config"
	"github.com/radieske/wingo-round-engine/internal/shared/logger"
	"github.com/radieske/wingo-round-engine/internal/shared/metrics"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "player-simulator"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// alvo e jogadores
	baseURL := getenv("SIM_BASE_URL", "http://localhost:8080")
	gameType := getenv("SIM_GAME_TYPE", "30s")
	ids := strings.Split(getenv("SIM_PLAYERS", "1,2,3"), ",")
	maxAmount, _ := strconv.ParseInt(getenv("SIM_MAX_AMOUNT", "500"), 10, 64)

	// tokens assinados com o mesmo segredo do game-service
	verifier := auth.NewVerifier(cfg.JWTSecret, "", cfg.AdminUserID)
	var players []sim.Player
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		tok, err := verifier.Issue(auth.Identity{UserID: id, Role: auth.RoleUser}, 24*time.Hour)
		if err != nil {
			log.Fatal("issue token", zap.Error(err))
		}
		players = append(players, sim.Player{ID: id, Client: client.New(baseURL, tok)})
	}
	if len(players) == 0 {
		log.Fatal("SIM_PLAYERS is empty")
	}

	// Métricas Prometheus do simulador
	reg := prometheus.NewRegistry()
	betsSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_bets_total", Help: "apostas enviadas por resultado",
	}, []string{"result"})
	settles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_settles_total", Help: "liquidações por resultado",
	}, []string{"result"})
	roundsSeen := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_ws_rounds_total", Help: "rodadas recebidas pelo /ws",
	})
	reg.MustRegister(betsSent, settles, roundsSeen)
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, reg, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go watchRounds(ctx, log, baseURL, gameType, roundsSeen)

	runner := sim.NewRunner(log, players, sim.Options{
		GameType:  gameType,
		MinAmount: cfg.DefaultLimits.Min,
		MaxAmount: maxAmount,
		Seed:      uint64(time.Now().UnixNano()),
		Grace:     cfg.SettleGrace,
		Hooks: sim.Hooks{
			OnBet: func(_ string, err error) { betsSent.WithLabelValues(result(err)).Inc() },
			OnSettled: func(_ string, _ dto.SettleResponse, err error) {
				settles.WithLabelValues(result(err)).Inc()
			},
		},
	})

	log.Info("player simulator running",
		zap.String("target", baseURL), zap.String("gameType", gameType), zap.Int("players", len(players)))
	_ = runner.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// watchRounds acompanha o feed público e loga cada rodada
func watchRounds(ctx context.Context, log *zap.Logger, baseURL, gameType string, seen prometheus.Counter) {
	u, err := url.Parse(baseURL)
	if err != nil {
		log.Warn("invalid SIM_BASE_URL", zap.Error(err))
		return
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws"
	u.RawQuery = "gameType=" + url.QueryEscape(gameType)

	for ctx.Err() == nil {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
		if err != nil {
			log.Warn("ws dial failed", zap.Error(err))
			time.Sleep(2 * time.Second)
			continue
		}
		go func() {
			<-ctx.Done()
			_ = conn.Close()
		}()
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var upd ws.RoundUpdate
			if json.Unmarshal(b, &upd) != nil || upd.Type != "round" {
				continue
			}
			seen.Inc()
			log.Info("round received", zap.String("period", upd.Round.Period),
				zap.Int("number", upd.Round.Number), zap.String("color", upd.Round.Color),
				zap.Bool("forced", upd.Round.ForcedByAdmin))
		}
		_ = conn.Close()
	}
}
