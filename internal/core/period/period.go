package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/radieske/wingo-round-engine/internal/core/domain"
)

// Info descreve um período: identificador, índice e janela de tempo
type Info struct {
	GameType domain.GameType `json:"gameType"`
	Period   string          `json:"period"`
	Index    int64           `json:"index"`
	StartsAt time.Time       `json:"startsAt"`
	EndsAt   time.Time       `json:"endsAt"`
}

// Index = floor(now_ms / (duração * 1000))
func Index(g domain.GameType, t time.Time) int64 {
	return floorDiv(t.UnixMilli(), g.Seconds()*1000)
}

// ID formata "{gameType}-{index}"; é o mesmo para todos no mesmo instante
func ID(g domain.GameType, index int64) string {
	return fmt.Sprintf("%s-%d", g, index)
}

// Current retorna o id do período corrente para o tipo de jogo
func Current(g domain.GameType, now time.Time) string {
	return ID(g, Index(g, now))
}

// At retorna o período completo que contém t
func At(g domain.GameType, t time.Time) Info {
	idx := Index(g, t)
	return infoFor(g, idx)
}

// Previous retorna o último período já encerrado em t
func Previous(g domain.GameType, t time.Time) Info {
	return infoFor(g, Index(g, t)-1)
}

// Parse extrai o tipo de jogo e o índice de um id de período
func Parse(id string) (domain.GameType, int64, error) {
	i := strings.LastIndex(id, "-")
	if i <= 0 {
		return "", 0, fmt.Errorf("%w: malformed period %q", domain.ErrValidation, id)
	}
	idx, err := strconv.ParseInt(id[i+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: malformed period %q", domain.ErrValidation, id)
	}
	return domain.GameType(id[:i]), idx, nil
}

func infoFor(g domain.GameType, idx int64) Info {
	ms := g.Seconds() * 1000
	return Info{
		GameType: g,
		Period:   ID(g, idx),
		Index:    idx,
		StartsAt: time.UnixMilli(idx * ms),
		EndsAt:   time.UnixMilli((idx + 1) * ms),
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
