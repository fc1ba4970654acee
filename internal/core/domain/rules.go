package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ColorOf: 0 e 5 são violeta, ímpares vermelho, demais pares verde
func ColorOf(n int) Color {
	switch {
	case n == 0 || n == 5:
		return ColorViolet
	case n%2 == 1:
		return ColorRed
	default:
		return ColorGreen
	}
}

// SizeOf: 0–4 SMALL, 5–9 BIG
func SizeOf(n int) Size {
	if n <= 4 {
		return SizeSmall
	}
	return SizeBig
}

// NewRound monta um Round com cor e tamanho derivados do número
func NewRound(g GameType, period string, n int) Round {
	return Round{GameType: g, Period: period, Number: n, Color: ColorOf(n), Size: SizeOf(n)}
}

// ParseColor aceita forma curta ou longa (G/GREEN, R/RED, V/VIOLET)
func ParseColor(s string) (Color, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "G", "GREEN":
		return ColorGreen, nil
	case "R", "RED":
		return ColorRed, nil
	case "V", "VIOLET":
		return ColorViolet, nil
	}
	return "", fmt.Errorf("%w: invalid color %q", ErrValidation, s)
}

// ParseSize aceita SMALL/S e BIG/B
func ParseSize(s string) (Size, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SMALL", "S":
		return SizeSmall, nil
	case "BIG", "B":
		return SizeBig, nil
	}
	return "", fmt.Errorf("%w: invalid size %q", ErrValidation, s)
}

// NormalizeBet valida o formato de betValue para o betKind e devolve a forma canônica
func NormalizeBet(kind BetKind, value string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(value))
	switch kind {
	case BetKindColor:
		if v == string(ColorGreen) || v == string(ColorRed) || v == string(ColorViolet) {
			return v, nil
		}
	case BetKindNumber:
		if len(v) == 1 && v[0] >= '0' && v[0] <= '9' {
			return v, nil
		}
	case BetKindSize:
		if v == string(SizeSmall) || v == string(SizeBig) {
			return v, nil
		}
	default:
		return "", fmt.Errorf("%w: invalid bet kind %q", ErrValidation, kind)
	}
	return "", fmt.Errorf("%w: invalid bet value %q for kind %s", ErrValidation, value, kind)
}

// Multiplier: 2x para cor e tamanho, 10x para número exato
func Multiplier(kind BetKind) int64 {
	if kind == BetKindNumber {
		return 10
	}
	return 2
}

// Wins indica se uma aposta ganha quando o número sorteado é n
func Wins(kind BetKind, value string, n int) bool {
	switch kind {
	case BetKindColor:
		return value == string(ColorOf(n))
	case BetKindNumber:
		d, err := strconv.Atoi(value)
		return err == nil && d == n
	case BetKindSize:
		return value == string(SizeOf(n))
	}
	return false
}

// WinsRound compara contra o snapshot persistido (cor/tamanho podem ter sido forçados pelo admin)
func WinsRound(kind BetKind, value string, r Round) bool {
	switch kind {
	case BetKindColor:
		return value == string(r.Color)
	case BetKindNumber:
		d, err := strconv.Atoi(value)
		return err == nil && d == r.Number
	case BetKindSize:
		return value == string(r.Size)
	}
	return false
}

// WinningDigits retorna os dígitos que fazem a aposta ganhar
func WinningDigits(kind BetKind, value string) []int {
	var out []int
	for n := 0; n <= 9; n++ {
		if Wins(kind, value, n) {
			out = append(out, n)
		}
	}
	return out
}
