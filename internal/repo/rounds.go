package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/radieske/wingo-round-engine/internal/core/domain"
)

// chave do singleton de configuração
const configKey = "default"

func (p *Postgres) GetRound(ctx context.Context, g domain.GameType, period string) (domain.Round, error) {
	r, err := scanRound(p.db.QueryRowContext(ctx, `
		SELECT game_type, period, number, color, size, forced_by_admin, set_by, created_at
		FROM rounds WHERE game_type=$1 AND period=$2`, string(g), period))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Round{}, domain.ErrNotFound
	}
	return r, err
}

// CreateRound insere a rodada se ainda não existir; created=false indica que outro escritor venceu
func (p *Postgres) CreateRound(ctx context.Context, r domain.Round) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO rounds(game_type, period, number, color, size, forced_by_admin, set_by, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (game_type, period) DO NOTHING`,
		string(r.GameType), r.Period, r.Number, string(r.Color), string(r.Size), r.ForcedByAdmin, r.SetBy, r.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ForceRound grava (ou sobrescreve) o resultado do admin.
// Rejeita com ErrConflict se alguma aposta do período já foi liquidada.
func (p *Postgres) ForceRound(ctx context.Context, r domain.Round) (domain.Round, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Round{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var settled bool
	if err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM bets WHERE game_type=$1 AND period=$2 AND settled)`,
		string(r.GameType), r.Period).Scan(&settled); err != nil {
		return domain.Round{}, err
	}
	if settled {
		return domain.Round{}, fmt.Errorf("%w: period %s already settled", domain.ErrConflict, r.Period)
	}

	// created_at original é preservado em caso de sobrescrita
	stored, err := scanRound(tx.QueryRowContext(ctx, `
		INSERT INTO rounds(game_type, period, number, color, size, forced_by_admin, set_by, created_at)
		VALUES($1,$2,$3,$4,$5,TRUE,$6,$7)
		ON CONFLICT (game_type, period) DO UPDATE
		SET number=EXCLUDED.number, color=EXCLUDED.color, size=EXCLUDED.size,
			forced_by_admin=TRUE, set_by=EXCLUDED.set_by
		RETURNING game_type, period, number, color, size, forced_by_admin, set_by, created_at`,
		string(r.GameType), r.Period, r.Number, string(r.Color), string(r.Size), r.SetBy, r.CreatedAt))
	if err != nil {
		return domain.Round{}, mapErr(err)
	}
	if err = tx.Commit(); err != nil {
		return domain.Round{}, fmt.Errorf("commit: %w", err)
	}
	return stored, nil
}

// ListRounds devolve as rodadas mais recentes do tipo de jogo
func (p *Postgres) ListRounds(ctx context.Context, g domain.GameType, limit int) ([]domain.Round, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT game_type, period, number, color, size, forced_by_admin, set_by, created_at
		FROM rounds WHERE game_type=$1
		ORDER BY created_at DESC
		LIMIT $2`, string(g), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Round{}
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetGameConfig lê o singleton; cria com os defaults se ainda não existir
func (p *Postgres) GetGameConfig(ctx context.Context) (domain.GameConfig, error) {
	var c domain.GameConfig
	err := p.db.QueryRowContext(ctx, `
		SELECT profit_mode, new_user_boost, withdrawal_risk, big_bet_risk
		FROM game_config WHERE key=$1`, configKey).
		Scan(&c.ProfitMode, &c.NewUserBoost, &c.WithdrawalRisk, &c.BigBetRisk)
	if errors.Is(err, sql.ErrNoRows) {
		c = domain.DefaultGameConfig()
		if _, err := p.db.ExecContext(ctx, `
			INSERT INTO game_config(key, profit_mode, new_user_boost, withdrawal_risk, big_bet_risk)
			VALUES($1,$2,$3,$4,$5) ON CONFLICT (key) DO NOTHING`,
			configKey, c.ProfitMode, c.NewUserBoost, c.WithdrawalRisk, c.BigBetRisk); err != nil {
			return domain.GameConfig{}, err
		}
		return c, nil
	}
	if err != nil {
		return domain.GameConfig{}, err
	}
	return c, nil
}

// UpdateGameConfig aplica o patch parcial sob lock da linha
func (p *Postgres) UpdateGameConfig(ctx context.Context, patch domain.GameConfigPatch) (domain.GameConfig, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.GameConfig{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	def := domain.DefaultGameConfig()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO game_config(key, profit_mode, new_user_boost, withdrawal_risk, big_bet_risk)
		VALUES($1,$2,$3,$4,$5) ON CONFLICT (key) DO NOTHING`,
		configKey, def.ProfitMode, def.NewUserBoost, def.WithdrawalRisk, def.BigBetRisk); err != nil {
		return domain.GameConfig{}, err
	}

	var cur domain.GameConfig
	if err = tx.QueryRowContext(ctx, `
		SELECT profit_mode, new_user_boost, withdrawal_risk, big_bet_risk
		FROM game_config WHERE key=$1 FOR UPDATE`, configKey).
		Scan(&cur.ProfitMode, &cur.NewUserBoost, &cur.WithdrawalRisk, &cur.BigBetRisk); err != nil {
		return domain.GameConfig{}, err
	}

	next := patch.Apply(cur)
	if _, err = tx.ExecContext(ctx, `
		UPDATE game_config SET profit_mode=$2, new_user_boost=$3, withdrawal_risk=$4, big_bet_risk=$5, updated_at=now()
		WHERE key=$1`,
		configKey, next.ProfitMode, next.NewUserBoost, next.WithdrawalRisk, next.BigBetRisk); err != nil {
		return domain.GameConfig{}, err
	}
	if err = tx.Commit(); err != nil {
		return domain.GameConfig{}, fmt.Errorf("commit: %w", err)
	}
	return next, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRound(s rowScanner) (domain.Round, error) {
	var r domain.Round
	var g, color, size string
	if err := s.Scan(&g, &r.Period, &r.Number, &color, &size, &r.ForcedByAdmin, &r.SetBy, &r.CreatedAt); err != nil {
		return domain.Round{}, err
	}
	r.GameType, r.Color, r.Size = domain.GameType(g), domain.Color(color), domain.Size(size)
	return r, nil
}
