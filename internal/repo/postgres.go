package repo

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/radieske/wingo-round-engine/internal/core/domain"
)

//go:embed schema.sql
var schema string

// código do Postgres para violação de unicidade
const uniqueViolation = "23505"

// Postgres implementa domain.Store
type Postgres struct{ db *sql.DB }

var _ domain.Store = (*Postgres)(nil)

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Migrate cria as tabelas se ainda não existirem
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Ping é usado pelo /healthz
func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// InUserTx abre uma transação e trava a linha do usuário (FOR UPDATE) até o commit.
// Apostas e saldo só ficam visíveis se fn retornar nil.
func (p *Postgres) InUserTx(ctx context.Context, userID string, fn func(domain.UserTx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var u domain.User
	err = tx.QueryRowContext(ctx, `
		SELECT id, balance, trade_volume, pending_turnover, has_active_deposit, is_blocked, created_at
		FROM users WHERE id=$1 FOR UPDATE`, userID).
		Scan(&u.ID, &u.Balance, &u.TradeVolumeSinceLastDeposit, &u.PendingTurnover, &u.HasActiveDeposit, &u.IsBlocked, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	if err := fn(&userTx{tx: tx, user: u}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type userTx struct {
	tx   *sql.Tx
	user domain.User
}

func (t *userTx) User() *domain.User { return &t.user }

func (t *userTx) UnsettledBets(ctx context.Context, g domain.GameType, period string) ([]domain.Bet, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+betColumns+`
		FROM bets
		WHERE user_id=$1 AND game_type=$2 AND period=$3 AND NOT settled
		ORDER BY created_at, id`, t.user.ID, string(g), period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBets(rows)
}

func (t *userTx) CreateBet(ctx context.Context, b *domain.Bet) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO bets(id, user_id, game_type, period, bet_kind, bet_value, amount)
		VALUES($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		b.ID, b.UserID, string(b.GameType), b.Period, string(b.Kind), b.Value, b.Amount).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	return mapErr(err)
}

// SettleBet grava o resultado; só atualiza apostas ainda abertas
func (t *userTx) SettleBet(ctx context.Context, b *domain.Bet) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE bets SET settled=TRUE, win=$2, profit=$3, result_number=$4, result_color=$5,
			result_size=$6, balance_after=$7, updated_at=now()
		WHERE id=$1 AND NOT settled`,
		b.ID, b.Win, b.Profit, nullInt(b.ResultNumber), string(b.ResultColor), string(b.ResultSize), nullInt64(b.BalanceAfter))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: bet %s already settled", domain.ErrConflict, b.ID)
	}
	return nil
}

func (t *userTx) SaveUser(ctx context.Context, u *domain.User) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE users SET balance=$2, trade_volume=$3, pending_turnover=$4, has_active_deposit=$5
		WHERE id=$1`,
		u.ID, u.Balance, u.TradeVolumeSinceLastDeposit, u.PendingTurnover, u.HasActiveDeposit)
	if err != nil {
		return err
	}
	t.user = *u
	return nil
}

// ListUserBets devolve as apostas mais recentes do usuário no tipo de jogo
func (p *Postgres) ListUserBets(ctx context.Context, userID string, g domain.GameType, limit int) ([]domain.Bet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+betColumns+`
		FROM bets
		WHERE user_id=$1 AND game_type=$2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`, userID, string(g), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBets(rows)
}

// PeriodStats agrega o volume apostado por (kind, value) no período
func (p *Postgres) PeriodStats(ctx context.Context, g domain.GameType, period string) ([]domain.PeriodStat, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT bet_kind, bet_value, SUM(amount), COUNT(*)
		FROM bets
		WHERE game_type=$1 AND period=$2
		GROUP BY bet_kind, bet_value
		ORDER BY SUM(amount) DESC`, string(g), period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.PeriodStat{}
	for rows.Next() {
		var st domain.PeriodStat
		var kind string
		if err := rows.Scan(&kind, &st.Value, &st.TotalAmount, &st.Count); err != nil {
			return nil, err
		}
		st.Kind = domain.BetKind(kind)
		out = append(out, st)
	}
	return out, rows.Err()
}

// UsersWithUnsettledBets lista os usuários com apostas abertas no período
func (p *Postgres) UsersWithUnsettledBets(ctx context.Context, g domain.GameType, period string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM bets
		WHERE game_type=$1 AND period=$2 AND NOT settled`, string(g), period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

const betColumns = `id, user_id, game_type, period, bet_kind, bet_value, amount, settled, win, profit,
		result_number, result_color, result_size, balance_after, created_at, updated_at`

func scanBets(rows *sql.Rows) ([]domain.Bet, error) {
	var out []domain.Bet
	for rows.Next() {
		var b domain.Bet
		var g, kind, color, size string
		var num, bal sql.NullInt64
		if err := rows.Scan(&b.ID, &b.UserID, &g, &b.Period, &kind, &b.Value, &b.Amount, &b.Settled, &b.Win, &b.Profit,
			&num, &color, &size, &bal, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		b.GameType, b.Kind = domain.GameType(g), domain.BetKind(kind)
		b.ResultColor, b.ResultSize = domain.Color(color), domain.Size(size)
		if num.Valid {
			n := int(num.Int64)
			b.ResultNumber = &n
		}
		if bal.Valid {
			v := bal.Int64
			b.BalanceAfter = &v
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// mapErr traduz violação de unicidade para ErrConflict
func mapErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%w: %s", domain.ErrConflict, pqErr.Constraint)
	}
	return err
}
