package domain

import "context"

// UserTx é uma unidade de trabalho serializada por usuário.
// Tudo que for gravado só fica visível se a função passada a InUserTx retornar nil.
type UserTx interface {
	// User devolve o usuário carregado (e travado) no início da transação
	User() *User
	UnsettledBets(ctx context.Context, g GameType, period string) ([]Bet, error)
	CreateBet(ctx context.Context, b *Bet) error
	SettleBet(ctx context.Context, b *Bet) error
	SaveUser(ctx context.Context, u *User) error
}

// WalletStore abre transações por usuário; ErrNotFound se o usuário não existir
type WalletStore interface {
	InUserTx(ctx context.Context, userID string, fn func(tx UserTx) error) error
}

// Store reúne todas as operações de persistência usadas pelos serviços
type Store interface {
	WalletStore

	GetRound(ctx context.Context, g GameType, period string) (Round, error)
	CreateRound(ctx context.Context, r Round) (bool, error)
	ForceRound(ctx context.Context, r Round) (Round, error)
	ListRounds(ctx context.Context, g GameType, limit int) ([]Round, error)

	ListUserBets(ctx context.Context, userID string, g GameType, limit int) ([]Bet, error)
	PeriodStats(ctx context.Context, g GameType, period string) ([]PeriodStat, error)
	UsersWithUnsettledBets(ctx context.Context, g GameType, period string) ([]string, error)

	GetGameConfig(ctx context.Context) (GameConfig, error)
	UpdateGameConfig(ctx context.Context, p GameConfigPatch) (GameConfig, error)
}
