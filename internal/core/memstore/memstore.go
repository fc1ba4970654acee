package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/radieske/wingo-round-engine/internal/core/domain"
)

type roundKey struct {
	g      domain.GameType
	period string
}

// Store é uma implementação em memória de domain.Store.
// Serializa mutações por usuário com um mutex por id; a criação de rodada é insert-if-absent sob o lock global.
type Store struct {
	mu     sync.Mutex
	users  map[string]domain.User
	bets   map[string]domain.Bet
	order  []string // ids de apostas em ordem de inserção
	rounds map[roundKey]domain.Round
	config *domain.GameConfig

	userLocks sync.Map // userID -> *sync.Mutex

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:  make(map[string]domain.User),
		bets:   make(map[string]domain.Bet),
		rounds: make(map[roundKey]domain.Round),
		now:    time.Now,
	}
}

// PutUser cria ou substitui um usuário
func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	s.users[u.ID] = u
}

// GetUser devolve uma cópia do usuário
func (s *Store) GetUser(id string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// GetBet devolve uma cópia da aposta
func (s *Store) GetBet(id string) (domain.Bet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bets[id]
	return b, ok
}

// CountBets conta todas as apostas persistidas
func (s *Store) CountBets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bets)
}

func (s *Store) userLock(id string) *sync.Mutex {
	l, _ := s.userLocks.LoadOrStore(id, &sync.Mutex{})
	return l.(*sync.Mutex)
}

type tx struct {
	s       *Store
	user    domain.User
	dirty   bool
	created []domain.Bet
	settled []domain.Bet
}

func (t *tx) User() *domain.User { return &t.user }

func (t *tx) UnsettledBets(_ context.Context, g domain.GameType, period string) ([]domain.Bet, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var out []domain.Bet
	for _, id := range t.s.order {
		b := t.s.bets[id]
		if b.UserID == t.user.ID && b.GameType == g && b.Period == period && !b.Settled {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *tx) CreateBet(_ context.Context, b *domain.Bet) error {
	now := t.s.now()
	b.CreatedAt, b.UpdatedAt = now, now
	t.created = append(t.created, *b)
	return nil
}

func (t *tx) SettleBet(_ context.Context, b *domain.Bet) error {
	b.UpdatedAt = t.s.now()
	t.settled = append(t.settled, *b)
	return nil
}

func (t *tx) SaveUser(_ context.Context, u *domain.User) error {
	t.user = *u
	t.dirty = true
	return nil
}

// InUserTx executa fn com o usuário travado; as escritas só são aplicadas se fn retornar nil
func (s *Store) InUserTx(ctx context.Context, userID string, fn func(domain.UserTx) error) error {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	u, ok := s.users[userID]
	s.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}

	t := &tx{s: s, user: u}
	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t.dirty {
		s.users[userID] = t.user
	}
	for _, b := range t.created {
		s.bets[b.ID] = b
		s.order = append(s.order, b.ID)
	}
	for _, b := range t.settled {
		if cur, ok := s.bets[b.ID]; ok && !cur.Settled {
			s.bets[b.ID] = b
		}
	}
	return nil
}

func (s *Store) GetRound(_ context.Context, g domain.GameType, period string) (domain.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[roundKey{g, period}]
	if !ok {
		return domain.Round{}, domain.ErrNotFound
	}
	return r, nil
}

func (s *Store) CreateRound(_ context.Context, r domain.Round) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := roundKey{r.GameType, r.Period}
	if _, exists := s.rounds[k]; exists {
		return false, nil
	}
	s.rounds[k] = r
	return true, nil
}

func (s *Store) ForceRound(_ context.Context, r domain.Round) (domain.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bets {
		if b.GameType == r.GameType && b.Period == r.Period && b.Settled {
			return domain.Round{}, domain.ErrConflict
		}
	}
	k := roundKey{r.GameType, r.Period}
	if prev, ok := s.rounds[k]; ok {
		r.CreatedAt = prev.CreatedAt
	}
	s.rounds[k] = r
	return r, nil
}

func (s *Store) ListRounds(_ context.Context, g domain.GameType, limit int) ([]domain.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Round
	for k, r := range s.rounds {
		if k.g == g {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListUserBets(_ context.Context, userID string, g domain.GameType, limit int) ([]domain.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Bet
	for i := len(s.order) - 1; i >= 0; i-- {
		b := s.bets[s.order[i]]
		if b.UserID == userID && b.GameType == g {
			out = append(out, b)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *Store) PeriodStats(_ context.Context, g domain.GameType, period string) ([]domain.PeriodStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type key struct {
		kind  domain.BetKind
		value string
	}
	agg := make(map[key]*domain.PeriodStat)
	for _, b := range s.bets {
		if b.GameType != g || b.Period != period {
			continue
		}
		k := key{b.Kind, b.Value}
		st, ok := agg[k]
		if !ok {
			st = &domain.PeriodStat{Kind: b.Kind, Value: b.Value}
			agg[k] = st
		}
		st.TotalAmount += b.Amount
		st.Count++
	}
	out := make([]domain.PeriodStat, 0, len(agg))
	for _, st := range agg {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalAmount > out[j].TotalAmount })
	return out, nil
}

func (s *Store) UsersWithUnsettledBets(_ context.Context, g domain.GameType, period string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	var out []string
	for _, id := range s.order {
		b := s.bets[id]
		if b.GameType != g || b.Period != period || b.Settled {
			continue
		}
		if _, ok := seen[b.UserID]; !ok {
			seen[b.UserID] = struct{}{}
			out = append(out, b.UserID)
		}
	}
	return out, nil
}

func (s *Store) GetGameConfig(_ context.Context) (domain.GameConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config == nil {
		c := domain.DefaultGameConfig()
		s.config = &c
	}
	return *s.config, nil
}

func (s *Store) UpdateGameConfig(_ context.Context, p domain.GameConfigPatch) (domain.GameConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := domain.DefaultGameConfig()
	if s.config != nil {
		cur = *s.config
	}
	next := p.Apply(cur)
	s.config = &next
	return next, nil
}
