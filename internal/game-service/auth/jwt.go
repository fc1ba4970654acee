package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var ErrUnauthorized = errors.New("unauthorized")

// Identity é o chamador autenticado
type Identity struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Claims do token emitido pelo serviço de usuários (HS256)
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier valida bearer tokens e reconhece o token interno do cron
type Verifier struct {
	secret    []byte
	cronToken string
	adminID   string
	now       func() time.Time
}

func NewVerifier(secret, cronToken, adminID string) *Verifier {
	return &Verifier{secret: []byte(secret), cronToken: cronToken, adminID: adminID, now: time.Now}
}

// Verify devolve a identidade do token. O token do cron vira o admin sintético.
func (v *Verifier) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthorized
	}
	if v.cronToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(v.cronToken)) == 1 {
		return Identity{UserID: v.adminID, Role: RoleAdmin}, nil
	}

	var c Claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if c.UserID == "" {
		return Identity{}, fmt.Errorf("%w: missing id claim", ErrUnauthorized)
	}
	if c.Role == "" {
		c.Role = RoleUser
	}
	return Identity{UserID: c.UserID, Role: c.Role}, nil
}

// Issue assina um token; usado por ferramentas locais e testes
func (v *Verifier) Issue(id Identity, ttl time.Duration) (string, error) {
	now := v.now()
	c := Claims{
		UserID: id.UserID,
		Role:   id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}
