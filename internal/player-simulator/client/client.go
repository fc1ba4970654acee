package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/radieske/wingo-round-engine/internal/game-service/dto"
)

// APIError é uma resposta não-2xx do game-service
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("game api http %d: %s", e.Status, e.Message)
}

// Client fala com a API do jogo em nome de um jogador
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(base, token string) *Client {
	return &Client{
		BaseURL: base,
		Token:   token,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

func (c *Client) Current(ctx context.Context, gameType string) (dto.CurrentPeriodResponse, error) {
	var out dto.CurrentPeriodResponse
	err := c.do(ctx, http.MethodGet, "/api/game/current?gameType="+url.QueryEscape(gameType), nil, &out)
	return out, err
}

func (c *Client) PlaceBet(ctx context.Context, req dto.PlaceBetRequest) (dto.PlaceBetResponse, error) {
	var out dto.PlaceBetResponse
	err := c.do(ctx, http.MethodPost, "/api/game/bet", req, &out)
	return out, err
}

func (c *Client) Settle(ctx context.Context, gameType, period string) (dto.SettleResponse, error) {
	var out dto.SettleResponse
	err := c.do(ctx, http.MethodPost, "/api/game/settle", dto.SettleRequest{GameType: gameType, Period: period}, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		var e dto.ErrorResponse
		_ = json.NewDecoder(res.Body).Decode(&e)
		return &APIError{Status: res.StatusCode, Message: e.Message}
	}
	return json.NewDecoder(res.Body).Decode(out)
}
