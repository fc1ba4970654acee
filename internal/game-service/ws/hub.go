package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/wingo-round-engine/internal/core/domain"
	"github.com/radieske/wingo-round-engine/pkg/contracts/events"
)

const (
	writeWait = 5 * time.Second
	// mensagens pendentes por conexão antes de derrubar o cliente lento
	sendBuffer = 16
)

// client tem um único writer (gorilla aceita um só) alimentado pela fila send
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan []byte, sendBuffer), done: make(chan struct{})}
}

// enqueue nunca bloqueia; fila cheia fecha o cliente
func (c *client) enqueue(b []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		c.close()
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *client) writePump(log *zap.Logger) {
	for {
		select {
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				log.Debug("ws write failed", zap.Error(err))
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// Hub gerencia conexões WebSocket e assinaturas por tipo de jogo
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	mu       sync.RWMutex
	// gameType -> conexões inscritas
	subs map[domain.GameType]map[*client]struct{}
}

// NewHub cria o Hub com a política de origem informada
func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      log,
		subs:     make(map[domain.GameType]map[*client]struct{}),
	}
}

// HandleWS mantém a conexão: subscribe/unsubscribe por gameType e ping
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := newClient(conn)
	defer c.close()
	go c.writePump(h.log)

	// ?gameType= na URL já inscreve
	if g := r.URL.Query().Get("gameType"); g != "" {
		h.subscribe(domain.ParseGameType(g), c)
	}

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			h.subscribe(domain.ParseGameType(msg.GameType), c)
		case "unsubscribe":
			h.unsubscribe(domain.ParseGameType(msg.GameType), c)
		case "ping":
			c.enqueue([]byte(`{"type":"pong"}`))
		}
	}

	h.remove(c)
}

// remove tira a conexão de todas as assinaturas
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for g, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, g)
		}
	}
}

func (h *Hub) subscribe(g domain.GameType, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[g]; !ok {
		h.subs[g] = make(map[*client]struct{})
	}
	h.subs[g][c] = struct{}{}
}

func (h *Hub) unsubscribe(g domain.GameType, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[g]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, g)
		}
	}
}

// Subscribers conta as conexões inscritas no tipo de jogo
func (h *Hub) Subscribers(g domain.GameType) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[g])
}

// Broadcast enfileira a rodada para todos os inscritos no tipo de jogo.
// Não espera a rede: um cliente que não acompanha é desconectado.
func (h *Hub) Broadcast(r events.RoundResolved) {
	g := domain.GameType(r.GameType)
	h.mu.RLock()
	conns := make([]*client, 0, len(h.subs[g]))
	for c := range h.subs[g] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	b, _ := json.Marshal(RoundUpdate{Type: "round", Round: r})
	for _, c := range conns {
		if !c.enqueue(b) {
			h.log.Debug("dropping slow ws client", zap.String("gameType", r.GameType))
			h.remove(c)
		}
	}
}
