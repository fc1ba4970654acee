package ws

import "github.com/radieske/wingo-round-engine/internal/core/domain"

const SendBuffer = sendBuffer

// AttachIdle inscreve um cliente sem writer: a fila dele nunca esvazia
func (h *Hub) AttachIdle(g domain.GameType) (closed func() bool) {
	c := newClient(nil)
	h.subscribe(g, c)
	return func() bool {
		select {
		case <-c.done:
			return true
		default:
			return false
		}
	}
}
