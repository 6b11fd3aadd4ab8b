package realtime

import (
	"time"

	"github.com/paymandar/backend/internal/contracts"
	"github.com/paymandar/backend/internal/escrow"
)

// Emitter adapts the hub to the event hooks the domain services expose.
// Payloads are trimmed to what a dashboard needs; full records stay behind
// the REST API.
type Emitter struct {
	hub *Hub
}

// NewEmitter wraps a hub for use as a domain event sink.
func NewEmitter(hub *Hub) *Emitter {
	return &Emitter{hub: hub}
}

// ContractEvent implements contracts.EventEmitter.
func (e *Emitter) ContractEvent(event string, c *contracts.Contract) {
	e.hub.Broadcast(&Event{
		Type:      event,
		Timestamp: time.Now(),
		Data: map[string]any{
			"contractId": c.ID,
			"title":      c.Title,
			"status":     string(c.Status),
			"version":    c.Version,
			"amount":     float64(c.PaymentAmount),
		},
	})
}

// EscrowEvent implements escrow.EventEmitter.
func (e *Emitter) EscrowEvent(event string, p *escrow.Payment) {
	e.hub.Broadcast(&Event{
		Type:      event,
		Timestamp: time.Now(),
		Data: map[string]any{
			"paymentId":  p.ID,
			"contractId": p.ContractID,
			"status":     string(p.Status),
			"amount":     float64(p.Amount),
			"refId":      p.RefID,
		},
	})
}
