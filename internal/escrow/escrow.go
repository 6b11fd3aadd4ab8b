// Package escrow holds contract payments until the work is done.
//
// Flow:
//  1. Contract requiring payment is created → pending record, no authority
//  2. Payer initiates payment → gateway authority attached, still pending
//  3. Gateway verification succeeds → paid, refID recorded
//  4. Contract completed → funds released to the payee
package escrow

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/paymandar/backend/internal/idgen"
	"github.com/paymandar/backend/internal/traces"
)

var (
	ErrPaymentNotFound = errors.New("escrow payment not found")
	ErrInvalidStatus   = errors.New("invalid escrow payment status for this operation")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrAlreadyExists   = errors.New("escrow payment already exists for this contract")
)

// Status represents the state of an escrow payment.
type Status string

const (
	StatusPending  Status = "pending"  // Created, waiting for the payer
	StatusPaid     Status = "paid"     // Verified by the gateway, funds held
	StatusReleased Status = "released" // Released to the payee
)

// Payment represents one escrow payment owned by a contract.
type Payment struct {
	ID          string     `json:"id"`
	ContractID  string     `json:"contractId"`
	Authority   string     `json:"authority"` // Gateway correlation ID, empty until initiation succeeds
	Amount      int64      `json:"amount"`    // Minor currency unit, fixed at creation
	Status      Status     `json:"status"`
	PayerName   string     `json:"payerName,omitempty"`
	PayerEmail  string     `json:"payerEmail,omitempty"`
	PayerMobile string     `json:"payerMobile,omitempty"`
	RefID       string     `json:"refId,omitempty"` // Gateway settlement reference
	CreatedAt   time.Time  `json:"createdAt"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	ReleasedAt  *time.Time `json:"releasedAt,omitempty"`
}

// PayerInfo carries the payer details captured at initiation.
type PayerInfo struct {
	Name   string `json:"payerName"`
	Email  string `json:"payerEmail"`
	Mobile string `json:"payerMobile"`
}

// Store persists escrow payments.
type Store interface {
	Create(ctx context.Context, p *Payment) error
	Get(ctx context.Context, id string) (*Payment, error)
	GetByContract(ctx context.Context, contractID string) (*Payment, error)
	GetByAuthority(ctx context.Context, authority string) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
	List(ctx context.Context) ([]*Payment, error)
}

// ContractMarker abstracts contract status updates so escrow doesn't import contracts.
type ContractMarker interface {
	MarkPaid(ctx context.Context, contractID, refID string) error
	MarkCompleted(ctx context.Context, contractID string) error
}

// EventEmitter receives escrow lifecycle events for realtime streaming.
type EventEmitter interface {
	EscrowEvent(event string, p *Payment)
}

// Service implements the escrow ledger state machine.
type Service struct {
	store     Store
	contracts ContractMarker
	emitter   EventEmitter
	locks     sync.Map // per-payment ID locks to serialize state transitions
}

// NewService creates a new escrow service.
func NewService(store Store, contracts ContractMarker) *Service {
	return &Service{
		store:     store,
		contracts: contracts,
	}
}

// WithEvents adds a realtime event emitter.
func (s *Service) WithEvents(e EventEmitter) *Service {
	s.emitter = e
	return s
}

// paymentLock returns a mutex for the given payment ID.
// This prevents concurrent transitions (e.g. two Release calls both
// passing the paid check before either writes released).
func (s *Service) paymentLock(id string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// CreatePending creates the escrow record for a contract that requires payment.
// At most one live payment per contract.
func (s *Service) CreatePending(ctx context.Context, contractID string, amount int64) (*Payment, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if existing, err := s.store.GetByContract(ctx, contractID); err == nil && existing != nil {
		return nil, ErrAlreadyExists
	}

	p := &Payment{
		ID:         idgen.WithPrefix("pay_"),
		ContractID: contractID,
		Amount:     amount,
		Status:     StatusPending,
		CreatedAt:  time.Now(),
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}

	s.emit("escrow.created", p)
	return p, nil
}

// AttachAuthority records the gateway authority and payer details after a
// successful initiation. The payment stays pending until verification.
func (s *Service) AttachAuthority(ctx context.Context, contractID, authority string, payer PayerInfo) (*Payment, error) {
	p, err := s.store.GetByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	mu := s.paymentLock(p.ID)
	mu.Lock()
	defer mu.Unlock()

	p, err = s.store.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	p.Authority = authority
	p.PayerName = payer.Name
	p.PayerEmail = payer.Email
	p.PayerMobile = payer.Mobile

	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// MarkPaid transitions the payment matching the gateway authority to paid,
// records the settlement reference, and moves the owning contract to paid.
func (s *Service) MarkPaid(ctx context.Context, authority, refID string) (*Payment, error) {
	p, err := s.store.GetByAuthority(ctx, authority)
	if err != nil {
		return nil, err
	}

	mu := s.paymentLock(p.ID)
	mu.Lock()
	defer mu.Unlock()

	p, err = s.store.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	if p.Status != StatusPending {
		return nil, ErrInvalidStatus
	}

	now := time.Now()
	p.Status = StatusPaid
	p.RefID = refID
	p.PaidAt = &now

	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}

	if s.contracts != nil {
		if err := s.contracts.MarkPaid(ctx, p.ContractID, refID); err != nil {
			// The payment record is authoritative; log and carry on.
			log.Printf("escrow %s: contract %s status update failed: %v", p.ID, p.ContractID, err)
		}
	}

	s.emit("escrow.paid", p)
	return p, nil
}

// RecordRefID stores the gateway settlement reference without a status
// transition. Used when verification reports a result for a payment that
// is no longer pending.
func (s *Service) RecordRefID(ctx context.Context, authority, refID string) (*Payment, error) {
	if refID == "" {
		return s.store.GetByAuthority(ctx, authority)
	}

	p, err := s.store.GetByAuthority(ctx, authority)
	if err != nil {
		return nil, err
	}

	mu := s.paymentLock(p.ID)
	mu.Lock()
	defer mu.Unlock()

	p, err = s.store.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	p.RefID = refID
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Release transitions a paid payment to released and moves the owning
// contract to completed. Rejected from any other status.
func (s *Service) Release(ctx context.Context, paymentID string) (*Payment, error) {
	ctx, span := traces.StartSpan(ctx, "escrow.Release", traces.PaymentID(paymentID))
	defer span.End()

	mu := s.paymentLock(paymentID)
	mu.Lock()
	defer mu.Unlock()

	p, err := s.store.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if p.Status != StatusPaid {
		return nil, ErrInvalidStatus
	}

	now := time.Now()
	p.Status = StatusReleased
	p.ReleasedAt = &now

	if err := s.store.Update(ctx, p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist release")
		return nil, err
	}

	if s.contracts != nil {
		if err := s.contracts.MarkCompleted(ctx, p.ContractID); err != nil {
			log.Printf("CRITICAL: escrow %s released but contract %s completion failed: %v",
				p.ID, p.ContractID, err)
		}
	}

	s.emit("escrow.released", p)
	return p, nil
}

// Get returns a payment by ID.
func (s *Service) Get(ctx context.Context, id string) (*Payment, error) {
	return s.store.Get(ctx, id)
}

// GetByContract returns the payment owned by a contract.
func (s *Service) GetByContract(ctx context.Context, contractID string) (*Payment, error) {
	return s.store.GetByContract(ctx, contractID)
}

// List returns all payments in insertion order.
func (s *Service) List(ctx context.Context) ([]*Payment, error) {
	return s.store.List(ctx)
}

func (s *Service) emit(event string, p *Payment) {
	if s.emitter != nil {
		s.emitter.EscrowEvent(event, p)
	}
}
