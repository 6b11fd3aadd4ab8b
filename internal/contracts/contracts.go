// Package contracts manages two-party agreements shared via link tokens.
//
// Flow:
//  1. Party 1 creates a contract → status: draft, share link generated
//  2. Party 2 opens the link and signs → signature code issued → status: signed
//  3. Payer pays the escrow amount through the gateway → status: paid
//  4. Escrow is released to the payee → status: completed
package contracts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/paymandar/backend/internal/idgen"
)

var (
	ErrContractNotFound = errors.New("contract not found")
	ErrInvalidStatus    = errors.New("invalid contract status for this operation")
	ErrInvalidRequest   = errors.New("invalid contract request")
	ErrVersionNotFound  = errors.New("contract version not found")
)

// Status represents the lifecycle state of a contract.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSigned    Status = "signed"
	StatusPaid      Status = "paid"
	StatusCompleted Status = "completed"
)

// Party identifiers used by PayerParty / PayeeParty.
const (
	PartyOne = "party1"
	PartyTwo = "party2"
)

// PaymentOption selects whether a contract carries an escrow payment.
// Any option other than "none" requires payment into escrow.
const (
	PaymentNone      = "none"
	PaymentFull      = "full"
	PaymentMilestone = "milestone"
)

// Contract is a two-party agreement with an optional escrow payment term.
type Contract struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Type               string     `json:"type"`
	Party1Name         string     `json:"party1Name"`
	Party1Email        string     `json:"party1Email"`
	Party2Name         string     `json:"party2Name"`
	Party2Email        string     `json:"party2Email"`
	StartDate          string     `json:"startDate"`
	EndDate            string     `json:"endDate"`
	Text               string     `json:"text"`
	PaymentOption      string     `json:"paymentOption"`
	PaymentAmount      int64      `json:"paymentAmount"`
	PaymentDeadline    string     `json:"paymentDeadline,omitempty"`
	PaymentDescription string     `json:"paymentDescription,omitempty"`
	PayerParty         string     `json:"payerParty,omitempty"`
	PayeeParty         string     `json:"payeeParty,omitempty"`
	LinkToken          string     `json:"linkToken"`
	Status             Status     `json:"status"`
	SignatureCode      string     `json:"signatureCode,omitempty"`
	SignerName         string     `json:"signerName,omitempty"`
	PaymentRefID       string     `json:"paymentRefId,omitempty"`
	Version            int        `json:"version"`
	SignedAt           *time.Time `json:"signedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// HasEscrow reports whether the contract carries a payable escrow term.
func (c *Contract) HasEscrow() bool {
	return c.PaymentOption != "" && c.PaymentOption != PaymentNone && c.PaymentAmount > 0
}

// IsTerminal returns true once the contract reached its final state.
func (c *Contract) IsTerminal() bool {
	return c.Status == StatusCompleted
}

// ContractVersion is a snapshot of the contract text at a point in time.
type ContractVersion struct {
	ID         string    `json:"id"`
	ContractID string    `json:"contractId"`
	Number     int       `json:"number"`
	Text       string    `json:"text"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store persists contract data.
type Store interface {
	Create(ctx context.Context, contract *Contract) error
	Get(ctx context.Context, id string) (*Contract, error)
	GetByLinkToken(ctx context.Context, linkToken string) (*Contract, error)
	Update(ctx context.Context, contract *Contract) error
	List(ctx context.Context, status string, limit int) ([]*Contract, error)
	CreateVersion(ctx context.Context, version *ContractVersion) error
	ListVersions(ctx context.Context, contractID string) ([]*ContractVersion, error)
}

// EscrowOpener abstracts escrow bootstrap so contracts doesn't import escrow.
type EscrowOpener interface {
	OpenPending(ctx context.Context, contractID string, amount int64) error
}

// EventEmitter receives contract lifecycle events for realtime fan-out.
type EventEmitter interface {
	ContractEvent(event string, c *Contract)
}

// CreateRequest contains the parameters for creating a contract.
type CreateRequest struct {
	Title              string `json:"title" binding:"required"`
	Type               string `json:"type"`
	Party1Name         string `json:"party1Name" binding:"required"`
	Party1Email        string `json:"party1Email" binding:"required"`
	Party2Name         string `json:"party2Name" binding:"required"`
	Party2Email        string `json:"party2Email"`
	StartDate          string `json:"startDate"`
	EndDate            string `json:"endDate"`
	Text               string `json:"text" binding:"required"`
	PaymentOption      string `json:"paymentOption"`
	PaymentAmount      int64  `json:"paymentAmount"`
	PaymentDeadline    string `json:"paymentDeadline"`
	PaymentDescription string `json:"paymentDescription"`
	PayerParty         string `json:"payerParty"`
	PayeeParty         string `json:"payeeParty"`
}

// SignRequest contains the parameters for signing a contract.
type SignRequest struct {
	SignerName string `json:"signerName" binding:"required"`
}

// UpdateTextRequest contains the parameters for revising contract text.
type UpdateTextRequest struct {
	Text string `json:"text" binding:"required"`
	Note string `json:"note"`
}

// Service implements contract business logic.
type Service struct {
	store  Store
	escrow EscrowOpener
	events EventEmitter
	locks  sync.Map // per-contract ID locks to prevent race conditions
}

// NewService creates a new contract service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// WithEscrow attaches an escrow opener used for contracts with a payment term.
func (s *Service) WithEscrow(escrow EscrowOpener) *Service {
	s.escrow = escrow
	return s
}

// WithEvents attaches an event emitter. Optional.
func (s *Service) WithEvents(events EventEmitter) *Service {
	s.events = events
	return s
}

// contractLock returns a mutex for the given contract ID.
func (s *Service) contractLock(id string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (s *Service) emit(event string, c *Contract) {
	if s.events != nil {
		s.events.ContractEvent(event, c)
	}
}

func generateContractID() string {
	return idgen.WithPrefix("ct_")
}

func generateVersionID() string {
	return idgen.WithPrefix("cv_")
}
