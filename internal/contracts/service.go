package contracts

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/paymandar/backend/internal/idgen"
	"github.com/paymandar/backend/internal/validation"
)

const (
	linkTokenLength     = 12
	signatureCodeLength = 6
)

// Create validates and stores a new draft contract. Contracts with an
// escrow payment term open a pending escrow record immediately so the
// ledger has a row to reconcile against before any gateway call.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Contract, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	if req.Type == "" {
		req.Type = "general"
	}
	if req.PaymentOption == "" {
		req.PaymentOption = PaymentNone
	}

	now := time.Now()
	contract := &Contract{
		ID:                 generateContractID(),
		Title:              strings.TrimSpace(req.Title),
		Type:               req.Type,
		Party1Name:         strings.TrimSpace(req.Party1Name),
		Party1Email:        strings.TrimSpace(req.Party1Email),
		Party2Name:         strings.TrimSpace(req.Party2Name),
		Party2Email:        strings.TrimSpace(req.Party2Email),
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		Text:               req.Text,
		PaymentOption:      req.PaymentOption,
		PaymentAmount:      req.PaymentAmount,
		PaymentDeadline:    req.PaymentDeadline,
		PaymentDescription: req.PaymentDescription,
		PayerParty:         req.PayerParty,
		PayeeParty:         req.PayeeParty,
		LinkToken:          idgen.Token(linkTokenLength),
		Status:             StatusDraft,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.store.Create(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}

	if err := s.store.CreateVersion(ctx, &ContractVersion{
		ID:         generateVersionID(),
		ContractID: contract.ID,
		Number:     1,
		Text:       contract.Text,
		Note:       "initial draft",
		CreatedAt:  now,
	}); err != nil {
		return nil, fmt.Errorf("failed to record initial version: %w", err)
	}

	if contract.HasEscrow() && s.escrow != nil {
		if err := s.escrow.OpenPending(ctx, contract.ID, contract.PaymentAmount); err != nil {
			log.Printf("contract %s: failed to open pending escrow: %v", contract.ID, err)
		}
	}

	s.emit("contract.created", contract)
	return contract, nil
}

func validateCreate(req CreateRequest) error {
	if !validation.TrimmedNonEmpty(req.Title) {
		return fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	if !validation.TrimmedNonEmpty(req.Party1Name) || !validation.TrimmedNonEmpty(req.Party2Name) {
		return fmt.Errorf("%w: both party names are required", ErrInvalidRequest)
	}
	if !validation.Email(strings.TrimSpace(req.Party1Email)) {
		return fmt.Errorf("%w: party1Email is not a valid email", ErrInvalidRequest)
	}
	if req.Party2Email != "" && !validation.Email(strings.TrimSpace(req.Party2Email)) {
		return fmt.Errorf("%w: party2Email is not a valid email", ErrInvalidRequest)
	}
	if !validation.TrimmedNonEmpty(req.Text) {
		return fmt.Errorf("%w: contract text is required", ErrInvalidRequest)
	}

	switch req.PaymentOption {
	case "", PaymentNone:
		return nil
	case PaymentFull, PaymentMilestone:
	default:
		return fmt.Errorf("%w: unknown paymentOption %q", ErrInvalidRequest, req.PaymentOption)
	}

	if !validation.Amount(req.PaymentAmount) {
		return fmt.Errorf("%w: paymentAmount must be positive for escrow contracts", ErrInvalidRequest)
	}
	if req.PayerParty != PartyOne && req.PayerParty != PartyTwo {
		return fmt.Errorf("%w: payerParty must be party1 or party2", ErrInvalidRequest)
	}
	if req.PayeeParty != PartyOne && req.PayeeParty != PartyTwo {
		return fmt.Errorf("%w: payeeParty must be party1 or party2", ErrInvalidRequest)
	}
	if req.PayerParty == req.PayeeParty {
		return fmt.Errorf("%w: payer and payee cannot be the same party", ErrInvalidRequest)
	}
	return nil
}

// Get returns a contract by ID.
func (s *Service) Get(ctx context.Context, id string) (*Contract, error) {
	return s.store.Get(ctx, id)
}

// GetByLinkToken resolves a contract from its share-link token.
func (s *Service) GetByLinkToken(ctx context.Context, linkToken string) (*Contract, error) {
	if !validation.LinkToken(linkToken) {
		return nil, ErrContractNotFound
	}
	return s.store.GetByLinkToken(ctx, linkToken)
}

// List returns contracts, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string, limit int) ([]*Contract, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.List(ctx, status, limit)
}

// Sign records party 2's signature on a draft contract and issues the
// signature code. Only draft contracts can be signed.
func (s *Service) Sign(ctx context.Context, linkToken string, req SignRequest) (*Contract, error) {
	contract, err := s.GetByLinkToken(ctx, linkToken)
	if err != nil {
		return nil, err
	}

	mu := s.contractLock(contract.ID)
	mu.Lock()
	defer mu.Unlock()

	// Re-read under the lock; a concurrent signer may have won.
	contract, err = s.store.Get(ctx, contract.ID)
	if err != nil {
		return nil, err
	}

	if contract.Status != StatusDraft {
		return nil, ErrInvalidStatus
	}
	if !validation.TrimmedNonEmpty(req.SignerName) {
		return nil, fmt.Errorf("%w: signerName is required", ErrInvalidRequest)
	}

	now := time.Now()
	contract.Status = StatusSigned
	contract.SignerName = strings.TrimSpace(req.SignerName)
	contract.SignatureCode = idgen.Code(signatureCodeLength)
	contract.SignedAt = &now
	contract.UpdatedAt = now

	if err := s.store.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to sign contract: %w", err)
	}

	s.emit("contract.signed", contract)
	return contract, nil
}

// UpdateText revises the contract text, bumping the version counter and
// recording a snapshot. Only draft contracts can be revised.
func (s *Service) UpdateText(ctx context.Context, linkToken string, req UpdateTextRequest) (*Contract, error) {
	contract, err := s.GetByLinkToken(ctx, linkToken)
	if err != nil {
		return nil, err
	}

	mu := s.contractLock(contract.ID)
	mu.Lock()
	defer mu.Unlock()

	contract, err = s.store.Get(ctx, contract.ID)
	if err != nil {
		return nil, err
	}

	if contract.Status != StatusDraft {
		return nil, ErrInvalidStatus
	}
	if !validation.TrimmedNonEmpty(req.Text) {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}

	now := time.Now()
	contract.Text = req.Text
	contract.Version++
	contract.UpdatedAt = now

	if err := s.store.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to update contract: %w", err)
	}

	if err := s.store.CreateVersion(ctx, &ContractVersion{
		ID:         generateVersionID(),
		ContractID: contract.ID,
		Number:     contract.Version,
		Text:       contract.Text,
		Note:       req.Note,
		CreatedAt:  now,
	}); err != nil {
		return nil, fmt.Errorf("failed to record version: %w", err)
	}

	s.emit("contract.updated", contract)
	return contract, nil
}

// ListVersions returns the text history of a contract, oldest first.
func (s *Service) ListVersions(ctx context.Context, linkToken string) ([]*ContractVersion, error) {
	contract, err := s.GetByLinkToken(ctx, linkToken)
	if err != nil {
		return nil, err
	}
	return s.store.ListVersions(ctx, contract.ID)
}

// MarkPaid transitions a contract to paid after a verified gateway
// settlement, recording the settlement reference.
func (s *Service) MarkPaid(ctx context.Context, contractID, refID string) error {
	mu := s.contractLock(contractID)
	mu.Lock()
	defer mu.Unlock()

	contract, err := s.store.Get(ctx, contractID)
	if err != nil {
		return err
	}

	switch contract.Status {
	case StatusSigned, StatusDraft:
	case StatusPaid:
		// Already there; keep it idempotent for gateway re-verifies.
		return nil
	default:
		return ErrInvalidStatus
	}

	contract.Status = StatusPaid
	contract.PaymentRefID = refID
	contract.UpdatedAt = time.Now()

	if err := s.store.Update(ctx, contract); err != nil {
		return fmt.Errorf("failed to mark contract paid: %w", err)
	}

	s.emit("contract.paid", contract)
	return nil
}

// MarkCompleted transitions a paid contract to completed once its escrow
// has been released.
func (s *Service) MarkCompleted(ctx context.Context, contractID string) error {
	mu := s.contractLock(contractID)
	mu.Lock()
	defer mu.Unlock()

	contract, err := s.store.Get(ctx, contractID)
	if err != nil {
		return err
	}

	if contract.Status != StatusPaid {
		return ErrInvalidStatus
	}

	contract.Status = StatusCompleted
	contract.UpdatedAt = time.Now()

	if err := s.store.Update(ctx, contract); err != nil {
		return fmt.Errorf("failed to complete contract: %w", err)
	}

	s.emit("contract.completed", contract)
	return nil
}
