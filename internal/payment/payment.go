// Package payment drives the gateway payment flow: initiating a payment for
// a contract's escrow amount and reconciling the gateway callback against
// the ledger.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/codes"

	"github.com/paymandar/backend/internal/contracts"
	"github.com/paymandar/backend/internal/escrow"
	"github.com/paymandar/backend/internal/logging"
	"github.com/paymandar/backend/internal/traces"
	"github.com/paymandar/backend/internal/zarinpal"
)

var (
	ErrNoPaymentRequired = errors.New("contract has no payment term")
)

// Outcome classifies the result of a verification attempt.
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeAlreadyVerified Outcome = "already_verified"
	OutcomeCancelled       Outcome = "cancelled"
	OutcomeAmountNotFound  Outcome = "amount_not_found"
	OutcomeFailed          Outcome = "failed"
)

// Gateway is the payment gateway surface the flow depends on.
type Gateway interface {
	RequestPayment(ctx context.Context, req zarinpal.PaymentRequest) (zarinpal.RequestResult, error)
	VerifyPayment(ctx context.Context, merchantID string, amount int64, authority string) (zarinpal.VerifyResult, error)
	StartPayURL(authority string) string
}

// ContractSource resolves contracts for payment initiation.
type ContractSource interface {
	GetByLinkToken(ctx context.Context, linkToken string) (*contracts.Contract, error)
}

// Ledger is the escrow surface the flow reconciles against.
type Ledger interface {
	AttachAuthority(ctx context.Context, contractID, authority string, payer escrow.PayerInfo) (*escrow.Payment, error)
	MarkPaid(ctx context.Context, authority, refID string) (*escrow.Payment, error)
	RecordRefID(ctx context.Context, authority, refID string) (*escrow.Payment, error)
}

// InitiateRequest carries the payer details for starting a payment.
type InitiateRequest struct {
	PayerName   string `json:"payerName"`
	PayerEmail  string `json:"payerEmail"`
	PayerMobile string `json:"payerMobile"`
}

// Initiation is the result of a successful payment request.
type Initiation struct {
	Authority string `json:"authority"`
	PayURL    string `json:"payUrl"`
}

// Verification is the reconciled result of a gateway callback.
type Verification struct {
	Outcome    Outcome
	RefID      string
	ContractID string
	Code       int
}

// Service implements the payment flow.
type Service struct {
	merchantID      string
	callbackBaseURL string
	gateway         Gateway
	contracts       ContractSource
	ledger          Ledger
	amounts         *AmountCache
}

// NewService creates a payment flow service.
func NewService(merchantID, callbackBaseURL string, gateway Gateway, contractSrc ContractSource, ledger Ledger) *Service {
	return &Service{
		merchantID:      merchantID,
		callbackBaseURL: callbackBaseURL,
		gateway:         gateway,
		contracts:       contractSrc,
		ledger:          ledger,
		amounts:         NewAmountCache(),
	}
}

// Initiate requests a payment authority for the contract behind linkToken
// and returns the redirect URL the payer should be sent to. The requested
// amount is cached under the authority for verification.
func (s *Service) Initiate(ctx context.Context, linkToken string, req InitiateRequest) (*Initiation, error) {
	contract, err := s.contracts.GetByLinkToken(ctx, linkToken)
	if err != nil {
		return nil, err
	}
	if !contract.HasEscrow() {
		return nil, ErrNoPaymentRequired
	}

	ctx, span := traces.StartSpan(ctx, "payment.Initiate",
		traces.ContractID(contract.ID), traces.Amount(contract.PaymentAmount))
	defer span.End()

	description := contract.PaymentDescription
	if description == "" {
		description = "Payment for contract: " + contract.Title
	}

	res, err := s.gateway.RequestPayment(ctx, zarinpal.PaymentRequest{
		MerchantID:  s.merchantID,
		Amount:      contract.PaymentAmount,
		Description: description,
		CallbackURL: fmt.Sprintf("%s/api/payment-verify?contractId=%s", s.callbackBaseURL, contract.ID),
		Metadata: zarinpal.Metadata{
			Mobile:     req.PayerMobile,
			Email:      req.PayerEmail,
			ContractID: contract.ID,
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway payment request failed")
		return nil, err
	}

	span.SetAttributes(traces.Authority(res.Authority))
	s.amounts.Put(res.Authority, contract.PaymentAmount)

	if _, err := s.ledger.AttachAuthority(ctx, contract.ID, res.Authority, escrow.PayerInfo{
		Name:   req.PayerName,
		Email:  req.PayerEmail,
		Mobile: req.PayerMobile,
	}); err != nil {
		logging.FromContext(ctx).Error("failed to attach authority to escrow",
			"contractId", contract.ID, "authority", res.Authority, "error", err)
	}

	return &Initiation{
		Authority: res.Authority,
		PayURL:    s.gateway.StartPayURL(res.Authority),
	}, nil
}

// Verify reconciles a gateway callback. The amount sent to the gateway is
// the one cached at initiation; a missing cache entry (replayed or unknown
// callback) short-circuits without a gateway call. Gateway business
// rejections become OutcomeFailed; transport failures are returned as
// errors so the caller can distinguish "gateway said no" from "gateway
// unreachable".
func (s *Service) Verify(ctx context.Context, authority, status, contractID string) (*Verification, error) {
	ctx, span := traces.StartSpan(ctx, "payment.Verify",
		traces.Authority(authority), traces.ContractID(contractID))
	defer span.End()

	if status != "OK" {
		span.SetAttributes(traces.Outcome(string(OutcomeCancelled)))
		return &Verification{Outcome: OutcomeCancelled, ContractID: contractID}, nil
	}

	amount, ok := s.amounts.TakeAndRemove(authority)
	if !ok {
		span.SetAttributes(traces.Outcome(string(OutcomeAmountNotFound)))
		return &Verification{Outcome: OutcomeAmountNotFound, ContractID: contractID}, nil
	}

	res, err := s.gateway.VerifyPayment(ctx, s.merchantID, amount, authority)
	if err != nil {
		var gwErr *zarinpal.GatewayError
		if errors.As(err, &gwErr) {
			span.SetAttributes(traces.Outcome(string(OutcomeFailed)))
			return &Verification{Outcome: OutcomeFailed, ContractID: contractID, Code: gwErr.Code}, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway verification unreachable")
		return nil, err
	}

	// A zero ref_id means the gateway did not report one; formatting it
	// would store a literal "0" over a genuine reference.
	var refID string
	if res.RefID != 0 {
		refID = strconv.FormatInt(res.RefID, 10)
	}

	switch res.Code {
	case zarinpal.CodeOK:
		span.SetAttributes(traces.Outcome(string(OutcomeSuccess)))
		if _, err := s.ledger.MarkPaid(ctx, authority, refID); err != nil {
			logging.FromContext(ctx).Error("verified payment could not be recorded",
				"authority", authority, "refId", refID, "error", err)
		}
		return &Verification{Outcome: OutcomeSuccess, RefID: refID, ContractID: contractID, Code: res.Code}, nil
	case zarinpal.CodeAlreadyVerified:
		span.SetAttributes(traces.Outcome(string(OutcomeAlreadyVerified)))
		if _, err := s.ledger.RecordRefID(ctx, authority, refID); err != nil {
			logging.FromContext(ctx).Error("re-verified payment could not be recorded",
				"authority", authority, "refId", refID, "error", err)
		}
		return &Verification{Outcome: OutcomeAlreadyVerified, RefID: refID, ContractID: contractID, Code: res.Code}, nil
	default:
		span.SetAttributes(traces.Outcome(string(OutcomeFailed)))
		return &Verification{Outcome: OutcomeFailed, ContractID: contractID, Code: res.Code}, nil
	}
}
