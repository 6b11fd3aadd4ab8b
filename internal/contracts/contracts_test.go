package contracts

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type mockEscrow struct {
	mu     sync.Mutex
	opened map[string]int64
	fail   bool
}

func newMockEscrow() *mockEscrow {
	return &mockEscrow{opened: make(map[string]int64)}
}

func (m *mockEscrow) OpenPending(ctx context.Context, contractID string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("escrow unavailable")
	}
	m.opened[contractID] = amount
	return nil
}

func escrowCreateRequest() CreateRequest {
	return CreateRequest{
		Title:         "Freelance design work",
		Party1Name:    "Sara",
		Party1Email:   "sara@example.com",
		Party2Name:    "Reza",
		Party2Email:   "reza@example.com",
		Text:          "Party 2 delivers three design drafts by the end date.",
		PaymentOption: PaymentFull,
		PaymentAmount: 500000,
		PayerParty:    PartyOne,
		PayeeParty:    PartyTwo,
	}
}

func TestCreate_EscrowContract(t *testing.T) {
	esc := newMockEscrow()
	svc := NewService(NewMemoryStore()).WithEscrow(esc)

	contract, err := svc.Create(context.Background(), escrowCreateRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if contract.Status != StatusDraft {
		t.Errorf("status = %s, want draft", contract.Status)
	}
	if contract.LinkToken == "" {
		t.Error("expected a link token")
	}
	if contract.Version != 1 {
		t.Errorf("version = %d, want 1", contract.Version)
	}
	if got := esc.opened[contract.ID]; got != 500000 {
		t.Errorf("escrow opened with amount %d, want 500000", got)
	}

	vs, err := svc.ListVersions(context.Background(), contract.LinkToken)
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if len(vs) != 1 || vs[0].Number != 1 {
		t.Errorf("expected one initial version, got %+v", vs)
	}
}

func TestCreate_PaymentOptionVariants(t *testing.T) {
	for _, opt := range []string{PaymentFull, PaymentMilestone} {
		t.Run(opt, func(t *testing.T) {
			esc := newMockEscrow()
			svc := NewService(NewMemoryStore()).WithEscrow(esc)

			req := escrowCreateRequest()
			req.PaymentOption = opt

			contract, err := svc.Create(context.Background(), req)
			if err != nil {
				t.Fatalf("Create with paymentOption %q failed: %v", opt, err)
			}
			if !contract.HasEscrow() {
				t.Errorf("HasEscrow should be true for paymentOption %q", opt)
			}
			if got := esc.opened[contract.ID]; got != 500000 {
				t.Errorf("escrow opened with amount %d, want 500000", got)
			}
		})
	}
}

func TestCreate_NoEscrowSkipsOpener(t *testing.T) {
	esc := newMockEscrow()
	svc := NewService(NewMemoryStore()).WithEscrow(esc)

	req := escrowCreateRequest()
	req.PaymentOption = PaymentNone
	req.PaymentAmount = 0
	req.PayerParty = ""
	req.PayeeParty = ""

	contract, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(esc.opened) != 0 {
		t.Error("escrow should not be opened for a contract without a payment term")
	}
	if contract.HasEscrow() {
		t.Error("HasEscrow should be false")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(NewMemoryStore())

	cases := []struct {
		name   string
		mutate func(*CreateRequest)
	}{
		{"missing title", func(r *CreateRequest) { r.Title = "  " }},
		{"bad party1 email", func(r *CreateRequest) { r.Party1Email = "nope" }},
		{"bad party2 email", func(r *CreateRequest) { r.Party2Email = "also nope" }},
		{"missing text", func(r *CreateRequest) { r.Text = "" }},
		{"unknown payment option", func(r *CreateRequest) { r.PaymentOption = "wire" }},
		{"zero escrow amount", func(r *CreateRequest) { r.PaymentAmount = 0 }},
		{"negative escrow amount", func(r *CreateRequest) { r.PaymentAmount = -10 }},
		{"payer equals payee", func(r *CreateRequest) { r.PayeeParty = r.PayerParty }},
		{"bad payer party", func(r *CreateRequest) { r.PayerParty = "party3" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := escrowCreateRequest()
			tc.mutate(&req)
			if _, err := svc.Create(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestCreate_SurvivesEscrowFailure(t *testing.T) {
	esc := newMockEscrow()
	esc.fail = true
	svc := NewService(NewMemoryStore()).WithEscrow(esc)

	contract, err := svc.Create(context.Background(), escrowCreateRequest())
	if err != nil {
		t.Fatalf("Create should not fail when escrow bootstrap fails: %v", err)
	}
	if contract.Status != StatusDraft {
		t.Errorf("status = %s, want draft", contract.Status)
	}
}

func TestSign_DraftOnly(t *testing.T) {
	svc := NewService(NewMemoryStore())
	contract, err := svc.Create(context.Background(), escrowCreateRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	signed, err := svc.Sign(context.Background(), contract.LinkToken, SignRequest{SignerName: "Reza"})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if signed.Status != StatusSigned {
		t.Errorf("status = %s, want signed", signed.Status)
	}
	if signed.SignatureCode == "" || signed.SignedAt == nil {
		t.Error("expected signature code and timestamp")
	}

	if _, err := svc.Sign(context.Background(), contract.LinkToken, SignRequest{SignerName: "Reza"}); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("second sign should fail with ErrInvalidStatus, got %v", err)
	}
}

func TestSign_UnknownToken(t *testing.T) {
	svc := NewService(NewMemoryStore())
	if _, err := svc.Sign(context.Background(), "doesNotExist00", SignRequest{SignerName: "X"}); !errors.Is(err, ErrContractNotFound) {
		t.Errorf("expected ErrContractNotFound, got %v", err)
	}
}

func TestUpdateText_BumpsVersion(t *testing.T) {
	svc := NewService(NewMemoryStore())
	contract, err := svc.Create(context.Background(), escrowCreateRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := svc.UpdateText(context.Background(), contract.LinkToken, UpdateTextRequest{
		Text: "Revised scope: four drafts.",
		Note: "scope change",
	})
	if err != nil {
		t.Fatalf("UpdateText failed: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("version = %d, want 2", updated.Version)
	}

	vs, err := svc.ListVersions(context.Background(), contract.LinkToken)
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if len(vs) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(vs))
	}
	if vs[1].Number != 2 || vs[1].Text != "Revised scope: four drafts." {
		t.Errorf("latest version = %+v", vs[1])
	}
}

func TestUpdateText_RejectedAfterSigning(t *testing.T) {
	svc := NewService(NewMemoryStore())
	contract, _ := svc.Create(context.Background(), escrowCreateRequest())
	if _, err := svc.Sign(context.Background(), contract.LinkToken, SignRequest{SignerName: "Reza"}); err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if _, err := svc.UpdateText(context.Background(), contract.LinkToken, UpdateTextRequest{Text: "too late"}); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestMarkPaid_RecordsRefAndIdempotent(t *testing.T) {
	svc := NewService(NewMemoryStore())
	contract, _ := svc.Create(context.Background(), escrowCreateRequest())
	if _, err := svc.Sign(context.Background(), contract.LinkToken, SignRequest{SignerName: "Reza"}); err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if err := svc.MarkPaid(context.Background(), contract.ID, "424242"); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}

	got, err := svc.Get(context.Background(), contract.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != StatusPaid || got.PaymentRefID != "424242" {
		t.Errorf("contract = status %s ref %q", got.Status, got.PaymentRefID)
	}

	// A gateway re-verify may call MarkPaid again.
	if err := svc.MarkPaid(context.Background(), contract.ID, "424242"); err != nil {
		t.Errorf("repeated MarkPaid should be a no-op, got %v", err)
	}
}

func TestMarkCompleted_PaidOnly(t *testing.T) {
	svc := NewService(NewMemoryStore())
	contract, _ := svc.Create(context.Background(), escrowCreateRequest())

	if err := svc.MarkCompleted(context.Background(), contract.ID); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("completing a draft should fail, got %v", err)
	}

	if _, err := svc.Sign(context.Background(), contract.LinkToken, SignRequest{SignerName: "Reza"}); err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if err := svc.MarkPaid(context.Background(), contract.ID, "1"); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}
	if err := svc.MarkCompleted(context.Background(), contract.ID); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	got, _ := svc.Get(context.Background(), contract.ID)
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
}

func TestList_FiltersByStatus(t *testing.T) {
	svc := NewService(NewMemoryStore())
	first, _ := svc.Create(context.Background(), escrowCreateRequest())
	if _, err := svc.Create(context.Background(), escrowCreateRequest()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Sign(context.Background(), first.LinkToken, SignRequest{SignerName: "Reza"}); err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	drafts, err := svc.List(context.Background(), string(StatusDraft), 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(drafts) != 1 {
		t.Errorf("draft count = %d, want 1", len(drafts))
	}

	all, err := svc.List(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("total count = %d, want 2", len(all))
	}
}

func TestGetByLinkToken_MalformedToken(t *testing.T) {
	svc := NewService(NewMemoryStore())
	if _, err := svc.GetByLinkToken(context.Background(), "bad token!"); !errors.Is(err, ErrContractNotFound) {
		t.Errorf("expected ErrContractNotFound, got %v", err)
	}
}
