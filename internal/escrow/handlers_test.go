package escrow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := NewService(NewMemoryStore(), newMockContracts())
	handler := NewHandler(svc)

	r := gin.New()
	api := r.Group("/api")
	handler.RegisterRoutes(api)

	return r, svc
}

func paidPayment(t *testing.T, svc *Service) *Payment {
	t.Helper()
	ctx := context.Background()
	p, err := svc.CreatePending(ctx, "ct_1", 100000)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AttachAuthority(ctx, "ct_1", "A1", PayerInfo{Name: "Sara"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.MarkPaid(ctx, "A1", "R1"); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestHandler_ListPayments(t *testing.T) {
	router, svc := setupTestRouter(t)
	paidPayment(t, svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/escrow-payments", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success  bool `json:"success"`
		Payments []struct {
			ContractID string `json:"contractId"`
			Status     string `json:"status"`
			Amount     int64  `json:"amount"`
		} `json:"payments"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if !resp.Success || len(resp.Payments) != 1 {
		t.Fatalf("Expected one payment, got %+v", resp)
	}
	if resp.Payments[0].Status != "paid" || resp.Payments[0].Amount != 100000 {
		t.Errorf("Unexpected payment: %+v", resp.Payments[0])
	}
}

func TestHandler_ListPayments_Empty(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/escrow-payments", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp struct {
		Payments []any `json:"payments"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Payments == nil {
		t.Error("Expected empty array, not null")
	}
}

func TestHandler_Release(t *testing.T) {
	router, svc := setupTestRouter(t)
	p := paidPayment(t, svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/escrow/"+p.ID+"/release", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Payment struct {
			Status string `json:"status"`
		} `json:"payment"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Payment.Status != "released" {
		t.Errorf("Expected released, got %s", resp.Payment.Status)
	}

	// Second release conflicts
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/escrow/"+p.ID+"/release", nil))
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 on double release, got %d", w.Code)
	}
}

func TestHandler_Release_NotFound(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/escrow/pay_missing/release", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestHandler_GetPayment(t *testing.T) {
	router, svc := setupTestRouter(t)
	p := paidPayment(t, svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/escrow/"+p.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/escrow/pay_nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}
