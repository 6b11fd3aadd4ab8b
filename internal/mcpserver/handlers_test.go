package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test helpers ---

func newTestSetup(handler http.Handler) (*Handlers, func()) {
	ts := httptest.NewServer(handler)
	client := NewPaymandarClient(Config{APIURL: ts.URL})
	h := NewHandlers(client)
	return h, ts.Close
}

func makeRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	if args == nil {
		args = map[string]any{}
	}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content block")
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

// ============================================================
// Client tests
// ============================================================

func TestClient_DoRequest_HTTPError_WithAPIMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "contract not found",
		})
	}))
	defer ts.Close()

	client := NewPaymandarClient(Config{APIURL: ts.URL})
	_, err := client.GetContract(context.Background(), "nosuchtoken1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "contract not found")
}

func TestClient_DoRequest_HTTPError_NonJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream timeout"))
	}))
	defer ts.Close()

	client := NewPaymandarClient(Config{APIURL: ts.URL})
	_, err := client.ListEscrowPayments(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream timeout")
}

func TestClient_DoRequest_ConnectionRefused(t *testing.T) {
	client := NewPaymandarClient(Config{APIURL: "http://127.0.0.1:1"})
	_, err := client.ListEscrowPayments(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestClient_DoRequest_CancelledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Second)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := NewPaymandarClient(Config{APIURL: ts.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately
	_, err := client.ListEscrowPayments(ctx)
	require.Error(t, err)
}

func TestClient_ListContracts_QueryParams(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "draft", r.URL.Query().Get("status"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"success":true,"contracts":[]}`))
	}))
	defer ts.Close()

	client := NewPaymandarClient(Config{APIURL: ts.URL})
	_, err := client.ListContracts(context.Background(), "draft", 5)
	require.NoError(t, err)
}

func TestClient_ListContracts_ZeroLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("limit"), "limit=0 should not be sent")
		assert.Empty(t, r.URL.Query().Get("status"))
		_, _ = w.Write([]byte(`{"success":true,"contracts":[]}`))
	}))
	defer ts.Close()

	client := NewPaymandarClient(Config{APIURL: ts.URL})
	_, err := client.ListContracts(context.Background(), "", 0)
	require.NoError(t, err)
}

func TestClient_SignContract_RequestBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/contracts/tok123abc456/sign", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		var m map[string]string
		_ = json.Unmarshal(body, &m)
		assert.Equal(t, "Sara Ahmadi", m["signerName"])

		_, _ = w.Write([]byte(`{"success":true,"contract":{"status":"signed","signatureCode":"X7K2M9","linkToken":"tok123abc456"}}`))
	}))
	defer ts.Close()

	client := NewPaymandarClient(Config{APIURL: ts.URL})
	_, err := client.SignContract(context.Background(), "tok123abc456", "Sara Ahmadi")
	require.NoError(t, err)
}

func TestClient_ReleaseEscrow_Path(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/escrow/pay_abc123/release", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"payment":{"id":"pay_abc123","status":"released"}}`))
	}))
	defer ts.Close()

	client := NewPaymandarClient(Config{APIURL: ts.URL})
	_, err := client.ReleaseEscrow(context.Background(), "pay_abc123")
	require.NoError(t, err)
}

// ============================================================
// Handler tests
// ============================================================

func TestHandleCreateContract_Success(t *testing.T) {
	var gotBody map[string]any
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/contracts", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"contract":{
			"id":"ct_1","title":"Website redesign","status":"draft","version":1,
			"party1Name":"Sara","party2Name":"Reza","linkToken":"aBcD1234eFgH",
			"paymentOption":"full","paymentAmount":500000,"payerParty":"party2","payeeParty":"party1"}}`))
	}))
	defer cleanup()

	result, err := h.HandleCreateContract(context.Background(), makeRequest(map[string]any{
		"title":          "Website redesign",
		"party1_name":    "Sara",
		"party1_email":   "sara@example.com",
		"party2_name":    "Reza",
		"party2_email":   "reza@example.com",
		"text":           "Full agreement text.",
		"payment_option": "full",
		"payment_amount": float64(500000),
		"payer_party":    "party2",
		"payee_party":    "party1",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Website redesign")
	assert.Contains(t, text, "aBcD1234eFgH")
	assert.Contains(t, text, "500000 Toman")

	// Camel-cased API fields
	assert.Equal(t, "Sara", gotBody["party1Name"])
	assert.Equal(t, "full", gotBody["paymentOption"])
	assert.Equal(t, float64(500000), gotBody["paymentAmount"])
}

func TestHandleCreateContract_MissingTitle(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("API should not be called when title is missing")
	}))
	defer cleanup()

	result, err := h.HandleCreateContract(context.Background(), makeRequest(map[string]any{
		"text": "terms",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleGetContract_Success(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/contracts/tok123abc456", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"contract":{
			"title":"Logo design","status":"paid","version":2,
			"party1Name":"Sara","party2Name":"Reza","linkToken":"tok123abc456",
			"paymentOption":"full","paymentAmount":250000,
			"signerName":"Reza Karimi","paymentRefId":"12345"}}`))
	}))
	defer cleanup()

	result, err := h.HandleGetContract(context.Background(), makeRequest(map[string]any{
		"link_token": "tok123abc456",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Logo design")
	assert.Contains(t, text, "paid")
	assert.Contains(t, text, "Reza Karimi")
	assert.Contains(t, text, "12345")
}

func TestHandleGetContract_MissingToken(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("API should not be called without link_token")
	}))
	defer cleanup()

	result, err := h.HandleGetContract(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleGetContract_NotFound(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"contract not found"}`))
	}))
	defer cleanup()

	result, err := h.HandleGetContract(context.Background(), makeRequest(map[string]any{
		"link_token": "missingtoken",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "contract not found")
}

func TestHandleListContracts_Empty(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"contracts":[]}`))
	}))
	defer cleanup()

	result, err := h.HandleListContracts(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, "No contracts found.", resultText(t, result))
}

func TestHandleListContracts_Multiple(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "signed", r.URL.Query().Get("status"))
		_, _ = w.Write([]byte(`{"success":true,"contracts":[
			{"title":"Alpha","status":"signed","party1Name":"A","party2Name":"B","linkToken":"tokA","paymentOption":"full","paymentAmount":100000},
			{"title":"Beta","status":"signed","party1Name":"C","party2Name":"D","linkToken":"tokB","paymentOption":"none"}]}`))
	}))
	defer cleanup()

	result, err := h.HandleListContracts(context.Background(), makeRequest(map[string]any{
		"status": "signed",
	}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Found 2 contract(s)")
	assert.Contains(t, text, "Alpha")
	assert.Contains(t, text, "100000 Toman")
	assert.Contains(t, text, "tokB")
}

func TestHandleSignContract_Success(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"contract":{
			"status":"signed","signatureCode":"X7K2M9","linkToken":"tok123abc456","paymentOption":"full"}}`))
	}))
	defer cleanup()

	result, err := h.HandleSignContract(context.Background(), makeRequest(map[string]any{
		"link_token":  "tok123abc456",
		"signer_name": "Reza Karimi",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Reza Karimi")
	assert.Contains(t, text, "X7K2M9")
	assert.Contains(t, text, "funds the escrow")
}

func TestHandleSignContract_AlreadySigned(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":false,"message":"invalid contract status for this operation"}`))
	}))
	defer cleanup()

	result, err := h.HandleSignContract(context.Background(), makeRequest(map[string]any{
		"link_token":  "tok123abc456",
		"signer_name": "Reza",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid contract status")
}

func TestHandlePostComment_Defaults(t *testing.T) {
	var gotBody map[string]string
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"comment":{"id":"cmt_1"}}`))
	}))
	defer cleanup()

	result, err := h.HandlePostComment(context.Background(), makeRequest(map[string]any{
		"link_token":  "tok123abc456",
		"text":        "Can we extend the deadline?",
		"author_name": "Reza",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	// Type defaults to plain comment
	assert.Equal(t, "comment", gotBody["type"])
	assert.Equal(t, "Reza", gotBody["authorName"])
}

func TestHandleListComments_Thread(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/contracts/tok123abc456/comments", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"comments":[
			{"type":"suggestion","authorName":"Sara","text":"Raise the amount"},
			{"type":"comment","authorName":"Reza","text":"Agreed"}]}`))
	}))
	defer cleanup()

	result, err := h.HandleListComments(context.Background(), makeRequest(map[string]any{
		"link_token": "tok123abc456",
	}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "[suggestion] Sara: Raise the amount")
	assert.Contains(t, text, "[comment] Reza: Agreed")
}

func TestHandleListEscrowPayments_Multiple(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"payments":[
			{"id":"pay_1","contractId":"ct_1","amount":500000,"status":"paid","refId":"98765"},
			{"id":"pay_2","contractId":"ct_2","amount":250000,"status":"pending"}]}`))
	}))
	defer cleanup()

	result, err := h.HandleListEscrowPayments(context.Background(), makeRequest(nil))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Found 2 escrow payment(s)")
	assert.Contains(t, text, "pay_1 — 500000 Toman [paid]")
	assert.Contains(t, text, "Gateway ref: 98765")
	assert.Contains(t, text, "pay_2 — 250000 Toman [pending]")
}

func TestHandleReleaseEscrow_Success(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"payment":{
			"id":"pay_1","contractId":"ct_1","amount":500000,"status":"released"}}`))
	}))
	defer cleanup()

	result, err := h.HandleReleaseEscrow(context.Background(), makeRequest(map[string]any{
		"payment_id": "pay_1",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "pay_1 released")
	assert.Contains(t, text, "500000 Toman")
	assert.Contains(t, text, "ct_1")
}

func TestHandleReleaseEscrow_NotPaid(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":false,"message":"invalid escrow payment status for this operation"}`))
	}))
	defer cleanup()

	result, err := h.HandleReleaseEscrow(context.Background(), makeRequest(map[string]any{
		"payment_id": "pay_1",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid escrow payment status")
}

func TestHandleReleaseEscrow_MissingID(t *testing.T) {
	h, cleanup := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("API should not be called without payment_id")
	}))
	defer cleanup()

	result, err := h.HandleReleaseEscrow(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
