package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *PaymandarClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *PaymandarClient) *Handlers {
	return &Handlers{client: client}
}

// HandleCreateContract creates a draft contract and returns its share link token.
func (h *Handlers) HandleCreateContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}
	text := req.GetString("text", "")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	body := map[string]any{
		"title":       title,
		"party1Name":  req.GetString("party1_name", ""),
		"party1Email": req.GetString("party1_email", ""),
		"party2Name":  req.GetString("party2_name", ""),
		"party2Email": req.GetString("party2_email", ""),
		"text":        text,
	}

	if opt := req.GetString("payment_option", ""); opt != "" {
		body["paymentOption"] = opt
	}
	if amount := req.GetFloat("payment_amount", 0); amount > 0 {
		body["paymentAmount"] = int64(amount)
	}
	if payer := req.GetString("payer_party", ""); payer != "" {
		body["payerParty"] = payer
	}
	if payee := req.GetString("payee_party", ""); payee != "" {
		body["payeeParty"] = payee
	}

	raw, err := h.client.CreateContract(ctx, body)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create contract: %v", err)), nil
	}

	contract, err := extractContract(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse contract: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("Contract created.\n\n")
	sb.WriteString(formatContract(contract))
	fmt.Fprintf(&sb, "\nShare link token: %s\n", getString(contract, "linkToken"))
	sb.WriteString("Send the share link to the other party so they can review and sign.")

	return mcp.NewToolResultText(sb.String()), nil
}

// HandleGetContract fetches a single contract by link token.
func (h *Handlers) HandleGetContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	linkToken := req.GetString("link_token", "")
	if linkToken == "" {
		return mcp.NewToolResultError("link_token is required"), nil
	}

	raw, err := h.client.GetContract(ctx, linkToken)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get contract: %v", err)), nil
	}

	contract, err := extractContract(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse contract: %v", err)), nil
	}

	return mcp.NewToolResultText(formatContract(contract)), nil
}

// HandleListContracts lists contracts with an optional status filter.
func (h *Handlers) HandleListContracts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := req.GetString("status", "")
	limit := req.GetInt("limit", 20)

	raw, err := h.client.ListContracts(ctx, status, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list contracts: %v", err)), nil
	}

	text, err := formatContractList(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse contracts: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleSignContract signs a draft contract.
func (h *Handlers) HandleSignContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	linkToken := req.GetString("link_token", "")
	if linkToken == "" {
		return mcp.NewToolResultError("link_token is required"), nil
	}
	signerName := req.GetString("signer_name", "")
	if signerName == "" {
		return mcp.NewToolResultError("signer_name is required"), nil
	}

	raw, err := h.client.SignContract(ctx, linkToken, signerName)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to sign contract: %v", err)), nil
	}

	contract, err := extractContract(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse contract: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Contract signed by %s.\n", signerName)
	if code := getString(contract, "signatureCode"); code != "" {
		fmt.Fprintf(&sb, "Signature code: %s\n", code)
	}
	if escrowRequired(contract) {
		sb.WriteString("\nNext step: the payer funds the escrow through the payment link.")
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// HandleListComments reads a contract's negotiation thread.
func (h *Handlers) HandleListComments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	linkToken := req.GetString("link_token", "")
	if linkToken == "" {
		return mcp.NewToolResultError("link_token is required"), nil
	}

	raw, err := h.client.ListComments(ctx, linkToken)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list comments: %v", err)), nil
	}

	text, err := formatCommentList(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse comments: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandlePostComment posts to a contract's negotiation thread.
func (h *Handlers) HandlePostComment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	linkToken := req.GetString("link_token", "")
	if linkToken == "" {
		return mcp.NewToolResultError("link_token is required"), nil
	}
	text := req.GetString("text", "")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}
	authorName := req.GetString("author_name", "")
	if authorName == "" {
		return mcp.NewToolResultError("author_name is required"), nil
	}
	commentType := req.GetString("type", "comment")

	_, err := h.client.PostComment(ctx, linkToken, text, commentType, authorName)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to post comment: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Posted %s by %s.", commentType, authorName)), nil
}

// HandleListEscrowPayments lists escrow payments across contracts.
func (h *Handlers) HandleListEscrowPayments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.ListEscrowPayments(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list escrow payments: %v", err)), nil
	}

	text, err := formatEscrowList(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse escrow payments: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleReleaseEscrow releases a paid escrow payment to the payee.
func (h *Handlers) HandleReleaseEscrow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paymentID := req.GetString("payment_id", "")
	if paymentID == "" {
		return mcp.NewToolResultError("payment_id is required"), nil
	}

	raw, err := h.client.ReleaseEscrow(ctx, paymentID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Release failed: %v", err)), nil
	}

	var resp struct {
		Payment map[string]any `json:"payment"`
	}
	_ = json.Unmarshal(raw, &resp)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Escrow payment %s released to the payee.\n", paymentID)
	if resp.Payment != nil {
		if v, ok := getFloat(resp.Payment, "amount"); ok {
			fmt.Fprintf(&sb, "Amount: %s Toman\n", formatAmount(v))
		}
		if v := getString(resp.Payment, "contractId"); v != "" {
			fmt.Fprintf(&sb, "Contract: %s (marked completed)\n", v)
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// --- Formatting helpers ---

func extractContract(raw json.RawMessage) (map[string]any, error) {
	var resp map[string]any
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	if c, ok := resp["contract"].(map[string]any); ok {
		return c, nil
	}
	// Some responses return the contract at the top level
	if _, ok := resp["linkToken"]; ok {
		return resp, nil
	}
	return nil, fmt.Errorf("no contract in response: %s", string(raw))
}

func formatContract(c map[string]any) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", getString(c, "title"))
	fmt.Fprintf(&sb, "  Status: %s", getString(c, "status"))
	if v, ok := getFloat(c, "version"); ok {
		fmt.Fprintf(&sb, " (text version %d)", int(v))
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  Parties: %s / %s\n", getString(c, "party1Name"), getString(c, "party2Name"))

	if escrowRequired(c) {
		if v, ok := getFloat(c, "paymentAmount"); ok {
			fmt.Fprintf(&sb, "  Escrow: %s Toman (payer: %s, payee: %s)\n",
				formatAmount(v), getString(c, "payerParty"), getString(c, "payeeParty"))
		}
	} else {
		sb.WriteString("  Payment: none\n")
	}

	if v := getString(c, "signerName"); v != "" {
		fmt.Fprintf(&sb, "  Signed by: %s\n", v)
	}
	if v := getString(c, "paymentRefId"); v != "" {
		fmt.Fprintf(&sb, "  Payment ref: %s\n", v)
	}
	return sb.String()
}

func formatContractList(raw json.RawMessage) (string, error) {
	var resp struct {
		Contracts []map[string]any `json:"contracts"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unexpected contracts response format")
	}

	if len(resp.Contracts) == 0 {
		return "No contracts found.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d contract(s):\n\n", len(resp.Contracts))
	for i, c := range resp.Contracts {
		fmt.Fprintf(&sb, "%d. %s [%s]\n", i+1, getString(c, "title"), getString(c, "status"))
		fmt.Fprintf(&sb, "   Parties: %s / %s\n", getString(c, "party1Name"), getString(c, "party2Name"))
		if escrowRequired(c) {
			if v, ok := getFloat(c, "paymentAmount"); ok {
				fmt.Fprintf(&sb, "   Escrow: %s Toman\n", formatAmount(v))
			}
		}
		fmt.Fprintf(&sb, "   Link token: %s\n", getString(c, "linkToken"))
		if i < len(resp.Contracts)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func formatCommentList(raw json.RawMessage) (string, error) {
	var resp struct {
		Comments []map[string]any `json:"comments"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unexpected comments response format")
	}

	if len(resp.Comments) == 0 {
		return "No comments yet.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d comment(s):\n\n", len(resp.Comments))
	for _, c := range resp.Comments {
		kind := getString(c, "type")
		if kind == "" {
			kind = "comment"
		}
		fmt.Fprintf(&sb, "[%s] %s: %s\n", kind, getString(c, "authorName"), getString(c, "text"))
	}
	return sb.String(), nil
}

func formatEscrowList(raw json.RawMessage) (string, error) {
	var resp struct {
		Payments []map[string]any `json:"payments"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unexpected escrow response format")
	}

	if len(resp.Payments) == 0 {
		return "No escrow payments found.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d escrow payment(s):\n\n", len(resp.Payments))
	for i, p := range resp.Payments {
		amount := ""
		if v, ok := getFloat(p, "amount"); ok {
			amount = formatAmount(v)
		}
		fmt.Fprintf(&sb, "%d. %s — %s Toman [%s]\n", i+1, getString(p, "id"), amount, getString(p, "status"))
		fmt.Fprintf(&sb, "   Contract: %s\n", getString(p, "contractId"))
		if v := getString(p, "refId"); v != "" {
			fmt.Fprintf(&sb, "   Gateway ref: %s\n", v)
		}
	}
	return sb.String(), nil
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.0f", v)
}

// escrowRequired reports whether the contract's payment option requires
// funds to be held in escrow (any option other than "none").
func escrowRequired(c map[string]any) bool {
	opt := getString(c, "paymentOption")
	return opt != "" && opt != "none"
}

// getString extracts a string value from a map, trying multiple key names.
func getString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%g", f)
			}
		}
	}
	return ""
}

// getFloat extracts a float64 value from a map, trying multiple key names.
func getFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := v.(float64); ok {
				return f, true
			}
		}
	}
	return 0, false
}
