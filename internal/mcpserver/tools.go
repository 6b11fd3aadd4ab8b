package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the Paymandar MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolCreateContract = mcp.NewTool("create_contract",
	mcp.WithDescription(
		"Create a new draft contract between two parties on Paymandar. "+
			"Returns the contract with its share link token — send the link to the other party so they can review and sign. "+
			"Optionally attach an escrow payment term: the payer funds escrow after signing and the money is held until the work is done."),
	mcp.WithString("title",
		mcp.Required(),
		mcp.Description("Contract title (e.g. 'Website redesign agreement')")),
	mcp.WithString("party1_name",
		mcp.Required(),
		mcp.Description("Full name of the first party (usually the creator)")),
	mcp.WithString("party1_email",
		mcp.Required(),
		mcp.Description("Email address of the first party")),
	mcp.WithString("party2_name",
		mcp.Required(),
		mcp.Description("Full name of the second party")),
	mcp.WithString("party2_email",
		mcp.Description("Email address of the second party")),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Full contract text / terms of the agreement")),
	mcp.WithString("payment_option",
		mcp.Description("Payment term: 'none' (no payment), 'full' or 'milestone' (funds held in escrow until completion)"),
		mcp.Enum("none", "full", "milestone")),
	mcp.WithNumber("payment_amount",
		mcp.Description("Escrow amount in Toman. Required unless payment_option is 'none'.")),
	mcp.WithString("payer_party",
		mcp.Description("Which party pays: 'party1' or 'party2'. Required for escrow."),
		mcp.Enum("party1", "party2")),
	mcp.WithString("payee_party",
		mcp.Description("Which party receives the funds: 'party1' or 'party2'. Required for escrow."),
		mcp.Enum("party1", "party2")),
)

var ToolGetContract = mcp.NewTool("get_contract",
	mcp.WithDescription(
		"Fetch a contract by its share link token. "+
			"Shows the parties, status (draft/signed/paid/completed), text version, and payment terms."),
	mcp.WithString("link_token",
		mcp.Required(),
		mcp.Description("The contract's share link token (the last path segment of the share link)")),
)

var ToolListContracts = mcp.NewTool("list_contracts",
	mcp.WithDescription(
		"List contracts on Paymandar, optionally filtered by status. "+
			"Use this to get an overview of drafts awaiting signature or paid contracts awaiting completion."),
	mcp.WithString("status",
		mcp.Description("Filter by lifecycle status"),
		mcp.Enum("draft", "signed", "paid", "completed")),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of contracts to return (default 20)")),
)

var ToolSignContract = mcp.NewTool("sign_contract",
	mcp.WithDescription(
		"Sign a draft contract. The link token is the signing capability — "+
			"only someone holding the share link can sign. Returns the signature code recorded on the contract."),
	mcp.WithString("link_token",
		mcp.Required(),
		mcp.Description("The contract's share link token")),
	mcp.WithString("signer_name",
		mcp.Required(),
		mcp.Description("Full name of the person signing")),
)

var ToolListComments = mcp.NewTool("list_comments",
	mcp.WithDescription(
		"Read the negotiation thread on a contract: comments, suggestions, and questions left by the parties."),
	mcp.WithString("link_token",
		mcp.Required(),
		mcp.Description("The contract's share link token")),
)

var ToolPostComment = mcp.NewTool("post_comment",
	mcp.WithDescription(
		"Post a comment on a contract's negotiation thread. "+
			"Use type 'suggestion' to propose a change to the terms, 'question' to ask for clarification."),
	mcp.WithString("link_token",
		mcp.Required(),
		mcp.Description("The contract's share link token")),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("The comment text")),
	mcp.WithString("type",
		mcp.Description("Comment kind"),
		mcp.Enum("comment", "suggestion", "question")),
	mcp.WithString("author_name",
		mcp.Required(),
		mcp.Description("Name of the comment author")),
)

var ToolListEscrowPayments = mcp.NewTool("list_escrow_payments",
	mcp.WithDescription(
		"List escrow payments across contracts with their status: "+
			"pending (awaiting payer), paid (funds held), or released (paid out to the payee)."),
)

var ToolReleaseEscrow = mcp.NewTool("release_escrow",
	mcp.WithDescription(
		"Release a paid escrow payment to the payee and mark the contract completed. "+
			"Only works when the payment has been verified by the gateway (status 'paid')."),
	mcp.WithString("payment_id",
		mcp.Required(),
		mcp.Description("The escrow payment ID (e.g. 'pay_...') from list_escrow_payments")),
)
