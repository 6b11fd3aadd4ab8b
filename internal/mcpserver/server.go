package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all Paymandar tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("paymandar", "1.0.0")
	client := NewPaymandarClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolCreateContract, h.HandleCreateContract)
	s.AddTool(ToolGetContract, h.HandleGetContract)
	s.AddTool(ToolListContracts, h.HandleListContracts)
	s.AddTool(ToolSignContract, h.HandleSignContract)
	s.AddTool(ToolListComments, h.HandleListComments)
	s.AddTool(ToolPostComment, h.HandlePostComment)
	s.AddTool(ToolListEscrowPayments, h.HandleListEscrowPayments)
	s.AddTool(ToolReleaseEscrow, h.HandleReleaseEscrow)

	return s
}
