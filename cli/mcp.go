// ABOUTME: MCP server subcommand
// ABOUTME: Serves the CRM tools over stdio for desktop agent integration
package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/handlers"
)

// MCPCommand starts the MCP server on stdio. The session must already be logged in.
func MCPCommand(ctx context.Context, client *api.Client, version string) error {
	if !client.Session().LoggedIn() {
		return fmt.Errorf("not logged in; run 'omw-crm auth login' first")
	}
	log.Println("Starting CRM MCP Server...")

	server := handlers.NewServer(client, version)
	return server.Run(ctx, &mcp.StdioTransport{})
}
