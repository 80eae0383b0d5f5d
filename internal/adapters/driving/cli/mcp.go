package cli

import (
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vault-rag/internal/adapters/driving/mcp"
	"github.com/custodia-labs/vault-rag/internal/logger"
)

var (
	mcpHost string
	mcpPort int
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve vault retrieval to AI assistants over MCP",
	Long: `Loads the index and exposes the retrieve and health tools plus
the index manifest resource to MCP clients.

The server speaks JSON-RPC over stdio unless --port is given, in which case
it serves the streamable HTTP transport instead. Logs always go to stderr.

MCP_ALLOWLIST and MCP_DENYLIST take comma-separated tool names. A tool on
the deny list is hidden even when it is allowlisted.

  vault-rag mcp serve                  # stdio, for desktop assistants
  vault-rag mcp serve --port 8080      # HTTP, for MCP Inspector

To register with an assistant, point its mcpServers entry at the binary
with args ["mcp", "serve"].`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "localhost", "HTTP listen host")
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP listen port (0 serves over stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	svc := newRuntime(settings).retrieval()
	defer svc.Close() //nolint:errcheck
	if err := loadIndex(ctx, svc); err != nil {
		return err
	}

	ports := &mcp.Ports{Retrieval: svc}
	if reader, ok := svc.(mcp.ManifestReader); ok {
		ports.Manifest = reader
	}

	server, err := mcp.NewServer(ports,
		mcp.WithVersion(version),
		mcp.WithAllowlist(settings.MCPAllowlist),
		mcp.WithDenylist(settings.MCPDenylist),
	)
	if err != nil {
		return err
	}

	if mcpPort == 0 {
		return server.Run(ctx)
	}

	addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
	logger.Info("MCP server listening on http://%s", addr)
	return server.RunHTTP(ctx, addr)
}
