package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	docsmcp "github.com/sylinko/everywhere-web/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the docs MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		idx, err := a.buildSearch(cmd.Context())
		if err != nil {
			return err
		}
		defer idx.Close()

		a.logger.Info("starting MCP server in stdio mode")
		return server.ServeStdio(docsmcp.NewServer(docsmcp.Docs{
			Registry: a.registry,
			Source:   a.collections.Docs,
			Search:   idx,
			URL:      a.docURL,
		}))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
