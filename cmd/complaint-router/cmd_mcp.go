package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ajitpratap0/complaint-router/internal/insights"
	"github.com/ajitpratap0/complaint-router/internal/intake"
	routermcp "github.com/ajitpratap0/complaint-router/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP (Model Context Protocol) server over stdio",
		Long: `Starts an MCP JSON-RPC 2.0 server that reads from stdin and writes to stdout.
All diagnostic logs go to stderr so that stdout remains exclusively MCP protocol traffic.

Tools exposed:
  classify_complaint  classify text and suggest a department
  extract_keywords    routing keywords found in text
  analyze_sentiment   negative, neutral or positive
  submit_complaint    classify, route and store a complaint
  get_complaint       a stored complaint with its SLA status
  update_status       move a complaint through its workflow
  sla_status          deadline and status for a complaint or a creation time
  analyze_patterns    category frequency, trend and peak weekdays

If the store is unavailable at startup the server still starts; the text
analysis tools keep working and storage tools return MCP error responses.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()

			cls, err := newClassifier(logger)
			if err != nil {
				return err
			}

			var (
				complaints *intake.Service
				reporter   *insights.Reporter
			)
			st, storeErr := newStore(cmd.Context(), logger)
			if storeErr != nil {
				// Log to stderr and continue without a store.
				logger.Error("mcp: failed to connect to store; tool calls requiring storage will fail",
					"error", storeErr)
			} else {
				defer func() { _ = st.Close() }()
				complaints = intake.NewService(st, cls, cfg.SLA.DefaultHours, logger)
				reporter = insights.NewReporter(st, newNarrator(logger), logger)
			}

			srv := routermcp.NewServer(cls, complaints, reporter, logger)

			// Use a standard log.Logger pointing at stderr for the mcp-go error logger.
			errLogger := log.New(os.Stderr, "mcp: ", log.LstdFlags)

			logger.Info("mcp: complaint-router MCP server starting", "transport", "stdio")

			return mcpserver.ServeStdio(
				srv.MCPServer(),
				mcpserver.WithErrorLogger(errLogger),
			)
		},
	}

	return cmd
}
