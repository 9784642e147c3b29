package main

import (
	"context"
	"encoding/json"
	"log"

	"ai-devguide-be/internal/bootstrap"
	"ai-devguide-be/internal/config"
	"ai-devguide-be/internal/pkg/logger"
	"ai-devguide-be/pkg/contextproto"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// stdout carries the protocol, so logs only go to the file.
func main() {
	cfg := config.Load()
	sysLogger := logger.NewIsolatedLogger("logs/mcp.log")
	defer sysLogger.Sync()

	stack, err := bootstrap.NewContentStack(cfg, sysLogger)
	if err != nil {
		log.Fatalf("content: %v", err)
	}
	if err := stack.Index.Init(context.Background()); err != nil {
		log.Fatalf("index content: %v", err)
	}

	s := server.NewMCPServer("ai-devguide", "1.0.0", server.WithToolCapabilities(false))
	for _, desc := range stack.Dispatcher.Tools() {
		schema, err := json.Marshal(desc.InputSchema)
		if err != nil {
			log.Fatalf("tool %s schema: %v", desc.Name, err)
		}
		s.AddTool(mcp.NewToolWithRawSchema(desc.Name, desc.Description, schema), toolHandler(stack.Dispatcher, desc.Name))
	}

	if err := server.ServeStdio(s); err != nil {
		sysLogger.Error("MCP", "Stdio server stopped", map[string]interface{}{"error": err.Error()})
	}
}

// toolHandler forwards an MCP tool call to the dispatcher.
func toolHandler(d *contextproto.Dispatcher, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		switch resp := d.Handle(ctx, contextproto.CallToolRequest{Name: name, Arguments: args}).(type) {
		case contextproto.CallToolResponse:
			out, err := json.MarshalIndent(resp.Result, "", "  ")
			if err != nil {
				return nil, err
			}
			return mcp.NewToolResultText(string(out)), nil
		case contextproto.ErrorResponse:
			return mcp.NewToolResultError(resp.Code + ": " + resp.Message), nil
		default:
			return mcp.NewToolResultError("unexpected response " + resp.Kind()), nil
		}
	}
}
