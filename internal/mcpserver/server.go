// Package mcpserver exposes the refinement engine over the Model Context
// Protocol so MCP-capable clients can call Quill as a tool. This is pure
// wiring: tool definitions and argument plumbing, no pipeline logic.
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/quillforge/quill/internal/engine"
	"github.com/quillforge/quill/internal/pipeline"
	"github.com/quillforge/quill/internal/router"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Service is the slice of the engine the server needs.
type Service interface {
	Refine(ctx context.Context, topic string, observer pipeline.Observer) (engine.RunResult, error)
	RefineWithBound(ctx context.Context, topic string, maxIterations int, observer pipeline.Observer) (engine.RunResult, error)
	Ask(ctx context.Context, request string) (router.Intent, string, error)
}

// New creates the MCP server with the refine and ask tools registered.
func New(svc Service) *server.MCPServer {
	s := server.NewMCPServer(
		"quill",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Quill iteratively drafts, critiques, and revises short texts. "+
			"Use refine_text for writing tasks; use ask for anything else."),
	)

	refineTool := mcp.NewTool("refine_text",
		mcp.WithDescription("Write a short text on a topic and iteratively refine it until a critic accepts it."),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("What the text should be about."),
		),
		mcp.WithNumber("max_iterations",
			mcp.Description("Upper bound on critique/revise rounds. Uses the project default when omitted."),
		),
	)
	s.AddTool(refineTool, handleRefine(svc))

	askTool := mcp.NewTool("ask",
		mcp.WithDescription("Route a free-form request to the right handler (refine, weather, or direct answer)."),
		mcp.WithString("request",
			mcp.Required(),
			mcp.Description("The user's request."),
		),
	)
	s.AddTool(askTool, handleAsk(svc))

	return s
}

func handleRefine(svc Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		topic, err := req.RequireString("topic")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var result engine.RunResult
		if max, ok := numberArg(req, "max_iterations"); ok {
			result, err = svc.RefineWithBound(ctx, topic, int(max), nil)
		} else {
			result, err = svc.Refine(ctx, topic, nil)
		}
		// Exhaustion still carries the best-so-far artifact.
		if err != nil && !errors.Is(err, pipeline.ErrIterationsExhausted) {
			return mcp.NewToolResultError(err.Error()), nil
		}

		summary := fmt.Sprintf("%s\n\n(%d round(s), completed=%t)", result.Artifact, result.Iterations, result.Completed)
		if errors.Is(err, pipeline.ErrIterationsExhausted) {
			summary += "\niteration bound reached before the critic accepted"
		}
		if result.Report != nil {
			summary += fmt.Sprintf("\ntone=%s grammar_clean=%t", result.Report.Tone, result.Report.GrammarClean)
		}
		return mcp.NewToolResultText(summary), nil
	}
}

func handleAsk(svc Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		request, err := req.RequireString("request")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		intent, reply, err := svc.Ask(ctx, request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("[%s] %s", intent, reply)), nil
	}
}

func numberArg(req mcp.CallToolRequest, key string) (float64, bool) {
	args := req.GetArguments()
	value, ok := args[key].(float64)
	return value, ok
}
