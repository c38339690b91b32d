// Package mcp exposes pipeline runs as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/relay"
	presentation "github.com/aretw0/relay/internal/presentation/graph"
	"github.com/aretw0/relay/pkg/graph"
	"github.com/aretw0/relay/pkg/ports"
	"github.com/aretw0/relay/pkg/session"
	"github.com/aretw0/relay/pkg/workflows"
)

// Runner is the part of session.Manager the server needs.
type Runner interface {
	Run(ctx context.Context, system, task string) (session.Result, error)
	History(ctx context.Context, limit int) ([]ports.RunRecord, error)
	Lookup(ctx context.Context, id string) (ports.RunRecord, error)
	Graph(system string) (*graph.Graph, error)
}

// RunArgs are the arguments of run_pipeline.
type RunArgs struct {
	System string `json:"system"`
	Task   string `json:"task"`
}

// RunResponse aligns with the HTTP API's RunResponse.
type RunResponse struct {
	Record   ports.RunRecord `json:"record" jsonschema_description:"The stored run record"`
	Markdown string          `json:"markdown" jsonschema_description:"The report rendered as Markdown"`
	Degraded bool            `json:"degraded" jsonschema_description:"Whether a stage absorbed a failure"`
}

// GraphArgs are the arguments of get_graph.
type GraphArgs struct {
	System string `json:"system"`
	Format string `json:"format"`
}

// ListArgs are the arguments of list_runs.
type ListArgs struct {
	Limit int `json:"limit"`
}

// Server wraps a Runner and exposes it as an MCP Server.
type Server struct {
	runner    Runner
	mcpServer *server.MCPServer
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger used by the SSE transport.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRunTimeout bounds each run_pipeline call.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(runner Runner, opts ...Option) *Server {
	s := &Server{
		runner:    runner,
		mcpServer: server.NewMCPServer("relay-mcp", strings.TrimSpace(relay.Version)),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// SSEHandler routes the SSE transport endpoints for a server reachable at baseURL.
func (s *Server) SSEHandler(baseURL string) http.Handler {
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Access-Control-Allow-Origin", "*"))
	r.Use(middleware.SetHeader("Access-Control-Allow-Methods", "GET, POST, OPTIONS"))
	r.Use(middleware.SetHeader("Access-Control-Allow-Headers", "Content-Type, Authorization"))
	r.Options("/*", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/sse", sse.SSEHandler())
	r.Handle("/message", sse.MessageHandler())
	return r
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.SSEHandler(baseURL),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		s.logger.Info("MCP SSE transport listening", "addr", addr, "base_url", baseURL)
		done <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("stopping MCP SSE transport: %w", err)
	}
	s.logger.Info("MCP SSE transport stopped")
	return nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("run_pipeline",
		mcp.WithDescription("Run an agent system for a task and return its report."),
		mcp.WithString("task", mcp.Required(), mcp.Description("What the agents should research or answer")),
		mcp.WithString("system", mcp.Description("multi (research pipeline, default) or single (one assistant)"),
			mcp.Enum(workflows.Multi, workflows.Single)),
		mcp.WithOutputSchema[RunResponse](),
	), mcp.NewStructuredToolHandler(s.handleRun))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Describe the stages and routing edges of a system."),
		mcp.WithString("system", mcp.Enum(workflows.Multi, workflows.Single)),
		mcp.WithString("format", mcp.Description("json (default) or mermaid"), mcp.Enum("json", "mermaid")),
	), s.handleGraph)

	s.mcpServer.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List recent runs, most recent first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs (default 10)")),
	), mcp.NewStructuredToolHandler(s.handleList))
}

func (s *Server) handleRun(ctx context.Context, _ mcp.CallToolRequest, args RunArgs) (RunResponse, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	res, err := s.runner.Run(ctx, args.System, args.Task)
	if err != nil {
		return RunResponse{}, err
	}
	return RunResponse{
		Record:   res.Record,
		Markdown: res.Report.Markdown(),
		Degraded: res.Report.Degraded,
	}, nil
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, err := s.runner.Graph(request.GetString("system", workflows.Multi))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if request.GetString("format", "json") == "mermaid" {
		return mcp.NewToolResultText(presentation.GenerateMermaid(g.Describe(), nil)), nil
	}
	jsonBytes, err := json.Marshal(g.Describe())
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

type runList struct {
	Runs []ports.RunRecord `json:"runs"`
}

func (s *Server) handleList(ctx context.Context, _ mcp.CallToolRequest, args ListArgs) (runList, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = 10
	}
	runs, err := s.runner.History(ctx, limit)
	if err != nil {
		return runList{}, err
	}
	if runs == nil {
		runs = []ports.RunRecord{}
	}
	return runList{Runs: runs}, nil
}

func (s *Server) registerResources() {
	for _, system := range []string{workflows.Multi, workflows.Single} {
		uri := "relay://graph/" + system
		s.mcpServer.AddResource(mcp.NewResource(uri, "Graph of the "+system+" system",
			mcp.WithMIMEType("application/json"),
		), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			g, err := s.runner.Graph(system)
			if err != nil {
				return nil, fmt.Errorf("failed to describe graph: %w", err)
			}
			jsonBytes, err := json.Marshal(g.Describe())
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{URI: uri, MIMEType: "application/json", Text: string(jsonBytes)},
			}, nil
		})
	}

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate("relay://runs/{id}", "Run record",
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := strings.TrimPrefix(request.Params.URI, "relay://runs/")
		rec, err := s.runner.Lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		jsonBytes, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: request.Params.URI, MIMEType: "application/json", Text: string(jsonBytes)},
		}, nil
	})
}
