package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/openrelief/surveyflow/internal/logging"
	"github.com/openrelief/surveyflow/internal/presentation/graph"
	"github.com/openrelief/surveyflow/internal/runtime"
	"github.com/openrelief/surveyflow/pkg/domain"
	"github.com/openrelief/surveyflow/pkg/session"
)

const (
	definitionURI = "surveyflow://definition"
	graphURI      = "surveyflow://graph"
)

// SessionResponse is the structured result of the session tools.
type SessionResponse struct {
	State    *domain.State `json:"state" jsonschema_description:"The session state: history, answers and status"`
	Form     *domain.Form  `json:"form,omitempty" jsonschema_description:"The current form with its questions and options"`
	Terminal bool          `json:"terminal" jsonschema_description:"Indicates the current form ends the survey"`
}

// AdvanceResponse is the structured result of the advance tool.
type AdvanceResponse struct {
	Step runtime.Step `json:"step" jsonschema_description:"What advance did: moved, blocked, no_route or terminal"`
	SessionResponse
}

// RetreatResponse is the structured result of the retreat tool.
type RetreatResponse struct {
	Moved bool `json:"moved" jsonschema_description:"False when the session was already at the entry form"`
	SessionResponse
}

// ResourcesResponse is the structured result of the get_resources tool.
type ResourcesResponse struct {
	Tags   []string       `json:"tags" jsonschema_description:"Tags derived from the answers, in answer order"`
	Groups []domain.Group `json:"groups" jsonschema_description:"Matching resources grouped by category"`
}

// Engine is the part of the survey facade the MCP server needs.
type Engine interface {
	Definition() *domain.Definition
	Resources(ctx context.Context, answers []domain.Answer) ([]domain.Group, error)
}

// Server exposes survey sessions as MCP tools.
type Server struct {
	engine    Engine
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, sessions *session.Manager, version string, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		sessions:  sessions,
		mcpServer: server.NewMCPServer("surveyflow-mcp", version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a survey session at the entry form. Returns the first form to present."),
		mcp.WithString("session_id", mcp.Description("Session ID to use (optional, generated when omitted)")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleStartSession))

	s.mcpServer.AddTool(mcp.NewTool("answer",
		mcp.WithDescription("Record the answer to one question. Answering never moves the session; call advance afterwards."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("question_id", mcp.Required(), mcp.Description("Question ID from the current form")),
		mcp.WithString("value", mcp.Required(), mcp.Description(`Option ID, or a JSON array of option IDs for multi-choice questions (e.g. ["a","b"])`)),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleAnswer))

	s.mcpServer.AddTool(mcp.NewTool("advance",
		mcp.WithDescription("Move to the next form. Missing required answers block the move and are listed in step.errors."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[AdvanceResponse](),
	), mcp.NewStructuredToolHandler(s.handleAdvance))

	s.mcpServer.AddTool(mcp.NewTool("retreat",
		mcp.WithDescription("Go back to the previous form. Answers are kept."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[RetreatResponse](),
	), mcp.NewStructuredToolHandler(s.handleRetreat))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the current state and form of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetSession))

	s.mcpServer.AddTool(mcp.NewTool("get_resources",
		mcp.WithDescription("Get the resources matching the session's answers, grouped by category."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[ResourcesResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetResources))

	s.mcpServer.AddTool(mcp.NewTool("get_definition",
		mcp.WithDescription("Get the full survey definition: forms, questions, options and transitions."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.engine.Definition())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleStartSession(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	sessionID, _ := args["session_id"].(string)
	state, err := s.sessions.Create(ctx, sessionID)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return s.view(state), nil
}

func (s *Server) handleAnswer(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	sessionID, _ := args["session_id"].(string)
	questionID, _ := args["question_id"].(string)
	raw, _ := args["value"].(string)

	q, ok := s.engine.Definition().Question(questionID)
	if !ok {
		return SessionResponse{}, fmt.Errorf("answer for %q: %w", questionID, domain.ErrUnknownQuestion)
	}
	value, err := parseValue(q, raw)
	if err != nil {
		return SessionResponse{}, err
	}

	state, err := s.sessions.Answer(ctx, sessionID, domain.Answer{QuestionID: questionID, Value: value})
	if err != nil {
		s.logger.Warn("MCP answer rejected", "session_id", sessionID, "question_id", questionID, "err", err)
		return SessionResponse{}, fmt.Errorf("answer rejected: %w", err)
	}
	return s.view(state), nil
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (AdvanceResponse, error) {
	sessionID, _ := args["session_id"].(string)
	step, state, err := s.sessions.Advance(ctx, sessionID)
	if err != nil {
		return AdvanceResponse{}, fmt.Errorf("advance failed: %w", err)
	}
	return AdvanceResponse{Step: step, SessionResponse: s.view(state)}, nil
}

func (s *Server) handleRetreat(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RetreatResponse, error) {
	sessionID, _ := args["session_id"].(string)
	moved, state, err := s.sessions.Retreat(ctx, sessionID)
	if err != nil {
		return RetreatResponse{}, fmt.Errorf("retreat failed: %w", err)
	}
	return RetreatResponse{Moved: moved, SessionResponse: s.view(state)}, nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	sessionID, _ := args["session_id"].(string)
	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return SessionResponse{}, err
	}
	return s.view(state), nil
}

func (s *Server) handleGetResources(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ResourcesResponse, error) {
	sessionID, _ := args["session_id"].(string)
	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return ResourcesResponse{}, err
	}
	tags, err := s.sessions.Tags(ctx, sessionID)
	if err != nil {
		return ResourcesResponse{}, err
	}

	groups, err := s.engine.Resources(ctx, state.Answers.All())
	if err != nil {
		return ResourcesResponse{}, fmt.Errorf("resource lookup failed: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	return ResourcesResponse{Tags: tags, Groups: groups}, nil
}

func (s *Server) view(state *domain.State) SessionResponse {
	resp := SessionResponse{State: state}
	if f, ok := s.engine.Definition().Form(state.CurrentFormID()); ok {
		resp.Form = f
		resp.Terminal = f.Terminal()
	}
	return resp
}

// parseValue reads a tool argument as an option id or a JSON array of option ids,
// shaped to the question kind.
func parseValue(q *domain.Question, raw string) (domain.Value, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "[") {
		var ids []string
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			return domain.Value{}, fmt.Errorf("invalid value for question %s: %w", q.ID, err)
		}
		if q.Kind == domain.KindSingle && len(ids) == 1 {
			return domain.One(ids[0]), nil
		}
		return domain.Many(ids...), nil
	}
	if q.Kind == domain.KindMulti {
		if raw == "" {
			return domain.Many(), nil
		}
		return domain.Many(raw), nil
	}
	return domain.One(raw), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(definitionURI, "Survey Definition",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Definition())
		if err != nil {
			return nil, fmt.Errorf("failed to encode definition: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      definitionURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Survey Graph (Mermaid)",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      graphURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(s.engine.Definition(), nil),
			},
		}, nil
	})
}
