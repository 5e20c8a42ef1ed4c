package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/bardic/internal/dto"
	"github.com/aretw0/bardic/internal/logging"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Sessions is the part of session.Manager the MCP server drives.
type Sessions interface {
	Stories(ctx context.Context) ([]string, error)
	Start(ctx context.Context, storyID string) (string, *domain.Output, error)
	Resume(ctx context.Context, storyID, saveID string) (string, *domain.Output, error)
	Current(ctx context.Context, sessionID string) (*domain.Output, error)
	Choose(ctx context.Context, sessionID string, index int) (*domain.Output, error)
	SubmitInputs(ctx context.Context, sessionID string, inputs map[string]string) error
	Save(ctx context.Context, sessionID, saveName string) (string, error)
	End(ctx context.Context, sessionID string) error
}

// StartArgs opens a session, optionally from a save.
type StartArgs struct {
	StoryID string `json:"story_id"`
	SaveID  string `json:"save_id,omitempty"`
}

// SessionArgs addresses an open session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// ChooseArgs picks a choice by its zero-based index.
type ChooseArgs struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
}

// InputArgs submits input values by name.
type InputArgs struct {
	SessionID string            `json:"session_id"`
	Values    map[string]string `json:"values"`
}

// SaveArgs stores a session under a display name.
type SaveArgs struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name,omitempty"`
}

// SaveResult reports the ID a save was stored under.
type SaveResult struct {
	SaveID string `json:"save_id"`
}

// Server exposes story sessions as MCP tools.
type Server struct {
	sessions  Sessions
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger for tool calls.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates an MCP server named "bardic" at version.
func NewServer(sessions Sessions, version string, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("bardic", strings.TrimSpace(version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server for custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves requests on stdin and stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_stories",
		mcp.WithDescription("List the IDs of the stories that can be started."),
	), s.handleListStories)

	s.mcpServer.AddTool(mcp.NewTool("start_story",
		mcp.WithDescription("Start a story session and render its first passage. Pass save_id to resume a save."),
		mcp.WithString("story_id", mcp.Required(), mcp.Description("Story to play")),
		mcp.WithString("save_id", mcp.Description("Save to resume from (optional)")),
		mcp.WithOutputSchema[dto.Passage](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("current_passage",
		mcp.WithDescription("Render the session's current passage again."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Open session")),
		mcp.WithOutputSchema[dto.Passage](),
	), mcp.NewStructuredToolHandler(s.handleCurrent))

	s.mcpServer.AddTool(mcp.NewTool("choose",
		mcp.WithDescription("Pick one of the listed choices and render where it leads."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Open session")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based choice index")),
		mcp.WithOutputSchema[dto.Passage](),
	), mcp.NewStructuredToolHandler(s.handleChoose))

	s.mcpServer.AddTool(mcp.NewTool("submit_inputs",
		mcp.WithDescription("Answer the input fields the current passage asks for."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Open session")),
		mcp.WithObject("values", mcp.Required(), mcp.Description("Input values keyed by field name")),
	), mcp.NewStructuredToolHandler(s.handleInputs))

	s.mcpServer.AddTool(mcp.NewTool("save_game",
		mcp.WithDescription("Save the session to the configured store."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Open session")),
		mcp.WithString("name", mcp.Description("Display name for the save")),
		mcp.WithOutputSchema[SaveResult](),
	), mcp.NewStructuredToolHandler(s.handleSave))

	s.mcpServer.AddTool(mcp.NewTool("end_session",
		mcp.WithDescription("Close a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Open session")),
	), mcp.NewStructuredToolHandler(s.handleEnd))
}

func (s *Server) handleListStories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.sessions.Stories(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list stories: %v", err)), nil
	}
	if len(ids) == 0 {
		return mcp.NewToolResultText("No stories."), nil
	}
	return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args StartArgs) (dto.Passage, error) {
	if args.StoryID == "" {
		return dto.Passage{}, fmt.Errorf("story_id is required")
	}
	var (
		id  string
		out *domain.Output
		err error
	)
	if args.SaveID != "" {
		id, out, err = s.sessions.Resume(ctx, args.StoryID, args.SaveID)
	} else {
		id, out, err = s.sessions.Start(ctx, args.StoryID)
	}
	if err != nil {
		s.logger.Warn("mcp start failed", "story_id", args.StoryID, "err", err)
		return dto.Passage{}, err
	}
	p := dto.FromOutput(out)
	p.SessionID = id
	return p, nil
}

func (s *Server) handleCurrent(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (dto.Passage, error) {
	out, err := s.sessions.Current(ctx, args.SessionID)
	return s.passage(args.SessionID, out, err)
}

func (s *Server) handleChoose(ctx context.Context, request mcp.CallToolRequest, args ChooseArgs) (dto.Passage, error) {
	out, err := s.sessions.Choose(ctx, args.SessionID, args.Index)
	return s.passage(args.SessionID, out, err)
}

func (s *Server) handleInputs(ctx context.Context, request mcp.CallToolRequest, args InputArgs) (map[string]any, error) {
	if err := s.sessions.SubmitInputs(ctx, args.SessionID, args.Values); err != nil {
		s.logger.Warn("mcp inputs rejected", "session_id", args.SessionID, "err", err)
		return nil, err
	}
	return map[string]any{"accepted": len(args.Values)}, nil
}

func (s *Server) handleSave(ctx context.Context, request mcp.CallToolRequest, args SaveArgs) (SaveResult, error) {
	id, err := s.sessions.Save(ctx, args.SessionID, args.Name)
	if err != nil {
		return SaveResult{}, err
	}
	return SaveResult{SaveID: id}, nil
}

func (s *Server) handleEnd(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (map[string]any, error) {
	if err := s.sessions.End(ctx, args.SessionID); err != nil {
		return nil, err
	}
	return map[string]any{"ended": args.SessionID}, nil
}

func (s *Server) passage(sessionID string, out *domain.Output, err error) (dto.Passage, error) {
	if err != nil {
		s.logger.Warn("mcp call failed", "session_id", sessionID, "err", err)
		return dto.Passage{}, err
	}
	p := dto.FromOutput(out)
	p.SessionID = sessionID
	return p, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("bardic://stories", "Available stories",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.sessions.Stories(ctx)
		if err != nil {
			return nil, fmt.Errorf("list stories: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "bardic://stories",
				MIMEType: "text/plain",
				Text:     strings.Join(ids, "\n"),
			},
		}, nil
	})
}
