package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/branchwise/internal/runtime"
	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/aretw0/branchwise/pkg/layout"
	"github.com/aretw0/branchwise/pkg/summary"
	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mitchellh/mapstructure"
)

// NodeView is a compact description of the node awaiting an answer.
type NodeView struct {
	ID       string          `json:"id" jsonschema_description:"Node id to pass back to record_decision or continue"`
	Type     domain.NodeType `json:"type" jsonschema_description:"decision or info"`
	Phase    int             `json:"phase"`
	Question string          `json:"question,omitempty"`
	Title    string          `json:"title,omitempty"`
	Options  []string        `json:"options,omitempty" jsonschema_description:"Valid choice labels, in order"`
	HasNext  bool            `json:"hasNext,omitempty"`
}

// MenuView lists the options of the active menu phase.
type MenuView struct {
	Phase    int             `json:"phase"`
	Options  []string        `json:"options"`
	Answers  map[string]bool `json:"answers"`
	Complete bool            `json:"complete" jsonschema_description:"True when continue_menu is allowed"`
}

// SessionResponse is the unified tool result.
type SessionResponse struct {
	SessionID   string            `json:"sessionId"`
	Stage       runtime.Stage     `json:"stage" jsonschema_description:"tree, menu or complete"`
	CurrentNode *NodeView         `json:"currentNode,omitempty"`
	Menu        *MenuView         `json:"menu,omitempty"`
	State       *domain.FlowState `json:"state"`
}

type sessionArgs struct {
	SessionID string `mapstructure:"session_id" validate:"required"`
}

type decisionArgs struct {
	SessionID string `mapstructure:"session_id" validate:"required"`
	NodeID    string `mapstructure:"node_id" validate:"required"`
	Choice    string `mapstructure:"choice" validate:"required"`
}

type continueArgs struct {
	SessionID string `mapstructure:"session_id" validate:"required"`
	NodeID    string `mapstructure:"node_id" validate:"required"`
}

type menuArgs struct {
	SessionID string `mapstructure:"session_id" validate:"required"`
	OptionID  string `mapstructure:"option_id" validate:"required"`
	Value     *bool  `mapstructure:"value" validate:"required"`
}

type rowsArgs struct {
	SessionID string `mapstructure:"session_id" validate:"required"`
	Phase     int    `mapstructure:"phase"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// bind decodes loosely typed tool arguments into dst and checks required fields.
func bind(args map[string]interface{}, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func newSessionResponse(e *runtime.Engine) SessionResponse {
	resp := SessionResponse{
		SessionID: e.SessionID(),
		Stage:     e.Stage(),
		State:     e.State(),
	}
	if node, ok := e.CurrentNode(); ok {
		resp.CurrentNode = &NodeView{
			ID:       node.ID,
			Type:     node.Type,
			Phase:    node.Phase,
			Question: node.Question,
			Title:    node.Title,
			Options:  node.Labels(),
			HasNext:  node.NextID() != "",
		}
	}
	if phase, ok := e.ActivePhase(); ok && phase.IsMenu() {
		menu := &MenuView{
			Phase:    phase.ID,
			Answers:  resp.State.MenuSelections,
			Complete: e.MenuComplete(),
		}
		for _, opt := range phase.Options {
			menu.Options = append(menu.Options, opt.ID)
		}
		resp.Menu = menu
	}
	return resp
}

func (s *Server) registerTools() {
	sessionID := mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id returned by create_session"))

	s.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Start a new questionnaire session at the first phase."),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleCreateSession))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Show where a session stands and what it is waiting for."),
		sessionID,
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetSession))

	s.mcpServer.AddTool(mcp.NewTool("record_decision",
		mcp.WithDescription("Answer a decision node. Answering an earlier node with a different label revises the flow from there."),
		sessionID,
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Decision node id")),
		mcp.WithString("choice", mcp.Required(), mcp.Description("One of the node's option labels")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleRecordDecision))

	s.mcpServer.AddTool(mcp.NewTool("continue",
		mcp.WithDescription(`Acknowledge the current info node. Pass "`+runtime.ContinueAction+`" to leave a fully answered menu.`),
		sessionID,
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Info node id")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleContinue))

	s.mcpServer.AddTool(mcp.NewTool("set_menu_selection",
		mcp.WithDescription("Answer one yes/no option of the active menu phase."),
		sessionID,
		mcp.WithString("option_id", mcp.Required(), mcp.Description("Menu option id")),
		mcp.WithBoolean("value", mcp.Required(), mcp.Description("The answer")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleSetMenuSelection))

	s.mcpServer.AddTool(mcp.NewTool("continue_menu",
		mcp.WithDescription("Leave the active menu phase once every option is answered."),
		sessionID,
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleContinueMenu))

	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Drop every answer and start over."),
		sessionID,
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleReset))

	s.mcpServer.AddTool(mcp.NewTool("get_rows",
		mcp.WithDescription("Row layout of a tree phase, as JSON."),
		sessionID,
		mcp.WithNumber("phase", mcp.Description("Phase id (defaults to the current phase)")),
	), s.handleGetRows)

	s.mcpServer.AddTool(mcp.NewTool("get_summary",
		mcp.WithDescription("Answered decisions ordered by phase, plus the recommendation."),
		sessionID,
	), s.handleGetSummary)

	s.mcpServer.AddTool(mcp.NewTool("export_report",
		mcp.WithDescription("Plain text report of every answer."),
		sessionID,
	), s.handleExportReport)
}

func (s *Server) apply(ctx context.Context, id string, fn func(*runtime.Engine) error) (SessionResponse, error) {
	change, err := s.sessions.Apply(ctx, id, fn)
	if err != nil {
		return SessionResponse{}, err
	}
	engine, err := runtime.Restore(s.sessions.Tree(), change.After, runtime.WithSessionID(id))
	if err != nil {
		return SessionResponse{}, err
	}
	return newSessionResponse(engine), nil
}

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	state, err := s.sessions.Create(ctx)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("create failed: %w", err)
	}
	engine, err := runtime.Restore(s.sessions.Tree(), state)
	if err != nil {
		return SessionResponse{}, err
	}
	return newSessionResponse(engine), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	var in sessionArgs
	if err := bind(args, &in); err != nil {
		return SessionResponse{}, err
	}
	engine, err := s.sessions.Engine(ctx, in.SessionID)
	if err != nil {
		return SessionResponse{}, err
	}
	return newSessionResponse(engine), nil
}

func (s *Server) handleRecordDecision(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	var in decisionArgs
	if err := bind(args, &in); err != nil {
		return SessionResponse{}, err
	}
	return s.apply(ctx, in.SessionID, func(e *runtime.Engine) error {
		return e.RecordDecision(in.NodeID, in.Choice)
	})
}

func (s *Server) handleContinue(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	var in continueArgs
	if err := bind(args, &in); err != nil {
		return SessionResponse{}, err
	}
	return s.apply(ctx, in.SessionID, func(e *runtime.Engine) error {
		return e.Continue(in.NodeID)
	})
}

func (s *Server) handleSetMenuSelection(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	var in menuArgs
	if err := bind(args, &in); err != nil {
		return SessionResponse{}, err
	}
	return s.apply(ctx, in.SessionID, func(e *runtime.Engine) error {
		return e.SetMenuSelection(in.OptionID, *in.Value)
	})
}

func (s *Server) handleContinueMenu(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	var in sessionArgs
	if err := bind(args, &in); err != nil {
		return SessionResponse{}, err
	}
	return s.apply(ctx, in.SessionID, func(e *runtime.Engine) error {
		return e.ContinueMenu()
	})
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	var in sessionArgs
	if err := bind(args, &in); err != nil {
		return SessionResponse{}, err
	}
	return s.apply(ctx, in.SessionID, func(e *runtime.Engine) error {
		return e.Reset()
	})
}

func (s *Server) handleGetRows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in rowsArgs
	if err := bind(request.GetArguments(), &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	engine, err := s.sessions.Engine(ctx, in.SessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tree, state := engine.Tree(), engine.State()
	phaseID := in.Phase
	if phaseID == 0 {
		phaseID = min(state.CurrentPhase, tree.PhaseCount())
	}
	if phase, ok := tree.Phase(phaseID); !ok || !phase.IsTree() {
		return mcp.NewToolResultError(fmt.Sprintf("no tree phase %d", phaseID)), nil
	}
	rows := layout.BuildRows(tree, state, phaseID)
	data, err := json.Marshal(map[string]any{
		"phase":    phaseID,
		"rows":     rows,
		"terminal": layout.Terminal(rows),
	})
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleGetSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in sessionArgs
	if err := bind(request.GetArguments(), &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	engine, err := s.sessions.Engine(ctx, in.SessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items := summary.Project(engine.Tree(), engine.State())
	data, err := json.Marshal(map[string]any{
		"items":          items,
		"recommendation": summary.Recommend(items),
	})
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleExportReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in sessionArgs
	if err := bind(request.GetArguments(), &in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	engine, err := s.sessions.Engine(ctx, in.SessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(summary.Report(engine.Tree(), engine.State(), s.now())), nil
}
