package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/parley/internal/errors"
	"github.com/hpungsan/parley/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	session *ops.Session
	db      *sql.DB
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(session *ops.Session, db *sql.DB) *Handlers {
	return &Handlers{session: session, db: db}
}

// SendRequest represents the arguments for message_send.
type SendRequest struct {
	Text string `json:"text"`
}

// IDRequest represents the arguments for tools addressing one message.
type IDRequest struct {
	ID string `json:"id"`
}

// TranslateRequest represents the arguments for message_translate.
type TranslateRequest struct {
	ID      string   `json:"id"`
	Target  string   `json:"target,omitempty"`
	Targets []string `json:"targets,omitempty"`
}

// JournalListRequest represents the arguments for journal_list.
type JournalListRequest struct {
	Operation string `json:"operation,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// HandleProbe handles the capability_probe tool call.
func (h *Handlers) HandleProbe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.session.Availability())
}

// HandleSend handles the message_send tool call.
func (h *Handlers) HandleSend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SendRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.session.Send(ctx, ops.SendInput{Text: input.Text})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSummarize handles the message_summarize tool call.
func (h *Handlers) HandleSummarize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	result, err := h.session.Summarize(ctx, ops.SummarizeInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleTranslate handles the message_translate tool call.
func (h *Handlers) HandleTranslate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TranslateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	hasTarget := input.Target != ""
	hasTargets := len(input.Targets) > 0
	switch {
	case hasTarget && hasTargets:
		return errorResult(errors.NewInvalidRequest("specify target or targets, not both")), nil
	case !hasTarget && !hasTargets:
		return errorResult(errors.NewInvalidRequest("target or targets is required")), nil
	case hasTargets:
		result, err := h.session.TranslateMany(ctx, input.ID, input.Targets)
		if err != nil && result == nil {
			return errorResult(err), nil
		}
		// Partial failures are reported per target in result.Errors.
		return successResult(result)
	}

	result, err := h.session.Translate(ctx, ops.TranslateInput{ID: input.ID, Target: input.Target})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the message_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.session.Fetch(ops.FetchInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the conversation_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.session.List())
}

// HandleDismiss handles the error_dismiss tool call.
func (h *Handlers) HandleDismiss(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.session.DismissError()
	return successResult(map[string]any{"dismissed": true})
}

// HandleJournalList handles the journal_list tool call.
func (h *Handlers) HandleJournalList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.db == nil {
		return errorResult(errors.NewInvalidRequest("call journal is disabled")), nil
	}

	input, err := decode[JournalListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.JournalList(ctx, h.db, ops.JournalListInput{
		Operation: input.Operation,
		Limit:     input.Limit,
		Offset:    input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var pErr *errors.ParleyError
	if stderrors.As(err, &pErr) {
		errorObj := map[string]any{
			"code":    pErr.Code,
			"message": pErr.Message,
			"status":  pErr.Status,
		}
		if pErr.Code != errors.ErrInternal && pErr.Details != nil {
			errorObj["details"] = pErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
