package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/trak/internal/config"
	"github.com/hpungsan/trak/internal/errors"
	"github.com/hpungsan/trak/internal/ops"
	"github.com/hpungsan/trak/internal/project"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db      *sql.DB
	cfg     *config.Config
	baseDir string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, baseDir string) *Handlers {
	return &Handlers{db: db, cfg: cfg, baseDir: baseDir}
}

// Request types for each tool

// CreateRequest represents the arguments for project_create.
type CreateRequest struct {
	Name        string               `json:"name"`
	Summary     string               `json:"summary,omitempty"`
	Notes       string               `json:"notes,omitempty"`
	Status      string               `json:"status,omitempty"`
	Tags        []string             `json:"tags,omitempty"`
	Assignments []project.Assignment `json:"assignments,omitempty"`
	StartedAt   *int64               `json:"started_at,omitempty"`
	DueAt       *int64               `json:"due_at,omitempty"`
}

// GetRequest represents the arguments for project_get.
type GetRequest struct {
	ID             string `json:"id"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// UpdateRequest represents the arguments for project_update.
type UpdateRequest struct {
	ID          string                `json:"id"`
	Name        *string               `json:"name,omitempty"`
	Summary     *string               `json:"summary,omitempty"`
	Notes       *string               `json:"notes,omitempty"`
	Status      *string               `json:"status,omitempty"`
	Tags        *[]string             `json:"tags,omitempty"`
	Assignments *[]project.Assignment `json:"assignments,omitempty"`
	StartedAt   *int64                `json:"started_at,omitempty"`
	DueAt       *int64                `json:"due_at,omitempty"`
}

// DeleteRequest represents the arguments for project_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// ListRequest represents the arguments for project_list.
type ListRequest struct {
	Status         string `json:"status,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// ExportRequest represents the arguments for project_export.
type ExportRequest struct {
	ID       string `json:"id"`
	Filename string `json:"filename,omitempty"`
}

// Handler implementations

// HandleCreate handles the project_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Create(ctx, h.db, h.cfg, ops.CreateInput{
		Name:        input.Name,
		Summary:     input.Summary,
		Notes:       input.Notes,
		Status:      input.Status,
		Tags:        input.Tags,
		Assignments: input.Assignments,
		StartedAt:   input.StartedAt,
		DueAt:       input.DueAt,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleGet handles the project_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	p, err := ops.Get(h.db, h.cfg, ops.GetInput{
		ID:             input.ID,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(ops.ViewOf(p))
}

// HandleUpdate handles the project_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Update(ctx, h.db, h.cfg, ops.UpdateInput{
		ID:          input.ID,
		Name:        input.Name,
		Summary:     input.Summary,
		Notes:       input.Notes,
		Status:      input.Status,
		Tags:        input.Tags,
		Assignments: input.Assignments,
		StartedAt:   input.StartedAt,
		DueAt:       input.DueAt,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the project_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(ctx, h.db, h.cfg, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the project_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(h.db, ops.ListInput{
		Status:         input.Status,
		Limit:          input.Limit,
		Offset:         input.Offset,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the project_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(h.db, h.baseDir, ops.ExportInput{
		ID:       input.ID,
		Filename: input.Filename,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// errorResult creates an MCP error result from any error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if trakErr, ok := err.(*errors.TrakError); ok {
		errorObj := map[string]any{
			"code":    trakErr.Code,
			"message": trakErr.Message,
			"status":  trakErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if trakErr.Code != errors.ErrInternal && trakErr.Details != nil {
			errorObj["details"] = trakErr.Details
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
