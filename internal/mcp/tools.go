package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var createToolDef = mcp.NewTool("project_create",
	mcp.WithDescription("Create a new project. Returns the generated id."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Project name (required, at most 200 characters)"),
	),
	mcp.WithString("summary",
		mcp.Description("One-line summary"),
	),
	mcp.WithString("notes",
		mcp.Description("Free-form notes in Markdown"),
	),
	mcp.WithString("status",
		mcp.Description("Project status"),
		mcp.Enum("active", "paused", "done"),
	),
	mcp.WithArray("tags",
		mcp.Description("Tags for grouping and filtering"),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithArray("assignments",
		mcp.Description("Resource assignments, each {resource, role}"),
		mcp.Items(map[string]any{"type": "object"}),
	),
	mcp.WithNumber("started_at",
		mcp.Description("Start date as a Unix timestamp (seconds)"),
	),
	mcp.WithNumber("due_at",
		mcp.Description("Due date as a Unix timestamp (seconds)"),
	),
)

var getToolDef = mcp.NewTool("project_get",
	mcp.WithDescription("Fetch a single project by id."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Project id"),
	),
	mcp.WithBoolean("include_deleted",
		mcp.Description("Also match soft-deleted projects"),
	),
)

var updateToolDef = mcp.NewTool("project_update",
	mcp.WithDescription("Update fields of an existing project. Omitted fields are left unchanged; at least one field is required."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Project id"),
	),
	mcp.WithString("name",
		mcp.Description("New project name"),
	),
	mcp.WithString("summary",
		mcp.Description("New one-line summary"),
	),
	mcp.WithString("notes",
		mcp.Description("New notes (replaces existing notes)"),
	),
	mcp.WithString("status",
		mcp.Description("New status"),
		mcp.Enum("active", "paused", "done"),
	),
	mcp.WithArray("tags",
		mcp.Description("New tag list (replaces existing tags)"),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithArray("assignments",
		mcp.Description("New assignment list (replaces existing assignments)"),
		mcp.Items(map[string]any{"type": "object"}),
	),
	mcp.WithNumber("started_at",
		mcp.Description("New start date as a Unix timestamp (seconds)"),
	),
	mcp.WithNumber("due_at",
		mcp.Description("New due date as a Unix timestamp (seconds)"),
	),
)

var deleteToolDef = mcp.NewTool("project_delete",
	mcp.WithDescription("Soft-delete a project by id."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Project id"),
	),
)

var listToolDef = mcp.NewTool("project_list",
	mcp.WithDescription("List projects as summaries, most recently updated first."),
	mcp.WithString("status",
		mcp.Description("Filter by status"),
		mcp.Enum("active", "paused", "done"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum items to return (default 20, max 100)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Items to skip for pagination"),
	),
	mcp.WithBoolean("include_deleted",
		mcp.Description("Include soft-deleted projects"),
	),
)

var exportToolDef = mcp.NewTool("project_export",
	mcp.WithDescription("Render a project to a standalone HTML file under the exports directory."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Project id"),
	),
	mcp.WithString("filename",
		mcp.Description("Output filename; must end in .html and contain no path separators"),
	),
)
