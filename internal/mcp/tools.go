package mcp

import (
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

type listProjectsArgs struct {
	Filter string `json:"filter,omitempty" jsonschema:"all, active or archived (default all)"`
	Search string `json:"search,omitempty" jsonschema:"case-insensitive match on name or category"`
	Sort   string `json:"sort,omitempty" jsonschema:"date (newest first) or name"`
}

type categoryArgs struct {
	Project  string `json:"project" jsonschema:"project id, remote id or name"`
	Category string `json:"category,omitempty" jsonschema:"category key such as email or meta-ads; defaults to the first category of the project"`
}

type exportArgs struct {
	Project  string `json:"project" jsonschema:"project id, remote id or name"`
	Format   string `json:"format" jsonschema:"xlsx, csv, png, txt, html or md"`
	Category string `json:"category,omitempty" jsonschema:"export a single category instead of every category of the project"`
}

type historyArgs struct {
	Category string `json:"category,omitempty" jsonschema:"only entries of this category"`
	Limit    int    `json:"limit,omitempty" jsonschema:"newest entries to return (default 20)"`
}

type noArgs struct{}

func (s *Server) registerTools(server *sdk.Server) {
	sdk.AddTool(server, &sdk.Tool{
		Name:        "list_projects",
		Description: "List the registered analytics projects (spreadsheet plus marketing categories).",
	}, tool("list_projects", s.handleListProjects))

	sdk.AddTool(server, &sdk.Tool{
		Name: "load_category",
		Description: "Load one marketing category of a project: KPI cards, normalized chart series " +
			"(with Mermaid renderings) and where the data came from (live, cache or mock).",
	}, tool("load_category", s.handleLoadCategory))

	sdk.AddTool(server, &sdk.Tool{
		Name:        "get_insights",
		Description: "Get the prioritized AI insights of a project category with a per-type summary.",
	}, tool("get_insights", s.handleGetInsights))

	sdk.AddTool(server, &sdk.Tool{
		Name:        "export_report",
		Description: "Export a project as Excel, CSV, PNG charts, a plain-text insight report, HTML or Markdown. Returns the written file paths.",
	}, tool("export_report", s.handleExportReport))

	sdk.AddTool(server, &sdk.Tool{
		Name:        "insight_history",
		Description: "Show the recorded history of insights shown per category load.",
	}, tool("insight_history", s.handleInsightHistory))

	sdk.AddTool(server, &sdk.Tool{
		Name:        "clear_cache",
		Description: "Drop every cached API response so the next load fetches fresh data.",
	}, tool("clear_cache", s.handleClearCache))
}
