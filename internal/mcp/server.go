// Package mcp implements the Model Context Protocol server for edgar-entities.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ajitpratap0/edgar-entities/internal/classifier"
	"github.com/ajitpratap0/edgar-entities/internal/models"
	"github.com/ajitpratap0/edgar-entities/internal/store"
)

const (
	// defaultFindLimit is the default number of records returned by find_records.
	defaultFindLimit = 20

	// maxFindLimit caps find_records pages.
	maxFindLimit = 200
)

// Classifier classifies a name with optional form types and explains the result.
type Classifier interface {
	Explain(name string, formTypes []string) classifier.Explanation
}

// Server wraps an MCPServer with edgar-entities dependencies.
type Server struct {
	mcp    *mcpserver.MCPServer
	st     store.Store
	cls    Classifier
	logger *slog.Logger
}

// NewServer creates a new MCP server. If st or cls are nil, the
// corresponding tool calls return an error response instead of panicking.
func NewServer(st store.Store, cls Classifier, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		st:     st,
		cls:    cls,
		logger: logger,
	}

	mcpSrv := mcpserver.NewMCPServer(
		"edgar-entities",
		version,
		mcpserver.WithToolCapabilities(true),
	)

	mcpSrv.AddTool(buildClassifyTool(), s.handleClassify)
	mcpSrv.AddTool(buildGetRecordTool(), s.handleGetRecord)
	mcpSrv.AddTool(buildFindRecordsTool(), s.handleFindRecords)
	mcpSrv.AddTool(buildStatsTool(), s.handleStats)

	s.mcp = mcpSrv
	return s
}

// MCPServer returns the underlying mcp-go MCPServer for use with ServeStdio.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// HandleClassify is the exported handler for the "classify_name" tool.
// It is exposed for direct testing without the mcp-go transport layer.
func (s *Server) HandleClassify(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleClassify(ctx, req)
}

// HandleGetRecord is the exported handler for the "get_record" tool.
func (s *Server) HandleGetRecord(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleGetRecord(ctx, req)
}

// HandleFindRecords is the exported handler for the "find_records" tool.
func (s *Server) HandleFindRecords(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleFindRecords(ctx, req)
}

// HandleStats is the exported handler for the "stats" tool.
func (s *Server) HandleStats(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleStats(ctx, req)
}

// --- helpers ---

// toolResultJSON marshals v to JSON and returns it as a tool text result.
func toolResultJSON(v any) (*mcpgo.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling result: %w", err)
	}
	return mcpgo.NewToolResultText(string(b)), nil
}

// splitList splits a comma-separated argument, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// --- tool definitions ---

func buildClassifyTool() mcpgo.Tool {
	return mcpgo.NewTool("classify_name",
		mcpgo.WithDescription("Classify an SEC filer display name as company, person or unclassified. Form types, when given, take precedence and may yield regulatory regime flags instead."),
		mcpgo.WithString("name",
			mcpgo.Required(),
			mcpgo.Description("The filer display name, e.g. \"Apple Inc\" or \"Zuckerberg Max\""),
		),
		mcpgo.WithString("form_types",
			mcpgo.Description("Comma-separated SEC form types observed for the filer, e.g. \"20-F,6-K\""),
		),
	)
}

func buildGetRecordTool() mcpgo.Tool {
	return mcpgo.NewTool("get_record",
		mcpgo.WithDescription("Get the canonical record for a filer identifier (CIK): original name, name variants, form history and classification."),
		mcpgo.WithString("identifier",
			mcpgo.Required(),
			mcpgo.Description("The filer identifier (CIK)"),
		),
	)
}

func buildFindRecordsTool() mcpgo.Tool {
	return mcpgo.NewTool("find_records",
		mcpgo.WithDescription("List canonical records ordered by identifier, optionally filtered."),
		mcpgo.WithString("kind",
			mcpgo.Description("Outcome kind: company, person, unclassified or regime"),
		),
		mcpgo.WithString("flag",
			mcpgo.Description("Regime flag, e.g. is_fpi"),
		),
		mcpgo.WithString("name",
			mcpgo.Description("Case-insensitive substring of the original name or a name variant"),
		),
		mcpgo.WithString("form_type",
			mcpgo.Description("Only records that filed this form type"),
		),
		mcpgo.WithNumber("limit",
			mcpgo.Description("Maximum number of records (default: 20, max: 200)"),
		),
		mcpgo.WithString("cursor",
			mcpgo.Description("Cursor returned by a previous call"),
		),
	)
}

func buildStatsTool() mcpgo.Tool {
	return mcpgo.NewTool("stats",
		mcpgo.WithDescription("Get outcome counts: companies, persons, unclassified, pending and per regime flag set."),
	)
}

// --- tool handlers ---

// handleClassify runs the dispatcher on a name and optional form types.
func (s *Server) handleClassify(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.cls == nil {
		return mcpgo.NewToolResultError("classifier is unavailable"), nil
	}

	name := req.GetString("name", "")
	if strings.TrimSpace(name) == "" {
		return mcpgo.NewToolResultError("name is required and must not be empty"), nil
	}
	forms := splitList(req.GetString("form_types", ""))

	ex := s.cls.Explain(name, forms)
	s.logger.Debug("mcp: classified name", "name", name, "outcome", ex.Classification.String())

	result := map[string]any{
		"classification": ex.Classification,
		"key":            ex.Classification.Key(),
		"source":         ex.Source,
		"phase":          ex.Phase,
		"rule":           ex.Rule,
	}
	return toolResultJSON(result)
}

// handleGetRecord returns one canonical record.
func (s *Server) handleGetRecord(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.st == nil {
		return mcpgo.NewToolResultError("store is unavailable"), nil
	}

	id := strings.TrimSpace(req.GetString("identifier", ""))
	if id == "" {
		return mcpgo.NewToolResultError("identifier is required and must not be empty"), nil
	}

	rec, err := s.st.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return mcpgo.NewToolResultErrorf("no record for identifier %q", id), nil
	}
	if err != nil {
		return mcpgo.NewToolResultErrorf("get failed: %s", err.Error()), nil
	}
	return toolResultJSON(rec)
}

// handleFindRecords lists records with optional filters.
func (s *Server) handleFindRecords(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.st == nil {
		return mcpgo.NewToolResultError("store is unavailable"), nil
	}

	filters, err := store.NewFilters(
		req.GetString("kind", ""),
		req.GetString("flag", ""),
		req.GetString("name", ""),
		req.GetString("form_type", ""),
	)
	if err != nil {
		return mcpgo.NewToolResultErrorf("%s: must be one of company, person, unclassified, regime", err.Error()), nil
	}

	limit := req.GetInt("limit", defaultFindLimit)
	if limit <= 0 {
		limit = defaultFindLimit
	}
	limit = min(limit, maxFindLimit)

	recs, next, err := s.st.List(ctx, filters, limit, req.GetString("cursor", ""))
	if err != nil {
		return mcpgo.NewToolResultErrorf("find failed: %s", err.Error()), nil
	}
	if recs == nil {
		recs = []models.Record{}
	}

	result := map[string]any{
		"records":     recs,
		"next_cursor": next,
	}
	return toolResultJSON(result)
}

// handleStats returns outcome counts.
func (s *Server) handleStats(ctx context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.st == nil {
		return mcpgo.NewToolResultError("store is unavailable"), nil
	}

	stats, err := s.st.Stats(ctx)
	if err != nil {
		return mcpgo.NewToolResultErrorf("stats failed: %s", err.Error()), nil
	}
	return toolResultJSON(stats)
}
