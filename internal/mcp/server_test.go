package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/edgar-entities/internal/classifier"
	"github.com/ajitpratap0/edgar-entities/internal/models"
	"github.com/ajitpratap0/edgar-entities/internal/regime"
	"github.com/ajitpratap0/edgar-entities/internal/store"
)

func newMCPServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	st := store.NewMemoryStore(4, 2, nil, logger)
	d := classifier.NewDispatcher(classifier.NewTextClassifier(nil, nil, logger), regime.NewResolver(nil))

	for _, sg := range []models.Sighting{
		{Identifier: "1395064", Name: "TAKEDA PHARMACEUTICAL CO LTD", FormType: "6-K", Filed: "2024-01-02"},
		{Identifier: "320193", Name: "Apple Inc.", FormType: "10-K", Filed: "2024-01-02"},
		{Identifier: "1548760", Name: "Mrs. Mary Jones", FormType: "4", Filed: "2024-01-02"},
		{Identifier: "1548760", Name: "Mary Jones-Smith", FormType: "4", Filed: "2024-02-02"},
	} {
		require.NoError(t, st.Ingest(ctx, sg))
	}
	require.NoError(t, st.ClassifyAll(ctx, d))
	return NewServer(st, d, "test", logger)
}

// makeReq builds a CallToolRequest with the given arguments.
func makeReq(toolName string, args map[string]any) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args
	return req
}

// textContent extracts the first TextContent string from a CallToolResult.
func textContent(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content item")
	tc, ok := result.Content[0].(mcpgo.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func TestClassifyName(t *testing.T) {
	srv := newMCPServer(t)
	ctx := context.Background()

	res, err := srv.HandleClassify(ctx, makeReq("classify_name", map[string]any{"name": "Apple Inc"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res)), &out))
	assert.Equal(t, "company", out["key"])
	assert.Equal(t, "legal_suffix", out["rule"])

	res, err = srv.HandleClassify(ctx, makeReq("classify_name", map[string]any{
		"name":       "John Smith",
		"form_types": " 20-F, ,N-MFP2 ",
	}))
	require.NoError(t, err)
	out = nil
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res)), &out))
	assert.Equal(t, "is_fpi+is_mmf", out["key"])
	assert.Equal(t, classifier.SourceRegime, out["source"])
}

func TestClassifyName_RequiresName(t *testing.T) {
	res, err := newMCPServer(t).HandleClassify(context.Background(), makeReq("classify_name", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGetRecord(t *testing.T) {
	srv := newMCPServer(t)
	ctx := context.Background()

	res, err := srv.HandleGetRecord(ctx, makeReq("get_record", map[string]any{"identifier": "1548760"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	var rec models.Record
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res)), &rec))
	assert.Equal(t, "Mrs. Mary Jones", rec.OriginalName)
	require.Len(t, rec.NameVariants, 1)
	assert.Equal(t, "Mary Jones-Smith", rec.NameVariants[0].Name)

	res, err = srv.HandleGetRecord(ctx, makeReq("get_record", map[string]any{"identifier": "0"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestFindRecords(t *testing.T) {
	srv := newMCPServer(t)
	ctx := context.Background()

	res, err := srv.HandleFindRecords(ctx, makeReq("find_records", map[string]any{"flag": "is_fpi"}))
	require.NoError(t, err)
	var out struct {
		Records    []models.Record `json:"records"`
		NextCursor string          `json:"next_cursor"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res)), &out))
	require.Len(t, out.Records, 1)
	assert.Equal(t, "1395064", out.Records[0].Identifier)

	res, err = srv.HandleFindRecords(ctx, makeReq("find_records", map[string]any{"limit": float64(2)}))
	require.NoError(t, err)
	out.Records = nil
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res)), &out))
	assert.Len(t, out.Records, 2)
	assert.NotEmpty(t, out.NextCursor)

	res, err = srv.HandleFindRecords(ctx, makeReq("find_records", map[string]any{"name": "jones-smith"}))
	require.NoError(t, err)
	out.Records = nil
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res)), &out))
	require.Len(t, out.Records, 1)

	res, err = srv.HandleFindRecords(ctx, makeReq("find_records", map[string]any{"kind": "alien"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestStats(t *testing.T) {
	res, err := newMCPServer(t).HandleStats(context.Background(), makeReq("stats", nil))
	require.NoError(t, err)
	var stats models.ClassificationStats
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res)), &stats))
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.ByFlags["is_fpi"])
}

func TestNilDependencies(t *testing.T) {
	srv := NewServer(nil, nil, "test", nil)
	ctx := context.Background()

	for _, call := range []func(context.Context, mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error){
		srv.HandleClassify, srv.HandleGetRecord, srv.HandleFindRecords, srv.HandleStats,
	} {
		res, err := call(ctx, makeReq("x", map[string]any{"name": "a", "identifier": "1"}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"20-F", "6-K"}, splitList(" 20-F ,, 6-K,"))
	assert.Nil(t, splitList(""))
}
