package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/valyu-mcp/client"
)

const ToolName = "valyu_context"

// Limits applied to every outbound request. DefaultResults is what callers
// get when they omit max_num_results; it is still clamped to MaxResults.
const (
	DefaultResults = 10
	MinResults     = 1
	MaxResults     = 5
	MaxPrice       = 10
	SearchType     = client.SearchTypeAll
)

type ContextInput struct {
	Query         string `json:"query" jsonschema:"Free-text query to retrieve context for"`
	MaxNumResults *int   `json:"max_num_results,omitempty" jsonschema:"Maximum number of results to return (default 10, capped at 5)"`
}

// ContextFetcher is the part of the Valyu client the tool depends on.
type ContextFetcher interface {
	Context(ctx context.Context, request client.ContextRequest) (*client.ContextResponse, error)
}

type contextTool struct {
	fetcher ContextFetcher
	logger  *slog.Logger
}

func Register(mcpServer *mcp.Server, fetcher ContextFetcher, logger *slog.Logger) error {
	schema, err := buildInputSchema()
	if err != nil {
		return err
	}
	if logger == nil {
		logger = slog.Default()
	}

	tool := &contextTool{fetcher: fetcher, logger: logger}
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        ToolName,
		Description: buildToolDescription(),
		InputSchema: schema,
	}, tool.handle)
	return nil
}

func buildToolDescription() string {
	return fmt.Sprintf("Retrieves context using the Valyu API. Returns up to %d ranked results, each with title, content and URL.", MaxResults)
}

func buildInputSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[ContextInput](nil)
	if err != nil {
		return nil, fmt.Errorf("building %s input schema: %w", ToolName, err)
	}
	if prop, ok := schema.Properties["max_num_results"]; ok {
		prop.Default = json.RawMessage(strconv.Itoa(DefaultResults))
	}
	return schema, nil
}

// ClampResults saturates n into [MinResults, MaxResults].
func ClampResults(n int) int {
	return min(max(n, MinResults), MaxResults)
}

func (t *contextTool) handle(ctx context.Context, _ *mcp.CallToolRequest, input ContextInput) (*mcp.CallToolResult, any, error) {
	maxNumResults := DefaultResults
	if input.MaxNumResults != nil {
		maxNumResults = *input.MaxNumResults
	}

	text := t.invoke(ctx, input.Query, maxNumResults)
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

func (t *contextTool) invoke(ctx context.Context, query string, maxNumResults int) string {
	logger := t.logger.With("tool", ToolName, "invocation_id", uuid.NewString())
	logger.Info("starting tool call", "query", query, "max_results", maxNumResults)
	return t.run(ctx, logger, query, maxNumResults).Resolve()
}

func (t *contextTool) run(ctx context.Context, logger *slog.Logger, query string, maxNumResults int) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%v", r)
			logger.Error("tool call failed", "error", err)
			result = Result{Err: err}
		}
	}()

	request := client.ContextRequest{
		Query:         query,
		SearchType:    SearchType,
		MaxNumResults: ClampResults(maxNumResults),
		MaxPrice:      MaxPrice,
	}
	logger.Info("making valyu request", "query", request.Query, "max_results", request.MaxNumResults, "max_price", request.MaxPrice)

	response, err := t.fetcher.Context(ctx, request)
	if err != nil {
		logger.Error("valyu request failed", "error", err)
		return Result{Err: fmt.Errorf("%w: %w", ErrNoResponse, err)}
	}
	if response == nil {
		logger.Error("failed to get valyu response")
		return Result{Err: ErrNoResponse}
	}
	logger.Info("received valyu response",
		"tx_id", response.TxID,
		"results", len(response.Results),
		"cost_dollars", response.TotalDeductionDollars,
	)

	text := FormatResults(response.Results)
	logger.Info("formatted results", "count", len(response.Results))
	return Result{Text: text}
}
