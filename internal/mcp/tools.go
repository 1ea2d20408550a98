package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/pdfqa-mcp/internal/indexer"
	"github.com/dshills/pdfqa-mcp/internal/searcher"
	"github.com/dshills/pdfqa-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodeIngestInProgress = -32002 // Another ingestion is already running
	ErrorCodeEmptyQuery       = -32004 // Query parameter is empty
)

// maxReportedFailures bounds the per-file errors included in an ingest response
const maxReportedFailures = 5

// handleIngestPDFs handles the ingest_pdfs tool invocation
func (s *Server) handleIngestPDFs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	paths, err := getStringSlice(args, "paths")
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "paths parameter is required", map[string]interface{}{
			"param":  "paths",
			"reason": err.Error(),
		})
	}
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
				"param":  "paths",
				"value":  p,
				"reason": ErrPathNotAbsolute.Error(),
			})
		}
	}

	stats, err := s.app.Indexer.IngestFiles(ctx, paths)
	if errors.Is(err, indexer.ErrIngestInProgress) {
		return nil, newMCPError(ErrorCodeIngestInProgress, "an ingestion is already running", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "ingestion failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"files_ingested": stats.FilesIngested,
		"files_skipped":  stats.FilesSkipped,
		"files_failed":   stats.FilesFailed,
		"chunks_added":   stats.ChunksAdded,
		"duration_ms":    stats.Duration.Milliseconds(),
		"files":          stats.Files,
	}

	var failures []string
	for _, f := range stats.Files {
		if f.Status == indexer.StatusFailed {
			failures = append(failures, fmt.Sprintf("%s: %s", f.Path, f.Message))
		}
	}
	if len(failures) > maxReportedFailures {
		response["errors"] = failures[:maxReportedFailures]
		response["error_count"] = len(failures)
	} else if len(failures) > 0 {
		response["errors"] = failures
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleAskQuestion handles the ask_question tool invocation
func (s *Server) handleAskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	// An empty question is answered with a policy refusal, not an error
	question, ok := args["question"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "question parameter is required", map[string]interface{}{
			"param":  "question",
			"reason": "missing or not a string",
		})
	}

	answer, err := s.app.QA.Ask(ctx, question)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to answer question", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(answer)), nil
}

// handleSearchChunks handles the search_chunks tool invocation
func (s *Server) handleSearchChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 0)
	if _, present := args["limit"]; present && (limit < 1 || limit > searcher.MaxTopK) {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	res, err := s.app.QA.Search(ctx, query, limit)
	if errors.Is(err, types.ErrEmptyQuery) {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query cannot be empty", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(res.Candidates))
	for i, c := range res.Candidates {
		results = append(results, map[string]interface{}{
			"rank":       i + 1,
			"chunk_id":   c.ChunkID,
			"filename":   c.Filename,
			"page_start": c.PageStart,
			"page_end":   c.PageEnd,
			"score":      c.Final,
			"hybrid":     c.Hybrid,
			"semantic":   c.Sem,
			"keyword":    c.KW,
			"text":       c.Text,
		})
	}

	response := map[string]interface{}{
		"query":       query,
		"results":     results,
		"count":       len(results),
		"pool_size":   res.PoolSize,
		"cache_hit":   res.CacheHit,
		"duration_ms": res.Duration.Milliseconds(),
	}
	if res.Refusal != nil {
		response["refusal"] = res.Refusal
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.app.Store.Status(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	files := status.Files
	if files == nil {
		files = []string{}
	}

	response := map[string]interface{}{
		"ingested":  status.ChunkCount > 0,
		"ingesting": s.app.Indexer.Busy(),
		"store": map[string]interface{}{
			"backend":    status.Backend,
			"build_mode": status.BuildMode,
			"location":   status.Location,
			"size_mb":    fmt.Sprintf("%.2f", float64(status.SizeBytes)/(1024*1024)),
		},
		"statistics": map[string]interface{}{
			"chunk_count": status.ChunkCount,
			"dimension":   status.Dimension,
			"file_count":  status.FileCount,
			"files":       files,
		},
		"models": map[string]interface{}{
			"embedder":       s.app.Embedder.Provider(),
			"embed_model":    s.app.Embedder.Model(),
			"generator":      s.app.Generator.Provider(),
			"generate_model": s.app.Generator.Model(),
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a value as indented JSON
func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a non-empty array of non-empty strings
func getStringSlice(args map[string]interface{}, key string) ([]string, error) {
	switch v := args[key].(type) {
	case []string:
		if len(v) == 0 {
			return nil, ErrNoPaths
		}
		for _, s := range v {
			if s == "" {
				return nil, ErrPathRequired
			}
		}
		return v, nil
	case []interface{}:
		if len(v) == 0 {
			return nil, ErrNoPaths
		}
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok || s == "" {
				return nil, ErrPathRequired
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, ErrNoPaths
	}
}

// Validation errors

var (
	ErrNoPaths         = errors.New("at least one path is required")
	ErrPathRequired    = errors.New("path must be a non-empty string")
	ErrPathNotAbsolute = errors.New("path must be absolute")
)
