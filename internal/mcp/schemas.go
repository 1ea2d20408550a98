package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// ingestPDFsTool returns the tool definition for ingest_pdfs
func ingestPDFsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ingest_pdfs",
		Description: "Ingest PDF files so their content can be searched and cited",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"paths": map[string]interface{}{
					"type":        "array",
					"description": "Absolute paths of the PDF files to ingest; other files are skipped",
					"items": map[string]interface{}{
						"type": "string",
					},
					"minItems": 1,
				},
			},
			Required: []string{"paths"},
		},
	}
}

// askQuestionTool returns the tool definition for ask_question
func askQuestionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a question from the ingested PDFs with citations, or refuse with 'insufficient evidence'",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Natural language question",
				},
			},
			Required: []string{"question"},
		},
	}
}

// searchChunksTool returns the tool definition for search_chunks
func searchChunksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_chunks",
		Description: "Hybrid semantic and keyword search over ingested PDF chunks",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100); defaults to the configured top_k",
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report ingested files, chunk count, embedding dimension and store backend",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
