// Package mcp implements the Model Context Protocol (MCP) server for pdfqa.
//
// The MCP server exposes four tools to AI assistants:
//   - ingest_pdfs: Ingest PDF files into the store
//   - ask_question: Answer a question from the ingested PDFs with citations
//   - search_chunks: Ranked hybrid search without answer generation
//   - get_status: Report what has been ingested
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Logs go to stderr; stdout carries only protocol messages.
//
// # Basic Usage
//
// The MCP server is typically started via the serve command:
//
//	pdfqa serve
//
// # Tool: ingest_pdfs
//
//	Request:
//	{
//	  "name": "ingest_pdfs",
//	  "arguments": {"paths": ["/docs/handbook.pdf", "/docs/notes.txt"]}
//	}
//
//	Response:
//	{
//	  "files_ingested": 1,
//	  "files_skipped": 1,
//	  "files_failed": 0,
//	  "chunks_added": 42,
//	  "duration_ms": 1830,
//	  "files": [...]
//	}
//
// Only files ending in .pdf are ingested. A second ingestion while one is
// running fails with code -32002.
//
// # Tool: ask_question
//
//	Request:
//	{
//	  "name": "ask_question",
//	  "arguments": {"question": "How many vacation days do I get?"}
//	}
//
//	Response:
//	{
//	  "answer": "Employees receive 25 vacation days per year [1].",
//	  "citations": [
//	    {
//	      "chunk_id": "7c0e...",
//	      "filename": "handbook.pdf",
//	      "page_start": 4,
//	      "page_end": 5,
//	      "score": 0.91,
//	      "excerpt": "Vacation: employees receive 25 days..."
//	    }
//	  ],
//	  "intent": "knowledge_query",
//	  "used_search": true
//	}
//
// When the evidence is too weak the answer is "insufficient evidence" and a
// refusal object explains why, including the top similarity and the
// threshold it missed.
//
// # Tool: search_chunks
//
//	{"name": "search_chunks", "arguments": {"query": "vacation carry over", "limit": 5}}
//
// Returns ranked chunks with their final, hybrid, semantic and keyword
// scores.
//
// # Error Codes
//
//	-32602: Invalid params
//	-32603: Internal error
//	-32002: Ingestion already in progress
//	-32004: Empty query
package mcp
