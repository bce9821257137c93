// Package mcp provides an MCP (Model Context Protocol) server adapter for lineage.
// It lets AI assistants ingest family history, search it and resolve faces in photos.
package mcp

import "errors"

// ErrMissingIngestionService is returned when the ingestion service is not provided.
var ErrMissingIngestionService = errors.New("mcp: ingestion service is required")
