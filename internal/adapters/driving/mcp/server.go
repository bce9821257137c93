package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/lineage/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// shutdownTimeout bounds how long in-flight HTTP sessions get to finish.
const shutdownTimeout = 5 * time.Second

// Server exposes family history ingestion, search and face resolution to
// MCP clients. Tools backed by an absent optional port are not registered.
type Server struct {
	ports     *Ports
	server    *mcp.Server
	tools     []string
	resources []string
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports}
	s.server = mcp.NewServer(
		&mcp.Implementation{Name: "lineage", Version: Version},
		&mcp.ServerOptions{Instructions: instructions(ports)},
	)

	s.registerTools()
	s.registerResources()
	logger.Debug("MCP tools: %s", strings.Join(s.tools, ", "))

	return s, nil
}

// instructions tells the client which capabilities this process has.
func instructions(ports *Ports) string {
	var b strings.Builder
	b.WriteString("Family history archive. Use ingest or ingest_document to add text")
	if ports.Search != nil {
		b.WriteString(", search to find passages by meaning")
	}
	if ports.Resolution != nil {
		b.WriteString(", resolve_identities to name the people in a photo and enroll_face to teach it new faces")
	} else {
		b.WriteString(". Face resolution is disabled because no detection service is configured")
	}
	b.WriteString(". Every call is scoped to one family id.")
	return b.String()
}

// Tools returns the names of the registered tools in registration order.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// Resources returns the URIs of the registered resources.
func (s *Server) Resources() []string {
	return append([]string(nil), s.resources...)
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves streamable HTTP on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("MCP server shutdown: %v", err)
		}
	}()

	logger.Debug("MCP server listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
