package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

// defaultSearchLimit applies when the search tool is called without a limit.
const defaultSearchLimit = 10

// ChunkInput is one content item for the ingest tool.
type ChunkInput struct {
	ID        string `json:"id" jsonschema:"stable identifier; re-ingesting the same id replaces it"`
	Content   string `json:"content" jsonschema:"free text to embed"`
	FamilyID  string `json:"family_id,omitempty" jsonschema:"owning family"`
	Category  string `json:"category,omitempty" jsonschema:"grouping such as story or obituary"`
	CreatorID string `json:"creator_id,omitempty" jsonschema:"member who authored the content"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Chunks []ChunkInput `json:"chunks" jsonschema:"content items, processed in order"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	Ingested int `json:"ingested"`
}

// IngestDocumentInput is the input schema for the ingest_document tool.
type IngestDocumentInput struct {
	ID        string `json:"id" jsonschema:"stable document identifier"`
	Title     string `json:"title,omitempty"`
	Content   string `json:"content" jsonschema:"full document text; split into chunks before embedding"`
	FamilyID  string `json:"family_id,omitempty"`
	Category  string `json:"category,omitempty"`
	CreatorID string `json:"creator_id,omitempty"`
}

// ResolveInput is the input schema for the resolve_identities tool.
type ResolveInput struct {
	Image          string   `json:"image" jsonschema:"base64-encoded photograph"`
	ContentType    string   `json:"content_type,omitempty" jsonschema:"MIME type; sniffed when omitted"`
	WantThumbnail  bool     `json:"want_thumbnail,omitempty" jsonschema:"return a JPEG crop per face"`
	MatchNamespace string   `json:"match_namespace,omitempty" jsonschema:"family whose faces are eligible matches"`
	ScoreThreshold *float64 `json:"score_threshold,omitempty" jsonschema:"minimum accepted similarity in [-1, 1]"`
}

// ResolveOutput is the output schema for the resolve_identities tool.
type ResolveOutput struct {
	Faces    []FaceOutput `json:"faces"`
	Resolved int          `json:"resolved"`
}

// FaceOutput is one detected face, with identity fields set when it was resolved.
type FaceOutput struct {
	FaceID      string             `json:"face_id"`
	Box         domain.BoundingBox `json:"box"`
	Confidence  float64            `json:"confidence"`
	Thumbnail   string             `json:"thumbnail,omitempty" jsonschema:"base64-encoded JPEG crop"`
	EntityID    string             `json:"entity_id,omitempty"`
	DisplayName string             `json:"display_name,omitempty"`
	FamilyID    string             `json:"family_id,omitempty"`
	Score       float64            `json:"score,omitempty"`
}

// EnrollInput is the input schema for the enroll_face tool.
type EnrollInput struct {
	FaceID      string    `json:"face_id,omitempty"`
	EntityID    string    `json:"entity_id" jsonschema:"person the face belongs to"`
	FamilyID    string    `json:"family_id" jsonschema:"owning family"`
	DisplayName string    `json:"display_name,omitempty"`
	Embedding   []float32 `json:"embedding,omitempty" jsonschema:"pre-extracted face descriptor"`
	Image       string    `json:"image,omitempty" jsonschema:"base64-encoded face crop, used when no embedding is given"`
}

// EnrollOutput is the output schema for the enroll_face tool.
type EnrollOutput struct {
	EntityID string `json:"entity_id"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query    string `json:"query" jsonschema:"the search query"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	FamilyID string `json:"family_id,omitempty" jsonschema:"restrict results to one family"`
	Category string `json:"category,omitempty"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ChunkID  string            `json:"chunk_id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	s.addTool(&mcp.Tool{
		Name:        "ingest",
		Description: "Embed and store content items; stops at the first item that fails",
	}, func(t *mcp.Tool) { mcp.AddTool(s.server, t, s.handleIngest) })

	s.addTool(&mcp.Tool{
		Name:        "ingest_document",
		Description: "Split a document into chunks and ingest them",
	}, func(t *mcp.Tool) { mcp.AddTool(s.server, t, s.handleIngestDocument) })

	if s.ports.Resolution != nil {
		s.addTool(&mcp.Tool{
			Name:        "resolve_identities",
			Description: "Detect faces in a photograph and match each one to a known family member",
		}, func(t *mcp.Tool) { mcp.AddTool(s.server, t, s.handleResolve) })

		s.addTool(&mcp.Tool{
			Name:        "enroll_face",
			Description: "Label a face as a known family member so later photos can match it",
		}, func(t *mcp.Tool) { mcp.AddTool(s.server, t, s.handleEnroll) })
	}

	if s.ports.Search != nil {
		s.addTool(&mcp.Tool{
			Name:        "search",
			Description: "Search ingested family history by meaning",
		}, func(t *mcp.Tool) { mcp.AddTool(s.server, t, s.handleSearch) })
	}
}

// addTool registers t through add and records its name.
func (s *Server) addTool(t *mcp.Tool, add func(*mcp.Tool)) {
	add(t)
	s.tools = append(s.tools, t.Name)
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	chunks := make([]domain.ContentChunk, len(input.Chunks))
	for i, c := range input.Chunks {
		chunks[i] = domain.ContentChunk{
			ID:      c.ID,
			Content: c.Content,
			Namespace: domain.Namespace{
				FamilyID:  c.FamilyID,
				Category:  c.Category,
				CreatorID: c.CreatorID,
			},
		}
	}

	if err := s.ports.Ingestion.Ingest(ctx, chunks); err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, IngestOutput{Ingested: len(chunks)}, nil
}

func (s *Server) handleIngestDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestDocumentInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	n, err := s.ports.Ingestion.IngestDocument(ctx, domain.SourceDocument{
		ID:      input.ID,
		Title:   input.Title,
		Content: input.Content,
		Namespace: domain.Namespace{
			FamilyID:  input.FamilyID,
			Category:  input.Category,
			CreatorID: input.CreatorID,
		},
	})
	if err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, IngestOutput{Ingested: n}, nil
}

func (s *Server) handleResolve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResolveInput,
) (*mcp.CallToolResult, ResolveOutput, error) {
	image, err := decodeImage(input.Image)
	if err != nil {
		return nil, ResolveOutput{}, err
	}
	contentType := input.ContentType
	if contentType == "" && len(image) > 0 {
		contentType = http.DetectContentType(image)
	}

	faces, err := s.ports.Resolution.ResolveIdentities(ctx, domain.ResolveRequest{
		Image:          image,
		ContentType:    contentType,
		WantThumbnail:  input.WantThumbnail,
		MatchNamespace: input.MatchNamespace,
		ScoreThreshold: input.ScoreThreshold,
	})
	if err != nil {
		return nil, ResolveOutput{}, err
	}

	out := ResolveOutput{Faces: make([]FaceOutput, len(faces))}
	for i := range faces {
		out.Faces[i] = faceOutput(faces[i])
		if faces[i].IsResolved() {
			out.Resolved++
		}
	}
	return nil, out, nil
}

func faceOutput(f domain.ResolvedFace) FaceOutput {
	out := FaceOutput{
		FaceID:     f.ID,
		Box:        f.Box,
		Confidence: f.Confidence,
	}
	if len(f.Thumbnail) > 0 {
		out.Thumbnail = base64.StdEncoding.EncodeToString(f.Thumbnail)
	}
	if f.Identity != nil {
		out.EntityID = f.Identity.EntityID
		out.DisplayName = f.Identity.DisplayName
		out.FamilyID = f.Identity.Namespace
		out.Score = f.Score
	}
	return out
}

// decodeImage accepts standard base64, with or without a data URL prefix.
func decodeImage(s string) ([]byte, error) {
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}
	if s == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("image is not valid base64: %v", err))
	}
	return data, nil
}

func (s *Server) handleEnroll(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EnrollInput,
) (*mcp.CallToolResult, EnrollOutput, error) {
	image, err := decodeImage(input.Image)
	if err != nil {
		return nil, EnrollOutput{}, err
	}

	err = s.ports.Resolution.EnrollFace(ctx, domain.EnrollRequest{
		FaceID:      input.FaceID,
		EntityID:    input.EntityID,
		FamilyID:    input.FamilyID,
		DisplayName: input.DisplayName,
		Embedding:   input.Embedding,
		Image:       image,
	})
	if err != nil {
		return nil, EnrollOutput{}, err
	}
	return nil, EnrollOutput{EntityID: input.EntityID}, nil
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if s.ports.Search == nil {
		return nil, SearchOutput{}, errors.New("search is not available")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results, err := s.ports.Search.Search(ctx, input.Query, limit, domain.Namespace{
		FamilyID: input.FamilyID,
		Category: input.Category,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = SearchResultOutput{
			ChunkID:  results[i].ID,
			Score:    results[i].Score,
			Metadata: results[i].Metadata,
		}
	}
	return nil, output, nil
}
