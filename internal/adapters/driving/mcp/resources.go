package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for lineage resources.
	uriScheme = "lineage://"

	maskedSecret = "********"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "components",
		Name:        "components",
		Description: "Embedding providers and vector backends this build can select",
		MIMEType:    "application/json",
	}, s.handleComponentsResource)
	s.resources = append(s.resources, uriScheme+"components")

	if s.ports.Settings != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "settings",
			Name:        "settings",
			Description: "Effective configuration with secrets masked",
			MIMEType:    "application/json",
		}, s.handleSettingsResource)
		s.resources = append(s.resources, uriScheme+"settings")
	}
}

type componentInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

type componentsView struct {
	EmbeddingProviders []componentInfo `json:"embedding_providers"`
	VectorBackends     []componentInfo `json:"vector_backends"`
}

// handleComponentsResource lists every selectable provider and backend.
func (s *Server) handleComponentsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	var view componentsView
	for _, p := range domain.AllEmbeddingProviders() {
		view.EmbeddingProviders = append(view.EmbeddingProviders, componentInfo{
			ID:          p.String(),
			Description: p.Description(),
		})
	}
	for _, b := range domain.AllVectorBackends() {
		view.VectorBackends = append(view.VectorBackends, componentInfo{
			ID:          b.String(),
			Description: b.Description(),
		})
	}

	return jsonResource(req.Params.URI, view)
}

type settingsView struct {
	Embedding struct {
		Provider   string `json:"provider"`
		Model      string `json:"model,omitempty"`
		BaseURL    string `json:"base_url,omitempty"`
		APIKey     string `json:"api_key,omitempty"`
		Dimensions int    `json:"dimensions,omitempty"`
	} `json:"embedding"`
	VectorIndex struct {
		Backend    string `json:"backend"`
		DSN        string `json:"dsn,omitempty"`
		Address    string `json:"address,omitempty"`
		Collection string `json:"collection"`
		Dimensions int    `json:"dimensions,omitempty"`
	} `json:"vector_index"`
	Detection struct {
		BaseURL string `json:"base_url"`
		Timeout string `json:"timeout"`
	} `json:"detection"`
	Resolution struct {
		EmbeddingProvider string  `json:"embedding_provider"`
		MatchNamespace    string  `json:"match_namespace,omitempty"`
		ScoreThreshold    float64 `json:"score_threshold"`
	} `json:"resolution"`
}

// handleSettingsResource returns the effective settings without secret values.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Settings == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	settings, err := s.ports.Settings.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	return jsonResource(req.Params.URI, maskSettings(settings))
}

func maskSettings(settings *domain.Settings) settingsView {
	var v settingsView
	v.Embedding.Provider = settings.Embedding.Provider
	v.Embedding.Model = settings.Embedding.Model
	v.Embedding.BaseURL = settings.Embedding.BaseURL
	v.Embedding.APIKey = mask(settings.Embedding.APIKey)
	v.Embedding.Dimensions = settings.Embedding.Dimensions

	v.VectorIndex.Backend = settings.VectorIndex.Backend
	v.VectorIndex.DSN = mask(settings.VectorIndex.DSN)
	v.VectorIndex.Address = settings.VectorIndex.Address
	v.VectorIndex.Collection = settings.VectorIndex.Collection
	v.VectorIndex.Dimensions = settings.VectorIndex.Dimensions

	v.Detection.BaseURL = settings.Detection.BaseURL
	v.Detection.Timeout = settings.Detection.Timeout.String()

	v.Resolution.EmbeddingProvider = settings.Resolution.EmbeddingProvider
	v.Resolution.MatchNamespace = settings.Resolution.MatchNamespace
	v.Resolution.ScoreThreshold = settings.Resolution.ScoreThreshold
	return v
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return maskedSecret
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
