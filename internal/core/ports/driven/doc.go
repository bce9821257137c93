// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingRegistry / EmbeddingGenerator: content to vectors
//   - VectorIndex / IndexRegistry: vector persistence and similarity queries
//   - DetectionGateway: face localisation (resolution only)
//   - IdentityStore: identity enrichment (resolution only)
//
// # Optional Interfaces
//
//   - Metrics: pipeline observations. NopMetrics when not configured.
//   - Chunker: splits whole documents for IngestDocument.
//   - FaceCropper / IdentityWriter: thumbnails and enrollment (resolution only)
//   - ConfigStore: persisted settings
//   - Normaliser: markup to plain text for the filesystem connector
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
