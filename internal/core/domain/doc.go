// Package domain defines the core entities of the lineage matching subsystem.
//
// This package is the innermost layer of the hexagon. It has NO external
// dependencies and defines:
//
//   - ContentChunk / ContentUnit: inputs to embedding generation
//   - Embedding, VectorRecord, MatchCandidate: what the vector index stores and returns
//   - DetectedFace / ResolvedFace / Identity: the face resolution model
//   - EmbeddingProvider / VectorBackend: the closed sets of swappable variants
//   - The error taxonomy (validation, configuration, upstream, data integrity)
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
