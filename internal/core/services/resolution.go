package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
	"github.com/custodia-labs/lineage/internal/core/ports/driving"
	"github.com/custodia-labs/lineage/internal/logger"
)

// Ensure ResolutionService implements the interface.
var _ driving.ResolutionService = (*ResolutionService)(nil)

// ResolutionService detects faces in a photo and matches each one against
// enrolled faces of a family. Faces are resolved independently: a face that
// cannot be embedded, queried or enriched is returned unresolved.
type ResolutionService struct {
	detector   driven.DetectionGateway
	registry   driven.EmbeddingRegistry
	index      driven.VectorIndex
	identities driven.IdentityStore
	providerID string
	defaults   domain.ResolutionSettings

	cropper driven.FaceCropper
	writer  driven.IdentityWriter
	metrics driven.Metrics
}

// NewResolutionService creates a new resolution service.
// identities may be nil, in which case identities are built from the matched
// record's metadata.
func NewResolutionService(
	detector driven.DetectionGateway,
	registry driven.EmbeddingRegistry,
	index driven.VectorIndex,
	identities driven.IdentityStore,
	providerID string,
	defaults domain.ResolutionSettings,
) *ResolutionService {
	return &ResolutionService{
		detector:   detector,
		registry:   registry,
		index:      index,
		identities: identities,
		providerID: providerID,
		defaults:   defaults,
		metrics:    driven.NopMetrics{},
	}
}

// SetCropper sets the cropper used for faces the gateway returned without an
// embedding or a thumbnail.
func (s *ResolutionService) SetCropper(c driven.FaceCropper) {
	s.cropper = c
}

// SetIdentityWriter sets where EnrollFace records display names.
func (s *ResolutionService) SetIdentityWriter(w driven.IdentityWriter) {
	s.writer = w
}

// SetMetrics sets the metrics sink.
func (s *ResolutionService) SetMetrics(m driven.Metrics) {
	if m == nil {
		m = driven.NopMetrics{}
	}
	s.metrics = m
}

// ResolveIdentities detects faces and resolves each against the vector index.
// The output has one entry per detected face, in detection order.
func (s *ResolutionService) ResolveIdentities(ctx context.Context, req domain.ResolveRequest) ([]domain.ResolvedFace, error) {
	logger.Section("Identity Resolution")
	start := time.Now()

	namespace, threshold, err := s.effectiveOptions(req)
	if err != nil {
		return nil, err
	}
	if len(req.Image) == 0 {
		return nil, domain.NewValidationError("image is empty")
	}

	faces, err := s.detector.Detect(ctx, req.Image, req.ContentType, req.WantThumbnail)
	if err != nil {
		s.metrics.ObserveUpstreamError("detect")
		return nil, asUpstream("detect", "", err)
	}
	logger.Debug("Detected %d faces", len(faces))
	if len(faces) == 0 {
		s.metrics.ObserveResolution(0, 0, time.Since(start))
		return []domain.ResolvedFace{}, nil
	}

	// Every face vector, including detector descriptors, goes through the
	// face provider so the index only ever sees one vector space.
	gen, err := s.registry.Resolve(s.providerID)
	if err != nil {
		return nil, err
	}

	filter := domain.MetadataFilter{
		domain.MetaFamilyID:   namespace,
		domain.MetaEntityType: domain.EntityTypeFace,
	}

	results := make([]domain.ResolvedFace, len(faces))
	var resolved atomic.Int64
	collectAll(ctx, len(faces), s.maxConcurrency(), func(ctx context.Context, i int) {
		results[i] = s.resolveFace(ctx, req, faces[i], gen, filter, threshold)
		if results[i].IsResolved() {
			resolved.Add(1)
		}
	})

	n := int(resolved.Load())
	s.metrics.ObserveResolution(n, len(faces)-n, time.Since(start))
	logger.Info("Resolved %d of %d faces", n, len(faces))
	return results, nil
}

// resolveFace never fails; every problem leaves the face unresolved.
func (s *ResolutionService) resolveFace(
	ctx context.Context,
	req domain.ResolveRequest,
	face domain.DetectedFace,
	gen driven.EmbeddingGenerator,
	filter domain.MetadataFilter,
	threshold float64,
) domain.ResolvedFace {
	out := domain.ResolvedFace{DetectedFace: face}
	if !req.WantThumbnail {
		out.Thumbnail = nil
	}

	emb, err := s.faceEmbedding(ctx, req.Image, face, gen)
	if err != nil {
		s.metrics.ObserveUpstreamError("embed")
		logger.Warn("Face %s: embedding failed: %v", face.ID, err)
		return out
	}

	candidates, err := s.index.Query(ctx, emb, 1, filter)
	if err != nil {
		s.metrics.ObserveUpstreamError("query")
		logger.Warn("Face %s: vector query failed: %v", face.ID, err)
		return out
	}
	if len(candidates) == 0 {
		logger.Debug("Face %s: no candidates", face.ID)
		return out
	}

	best := candidates[0]
	if best.Score < threshold {
		logger.Debug("Face %s: best score %.4f below threshold %.4f", face.ID, best.Score, threshold)
		return out
	}

	identity, err := s.lookup(ctx, best)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.metrics.ObserveUpstreamError("lookup")
		}
		logger.Warn("Face %s: identity lookup for %s failed: %v", face.ID, best.EntityID(), err)
		return out
	}

	out.Identity = identity
	out.Score = best.Score
	logger.Debug("Face %s: resolved to %s (%.4f)", face.ID, identity.EntityID, best.Score)
	return out
}

// faceEmbedding embeds the detector's descriptor when there is one. If the
// provider cannot take descriptors it falls back to the thumbnail, then to a
// crop of the source image. A malformed descriptor is never retried.
func (s *ResolutionService) faceEmbedding(
	ctx context.Context,
	image []byte,
	face domain.DetectedFace,
	gen driven.EmbeddingGenerator,
) (domain.Embedding, error) {
	if !face.Embedding.IsEmpty() {
		emb, err := embedFace(ctx, gen, domain.ContentUnit{ID: face.ID, Descriptor: face.Embedding})
		if err == nil || errors.Is(err, domain.ErrDataIntegrity) {
			return emb, err
		}
		logger.Debug("Face %s: descriptor not embeddable, trying image: %v", face.ID, err)
	}

	crop := face.Thumbnail
	if len(crop) == 0 {
		if s.cropper == nil {
			return nil, &domain.UpstreamError{Op: "embed", ItemID: face.ID, Err: errors.New("face has no usable embedding or thumbnail")}
		}
		var err error
		crop, err = s.cropper.Crop(image, face.Box)
		if err != nil {
			return nil, &domain.UpstreamError{Op: "crop", ItemID: face.ID, Err: err}
		}
	}

	return embedFace(ctx, gen, domain.ContentUnit{ID: face.ID, Image: crop})
}

func embedFace(ctx context.Context, gen driven.EmbeddingGenerator, unit domain.ContentUnit) (domain.Embedding, error) {
	emb, err := gen.Generate(ctx, unit)
	if err != nil {
		return nil, asUpstream("embed", unit.ID, err)
	}
	if err := checkEmbedding(unit.ID, emb); err != nil {
		return nil, err
	}
	return emb, nil
}

func (s *ResolutionService) lookup(ctx context.Context, best domain.MatchCandidate) (*domain.Identity, error) {
	entityID := best.EntityID()
	if s.identities == nil {
		return &domain.Identity{
			EntityID:    entityID,
			DisplayName: best.Metadata[domain.MetaDisplayName],
			Namespace:   best.Metadata[domain.MetaFamilyID],
		}, nil
	}

	identity, err := s.identities.LookupIdentity(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, fmt.Errorf("identity %s: %w", entityID, domain.ErrNotFound)
	}
	return identity, nil
}

// effectiveOptions applies configured defaults to unset request fields.
func (s *ResolutionService) effectiveOptions(req domain.ResolveRequest) (string, float64, error) {
	namespace := strings.TrimSpace(req.MatchNamespace)
	if namespace == "" {
		namespace = strings.TrimSpace(s.defaults.MatchNamespace)
	}
	if namespace == "" {
		return "", 0, domain.NewValidationError("match namespace is required")
	}

	threshold := s.defaults.ScoreThreshold
	if req.ScoreThreshold != nil {
		threshold = *req.ScoreThreshold
	}
	if threshold < -1 || threshold > 1 {
		return "", 0, domain.NewValidationError(fmt.Sprintf("score threshold %.4f outside [-1, 1]", threshold))
	}
	return namespace, threshold, nil
}

func (s *ResolutionService) maxConcurrency() int {
	if s.defaults.MaxConcurrency < 1 {
		return 1
	}
	return s.defaults.MaxConcurrency
}

// EnrollFace indexes a labelled face so later photos of the same person match it.
func (s *ResolutionService) EnrollFace(ctx context.Context, req domain.EnrollRequest) error {
	if strings.TrimSpace(req.EntityID) == "" {
		return domain.NewValidationError("entity id is required")
	}
	if strings.TrimSpace(req.FamilyID) == "" {
		return domain.NewValidationError("family id is required")
	}
	if req.Embedding.IsEmpty() && len(req.Image) == 0 {
		return domain.NewValidationError("either a face embedding or a face image is required")
	}

	faceID := req.FaceID
	if faceID == "" {
		faceID = uuid.NewString()
	}

	gen, err := s.registry.Resolve(s.providerID)
	if err != nil {
		return err
	}

	unit := domain.ContentUnit{ID: faceID, Image: req.Image}
	if !req.Embedding.IsEmpty() {
		unit = domain.ContentUnit{ID: faceID, Descriptor: req.Embedding}
	}
	emb, err := embedFace(ctx, gen, unit)
	if err != nil {
		if op := upstreamOp(err); op != "" {
			s.metrics.ObserveUpstreamError(op)
		}
		return err
	}

	metadata := map[string]string{
		domain.MetaEntityID:   req.EntityID,
		domain.MetaEntityType: domain.EntityTypeFace,
		domain.MetaFamilyID:   req.FamilyID,
	}
	if req.DisplayName != "" {
		metadata[domain.MetaDisplayName] = req.DisplayName
	}

	if err := s.index.Upsert(ctx, domain.VectorRecord{ID: faceID, Embedding: emb, Metadata: metadata}); err != nil {
		s.metrics.ObserveUpstreamError("upsert")
		return asUpstream("upsert", faceID, err)
	}

	if s.writer != nil {
		identity := domain.Identity{EntityID: req.EntityID, DisplayName: req.DisplayName, Namespace: req.FamilyID}
		if err := s.writer.SaveIdentity(ctx, identity); err != nil {
			return fmt.Errorf("save identity %s: %w", req.EntityID, err)
		}
	}

	logger.Info("Enrolled face %s as %s", faceID, req.EntityID)
	return nil
}
