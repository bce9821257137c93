package domain

// BoundingBox locates a face within its source image, in pixels.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsEmpty reports whether the box has no area.
func (b BoundingBox) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// DetectedFace is one face localised by the detection gateway.
type DetectedFace struct {
	ID         string      `json:"id"`
	Box        BoundingBox `json:"box"`
	Confidence float64     `json:"confidence"`

	// Embedding is set when the detector already produced a descriptor.
	Embedding Embedding `json:"embedding,omitempty"`

	// Thumbnail is a JPEG crop of the face. Always nil unless requested.
	Thumbnail []byte `json:"thumbnail,omitempty"`
}

// Identity is the record-storage view of a matched entity.
type Identity struct {
	EntityID    string `json:"entity_id"`
	DisplayName string `json:"display_name"`
	Namespace   string `json:"namespace"`
}

// ResolvedFace is a detected face plus, when resolution succeeded, its identity.
type ResolvedFace struct {
	DetectedFace

	// Identity is nil when the face could not be confidently resolved.
	Identity *Identity `json:"identity,omitempty"`

	// Score is the best match score. Zero when unresolved.
	Score float64 `json:"score,omitempty"`
}

// IsResolved reports whether an identity was attached.
func (r ResolvedFace) IsResolved() bool {
	return r.Identity != nil
}

// ResolveRequest is the input to identity resolution.
type ResolveRequest struct {
	Image         []byte
	ContentType   string
	WantThumbnail bool

	// MatchNamespace is the family whose indexed faces are eligible matches.
	// Empty falls back to the configured default.
	MatchNamespace string

	// ScoreThreshold is the minimum accepted similarity.
	// Nil falls back to the configured default.
	ScoreThreshold *float64
}

// EnrollRequest labels a face as a known identity so later photos can match it.
type EnrollRequest struct {
	// FaceID is the vector record id. A random id is generated when empty,
	// so one person can be enrolled from several photos.
	FaceID string

	EntityID    string
	FamilyID    string
	DisplayName string

	// Embedding is a pre-extracted descriptor. When empty, Image is embedded instead.
	Embedding Embedding
	Image     []byte
}
