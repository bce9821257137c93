package domain

// Metadata keys stored alongside every vector record.
const (
	MetaEntityID    = "entity_id"
	MetaEntityType  = "entity_type"
	MetaFamilyID    = "family_id"
	MetaCategory    = "category"
	MetaCreatorID   = "creator_id"
	MetaDisplayName = "display_name"
)

// Entity types recorded under MetaEntityType.
const (
	EntityTypeChunk = "chunk"
	EntityTypeFace  = "face"
)

// Namespace scopes a content chunk to its owning collection.
type Namespace struct {
	// FamilyID is the owning family. Queries never cross family boundaries.
	FamilyID string

	// Category is a free-form grouping such as "story" or "obituary".
	Category string

	// CreatorID identifies the member who authored the content.
	CreatorID string
}

// Metadata renders the namespace as metadata pairs. Empty fields are omitted.
func (n Namespace) Metadata() map[string]string {
	md := make(map[string]string, 3)
	if n.FamilyID != "" {
		md[MetaFamilyID] = n.FamilyID
	}
	if n.Category != "" {
		md[MetaCategory] = n.Category
	}
	if n.CreatorID != "" {
		md[MetaCreatorID] = n.CreatorID
	}
	return md
}

// ContentChunk is one unit of free text to be ingested.
// Chunks are created by the caller and never mutated.
type ContentChunk struct {
	ID        string
	Content   string
	Namespace Namespace
}

// Unit returns the chunk as a generator input.
func (c ContentChunk) Unit() ContentUnit {
	return ContentUnit{ID: c.ID, Text: c.Content}
}

// Record builds the vector record persisted for this chunk.
func (c ContentChunk) Record(embedding Embedding) VectorRecord {
	md := c.Namespace.Metadata()
	md[MetaEntityID] = c.ID
	md[MetaEntityType] = EntityTypeChunk
	return VectorRecord{
		ID:        c.ID,
		Embedding: embedding,
		Metadata:  md,
	}
}

// ContentUnit is the input to an embedding generator.
// Exactly one of Text, Descriptor or Image is expected to be populated.
type ContentUnit struct {
	// ID is the chunk or face id the unit belongs to, used for error attribution.
	ID string

	// Text is free-form text content.
	Text string

	// Descriptor is a face descriptor already extracted by a detector.
	Descriptor []float32

	// Image is an encoded image (typically a face crop).
	Image []byte
}

// Content modalities a generator may accept.
const (
	ModalityText       = "text"
	ModalityDescriptor = "descriptor"
	ModalityImage      = "image"
)

// Modality names the populated content field.
func (u ContentUnit) Modality() string {
	switch {
	case len(u.Descriptor) > 0:
		return ModalityDescriptor
	case len(u.Image) > 0:
		return ModalityImage
	default:
		return ModalityText
	}
}

// SourceDocument is a whole text document that is split into chunks before ingestion.
type SourceDocument struct {
	// ID is a stable identifier; chunk ids derive from it.
	ID        string
	Title     string
	Content   string
	Namespace Namespace
}
