package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamespace_Metadata(t *testing.T) {
	md := Namespace{FamilyID: "fam-1", CreatorID: "m-9"}.Metadata()

	assert.Equal(t, map[string]string{MetaFamilyID: "fam-1", MetaCreatorID: "m-9"}, md)
}

func TestContentChunk_Record(t *testing.T) {
	chunk := ContentChunk{
		ID:        "c1",
		Content:   "Grandma moved to Ohio in 1952.",
		Namespace: Namespace{FamilyID: "fam-1", Category: "story"},
	}

	rec := chunk.Record(Embedding{1, 0})

	assert.Equal(t, "c1", rec.ID)
	assert.Equal(t, "fam-1", rec.Metadata[MetaFamilyID])
	assert.Equal(t, "story", rec.Metadata[MetaCategory])
	assert.Equal(t, EntityTypeChunk, rec.Metadata[MetaEntityType])
	assert.Equal(t, "c1", rec.Metadata[MetaEntityID])
	assert.Equal(t, "text", chunk.Unit().Modality())
}

func TestContentUnit_Modality(t *testing.T) {
	assert.Equal(t, "descriptor", ContentUnit{Descriptor: []float32{1}}.Modality())
	assert.Equal(t, "image", ContentUnit{Image: []byte{0xff}}.Modality())
	assert.Equal(t, "text", ContentUnit{Text: "hi"}.Modality())
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity(Embedding{1, 2, 3}, Embedding{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity(Embedding{1, 0}, Embedding{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity(Embedding{1, 0}, Embedding{-1, 0}), 1e-9)
	assert.Zero(t, CosineSimilarity(Embedding{1}, Embedding{1, 0}))
	assert.Zero(t, CosineSimilarity(Embedding{0, 0}, Embedding{1, 0}))
}

func TestEmbedding_Normalized(t *testing.T) {
	n := Embedding{3, 4}.Normalized()
	assert.InDelta(t, 0.6, n[0], 1e-6)
	assert.InDelta(t, 0.8, n[1], 1e-6)
	assert.InDelta(t, 1.0, n.Norm(), 1e-6)

	zero := Embedding{0, 0}.Normalized()
	assert.Equal(t, Embedding{0, 0}, zero)
}

func TestMetadataFilter_Matches(t *testing.T) {
	md := map[string]string{MetaFamilyID: "fam-1", MetaEntityType: EntityTypeFace}

	assert.True(t, MetadataFilter{}.Matches(md))
	assert.True(t, MetadataFilter{MetaFamilyID: "fam-1"}.Matches(md))
	assert.False(t, MetadataFilter{MetaFamilyID: "fam-2"}.Matches(md))
	assert.False(t, MetadataFilter{MetaCategory: "story"}.Matches(md))
	assert.Equal(t, []string{MetaEntityType, MetaFamilyID},
		MetadataFilter{MetaFamilyID: "a", MetaEntityType: "b"}.Keys())
}

func TestSortCandidates(t *testing.T) {
	c := []MatchCandidate{
		{ID: "b", Score: 0.5},
		{ID: "c", Score: 0.9},
		{ID: "a", Score: 0.5},
	}
	SortCandidates(c)

	assert.Equal(t, []string{"c", "a", "b"}, []string{c[0].ID, c[1].ID, c[2].ID})
}

func TestMatchCandidate_EntityID(t *testing.T) {
	assert.Equal(t, "m-1", MatchCandidate{ID: "face-1", Metadata: map[string]string{MetaEntityID: "m-1"}}.EntityID())
	assert.Equal(t, "face-1", MatchCandidate{ID: "face-1"}.EntityID())
}

func TestResolvedFace_IsResolved(t *testing.T) {
	assert.False(t, ResolvedFace{}.IsResolved())
	assert.True(t, ResolvedFace{Identity: &Identity{EntityID: "m-1"}}.IsResolved())
	assert.True(t, BoundingBox{}.IsEmpty())
}
