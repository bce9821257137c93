package detection

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
)

// Ensure Cropper implements the interface.
var _ driven.FaceCropper = (*Cropper)(nil)

// DefaultJPEGQuality is used for encoded crops.
const DefaultJPEGQuality = 90

// Cropper cuts face regions out of encoded images and re-encodes them as JPEG.
type Cropper struct {
	quality int
}

// NewCropper creates a cropper. A quality outside 1..100 uses DefaultJPEGQuality.
func NewCropper(quality int) *Cropper {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Cropper{quality: quality}
}

// Crop decodes image, clips box to its bounds and returns the JPEG-encoded region.
func (c *Cropper) Crop(img []byte, box domain.BoundingBox) ([]byte, error) {
	if box.IsEmpty() {
		return nil, fmt.Errorf("crop: empty bounding box %+v", box)
	}

	src, err := imaging.Decode(bytes.NewReader(img), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("crop: decode image: %w", err)
	}

	rect := image.Rect(box.X, box.Y, box.X+box.Width, box.Y+box.Height).Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("crop: box %+v lies outside the %v image", box, src.Bounds().Size())
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Crop(src, rect), imaging.JPEG, imaging.JPEGQuality(c.quality)); err != nil {
		return nil, fmt.Errorf("crop: encode: %w", err)
	}
	return buf.Bytes(), nil
}
