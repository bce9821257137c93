// Package detection provides the face detection gateway over an HTTP
// detection service, plus local face cropping.
package detection

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/lineage/internal/core/domain"
	"github.com/custodia-labs/lineage/internal/core/ports/driven"
	"github.com/custodia-labs/lineage/internal/logger"
)

// Ensure Gateway implements the interface.
var _ driven.DetectionGateway = (*Gateway)(nil)

// DefaultTimeout bounds a single detection request.
const DefaultTimeout = 30 * time.Second

// faceNamespace seeds deterministic ids for faces the service left unnamed.
var faceNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("lineage:detected-face"))

// Config holds gateway settings.
type Config struct {
	// BaseURL is the detection service root; requests go to BaseURL + "/detect".
	BaseURL string

	// Timeout bounds a single request. The caller's context deadline applies as well.
	Timeout time.Duration

	// MinFaceWidth drops detections narrower than this many pixels. Zero keeps all.
	MinFaceWidth int

	// RequestsPerSecond limits outbound calls. Zero disables limiting.
	RequestsPerSecond float64
}

// Gateway calls a detection service and enforces the thumbnail contract on its output.
type Gateway struct {
	client       *http.Client
	baseURL      string
	minFaceWidth int
	limiter      *rate.Limiter
	cropper      driven.FaceCropper
}

type detectRequest struct {
	Image         []byte `json:"image"`
	ContentType   string `json:"content_type"`
	WantThumbnail bool   `json:"want_thumbnail"`
}

type detectResponse struct {
	Faces []wireFace `json:"faces"`
}

type wireFace struct {
	ID         string    `json:"id"`
	Box        [4]int    `json:"box"`
	Confidence float64   `json:"confidence"`
	Embedding  []float32 `json:"embedding,omitempty"`
	Thumbnail  []byte    `json:"thumbnail,omitempty"`
}

// NewGateway creates a gateway. cropper fills thumbnails the service omitted; nil disables that.
func NewGateway(cfg Config, cropper driven.FaceCropper) (*Gateway, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: detection base_url is not set", domain.ErrConfiguration)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	g := &Gateway{
		client:       &http.Client{Timeout: cfg.Timeout},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		minFaceWidth: cfg.MinFaceWidth,
		cropper:      cropper,
	}
	if cfg.RequestsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(1, int(cfg.RequestsPerSecond)))
	}
	return g, nil
}

// Detect sends the image to the service and returns its faces in service order.
func (g *Gateway) Detect(
	ctx context.Context, image []byte, contentType string, wantThumbnail bool,
) ([]domain.DetectedFace, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, &domain.UpstreamError{Op: "detect", Err: err}
		}
	}

	wire, err := g.call(ctx, detectRequest{Image: image, ContentType: contentType, WantThumbnail: wantThumbnail})
	if err != nil {
		return nil, &domain.UpstreamError{Op: "detect", Err: err}
	}

	digest := sha256.Sum256(image)
	faces := make([]domain.DetectedFace, 0, len(wire))
	for _, w := range wire {
		face := domain.DetectedFace{
			ID:         w.ID,
			Box:        domain.BoundingBox{X: w.Box[0], Y: w.Box[1], Width: w.Box[2], Height: w.Box[3]},
			Confidence: w.Confidence,
			Embedding:  w.Embedding,
		}
		if g.minFaceWidth > 0 && face.Box.Width < g.minFaceWidth {
			logger.Debug("dropping %dpx face below minimum width %d", face.Box.Width, g.minFaceWidth)
			continue
		}
		if face.ID == "" {
			face.ID = faceID(digest, face.Box)
		}
		if wantThumbnail {
			face.Thumbnail = w.Thumbnail
			if len(face.Thumbnail) == 0 && g.cropper != nil {
				thumb, err := g.cropper.Crop(image, face.Box)
				if err != nil {
					logger.Warn("thumbnail for face %s: %v", face.ID, err)
				} else {
					face.Thumbnail = thumb
				}
			}
		}
		faces = append(faces, face)
	}
	return faces, nil
}

func (g *Gateway) call(ctx context.Context, payload detectRequest) ([]wireFace, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/detect", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("detection service error (status %d): %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Faces, nil
}

// Ping checks the service answers on /health.
func (g *Gateway) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("detection: failed to create ping request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return &domain.UpstreamError{Op: "ping", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &domain.UpstreamError{Op: "ping", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return nil
}

// faceID derives a stable id from the image content and the face position.
func faceID(digest [sha256.Size]byte, box domain.BoundingBox) string {
	name := fmt.Sprintf("%x:%d,%d,%d,%d", digest, box.X, box.Y, box.Width, box.Height)
	return uuid.NewSHA1(faceNamespace, []byte(name)).String()
}
