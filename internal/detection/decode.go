package detection

import (
	"bytes"
	"encoding/base64"
	"image"
	"strings"

	// Register decoders for the formats cameras upload.
	_ "image/jpeg"
	_ "image/png"

	"github.com/homewatch/homewatch-go/internal/errors"
)

// ErrInvalidImage is the sentinel for undecodable input; the run never
// starts when decoding fails.
var ErrInvalidImage = errors.Newf("invalid image data").
	Component("detection").
	Category(errors.CategoryImageDecode).
	Build()

// DecodeFrame turns a base64-encoded frame, with or without a
// "data:image/...;base64," prefix, into a decoded raster image.
func DecodeFrame(frameData string) (image.Image, error) {
	if frameData == "" {
		return nil, ErrInvalidImage
	}

	if strings.HasPrefix(frameData, "data:image") {
		if idx := strings.IndexByte(frameData, ','); idx >= 0 {
			frameData = frameData[idx+1:]
		}
	}

	raw, err := base64.StdEncoding.DecodeString(frameData)
	if err != nil {
		return nil, ErrInvalidImage
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, ErrInvalidImage
	}

	return img, nil
}

// Payload is a precomputed detection submitted by an external caller that
// already ran inference (e.g. an edge device). The image is the annotated
// frame, base64 encoded; bbox coordinates are corner based.
type Payload struct {
	Image         string  `json:"image"`
	Confidence    float64 `json:"confidence"`
	Class         string  `json:"class"`
	DetectedCount int     `json:"detected_object"`
	BBox          []int   `json:"bbox_coordinates"`
}

// Entities converts the payload into the pipeline's entity form. A payload
// reporting zero detections yields no entities.
func (p *Payload) Entities() []DetectedEntity {
	if p == nil || p.DetectedCount == 0 {
		return nil
	}

	box := BoundingBox{}
	if len(p.BBox) == 4 {
		box = BoxFromCorners(p.BBox[0], p.BBox[1], p.BBox[2], p.BBox[3])
	}

	return []DetectedEntity{{
		Class:      p.Class,
		Confidence: clampConfidence(p.Confidence),
		BBox:       box,
	}}
}

// AnnotatedImage decodes the payload's embedded frame. A payload without a
// usable frame returns ErrInvalidImage.
func (p *Payload) AnnotatedImage() (image.Image, error) {
	return DecodeFrame(p.Image)
}
