package detection

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeTestFrame returns a small PNG frame as base64, the way clients
// submit camera frames.
func encodeTestFrame(t *testing.T) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeFramePlainBase64(t *testing.T) {
	t.Parallel()

	img, err := DecodeFrame(encodeTestFrame(t))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestDecodeFrameDataURLPrefix(t *testing.T) {
	t.Parallel()

	img, err := DecodeFrame("data:image/png;base64," + encodeTestFrame(t))
	require.NoError(t, err)
	assert.NotNil(t, img)
}

func TestDecodeFrameRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "not-base64!!!", base64.StdEncoding.EncodeToString([]byte("not an image"))} {
		_, err := DecodeFrame(input)
		assert.ErrorIs(t, err, ErrInvalidImage, "input %q", input)
	}
}

func TestPayloadEntities(t *testing.T) {
	t.Parallel()

	var nilPayload *Payload
	assert.Nil(t, nilPayload.Entities())

	empty := &Payload{DetectedCount: 0, Class: "low_danger", Confidence: 0.9}
	assert.Nil(t, empty.Entities(), "zero reported detections yield no entities")

	full := &Payload{
		DetectedCount: 1,
		Class:         "medium_danger",
		Confidence:    0.75,
		BBox:          []int{5, 5, 25, 45},
	}
	entities := full.Entities()
	require.Len(t, entities, 1)
	assert.Equal(t, "medium_danger", entities[0].Class)
	assert.Equal(t, BoundingBox{X: 5, Y: 5, Width: 20, Height: 40}, entities[0].BBox)

	noBox := &Payload{DetectedCount: 1, Class: "low_danger", Confidence: 0.7}
	entities = noBox.Entities()
	require.Len(t, entities, 1)
	assert.Equal(t, BoundingBox{}, entities[0].BBox)
}

func TestBoxFromCornersClampsInverted(t *testing.T) {
	t.Parallel()

	box := BoxFromCorners(10, 10, 5, 5)
	assert.Equal(t, BoundingBox{X: 10, Y: 10, Width: 0, Height: 0}, box)
}
