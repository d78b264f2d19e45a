package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homewatch/homewatch-go/internal/detection"
)

// failingModel stands in for an inference backend that is down.
type failingModel struct{}

func (failingModel) Predict(context.Context, image.Image) ([]detection.RawDetection, error) {
	return nil, assert.AnError
}

func encodeFrameBase64(t *testing.T) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 32, 24))))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func createObject(t *testing.T, c *Controller, token string) ObjectResponse {
	t.Helper()

	rec := doJSON(c, http.MethodPost, "/api/v1/objects",
		`{"name":"Front Door","description":"entrance camera"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created ObjectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created
}

func TestDetectModelFailureStillAnswers(t *testing.T) {
	t.Parallel()

	c := newTestController(t, newStubDS())
	adapter := detection.NewAdapter(failingModel{}, detection.NewRandomSeverity(1))
	c.Pipeline = detection.NewPipeline(
		adapter, detection.NewClassifier(detection.DefaultThreshold), nil, nil, nil, nil, 0)

	tokens := registerAndLogin(t, c)
	object := createObject(t, c, tokens.AccessToken)

	body := fmt.Sprintf(`{"image":%q}`, encodeFrameBase64(t))
	rec := doJSON(c, http.MethodPost,
		fmt.Sprintf("/api/v1/objects/%d/detect", object.ID), body, tokens.AccessToken)

	// An inference failure is an answer, not an HTTP error.
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var outcome detection.PipelineOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, detection.LevelError, outcome.DangerLevel)
	assert.Contains(t, outcome.AlertMessage, "Detection failed")
}

func TestManualDetectUndecodableImageStillAnswers(t *testing.T) {
	t.Parallel()

	c := newTestController(t, newStubDS())
	adapter := detection.NewAdapter(failingModel{}, detection.NewRandomSeverity(1))
	c.Pipeline = detection.NewPipeline(
		adapter, detection.NewClassifier(detection.DefaultThreshold), nil, nil, nil, nil, 0)

	tokens := registerAndLogin(t, c)
	object := createObject(t, c, tokens.AccessToken)

	rec := doJSON(c, http.MethodPost,
		fmt.Sprintf("/api/v1/objects/%d/manual-detect", object.ID),
		`{"image":"not-base64!","confidence":0.9,"class":"high_danger","detected_object":1,"bbox_coordinates":[0,0,10,10]}`,
		tokens.AccessToken)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var outcome detection.PipelineOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, detection.LevelError, outcome.DangerLevel)
}
