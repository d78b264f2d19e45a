package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"time"

	"github.com/homewatch/homewatch-go/internal/errors"
)

// HTTPModel runs inference against a remote model server. The frame is sent
// as JPEG and the server answers with a JSON detection list.
type HTTPModel struct {
	endpoint string
	client   *http.Client
}

// NewHTTPModel creates a model client for the given inference endpoint.
func NewHTTPModel(endpoint string, timeout time.Duration) *HTTPModel {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPModel{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// modelResponse is the wire format of the inference server.
type modelResponse struct {
	Detections []struct {
		Class      string  `json:"class"`
		Confidence float64 `json:"confidence"`
		BBox       []int   `json:"bbox"` // x1, y1, x2, y2
	} `json:"detections"`
}

// Predict implements Model.
func (m *HTTPModel) Predict(ctx context.Context, img image.Image) ([]RawDetection, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, errors.New(err).
			Component("detection").
			Category(errors.CategoryImageDecode).
			Build()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, &buf)
	if err != nil {
		return nil, errors.New(err).
			Component("detection").
			Category(errors.CategoryHTTP).
			Build()
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, errors.New(err).
			Component("detection").
			Category(errors.CategoryHTTP).
			Context("endpoint", m.endpoint).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(fmt.Errorf("model server returned %s", resp.Status)).
			Component("detection").
			Category(errors.CategoryHTTP).
			Context("endpoint", m.endpoint).
			Build()
	}

	var decoded modelResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.New(err).
			Component("detection").
			Category(errors.CategoryHTTP).
			Build()
	}

	raws := make([]RawDetection, 0, len(decoded.Detections))
	for _, d := range decoded.Detections {
		raw := RawDetection{Class: d.Class, Confidence: d.Confidence}
		if len(d.BBox) == 4 {
			raw.X1, raw.Y1, raw.X2, raw.Y2 = d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3]
		}
		raws = append(raws, raw)
	}
	return raws, nil
}
