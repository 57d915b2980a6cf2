package facerec

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"faceatt/internal/gallery"
)

// Remote extracts descriptors by calling a face recognition microservice.
// Deployments without the dlib models on the kiosk host can point at a
// shared service instead.
type Remote struct {
	BaseURL string
	HTTP    *http.Client
}

// NewRemote creates a client for the face service.
func NewRemote(baseURL string) *Remote {
	return &Remote{
		BaseURL: baseURL,
		HTTP: &http.Client{
			Timeout: 30 * time.Second, // face processing can take time
		},
	}
}

// Health checks if the face service is available.
func (r *Remote) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := r.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("face service unhealthy: %s", resp.Status)
	}
	return nil
}

// Extract sends the image to the service and decodes the detected faces.
func (r *Remote) Extract(img []byte) ([]Face, error) {
	body, _ := json.Marshal(map[string]string{
		"image": base64.StdEncoding.EncodeToString(img),
	})
	req, err := http.NewRequest(http.MethodPost, r.BaseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("face service error %s: %s", resp.Status, string(bodyBytes))
	}

	var out struct {
		Faces []struct {
			Box        [4]int    `json:"box"` // left, top, right, bottom
			Descriptor []float32 `json:"descriptor"`
		} `json:"faces"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	faces := make([]Face, 0, len(out.Faces))
	for _, f := range out.Faces {
		if len(f.Descriptor) != gallery.DescriptorLen {
			return nil, fmt.Errorf("face service returned %d-d descriptor, want %d",
				len(f.Descriptor), gallery.DescriptorLen)
		}
		var desc gallery.Descriptor
		copy(desc[:], f.Descriptor)
		faces = append(faces, Face{
			Region:     image.Rect(f.Box[0], f.Box[1], f.Box[2], f.Box[3]),
			Descriptor: desc,
		})
	}
	return faces, nil
}
