package facerec

import (
	"fmt"

	goface "github.com/Kagami/go-face"

	"faceatt/internal/gallery"
)

// Local extracts descriptors with the dlib models bundled on disk.
type Local struct {
	rec *goface.Recognizer
}

// NewLocal initializes the dlib recognizer from modelsDir.
func NewLocal(modelsDir string) (*Local, error) {
	rec, err := goface.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("facerec: init recognizer: %w", err)
	}
	return &Local{rec: rec}, nil
}

// Extract detects every face in a JPEG image and computes its descriptor.
func (l *Local) Extract(img []byte) ([]Face, error) {
	found, err := l.rec.Recognize(img)
	if err != nil {
		return nil, fmt.Errorf("facerec: recognize: %w", err)
	}
	faces := make([]Face, 0, len(found))
	for _, f := range found {
		faces = append(faces, Face{
			Region:     f.Rectangle,
			Descriptor: gallery.Descriptor(f.Descriptor),
		})
	}
	return faces, nil
}

// Close releases the dlib resources.
func (l *Local) Close() {
	l.rec.Close()
}
