// Package facerec turns camera frames into face descriptors. The rest of the
// system treats extraction as opaque: an image goes in, zero or more
// (region, descriptor) pairs come out.
package facerec

import (
	"image"

	"faceatt/internal/gallery"
)

// Face is one detected face within a frame.
type Face struct {
	Region     image.Rectangle
	Descriptor gallery.Descriptor
}

// Extractor produces faces from an encoded image.
type Extractor interface {
	Extract(img []byte) ([]Face, error)
}

// Descriptors adapts any Extractor to the gallery rebuild contract.
type Descriptors struct {
	Ext Extractor
}

// Descriptors returns just the descriptors of every detected face.
func (d Descriptors) Descriptors(img []byte) ([]gallery.Descriptor, error) {
	faces, err := d.Ext.Extract(img)
	if err != nil {
		return nil, err
	}
	out := make([]gallery.Descriptor, len(faces))
	for i, f := range faces {
		out[i] = f.Descriptor
	}
	return out, nil
}
