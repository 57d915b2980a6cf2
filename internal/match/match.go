// Package match resolves an observed face descriptor to a gallery identity
// by nearest-neighbor Euclidean distance.
package match

import (
	"math"

	"faceatt/internal/gallery"
)

// Unknown is returned when no gallery entry is within the threshold.
const Unknown = ""

// DefaultThreshold is the distance below which a candidate counts as a match.
const DefaultThreshold = 0.5

// Result is the outcome of a single match.
type Result struct {
	Name     string // Unknown when nothing matched
	Distance float64
}

// Matched reports whether an identity was resolved.
func (r Result) Matched() bool { return r.Name != Unknown }

// Match finds the gallery entry closest to the observed descriptor. The
// identity is returned only when the minimum distance is strictly below the
// threshold; ties resolve to the first minimum encountered. Pure function:
// deterministic, no mutation, no I/O.
func Match(observed gallery.Descriptor, snap gallery.Snapshot, threshold float64) Result {
	if snap.Len() == 0 {
		return Result{Name: Unknown, Distance: math.Inf(1)}
	}

	best := 0
	bestDist := Distance(observed, snap.Encodings[0])
	for i := 1; i < len(snap.Encodings); i++ {
		if d := Distance(observed, snap.Encodings[i]); d < bestDist {
			best, bestDist = i, d
		}
	}

	if bestDist < threshold {
		return Result{Name: snap.Names[best], Distance: bestDist}
	}
	return Result{Name: Unknown, Distance: bestDist}
}

// Distance is the Euclidean distance between two descriptors.
func Distance(a, b gallery.Descriptor) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
