package evidence

import "math"

// FaceTolerance is the largest descriptor distance still treated as the same person.
const FaceTolerance = 0.6

// MinFaceConfidence is the confidence a face match has to exceed to be kept.
const MinFaceConfidence = 0.35

// Signature is a 128-d face descriptor.
type Signature []float32

// Distance returns the Euclidean distance between two signatures, or +Inf
// when their dimensions differ.
func Distance(a, b Signature) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Closest compares sig against every reference. ok is true when at least one
// reference lies within tolerance; idx and dist then describe the nearest one.
func Closest(refs []Signature, sig Signature, tolerance float64) (idx int, dist float64, ok bool) {
	idx, dist = -1, math.Inf(1)
	for i, ref := range refs {
		d := Distance(ref, sig)
		if d <= tolerance {
			ok = true
		}
		if d < dist {
			idx, dist = i, d
		}
	}
	if !ok {
		return -1, dist, false
	}
	return idx, dist, true
}

// FaceConfidence converts a descriptor distance into a confidence in [0, 1].
func FaceConfidence(dist float64) float64 {
	c := 1 - dist
	if c < 0 {
		return 0
	}
	return c
}
