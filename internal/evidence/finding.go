package evidence

import "github.com/your-org/footwatch/internal/models"

// Finding is one accepted detection in a single frame, before it is persisted.
type Finding struct {
	Method        Method
	Confidence    float64
	FaceScore     *float64
	ClothingScore *float64
	Box           models.Box
	Signature     Signature // face findings only
	Crop          []byte    // JPEG of Box expanded by the crop margin
}

// ContainsMethod reports whether any finding was produced by m.
func ContainsMethod(findings []Finding, m Method) bool {
	for _, f := range findings {
		if f.Method == m {
			return true
		}
	}
	return false
}

func score(v float64) *float64 { return &v }

// NewFaceFinding builds a face finding; the face score equals the confidence.
func NewFaceFinding(box models.Box, confidence float64, sig Signature) Finding {
	return Finding{Method: MethodFace, Confidence: confidence, FaceScore: score(confidence), Box: box, Signature: sig}
}

func NewBodyFinding(box models.Box, weight float64) Finding {
	return Finding{Method: MethodBody, Confidence: weight, Box: box}
}

// NewClothingFinding builds a clothing finding; the clothing score equals the confidence.
func NewClothingFinding(box models.Box, confidence float64) Finding {
	return Finding{Method: MethodClothing, Confidence: confidence, ClothingScore: score(confidence), Box: box}
}

// ClothingThreshold is the clothing score a palette must exceed to be kept.
const ClothingThreshold = 0.25

// BodyAllowed reports whether body detection runs on a frame. It only runs
// when no face was accepted there.
func BodyAllowed(prior []Finding) bool {
	return !ContainsMethod(prior, MethodFace)
}

// AcceptFace reports whether a face match is confident enough to keep.
func AcceptFace(confidence, minConfidence float64) bool {
	return confidence > minConfidence
}

func AcceptClothing(score float64) bool {
	return score > ClothingThreshold
}
