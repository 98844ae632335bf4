package vision

import (
	"github.com/your-org/footwatch/internal/evidence"
	"github.com/your-org/footwatch/internal/models"
)

// bodyMethod is the fallback for frames where no face matched.
type bodyMethod struct {
	detector *PedestrianDetector
}

func (m *bodyMethod) Tag() evidence.Method { return evidence.MethodBody }

func (m *bodyMethod) detect(fc *frameContext, _ []evidence.Signature, prior []evidence.Finding) ([]evidence.Finding, error) {
	if m.detector == nil || !evidence.BodyAllowed(prior) {
		return nil, nil
	}

	img, err := fc.image()
	if err != nil {
		return nil, err
	}
	boxes, err := m.detector.Detect(img)
	if err != nil {
		return nil, err
	}

	findings := make([]evidence.Finding, 0, len(boxes))
	for _, b := range boxes {
		box := models.Box{Top: int(b.Y1), Right: int(b.X2), Bottom: int(b.Y2), Left: int(b.X1)}
		if evidence.Empty(box) {
			continue
		}
		findings = append(findings, evidence.NewBodyFinding(box, float64(b.Score)))
	}
	return findings, nil
}
