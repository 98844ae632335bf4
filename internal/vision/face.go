package vision

import (
	"fmt"
	"log/slog"

	"github.com/Kagami/go-face"

	"github.com/your-org/footwatch/internal/evidence"
	"github.com/your-org/footwatch/internal/models"
)

type faceMethod struct {
	rec           *face.Recognizer
	useCNN        bool
	tolerance     float64
	minConfidence float64
}

func (m *faceMethod) Tag() evidence.Method { return evidence.MethodFace }

func (m *faceMethod) detect(fc *frameContext, refs []evidence.Signature, _ []evidence.Finding) ([]evidence.Finding, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	enhanced := enhance(fc.mat)
	defer enhanced.Close()

	jpg, err := encodeJPEG(enhanced, detectorJPEGQuality)
	if err != nil {
		return nil, err
	}

	faces, err := m.rec.Recognize(jpg)
	if err != nil {
		return nil, fmt.Errorf("hog detect: %w", err)
	}
	if m.useCNN {
		cnn, err := m.rec.RecognizeCNN(jpg)
		if err != nil {
			slog.Warn("cnn face detection failed, using hog faces only", "error", err)
		} else {
			faces = append(faces, cnn...)
		}
	}
	faces = evidence.UniqueBoxes(faces, func(f face.Face) models.Box { return rectBox(f.Rectangle) })

	var findings []evidence.Finding
	for _, f := range faces {
		sig := descriptorSignature(f.Descriptor)
		_, dist, ok := evidence.Closest(refs, sig, m.tolerance)
		if !ok {
			continue
		}
		conf := evidence.FaceConfidence(dist)
		if !evidence.AcceptFace(conf, m.minConfidence) {
			continue
		}
		findings = append(findings, evidence.NewFaceFinding(rectBox(f.Rectangle), conf, sig))
	}
	return findings, nil
}

func descriptorSignature(d face.Descriptor) evidence.Signature {
	sig := make(evidence.Signature, len(d))
	copy(sig, d[:])
	return sig
}
