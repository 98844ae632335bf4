package vision

import (
	"errors"
	"fmt"
	_ "image/png"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/Kagami/go-face"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/your-org/footwatch/internal/config"
	"github.com/your-org/footwatch/internal/evidence"
	"github.com/your-org/footwatch/internal/observability"
	"github.com/your-org/footwatch/internal/scan"
)

var errNoFace = errors.New("no face found in reference image")

// Pipeline owns the detectors and runs every evidence method over a frame:
// face → body (only when no face matched) → clothing → crops.
type Pipeline struct {
	mu         sync.Mutex // guards recognizer and detector
	recognizer *face.Recognizer
	detector   *PedestrianDetector
	methods    []Method
	cfg        config.VisionConfig
}

// NewPipeline loads the dlib face models from cfg.ModelsDir and the ONNX
// pedestrian model. The ONNX Runtime environment must already be initialised.
// A nil scorer selects PlaceholderScorer.
func NewPipeline(cfg config.VisionConfig, scorer PaletteScorer) (*Pipeline, error) {
	slog.Info("loading face models", "dir", cfg.ModelsDir)
	rec, err := face.NewRecognizer(cfg.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("load face recognizer: %w", err)
	}

	detPath := filepath.Join(cfg.ModelsDir, cfg.PedestrianModel)
	slog.Info("loading pedestrian model", "path", detPath)
	det, err := NewPedestrianDetector(detPath, float32(cfg.BodyThreshold), nil)
	if err != nil {
		rec.Close()
		return nil, fmt.Errorf("load pedestrian detector: %w", err)
	}

	if scorer == nil {
		scorer = PlaceholderScorer{}
	}

	p := &Pipeline{
		recognizer: rec,
		detector:   det,
		cfg:        cfg,
		methods: []Method{
			&faceMethod{rec: rec, useCNN: !cfg.DisableCNN, tolerance: cfg.FaceTolerance, minConfidence: cfg.MinFaceConfidence},
			&bodyMethod{detector: det},
			&clothingMethod{clusters: cfg.ClothingClusters, scorer: scorer},
		},
	}

	slog.Info("vision pipeline ready", "cnn", !cfg.DisableCNN)
	return p, nil
}

// EncodeReference extracts the face signature of a reference photo. Images
// that cannot be decoded or show no face are skipped.
func (p *Pipeline) EncodeReference(data []byte) evidence.Result[evidence.Signature] {
	jpg, err := toJPEG(data)
	if err != nil {
		return evidence.Skipped[evidence.Signature](err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.recognizer == nil {
		return evidence.Failed[evidence.Signature](errors.New("face recognizer closed"))
	}

	faces, err := p.recognizer.Recognize(jpg)
	if err != nil {
		return evidence.Skipped[evidence.Signature](fmt.Errorf("recognize reference: %w", err))
	}
	if len(faces) == 0 {
		return evidence.Skipped[evidence.Signature](errNoFace)
	}
	return evidence.Ok(descriptorSignature(faces[0].Descriptor))
}

func (p *Pipeline) OpenVideo(path string) (scan.Video, error) {
	v, err := openVideo(path)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Analyze runs every method over one frame and attaches a JPEG crop to each
// finding. A failing method is logged and contributes nothing.
func (p *Pipeline) Analyze(frame scan.Frame, refs []evidence.Signature) ([]evidence.Finding, error) {
	f, ok := frame.(*videoFrame)
	if !ok {
		return nil, fmt.Errorf("unsupported frame type %T", frame)
	}
	if f.mat.Empty() {
		return nil, fmt.Errorf("empty frame: %w", scan.ErrFrameDecode)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.recognizer == nil {
		return nil, errors.New("pipeline closed")
	}

	fc := newFrameContext(f.mat)
	var findings []evidence.Finding
	for _, m := range p.methods {
		start := time.Now()
		found, err := m.detect(fc, refs, findings)
		observability.InferenceDuration.WithLabelValues(m.Tag().String()).Observe(time.Since(start).Seconds())
		if err != nil {
			slog.Warn("detection method failed", "method", m.Tag(), "error", err)
			continue
		}
		findings = append(findings, found...)
	}

	start := time.Now()
	kept := findings[:0]
	for _, fd := range findings {
		crop, err := cropJPEG(f.mat, fd.Box, p.cfg.CropMargin, p.cfg.CropQuality)
		if err != nil {
			slog.Warn("crop detection", "method", fd.Method, "error", err)
			continue
		}
		fd.Crop = crop
		kept = append(kept, fd)
	}
	observability.InferenceDuration.WithLabelValues("crop").Observe(time.Since(start).Seconds())

	return kept, nil
}

// Close releases the dlib and ONNX resources.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.recognizer != nil {
		p.recognizer.Close()
		p.recognizer = nil
	}
	if p.detector != nil {
		p.detector.Close()
		p.detector = nil
	}
}
