package vision

import (
	"fmt"
	"image"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/your-org/footwatch/internal/vision/yolo"
)

const personNMSThreshold = 0.45

// PedestrianDetector runs a YOLOv8 person detector using ONNX Runtime.
type PedestrianDetector struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	threshold    float32
}

// NewPedestrianDetector loads a YOLOv8 ONNX export with a single "images"
// input of [1,3,640,640] and an "output0" of [1,84,8400].
// opts may be nil (ORT defaults) or a pre-configured *ort.SessionOptions.
func NewPedestrianDetector(modelPath string, threshold float32, opts *ort.SessionOptions) (*PedestrianDetector, error) {
	inputShape := ort.NewShape(1, 3, yolo.InputSize, yolo.InputSize)
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	outputShape := ort.NewShape(1, yolo.Rows, yolo.Anchors)
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"images"},
		[]string{"output0"},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		opts,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create pedestrian session: %w", err)
	}

	return &PedestrianDetector{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		threshold:    threshold,
	}, nil
}

// Detect returns person boxes in img's pixel space, highest score first.
// Callers must serialise access; the tensors are reused between runs.
func (d *PedestrianDetector) Detect(img image.Image) ([]yolo.Box, error) {
	b := img.Bounds()
	copy(d.inputTensor.GetData(), yolo.Preprocess(img, yolo.InputSize))

	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("run pedestrian detection: %w", err)
	}

	boxes := yolo.DecodePersons(d.outputTensor.GetData(), yolo.Anchors, d.threshold, b.Dx(), b.Dy())
	return yolo.NMS(boxes, personNMSThreshold), nil
}

func (d *PedestrianDetector) Close() {
	if d.session != nil {
		d.session.Destroy()
	}
	if d.inputTensor != nil {
		d.inputTensor.Destroy()
	}
	if d.outputTensor != nil {
		d.outputTensor.Destroy()
	}
}
