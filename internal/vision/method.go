package vision

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/your-org/footwatch/internal/evidence"
)

// Method is one evidence heuristic. The set is closed: detect is unexported,
// so every implementation lives in this package.
type Method interface {
	Tag() evidence.Method
	// detect returns this method's findings for one frame. prior holds the
	// findings of methods that ran earlier on the same frame.
	detect(fc *frameContext, refs []evidence.Signature, prior []evidence.Finding) ([]evidence.Finding, error)
}

// frameContext is the per-frame state shared by all methods.
type frameContext struct {
	mat    gocv.Mat
	width  int
	height int
	img    image.Image
}

func newFrameContext(mat gocv.Mat) *frameContext {
	return &frameContext{mat: mat, width: mat.Cols(), height: mat.Rows()}
}

// image converts the frame to an image.Image once and caches it.
func (fc *frameContext) image() (image.Image, error) {
	if fc.img != nil {
		return fc.img, nil
	}
	img, err := fc.mat.ToImage()
	if err != nil {
		return nil, err
	}
	fc.img = img
	return img, nil
}
