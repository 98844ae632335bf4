package vision

import (
	"fmt"
	"io"

	"gocv.io/x/gocv"

	"github.com/your-org/footwatch/internal/scan"
)

type videoFrame struct {
	mat gocv.Mat
}

func (f *videoFrame) Close() error { return f.mat.Close() }

// videoReader decodes a local video file sequentially.
type videoReader struct {
	capture *gocv.VideoCapture
	fps     float64
	frames  int
	pos     int
}

func openVideo(path string) (*videoReader, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("open video %s: not readable", path)
	}

	return &videoReader{
		capture: capture,
		fps:     capture.Get(gocv.VideoCaptureFPS),
		frames:  int(capture.Get(gocv.VideoCaptureFrameCount)),
	}, nil
}

func (v *videoReader) FPS() float64    { return v.fps }
func (v *videoReader) FrameCount() int { return v.frames }

// Skip grabs n frames without decoding them. The end of the stream surfaces on
// the next Read.
func (v *videoReader) Skip(n int) error {
	if n <= 0 {
		return nil
	}
	v.capture.Grab(n)
	v.pos += n
	return nil
}

func (v *videoReader) Read() (scan.Frame, error) {
	mat := gocv.NewMat()
	if ok := v.capture.Read(&mat); !ok {
		mat.Close()
		return nil, io.EOF
	}
	idx := v.pos
	v.pos++
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("frame %d: %w", idx, scan.ErrFrameDecode)
	}
	return &videoFrame{mat: mat}, nil
}

func (v *videoReader) Close() error {
	return v.capture.Close()
}
