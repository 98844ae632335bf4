package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"gocv.io/x/gocv"

	"github.com/your-org/footwatch/internal/evidence"
	"github.com/your-org/footwatch/internal/models"
)

const (
	claheClipLimit = 2.0
	claheTiles     = 8
	// detectorJPEGQuality is used for frames handed to the face detector.
	detectorJPEGQuality = 95
)

// enhance equalises local contrast on the lightness channel so faces in dim
// or backlit footage are easier to detect. The caller closes the result.
func enhance(src gocv.Mat) gocv.Mat {
	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(src, &lab, gocv.ColorBGRToLab)

	channels := gocv.Split(lab)
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()

	clahe := gocv.NewCLAHEWithParams(claheClipLimit, image.Pt(claheTiles, claheTiles))
	defer clahe.Close()

	lightness := gocv.NewMat()
	clahe.Apply(channels[0], &lightness)
	channels[0].Close()
	channels[0] = lightness

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge(channels, &merged)

	out := gocv.NewMat()
	gocv.CvtColor(merged, &out, gocv.ColorLabToBGR)
	return out
}

func encodeJPEG(mat gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// cropJPEG encodes box grown by margin pixels, clamped to the frame.
func cropJPEG(mat gocv.Mat, box models.Box, margin, quality int) ([]byte, error) {
	b := evidence.Expand(box, margin, mat.Cols(), mat.Rows())
	if evidence.Empty(b) {
		return nil, fmt.Errorf("empty crop region %+v", b)
	}
	roi := mat.Region(boxRect(b))
	defer roi.Close()
	return encodeJPEG(roi, quality)
}

// toJPEG returns data unchanged when it is already a JPEG and re-encodes any
// other registered format (png, webp, bmp).
func toJPEG(data []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if format == "jpeg" {
		return data, nil
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: detectorJPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func boxRect(b models.Box) image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right, b.Bottom)
}

func rectBox(r image.Rectangle) models.Box {
	return models.Box{Top: r.Min.Y, Right: r.Max.X, Bottom: r.Max.Y, Left: r.Min.X}
}
