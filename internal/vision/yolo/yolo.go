// Package yolo decodes YOLOv8 detector output into person boxes. It has no
// cgo dependencies.
package yolo

import (
	"image"
	"math"
	"sort"
)

const (
	InputSize = 640
	// Anchors is the number of candidate boxes a 640x640 YOLOv8 head emits.
	Anchors = 8400
	// Rows per anchor: cx, cy, w, h and 80 COCO class scores.
	Rows = 84

	personClass = 0
)

// Box is a detection in source image pixels.
type Box struct {
	X1, Y1, X2, Y2 float32
	Score          float32
}

// DecodePersons reads a [1, 84, anchors] output tensor and returns person
// boxes scoring above threshold, scaled from model input space to an image of
// origW x origH.
func DecodePersons(output []float32, anchors int, threshold float32, origW, origH int) []Box {
	if len(output) < Rows*anchors {
		return nil
	}

	scaleW := float32(origW) / InputSize
	scaleH := float32(origH) / InputSize
	scores := output[(4+personClass)*anchors : (5+personClass)*anchors]

	var boxes []Box
	for i := 0; i < anchors; i++ {
		score := scores[i]
		if score <= threshold {
			continue
		}
		cx := output[0*anchors+i]
		cy := output[1*anchors+i]
		w := output[2*anchors+i]
		h := output[3*anchors+i]

		boxes = append(boxes, Box{
			X1:    clampF((cx-w/2)*scaleW, 0, float32(origW)),
			Y1:    clampF((cy-h/2)*scaleH, 0, float32(origH)),
			X2:    clampF((cx+w/2)*scaleW, 0, float32(origW)),
			Y2:    clampF((cy+h/2)*scaleH, 0, float32(origH)),
			Score: score,
		})
	}
	return boxes
}

// NMS performs non-maximum suppression, keeping the highest scoring box of
// every overlapping group.
func NMS(boxes []Box, iouThreshold float32) []Box {
	if len(boxes) == 0 {
		return boxes
	}

	sort.Slice(boxes, func(i, j int) bool {
		return boxes[i].Score > boxes[j].Score
	})

	keep := make([]bool, len(boxes))
	for i := range keep {
		keep[i] = true
	}

	for i := 0; i < len(boxes); i++ {
		if !keep[i] {
			continue
		}
		for j := i + 1; j < len(boxes); j++ {
			if keep[j] && IoU(boxes[i], boxes[j]) > iouThreshold {
				keep[j] = false
			}
		}
	}

	var result []Box
	for i, b := range boxes {
		if keep[i] {
			result = append(result, b)
		}
	}
	return result
}

func IoU(a, b Box) float32 {
	x1 := max(a.X1, b.X1)
	y1 := max(a.Y1, b.Y1)
	x2 := min(a.X2, b.X2)
	y2 := min(a.Y2, b.Y2)

	intersection := max(0, x2-x1) * max(0, y2-y1)
	union := (a.X2-a.X1)*(a.Y2-a.Y1) + (b.X2-b.X1)*(b.Y2-b.Y1) - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}

// Preprocess resizes img to size x size and returns it as CHW float32 RGB
// scaled to [0, 1].
func Preprocess(img image.Image, size int) []float32 {
	resized := resizeNearest(img, size, size)
	b := resized.Bounds()
	w, h := b.Dx(), b.Dy()

	data := make([]float32, 3*h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := resized.At(x+b.Min.X, y+b.Min.Y).RGBA()
			idx := y*w + x
			data[0*h*w+idx] = float32(r>>8) / 255
			data[1*h*w+idx] = float32(g>>8) / 255
			data[2*h*w+idx] = float32(bl>>8) / 255
		}
	}
	return data
}

// resizeNearest performs a nearest-neighbour resize.
func resizeNearest(img image.Image, targetW, targetH int) image.Image {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	if srcW == 0 || srcH == 0 {
		return dst
	}
	for y := 0; y < targetH; y++ {
		for x := 0; x < targetW; x++ {
			dst.Set(x, y, img.At(b.Min.X+x*srcW/targetW, b.Min.Y+y*srcH/targetH))
		}
	}
	return dst
}

func clampF(v, lo, hi float32) float32 {
	return float32(math.Max(float64(lo), math.Min(float64(hi), float64(v))))
}
