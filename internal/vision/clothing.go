package vision

import (
	"fmt"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/your-org/footwatch/internal/evidence"
	"github.com/your-org/footwatch/internal/models"
)

// PaletteScorer rates how well a frame's dominant colours fit the missing
// person's clothing.
type PaletteScorer interface {
	Score(palette []color.RGBA) float64
}

// PlaceholderScorer gives every palette the same low score until clothing
// descriptions are available on cases.
type PlaceholderScorer struct{}

func (PlaceholderScorer) Score([]color.RGBA) float64 { return 0.3 }

type clothingMethod struct {
	clusters int
	scorer   PaletteScorer
}

func (m *clothingMethod) Tag() evidence.Method { return evidence.MethodClothing }

func (m *clothingMethod) detect(fc *frameContext, _ []evidence.Signature, _ []evidence.Finding) ([]evidence.Finding, error) {
	box := evidence.CenterRegion(fc.width, fc.height)
	if evidence.Empty(box) {
		return nil, nil
	}

	// The palette covers the whole frame; the finding is reported on the centre.
	frame := models.Box{Right: fc.width, Bottom: fc.height}
	palette, err := dominantColors(fc.mat, frame, m.clusters)
	if err != nil {
		return nil, err
	}

	score := m.scorer.Score(palette)
	if !evidence.AcceptClothing(score) {
		return nil, nil
	}
	return []evidence.Finding{evidence.NewClothingFinding(box, score)}, nil
}

// dominantColors clusters the pixels inside box into k colours with k-means.
func dominantColors(mat gocv.Mat, box models.Box, k int) ([]color.RGBA, error) {
	roi := mat.Region(boxRect(box))
	defer roi.Close()
	region := roi.Clone()
	defer region.Close()

	pixels := region.Rows() * region.Cols()
	if pixels < k {
		return nil, fmt.Errorf("region has %d pixels, need at least %d", pixels, k)
	}

	samples := region.Reshape(1, pixels)
	defer samples.Close()
	data := gocv.NewMat()
	defer data.Close()
	samples.ConvertTo(&data, gocv.MatTypeCV32F)

	labels := gocv.NewMat()
	defer labels.Close()
	centers := gocv.NewMat()
	defer centers.Close()

	criteria := gocv.NewTermCriteria(gocv.Count|gocv.EPS, 20, 1.0)
	gocv.KMeans(data, k, &labels, criteria, 10, gocv.KMeansRandomCenters, &centers)

	palette := make([]color.RGBA, 0, centers.Rows())
	for i := 0; i < centers.Rows(); i++ {
		palette = append(palette, color.RGBA{
			B: channel(centers.GetFloatAt(i, 0)),
			G: channel(centers.GetFloatAt(i, 1)),
			R: channel(centers.GetFloatAt(i, 2)),
			A: 255,
		})
	}
	return palette, nil
}

func channel(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
