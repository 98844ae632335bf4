package evidence

import "github.com/your-org/footwatch/internal/models"

// CropMargin is the padding in pixels added around a box before cropping.
const CropMargin = 20

// UniqueBoxes keeps the first item for every distinct box, preserving order.
// Boxes are compared by exact equality.
func UniqueBoxes[T any](items []T, box func(T) models.Box) []T {
	seen := make(map[models.Box]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		b := box(it)
		if _, dup := seen[b]; dup {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Expand grows b by margin on every side and clamps it to a width x height frame.
func Expand(b models.Box, margin, width, height int) models.Box {
	return models.Box{
		Top:    clampInt(b.Top-margin, 0, height),
		Right:  clampInt(b.Right+margin, 0, width),
		Bottom: clampInt(b.Bottom+margin, 0, height),
		Left:   clampInt(b.Left-margin, 0, width),
	}
}

// CenterRegion is the fixed central box used by the clothing heuristic.
func CenterRegion(width, height int) models.Box {
	return models.Box{
		Top:    height / 4,
		Right:  width * 3 / 4,
		Bottom: height * 3 / 4,
		Left:   width / 4,
	}
}

// Empty reports whether b covers no pixels.
func Empty(b models.Box) bool {
	return b.Width() <= 0 || b.Height() <= 0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
