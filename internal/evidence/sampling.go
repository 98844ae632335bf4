package evidence

import "math"

// MaxScanSeconds caps how much source footage a single scan consumes.
const MaxScanSeconds = 1800

// SamplingInterval returns how many frames to advance between samples.
// Longer videos are sampled more coarsely: every 2s above ten minutes,
// every 1.5s above five minutes, every second otherwise.
func SamplingInterval(totalFrames int, fps float64) int {
	if fps <= 0 {
		return 1
	}
	duration := float64(totalFrames) / fps

	var step float64
	switch {
	case duration > 600:
		step = fps * 2
	case duration > 300:
		step = fps * 1.5
	default:
		step = fps
	}

	n := int(math.Ceil(step))
	if n < 1 {
		return 1
	}
	return n
}

// FrameLimit is the frame index past which scanning stops.
func FrameLimit(fps float64, maxSeconds float64) int {
	if fps <= 0 {
		return math.MaxInt
	}
	return int(fps * maxSeconds)
}

// Timestamp converts a frame index into seconds of video.
func Timestamp(frameIndex int, fps float64) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(frameIndex) / fps
}
