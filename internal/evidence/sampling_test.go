package evidence

import "testing"

func TestSamplingInterval(t *testing.T) {
	tests := []struct {
		name        string
		totalFrames int
		fps         float64
		want        int
	}{
		{"long video samples every 2s", 700 * 30, 30, 60},
		{"medium video samples every 1.5s", 400 * 30, 30, 45},
		{"short video samples every second", 200 * 30, 30, 30},
		{"exactly ten minutes is medium", 600 * 30, 30, 45},
		{"exactly five minutes is short", 300 * 30, 30, 30},
		{"fractional fps rounds up", 700 * 30, 29.97, 60},
		{"unknown fps", 1000, 0, 1},
		{"very low fps", 10, 0.2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SamplingInterval(tt.totalFrames, tt.fps)
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestFrameLimit(t *testing.T) {
	if got := FrameLimit(30, MaxScanSeconds); got != 54000 {
		t.Errorf("expected 54000, got %d", got)
	}
	if got := FrameLimit(0, MaxScanSeconds); got <= 0 {
		t.Errorf("expected unlimited frames for unknown fps, got %d", got)
	}
}

func TestTimestamp(t *testing.T) {
	if got := Timestamp(90, 30); got != 3 {
		t.Errorf("expected 3, got %f", got)
	}
	if got := Timestamp(90, 0); got != 0 {
		t.Errorf("expected 0 for unknown fps, got %f", got)
	}
}
