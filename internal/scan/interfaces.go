package scan

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/footwatch/internal/evidence"
	"github.com/your-org/footwatch/internal/models"
)

// Frame is a decoded video frame owned by the caller until closed.
type Frame interface {
	Close() error
}

// Video is a sequential frame source.
type Video interface {
	FPS() float64
	FrameCount() int
	// Skip advances past n frames without decoding them. It returns io.EOF at
	// the end of the stream.
	Skip(n int) error
	// Read decodes the next frame. It returns io.EOF at the end of the stream
	// and an error wrapping ErrFrameDecode when the frame is unreadable.
	Read() (Frame, error)
	Close() error
}

// Extractor turns reference photos into signatures and frames into findings.
type Extractor interface {
	EncodeReference(data []byte) evidence.Result[evidence.Signature]
	OpenVideo(path string) (Video, error)
	Analyze(frame Frame, refs []evidence.Signature) ([]evidence.Finding, error)
}

type Store interface {
	ClaimMatch(ctx context.Context, id uuid.UUID, startedAt time.Time) (*models.Match, error)
	ResetMatch(ctx context.Context, id uuid.UUID) (bool, error)
	// ReleaseMatch returns a processing match to pending without touching
	// its summary.
	ReleaseMatch(ctx context.Context, id uuid.UUID) error
	GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error)
	GetFootage(ctx context.Context, id uuid.UUID) (*models.Footage, error)
	CreateDetection(ctx context.Context, d *models.Detection) error
	CompleteMatch(ctx context.Context, id uuid.UUID, res models.MatchResult, completedAt time.Time) error
	FailMatch(ctx context.Context, id uuid.UUID, completedAt time.Time) error
	MarkFootageProcessed(ctx context.Context, id uuid.UUID) error
}

type Blob interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Download(ctx context.Context, key, path string) error
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// Notifier publishes match lifecycle events.
type Notifier interface {
	PublishMatchEvent(ctx context.Context, evt models.MatchEvent) error
}

// ProgressFunc receives the number of sampled frames analysed so far and the
// expected total.
type ProgressFunc func(done, total int)
