package evidence

// Outcome classifies how one unit of work (an image, a frame, a write) ended.
type Outcome int

const (
	// OK means the item produced a usable value.
	OK Outcome = iota
	// Skip means the item is unusable but the job continues.
	Skip
	// Fatal means the job cannot continue.
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case Skip:
		return "skip"
	case Fatal:
		return "fatal"
	}
	return "unknown"
}

// Result is the per-item outcome used instead of error-driven control flow.
type Result[T any] struct {
	Value   T
	Outcome Outcome
	Err     error
}

func Ok[T any](v T) Result[T] { return Result[T]{Value: v, Outcome: OK} }

func Skipped[T any](err error) Result[T] { return Result[T]{Outcome: Skip, Err: err} }

func Failed[T any](err error) Result[T] { return Result[T]{Outcome: Fatal, Err: err} }
