package scan

import "errors"

var (
	// ErrMissingSourceFile means the footage video is absent or cannot be read.
	ErrMissingSourceFile = errors.New("source video missing")
	// ErrNoUsableSignatures means no reference image produced a face signature.
	ErrNoUsableSignatures = errors.New("no usable reference signatures")
	// ErrFrameDecode means a frame could not be read mid-scan.
	ErrFrameDecode = errors.New("frame decode failed")
	// ErrPersistence means a crop upload or detection insert failed.
	ErrPersistence = errors.New("persist detection")
)
