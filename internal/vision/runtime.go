package vision

import (
	"fmt"
	"os"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"
)

// InitRuntime loads the ONNX Runtime shared library. FW_ONNX_LIB overrides
// the platform default. Callers must call ort.DestroyEnvironment on exit.
func InitRuntime() error {
	path := os.Getenv("FW_ONNX_LIB")
	if path == "" {
		path = onnxLibPath()
	}
	ort.SetSharedLibraryPath(path)
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("init onnx runtime (%s): %w", path, err)
	}
	return nil
}

func DestroyRuntime() {
	_ = ort.DestroyEnvironment()
}

func onnxLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "linux":
		return "libonnxruntime.so"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "onnxruntime.dll"
	}
}
