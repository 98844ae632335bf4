// Package evidence holds the detector-independent vocabulary of the analysis
// pipeline: method tags, findings, face signatures, box geometry and frame
// sampling. It has no cgo dependencies so the scan job and its tests can use
// it without OpenCV or dlib installed.
package evidence

import "fmt"

// Method identifies the heuristic that produced a finding. The set is closed;
// adding a method means adding a constant here and an implementation in the
// vision package.
type Method int

const (
	MethodFace Method = iota
	MethodBody
	MethodClothing
)

// Methods lists every method in the order the extractor runs them.
var Methods = []Method{MethodFace, MethodBody, MethodClothing}

func (m Method) String() string {
	switch m {
	case MethodFace:
		return "face_recognition_enhanced"
	case MethodBody:
		return "body_detection"
	case MethodClothing:
		return "clothing_analysis"
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// ParseMethod maps a persisted method tag back to its Method.
func ParseMethod(tag string) (Method, error) {
	for _, m := range Methods {
		if m.String() == tag {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown analysis method %q", tag)
}
