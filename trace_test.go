package crumbz

import (
	"strings"
	"testing"
)

func TestCaptureTrace(t *testing.T) {
	frames := captureTrace(0, 0)
	if len(frames) == 0 {
		t.Fatal("Expected frames")
	}
	if !strings.HasSuffix(frames[0].Function, "TestCaptureTrace") {
		t.Errorf("Expected first frame in TestCaptureTrace, got %s", frames[0].Function)
	}
	if frames[0].Line == 0 || frames[0].File == "" {
		t.Errorf("Expected file and line, got %+v", frames[0])
	}
}

func TestCaptureTraceDepth(t *testing.T) {
	if n := len(captureTrace(0, 1)); n != 1 {
		t.Errorf("Expected 1 frame, got %d", n)
	}
}
