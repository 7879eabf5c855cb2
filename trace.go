package crumbz

import (
	"runtime"
)

// Frame is a single call site of a captured technical trace.
type Frame struct {
	PC       uintptr
	File     string
	Line     int
	Function string
}

// defaultTraceDepth bounds the runtime stack walk.
const defaultTraceDepth = 64

// captureTrace records up to depth frames. With skip 0 the first frame is
// the function calling captureTrace.
func captureTrace(skip, depth int) []Frame {
	if depth <= 0 {
		depth = defaultTraceDepth
	}

	// +2 skips runtime.Callers and captureTrace.
	pc := make([]uintptr, depth)
	n := runtime.Callers(skip+2, pc)
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pc[:n])
	out := make([]Frame, 0, n)
	for {
		fr, more := frames.Next()
		out = append(out, Frame{
			PC:       fr.PC,
			File:     fr.File,
			Line:     fr.Line,
			Function: fr.Function,
		})
		if !more {
			break
		}
	}
	return out
}
