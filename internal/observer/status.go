// SPDX-License-Identifier: MIT
package observer

// Status is the value OnBlock hands back to the audio host. Zero means the
// block was handled (or there was nothing to do); anything else is fatal for
// that invocation only.
type Status int32

const (
	StatusOK            Status = 0
	StatusInvalidFrames Status = 1 // frames <= 0
	StatusBufferError   Status = 2 // the port could not supply a buffer
	StatusShortBuffer   Status = 3 // the buffer holds fewer than frames samples
	StatusFault         Status = 4 // the port or sink panicked
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidFrames:
		return "invalid frame count"
	case StatusBufferError:
		return "buffer unavailable"
	case StatusShortBuffer:
		return "short buffer"
	case StatusFault:
		return "fault"
	default:
		return "unknown"
	}
}
