package session

import "errors"

// Start-recording precondition failures. Each is surfaced to the user as its
// own message and leaves the recording state at Idle.
var (
	ErrNoScript         = errors.New("no script selected")
	ErrCameraPermission = errors.New("camera permission denied")
	ErrMicPermission    = errors.New("microphone permission denied")
	ErrMediaPermission  = errors.New("media library permission denied")
	ErrCameraNotReady   = errors.New("camera is not ready yet")
)

// ErrSessionBusy is returned by StartRecording when a recording lifecycle is
// already underway. The session state is untouched.
var ErrSessionBusy = errors.New("a recording is already in progress")

// Permissions reports which capture resources the session may use. It is
// produced by the capture probe and checked, in order, before recording.
type Permissions struct {
	Camera       bool
	Microphone   bool
	MediaLibrary bool
}
