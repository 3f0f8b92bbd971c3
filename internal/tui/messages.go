package tui

import (
	"teleprompt/internal/capture"
	"teleprompt/internal/model"
)

// scriptsLoadedMsg carries the script list for the browser.
type scriptsLoadedMsg struct {
	scripts []model.Script
	err     error
}

// scriptSavedMsg is sent after a create or update completes.
type scriptSavedMsg struct {
	err error
}

// scriptDeletedMsg is sent after a delete completes.
type scriptDeletedMsg struct {
	err error
}

// scriptSelectedMsg is sent once a script has been persisted as selected.
type scriptSelectedMsg struct {
	script model.Script
	err    error
}

// selectedLoadedMsg carries the selected script when the prompter gains focus.
type selectedLoadedMsg struct {
	token  uint64
	script *model.Script
	err    error
}

// cameraReadyMsg signals that the camera instance identified by token is
// ready to record.
type cameraReadyMsg struct {
	token uint64
}

// scrollTickMsg advances auto-scroll. Stale tokens are discarded, and seq
// identifies the tick chain: a tick from a chain superseded by a later
// toggle is discarded too, so only one chain ever advances the position.
type scrollTickMsg struct {
	token uint64
	seq   uint64
}

// elapsedTickMsg advances the recording elapsed display. seq plays the same
// role as on scrollTickMsg, scoped to one recording's tick chain.
type elapsedTickMsg struct {
	token uint64
	seq   uint64
}

// coolDownMsg fires after a terminal recording outcome to return to idle.
type coolDownMsg struct {
	token uint64
}

// captureStartedMsg reports the device acknowledging (or refusing) a start.
type captureStartedMsg struct {
	token uint64
	err   error
}

// captureStopRequestedMsg reports the outcome of asking the device to stop.
type captureStopRequestedMsg struct {
	token uint64
	err   error
}

// captureDoneMsg delivers the device's single completion result.
type captureDoneMsg struct {
	token  uint64
	result capture.Result
}

// clipSavedMsg reports the library accepting or rejecting the finished clip.
type clipSavedMsg struct {
	token     uint64
	recording model.Recording
	err       error
}

// recordingsLoadedMsg carries the recording list for the browser.
type recordingsLoadedMsg struct {
	recordings []model.Recording
	err        error
}

// recordingDeletedMsg is sent after a recording delete completes.
type recordingDeletedMsg struct {
	err error
}

// playbackDoneMsg is sent when the external player exits.
type playbackDoneMsg struct {
	err error
}
