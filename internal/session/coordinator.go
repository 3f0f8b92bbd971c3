// Package session implements the teleprompter session coordinator: the state
// machine that governs how auto-scroll, camera recording, and screen-focus
// transitions interact. It holds no timers of its own; scroll ticks, elapsed
// ticks, and the cool-down all arrive as events from the UI layer, each
// stamped with the instance token that was current when the event was
// scheduled. Events carrying a stale token are discarded, which is what makes
// a callback arriving after a focus reset safe.
package session

import (
	"time"

	"teleprompt/internal/model"
)

// RecordingState is the lifecycle state of the camera recording.
type RecordingState int

// Recording lifecycle: Idle → Requested → Recording → Saving → {Saved, Error},
// then back to Idle after the cool-down.
const (
	Idle RecordingState = iota
	Requested
	Recording
	Saving
	Saved
	Error
)

// String implements fmt.Stringer.
func (s RecordingState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requested:
		return "requested"
	case Recording:
		return "recording"
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Prompter bounds and intervals.
const (
	MinScrollSpeed = 1
	MaxScrollSpeed = 10
	MinFontSize    = 16
	MaxFontSize    = 36

	// ScrollInterval is how often the UI layer delivers a scroll tick while
	// auto-scroll is on.
	ScrollInterval = 50 * time.Millisecond
	// ElapsedInterval is how often the UI layer samples recording elapsed
	// time. Display only; never used for a correctness decision.
	ElapsedInterval = 100 * time.Millisecond
	// CoolDown is the delay after Saved or Error before the automatic return
	// to Idle.
	CoolDown = 2 * time.Second
)

// Snapshot is a read-only copy of the coordinator state for rendering.
type Snapshot struct {
	Script         *model.Script
	State          RecordingState
	ScrollSpeed    int
	FontSize       int
	IsScrolling    bool
	ScrollPosition int
	Elapsed        time.Duration
	CameraReady    bool
	Token          uint64
	Err            error
}

// Coordinator owns the live state of one teleprompter session. All methods
// are called from a single goroutine (the UI event loop); completions of
// asynchronous device and store calls re-enter through token-stamped events.
type Coordinator struct {
	script      *model.Script
	state       RecordingState
	scrollSpeed int
	fontSize    int
	scrolling   bool
	position    int
	elapsed     time.Duration
	cameraReady bool
	token       uint64
	err         error
}

// New returns a Coordinator for the given script with settings clamped to
// their documented bounds. A nil script is allowed; it only blocks recording.
func New(script *model.Script, scrollSpeed, fontSize int) *Coordinator {
	return &Coordinator{
		script:      script,
		scrollSpeed: clamp(scrollSpeed, MinScrollSpeed, MaxScrollSpeed),
		fontSize:    clamp(fontSize, MinFontSize, MaxFontSize),
		token:       1,
	}
}

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() Snapshot {
	return Snapshot{
		Script:         c.script,
		State:          c.state,
		ScrollSpeed:    c.scrollSpeed,
		FontSize:       c.fontSize,
		IsScrolling:    c.scrolling,
		ScrollPosition: c.position,
		Elapsed:        c.elapsed,
		CameraReady:    c.cameraReady,
		Token:          c.token,
		Err:            c.err,
	}
}

// Token returns the current camera instance token. Every asynchronous
// completion and timer event must carry the token that was current when the
// operation was issued.
func (c *Coordinator) Token() uint64 {
	return c.token
}

// current reports whether an event stamped with token belongs to this
// session instance.
func (c *Coordinator) current(token uint64) bool {
	return token == c.token
}

// StartRecording checks the recording preconditions in order and, if all
// hold, moves Idle → Requested. On a precondition failure the state stays
// Idle, only the error field is set, and the distinct precondition error is
// returned. Calling it outside Idle returns ErrSessionBusy and changes
// nothing.
func (c *Coordinator) StartRecording(perms Permissions) error {
	if c.state != Idle {
		return ErrSessionBusy
	}
	var err error
	switch {
	case c.script == nil:
		err = ErrNoScript
	case !perms.Camera:
		err = ErrCameraPermission
	case !perms.Microphone:
		err = ErrMicPermission
	case !perms.MediaLibrary:
		err = ErrMediaPermission
	case !c.cameraReady:
		err = ErrCameraNotReady
	}
	if err != nil {
		c.err = err
		return err
	}
	c.state = Requested
	c.err = nil
	c.elapsed = 0
	return nil
}

// CameraReady marks the camera instance identified by token as ready.
func (c *Coordinator) CameraReady(token uint64) bool {
	if !c.current(token) {
		return false
	}
	c.cameraReady = true
	return true
}

// CaptureStarted moves Requested → Recording once the device acknowledges
// the start. The elapsed counter begins at zero.
func (c *Coordinator) CaptureStarted(token uint64) bool {
	if !c.current(token) || c.state != Requested {
		return false
	}
	c.state = Recording
	c.elapsed = 0
	return true
}

// StopRecording is the user-issued stop: Recording → Saving. The elapsed
// counter stops and resets as part of entering Saving.
func (c *Coordinator) StopRecording() bool {
	if c.state != Recording {
		return false
	}
	c.enterSaving()
	return true
}

// LimitReached handles the device stopping on its own hard limits (maximum
// duration or file size). This is normal completion, not an error.
func (c *Coordinator) LimitReached(token uint64) bool {
	if !c.current(token) || c.state != Recording {
		return false
	}
	c.enterSaving()
	return true
}

func (c *Coordinator) enterSaving() {
	c.state = Saving
	c.elapsed = 0
}

// ClipSaved moves Saving → Saved after the library accepts the clip.
func (c *Coordinator) ClipSaved(token uint64) bool {
	if !c.current(token) || c.state != Saving {
		return false
	}
	c.state = Saved
	return true
}

// Fail records a capture or save failure during Requested, Recording, or
// Saving and lands in Error. The elapsed counter stops with it.
func (c *Coordinator) Fail(token uint64, err error) bool {
	if !c.current(token) {
		return false
	}
	switch c.state {
	case Requested, Recording, Saving:
		c.state = Error
		c.err = err
		c.elapsed = 0
		return true
	default:
		return false
	}
}

// CoolDownElapsed returns the session to Idle after a terminal outcome.
func (c *Coordinator) CoolDownElapsed(token uint64) bool {
	if !c.current(token) {
		return false
	}
	if c.state != Saved && c.state != Error {
		return false
	}
	c.state = Idle
	c.err = nil
	return true
}

// FocusLost performs the unconditional hard reset for a screen losing focus:
// state to Idle, camera instance invalidated (token incremented, ready flag
// cleared), scrolling stopped. An in-flight recording is abandoned without
// passing through Saving; the caller must request a device stop before
// discarding the instance so the hardware does not keep capturing. The new
// token is returned.
func (c *Coordinator) FocusLost() uint64 {
	c.token++
	c.state = Idle
	c.err = nil
	c.elapsed = 0
	c.scrolling = false
	c.cameraReady = false
	return c.token
}

// FocusGained starts a fresh session on the current instance. The camera is
// not ready until the new instance signals readiness.
func (c *Coordinator) FocusGained() uint64 {
	c.cameraReady = false
	c.state = Idle
	c.err = nil
	c.elapsed = 0
	return c.token
}

// ElapsedTick advances the display elapsed counter. Only meaningful while
// Recording; ticks from a superseded instance or any other state are no-ops.
func (c *Coordinator) ElapsedTick(token uint64, delta time.Duration) bool {
	if !c.current(token) || c.state != Recording {
		return false
	}
	c.elapsed += delta
	return true
}

// ToggleScroll flips auto-scroll and reports the new value. Turning
// scrolling off makes any still-scheduled tick a no-op.
func (c *Coordinator) ToggleScroll() bool {
	c.scrolling = !c.scrolling
	return c.scrolling
}

// ScrollTick advances the scroll position by the current speed. No-op when
// scrolling is off or the token is stale, so position never moves after a
// stop even if a tick was already in flight.
func (c *Coordinator) ScrollTick(token uint64) bool {
	if !c.current(token) || !c.scrolling {
		return false
	}
	c.position += c.scrollSpeed
	return true
}

// ResetScroll stops auto-scroll first, then forces the position to zero.
func (c *Coordinator) ResetScroll() {
	c.scrolling = false
	c.position = 0
}

// IncreaseSpeed raises the scroll speed, clamped to the maximum.
func (c *Coordinator) IncreaseSpeed() {
	c.scrollSpeed = clamp(c.scrollSpeed+1, MinScrollSpeed, MaxScrollSpeed)
}

// DecreaseSpeed lowers the scroll speed; at the minimum it is a no-op.
func (c *Coordinator) DecreaseSpeed() {
	c.scrollSpeed = clamp(c.scrollSpeed-1, MinScrollSpeed, MaxScrollSpeed)
}

// IncreaseFont raises the font size, clamped to the maximum.
func (c *Coordinator) IncreaseFont() {
	c.fontSize = clamp(c.fontSize+1, MinFontSize, MaxFontSize)
}

// DecreaseFont lowers the font size; at the minimum it is a no-op.
func (c *Coordinator) DecreaseFont() {
	c.fontSize = clamp(c.fontSize-1, MinFontSize, MaxFontSize)
}

// SelectScript replaces the script driving this session and rewinds the
// scroll. Recording state is untouched; selection is refused mid-recording
// by the UI layer.
func (c *Coordinator) SelectScript(script *model.Script) {
	c.script = script
	c.ResetScroll()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
