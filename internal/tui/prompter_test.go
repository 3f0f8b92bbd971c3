package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"teleprompt/internal/capture"
	"teleprompt/internal/library"
	"teleprompt/internal/model"
	"teleprompt/internal/scriptstore"
	"teleprompt/internal/session"
)

// fakeDevice is an in-memory capture device. The test feeds its done channel
// to stand in for recordings finishing.
type fakeDevice struct {
	startErr error
	started  bool
	stopped  bool
	closed   bool
	done     chan capture.Result
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{done: make(chan capture.Result, 1)}
}

func (d *fakeDevice) Start(_ context.Context, _ capture.Options) error {
	d.started = true
	return d.startErr
}

func (d *fakeDevice) Stop(_ context.Context) error {
	d.stopped = true
	return nil
}

func (d *fakeDevice) Done() <-chan capture.Result {
	return d.done
}

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

func allPerms() session.Permissions {
	return session.Permissions{Camera: true, Microphone: true, MediaLibrary: true}
}

func newTestPrompter(t *testing.T) (*prompterModel, *fakeDevice) {
	t.Helper()
	dir := t.TempDir()
	store, err := scriptstore.Open(filepath.Join(dir, "scripts.db"))
	if err != nil {
		t.Fatalf("failed to open script store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	lib, err := library.Open(filepath.Join(dir, "recordings"), filepath.Join(dir, "library.db"))
	if err != nil {
		t.Fatalf("failed to open library: %v", err)
	}
	t.Cleanup(func() { _ = lib.Close() })

	fake := newFakeDevice()
	m := newPrompterModel(store, lib, Settings{
		ScrollSpeed: 5,
		FontSize:    24,
		NewDevice:   func() capture.Device { return fake },
		Probe:       allPerms,
	})
	m.focus()
	return m, fake
}

// armPrompter brings the model to idle with a script loaded and the camera
// ready, as after a successful focus.
func armPrompter(t *testing.T, m *prompterModel) {
	t.Helper()
	token := m.coord.Token()
	m.Update(selectedLoadedMsg{token: token, script: &model.Script{ID: "s1", Title: "Intro", Content: "hello world"}})
	m.Update(cameraReadyMsg{token: token})
}

func recordKey() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}
}

func spaceKey() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(" ")}
}

// makeClip writes a fake finished recording to disk and returns its path.
func makeClip(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatalf("failed to write clip: %v", err)
	}
	return path
}

func startRecording(t *testing.T, m *prompterModel, fake *fakeDevice) {
	t.Helper()
	armPrompter(t, m)
	cmd := m.Update(recordKey())
	if cmd == nil {
		t.Fatalf("expected a start command, got none")
	}
	msg := cmd()
	started, ok := msg.(captureStartedMsg)
	if !ok {
		t.Fatalf("expected captureStartedMsg, got %T", msg)
	}
	if !fake.started {
		t.Fatalf("expected the device to be started")
	}
	m.Update(started)
	if got := m.coord.Snapshot().State; got != session.Recording {
		t.Fatalf("expected Recording, got %v", got)
	}
}

func TestRecordThenUserStopSavesClip(t *testing.T) {
	m, fake := newTestPrompter(t)
	startRecording(t, m, fake)
	token := m.coord.Token()

	cmd := m.Update(recordKey())
	if cmd == nil {
		t.Fatalf("expected a stop command, got none")
	}
	if got := m.coord.Snapshot().State; got != session.Saving {
		t.Fatalf("expected Saving after stop, got %v", got)
	}
	msg := cmd()
	stopped, ok := msg.(captureStopRequestedMsg)
	if !ok {
		t.Fatalf("expected captureStopRequestedMsg, got %T", msg)
	}
	if !fake.stopped {
		t.Fatalf("expected the device to be stopped")
	}
	m.Update(stopped)

	clip := makeClip(t, t.TempDir())
	saveCmd := m.Update(captureDoneMsg{token: token, result: capture.Result{Clip: capture.Clip{Path: clip, Duration: 3 * time.Second}}})
	if saveCmd == nil {
		t.Fatalf("expected a save command, got none")
	}
	savedMsg := saveCmd()
	saved, ok := savedMsg.(clipSavedMsg)
	if !ok {
		t.Fatalf("expected clipSavedMsg, got %T", savedMsg)
	}
	if saved.err != nil {
		t.Fatalf("failed to save clip: %v", saved.err)
	}
	m.Update(saved)
	if got := m.coord.Snapshot().State; got != session.Saved {
		t.Fatalf("expected Saved, got %v", got)
	}
	if _, err := os.Stat(clip); !os.IsNotExist(err) {
		t.Fatalf("expected the clip to be moved out of the temp dir")
	}

	m.Update(coolDownMsg{token: token})
	if got := m.coord.Snapshot().State; got != session.Idle {
		t.Fatalf("expected Idle after cool-down, got %v", got)
	}
}

func TestDeviceLimitEndsRecordingNormally(t *testing.T) {
	m, fake := newTestPrompter(t)
	startRecording(t, m, fake)
	token := m.coord.Token()

	// The device hits its max-duration or max-file-size limit: the done result
	// arrives with no user stop.
	clip := makeClip(t, t.TempDir())
	saveCmd := m.Update(captureDoneMsg{token: token, result: capture.Result{Clip: capture.Clip{Path: clip, Duration: 60 * time.Second}}})
	if fake.stopped {
		t.Fatalf("did not expect a stop request on a limit completion")
	}
	if got := m.coord.Snapshot().State; got != session.Saving {
		t.Fatalf("expected Saving after limit, got %v", got)
	}
	if saveCmd == nil {
		t.Fatalf("expected a save command, got none")
	}
	saved := saveCmd().(clipSavedMsg)
	if saved.err != nil {
		t.Fatalf("failed to save clip: %v", saved.err)
	}
	m.Update(saved)
	if got := m.coord.Snapshot().State; got != session.Saved {
		t.Fatalf("expected Saved, got %v", got)
	}
}

func TestCaptureFailureLandsInError(t *testing.T) {
	m, fake := newTestPrompter(t)
	startRecording(t, m, fake)
	token := m.coord.Token()

	cmd := m.Update(captureDoneMsg{token: token, result: capture.Result{Err: errors.New("encoder crashed")}})
	if cmd == nil {
		t.Fatalf("expected a cool-down command, got none")
	}
	snap := m.coord.Snapshot()
	if snap.State != session.Error {
		t.Fatalf("expected Error, got %v", snap.State)
	}
	if !m.noticeErr || m.notice == "" {
		t.Fatalf("expected an error notice, got %q", m.notice)
	}

	m.Update(coolDownMsg{token: token})
	if got := m.coord.Snapshot().State; got != session.Idle {
		t.Fatalf("expected Idle after cool-down, got %v", got)
	}
}

func TestRecordWithoutCameraPermission(t *testing.T) {
	m, _ := newTestPrompter(t)
	m.probe = func() session.Permissions {
		return session.Permissions{Microphone: true, MediaLibrary: true}
	}
	armPrompter(t, m)

	cmd := m.Update(recordKey())
	if cmd != nil {
		t.Fatalf("expected no command on a refused start")
	}
	if got := m.coord.Snapshot().State; got != session.Idle {
		t.Fatalf("expected to stay Idle, got %v", got)
	}
	if !m.noticeErr || m.notice == "" {
		t.Fatalf("expected an error notice, got %q", m.notice)
	}
}

func TestRecordWithoutScript(t *testing.T) {
	m, _ := newTestPrompter(t)
	m.Update(cameraReadyMsg{token: m.coord.Token()})

	if cmd := m.Update(recordKey()); cmd != nil {
		t.Fatalf("expected no command with no script selected")
	}
	if got := m.coord.Snapshot().State; got != session.Idle {
		t.Fatalf("expected to stay Idle, got %v", got)
	}
}

func TestBlurStopsDeviceAndAbandonsClip(t *testing.T) {
	m, fake := newTestPrompter(t)
	startRecording(t, m, fake)
	oldToken := m.coord.Token()

	m.blur()
	if !fake.stopped {
		t.Fatalf("expected the device to be stopped before reset")
	}
	if !fake.closed {
		t.Fatalf("expected the device to be closed")
	}
	if m.coord.Token() == oldToken {
		t.Fatalf("expected the session token to change on blur")
	}
	if got := m.coord.Snapshot().State; got != session.Idle {
		t.Fatalf("expected Idle after blur, got %v", got)
	}

	// The stale completion still arrives; its clip is deleted, not saved.
	clip := makeClip(t, t.TempDir())
	if cmd := m.Update(captureDoneMsg{token: oldToken, result: capture.Result{Clip: capture.Clip{Path: clip}}}); cmd != nil {
		t.Fatalf("expected no command for a stale completion")
	}
	if _, err := os.Stat(clip); !os.IsNotExist(err) {
		t.Fatalf("expected the abandoned clip to be removed")
	}
}

func TestBlurWhileIdleDoesNotStopDevice(t *testing.T) {
	m, fake := newTestPrompter(t)
	armPrompter(t, m)

	m.blur()
	if fake.stopped {
		t.Fatalf("did not expect a stop request while idle")
	}
	if !fake.closed {
		t.Fatalf("expected the device to be closed")
	}
}

func TestStaleCameraReadyIgnored(t *testing.T) {
	m, _ := newTestPrompter(t)
	armPrompter(t, m)
	oldToken := m.coord.Token()
	m.blur()

	m.Update(cameraReadyMsg{token: oldToken})
	if cmd := m.Update(recordKey()); cmd != nil {
		t.Fatalf("expected the stale camera-ready signal to be discarded")
	}
}

func TestScrollToggleDiscardsSupersededTickChain(t *testing.T) {
	m, _ := newTestPrompter(t)
	armPrompter(t, m)
	token := m.coord.Token()

	if cmd := m.Update(spaceKey()); cmd == nil {
		t.Fatalf("expected the first toggle to arm a tick chain")
	}
	staleSeq := m.scrollSeq
	m.Update(spaceKey())
	if cmd := m.Update(spaceKey()); cmd == nil {
		t.Fatalf("expected the re-toggle to arm a fresh tick chain")
	}
	liveSeq := m.scrollSeq

	// Both chains deliver a tick in the same interval; only the live one may
	// advance the position and re-arm.
	if cmd := m.Update(scrollTickMsg{token: token, seq: staleSeq}); cmd != nil {
		t.Fatalf("expected the superseded chain to die")
	}
	if cmd := m.Update(scrollTickMsg{token: token, seq: liveSeq}); cmd == nil {
		t.Fatalf("expected the live chain to re-arm")
	}
	if got := m.coord.Snapshot().ScrollPosition; got != 5 {
		t.Fatalf("expected a single advance of 5, got %d", got)
	}
}

func TestScrollResetDiscardsInFlightTick(t *testing.T) {
	m, _ := newTestPrompter(t)
	armPrompter(t, m)
	token := m.coord.Token()

	m.Update(spaceKey())
	staleSeq := m.scrollSeq
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})

	if cmd := m.Update(scrollTickMsg{token: token, seq: staleSeq}); cmd != nil {
		t.Fatalf("expected a tick in flight across a reset to die")
	}
	if got := m.coord.Snapshot().ScrollPosition; got != 0 {
		t.Fatalf("expected position to stay 0 after reset, got %d", got)
	}
}

func TestRestartedRecordingDiscardsStaleElapsedChain(t *testing.T) {
	m, fake := newTestPrompter(t)
	startRecording(t, m, fake)
	token := m.coord.Token()
	staleSeq := m.elapsedSeq

	// Stop, save, and cool down back to idle.
	stopCmd := m.Update(recordKey())
	m.Update(stopCmd().(captureStopRequestedMsg))
	clip := makeClip(t, t.TempDir())
	saveCmd := m.Update(captureDoneMsg{token: token, result: capture.Result{Clip: capture.Clip{Path: clip, Duration: time.Second}}})
	m.Update(saveCmd().(clipSavedMsg))
	m.Update(coolDownMsg{token: token})

	// Start a second recording on the same camera instance.
	startCmd := m.Update(recordKey())
	if startCmd == nil {
		t.Fatalf("expected a start command for the second recording")
	}
	m.Update(startCmd().(captureStartedMsg))
	if got := m.coord.Snapshot().State; got != session.Recording {
		t.Fatalf("expected Recording, got %v", got)
	}

	if cmd := m.Update(elapsedTickMsg{token: token, seq: staleSeq}); cmd != nil {
		t.Fatalf("expected the first recording's elapsed chain to die")
	}
	if got := m.coord.Snapshot().Elapsed; got != 0 {
		t.Fatalf("expected elapsed untouched by the stale chain, got %s", got)
	}
	if cmd := m.Update(elapsedTickMsg{token: token, seq: m.elapsedSeq}); cmd == nil {
		t.Fatalf("expected the live elapsed chain to re-arm")
	}
	if got := m.coord.Snapshot().Elapsed; got != session.ElapsedInterval {
		t.Fatalf("expected one elapsed advance, got %s", got)
	}
}

func TestClipDiscardedWhenSessionAlreadyFailed(t *testing.T) {
	m, fake := newTestPrompter(t)
	startRecording(t, m, fake)
	token := m.coord.Token()

	// The stop request itself fails, landing the session in Error.
	m.Update(recordKey())
	m.Update(captureStopRequestedMsg{token: token, err: errors.New("stop failed")})
	if got := m.coord.Snapshot().State; got != session.Error {
		t.Fatalf("expected Error after a failed stop, got %v", got)
	}

	// The device still delivers a clip; it must not reach the library.
	clip := makeClip(t, t.TempDir())
	if cmd := m.Update(captureDoneMsg{token: token, result: capture.Result{Clip: capture.Clip{Path: clip, Duration: time.Second}}}); cmd != nil {
		t.Fatalf("expected no save command for a failed session")
	}
	if _, err := os.Stat(clip); !os.IsNotExist(err) {
		t.Fatalf("expected the discarded clip to be removed")
	}
	if got := m.coord.Snapshot().State; got != session.Error {
		t.Fatalf("expected Error to persist, got %v", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00.0"},
		{900 * time.Millisecond, "00:00.9"},
		{61*time.Second + 500*time.Millisecond, "01:01.5"},
		{10 * time.Minute, "10:00.0"},
	}
	for _, tc := range cases {
		if got := formatElapsed(tc.d); got != tc.want {
			t.Fatalf("formatElapsed(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
