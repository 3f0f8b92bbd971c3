package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"teleprompt/internal/capture"
	"teleprompt/internal/library"
	"teleprompt/internal/scriptstore"
	"teleprompt/internal/session"
)

// scrollUnitsPerLine converts coordinator scroll units into display lines.
// At 20 ticks per second, speed 1 moves half a line per second and speed 10
// moves five.
const scrollUnitsPerLine = 40

// cameraWarmup is the delay between creating a camera instance and it
// signaling ready.
const cameraWarmup = 200 * time.Millisecond

// prompterModel is the teleprompter screen: scrolling script text plus the
// recording controls. All session state lives in the coordinator; this model
// only schedules ticks, forwards key presses, and renders snapshots.
type prompterModel struct {
	store *scriptstore.Store
	lib   *library.Library
	coord *session.Coordinator

	newDevice   func() capture.Device
	probe       func() session.Permissions
	captureOpts capture.Options

	device      capture.Device
	stopPending bool

	// scrollSeq and elapsedSeq identify the live tick chain of each kind.
	// Every toggle or restart bumps the counter, so a tick still in flight
	// from the previous chain cannot advance state or re-arm itself.
	scrollSeq  uint64
	elapsedSeq uint64

	notice    string
	noticeErr bool

	width  int
	height int
}

func newPrompterModel(store *scriptstore.Store, lib *library.Library, settings Settings) *prompterModel {
	return &prompterModel{
		store:       store,
		lib:         lib,
		coord:       session.New(nil, settings.ScrollSpeed, settings.FontSize),
		newDevice:   settings.NewDevice,
		probe:       settings.Probe,
		captureOpts: settings.CaptureOpts,
	}
}

// focus prepares a fresh session: reload the selected script, create a new
// camera instance, and schedule its ready signal.
func (m *prompterModel) focus() tea.Cmd {
	token := m.coord.FocusGained()
	m.notice = ""
	m.noticeErr = false
	m.stopPending = false
	m.device = m.newDevice()

	cmds := []tea.Cmd{loadSelectedCmd(m.store, token)}
	if m.probe().Camera {
		cmds = append(cmds, cameraWarmupCmd(token))
	}
	return tea.Batch(cmds...)
}

// blur is the focus-lost hard reset. The device is asked to stop before the
// state is reset so the hardware does not keep capturing; the in-flight clip
// is abandoned either way.
func (m *prompterModel) blur() {
	if m.device != nil {
		snap := m.coord.Snapshot()
		if snap.State == session.Requested || snap.State == session.Recording || snap.State == session.Saving {
			if err := m.device.Stop(context.Background()); err != nil {
				logErrf("failed to stop abandoned recording: %v\n", err)
			}
		}
		if err := m.device.Close(); err != nil {
			logErrf("failed to close capture device: %v\n", err)
		}
		m.device = nil
	}
	m.coord.FocusLost()
	m.stopPending = false
}

func (m *prompterModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case selectedLoadedMsg:
		return m.handleSelectedLoaded(msg)
	case cameraReadyMsg:
		m.coord.CameraReady(msg.token)
		return nil
	case scrollTickMsg:
		if msg.seq != m.scrollSeq {
			return nil
		}
		if m.coord.ScrollTick(msg.token) {
			return scrollTickCmd(msg.token, msg.seq)
		}
		return nil
	case elapsedTickMsg:
		if msg.seq != m.elapsedSeq {
			return nil
		}
		if m.coord.ElapsedTick(msg.token, session.ElapsedInterval) {
			return elapsedTickCmd(msg.token, msg.seq)
		}
		return nil
	case coolDownMsg:
		if m.coord.CoolDownElapsed(msg.token) {
			m.notice = ""
			m.noticeErr = false
		}
		return nil
	case captureStartedMsg:
		return m.handleCaptureStarted(msg)
	case captureStopRequestedMsg:
		return m.handleStopRequested(msg)
	case captureDoneMsg:
		return m.handleCaptureDone(msg)
	case clipSavedMsg:
		return m.handleClipSaved(msg)
	default:
		return nil
	}
}

func (m *prompterModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case " ":
		m.scrollSeq++
		if m.coord.ToggleScroll() {
			return scrollTickCmd(m.coord.Token(), m.scrollSeq)
		}
		return nil
	case "up":
		m.coord.IncreaseSpeed()
		return nil
	case "down":
		m.coord.DecreaseSpeed()
		return nil
	case "+", "=":
		m.coord.IncreaseFont()
		return nil
	case "-":
		m.coord.DecreaseFont()
		return nil
	case "b":
		m.scrollSeq++
		m.coord.ResetScroll()
		return nil
	case "r":
		return m.handleRecordKey()
	default:
		return nil
	}
}

func (m *prompterModel) handleRecordKey() tea.Cmd {
	snap := m.coord.Snapshot()
	switch snap.State {
	case session.Idle:
		perms := m.probe()
		if err := m.coord.StartRecording(perms); err != nil {
			m.setNotice(err.Error(), true)
			return nil
		}
		m.setNotice("", false)
		return startCaptureCmd(m.device, m.captureOpts, m.coord.Token())
	case session.Recording:
		if m.coord.StopRecording() {
			m.stopPending = true
			return stopCaptureCmd(m.device, m.coord.Token())
		}
		return nil
	default:
		return nil
	}
}

func (m *prompterModel) handleSelectedLoaded(msg selectedLoadedMsg) tea.Cmd {
	if msg.token != m.coord.Token() {
		return nil
	}
	if msg.err != nil {
		// Prior selection state is kept; recording stays unavailable until a
		// script loads.
		m.setNotice(fmt.Sprintf("failed to load selected script: %v", msg.err), true)
		return nil
	}
	m.coord.SelectScript(msg.script)
	return nil
}

func (m *prompterModel) handleCaptureStarted(msg captureStartedMsg) tea.Cmd {
	if msg.token != m.coord.Token() {
		return nil
	}
	if msg.err != nil {
		m.coord.Fail(msg.token, msg.err)
		m.setNotice(fmt.Sprintf("recording failed to start: %v", msg.err), true)
		return coolDownCmd(msg.token)
	}
	if !m.coord.CaptureStarted(msg.token) {
		return nil
	}
	m.elapsedSeq++
	return tea.Batch(elapsedTickCmd(msg.token, m.elapsedSeq), waitCaptureCmd(m.device, msg.token))
}

func (m *prompterModel) handleStopRequested(msg captureStopRequestedMsg) tea.Cmd {
	if msg.token != m.coord.Token() {
		return nil
	}
	if msg.err != nil {
		m.coord.Fail(msg.token, msg.err)
		m.setNotice(fmt.Sprintf("failed to stop recording: %v", msg.err), true)
		return coolDownCmd(msg.token)
	}
	// The clip arrives on the device's done channel.
	return nil
}

func (m *prompterModel) handleCaptureDone(msg captureDoneMsg) tea.Cmd {
	if msg.token != m.coord.Token() {
		// Superseded session: the clip is abandoned.
		if msg.result.Err == nil && msg.result.Clip.Path != "" {
			if err := os.Remove(msg.result.Clip.Path); err != nil && !os.IsNotExist(err) {
				logErrf("failed to remove abandoned clip: %v\n", err)
			}
		}
		return nil
	}
	if msg.result.Err != nil {
		m.coord.Fail(msg.token, msg.result.Err)
		m.setNotice(msg.result.Err.Error(), true)
		return coolDownCmd(msg.token)
	}
	// A device-side hard limit (max duration or file size) ends the recording
	// without a user stop; that is normal completion.
	if !m.stopPending {
		m.coord.LimitReached(msg.token)
	}
	m.stopPending = false
	if m.coord.Snapshot().State != session.Saving {
		// The session already failed (e.g. the stop request errored); the
		// clip must not land in the library.
		if msg.result.Clip.Path != "" {
			if err := os.Remove(msg.result.Clip.Path); err != nil && !os.IsNotExist(err) {
				logErrf("failed to remove discarded clip: %v\n", err)
			}
		}
		return nil
	}
	return saveClipCmd(m.lib, msg.result.Clip, msg.token)
}

func (m *prompterModel) handleClipSaved(msg clipSavedMsg) tea.Cmd {
	if msg.token != m.coord.Token() {
		return nil
	}
	if msg.err != nil {
		m.coord.Fail(msg.token, msg.err)
		m.setNotice(fmt.Sprintf("failed to save recording: %v", msg.err), true)
		return coolDownCmd(msg.token)
	}
	if m.coord.ClipSaved(msg.token) {
		m.setNotice(fmt.Sprintf("Saved %s", msg.recording.Filename), false)
	}
	return coolDownCmd(msg.token)
}

func (m *prompterModel) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func (m *prompterModel) View() string {
	snap := m.coord.Snapshot()
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if snap.Script == nil {
		body := hintStyle.Render("No script selected. Press esc and pick one from the script list.")
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}

	contentWidth := contentWidthFor(m.width, snap.FontSize)
	lines := wrapText(snap.Script.Content, contentWidth)
	offset := snap.ScrollPosition / scrollUnitsPerLine
	bodyHeight := m.height - 3
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	visible := visibleLines(lines, offset, bodyHeight)
	content := scriptStyle.Width(contentWidth).Render(visible)

	header := headerStyle.Render(snap.Script.Title)
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Top, content)
	footer := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, m.renderStatus(snap))
	noticeLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, m.renderNotice())
	headerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, header)
	return headerLine + "\n" + body + "\n" + noticeLine + "\n" + footer
}

// contentWidthFor maps the font size setting to a column width: larger fonts
// show fewer columns, as on a real prompter display.
func contentWidthFor(total, fontSize int) int {
	if total <= 0 {
		return 1
	}
	width := total * 24 / fontSize
	max := total - 4
	if max < 1 {
		max = 1
	}
	if width > max {
		width = max
	}
	if width < 10 {
		width = 10
	}
	if width > total {
		width = total
	}
	return width
}

func visibleLines(lines []string, offset, height int) string {
	if offset >= len(lines) {
		offset = len(lines)
	}
	end := offset + height
	if end > len(lines) {
		end = len(lines)
	}
	out := ""
	for i := offset; i < end; i++ {
		if i > offset {
			out += "\n"
		}
		out += lines[i]
	}
	return out
}

func (m *prompterModel) renderStatus(snap session.Snapshot) string {
	var state string
	switch snap.State {
	case session.Recording:
		state = recordingStyle.Render(fmt.Sprintf("● REC %s", formatElapsed(snap.Elapsed)))
	case session.Saving:
		state = noticeStyle.Render("saving…")
	case session.Saved:
		state = savedStyle.Render("saved")
	case session.Error:
		state = errorStyle.Render("error")
	default:
		if snap.IsScrolling {
			state = "scrolling"
		} else {
			state = "paused"
		}
	}
	keys := "space scroll · ↑/↓ speed · +/- font · b rewind · r record · esc back"
	return footerStyle.Render(fmt.Sprintf("%s  ·  speed %d  ·  font %d  ·  %s", state, snap.ScrollSpeed, snap.FontSize, keys))
}

func (m *prompterModel) renderNotice() string {
	if m.notice == "" {
		return ""
	}
	if m.noticeErr {
		return errorStyle.Render(m.notice)
	}
	return savedStyle.Render(m.notice)
}

func formatElapsed(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	tenths := int(d.Milliseconds()/100) % 10
	return fmt.Sprintf("%02d:%02d.%d", minutes, seconds, tenths)
}

// Commands

func loadSelectedCmd(store *scriptstore.Store, token uint64) tea.Cmd {
	return func() tea.Msg {
		script, err := store.GetSelected(context.Background())
		return selectedLoadedMsg{token: token, script: script, err: err}
	}
}

func cameraWarmupCmd(token uint64) tea.Cmd {
	return tea.Tick(cameraWarmup, func(time.Time) tea.Msg {
		return cameraReadyMsg{token: token}
	})
}

func scrollTickCmd(token, seq uint64) tea.Cmd {
	return tea.Tick(session.ScrollInterval, func(time.Time) tea.Msg {
		return scrollTickMsg{token: token, seq: seq}
	})
}

func elapsedTickCmd(token, seq uint64) tea.Cmd {
	return tea.Tick(session.ElapsedInterval, func(time.Time) tea.Msg {
		return elapsedTickMsg{token: token, seq: seq}
	})
}

func coolDownCmd(token uint64) tea.Cmd {
	return tea.Tick(session.CoolDown, func(time.Time) tea.Msg {
		return coolDownMsg{token: token}
	})
}

func startCaptureCmd(device capture.Device, opts capture.Options, token uint64) tea.Cmd {
	return func() tea.Msg {
		err := device.Start(context.Background(), opts)
		return captureStartedMsg{token: token, err: err}
	}
}

func stopCaptureCmd(device capture.Device, token uint64) tea.Cmd {
	return func() tea.Msg {
		err := device.Stop(context.Background())
		return captureStopRequestedMsg{token: token, err: err}
	}
}

func waitCaptureCmd(device capture.Device, token uint64) tea.Cmd {
	return func() tea.Msg {
		return captureDoneMsg{token: token, result: <-device.Done()}
	}
}

func saveClipCmd(lib *library.Library, clip capture.Clip, token uint64) tea.Cmd {
	return func() tea.Msg {
		rec, err := lib.Save(context.Background(), clip.Path, clip.Duration)
		return clipSavedMsg{token: token, recording: rec, err: err}
	}
}
