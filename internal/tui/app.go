// Package tui provides the Bubble Tea screens for teleprompt: the script
// browser/editor, the teleprompter with camera recording, and the recordings
// browser. Switching screens is the focus boundary for the prompter session:
// entering it creates a fresh camera instance, leaving it performs the
// unconditional hard reset.
package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"teleprompt/internal/capture"
	"teleprompt/internal/library"
	"teleprompt/internal/scriptstore"
	"teleprompt/internal/session"
)

type screen int

const (
	screenScripts screen = iota
	screenPrompter
	screenRecordings
)

// Settings carries resolved runtime configuration into the TUI.
type Settings struct {
	ScrollSpeed int
	FontSize    int
	CaptureOpts capture.Options
	NewDevice   func() capture.Device
	Probe       func() session.Permissions
	Player      string
}

// App is the root model hosting the three screens.
type App struct {
	scripts    *scriptsModel
	prompter   *prompterModel
	recordings *recordingsModel
	screen     screen

	width  int
	height int
}

// NewApp builds the TUI rooted at the script browser.
func NewApp(store *scriptstore.Store, lib *library.Library, settings Settings) *App {
	return &App{
		scripts:    newScriptsModel(store),
		prompter:   newPrompterModel(store, lib, settings),
		recordings: newRecordingsModel(lib, settings.Player),
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.scripts.Init()
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.scripts.setSize(msg.Width, msg.Height)
		a.recordings.setSize(msg.Width, msg.Height)
		return a, a.prompter.Update(msg)
	case tea.KeyMsg:
		if cmd, handled := a.handleGlobalKey(msg); handled {
			return a, cmd
		}
		return a, a.route(msg)
	case scriptSelectedMsg:
		if msg.err != nil {
			a.scripts.notice = fmt.Sprintf("failed to select script: %v", msg.err)
			return a, nil
		}
		a.screen = screenPrompter
		return a, a.prompter.focus()
	default:
		return a, a.route(msg)
	}
}

// handleGlobalKey deals with quitting and screen switching.
func (a *App) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	key := msg.String()
	if key == "ctrl+c" {
		if a.screen == screenPrompter {
			a.prompter.blur()
		}
		return tea.Quit, true
	}
	switch a.screen {
	case screenPrompter:
		if key == "esc" {
			a.prompter.blur()
			a.screen = screenScripts
			return loadScriptsCmd(a.scripts.store), true
		}
	case screenScripts:
		if a.scripts.editing() || a.scripts.filtering() {
			return nil, false
		}
		switch key {
		case "q":
			return tea.Quit, true
		case "v":
			a.screen = screenRecordings
			return a.recordings.refresh(), true
		}
	case screenRecordings:
		if a.recordings.filtering() {
			return nil, false
		}
		switch key {
		case "q":
			return tea.Quit, true
		case "esc":
			a.screen = screenScripts
			return nil, true
		}
	}
	return nil, false
}

// route delivers a message to the screen that owns it. Session messages
// always reach the prompter: its token checks make completions that arrive
// after a focus reset harmless.
func (a *App) route(msg tea.Msg) tea.Cmd {
	switch msg.(type) {
	case scriptsLoadedMsg, scriptSavedMsg, scriptDeletedMsg:
		return a.scripts.Update(msg)
	case recordingsLoadedMsg, recordingDeletedMsg, playbackDoneMsg:
		return a.recordings.Update(msg)
	case selectedLoadedMsg, cameraReadyMsg, scrollTickMsg, elapsedTickMsg,
		coolDownMsg, captureStartedMsg, captureStopRequestedMsg,
		captureDoneMsg, clipSavedMsg:
		return a.prompter.Update(msg)
	default:
		switch a.screen {
		case screenPrompter:
			return a.prompter.Update(msg)
		case screenRecordings:
			return a.recordings.Update(msg)
		default:
			return a.scripts.Update(msg)
		}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	switch a.screen {
	case screenPrompter:
		return a.prompter.View()
	case screenRecordings:
		return a.recordings.View()
	default:
		return a.scripts.View()
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
