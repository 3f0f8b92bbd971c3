package tui

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"teleprompt/internal/library"
	"teleprompt/internal/model"
)

type recordingItem struct {
	recording model.Recording
}

// Title implements list.DefaultItem.
func (i recordingItem) Title() string {
	return i.recording.Filename
}

// Description implements list.DefaultItem.
func (i recordingItem) Description() string {
	return fmt.Sprintf("%s · %s", formatDuration(i.recording.Duration), i.recording.CreatedAt.Format("Jan 2 2006 15:04"))
}

// FilterValue implements list.Item.
func (i recordingItem) FilterValue() string {
	return i.recording.Filename
}

func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// recordingsModel is the recordings browser screen: play back or delete
// clips already handed to the media library.
type recordingsModel struct {
	lib    *library.Library
	player string

	list          list.Model
	confirmDelete bool
	notice        string

	width  int
	height int
}

func newRecordingsModel(lib *library.Library, player string) *recordingsModel {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Recordings"
	l.SetShowStatusBar(false)
	l.SetStatusBarItemName("recording", "recordings")
	return &recordingsModel{lib: lib, player: player, list: l}
}

func (m *recordingsModel) setSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

func (m *recordingsModel) refresh() tea.Cmd {
	return loadRecordingsCmd(m.lib)
}

func (m *recordingsModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case recordingsLoadedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("failed to load recordings: %v", msg.err)
			return nil
		}
		m.notice = ""
		items := make([]list.Item, 0, len(msg.recordings))
		for _, rec := range msg.recordings {
			items = append(items, recordingItem{recording: rec})
		}
		return m.list.SetItems(items)
	case recordingDeletedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("failed to delete recording: %v", msg.err)
			return nil
		}
		m.notice = ""
		return loadRecordingsCmd(m.lib)
	case playbackDoneMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("playback failed: %v", msg.err)
		}
		return nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return nil
	}
}

func (m *recordingsModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.confirmDelete {
		m.confirmDelete = false
		if msg.String() == "y" || msg.String() == "Y" {
			if item, ok := m.list.SelectedItem().(recordingItem); ok {
				return deleteRecordingCmd(m.lib, item.recording.ID)
			}
		}
		return nil
	}
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return cmd
	}
	switch msg.String() {
	case "enter":
		if item, ok := m.list.SelectedItem().(recordingItem); ok {
			return playRecordingCmd(m.player, item.recording.URI)
		}
		return nil
	case "d":
		if _, ok := m.list.SelectedItem().(recordingItem); ok {
			m.confirmDelete = true
		}
		return nil
	default:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return cmd
	}
}

func (m *recordingsModel) View() string {
	footer := footerStyle.Render("enter play · d delete · esc back · q quit")
	if m.confirmDelete {
		title := ""
		if item, ok := m.list.SelectedItem().(recordingItem); ok {
			title = item.recording.Filename
		}
		footer = errorStyle.Render(fmt.Sprintf("Delete %q? (y/n)", title))
	} else if m.notice != "" {
		footer += "\n" + errorStyle.Render(m.notice)
	}
	if len(m.list.Items()) == 0 {
		hint := hintStyle.Render("No recordings yet.")
		return m.list.View() + "\n" + hint + "\n" + footer
	}
	return m.list.View() + "\n" + footer
}

// Commands

func loadRecordingsCmd(lib *library.Library) tea.Cmd {
	return func() tea.Msg {
		recordings, err := lib.List(context.Background(), 0)
		return recordingsLoadedMsg{recordings: recordings, err: err}
	}
}

func deleteRecordingCmd(lib *library.Library, id string) tea.Cmd {
	return func() tea.Msg {
		return recordingDeletedMsg{err: lib.Delete(context.Background(), id)}
	}
}

func playRecordingCmd(player, uri string) tea.Cmd {
	cmd := exec.Command(player, uri)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return playbackDoneMsg{err: err}
	})
}

func (m *recordingsModel) filtering() bool {
	return m.list.FilterState() == list.Filtering
}
