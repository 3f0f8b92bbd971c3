package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"teleprompt/internal/model"
	"teleprompt/internal/scriptstore"
)

type scriptsMode int

const (
	scriptsBrowse scriptsMode = iota
	scriptsEdit
	scriptsConfirmDelete
)

type scriptItem struct {
	script model.Script
}

// Title implements list.DefaultItem.
func (i scriptItem) Title() string {
	return i.script.Title
}

// Description implements list.DefaultItem.
func (i scriptItem) Description() string {
	return fmt.Sprintf("%d words · %s", i.script.WordCount, i.script.CreatedAt.Format("Jan 2 2006 15:04"))
}

// FilterValue implements list.Item.
func (i scriptItem) FilterValue() string {
	return i.script.Title
}

// scriptsModel is the script browser and editor screen.
type scriptsModel struct {
	store *scriptstore.Store

	list      list.Model
	mode      scriptsMode
	titleIn   textinput.Model
	contentIn textarea.Model
	editingID string
	editTitle bool

	notice string
	width  int
	height int
}

func newScriptsModel(store *scriptstore.Store) *scriptsModel {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Scripts"
	l.SetShowStatusBar(false)
	l.SetStatusBarItemName("script", "scripts")

	titleIn := textinput.New()
	titleIn.Placeholder = "Title"
	titleIn.CharLimit = 120

	contentIn := textarea.New()
	contentIn.Placeholder = "Write or paste your script here…"

	return &scriptsModel{
		store:     store,
		list:      l,
		titleIn:   titleIn,
		contentIn: contentIn,
	}
}

func (m *scriptsModel) Init() tea.Cmd {
	return loadScriptsCmd(m.store)
}

func (m *scriptsModel) setSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.titleIn.Width = width - 6
	m.contentIn.SetWidth(width - 4)
	contentHeight := height - 8
	if contentHeight < 3 {
		contentHeight = 3
	}
	m.contentIn.SetHeight(contentHeight)
}

// Update handles screen messages and returns a follow-up command. A
// scriptSelectedMsg bubbles up to the app, which switches to the prompter.
func (m *scriptsModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case scriptsLoadedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("failed to load scripts: %v", msg.err)
			return nil
		}
		items := make([]list.Item, 0, len(msg.scripts))
		for _, script := range msg.scripts {
			items = append(items, scriptItem{script: script})
		}
		return m.list.SetItems(items)
	case scriptSavedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("failed to save script: %v", msg.err)
			return nil
		}
		m.notice = ""
		m.mode = scriptsBrowse
		return loadScriptsCmd(m.store)
	case scriptDeletedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("failed to delete script: %v", msg.err)
			return nil
		}
		m.notice = ""
		return loadScriptsCmd(m.store)
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return nil
	}
}

func (m *scriptsModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.mode {
	case scriptsEdit:
		return m.handleEditKey(msg)
	case scriptsConfirmDelete:
		return m.handleConfirmKey(msg)
	default:
		return m.handleBrowseKey(msg)
	}
}

func (m *scriptsModel) handleBrowseKey(msg tea.KeyMsg) tea.Cmd {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return cmd
	}
	switch msg.String() {
	case "n":
		m.openEditor(nil)
		return textarea.Blink
	case "e":
		if item, ok := m.list.SelectedItem().(scriptItem); ok {
			script := item.script
			m.openEditor(&script)
			return textarea.Blink
		}
		return nil
	case "d":
		if _, ok := m.list.SelectedItem().(scriptItem); ok {
			m.mode = scriptsConfirmDelete
		}
		return nil
	case "enter":
		if item, ok := m.list.SelectedItem().(scriptItem); ok {
			return selectScriptCmd(m.store, item.script)
		}
		return nil
	default:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return cmd
	}
}

func (m *scriptsModel) handleEditKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.mode = scriptsBrowse
		return nil
	case "tab":
		m.editTitle = !m.editTitle
		if m.editTitle {
			m.contentIn.Blur()
			return m.titleIn.Focus()
		}
		m.titleIn.Blur()
		return m.contentIn.Focus()
	case "ctrl+s":
		return m.saveEditor()
	}
	var cmd tea.Cmd
	if m.editTitle {
		m.titleIn, cmd = m.titleIn.Update(msg)
	} else {
		m.contentIn, cmd = m.contentIn.Update(msg)
	}
	return cmd
}

func (m *scriptsModel) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		m.mode = scriptsBrowse
		if item, ok := m.list.SelectedItem().(scriptItem); ok {
			return deleteScriptCmd(m.store, item.script.ID)
		}
		return nil
	default:
		m.mode = scriptsBrowse
		return nil
	}
}

func (m *scriptsModel) openEditor(script *model.Script) {
	m.mode = scriptsEdit
	m.editTitle = true
	if script != nil {
		m.editingID = script.ID
		m.titleIn.SetValue(script.Title)
		m.contentIn.SetValue(script.Content)
	} else {
		m.editingID = ""
		m.titleIn.SetValue("")
		m.contentIn.SetValue("")
	}
	m.contentIn.Blur()
	// Cursor blink starts on the next Update.
	_ = m.titleIn.Focus()
}

func (m *scriptsModel) saveEditor() tea.Cmd {
	title := m.titleIn.Value()
	content := m.contentIn.Value()
	if title == "" {
		m.notice = "title must not be empty"
		return nil
	}
	if m.editingID == "" {
		return createScriptCmd(m.store, title, content)
	}
	return updateScriptCmd(m.store, m.editingID, title, content)
}

func (m *scriptsModel) View() string {
	switch m.mode {
	case scriptsEdit:
		header := headerStyle.Render("Edit script")
		if m.editingID == "" {
			header = headerStyle.Render("New script")
		}
		footer := footerStyle.Render("tab title/content · ctrl+s save · esc cancel")
		notice := ""
		if m.notice != "" {
			notice = "\n" + errorStyle.Render(m.notice)
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			m.titleIn.View(),
			m.contentIn.View(),
			footer+notice,
		)
	case scriptsConfirmDelete:
		title := ""
		if item, ok := m.list.SelectedItem().(scriptItem); ok {
			title = item.script.Title
		}
		prompt := errorStyle.Render(fmt.Sprintf("Delete %q? (y/n)", title))
		return m.list.View() + "\n" + prompt
	default:
		footer := footerStyle.Render("enter open · n new · e edit · d delete · v recordings · q quit")
		if m.notice != "" {
			footer += "\n" + errorStyle.Render(m.notice)
		}
		if len(m.list.Items()) == 0 {
			hint := hintStyle.Render("No scripts yet. Press n to write your first one.")
			return m.list.View() + "\n" + hint + "\n" + footer
		}
		return m.list.View() + "\n" + footer
	}
}

func (m *scriptsModel) editing() bool {
	return m.mode == scriptsEdit
}

// Commands

func loadScriptsCmd(store *scriptstore.Store) tea.Cmd {
	return func() tea.Msg {
		scripts, err := store.List(context.Background())
		return scriptsLoadedMsg{scripts: scripts, err: err}
	}
}

func createScriptCmd(store *scriptstore.Store, title, content string) tea.Cmd {
	return func() tea.Msg {
		_, err := store.Create(context.Background(), title, content)
		return scriptSavedMsg{err: err}
	}
}

func updateScriptCmd(store *scriptstore.Store, id, title, content string) tea.Cmd {
	return func() tea.Msg {
		_, err := store.Update(context.Background(), id, title, content)
		return scriptSavedMsg{err: err}
	}
}

func deleteScriptCmd(store *scriptstore.Store, id string) tea.Cmd {
	return func() tea.Msg {
		return scriptDeletedMsg{err: store.Delete(context.Background(), id)}
	}
}

func selectScriptCmd(store *scriptstore.Store, script model.Script) tea.Cmd {
	return func() tea.Msg {
		err := store.SetSelected(context.Background(), script)
		return scriptSelectedMsg{script: script, err: err}
	}
}

func (m *scriptsModel) filtering() bool {
	return m.list.FilterState() == list.Filtering
}
