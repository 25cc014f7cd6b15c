// Package tui provides the BubbleTea-based terminal overlay renderer.
package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/hudtoast/internal/client"
	"github.com/jmylchreest/hudtoast/internal/lifecycle"
)

// frameInterval drives progress bars and the urgent pulse.
const frameInterval = 100 * time.Millisecond

// defaultToastWidth is used before the first WindowSizeMsg.
const defaultToastWidth = 48

// Options configures the overlay.
type Options struct {
	Title            string
	Snapshot         []lifecycle.Item
	Visible          bool
	Updates          <-chan client.Update // nil for a static view
	Dismiss          func(id string) error
	Now              func() time.Time
	ClipboardCommand string
}

// Model is the overlay TUI model.
type Model struct {
	title   string
	items   []lifecycle.Item
	visible bool
	cursor  int

	updates   <-chan client.Update
	dismiss   func(id string) error
	now       func() time.Time
	clipboard string

	keys KeyMap
	help help.Model

	width  int
	height int
	pulse  bool

	// Status message
	statusMsg string
	statusErr bool

	// Set when the update feed has closed.
	disconnected bool
}

// New creates a new overlay model.
func New(opts Options) Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	title := opts.Title
	if title == "" {
		title = "hudtoast"
	}

	return Model{
		title:     title,
		items:     slices.Clone(opts.Snapshot),
		visible:   opts.Visible,
		updates:   opts.Updates,
		dismiss:   opts.Dismiss,
		now:       now,
		clipboard: opts.ClipboardCommand,
		keys:      DefaultKeyMap(),
		help:      help.New(),
	}
}

type (
	updateMsg      client.Update
	feedClosedMsg  struct{}
	frameMsg       time.Time
	clearStatusMsg struct{}
)

type dismissedMsg struct {
	id  string
	err error
}

type copyResultMsg struct {
	err error
}

type statusMsg struct {
	text  string
	isErr bool
}

// Init starts the update feed and the frame ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForUpdate(), tick())
}

// waitForUpdate blocks on the next feed update.
func (m Model) waitForUpdate() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	ch := m.updates
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return feedClosedMsg{}
		}
		return updateMsg(u)
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case updateMsg:
		m.apply(client.Update(msg))
		return m, m.waitForUpdate()

	case feedClosedMsg:
		m.disconnected = true
		return m, setStatus("Event stream closed", true)

	case frameMsg:
		m.pulse = time.Time(msg).UnixMilli()/500%2 == 0
		return m, tick()

	case dismissedMsg:
		if msg.err != nil {
			return m, setStatus("Close failed: "+msg.err.Error(), true)
		}
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, setStatus("Copy failed: "+msg.err.Error(), true)
		}
		return m, setStatus("Copied to clipboard", false)

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil
	}

	return m, nil
}

func setStatus(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// apply folds one feed update into the toast list.
func (m *Model) apply(u client.Update) {
	switch u.Event {
	case client.EventSnapshot:
		m.items = slices.Clone(u.Snapshot)
	case client.EventVisibility:
		m.visible = u.Visible
	case string(lifecycle.EventAdded), string(lifecycle.EventExiting):
		m.upsert(u.Lifecycle.Item)
	case string(lifecycle.EventRemoved):
		id := u.Lifecycle.Item.Notification.ID
		m.items = slices.DeleteFunc(m.items, func(it lifecycle.Item) bool {
			return it.Notification.ID == id
		})
	}
	m.clampCursor()
}

// upsert replaces the toast with the same ID or appends it.
func (m *Model) upsert(item lifecycle.Item) {
	for i := range m.items {
		if m.items[i].Notification.ID == item.Notification.ID {
			m.items[i] = item
			return
		}
	}
	m.items = append(m.items, item)
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		item, ok := m.Selected()
		if !ok || item.State != lifecycle.StateVisible || m.dismiss == nil {
			return m, nil
		}
		id := item.Notification.ID
		dismiss := m.dismiss
		return m, func() tea.Msg {
			return dismissedMsg{id: id, err: dismiss(id)}
		}

	case key.Matches(msg, m.keys.Copy):
		item, ok := m.Selected()
		if !ok {
			return m, nil
		}
		text := item.Notification.Message
		command := m.clipboard
		return m, func() tea.Msg {
			return copyResultMsg{err: copyText(text, command)}
		}
	}

	return m, nil
}

// Items returns the toasts currently rendered.
func (m Model) Items() []lifecycle.Item {
	return slices.Clone(m.items)
}

// Visible reports whether the overlay is shown.
func (m Model) Visible() bool {
	return m.visible
}

// Selected returns the toast under the cursor.
func (m Model) Selected() (lifecycle.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return lifecycle.Item{}, false
	}
	return m.items[m.cursor], true
}

// View renders the overlay.
func (m Model) View() string {
	var b strings.Builder

	header := headerStyle.Render(m.title)
	switch {
	case m.disconnected:
		header += mutedStyle.Render("  disconnected")
	case !m.visible:
		header += mutedStyle.Render("  hidden")
	default:
		header += mutedStyle.Render(fmt.Sprintf("  %d active", len(m.items)))
	}
	b.WriteString(header + "\n\n")

	if m.visible {
		now := m.now()
		width := m.toastWidth()
		for i := range m.items {
			b.WriteString(renderToast(&m.items[i], toastView{
				width:    width,
				selected: i == m.cursor,
				pulse:    m.pulse,
				now:      now,
			}))
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		style := statusStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString(style.Render(m.statusMsg) + "\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) toastWidth() int {
	if m.width <= 0 {
		return defaultToastWidth
	}
	return min(m.width, 64)
}

// Run starts the overlay and blocks until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
