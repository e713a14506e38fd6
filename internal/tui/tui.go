// Package tui is the interactive terminal client. It keeps only view state;
// every change goes through the server.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/priotodo/internal/client"
	"github.com/Makepad-fr/priotodo/internal/model"
	"github.com/Makepad-fr/priotodo/internal/ui"
)

// Messages shown in the error area.
const (
	MsgInvalidForm   = "Please enter valid text and priority (positive integer)"
	MsgFetchFailed   = "Failed to fetch todos"
	MsgAddFailed     = "Failed to add todo"
	MsgDeleteFailed  = "Failed to delete todo"
	MsgMissingFailed = "Failed to fetch missing priorities"
)

const (
	defaultTimeout    = 5 * time.Second
	defaultWidth      = 80
	defaultHeight     = 24
	chromeLines       = 6
	formLines         = 5
	priorityCharLimit = 19
)

// Backend is what the TUI needs from the server. *client.Client satisfies it.
type Backend interface {
	List(ctx context.Context) ([]model.Item, error)
	Add(ctx context.Context, text string, priority int) (model.Item, error)
	Delete(ctx context.Context, id int) error
	MissingPriorities(ctx context.Context) ([]int, error)
}

var _ Backend = (*client.Client)(nil)

type (
	itemsLoadedMsg struct{ items []model.Item }
	addedMsg       struct{ item model.Item }
	deletedMsg     struct{ id int }
	missingMsg     struct{ missing []int }
	errMsg         struct{ text string }
)

// listItem adapts model.Item to bubbles/list.Item.
type listItem struct {
	model.Item
}

func (i listItem) Title() string       { return i.Text }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.Text }

// itemDelegate renders one item per line.
type itemDelegate struct {
	theme ui.Theme
}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = d.theme.Selected.Render(d.theme.SymCursor) + " "
	}
	fmt.Fprint(w, prefix+d.theme.ItemLine(it.Item))
}

const (
	fieldText = iota
	fieldPriority
)

// Model is the Bubble Tea model.
type Model struct {
	backend Backend
	theme   ui.Theme
	timeout time.Duration
	keys    keyMap
	help    help.Model

	list  list.Model
	items []model.Item

	adding   bool
	focus    int
	text     textinput.Model
	priority textinput.Model

	err         string
	missing     []int
	showMissing bool

	width, height int
}

// New builds the model. A zero timeout means five seconds.
func New(backend Backend, theme ui.Theme, timeout time.Duration) Model {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	keys := defaultKeyMap()

	l := list.New(nil, itemDelegate{theme: theme}, defaultWidth-4, defaultHeight-chromeLines)
	l.Title = theme.Header(nil)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle()
	l.Styles.TitleBar = lipgloss.NewStyle()
	l.Styles.HelpStyle = theme.Muted
	l.Styles.PaginationStyle = theme.Muted
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")
	l.KeyMap.Quit.SetEnabled(false)
	l.AdditionalShortHelpKeys = keys.listKeys
	l.AdditionalFullHelpKeys = keys.listKeys

	text := textinput.New()
	text.Prompt = "Task: "
	text.Placeholder = "Task description"
	text.CharLimit = 200

	prio := textinput.New()
	prio.Prompt = "Priority: "
	prio.Placeholder = "Priority (1+)"
	prio.CharLimit = priorityCharLimit

	h := help.New()
	h.Styles.ShortKey = theme.Accent
	h.Styles.ShortDesc = theme.Muted

	return Model{
		backend:  backend,
		theme:    theme,
		timeout:  timeout,
		keys:     keys,
		help:     h,
		list:     l,
		text:     text,
		priority: prio,
		width:    defaultWidth,
		height:   defaultHeight,
	}
}

// Run starts the program in the alternate screen and blocks until quit.
func Run(ctx context.Context, backend Backend, theme ui.Theme, timeout time.Duration) error {
	p := tea.NewProgram(New(backend, theme, timeout), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init loads the list once on start.
func (m Model) Init() tea.Cmd {
	return m.fetchTodos()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case itemsLoadedMsg:
		m.items = msg.items
		m.err = ""
		m.list.Title = m.theme.Header(m.items)
		cmd := m.list.SetItems(toListItems(m.items))
		return m, cmd

	case addedMsg:
		m.err = ""
		m.closeForm()
		return m, m.fetchTodos()

	case deletedMsg:
		m.err = ""
		return m, m.fetchTodos()

	case missingMsg:
		m.missing = msg.missing
		m.showMissing = true
		m.err = ""
		return m, nil

	case errMsg:
		m.err = msg.text
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.updateForm(msg)
		}
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Add):
			cmd := m.openForm()
			return m, cmd
		case key.Matches(msg, m.keys.Delete):
			if it, ok := m.list.SelectedItem().(listItem); ok {
				return m, m.deleteTodo(it.ID)
			}
			return m, nil
		case key.Matches(msg, m.keys.Missing):
			if m.showMissing {
				m.showMissing = false
				return m, nil
			}
			return m, m.fetchMissing()
		case key.Matches(msg, m.keys.Refresh):
			return m, m.fetchTodos()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Interrupt):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		m.closeForm()
		return m, nil
	case key.Matches(msg, m.keys.Switch):
		cmd := m.setFocus(1 - m.focus)
		return m, cmd
	case key.Matches(msg, m.keys.Submit):
		text := strings.TrimSpace(m.text.Value())
		priority, err := strconv.Atoi(strings.TrimSpace(m.priority.Value()))
		if text == "" || err != nil || priority <= 0 {
			m.err = MsgInvalidForm
			return m, nil
		}
		return m, m.addTodo(text, priority)
	}

	var cmd tea.Cmd
	if m.focus == fieldText {
		m.text, cmd = m.text.Update(msg)
	} else {
		m.priority, cmd = m.priority.Update(msg)
	}
	return m, cmd
}

func (m *Model) openForm() tea.Cmd {
	m.adding = true
	m.text.SetValue("")
	m.priority.SetValue("")
	m.resize()
	return m.setFocus(fieldText)
}

func (m *Model) closeForm() {
	m.adding = false
	m.text.SetValue("")
	m.priority.SetValue("")
	m.text.Blur()
	m.priority.Blur()
	m.resize()
}

func (m *Model) setFocus(field int) tea.Cmd {
	m.focus = field
	if field == fieldText {
		m.priority.Blur()
		return m.text.Focus()
	}
	m.text.Blur()
	return m.priority.Focus()
}

func (m *Model) resize() {
	h := m.height - chromeLines
	if m.adding {
		h -= formLines
	}
	if h < 3 {
		h = 3
	}
	m.list.SetSize(m.width-4, h)
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Todo List"))
	b.WriteString("\n")
	if m.err != "" {
		b.WriteString(m.theme.Fail(m.err))
		b.WriteString("\n")
	}
	if m.adding {
		b.WriteString(m.formView())
		b.WriteString("\n")
	}
	if m.showMissing {
		b.WriteString(m.theme.MissingLine(m.missing))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if len(m.items) == 0 {
		b.WriteString(m.theme.Header(nil))
		b.WriteString("\n\n")
		b.WriteString(m.theme.Muted.Render(ui.EmptyHint))
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView(m.keys.listKeys()))
	} else {
		b.WriteString(m.list.View())
	}
	return m.theme.PanelStyle().Render(b.String())
}

func (m Model) formView() string {
	inputs := m.text.View() + "\n" + m.priority.View() + "\n" + m.help.ShortHelpView(m.keys.formKeys())
	return m.theme.PanelStyle().Render(m.theme.Accent.Render("Add todo") + "\n" + inputs)
}

func (m Model) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}

func (m Model) fetchTodos() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		items, err := m.backend.List(ctx)
		if err != nil {
			return errMsg{MsgFetchFailed}
		}
		return itemsLoadedMsg{items}
	}
}

func (m Model) addTodo(text string, priority int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		item, err := m.backend.Add(ctx, text, priority)
		if err != nil {
			var ae *client.APIError
			if errors.As(err, &ae) && ae.Message != "" {
				return errMsg{ae.Message}
			}
			return errMsg{MsgAddFailed}
		}
		return addedMsg{item}
	}
}

func (m Model) deleteTodo(id int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		if err := m.backend.Delete(ctx, id); err != nil {
			return errMsg{MsgDeleteFailed}
		}
		return deletedMsg{id}
	}
}

func (m Model) fetchMissing() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		missing, err := m.backend.MissingPriorities(ctx)
		if err != nil {
			return errMsg{MsgMissingFailed}
		}
		return missingMsg{missing}
	}
}

func toListItems(items []model.Item) []list.Item {
	out := make([]list.Item, 0, len(items))
	for _, it := range items {
		out = append(out, listItem{it})
	}
	return out
}
