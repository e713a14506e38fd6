package tui

import (
	"context"
	"errors"
	"net/http"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/priotodo/internal/client"
	"github.com/Makepad-fr/priotodo/internal/model"
	"github.com/Makepad-fr/priotodo/internal/store"
	"github.com/Makepad-fr/priotodo/internal/store/memstore"
	"github.com/Makepad-fr/priotodo/internal/ui"
)

// fakeBackend serves from a memstore and can be told to fail.
type fakeBackend struct {
	s    *memstore.Store
	fail error
}

func newFake() *fakeBackend { return &fakeBackend{s: memstore.New()} }

func (f *fakeBackend) List(ctx context.Context) ([]model.Item, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return f.s.List(ctx)
}

func (f *fakeBackend) Add(ctx context.Context, text string, priority int) (model.Item, error) {
	if f.fail != nil {
		return model.Item{}, f.fail
	}
	it, err := f.s.Add(ctx, text, priority)
	var ve *store.ValidationError
	if errors.As(err, &ve) {
		return model.Item{}, &client.APIError{Status: http.StatusBadRequest, Message: ve.Message}
	}
	return it, err
}

func (f *fakeBackend) Delete(ctx context.Context, id int) error {
	if f.fail != nil {
		return f.fail
	}
	ok, err := f.s.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return &client.APIError{Status: http.StatusNotFound, Message: "Todo not found"}
	}
	return nil
}

func (f *fakeBackend) MissingPriorities(ctx context.Context) ([]int, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return f.s.MissingPriorities(ctx)
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

// exec runs a backend command and feeds its message back.
func exec(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	return update(t, m, cmd())
}

func newModel(t *testing.T, b Backend) Model {
	t.Helper()
	m := New(b, ui.NewTheme("mono"), 0)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = exec(t, m, m.Init())
	return m
}

func addVia(t *testing.T, m Model, text, priority string) Model {
	t.Helper()
	m, _ = update(t, m, runes("a"))
	require.True(t, m.adding)
	m, _ = update(t, m, runes(text))
	m, _ = update(t, m, keyTab)
	m, _ = update(t, m, runes(priority))
	m, cmd := update(t, m, keyEnter)
	if cmd == nil {
		return m
	}
	m, cmd = exec(t, m, cmd)
	if cmd != nil {
		m, _ = exec(t, m, cmd)
	}
	return m
}

func view(m Model) string { return ansi.Strip(m.View()) }

func TestInit_LoadsList(t *testing.T) {
	b := newFake()
	_, err := b.s.Add(context.Background(), "buy milk", 2)
	require.NoError(t, err)

	m := newModel(t, b)
	require.Len(t, m.items, 1)
	assert.Contains(t, view(m), "buy milk")
	assert.Contains(t, view(m), "Todo Items (1)")
}

func TestEmptyState(t *testing.T) {
	m := newModel(t, newFake())
	out := view(m)
	assert.Contains(t, out, "Todo Items (0)")
	assert.Contains(t, out, ui.EmptyHint)
}

func TestAdd_Ordered(t *testing.T) {
	m := newModel(t, newFake())
	m = addVia(t, m, "buy milk", "2")
	m = addVia(t, m, "write report", "1")
	m = addVia(t, m, "call bank", "1")

	assert.False(t, m.adding)
	assert.Empty(t, m.err)
	assert.Equal(t, []model.Item{
		{ID: 2, Text: "write report", Priority: 1},
		{ID: 3, Text: "call bank", Priority: 1},
		{ID: 1, Text: "buy milk", Priority: 2},
	}, m.items)
	assert.Len(t, m.list.Items(), 3)
}

func TestAdd_ClientValidation(t *testing.T) {
	for _, tc := range []struct{ name, text, priority string }{
		{"blank text", "   ", "1"},
		{"zero priority", "x", "0"},
		{"negative priority", "x", "-2"},
		{"not a number", "x", "high"},
		{"fraction", "x", "1.5"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := newFake()
			m := newModel(t, b)
			m = addVia(t, m, tc.text, tc.priority)

			assert.Equal(t, MsgInvalidForm, m.err)
			assert.True(t, m.adding, "form stays open")
			assert.Contains(t, view(m), MsgInvalidForm)

			items, err := b.s.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, items, "nothing reached the server")
		})
	}
}

func TestAdd_ServerMessageShown(t *testing.T) {
	b := newFake()
	m := newModel(t, b)
	m, _ = update(t, m, runes("a"))
	m, _ = update(t, m, runes("x"))
	m, _ = update(t, m, keyTab)
	m, _ = update(t, m, runes("3"))

	// Simulate a server that rejects the input.
	m, _ = update(t, m, m.addTodo("x", -1)())
	assert.Equal(t, store.MsgPriorityNotPositive, m.err)
	assert.True(t, m.adding)
	assert.Equal(t, "x", m.text.Value(), "input kept after a rejected add")
}

func TestAdd_NetworkFailure(t *testing.T) {
	b := newFake()
	m := newModel(t, b)
	b.fail = errors.New("connection refused")

	m = addVia(t, m, "buy milk", "2")
	assert.Equal(t, MsgAddFailed, m.err)
}

func TestAdd_Cancel(t *testing.T) {
	m := newModel(t, newFake())
	m, _ = update(t, m, runes("a"))
	m, _ = update(t, m, runes("draft"))
	m, _ = update(t, m, keyEsc)

	assert.False(t, m.adding)
	assert.Empty(t, m.text.Value())
	assert.NotContains(t, view(m), "Add todo")
}

func TestDelete(t *testing.T) {
	m := newModel(t, newFake())
	m = addVia(t, m, "buy milk", "2")
	m = addVia(t, m, "write report", "1")

	// Cursor is on the first row, the priority 1 item.
	m, cmd := update(t, m, runes("d"))
	m, cmd = exec(t, m, cmd)
	m, _ = exec(t, m, cmd)

	require.Len(t, m.items, 1)
	assert.Equal(t, "buy milk", m.items[0].Text)
}

func TestDelete_Failure(t *testing.T) {
	b := newFake()
	m := newModel(t, b)
	m = addVia(t, m, "buy milk", "2")
	b.fail = errors.New("boom")

	m, cmd := update(t, m, runes("d"))
	m, _ = exec(t, m, cmd)
	assert.Equal(t, MsgDeleteFailed, m.err)
	assert.Contains(t, view(m), MsgDeleteFailed)
}

func TestDelete_EmptyListNoop(t *testing.T) {
	m := newModel(t, newFake())
	_, cmd := update(t, m, runes("d"))
	assert.Nil(t, cmd)
}

func TestMissingToggle(t *testing.T) {
	m := newModel(t, newFake())
	m = addVia(t, m, "a", "1")
	m = addVia(t, m, "b", "3")

	m, cmd := update(t, m, runes("m"))
	m, _ = exec(t, m, cmd)
	assert.True(t, m.showMissing)
	assert.Contains(t, view(m), "Missing Priorities: 2")

	m, cmd = update(t, m, runes("m"))
	assert.Nil(t, cmd)
	assert.False(t, m.showMissing)
	assert.NotContains(t, view(m), "Missing Priorities")
}

func TestMissing_None(t *testing.T) {
	m := newModel(t, newFake())
	m, cmd := update(t, m, runes("m"))
	m, _ = exec(t, m, cmd)
	assert.Contains(t, view(m), "Missing Priorities: None")
}

func TestFailuresThenRecovery(t *testing.T) {
	b := newFake()
	m := newModel(t, b)
	b.fail = errors.New("down")

	m, cmd := update(t, m, runes("r"))
	m, _ = exec(t, m, cmd)
	assert.Equal(t, MsgFetchFailed, m.err)

	m, cmd = update(t, m, runes("m"))
	m, _ = exec(t, m, cmd)
	assert.Equal(t, MsgMissingFailed, m.err)
	assert.False(t, m.showMissing)

	b.fail = nil
	m, cmd = update(t, m, runes("r"))
	m, _ = exec(t, m, cmd)
	assert.Empty(t, m.err, "next success clears the error")
}

func TestQuit(t *testing.T) {
	m := newModel(t, newFake())
	_, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestQuit_NotWhileTyping(t *testing.T) {
	m := newModel(t, newFake())
	m, _ = update(t, m, runes("a"))
	m, _ = update(t, m, runes("q"))
	assert.True(t, m.adding)
	assert.Equal(t, "q", m.text.Value())
}

func TestQuit_CtrlCWhileTyping(t *testing.T) {
	m := newModel(t, newFake())
	m, _ = update(t, m, runes("a"))
	m, _ = update(t, m, runes("draft"))

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
