package cli

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/priotodo/internal/api"
	"github.com/Makepad-fr/priotodo/internal/logging"
	"github.com/Makepad-fr/priotodo/internal/model"
	"github.com/Makepad-fr/priotodo/internal/store/memstore"
)

func startServer(t *testing.T) string {
	t.Helper()
	s := memstore.New()
	srv := httptest.NewServer(api.New(s, logging.Discard()))
	t.Cleanup(func() {
		srv.Close()
		_ = s.Close()
	})
	return srv.URL
}

func TestTodos_JSON(t *testing.T) {
	isolate(t)
	url := startServer(t)
	run := func(args ...string) string {
		t.Helper()
		code, stdout, stderr := execute(t, append([]string{"--server", url, "--format", "json"}, args...)...)
		require.Equal(t, ExitSuccess, code, stderr)
		return stdout
	}

	var item model.Item
	require.NoError(t, json.Unmarshal([]byte(run("add", "2", "buy", "milk")), &item))
	assert.Equal(t, model.Item{ID: 1, Text: "buy milk", Priority: 2}, item)

	run("add", "1", "write report")
	run("add", "1", "  call bank  ")

	var items []model.Item
	require.NoError(t, json.Unmarshal([]byte(run("ls")), &items))
	assert.Equal(t, []model.Item{
		{ID: 2, Text: "write report", Priority: 1},
		{ID: 3, Text: "call bank", Priority: 1},
		{ID: 1, Text: "buy milk", Priority: 2},
	}, items)

	run("add", "5", "file taxes")
	var missing []int
	require.NoError(t, json.Unmarshal([]byte(run("missing")), &missing))
	assert.Equal(t, []int{3, 4}, missing)

	var msg map[string]string
	require.NoError(t, json.Unmarshal([]byte(run("rm", "1")), &msg))
	assert.Equal(t, "Todo deleted successfully", msg["message"])
}

func TestTodos_YAML(t *testing.T) {
	isolate(t)
	url := startServer(t)

	code, stdout, _ := execute(t, "--server", url, "--format", "yaml", "missing")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "[]\n", stdout)

	execute(t, "--server", url, "add", "1", "a")
	execute(t, "--server", url, "add", "3", "b")

	_, stdout, _ = execute(t, "--server", url, "--format", "yaml", "missing")
	assert.Equal(t, "- 2\n", stdout)

	_, stdout, _ = execute(t, "--server", url, "--format", "yaml", "ls")
	assert.Equal(t, "- id: 1\n  text: a\n  priority: 1\n- id: 2\n  text: b\n  priority: 3\n", stdout)
}

func TestTodos_Text(t *testing.T) {
	isolate(t)
	url := startServer(t)

	_, stdout, _ := execute(t, "--server", url, "ls")
	assert.Contains(t, stdout, "Todo Items (0)")
	assert.Contains(t, stdout, "No todos yet. Add one above!")

	_, stdout, _ = execute(t, "--server", url, "add", "2", "buy milk")
	assert.Contains(t, ansi.Strip(stdout), "added P2  buy milk  #1")

	_, stdout, _ = execute(t, "--server", url, "ls")
	out := ansi.Strip(stdout)
	assert.Contains(t, out, "Todo Items (1)")
	assert.Contains(t, out, "P2  buy milk  #1")

	_, stdout, _ = execute(t, "--server", url, "missing")
	assert.Equal(t, "Missing Priorities: 1", strings.TrimSpace(ansi.Strip(stdout)))

	_, stdout, _ = execute(t, "--server", url, "rm", "1")
	assert.Contains(t, ansi.Strip(stdout), "Todo deleted successfully (#1)")

	_, stdout, _ = execute(t, "--server", url, "missing")
	assert.Equal(t, "Missing Priorities: None", strings.TrimSpace(ansi.Strip(stdout)))
}

func TestTodos_Failures(t *testing.T) {
	isolate(t)
	url := startServer(t)

	tests := []struct {
		name string
		args []string
		code int
		want string
	}{
		{"zero priority", []string{"add", "0", "x"}, ExitCommandError, "Please enter valid text and priority (positive integer)"},
		{"word priority", []string{"add", "high", "x"}, ExitCommandError, "Please enter valid text and priority (positive integer)"},
		{"blank text", []string{"add", "1", "   "}, ExitCommandError, "Please enter valid text and priority (positive integer)"},
		{"bad id", []string{"rm", "abc"}, ExitCommandError, "Invalid ID"},
		{"unknown id", []string{"rm", "999"}, ExitFailure, "Todo not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(t, append([]string{"--server", url}, tt.args...)...)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, stderr, tt.want)
		})
	}

	code, stdout, _ := execute(t, "--server", url, "--format", "json", "ls")
	require.Equal(t, ExitSuccess, code)
	assert.JSONEq(t, "[]", stdout, "rejected adds never reached the store")
}

func TestTodos_ServerDown(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()

	for _, tc := range []struct {
		args []string
		want string
	}{
		{[]string{"ls"}, "Failed to fetch todos"},
		{[]string{"add", "1", "x"}, "Failed to add todo"},
		{[]string{"rm", "1"}, "Failed to delete todo"},
		{[]string{"missing"}, "Failed to fetch missing priorities"},
	} {
		code, _, stderr := execute(t, append([]string{"--server", url}, tc.args...)...)
		assert.Equal(t, ExitFailure, code, tc.args)
		assert.Contains(t, stderr, tc.want)
	}
}

func TestTodos_BadServerURL(t *testing.T) {
	isolate(t)
	code, _, stderr := execute(t, "--server", "ftp://example.com", "ls")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "invalid server url")
}
