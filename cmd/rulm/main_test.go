package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/rulm/pkg/config"
	"github.com/germanamz/rulm/pkg/registry"
	"github.com/germanamz/rulm/pkg/session"
)

// isolate points the user config dir at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)

	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--env", ""}, args...))

	err := cmd.Execute()

	return out.String(), err
}

func streamServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, loadDotEnv(""))
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	p := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(p, []byte("RULM_TEST_DOTENV=loaded\n"), 0o600))
	t.Setenv("RULM_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("RULM_TEST_DOTENV"))

	require.NoError(t, loadDotEnv(p))
	assert.Equal(t, "loaded", os.Getenv("RULM_TEST_DOTENV"))
}

func TestNewLogger(t *testing.T) {
	_, _, err := newLogger("", "loud")
	assert.Error(t, err)

	l, c, err := newLogger("", "debug")
	require.NoError(t, err)
	assert.False(t, l.Enabled(t.Context(), 0))
	assert.NoError(t, c.Close())

	p := filepath.Join(t.TempDir(), "rulm.log")
	l, c, err = newLogger(p, "warn")
	require.NoError(t, err)
	l.Info("hidden")
	l.Warn("shown", "k", "v")
	require.NoError(t, c.Close())

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "msg=shown k=v")
}

func TestNewClient(t *testing.T) {
	cfg := config.Default()
	cfg.Timeout = 30 * time.Second
	cfg.Headers = map[string]string{"Authorization": "Bearer x"}

	c := newClient(cfg, nil)
	assert.Equal(t, cfg.Endpoint, c.Endpoint)
	assert.Equal(t, cfg.Headers, c.Headers)
	require.NotNil(t, c.Client)
	assert.Equal(t, 30*time.Second, c.Client.Timeout)
}

func TestReadPrompt(t *testing.T) {
	p, err := readPrompt([]string{"arg"}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "arg", p)

	p, err = readPrompt(nil, strings.NewReader("from stdin\n"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", p)

	_, err = readPrompt(nil, strings.NewReader("\n"))
	assert.EqualError(t, err, "no prompt given")
}

func TestStreamPrinter_WritesGeneratedPart(t *testing.T) {
	var out, progress bytes.Buffer
	p := &streamPrinter{out: &out, progress: &progress, prefix: len("hi\n")}
	s := p.sink()

	s.Progress("id", 1, 2, "Processing prompt")
	s.Output("id", "hi\nA")
	s.Output("id", "hi\nAB")
	p.endLine()

	assert.Equal(t, "AB\n", out.String())
	assert.Contains(t, progress.String(), "1/2")
	assert.True(t, strings.HasSuffix(progress.String(), "\r\033[K"))
}

func TestStreamPrinter_Quiet(t *testing.T) {
	var out bytes.Buffer
	p := &streamPrinter{out: &out, progress: &bytes.Buffer{}, prefix: 3, quiet: true}

	p.sink().Output("id", "hi\nAB")
	p.endLine()

	assert.Empty(t, out.String())
}

func TestPrintModels(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printModels(&out, registry.Default(), registry.DefaultModel))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "ru-alpaca-7b-q4")
	assert.True(t, strings.HasPrefix(lines[2], "* saiga-7b-q4"))
	assert.Contains(t, lines[2], "2000")
}

func TestInitBase(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := initBase(p, false)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	want := config.Default()
	want.DefaultMaxTokens = 64
	require.NoError(t, config.Save(p, want))

	_, err = initBase(p, false)
	assert.ErrorContains(t, err, "already exists")

	cfg, err = initBase(p, true)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.DefaultMaxTokens)
}

func TestCLI_Complete(t *testing.T) {
	isolate(t)
	srv := streamServer(t, http.StatusOK,
		`{"n_past":2,"n_tokens":2}`+"\n"+`{"text":"A"}`+"\n"+`{"text":"B"}`+"\n")

	out, err := runCLI(t, "", "complete", "--endpoint", srv.URL, "hello")
	require.NoError(t, err)
	assert.Equal(t, "AB\n", out)
}

func TestCLI_CompleteFromStdin(t *testing.T) {
	isolate(t)
	srv := streamServer(t, http.StatusOK, `{"text":"!"}`+"\n")

	out, err := runCLI(t, "hello\n", "complete", "--endpoint", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "!\n", out)
}

func TestCLI_CompleteFailure(t *testing.T) {
	isolate(t)
	srv := streamServer(t, http.StatusServiceUnavailable, "overloaded")

	_, err := runCLI(t, "", "complete", "--endpoint", srv.URL, "hello")
	assert.EqualError(t, err, "overloaded")
}

func TestCLI_CompleteRejectsOutOfRange(t *testing.T) {
	isolate(t)
	srv := streamServer(t, http.StatusOK, "")

	_, err := runCLI(t, "", "complete", "--endpoint", srv.URL, "--max-tokens", "99999", "hello")
	assert.ErrorIs(t, err, session.ErrInvalidParams)
}

func TestCLI_ConfigFile(t *testing.T) {
	isolate(t)
	p := filepath.Join(t.TempDir(), "rulm.yaml")
	require.NoError(t, os.WriteFile(p, []byte("model: ru-alpaca-7b-q4\n"), 0o600))

	out, err := runCLI(t, "", "--config", p, "models")
	require.NoError(t, err)
	assert.Contains(t, out, "* ru-alpaca-7b-q4")
}

func TestCLI_InvalidConfig(t *testing.T) {
	isolate(t)

	_, err := runCLI(t, "", "--endpoint", "ftp://example.com", "models")
	assert.ErrorContains(t, err, "scheme must be http or https")

	_, err = runCLI(t, "", "--model", "nope", "models")
	assert.ErrorIs(t, err, registry.ErrUnknownModel)
}

func TestSessionOptions_ProgressLabel(t *testing.T) {
	srv := streamServer(t, http.StatusOK, `{"n_past":1,"n_tokens":4}`+"\n")

	cfg := config.Default()
	cfg.Endpoint = srv.URL
	cfg.ProgressLabel = "Reading prompt"
	e := &env{cfg: cfg, reg: registry.Default(), logger: slog.New(slog.DiscardHandler)}
	e.client = newClient(cfg, e.logger)

	var labels []string
	sink := session.SinkFuncs{OnProgress: func(_ string, _, _ int, label string) {
		labels = append(labels, label)
	}}
	ctrl := session.NewController(e.client, e.reg, e.sessionOptions(session.WithSink(sink))...)

	params, err := e.defaultParams()
	require.NoError(t, err)
	res, err := ctrl.Run(t.Context(), session.NewInput("hi", params))
	require.NoError(t, err)
	assert.Equal(t, session.StateCompleted, res.State)
	assert.Equal(t, []string{"Reading prompt"}, labels)
}
