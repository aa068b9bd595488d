package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maintainly/fssync/internal/model"
	"github.com/maintainly/fssync/internal/syncer"
)

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"serve", "run", "stream", "worker", "cursors"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	f := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, f)
	assert.Equal(t, "text", f.DefValue)

	f = cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, f)
	assert.Equal(t, "c", f.Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "yaml", "cursors"})
	err := cmd.Execute()
	assert.ErrorContains(t, err, `invalid format "yaml"`)
}

func TestUnknownStreamIsCommandError(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"stream", "tickets"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, errors.Is(err, syncer.ErrUnknownStream))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMissingConfigIsCommandError(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FRESHSERVICE_DOMAIN", "")
	t.Setenv("FRESHSERVICE_API_KEY", "")
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"run"})
	err := cmd.Execute()
	assert.ErrorContains(t, err, "FRESHSERVICE_DOMAIN")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGetExitCodeDefault(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("x")))
}

func sampleReport() syncer.Report {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return syncer.Report{
		OK:         false,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		PerStream: []syncer.StreamReport{
			{Stream: "customers", OK: true, Counts: &syncer.StreamResult{Stream: "customers", Fetched: 4, Inserted: 1, Updated: 2}},
			{Stream: "systems", OK: false, Error: "systems: list assets: timeout"},
		},
	}
}

func TestWriteReportText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, "text", sampleReport()))
	out := buf.String()
	assert.Contains(t, out, "STREAM")
	assert.Regexp(t, `customers\s+ok\s+4\s+1\s+2\s+0\s+0`, out)
	assert.Regexp(t, `systems\s+FAILED\s+systems: list assets: timeout`, out)
	assert.Contains(t, out, "finished in 1.5s")
}

func TestWriteReportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, "json", sampleReport()))
	assert.Contains(t, buf.String(), `"perStream"`)
	assert.Contains(t, buf.String(), `"inserted": 1`)
}

func TestWriteCursorsEmptyJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCursors(&buf, "json", nil))
	assert.JSONEq(t, `[]`, buf.String())

	buf.Reset()
	require.NoError(t, writeCursors(&buf, "text", []model.SyncCursor{{Stream: "agents", Mark: "2024-03-01T11:30:00Z"}}))
	assert.Regexp(t, `agents\s+2024-03-01T11:30:00Z`, buf.String())
}
